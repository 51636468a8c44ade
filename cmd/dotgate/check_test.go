package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"dotgate/internal/diagfmt"
	"dotgate/internal/driver"
	"dotgate/internal/fix"
	"dotgate/internal/metrics"
	"dotgate/internal/observ"
	"dotgate/internal/project"
	"dotgate/internal/rules"
	"dotgate/internal/source"
	"dotgate/internal/tree"
	"dotgate/internal/verify"
	"dotgate/internal/version"
)

func TestReadUIMode(t *testing.T) {
	cases := map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, " on ": uiModeOn, "off": uiModeOff}
	for in, want := range cases {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if shouldUseTUI(uiModeOff, 10) {
		t.Error("off must never draw")
	}
	if !shouldUseTUI(uiModeOn, 1) {
		t.Error("on must always draw")
	}
}

func TestReadOutputFormat(t *testing.T) {
	for _, in := range []string{"pretty", "Short", "json", "sarif", ""} {
		if _, err := readOutputFormat(in); err != nil {
			t.Errorf("readOutputFormat(%q): %v", in, err)
		}
	}
	if _, err := readOutputFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestResolveCheckSettings(t *testing.T) {
	m := &project.Manifest{
		Root: "/proj",
		Config: project.Config{
			Package: project.PackageConfig{Name: "demo", Publishable: true},
			Check:   project.CheckConfig{Units: []string{"units"}, MaxDiagnostics: 20, Jobs: 3},
			Cache:   project.CacheConfig{Enabled: true, Dir: ".dotgate/cache"},
		},
	}

	s, err := resolveCheckSettings(m, checkFlags{maxDiagnostics: -1}, "/proj/sub")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(s.paths, []string{filepath.Join("/proj", "units")}) {
		t.Errorf("paths = %v", s.paths)
	}
	if s.baseDir != "/proj" || !s.publishable || s.maxDiagnostics != 20 || s.jobs != 3 {
		t.Errorf("settings = %+v", s)
	}
	if !s.cacheEnabled || s.cacheDir != filepath.Join("/proj", ".dotgate", "cache") {
		t.Errorf("cache = %v %q", s.cacheEnabled, s.cacheDir)
	}

	off := false
	on := true
	s, err = resolveCheckSettings(m, checkFlags{
		args:             []string{"a.yaml"},
		maxDiagnostics:   0,
		jobs:             8,
		publishable:      &off,
		warningsAsErrors: &on,
		noCache:          true,
	}, "/proj")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(s.paths, []string{"a.yaml"}) || s.publishable || !s.warningsAsErrors || s.cacheEnabled {
		t.Errorf("flags must win: %+v", s)
	}
	if s.maxDiagnostics != 0 || s.jobs != 8 {
		t.Errorf("limits = %d/%d", s.maxDiagnostics, s.jobs)
	}

	s, err = resolveCheckSettings(nil, checkFlags{args: []string{"x"}, maxDiagnostics: -1}, "/wd")
	if err != nil {
		t.Fatal(err)
	}
	if s.maxDiagnostics != 100 || s.baseDir != "/wd" || s.cacheEnabled {
		t.Errorf("defaults without manifest = %+v", s)
	}
	if _, err := resolveCheckSettings(nil, checkFlags{maxDiagnostics: -1}, "/wd"); err == nil {
		t.Error("expected error without units")
	}
}

func TestExampleUnitPasses(t *testing.T) {
	fs := source.NewFileSet()
	u, err := tree.Parse(fs, "units/example.yaml", []byte(exampleUnit("demo")))
	if err != nil {
		t.Fatalf("parse example: %v", err)
	}
	if u.Package != "demo" {
		t.Errorf("package = %q", u.Package)
	}
	res := verify.Verify(context.Background(), u, verify.Options{})
	if !res.Proceed || res.Bag.Len() != 0 {
		t.Fatalf("example unit is blocked: %d diagnostics", res.Bag.Len())
	}
}

func TestProjectName(t *testing.T) {
	if got := projectName(filepath.Join("/tmp", "kotlin-app")); got != "kotlin-app" {
		t.Errorf("projectName = %q", got)
	}
	if got := projectName(string(filepath.Separator)); got != "dotgate-project" {
		t.Errorf("projectName(/) = %q", got)
	}
}

func TestCollectCatalog(t *testing.T) {
	entries := collectCatalog(rules.Default(), "")
	var clash *catalogEntry
	for i := range entries {
		if entries[i].Name == "DART_NAME_CLASH" {
			clash = &entries[i]
		}
	}
	if clash == nil {
		t.Fatal("DART_NAME_CLASH missing from catalog")
	}
	if clash.Code != "NAM1001" || clash.Severity != "error" || clash.Signature != "(string, string)" {
		t.Errorf("entry = %+v", *clash)
	}
	if !slices.Contains(clash.Rules, "dart-name-clash") {
		t.Errorf("rules = %v", clash.Rules)
	}
	if clash.Positioning != "signature-or-default" {
		t.Errorf("positioning = %q", clash.Positioning)
	}

	for _, e := range collectCatalog(rules.Default(), "cst") {
		if !strings.HasPrefix(e.Code, "CST") {
			t.Errorf("category filter leaked %s", e.Code)
		}
	}
}

func writeUnitFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckReportJSON(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeUnitFile(t, dir, "a.yaml", "decls:\n  - {kind: val, name: id, type: Long}\n"),
		writeUnitFile(t, dir, "b.yaml", "decls: ["),
	}
	run, err := driver.VerifyAll(context.Background(), files, driver.Options{BaseDir: dir})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	r := checkReport{run: run, format: formatJSON}
	if err := r.write(&buf); err != nil {
		t.Fatal(err)
	}
	var got []struct {
		Unit        string `json:"unit"`
		Error       string `json:"error"`
		Errors      int    `json:"errors"`
		Proceed     bool   `json:"proceed"`
		Diagnostics []struct {
			Name string `json:"name"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if len(got) != 2 {
		t.Fatalf("units = %d", len(got))
	}
	if got[0].Unit != "a.yaml" || got[0].Proceed || len(got[0].Diagnostics) != 1 || got[0].Diagnostics[0].Name != "LONG_REFERENCE" {
		t.Errorf("a.yaml = %+v", got[0])
	}
	if got[1].Error == "" || got[1].Errors != 1 || got[1].Proceed {
		t.Errorf("b.yaml = %+v", got[1])
	}

	errs, warns := run.Counts()
	if line := summaryLine(run, errs, warns); line != "checked 2 units: 2 errors, 0 warnings" {
		t.Errorf("summary = %q", line)
	}
}

func TestWriteMetadataSkipsBlockedUnits(t *testing.T) {
	run := &driver.Run{Units: []driver.UnitResult{
		{Path: "ok.yaml", Proceed: true},
		{Path: "blocked.yaml", Proceed: false},
	}}
	var buf bytes.Buffer
	if err := writeMetadata(&buf, "-", run); err != nil {
		t.Fatal(err)
	}
	var got []diagfmt.UnitMetadata
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("units without signatures must be omitted: %+v", got)
	}
}

func TestPrintTimings(t *testing.T) {
	var buf bytes.Buffer
	printTimings(&buf, observ.Report{
		TotalMS: 3,
		Phases: []observ.PhaseReport{
			{Name: "load", DurationMS: 1, Note: "2 units"},
			{Name: "verify", DurationMS: 2},
		},
	})
	want := "load 1.0 ms (2 units)\nverify 2.0 ms\ntotal 3.0 ms\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestRenderVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	info := version.Info{Version: "1.2.3"}
	if err := renderVersionJSON(&buf, info, versionOptions{showHash: true}); err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Tool != "dotgate" || payload.Version != "1.2.3" || payload.GitCommit != "unknown" || payload.BuildDate != "" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestReadApplyOptions(t *testing.T) {
	opts, err := readApplyOptions(false, "", "", false)
	if err != nil || opts.Mode != fix.ApplyModeOnce {
		t.Fatalf("default = %+v, %v", opts, err)
	}
	opts, err = readApplyOptions(false, "TYP3005", "", true)
	if err != nil || opts.Mode != fix.ApplyModeCode || opts.Code != "TYP3005" || !opts.DryRun {
		t.Fatalf("code = %+v, %v", opts, err)
	}
	if _, err := readApplyOptions(true, "TYP3005", "", false); err == nil {
		t.Fatal("expected error for --all with --code")
	}
}

func TestWatchRoots(t *testing.T) {
	dir := t.TempDir()
	unit := writeUnitFile(t, dir, "lib/a.yaml", "decls: []\n")
	got := watchRoots([]string{
		unit,
		filepath.Join(dir, "lib"),
		filepath.Join(dir, "lib", "**", "*.yaml"),
		filepath.Join(dir, "missing"),
	})
	want := []string{filepath.Join(dir, "lib")}
	if !slices.Equal(got, want) {
		t.Fatalf("roots = %v, want %v", got, want)
	}
}

func TestCheckPassWritesMetrics(t *testing.T) {
	dir := t.TempDir()
	writeUnitFile(t, dir, "units/ok.yaml", "decls:\n  - {kind: fun, name: main}\n")
	writeUnitFile(t, dir, "units/nested/long.yaml", "decls:\n  - {kind: val, name: id, type: Long}\n")
	metricsPath := filepath.Join(dir, "dotgate.prom")

	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	pass := &checkPass{
		settings:    checkSettings{paths: []string{filepath.Join(dir, "units", "**", "*.yaml")}, baseDir: dir},
		opts:        driver.Options{BaseDir: dir},
		report:      checkReport{format: formatShort},
		recorder:    metrics.New(),
		metricsPath: metricsPath,
	}
	blocked, err := pass.check(context.Background(), cmd)
	if err != nil {
		t.Fatal(err)
	}
	if !blocked {
		t.Fatal("Long reference must block the gate")
	}
	if !strings.Contains(stdout.String(), "TYP3001") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "checked 2 units: 1 error, 0 warnings") {
		t.Errorf("stderr = %q", stderr.String())
	}
	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `dotgate_units_total{status="blocked"} 1`) {
		t.Errorf("metrics = %s", data)
	}
}
