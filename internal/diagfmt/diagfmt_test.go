package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"dotgate/internal/diag"
	"dotgate/internal/interop"
	"dotgate/internal/source"
)

const sample = "val id: Long = 1L\nfun 名前() {}\n"

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	fs.SetBaseDir("/work")
	file := fs.AddVirtual("/work/lib/test.kt", []byte(sample))

	long := source.Span{File: file, Start: 8, End: 12}
	name := source.Span{File: file, Start: 22, End: 28}

	bag := diag.NewBag(0)
	bag.Add(diag.LongReference.On(diag.At(long)).
		WithFix("Replace Long with Int", diag.FixEdit{Span: long, NewText: "Int"}))
	bag.Add(diag.DartNameClash.On(diag.At(name), "名前", "id").
		WithNote(long, "first declared here"))
	return bag, fs
}

func TestPrettyLayout(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true, ShowFixes: true, ShowPreview: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"lib/test.kt:1:9: ERROR TYP3001 [LONG_REFERENCE]: cannot use Long, use Int instead\n",
		" 1 | val id: Long = 1L\n",
		"   |         ^~~~\n",
		"  fix #1: Replace Long with Int\n",
		"    apply=\"Int\"\n",
		"      - val id: Long = 1L\n",
		"      + val id: Int = 1L\n",
		"lib/test.kt:2:5: ERROR NAM1001 [DART_NAME_CLASH]: Dart name generated for '名前' clashes with another declaration: 'id'\n",
		"  note: lib/test.kt:1:9: first declared here\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("color codes with Color=false")
	}
}

func TestPrettyWideCharacters(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	// "名前" occupies four terminal cells, as does the "fun " prefix.
	if !strings.Contains(buf.String(), " 2 | fun 名前() {}\n   |     ^~~~\n") {
		t.Fatalf("caret misaligned:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "note:") {
		t.Error("notes shown without ShowNotes")
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Color: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatal("expected ANSI escapes with Color=true")
	}
}

func TestPrettyReportsDropped(t *testing.T) {
	_, fs := sampleBag(t)
	bag := diag.NewBag(1)
	sp := source.Span{File: 0, Start: 8, End: 12}
	bag.Add(diag.LongReference.On(diag.At(sp)))
	bag.Add(diag.LongReference.On(diag.At(sp)))
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "... 1 more diagnostics not shown\n") {
		t.Fatalf("output:\n%s", buf.String())
	}
}

func TestPathModes(t *testing.T) {
	bag, fs := sampleBag(t)
	tests := []struct {
		mode PathMode
		want string
	}{
		{PathModeAuto, "lib/test.kt:1:9"},
		{PathModeAbsolute, "/work/lib/test.kt:1:9"},
		{PathModeBasename, "test.kt:1:9"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode}); err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(buf.String(), tt.want+":") {
			t.Errorf("mode %d: got %q", tt.mode, strings.SplitN(buf.String(), "\n", 2)[0])
		}
	}
	if m, ok := ParsePathMode("basename"); !ok || m != PathModeBasename {
		t.Fatal("ParsePathMode(basename)")
	}
}

func TestShort(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, true); err != nil {
		t.Fatal(err)
	}
	want := "error TYP3001 lib/test.kt:1:9 cannot use Long, use Int instead\n" +
		"error NAM1001 lib/test.kt:2:5 Dart name generated for '名前' clashes with another declaration: 'id'\n" +
		"note NAM1001 lib/test.kt:1:9 first declared here\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestJSON(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{
		IncludePositions: true,
		IncludeNotes:     true,
		IncludeFixes:     true,
		IncludePreviews:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || out.Errors != 2 || out.Proceed {
		t.Fatalf("summary = %+v", out)
	}
	first := out.Diagnostics[0]
	if first.Code != "TYP3001" || first.Name != "LONG_REFERENCE" || first.Severity != "ERROR" {
		t.Fatalf("first = %+v", first)
	}
	if first.Location.File != "lib/test.kt" || first.Location.StartLine != 1 || first.Location.StartCol != 9 {
		t.Fatalf("location = %+v", first.Location)
	}
	if len(first.Fixes) != 1 || first.Fixes[0].Edits[0].NewText != "Int" {
		t.Fatalf("fixes = %+v", first.Fixes)
	}
	if got := first.Fixes[0].Edits[0].AfterLines; len(got) != 1 || got[0] != "val id: Int = 1L" {
		t.Fatalf("preview = %v", got)
	}
	second := out.Diagnostics[1]
	if len(second.Args) != 2 || second.Args[1] != "id" || len(second.Notes) != 1 {
		t.Fatalf("second = %+v", second)
	}

	buf.Reset()
	if err := JSON(&buf, bag, fs, JSONOpts{Max: 1}); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || out.Errors != 2 {
		t.Fatalf("Max must trim output, not counts: %+v", out)
	}
}

func TestMetadata(t *testing.T) {
	var buf bytes.Buffer
	err := Metadata(&buf, []UnitMetadata{
		{Unit: "a.kt"},
		{Unit: "b.kt", Signatures: []interop.Signature{{
			Symbol: "f",
			Kind:   "function",
			Params: []interop.ParamMeta{{Name: "a", Index: 1, Explicit: true}, {Name: "b", Index: 0}},
		}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	var got []UnitMetadata
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Unit != "b.kt" || got[0].Signatures[0].Params[0].Index != 1 {
		t.Fatalf("metadata = %+v", got)
	}
}

func TestSarif(t *testing.T) {
	prev := SarifRunGUID
	SarifRunGUID = func() string { return "00000000-0000-4000-8000-000000000000" }
	defer func() { SarifRunGUID = prev }()

	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	err := Sarif(&buf, bag, fs, SarifRunMeta{ToolName: "dotgate", ToolVersion: "1.0.0", InvocationArgs: []string{"check"}})
	if err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}
	run := log.Runs[0]
	if run.AutomationDetails.GUID != "00000000-0000-4000-8000-000000000000" {
		t.Fatalf("guid = %s", run.AutomationDetails.GUID)
	}
	if len(run.Tool.Driver.Rules) != len(diag.All()) {
		t.Fatalf("rules = %d, want %d", len(run.Tool.Driver.Rules), len(diag.All()))
	}
	if len(run.Results) != 2 || len(run.Artifacts) != 1 {
		t.Fatalf("results = %d, artifacts = %d", len(run.Results), len(run.Artifacts))
	}
	r := run.Results[0]
	if run.Tool.Driver.Rules[r.RuleIndex].ID != r.RuleID || r.Level != "error" {
		t.Fatalf("result = %+v", r)
	}
	region := r.Locations[0].PhysicalLocation.Region
	if region.StartLine != 1 || region.StartColumn != 9 || region.ByteOffset != 8 || region.ByteLength != 4 {
		t.Fatalf("region = %+v", region)
	}
	if got := r.Fixes[0].ArtifactChanges[0].Replacements[0].InsertedContent.Text; got != "Int" {
		t.Fatalf("fix inserts %q", got)
	}
	if len(run.Results[1].RelatedLocations) != 1 {
		t.Fatal("notes must become related locations")
	}
}
