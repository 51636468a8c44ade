package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dotgate/internal/diag"
	"dotgate/internal/diagfmt"
	"dotgate/internal/driver"
	"dotgate/internal/metrics"
	"dotgate/internal/project"
	"dotgate/internal/trace"
	"dotgate/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [unit.yaml|directory]...",
	Short: "Verify resolved units against the Dart compatibility rules",
	Long: `Verify resolved Kotlin units and report every construct that cannot be
lowered to Dart. Without arguments the units listed in dotgate.toml are checked.
The command exits with status 1 when any unit is blocked.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	checkCmd.Flags().Bool("warnings-as-errors", false, "block the gate on warnings")
	checkCmd.Flags().Bool("publishable", false, "enable public API checks (overrides dotgate.toml)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers (0 = from dotgate.toml or auto)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("preview", false, "include before/after previews of fix suggestions")
	checkCmd.Flags().String("path-mode", "auto", "how to print file paths (auto|absolute|basename)")
	checkCmd.Flags().Bool("no-cache", false, "do not read or write the result cache")
	checkCmd.Flags().Bool("clear-cache", false, "drop cached results before checking")
	checkCmd.Flags().String("metadata", "", "write validated interop metadata as JSON to this file (- for stdout)")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().Bool("watch", false, "re-check whenever a unit file changes")
	checkCmd.Flags().String("metrics-file", "", "write Prometheus metrics in text format to this file")
}

type outputFormat string

const (
	formatPretty outputFormat = "pretty"
	formatShort  outputFormat = "short"
	formatJSON   outputFormat = "json"
	formatSarif  outputFormat = "sarif"
)

func readOutputFormat(value string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(value))); f {
	case formatPretty, formatShort, formatJSON, formatSarif:
		return f, nil
	case "":
		return formatPretty, nil
	}
	return "", fmt.Errorf("unknown format %q (expected pretty|short|json|sarif)", value)
}

// checkFlags are the command line values that may override dotgate.toml.
// Negative numbers and nil pointers mean "not given".
type checkFlags struct {
	args             []string
	maxDiagnostics   int
	jobs             int
	publishable      *bool
	warningsAsErrors *bool
	noCache          bool
}

// checkSettings is the effective configuration of one check run.
type checkSettings struct {
	paths            []string
	baseDir          string
	publishable      bool
	maxDiagnostics   int
	jobs             int
	warningsAsErrors bool
	cacheEnabled     bool
	cacheDir         string
}

// resolveCheckSettings merges the manifest (may be nil) with flags. Flags win.
func resolveCheckSettings(m *project.Manifest, f checkFlags, wd string) (checkSettings, error) {
	s := checkSettings{
		paths:          f.args,
		baseDir:        wd,
		maxDiagnostics: 100,
	}
	if m != nil {
		cfg := m.Config
		s.baseDir = m.Root
		s.publishable = cfg.Package.Publishable
		s.maxDiagnostics = cfg.Check.MaxDiagnostics
		s.jobs = cfg.Check.Jobs
		s.warningsAsErrors = cfg.Check.WarningsAsErrors
		s.cacheEnabled = cfg.Cache.Enabled
		s.cacheDir = m.CacheDir()
		if len(s.paths) == 0 {
			s.paths = m.UnitPaths()
		}
	}
	if len(s.paths) == 0 {
		return checkSettings{}, errors.New("no units given and no [check].units in " + project.ManifestName)
	}
	if f.maxDiagnostics >= 0 {
		s.maxDiagnostics = f.maxDiagnostics
	}
	if f.jobs > 0 {
		s.jobs = f.jobs
	}
	if f.publishable != nil {
		s.publishable = *f.publishable
	}
	if f.warningsAsErrors != nil {
		s.warningsAsErrors = *f.warningsAsErrors
	}
	if f.noCache {
		s.cacheEnabled = false
	}
	return s, nil
}

func boolFlagIfChanged(cmd *cobra.Command, name string) (*bool, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	return &v, nil
}

// runCheck executes the "check" command: it resolves the units, verifies
// them, renders the diagnostics and reports the gate through the exit status.
func runCheck(cmd *cobra.Command, args []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx := cmd.Context()
	defer dumpTraceOnPanic(ctx)

	// Получаем флаги
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := readOutputFormat(formatStr)
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	preview, err := cmd.Flags().GetBool("preview")
	if err != nil {
		return fmt.Errorf("failed to get preview flag: %w", err)
	}
	pathModeStr, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	pathMode, ok := diagfmt.ParsePathMode(pathModeStr)
	if !ok {
		return fmt.Errorf("invalid --path-mode value %q (expected auto|absolute|basename)", pathModeStr)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	metadataOut, err := cmd.Flags().GetString("metadata")
	if err != nil {
		return fmt.Errorf("failed to get metadata flag: %w", err)
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiStr)
	if err != nil {
		return err
	}
	publishable, err := boolFlagIfChanged(cmd, "publishable")
	if err != nil {
		return err
	}
	warningsAsErrors, err := boolFlagIfChanged(cmd, "warnings-as-errors")
	if err != nil {
		return err
	}
	watchMode, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}
	metricsPath, err := cmd.Flags().GetString("metrics-file")
	if err != nil {
		return fmt.Errorf("failed to get metrics-file flag: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	manifest, _, err := project.Load(wd)
	if err != nil {
		return err
	}
	settings, err := resolveCheckSettings(manifest, checkFlags{
		args:             args,
		maxDiagnostics:   maxDiagnostics,
		jobs:             jobs,
		publishable:      publishable,
		warningsAsErrors: warningsAsErrors,
		noCache:          noCache,
	}, wd)
	if err != nil {
		return err
	}

	opts := driver.Options{
		Publishable:    settings.publishable,
		MaxDiagnostics: settings.maxDiagnostics,
		Jobs:           settings.jobs,
		BaseDir:        settings.baseDir,
	}
	if settings.cacheEnabled {
		cache, cacheErr := driver.OpenDiskCache("dotgate", settings.cacheDir)
		if cacheErr != nil {
			return cacheErr
		}
		if clearCache {
			if err := cache.DropAll(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
		}
		opts.Cache = cache
	}

	useColor, err := colorEnabled(cmd, os.Stdout)
	if err != nil {
		return err
	}
	pass := &checkPass{
		settings: settings,
		opts:     opts,
		report: checkReport{
			format:   format,
			pathMode: pathMode,
			color:    useColor,
			notes:    withNotes,
			fixes:    suggest,
			preview:  preview,
			args:     os.Args[1:],
		},
		metadataOut: metadataOut,
		quiet:       quiet,
		timings:     showTimings,
		useTUI:      !quiet && !watchMode && mode != uiModeOff,
		uiMode:      mode,
		metricsPath: metricsPath,
	}
	if metricsPath != "" {
		pass.recorder = metrics.New()
	}
	if watchMode {
		return runWatch(ctx, cmd, pass)
	}

	blocked, err := pass.check(ctx, cmd)
	if err != nil {
		return err
	}
	if blocked {
		trace.Mark(ctx, trace.ScopeDriver, "gate", "blocked")
		dumpTrace(ctx, cmd.ErrOrStderr(), "gate blocked", pass.blockedUnits...)
		return &exitError{code: 1}
	}
	return nil
}

// checkPass is one fully configured check; watch mode repeats it.
type checkPass struct {
	settings    checkSettings
	opts        driver.Options
	report      checkReport
	metadataOut string
	quiet       bool
	timings     bool
	useTUI      bool
	uiMode      uiMode
	recorder    *metrics.Recorder
	metricsPath string

	// blockedUnits of the last check, for the trace dump
	blockedUnits []string
}

// check lists, verifies and reports the units once. blocked is the gate
// outcome including --warnings-as-errors.
func (p *checkPass) check(ctx context.Context, cmd *cobra.Command) (blocked bool, err error) {
	files, err := driver.ListUnits(p.settings.paths)
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no unit files (*.yaml, *.yml) found in %s", strings.Join(p.settings.paths, ", "))
	}

	var run *driver.Run
	if p.useTUI && shouldUseTUI(p.uiMode, len(files)) {
		run, err = runCheckWithUI(ctx, "dotgate check", files, p.opts)
	} else {
		run, err = driver.VerifyAll(ctx, files, p.opts)
	}
	if err != nil {
		return false, err
	}

	out := cmd.OutOrStdout()
	report := p.report
	report.run = run
	if err := report.write(out); err != nil {
		return false, err
	}
	if p.metadataOut != "" {
		if err := writeMetadata(out, p.metadataOut, run); err != nil {
			return false, err
		}
	}

	errs, warns := run.Counts()
	if !p.quiet && (report.format == formatPretty || report.format == formatShort) {
		fmt.Fprintln(cmd.ErrOrStderr(), summaryLine(run, errs, warns))
	}
	if p.timings {
		printTimings(cmd.ErrOrStderr(), run.Timing)
	}
	if p.recorder != nil {
		p.recorder.Observe(run)
		if err := p.recorder.WriteTextfile(p.metricsPath); err != nil {
			return false, fmt.Errorf("write metrics: %w", err)
		}
	}
	p.blockedUnits = p.blockedUnits[:0]
	for _, u := range run.Units {
		if !u.Proceed || (p.settings.warningsAsErrors && u.Bag != nil && u.Bag.WarningCount() > 0) {
			p.blockedUnits = append(p.blockedUnits, u.Path)
		}
	}
	return len(p.blockedUnits) > 0, nil
}

type checkReport struct {
	run      *driver.Run
	format   outputFormat
	pathMode diagfmt.PathMode
	color    bool
	notes    bool
	fixes    bool
	preview  bool
	args     []string
}

// unitJSON is one entry of the JSON report; load failures carry Error.
type unitJSON struct {
	Unit  string `json:"unit"`
	Error string `json:"error,omitempty"`
	diagfmt.DiagnosticsOutput
}

func (r checkReport) write(w io.Writer) error {
	run := r.run
	switch r.format {
	case formatPretty:
		multi := len(run.Units) > 1
		for _, u := range run.Units {
			if u.Err != nil {
				fmt.Fprintf(w, "%s: %v\n", r.display(u.Path), u.Err)
				continue
			}
			if u.Bag.Len() == 0 && u.Bag.Dropped() == 0 {
				continue
			}
			if multi {
				fmt.Fprintf(w, "== %s ==\n", r.display(u.Path))
			}
			if err := diagfmt.Pretty(w, u.Bag, run.Files, diagfmt.PrettyOpts{
				Color:       r.color,
				PathMode:    r.pathMode,
				ShowNotes:   r.notes,
				ShowFixes:   r.fixes,
				ShowPreview: r.preview,
			}); err != nil {
				return err
			}
		}
		return nil
	case formatShort:
		for _, u := range run.Units {
			if u.Err != nil {
				fmt.Fprintf(w, "%s: %v\n", r.display(u.Path), u.Err)
				continue
			}
			if err := diagfmt.Short(w, u.Bag, run.Files, r.notes); err != nil {
				return err
			}
		}
		return nil
	case formatJSON:
		out := make([]unitJSON, 0, len(run.Units))
		for _, u := range run.Units {
			entry := unitJSON{Unit: r.display(u.Path)}
			if u.Err != nil {
				entry.Error = u.Err.Error()
				entry.Diagnostics = []diagfmt.DiagnosticJSON{}
				entry.Errors = 1
			} else {
				entry.DiagnosticsOutput = diagfmt.BuildDiagnosticsOutput(u.Bag, run.Files, diagfmt.JSONOpts{
					IncludePositions: true,
					PathMode:         r.pathMode,
					IncludeNotes:     r.notes,
					IncludeFixes:     r.fixes,
					IncludePreviews:  r.preview,
				})
			}
			out = append(out, entry)
		}
		return encodeJSON(w, out)
	case formatSarif:
		// All units share one FileSet, so a single run covers them.
		merged := diag.NewBag(0)
		for _, u := range run.Units {
			if u.Bag == nil {
				continue
			}
			for _, d := range u.Bag.Items() {
				merged.Add(d)
			}
		}
		return diagfmt.Sarif(w, merged, run.Files, diagfmt.SarifRunMeta{
			ToolName:       "dotgate",
			ToolVersion:    version.Current().Version,
			InvocationArgs: r.args,
		})
	}
	return fmt.Errorf("unknown format %q", r.format)
}

func (r checkReport) display(path string) string {
	switch r.pathMode {
	case diagfmt.PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
	case diagfmt.PathModeBasename:
		return filepath.Base(path)
	}
	if base := r.run.Files.BaseDir(); base != "" {
		if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

// writeMetadata emits the interop metadata of the units that passed the gate.
func writeMetadata(stdout io.Writer, dest string, run *driver.Run) error {
	units := make([]diagfmt.UnitMetadata, 0, len(run.Units))
	for _, u := range run.Units {
		if !u.Proceed {
			continue
		}
		units = append(units, diagfmt.UnitMetadata{Unit: filepath.ToSlash(u.Path), Signatures: u.Metadata})
	}
	if dest == "-" {
		return diagfmt.Metadata(stdout, units)
	}
	f, err := os.Create(dest) // #nosec G304 -- path comes from the --metadata flag
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := diagfmt.Metadata(f, units); err != nil {
		_ = f.Close()
		return fmt.Errorf("write metadata: %w", err)
	}
	return f.Close()
}

func summaryLine(run *driver.Run, errs, warns int) string {
	cached := 0
	for _, u := range run.Units {
		if u.Cached {
			cached++
		}
	}
	line := fmt.Sprintf("checked %d %s: %d %s, %d %s",
		len(run.Units), plural(len(run.Units), "unit", "units"),
		errs, plural(errs, "error", "errors"),
		warns, plural(warns, "warning", "warnings"))
	if cached > 0 {
		line += fmt.Sprintf(" (%d cached)", cached)
	}
	return line
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
