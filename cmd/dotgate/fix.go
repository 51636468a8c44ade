package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dotgate/internal/diag"
	"dotgate/internal/driver"
	"dotgate/internal/fix"
	"dotgate/internal/project"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [unit.yaml|directory]...",
	Short: "Apply suggested fixes to the Kotlin sources of the units",
	Long: `Verify the units and apply the fixes attached to their diagnostics to the
Kotlin source files they were resolved from. Units whose text is embedded in
the unit document cannot be fixed.`,
	RunE: runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply every fix")
	fixCmd.Flags().String("code", "", "apply fixes of one diagnostic code or name (e.g. TYP3005)")
	fixCmd.Flags().String("id", "", "apply a single fix by id")
	fixCmd.Flags().Bool("dry-run", false, "report the changes without writing files")
}

func readApplyOptions(all bool, code, id string, dryRun bool) (fix.ApplyOptions, error) {
	set := 0
	for _, b := range []bool{all, code != "", id != ""} {
		if b {
			set++
		}
	}
	if set > 1 {
		return fix.ApplyOptions{}, errors.New("--all, --code and --id are mutually exclusive")
	}
	opts := fix.ApplyOptions{Mode: fix.ApplyModeOnce, DryRun: dryRun}
	switch {
	case all:
		opts.Mode = fix.ApplyModeAll
	case code != "":
		opts.Mode = fix.ApplyModeCode
		opts.Code = code
	case id != "":
		opts.Mode = fix.ApplyModeID
		opts.TargetID = id
	}
	return opts, nil
}

func runFix(cmd *cobra.Command, args []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx := cmd.Context()
	defer dumpTraceOnPanic(ctx)

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	code, err := cmd.Flags().GetString("code")
	if err != nil {
		return fmt.Errorf("failed to get code flag: %w", err)
	}
	id, err := cmd.Flags().GetString("id")
	if err != nil {
		return fmt.Errorf("failed to get id flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	applyOpts, err := readApplyOptions(all, code, id, dryRun)
	if err != nil {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	manifest, _, err := project.Load(wd)
	if err != nil {
		return err
	}
	settings, err := resolveCheckSettings(manifest, checkFlags{args: args, maxDiagnostics: 0, noCache: true}, wd)
	if err != nil {
		return err
	}
	files, err := driver.ListUnits(settings.paths)
	if err != nil {
		return err
	}

	// Every diagnostic is needed here, so no cap and no cache.
	run, err := driver.VerifyAll(ctx, files, driver.Options{
		Publishable: settings.publishable,
		Jobs:        settings.jobs,
		BaseDir:     settings.baseDir,
	})
	if err != nil {
		return err
	}
	var diagnostics []diag.Diagnostic
	for _, u := range run.Units {
		if u.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", u.Path, u.Err)
			continue
		}
		diagnostics = append(diagnostics, u.Bag.Items()...)
	}

	res, err := fix.Apply(run.Files, diagnostics, applyOpts)
	printFixResult(cmd.OutOrStdout(), res, dryRun)
	if errors.Is(err, fix.ErrNoFixes) {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return &exitError{code: 1}
	}
	return err
}

func printFixResult(w io.Writer, res *fix.ApplyResult, dryRun bool) {
	if res == nil {
		return
	}
	verb := "applied"
	if dryRun {
		verb = "would apply"
	}
	for _, a := range res.Applied {
		fmt.Fprintf(w, "%s %s [%s] %s: %s\n", verb, a.ID, a.Code.ID(), a.PrimaryPath, a.Title)
	}
	for _, s := range res.Skipped {
		title := s.Title
		if title == "" {
			title = "-"
		}
		fmt.Fprintf(w, "skipped %s (%s): %s\n", s.ID, title, s.Reason)
	}
	for _, c := range res.FileChanges {
		fmt.Fprintf(w, "  %s: %d %s\n", c.Path, c.EditCount, plural(c.EditCount, "edit", "edits"))
	}
}
