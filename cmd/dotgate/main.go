package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dotgate/internal/prof"
	"dotgate/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "dotgate",
	Short: "Dart compatibility gate for Kotlin sources",
	Long: `dotgate checks resolved Kotlin units for constructs that cannot be
lowered to Dart and validates their interop metadata`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: startProfiling,
}

// profiling is stopped in main so profiles are written on every exit path.
var profiling *prof.Session

func startProfiling(cmd *cobra.Command, _ []string) error {
	var opts prof.Options
	var err error
	flags := cmd.Root().PersistentFlags()
	if opts.CPU, err = flags.GetString("cpuprofile"); err != nil {
		return fmt.Errorf("failed to get cpuprofile flag: %w", err)
	}
	if opts.Mem, err = flags.GetString("memprofile"); err != nil {
		return fmt.Errorf("failed to get memprofile flag: %w", err)
	}
	if opts.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if !opts.Enabled() {
		return nil
	}
	profiling, err = prof.Start(opts)
	return err
}

// exitError carries a process exit status without an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// main registers subcommands and persistent flags and executes the root command.
// A blocked gate exits with status 1, a usage or I/O failure with status 2.
func main() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Current().Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", -1, "maximum number of diagnostics to show per unit (-1 = from dotgate.toml)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|unit|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "ring", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "ring buffer capacity in events")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 = off)")
	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to this file")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")

	err := rootCmd.Execute()
	if stopErr := profiling.Stop(); stopErr != nil {
		fmt.Fprintf(os.Stderr, "dotgate: profiling: %v\n", stopErr)
	}
	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "dotgate: %v\n", err)
		os.Exit(2)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves the --color flag for output written to f.
func colorEnabled(cmd *cobra.Command, f *os.File) (bool, error) {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	case "", "auto":
		return isTerminal(f), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}
