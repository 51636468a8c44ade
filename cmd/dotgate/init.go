package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dotgate/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a dotgate project",
	Long: `Initialize a dotgate project by creating a manifest (dotgate.toml) and
a units/ directory with an example unit. If [path|name] is omitted, initializes
the current directory. If a non-existing name is provided, a directory will be
created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("publishable", false, "mark the package as consumed by other Dart packages")
}

// runInit writes dotgate.toml and units/example.yaml into the target
// directory and refuses to overwrite an existing manifest.
func runInit(cmd *cobra.Command, args []string) error {
	publishable, err := cmd.Flags().GetBool("publishable")
	if err != nil {
		return fmt.Errorf("failed to get publishable flag: %w", err)
	}
	target, err := initTarget(args)
	if err != nil {
		return err
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	cfg := project.Default(projectName(target))
	cfg.Package.Publishable = publishable
	if _, err := project.WriteConfig(target, cfg); err != nil {
		return fmt.Errorf("project already initialized: %w", err)
	}

	unitsDir := filepath.Join(target, "units")
	if err := os.MkdirAll(unitsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create units directory: %w", err)
	}
	examplePath := filepath.Join(unitsDir, "example.yaml")
	createdExample := false
	if _, err := os.Stat(examplePath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(examplePath, []byte(exampleUnit(cfg.Package.Name)), 0o600); err != nil {
			return fmt.Errorf("failed to write example unit: %w", err)
		}
		createdExample = true
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, target); err2 == nil {
			rel = r
		}
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized dotgate project in %s\n", rel)
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)
	if createdExample {
		fmt.Fprintf(out, "  - units/example.yaml\n")
	} else {
		fmt.Fprintf(out, "  - units/example.yaml (existing)\n")
	}
	return nil
}

func initTarget(args []string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if len(args) == 0 || args[0] == "." {
		return wd, nil
	}
	if filepath.IsAbs(args[0]) {
		return args[0], nil
	}
	return filepath.Join(wd, args[0]), nil
}

// projectName derives the package name from the directory basename.
func projectName(dir string) string {
	name := strings.TrimSpace(filepath.Base(dir))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "dotgate-project"
	}
	return name
}

// exampleUnit is a unit that passes the gate: a const with a Dart name and a
// function that uses it.
func exampleUnit(pkg string) string {
	return fmt.Sprintf(`# Resolved unit emitted by the Kotlin front end.
unit: src/example.kt
package: %s
decls:
  - kind: val
    name: greeting
    modifiers: [const]
    type: String
    init: '"Hello, Dart!"'
  - kind: fun
    name: greet
    annotations: [DartName=sayHello]
`, pkg)
}
