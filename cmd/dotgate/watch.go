package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"dotgate/internal/driver"
	"dotgate/internal/trace"
	"dotgate/internal/watch"
)

// watchRoots returns the directories to watch for the unit arguments: the
// directory itself, the parent of a file, or the static prefix of a glob.
func watchRoots(paths []string) []string {
	seen := make(map[string]struct{})
	var roots []string
	for _, p := range paths {
		root := p
		if _, err := os.Stat(p); err != nil && strings.ContainsAny(p, "*?[{") {
			base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
			root = filepath.FromSlash(base)
		}
		st, err := os.Stat(root)
		if err != nil {
			continue
		}
		if !st.IsDir() {
			root = filepath.Dir(root)
		}
		root = filepath.Clean(root)
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}

// runWatch checks once and then again after every batch of changes until
// interrupted. Failed passes are reported and the watch goes on.
func runWatch(ctx context.Context, cmd *cobra.Command, pass *checkPass) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	roots := watchRoots(pass.settings.paths)
	w, err := watch.New(watch.Config{Roots: roots, Match: driver.IsUnitFile})
	if err != nil {
		return err
	}
	defer w.Close()
	go func() {
		if err := w.Run(ctx); err != nil {
			trace.Mark(ctx, trace.ScopeDriver, "watch-stopped", err.Error())
		}
	}()

	stderr := cmd.ErrOrStderr()
	recheck := func() {
		if _, err := pass.check(ctx, cmd); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
	}
	recheck()
	fmt.Fprintf(stderr, "watching %s for changes (Ctrl+C to stop)\n", strings.Join(roots, ", "))
	for batch := range w.Batches() {
		fmt.Fprintf(stderr, "\n%d %s changed, checking again\n",
			len(batch.Paths), plural(len(batch.Paths), "file", "files"))
		recheck()
	}
	return nil
}
