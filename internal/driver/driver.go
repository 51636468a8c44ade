// Package driver verifies many resolved units at once: it loads them into one
// FileSet, consults the disk cache, runs verify.Verify in parallel and
// reports progress.
package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"dotgate/internal/diag"
	"dotgate/internal/interop"
	"dotgate/internal/observ"
	"dotgate/internal/rules"
	"dotgate/internal/source"
	"dotgate/internal/trace"
	"dotgate/internal/tree"
	"dotgate/internal/verify"
)

// Options configures a multi-unit run.
type Options struct {
	Catalog        *rules.Catalog
	Publishable    bool
	MaxDiagnostics int
	// Jobs bounds the number of units verified concurrently; <= 0 uses GOMAXPROCS.
	Jobs int
	// Cache may be nil.
	Cache    *DiskCache
	Progress ProgressFunc
	// BaseDir is used for display paths; defaults to the working directory.
	BaseDir string
}

// UnitResult is the outcome for one unit file.
type UnitResult struct {
	Path string
	// Err is set when the unit could not be loaded; Bag and Metadata are nil then.
	Err      error
	Bag      *diag.Bag
	Proceed  bool
	Cached   bool
	Metadata []interop.Signature
	Timing   observ.Report
}

// Run is the outcome of VerifyAll.
type Run struct {
	Files  *source.FileSet
	Units  []UnitResult
	Timing observ.Report
}

// Proceed reports whether every unit loaded and passed the gate.
func (r *Run) Proceed() bool {
	for i := range r.Units {
		if !r.Units[i].Proceed {
			return false
		}
	}
	return true
}

// Counts sums errors and warnings over all units.
func (r *Run) Counts() (errs, warnings int) {
	for i := range r.Units {
		u := &r.Units[i]
		if u.Err != nil {
			errs++
			continue
		}
		errs += u.Bag.ErrorCount()
		warnings += u.Bag.WarningCount()
	}
	return errs, warnings
}

// IsUnitFile reports whether path names a resolved unit document.
func IsUnitFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ListUnits expands the arguments into a sorted, de-duplicated list of unit
// files. Directories are walked recursively; hidden directories are skipped.
// Arguments with glob metacharacters are matched with ** support.
func ListUnits(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	for _, arg := range args {
		if isGlob(arg) {
			matches, err := doublestar.FilepathGlob(arg)
			if err != nil {
				return nil, fmt.Errorf("list units: bad pattern %q: %w", arg, err)
			}
			for _, m := range matches {
				if err := collectUnits(m, add, true); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := collectUnits(arg, add, false); err != nil {
			return nil, err
		}
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

func isGlob(arg string) bool {
	if _, err := os.Stat(arg); err == nil {
		return false
	}
	return strings.ContainsAny(arg, "*?[{")
}

// collectUnits adds path or the unit files below it. Glob matches that are
// not unit documents are skipped instead of being taken verbatim.
func collectUnits(path string, add func(string), matched bool) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("list units: %w", err)
	}
	if !st.IsDir() {
		if !matched || IsUnitFile(path) {
			add(path)
		}
		return nil
	}
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsUnitFile(p) {
			add(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list units in %s: %w", path, err)
	}
	return nil
}

type loaded struct {
	unit *tree.Unit
	key  Digest
	err  error
}

// VerifyAll loads and verifies files. Results keep the order of files. The
// returned error is reserved for cancellation; per-unit load failures are
// reported in UnitResult.Err.
func VerifyAll(ctx context.Context, files []string, opts Options) (*Run, error) {
	cat := opts.Catalog
	if cat == nil {
		cat = rules.Default()
	}
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "verify-all")
	defer span.End("")
	span.Attr("units", strconv.Itoa(len(files)))

	timer := observ.NewTimer()
	fileSet := source.NewFileSet()
	if opts.BaseDir != "" {
		fileSet.SetBaseDir(opts.BaseDir)
	}
	for _, path := range files {
		opts.Progress.emit(Event{Unit: path, Stage: StageLoad, Status: StatusQueued})
	}

	// FileSet is not safe for concurrent use, so loading stays sequential.
	phase := timer.Begin("load")
	_, loadSpan := trace.Start(ctx, trace.ScopePass, "load")
	units := make([]loaded, len(files))
	fingerprint := cat.Fingerprint()
	for i, path := range files {
		opts.Progress.emit(Event{Unit: path, Stage: StageLoad, Status: StatusWorking})
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from the command line
		if err != nil {
			units[i].err = fmt.Errorf("read unit: %w", err)
			continue
		}
		units[i].unit, units[i].err = tree.Parse(fileSet, path, data)
		units[i].key = UnitKey(data, fingerprint, opts.Publishable)
	}
	loadSpan.End("")
	timer.End(phase, strconv.Itoa(len(files))+" units")

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]UnitResult, len(files))

	phase = timer.Begin("verify")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = verifyOne(gctx, path, units[i], cat, opts)
			return nil
		})
	}
	err := g.Wait()
	timer.End(phase, "jobs="+strconv.Itoa(jobs))
	if err != nil {
		return nil, err
	}

	for i := range results {
		timer.Merge(results[i].Timing)
	}
	return &Run{Files: fileSet, Units: results, Timing: timer.Report()}, nil
}

func verifyOne(ctx context.Context, path string, l loaded, cat *rules.Catalog, opts Options) UnitResult {
	ctx = trace.ForUnit(ctx, path)
	if l.err != nil {
		trace.Mark(ctx, trace.ScopeUnit, "load-failed", l.err.Error())
		opts.Progress.emit(Event{Unit: path, Stage: StageLoad, Status: StatusError})
		return UnitResult{Path: path, Err: l.err}
	}

	if opts.Cache != nil {
		opts.Progress.emit(Event{Unit: path, Stage: StageCache, Status: StatusWorking})
		var payload DiskPayload
		hit, err := opts.Cache.Get(l.key, &payload)
		if err == nil && hit {
			if res, err := payload.Restore(l.unit.File, opts.MaxDiagnostics); err == nil {
				res.Path = path
				trace.Mark(ctx, trace.ScopeUnit, "cache-hit", l.key.String()[:12])
				opts.Progress.emit(Event{Unit: path, Stage: StageCache, Status: finalStatus(res.Proceed)})
				return res
			}
		}
	}

	opts.Progress.emit(Event{Unit: path, Stage: StageVerify, Status: StatusWorking})
	// The pass keeps every diagnostic so the cache stores complete results;
	// the display cap is applied when the bag is rebuilt.
	vr := verify.Verify(ctx, l.unit, verify.Options{Catalog: cat, Publishable: opts.Publishable})
	if opts.Cache != nil {
		if err := opts.Cache.Put(l.key, NewPayload(vr)); err != nil {
			trace.Mark(ctx, trace.ScopeUnit, "cache-put-failed", err.Error())
		}
	}
	res := UnitResult{
		Path:     path,
		Bag:      capBag(vr.Bag, opts.MaxDiagnostics),
		Proceed:  vr.Proceed,
		Metadata: vr.Metadata,
		Timing:   vr.Timing,
	}
	opts.Progress.emit(Event{Unit: path, Stage: StageVerify, Status: finalStatus(res.Proceed)})
	return res
}

func capBag(full *diag.Bag, limit int) *diag.Bag {
	if limit <= 0 {
		return full
	}
	out := diag.NewBag(limit)
	for _, d := range full.Items() {
		out.Add(d)
	}
	return out
}

func finalStatus(proceed bool) Status {
	if proceed {
		return StatusDone
	}
	return StatusBlocked
}
