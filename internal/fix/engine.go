// Package fix applies the edits attached to diagnostics to the Kotlin
// sources the units were resolved from.
//
// Every edit is expressed in the coordinates of the file as it was checked.
// Fixes are admitted one by one against the edits admitted before them and
// each file is rewritten once at the end, so offsets never shift under an
// edit.
package fix

import (
	"cmp"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"dotgate/internal/diag"
	"dotgate/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines which fixes are selected.
type ApplyMode uint8

const (
	// ApplyModeOnce applies the first fix in source order.
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	// ApplyModeCode applies every fix of diagnostics matching ApplyOptions.Code.
	ApplyModeCode
	// ApplyModeID applies the single fix named by ApplyOptions.TargetID.
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode ApplyMode
	// Code matches either the code ("TYP3005") or the name ("UNNECESSARY_REIFIED").
	Code     string
	TargetID string
	// DryRun computes the changes without writing files.
	DryRun bool
}

// AppliedFix records a fix whose edits made it into the output.
type AppliedFix struct {
	ID          string
	Title       string
	Code        diag.Code
	Message     string
	PrimaryPath string
	EditCount   int
}

// SkippedFix is a fix left out, with the reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises the rewrite of one file.
type FileChange struct {
	Path      string
	EditCount int
	// Content is the rewritten file.
	Content []byte
}

type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag diag.Diagnostic
	fix  diag.Fix
	id   string
	seq  int
}

// Apply selects fixes from diagnostics according to opts and applies them.
// ErrNoFixes is returned, together with the skip reasons, when nothing
// could be applied.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if fs == nil {
		return result, errors.New("fix: FileSet is nil")
	}

	candidates, skipped := gatherCandidates(diagnostics)
	result.Skipped = append(result.Skipped, skipped...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}
	slices.SortStableFunc(candidates, compareCandidates)

	selected, skipped := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, skipped...)

	p := newPlanner(fs)
	for _, c := range selected {
		if reason := p.admit(c); reason != "" {
			result.Skipped = append(result.Skipped, SkippedFix{ID: c.id, Title: c.fix.Title, Reason: reason})
			continue
		}
		result.Applied = append(result.Applied, AppliedFix{
			ID:          c.id,
			Title:       c.fix.Title,
			Code:        c.diag.Code,
			Message:     c.diag.Message,
			PrimaryPath: p.display(c.diag.Primary.File),
			EditCount:   len(c.fix.Edits),
		})
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}

	changes, err := p.commit(opts.DryRun)
	result.FileChanges = changes
	return result, err
}

// fixID names a fix by its diagnostic code, position and index,
// e.g. "TYP3005@2:14#0".
func fixID(d diag.Diagnostic, idx int) string {
	return fmt.Sprintf("%s@%d:%d#%d", d.Code.ID(), d.Primary.File, d.Primary.Start, idx)
}

// gatherCandidates turns every fix into a candidate. A fix whose edits equal
// an earlier one's is skipped as a duplicate; the same finding reported for
// two declarations carries the same edit.
func gatherCandidates(diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	var (
		cands []candidate
		skips []SkippedFix
	)
	firstByEdits := make(map[string]string)
	for _, d := range diagnostics {
		for idx, f := range d.Fixes {
			id := fixID(d, idx)
			skip := func(reason string) {
				skips = append(skips, SkippedFix{ID: id, Title: f.Title, Reason: reason})
			}
			switch {
			case len(f.Edits) == 0:
				skip("fix has no edits")
				continue
			case slices.ContainsFunc(f.Edits, func(e diag.FixEdit) bool { return e.Span.IsZero() }):
				skip("fix has no source location")
				continue
			}
			key := editsKey(f.Edits)
			if first, ok := firstByEdits[key]; ok {
				skip("duplicate of " + first)
				continue
			}
			firstByEdits[key] = id
			cands = append(cands, candidate{diag: d, fix: f, id: id, seq: len(cands)})
		}
	}
	return cands, skips
}

func editsKey(edits []diag.FixEdit) string {
	var b strings.Builder
	for _, e := range edits {
		fmt.Fprintf(&b, "%d:%d:%d=%q;", e.Span.File, e.Span.Start, e.Span.End, e.NewText)
	}
	return b.String()
}

// compareCandidates orders by primary position, then report order.
func compareCandidates(a, b candidate) int {
	pa, pb := a.diag.Primary, b.diag.Primary
	return cmp.Or(
		cmp.Compare(pa.File, pb.File),
		cmp.Compare(pa.Start, pb.Start),
		cmp.Compare(pa.End, pb.End),
		cmp.Compare(a.seq, b.seq),
	)
}

func matchesCode(code diag.Code, want string) bool {
	want = strings.TrimSpace(want)
	return strings.EqualFold(code.ID(), want) || strings.EqualFold(code.Name(), want)
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeOnce:
		return candidates[:1], nil
	case ApplyModeAll:
		return candidates, nil
	case ApplyModeID:
		if i := slices.IndexFunc(candidates, func(c candidate) bool { return c.id == opts.TargetID }); i >= 0 {
			return candidates[i : i+1], nil
		}
		return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}
	case ApplyModeCode:
		selected := slices.DeleteFunc(slices.Clone(candidates), func(c candidate) bool {
			return !matchesCode(c.diag.Code, opts.Code)
		})
		if len(selected) == 0 {
			return nil, []SkippedFix{{ID: opts.Code, Reason: "no fixes for this code"}}
		}
		return selected, nil
	}
	return nil, nil
}

// plannedEdit is an admitted edit; seq keeps insertions at one offset in
// admission order.
type plannedEdit struct {
	diag.FixEdit
	seq int
}

type filePlan struct {
	file  *source.File
	edits []plannedEdit
}

// planner collects the admitted edits per file.
type planner struct {
	fs      *source.FileSet
	files   map[source.FileID]*filePlan
	refused map[source.FileID]string
	seq     int
}

func newPlanner(fs *source.FileSet) *planner {
	return &planner{
		fs:      fs,
		files:   make(map[source.FileID]*filePlan),
		refused: make(map[source.FileID]string),
	}
}

func (p *planner) display(id source.FileID) string {
	file, ok := p.fs.Lookup(id)
	if !ok {
		return ""
	}
	return file.DisplayPath(p.fs.BaseDir())
}

// admit adds every edit of c or none of them. It returns why c was refused.
func (p *planner) admit(c candidate) string {
	for i, e := range c.fix.Edits {
		file, ok := p.fs.Lookup(e.Span.File)
		if !ok {
			return "edit targets an unknown file"
		}
		if reason := p.writable(file); reason != "" {
			return reason
		}
		if e.Span.Start > e.Span.End || int(e.Span.End) > len(file.Content) {
			return "edit span out of range"
		}
		for _, other := range c.fix.Edits[:i] {
			if other.Span.File == e.Span.File && spansConflict(other, e) {
				return "fix has overlapping edits"
			}
		}
		if plan := p.files[file.ID]; plan != nil {
			for _, prev := range plan.edits {
				if spansConflict(prev.FixEdit, e) {
					return "conflicts with previously applied edits in " + file.DisplayPath(p.fs.BaseDir())
				}
			}
		}
	}
	for _, e := range c.fix.Edits {
		plan := p.files[e.Span.File]
		if plan == nil {
			plan = &filePlan{file: p.fs.Get(e.Span.File)}
			p.files[e.Span.File] = plan
		}
		plan.edits = append(plan.edits, plannedEdit{FixEdit: e, seq: p.seq})
		p.seq++
	}
	return ""
}

// writable reports why file cannot be rewritten, or "" when it can. The
// answer is cached per file.
func (p *planner) writable(file *source.File) string {
	if reason, ok := p.refused[file.ID]; ok {
		return reason
	}
	reason := checkWritable(file)
	p.refused[file.ID] = reason
	return reason
}

func checkWritable(file *source.File) string {
	if file.Flags&source.FileVirtual != 0 {
		return "target file is virtual"
	}
	if file.Flags&(source.FileHadBOM|source.FileNormalizedCRLF) != 0 {
		return "target file had a BOM or CRLF line endings"
	}
	// #nosec G304 -- path was loaded by the FileSet
	onDisk, err := os.ReadFile(file.Path)
	if err != nil {
		return fmt.Sprintf("cannot read %s: %v", file.Path, err)
	}
	if sha256.Sum256(onDisk) != file.Hash {
		return "file changed since it was checked"
	}
	return ""
}

// render applies the plan to the checked content, last edit first.
func (fp *filePlan) render() []byte {
	edits := slices.Clone(fp.edits)
	slices.SortFunc(edits, func(a, b plannedEdit) int {
		return cmp.Or(
			cmp.Compare(b.Span.Start, a.Span.Start),
			cmp.Compare(b.Span.End, a.Span.End),
			cmp.Compare(b.seq, a.seq),
		)
	})
	out := slices.Clone(fp.file.Content)
	for _, e := range edits {
		out = slices.Concat(out[:e.Span.Start], []byte(e.NewText), out[e.Span.End:])
	}
	return out
}

// commit renders every planned file and writes it unless dryRun.
func (p *planner) commit(dryRun bool) ([]FileChange, error) {
	ids := make([]source.FileID, 0, len(p.files))
	for id := range p.files {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	changes := make([]FileChange, 0, len(ids))
	for _, id := range ids {
		plan := p.files[id]
		content := plan.render()
		if !dryRun {
			if err := writeKeepingMode(plan.file.Path, content); err != nil {
				return changes, err
			}
		}
		changes = append(changes, FileChange{
			Path:      plan.file.DisplayPath(p.fs.BaseDir()),
			EditCount: len(plan.edits),
			Content:   content,
		})
	}
	slices.SortStableFunc(changes, func(a, b FileChange) int { return strings.Compare(a.Path, b.Path) })
	return changes, nil
}

func writeKeepingMode(path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// spansConflict reports whether two edits' spans overlap. Spans are
// half-open; two insertions never conflict, and an insertion conflicts with
// a span that strictly contains its position.
func spansConflict(a, b diag.FixEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	switch {
	case aStart == aEnd && bStart == bEnd:
		return false
	case aStart == aEnd:
		return bStart <= aStart && aStart < bEnd
	case bStart == bEnd:
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}
