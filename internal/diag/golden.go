package diag

import (
	"path/filepath"
	"strconv"
	"strings"

	"dotgate/internal/source"
)

// goldenLine is one rendered row: "<label> <code> <path>:<line>:<col> <msg>".
type goldenLine struct {
	label, code, where, msg string
}

func (g goldenLine) String() string {
	return g.label + " " + g.code + " " + g.where + " " + g.msg
}

// FormatGoldenDiagnostics renders diagnostics one per line in insertion order:
//
//	error CST2001 unit.yaml:3:17 const variables must be initialized with a constant value
//
// Notes follow their diagnostic as "note" lines when includeNotes is set.
// Diagnostics whose span has no file in fs are left out.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil {
		return ""
	}
	var lines []string
	for i := range diags {
		d := &diags[i]
		id := d.Code.ID()
		if where, ok := goldenWhere(fs, d.Primary); ok {
			lines = append(lines, goldenLine{d.Severity.Label(), id, where, oneLine(d.Message)}.String())
		}
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			if where, ok := goldenWhere(fs, n.Span); ok {
				lines = append(lines, goldenLine{"note", id, where, oneLine(n.Msg)}.String())
			}
		}
	}
	return strings.Join(lines, "\n")
}

func goldenWhere(fs *source.FileSet, sp source.Span) (string, bool) {
	f, ok := fs.Lookup(sp.File)
	if !ok {
		return "", false
	}
	start, _ := fs.Resolve(sp)
	path := filepath.ToSlash(f.DisplayPath(fs.BaseDir()))
	for strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	return path + ":" + strconv.FormatUint(uint64(start.Line), 10) + ":" + strconv.FormatUint(uint64(start.Col), 10), true
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// oneLine folds line breaks so each diagnostic stays on a single row.
func oneLine(msg string) string {
	return strings.TrimSpace(lineBreaks.Replace(msg))
}
