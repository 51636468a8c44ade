package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"dotgate/internal/diag"
	"dotgate/internal/source"
)

type palette struct {
	err, warn, info, note, fix, gutter, caret, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgCyan),
		fix:    color.New(color.FgGreen),
		gutter: color.New(color.FgBlue, color.Bold),
		caret:  color.New(color.FgRed, color.Bold),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.fix, p.gutter, p.caret, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид, в порядке bag.Items():
//
//	<path>:<line>:<col>: ERROR NAM1001 [DART_NAME_CLASH]: <message>
//	   3 | fun foo() {}
//	     |     ^~~
//
// затем заметки и исправления, если включены.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var b strings.Builder
	for _, d := range bag.Items() {
		writeHeader(&b, p, fs, opts.PathMode, d)
		writeSnippet(&b, p, fs, d.Primary, p.caret)

		if opts.ShowNotes {
			for _, n := range d.Notes {
				b.WriteString("  ")
				b.WriteString(p.note.Sprint("note:"))
				if loc := location(fs, opts.PathMode, n.Span); loc != "" {
					b.WriteString(" " + loc + ":")
				}
				b.WriteString(" " + n.Msg + "\n")
				writeSnippet(&b, p, fs, n.Span, p.note)
			}
		}
		if opts.ShowFixes {
			for i, fx := range d.Fixes {
				fmt.Fprintf(&b, "  %s %s\n", p.fix.Sprintf("fix #%d:", i+1), fx.Title)
				for _, e := range fx.Edits {
					if e.NewText == "" {
						b.WriteString("    delete\n")
					} else {
						fmt.Fprintf(&b, "    apply=%q\n", e.NewText)
					}
					if !opts.ShowPreview {
						continue
					}
					prev, err := buildFixEditPreview(fs, e)
					if err != nil {
						continue
					}
					b.WriteString("    preview:\n")
					for _, line := range prev.before {
						b.WriteString("      - " + line + "\n")
					}
					for _, line := range prev.after {
						b.WriteString("      + " + line + "\n")
					}
				}
			}
		}
	}
	if n := bag.Dropped(); n > 0 {
		fmt.Fprintf(&b, "... %d more diagnostics not shown\n", n)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeHeader(b *strings.Builder, p palette, fs *source.FileSet, mode PathMode, d diag.Diagnostic) {
	if loc := location(fs, mode, d.Primary); loc != "" {
		b.WriteString(p.bold.Sprint(loc + ":"))
		b.WriteByte(' ')
	}
	sev := p.severity(d.Severity)
	b.WriteString(sev.Sprint(d.Severity.String()))
	fmt.Fprintf(b, " %s [%s]: %s\n", d.Code.ID(), d.Code.Name(), d.Message)
}

func location(fs *source.FileSet, mode PathMode, sp source.Span) string {
	if fs == nil || sp.IsZero() {
		return ""
	}
	f, ok := fs.Lookup(sp.File)
	if !ok {
		return ""
	}
	start, _ := fs.Resolve(sp)
	return displayPath(f, fs, mode) + ":" + strconv.FormatUint(uint64(start.Line), 10) + ":" + strconv.FormatUint(uint64(start.Col), 10)
}

// writeSnippet prints the first line of sp with a caret underline. Columns
// are measured in terminal cells so wide characters keep the carets aligned.
func writeSnippet(b *strings.Builder, p palette, fs *source.FileSet, sp source.Span, caret *color.Color) {
	if fs == nil || sp.IsZero() {
		return
	}
	f, ok := fs.Lookup(sp.File)
	if !ok {
		return
	}
	start, end := fs.Resolve(sp)
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	line = strings.ReplaceAll(line, "\t", "    ")
	raw := f.GetLine(start.Line)

	prefixBytes := min(int(start.Col-1), len(raw))
	prefix := strings.ReplaceAll(raw[:prefixBytes], "\t", "    ")
	endBytes := len(raw)
	if end.Line == start.Line {
		endBytes = min(int(end.Col-1), len(raw))
	}
	marked := ""
	if endBytes > prefixBytes {
		marked = strings.ReplaceAll(raw[prefixBytes:endBytes], "\t", "    ")
	}

	num := strconv.FormatUint(uint64(start.Line), 10)
	pad := strings.Repeat(" ", len(num))
	fmt.Fprintf(b, " %s %s %s\n", p.gutter.Sprint(num), p.gutter.Sprint("|"), line)

	width := max(1, runewidth.StringWidth(marked))
	underline := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(b, " %s %s %s%s\n", pad, p.gutter.Sprint("|"), strings.Repeat(" ", runewidth.StringWidth(prefix)), caret.Sprint(underline))
}
