package diag

import (
	"dotgate/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type FixEdit struct {
	Span    source.Span
	NewText string
}

type Fix struct {
	Title string
	Edits []FixEdit
}

// Diagnostic is one reported problem. It is built from an Identity and is
// never mutated after it reaches a Bag.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Args     []any
	Notes    []Note
	Fixes    []Fix
}

// Identified is satisfied by Diag0, Diag1 and Diag2.
type Identified interface {
	Identity() *Identity
}

// Identity resolves the registered identity of d.
func (d Diagnostic) Identity() (*Identity, bool) {
	return Lookup(d.Code)
}

// Is reports whether d was produced by id.
func (d Diagnostic) Is(id Identified) bool {
	return id.Identity().code == d.Code
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes[:len(d.Notes):len(d.Notes)], Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithFix(title string, edits ...FixEdit) Diagnostic {
	d.Fixes = append(d.Fixes[:len(d.Fixes):len(d.Fixes)], Fix{Title: title, Edits: edits})
	return d
}
