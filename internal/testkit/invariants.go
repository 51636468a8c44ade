// Package testkit holds checks shared by the tests of several packages.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"dotgate/internal/source"
	"dotgate/internal/tree"
)

// CheckSpanInvariants runs a minimal set of span invariants on a loaded unit:
// 1) every span points at the unit file and is not inverted
// 2) a span lies either inside the source text or wholly past it (synthetic)
// 3) real name and signature spans lie inside the real declaration span
// 4) real spans of parameters, type parameters and members lie inside the
// real span of their parent
func CheckSpanInvariants(u *tree.Unit, sf *source.File) error {
	if u == nil || sf == nil {
		return fmt.Errorf("nil unit or file")
	}
	if u.File != sf.ID {
		return fmt.Errorf("unit file id %d does not match file %d", u.File, sf.ID)
	}
	contentLen, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	c := spanChecker{file: sf.ID, contentLen: contentLen}
	for _, d := range u.Externals {
		if err := c.decl(d, nil); err != nil {
			return err
		}
	}
	for _, d := range u.Decls {
		if err := c.decl(d, nil); err != nil {
			return err
		}
	}
	for _, imp := range u.Imports {
		if err := c.span(imp.Span, "import "+imp.Path); err != nil {
			return err
		}
	}
	return nil
}

type spanChecker struct {
	file       source.FileID
	contentLen uint32
}

func (c spanChecker) real(sp source.Span) bool {
	return !sp.IsZero() && sp.End <= c.contentLen
}

func (c spanChecker) span(sp source.Span, what string) error {
	if sp.IsZero() {
		return nil
	}
	if sp.File != c.file {
		return fmt.Errorf("%s: span file mismatch: got=%d want=%d", what, sp.File, c.file)
	}
	if sp.End < sp.Start {
		return fmt.Errorf("%s: inverted span %v", what, sp)
	}
	if sp.Start < c.contentLen && sp.End > c.contentLen {
		return fmt.Errorf("%s: span %v straddles the end of the text (%d bytes)", what, sp, c.contentLen)
	}
	return nil
}

func inside(inner, outer source.Span) bool {
	return inner.Start >= outer.Start && inner.End <= outer.End
}

func (c spanChecker) decl(d *tree.Decl, parent *tree.Decl) error {
	what := d.Kind.String() + " " + d.Name
	for _, sp := range []source.Span{d.Span, d.NameSpan, d.SigSpan, d.TypeSpan} {
		if err := c.span(sp, what); err != nil {
			return err
		}
	}
	if c.real(d.Span) {
		if c.real(d.NameSpan) && !inside(d.NameSpan, d.Span) {
			return fmt.Errorf("%s: name span %v is outside %v", what, d.NameSpan, d.Span)
		}
		if c.real(d.SigSpan) && !inside(d.SigSpan, d.Span) {
			return fmt.Errorf("%s: signature span %v is outside %v", what, d.SigSpan, d.Span)
		}
		if parent != nil && c.real(parent.Span) && !inside(d.Span, parent.Span) {
			return fmt.Errorf("%s: span %v is outside its parent %v", what, d.Span, parent.Span)
		}
	}
	for _, group := range [][]*tree.Decl{d.TypeParams, d.Params, d.Members} {
		for _, child := range group {
			if err := c.decl(child, d); err != nil {
				return err
			}
		}
	}
	return nil
}
