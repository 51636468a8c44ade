package diag

import "dotgate/internal/source"

// Anchor is the program element a diagnostic is attached to.
type Anchor interface {
	Span() source.Span
}

// SignatureAnchor is implemented by declarations that can narrow their
// primary span to the declaration header (name and signature, without body).
type SignatureAnchor interface {
	Anchor
	SignatureSpan() (source.Span, bool)
}

// Positioning maps an anchor to the primary span shown to the user.
// Implementations must be pure.
type Positioning interface {
	Position(a Anchor) source.Span
	String() string
}

type positioning struct {
	name string
	fn   func(Anchor) source.Span
}

func (p positioning) Position(a Anchor) source.Span { return p.fn(a) }
func (p positioning) String() string                { return p.name }

var (
	// PositionDefault uses the anchor's whole span.
	PositionDefault Positioning = positioning{name: "default", fn: func(a Anchor) source.Span {
		return a.Span()
	}}
	// PositionSignatureOrDefault narrows declarations to their signature.
	PositionSignatureOrDefault Positioning = positioning{name: "signature-or-default", fn: func(a Anchor) source.Span {
		if sa, ok := a.(SignatureAnchor); ok {
			if sp, ok := sa.SignatureSpan(); ok {
				return sp
			}
		}
		return a.Span()
	}}
)

type spanAnchor source.Span

func (s spanAnchor) Span() source.Span { return source.Span(s) }

// At wraps a bare span as an Anchor.
func At(sp source.Span) Anchor {
	return spanAnchor(sp)
}
