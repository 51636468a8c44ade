// Package diag defines the diagnostic model shared by every verification rule.
//
// # Identities
//
// Each kind of diagnostic is an Identity: a numeric Code, a stable name such
// as "LONG_REFERENCE", a fixed Severity, a Positioning strategy and a message
// template with {0}/{1} placeholders. Identities are declared once in
// codes.go through Define0/Define1/Define2 and live in a process-wide
// registry that is sealed before the first verification pass. Defining an
// identity after Seal, or reusing a code or name, panics.
//
// The typed front-ends Diag0, Diag1[A] and Diag2[A, B] fix the arity and the
// argument types, so rule code cannot construct a diagnostic with the wrong
// payload:
//
//	diag.ImplicitLongReference.On(decl, "property")
//
// Instantiate is the dynamic counterpart used when diagnostics are rebuilt
// from the result cache. It panics with *SignatureError on mismatch.
//
// # Positioning
//
// The primary span of a diagnostic is computed from its anchor by the
// identity's Positioning. PositionDefault uses the whole anchor span;
// PositionSignatureOrDefault narrows declarations (SignatureAnchor) to their
// header so that a diagnostic on a function does not underline its body.
//
// # Sinks
//
// Bag keeps diagnostics in insertion order and counts errors even past its
// display cap. Rules hand diagnostics to a Reporter; BagReporter stores them
// and DedupReporter drops repeated findings.
//
// Package diag performs no IO and no terminal formatting; see internal/diagfmt.
package diag
