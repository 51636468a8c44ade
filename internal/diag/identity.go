package diag

import (
	"fmt"
	"slices"
	"strings"
)

// Identity is the immutable descriptor of one kind of diagnostic.
type Identity struct {
	code        Code
	name        string
	severity    Severity
	positioning Positioning
	args        []ArgKind
	template    string
}

func (id *Identity) Code() Code               { return id.code }
func (id *Identity) Name() string             { return id.name }
func (id *Identity) Severity() Severity       { return id.severity }
func (id *Identity) Positioning() Positioning { return id.positioning }
func (id *Identity) Template() string         { return id.template }
func (id *Identity) Arity() int               { return len(id.args) }
func (id *Identity) ArgKinds() []ArgKind      { return slices.Clone(id.args) }
func (id *Identity) String() string           { return id.name }

// Signature renders the argument kinds, e.g. "(string, declaration)".
func (id *Identity) Signature() string {
	parts := make([]string, len(id.args))
	for i, k := range id.args {
		parts[i] = k.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (id *Identity) instantiate(a Anchor, args []any) Diagnostic {
	return Diagnostic{
		Severity: id.severity,
		Code:     id.code,
		Message:  renderTemplate(id.template, args),
		Primary:  id.positioning.Position(a),
		Args:     args,
	}
}

// SignatureError reports an arity or argument-kind mismatch at construction time.
type SignatureError struct {
	Identity string
	Want     []ArgKind
	Got      []any
}

func (e *SignatureError) Error() string {
	got := make([]string, len(e.Got))
	for i, v := range e.Got {
		if k, ok := ArgKindOf(v); ok {
			got[i] = k.String()
		} else {
			got[i] = fmt.Sprintf("%T", v)
		}
	}
	want := make([]string, len(e.Want))
	for i, k := range e.Want {
		want[i] = k.String()
	}
	return fmt.Sprintf("diag: %s expects (%s), got (%s)",
		e.Identity, strings.Join(want, ", "), strings.Join(got, ", "))
}

// Instantiate builds a diagnostic from untyped arguments. It panics with
// *SignatureError when the arguments do not match the identity.
func Instantiate(id *Identity, a Anchor, args ...any) Diagnostic {
	if len(args) != len(id.args) {
		panic(&SignatureError{Identity: id.name, Want: id.args, Got: args})
	}
	for i, v := range args {
		if k, ok := ArgKindOf(v); !ok || k != id.args[i] {
			panic(&SignatureError{Identity: id.name, Want: id.args, Got: args})
		}
	}
	return id.instantiate(a, slices.Clone(args))
}

// Diag0 is an identity without arguments.
type Diag0 struct{ id *Identity }

// Diag1 is an identity with one typed argument.
type Diag1[A Arg] struct{ id *Identity }

// Diag2 is an identity with two typed arguments.
type Diag2[A, B Arg] struct{ id *Identity }

func (d Diag0) Identity() *Identity       { return d.id }
func (d Diag1[A]) Identity() *Identity    { return d.id }
func (d Diag2[A, B]) Identity() *Identity { return d.id }

func (d Diag0) On(a Anchor) Diagnostic {
	return d.id.instantiate(a, nil)
}

func (d Diag1[A]) On(a Anchor, arg A) Diagnostic {
	return d.id.instantiate(a, []any{arg})
}

func (d Diag2[A, B]) On(a Anchor, arg0 A, arg1 B) Diagnostic {
	return d.id.instantiate(a, []any{arg0, arg1})
}

// Define0 registers an argument-less identity. Only valid during package init.
func Define0(code Code, name string, sev Severity, pos Positioning, template string) Diag0 {
	return Diag0{defaultRegistry.define(code, name, sev, pos, template, nil)}
}

// Define1 registers a one-argument identity.
func Define1[A Arg](code Code, name string, sev Severity, pos Positioning, template string) Diag1[A] {
	return Diag1[A]{defaultRegistry.define(code, name, sev, pos, template, []ArgKind{kindOf[A]()})}
}

// Define2 registers a two-argument identity.
func Define2[A, B Arg](code Code, name string, sev Severity, pos Positioning, template string) Diag2[A, B] {
	return Diag2[A, B]{defaultRegistry.define(code, name, sev, pos, template, []ArgKind{kindOf[A](), kindOf[B]()})}
}
