package tree

import (
	"errors"
	"strings"
	"testing"

	"dotgate/internal/source"
)

const sampleUnit = `
unit: sample.kt
text: |
  class Point(val x: Int)
  const val origin = Point(0)
package: geo
imports:
  - {path: dart.math, span: [0, 5]}
decls:
  - kind: class
    name: Point
    span: [0, 23]
    members:
      - kind: constructor
        modifiers: [const, primary]
        params:
          - {name: x, type: Int}
  - kind: val
    name: origin
    modifiers: [const]
    type: Point
    inferred: true
    span: [24, 51]
    init:
      kind: call
      callee: Point
      args: [0]
  - kind: fun
    name: twice
    params:
      - {name: v, type: Int}
    type: Int
    body:
      - kind: return
        value: {kind: binary, op: "*", args: [{kind: ref, ref: v}, 2]}
`

func TestParseResolvesReferences(t *testing.T) {
	fs := source.NewFileSet()
	u, err := Parse(fs, "sample.yaml", []byte(sampleUnit))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.Package != "geo" || len(u.Imports) != 1 || u.Imports[0].Path != "dart.math" {
		t.Fatalf("unexpected header: %+v", u)
	}
	if len(u.Decls) != 3 {
		t.Fatalf("decls = %d", len(u.Decls))
	}

	point, origin, twice := u.Decls[0], u.Decls[1], u.Decls[2]
	ctor := point.Members[0]
	if ctor.Kind != DeclConstructor || !ctor.Has(ModConst|ModPrimary) || ctor.Parent != point {
		t.Fatalf("constructor not linked: %+v", ctor)
	}

	call := origin.Init
	if call.Kind != ExprNew || call.Callee != ctor {
		t.Fatalf("call not resolved to constructor: kind=%v callee=%v", call.Kind, call.Callee)
	}
	if call.Args[0].Kind != ExprLiteral || call.Args[0].Lit != LitInt {
		t.Fatalf("shorthand literal: %+v", call.Args[0])
	}
	if origin.TypeExplicit || origin.Type.Decl != point {
		t.Fatalf("inferred type must resolve to class: explicit=%v decl=%v", origin.TypeExplicit, origin.Type.Decl)
	}

	ret := twice.Body[0]
	if ret.Kind != StmtReturn {
		t.Fatalf("stmt kind = %v", ret.Kind)
	}
	if ref := ret.Expr.Args[0]; ref.Ref != twice.Params[0] || ref.Owner != twice {
		t.Fatalf("param ref not resolved: %+v", ref)
	}

	file := fs.Get(u.File)
	if !strings.HasPrefix(string(file.Content), "class Point") {
		t.Fatalf("source text not registered: %q", file.Content)
	}
}

func TestParseAssignsDistinctSyntheticSpans(t *testing.T) {
	fs := source.NewFileSet()
	u, err := Parse(fs, "u.yaml", []byte(`
decls:
  - {kind: val, name: a, init: 1L}
  - {kind: val, name: b, init: 2L}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a, b := u.Decls[0].Init, u.Decls[1].Init
	if a.Span == b.Span {
		t.Fatalf("synthetic spans collide: %v", a.Span)
	}
	if a.Lit != LitLong {
		t.Fatalf("1L classified as %v", a.Lit)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown kind", "decls: [{kind: struct, name: a}]", `unknown kind "struct"`},
		{"unknown modifier", "decls: [{kind: fun, name: a, modifiers: [suspend]}]", `unknown modifier "suspend"`},
		{"unresolved ref", "decls: [{kind: val, name: a, init: {kind: ref, ref: missing}}]", `unresolved symbol "missing"`},
		{"ambiguous overload", `
decls:
  - {kind: fun, name: f}
  - {kind: fun, name: f}
  - {kind: val, name: a, init: {kind: call, callee: f}}
`, "ambiguous reference"},
		{"bad override", "decls: [{kind: fun, name: a, overrides: [Nope.a]}]", `unresolved symbol "Nope.a"`},
		{"bad type", "decls: [{kind: val, name: a, type: 'List<Int'}]", "malformed type"},
		{"unknown field", "decls: [{kind: val, name: a, colour: red}]", "colour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(source.NewFileSet(), "bad.yaml", []byte(tt.src))
			if err == nil {
				t.Fatal("expected error")
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestClassifyLiteral(t *testing.T) {
	tests := map[string]LitKind{
		"1":          LitInt,
		"0x7FFF":     LitInt,
		"0b1010":     LitInt,
		"1_000":      LitInt,
		"2L":         LitLong,
		"0xFFL":      LitLong,
		"1.5":        LitDouble,
		"1e10":       LitDouble,
		"0f":         LitFloat,
		"2.5F":       LitFloat,
		"'c'":        LitChar,
		`"s"`:        LitString,
		"true":       LitBool,
		"null":       LitNull,
		"0xFF_EE_DD": LitInt,
	}
	for text, want := range tests {
		if got := ClassifyLiteral(text); got != want {
			t.Errorf("ClassifyLiteral(%q) = %v, want %v", text, got, want)
		}
	}
}
