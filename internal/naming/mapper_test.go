package naming

import (
	"strings"
	"testing"

	"dotgate/internal/source"
	"dotgate/internal/tree"
)

func parse(t *testing.T, src string) *tree.Unit {
	t.Helper()
	u, err := tree.Parse(source.NewFileSet(), "naming.yaml", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return u
}

func TestMapperNames(t *testing.T) {
	u := parse(t, `
decls:
  - kind: class
    name: Box
    members:
      - {kind: constructor, modifiers: [primary], params: [{name: v, type: Int}]}
      - {kind: constructor, params: [{name: s, type: String}]}
      - {kind: fun, name: invoke, modifiers: [operator]}
      - {kind: fun, name: get}
      - {kind: val, name: get, type: Int}
      - {kind: val, name: secret, type: Int, modifiers: [private]}
      - {kind: fun, name: _shown}
      - {kind: class, name: Inner}
  - {kind: fun, name: renamed, annotations: [DartName=foo]}
  - {kind: val, name: switch, type: Int}
  - {kind: class, name: dynamic}
  - {kind: fun, name: dynamic}
`)
	m := NewMapper(u)
	box := u.Decls[0]

	tests := []struct {
		decl *tree.Decl
		want string
		ok   bool
	}{
		{box.Members[0], "", false},
		{box.Members[1], "$constructor$1", true},
		{box.Members[2], "call", true},
		{box.Members[3], "get", true},
		{box.Members[4], "get$property", true},
		{box.Members[5], "_secret", true},
		{box.Members[6], "shown", true},
		{box.Members[7], "Box$Inner", true},
		{u.Decls[1], "foo", true},
		{u.Decls[2], "$switch", true},
		{u.Decls[3], "$dynamic", true},
		{u.Decls[4], "dynamic", true},
	}
	for _, tt := range tests {
		got, ok := m.Name(tt.decl)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Name(%s) = %q,%v want %q,%v", tt.decl.Symbol, got, ok, tt.want, tt.ok)
		}
	}
}

func TestOverloadsGetSignatureSuffix(t *testing.T) {
	u := parse(t, `
decls:
  - {kind: fun, name: run, symbol: run0}
  - {kind: fun, name: run, symbol: run1, params: [{name: n, type: Int}]}
  - {kind: fun, name: run, symbol: run2, params: [{name: s, type: String}]}
`)
	m := NewMapper(u)
	first, _ := m.Name(u.Decls[0])
	second, _ := m.Name(u.Decls[1])
	third, _ := m.Name(u.Decls[2])

	if first != "run" {
		t.Fatalf("first overload keeps its name, got %q", first)
	}
	if !strings.HasPrefix(second, "run$") || !strings.HasPrefix(third, "run$") || second == third {
		t.Fatalf("overloads must get distinct suffixes: %q %q", second, third)
	}
	if second != "run$"+SignatureHash(u.Decls[1]) {
		t.Fatalf("suffix must be the signature hash, got %q", second)
	}
}

func TestOverrideUsesRootName(t *testing.T) {
	u := parse(t, `
decls:
  - kind: interface
    name: Base
    members:
      - {kind: fun, name: act, annotations: [DartName=perform]}
  - kind: class
    name: Impl
    super_types: [Base]
    members:
      - {kind: fun, name: act, modifiers: [override], overrides: [Base.act], annotations: [DartName=other]}
`)
	m := NewMapper(u)
	got, ok := m.Name(u.Decls[1].Members[0])
	if !ok || got != "perform" {
		t.Fatalf("override name = %q, want the overridden member's name", got)
	}
}

func TestNameIsNFCNormalized(t *testing.T) {
	// "é" written as e + combining acute accent
	u := parse(t, "decls:\n  - {kind: fun, name: \"caf\\u0065\\u0301\"}\n")
	got, _ := NewMapper(u).Name(u.Decls[0])
	if got != "café" {
		t.Fatalf("Name = %q, want NFC form", got)
	}
}
