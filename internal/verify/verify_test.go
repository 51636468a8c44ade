package verify

import (
	"context"
	"errors"
	"slices"
	"testing"

	"dotgate/internal/diag"
	"dotgate/internal/rules"
	"dotgate/internal/source"
	"dotgate/internal/testkit"
	"dotgate/internal/trace"
	"dotgate/internal/tree"
)

func parse(t *testing.T, src string) *tree.Unit {
	t.Helper()
	fs := source.NewFileSet()
	u, err := tree.Parse(fs, "verify.yaml", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := testkit.CheckSpanInvariants(u, fs.Get(u.File)); err != nil {
		t.Fatalf("span invariants: %v", err)
	}
	return u
}

func TestGate(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		proceed  bool
		errors   int
		warnings int
	}{
		{
			name:    "clean",
			src:     "decls:\n  - {kind: fun, name: main}\n",
			proceed: true,
		},
		{
			name: "warnings only",
			src: `
decls:
  - kind: fun
    name: cast
    modifiers: [inline]
    type_params: [{name: T, modifiers: [reified]}]
`,
			proceed:  true,
			warnings: 1,
		},
		{
			name: "error",
			src: `
decls:
  - {kind: val, name: id, type: Long}
  - kind: fun
    name: cast
    modifiers: [inline]
    type_params: [{name: T, modifiers: [reified]}]
`,
			proceed:  false,
			errors:   1,
			warnings: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Verify(context.Background(), parse(t, tt.src), Options{})
			if res.Proceed != tt.proceed {
				t.Fatalf("Proceed = %v, want %v", res.Proceed, tt.proceed)
			}
			if got := res.Bag.ErrorCount(); got != tt.errors {
				t.Errorf("errors = %d, want %d", got, tt.errors)
			}
			if got := res.Bag.WarningCount(); got != tt.warnings {
				t.Errorf("warnings = %d, want %d", got, tt.warnings)
			}
		})
	}
}

func TestTruncatedBagStillBlocks(t *testing.T) {
	u := parse(t, `
decls:
  - {kind: fun, name: cast, modifiers: [inline], type_params: [{name: T, modifiers: [reified]}]}
  - {kind: val, name: a, type: Long}
  - {kind: val, name: b, type: Char}
`)
	res := Verify(context.Background(), u, Options{MaxDiagnostics: 1})
	if res.Bag.Len() != 1 || res.Bag.Dropped() != 2 {
		t.Fatalf("stored %d, dropped %d", res.Bag.Len(), res.Bag.Dropped())
	}
	if !res.Bag.Items()[0].Is(diag.UnnecessaryReified) {
		t.Fatalf("first stored diagnostic is %s", res.Bag.Items()[0].Code.Name())
	}
	if res.Proceed {
		t.Fatal("errors past the display cap must close the gate")
	}
}

func TestDocumentOrder(t *testing.T) {
	u := parse(t, `
decls:
  - kind: class
    name: Outer
    members:
      - {kind: val, name: first, type: Float}
      - kind: fun
        name: second
        params: [{name: c, type: Char}]
  - {kind: val, name: third, type: Long}
`)
	res := Verify(context.Background(), u, Options{})
	var got []string
	for _, d := range res.Bag.Items() {
		got = append(got, d.Code.Name())
	}
	want := []string{"FLOAT_REFERENCE", "CHAR_REFERENCE", "LONG_REFERENCE"}
	if !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestNameClashKeepsDocumentOrder(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "top level",
			src: `
decls:
  - {kind: val, name: first, type: Long}
  - {kind: fun, name: bar, annotations: [DartName=foo]}
  - {kind: fun, name: foo}
  - {kind: val, name: last, type: Char}
`,
			want: []string{"LONG_REFERENCE", "DART_NAME_CLASH", "CHAR_REFERENCE"},
		},
		{
			name: "class members",
			src: `
decls:
  - kind: class
    name: Holder
    members:
      - {kind: val, name: a, type: Float, annotations: [DartName=value]}
      - {kind: val, name: value, type: Long}
  - {kind: val, name: after, type: Char}
`,
			want: []string{"FLOAT_REFERENCE", "DART_NAME_CLASH", "LONG_REFERENCE", "CHAR_REFERENCE"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Verify(context.Background(), parse(t, tt.src), Options{})
			var got []string
			for _, d := range res.Bag.Items() {
				got = append(got, d.Code.Name())
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDuplicateFindingsReportedOnce(t *testing.T) {
	u := parse(t, `
decls:
  - kind: class
    name: Wrapper
    members:
      - {kind: constructor, modifiers: [const, primary], params: [{name: v, type: Int}]}
  - kind: val
    name: w
    modifiers: [const]
    type: Wrapper
    init: {kind: new, callee: Wrapper, const: true, args: [7L]}
`)
	res := Verify(context.Background(), u, Options{})
	if n := res.Bag.Count(diag.LongReference); n != 1 {
		t.Fatalf("LONG_REFERENCE reported %d times", n)
	}
	if res.Bag.Len() != 1 {
		t.Fatalf("unexpected diagnostics: %d", res.Bag.Len())
	}
}

func TestMetadata(t *testing.T) {
	u := parse(t, `
decls:
  - kind: fun
    name: swapped
    params:
      - {name: a, type: Int, annotations: [DartIndex=1]}
      - {name: b, type: Int}
  - kind: fun
    name: broken
    params:
      - {name: a, type: Int, annotations: [DartIndex=5]}
  - kind: fun
    name: rotated
    params:
      - {name: a, type: Int, annotations: [DartIndex=2]}
      - {name: b, type: Int, annotations: [DartIndex=0]}
      - {name: c, type: Int}
  - kind: val
    name: notCallable
    type: Int
`)
	res := Verify(context.Background(), u, Options{})
	if len(res.Metadata) != 2 {
		t.Fatalf("metadata = %+v", res.Metadata)
	}
	sig := res.Metadata[0]
	if sig.Symbol != "swapped" || !slices.Equal(sig.DartOrder(), []string{"b", "a"}) {
		t.Fatalf("signature = %+v", sig)
	}
	sig = res.Metadata[1]
	if sig.Symbol != "rotated" || !slices.Equal(sig.DartOrder(), []string{"b", "c", "a"}) {
		t.Fatalf("signature = %+v", sig)
	}
	if res.Proceed {
		t.Fatal("out of bounds index must block")
	}
}

func TestUndeclaredIdentityPanics(t *testing.T) {
	cat := &rules.Catalog{
		Decls: []rules.DeclRule{{
			Name:    "liar",
			Reports: []diag.Identified{diag.VarInEnum},
			Check: func(_ *rules.Context, d *tree.Decl) []diag.Diagnostic {
				return []diag.Diagnostic{diag.LongReference.On(d.Anchor())}
			},
		}},
	}
	defer func() {
		r := recover()
		err, ok := r.(error)
		var ce *CatalogError
		if !ok || !errors.As(err, &ce) {
			t.Fatalf("recovered %v, want *CatalogError", r)
		}
		if ce.Rule != "liar" || !ce.Registered {
			t.Fatalf("CatalogError = %+v", ce)
		}
	}()
	Verify(context.Background(), parse(t, "decls:\n  - {kind: fun, name: main}\n"), Options{Catalog: cat})
	t.Fatal("Verify returned")
}

func TestUnregisteredCodePanics(t *testing.T) {
	cat := &rules.Catalog{
		Units: []rules.UnitRule{{
			Name: "forged",
			Check: func(*rules.Context) []diag.Diagnostic {
				return []diag.Diagnostic{{Severity: diag.SevError, Code: 9999}}
			},
		}},
	}
	defer func() {
		ce, ok := recover().(*CatalogError)
		if !ok || ce.Registered {
			t.Fatalf("want unregistered CatalogError, got %#v", ce)
		}
	}()
	Verify(context.Background(), parse(t, "decls: []\n"), Options{Catalog: cat})
}

func TestVerifyIsDeterministic(t *testing.T) {
	src := `
decls:
  - {kind: fun, name: bar, annotations: [DartName=foo]}
  - {kind: fun, name: foo}
  - {kind: val, name: x, modifiers: [const], type: Int, init: {kind: ref, ref: y}}
  - {kind: val, name: y, modifiers: [const], type: Int, init: {kind: ref, ref: x}}
`
	first := Verify(context.Background(), parse(t, src), Options{}).Bag.Items()
	second := Verify(context.Background(), parse(t, src), Options{}).Bag.Items()
	if len(first) != len(second) || len(first) != 3 {
		t.Fatalf("runs differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Message != second[i].Message || first[i].Primary != second[i].Primary {
			t.Fatalf("diagnostic %d differs: %q vs %q", i, first[i].Message, second[i].Message)
		}
	}
}

func TestVerifyTracesUnitSpan(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	Verify(ctx, parse(t, "unit: lib/a.kt\ndecls:\n  - {kind: val, name: a, type: Long}\n"), Options{})

	events := ring.Snapshot()
	if len(events) != 3 {
		t.Fatalf("events = %d, want begin, rule point, end", len(events))
	}
	if events[0].Kind != trace.KindSpanBegin || events[0].Name != "verify" || events[0].Unit != "lib/a.kt" {
		t.Fatalf("first event = %+v", events[0])
	}
	if events[1].Kind != trace.KindPoint || events[1].Name != "numeric-type-reference" || events[1].ParentID != events[0].SpanID {
		t.Fatalf("rule event = %+v", events[1])
	}
	if events[2].Detail != "blocked" || events[2].Attrs["errors"] != "1" {
		t.Fatalf("end event = %+v", events[2])
	}
}
