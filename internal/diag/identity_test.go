package diag

import (
	"errors"
	"strings"
	"testing"

	"dotgate/internal/source"
)

type declAnchor struct {
	full source.Span
	sig  source.Span
}

func (d declAnchor) Span() source.Span { return d.full }
func (d declAnchor) SignatureSpan() (source.Span, bool) {
	return d.sig, !d.sig.IsZero()
}

func TestTypedConstructionRendersTemplate(t *testing.T) {
	anchor := At(source.Span{File: 0, Start: 4, End: 9})

	tests := []struct {
		name string
		got  Diagnostic
		want string
	}{
		{"no args", LongReference.On(anchor), "cannot use Long, use Int instead"},
		{"string arg", ImplicitLongReference.On(anchor, "property"), "property has implicit type of Long, specify Int type explicitly"},
		{"repeated placeholder", ConstWithNonConst.On(anchor, "constructor"), "the constructor being called is not a const constructor"},
		{"two args", DuplicateImport.On(anchor, "dart:math", "unit.kt:2:1"), "duplicate import: 'dart:math' is also imported at: 'unit.kt:2:1'"},
		{"int args", DartIndexOutOfBounds.On(anchor, 5, 2), "index 5 out of bounds: must be in range of 0..2"},
		{"type arg", DartConstructorWrongReturnType.On(anchor, TypeName("Foo<T>")), "@DartConstructor annotated method must have return type 'Foo<T>'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Message != tt.want {
				t.Errorf("message = %q, want %q", tt.got.Message, tt.want)
			}
		})
	}
}

func TestSeverityComesFromIdentity(t *testing.T) {
	anchor := At(source.Span{})
	if d := UnnecessaryReified.On(anchor); d.Severity != SevWarning {
		t.Errorf("UNNECESSARY_REIFIED severity = %v", d.Severity)
	}
	if d := WrongSetOperatorReturn.On(anchor, DeclName("value")); d.Severity != SevWarning {
		t.Errorf("WRONG_SET_OPERATOR_RETURN severity = %v", d.Severity)
	}
	if d := ExtensionWithoutExplicitDartExtensionNameInPublicPackage.On(anchor); d.Severity != SevWarning {
		t.Errorf("extension warning severity = %v", d.Severity)
	}
	if d := LongReference.On(anchor); d.Severity != SevError {
		t.Errorf("LONG_REFERENCE severity = %v", d.Severity)
	}
}

func TestPositioning(t *testing.T) {
	full := source.Span{File: 1, Start: 0, End: 80}
	sig := source.Span{File: 1, Start: 0, End: 20}

	withSig := declAnchor{full: full, sig: sig}
	withoutSig := declAnchor{full: full}

	if got := PositionDefault.Position(withSig); got != full {
		t.Errorf("default = %v, want %v", got, full)
	}
	if got := PositionSignatureOrDefault.Position(withSig); got != sig {
		t.Errorf("signature = %v, want %v", got, sig)
	}
	if got := PositionSignatureOrDefault.Position(withoutSig); got != full {
		t.Errorf("signature fallback = %v, want %v", got, full)
	}
	if got := PositionSignatureOrDefault.Position(At(full)); got != full {
		t.Errorf("bare span = %v, want %v", got, full)
	}

	d := DartNameClash.On(withSig, "foo", "bar")
	if d.Primary != sig {
		t.Errorf("DART_NAME_CLASH primary = %v, want signature %v", d.Primary, sig)
	}
	if d := ImplicitLongReference.On(withSig, "property"); d.Primary != full {
		t.Errorf("IMPLICIT_LONG_REFERENCE primary = %v, want whole declaration %v", d.Primary, full)
	}
}

func TestInstantiateChecksSignature(t *testing.T) {
	anchor := At(source.Span{Start: 1, End: 2})

	d := Instantiate(DartIndexOutOfBounds.Identity(), anchor, 3, 1)
	if d.Code != DartIndexOutOfBounds.Identity().Code() || d.Message != "index 3 out of bounds: must be in range of 0..1" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}

	cases := []struct {
		name string
		id   *Identity
		args []any
	}{
		{"missing arg", ImplicitLongReference.Identity(), nil},
		{"extra arg", LongReference.Identity(), []any{"x"}},
		{"wrong kind", DartIndexOutOfBounds.Identity(), []any{"3", 1}},
		{"string vs type", DartConstructorWrongReturnType.Identity(), []any{"Foo"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok {
					t.Fatalf("expected panic with error, got %v", r)
				}
				var sigErr *SignatureError
				if !errors.As(err, &sigErr) {
					t.Fatalf("expected *SignatureError, got %T", err)
				}
				if !strings.Contains(sigErr.Error(), tc.id.Name()) {
					t.Errorf("error %q does not name the identity", sigErr.Error())
				}
			}()
			Instantiate(tc.id, anchor, tc.args...)
		})
	}
}

func TestDiagnosticIs(t *testing.T) {
	d := CharReference.On(At(source.Span{}))
	if !d.Is(CharReference) || d.Is(FloatReference) {
		t.Fatal("Is must compare identities by code")
	}
	id, ok := d.Identity()
	if !ok || id.Name() != "CHAR_REFERENCE" {
		t.Fatalf("Identity() = %v, %v", id, ok)
	}
}

func TestWithNoteDoesNotAlias(t *testing.T) {
	base := DartNameClash.On(At(source.Span{}), "foo", "bar")
	base.Notes = make([]Note, 0, 4)
	a := base.WithNote(source.Span{Start: 1}, "a")
	b := base.WithNote(source.Span{Start: 2}, "b")
	if a.Notes[0].Msg != "a" || b.Notes[0].Msg != "b" {
		t.Fatalf("notes aliased: %v / %v", a.Notes, b.Notes)
	}
}
