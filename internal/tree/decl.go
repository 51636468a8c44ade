package tree

import (
	"strings"

	"dotgate/internal/diag"
	"dotgate/internal/source"
)

type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	DeclClass
	DeclFunction
	DeclConstructor
	DeclProperty
	DeclVariable
	DeclParameter
	DeclEnumEntry
	DeclTypeParameter
	DeclLambda
)

var declKindNames = [...]string{
	DeclInvalid:       "invalid",
	DeclClass:         "class",
	DeclFunction:      "function",
	DeclConstructor:   "constructor",
	DeclProperty:      "property",
	DeclVariable:      "variable",
	DeclParameter:     "parameter",
	DeclEnumEntry:     "enum_entry",
	DeclTypeParameter: "type_parameter",
	DeclLambda:        "lambda",
}

func (k DeclKind) String() string {
	if int(k) < len(declKindNames) {
		return declKindNames[k]
	}
	return "invalid"
}

// Callable reports whether declarations of this kind carry parameters.
func (k DeclKind) Callable() bool {
	return k == DeclFunction || k == DeclConstructor || k == DeclLambda
}

// Modifiers is a bitset of source modifiers.
type Modifiers uint32

const (
	ModConst Modifiers = 1 << iota
	ModInline
	ModOperator
	ModExternal
	ModPrivate
	ModInternal
	ModVar
	ModReified
	ModOverride
	ModCompanion
	ModObject
	ModEnum
	ModInterface
	ModAbstract
	ModOpen
	ModPrimary
	ModExtension
)

var modifierNames = map[string]Modifiers{
	"const":     ModConst,
	"inline":    ModInline,
	"operator":  ModOperator,
	"external":  ModExternal,
	"private":   ModPrivate,
	"internal":  ModInternal,
	"var":       ModVar,
	"reified":   ModReified,
	"override":  ModOverride,
	"companion": ModCompanion,
	"object":    ModObject,
	"enum":      ModEnum,
	"interface": ModInterface,
	"abstract":  ModAbstract,
	"open":      ModOpen,
	"primary":   ModPrimary,
	"extension": ModExtension,
}

// ParseModifier maps a modifier keyword to its bit.
func ParseModifier(s string) (Modifiers, bool) {
	m, ok := modifierNames[s]
	return m, ok
}

// Decl is a resolved declaration. Pointers between declarations (Parent,
// Overrides, reference targets) are set by the tree provider and Link.
type Decl struct {
	ID       int
	Kind     DeclKind
	Name     string
	Symbol   string
	Span     source.Span
	NameSpan source.Span
	SigSpan  source.Span

	// Type is the declared or inferred type: the value type for properties,
	// variables and parameters, the return type for functions.
	Type         *Type
	TypeExplicit bool
	TypeSpan     source.Span
	Receiver     *Type

	Mods        Modifiers
	ModSpans    map[Modifiers]source.Span
	Annotations []*Annotation

	Params     []*Decl
	TypeParams []*Decl
	Members    []*Decl
	Body       []*Stmt
	// Init is the initializer of a property or variable, or the default value of a parameter.
	Init *Expr

	Overrides  []*Decl
	Supertypes []*Type
	SuperCalls []*Expr

	Parent *Decl
}

// Anchor exposes the declaration to diag with signature positioning support.
func (d *Decl) Anchor() diag.Anchor { return declAnchor{d} }

type declAnchor struct{ d *Decl }

func (a declAnchor) Span() source.Span { return a.d.Span }
func (a declAnchor) SignatureSpan() (source.Span, bool) {
	if a.d.SigSpan.IsZero() {
		if !a.d.NameSpan.IsZero() {
			return a.d.NameSpan, true
		}
		return source.Span{}, false
	}
	return a.d.SigSpan, true
}

// ModifierAnchor points at the modifier keyword, falling back to the declaration.
func (d *Decl) ModifierAnchor(m Modifiers) diag.Anchor {
	if sp, ok := d.ModSpans[m]; ok {
		return diag.At(sp)
	}
	return declAnchor{d}
}

// TypeAnchor points at the written type reference, falling back to the signature.
func (d *Decl) TypeAnchor() diag.Anchor {
	if !d.TypeSpan.IsZero() {
		return diag.At(d.TypeSpan)
	}
	return diag.At(diag.PositionSignatureOrDefault.Position(declAnchor{d}))
}

func (d *Decl) Has(m Modifiers) bool {
	return d.Mods&m == m
}

// Annotation returns the first annotation with the given name.
func (d *Decl) Annotation(name string) (*Annotation, bool) {
	for _, a := range d.Annotations {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// IsExternal reports declarations marked external or nested in an external class.
func (d *Decl) IsExternal() bool {
	for cur := d; cur != nil; cur = cur.Parent {
		if cur.Has(ModExternal) {
			return true
		}
	}
	return false
}

func (d *Decl) IsTopLevel() bool {
	return d.Parent == nil
}

// IsConstInline reports a function marked both const and inline.
func (d *Decl) IsConstInline() bool {
	return d.Kind == DeclFunction && d.Has(ModConst|ModInline)
}

// IsConstCapable reports whether a constructor may be invoked in a const context.
func (d *Decl) IsConstCapable() bool {
	switch d.Kind {
	case DeclConstructor:
		return d.Has(ModConst)
	case DeclFunction:
		return d.IsConstInline()
	}
	return false
}

// OwnerClass returns the nearest enclosing class.
func (d *Decl) OwnerClass() *Decl {
	for p := d.Parent; p != nil; p = p.Parent {
		if p.Kind == DeclClass {
			return p
		}
	}
	return nil
}

// EnclosingCallable returns the nearest enclosing function, constructor or lambda.
func (d *Decl) EnclosingCallable() *Decl {
	for p := d.Parent; p != nil; p = p.Parent {
		if p.Kind.Callable() {
			return p
		}
	}
	return nil
}

// IsStaticLike reports declarations reachable without an instance:
// top-level declarations, members of objects and companions, enum entries.
func (d *Decl) IsStaticLike() bool {
	if d.Kind == DeclEnumEntry {
		return true
	}
	if d.Parent == nil {
		return d.Kind != DeclParameter && d.Kind != DeclVariable
	}
	if d.Parent.Kind == DeclClass && (d.Parent.Has(ModObject) || d.Parent.Has(ModCompanion)) {
		return d.Kind != DeclParameter
	}
	return false
}

// Root follows the first override edge to the original declaration.
func (d *Decl) Root() *Decl {
	seen := map[*Decl]bool{}
	cur := d
	for len(cur.Overrides) > 0 && !seen[cur] {
		seen[cur] = true
		cur = cur.Overrides[0]
	}
	return cur
}

// Describe renders a short human form, e.g. "fun foo(Int, String)".
func (d *Decl) Describe() diag.DeclName {
	var b strings.Builder
	switch d.Kind {
	case DeclClass:
		switch {
		case d.Has(ModInterface):
			b.WriteString("interface ")
		case d.Has(ModObject) || d.Has(ModCompanion):
			b.WriteString("object ")
		case d.Has(ModEnum):
			b.WriteString("enum class ")
		default:
			b.WriteString("class ")
		}
		b.WriteString(d.Name)
	case DeclFunction, DeclConstructor:
		if d.Kind == DeclFunction {
			b.WriteString("fun ")
			if d.Receiver != nil {
				b.WriteString(d.Receiver.String())
				b.WriteByte('.')
			}
			b.WriteString(d.Name)
		} else {
			b.WriteString("constructor ")
			if owner := d.OwnerClass(); owner != nil {
				b.WriteString(owner.Name)
			}
		}
		b.WriteByte('(')
		for i, p := range d.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Type.String())
		}
		b.WriteByte(')')
	case DeclProperty, DeclVariable:
		if d.Has(ModVar) {
			b.WriteString("var ")
		} else {
			b.WriteString("val ")
		}
		b.WriteString(d.Name)
	default:
		b.WriteString(d.Name)
	}
	return diag.DeclName(b.String())
}

// KindNoun is the word used in messages: "property", "method", ...
func (d *Decl) KindNoun() string {
	switch d.Kind {
	case DeclFunction:
		if d.OwnerClass() != nil {
			return "method"
		}
		return "function"
	}
	return d.Kind.String()
}
