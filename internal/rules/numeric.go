package rules

import (
	"dotgate/internal/diag"
	"dotgate/internal/tree"
)

// forbiddenNumeric maps Kotlin types Dart cannot represent to their replacement.
var forbiddenNumeric = []struct {
	name    string
	replace string
	id      diag.Diag0
}{
	{"Long", "Int", diag.LongReference},
	{"Float", "Double", diag.FloatReference},
	{"Char", "String", diag.CharReference},
}

var numericTypeReference = DeclRule{
	Name: "numeric-type-reference",
	Kinds: []tree.DeclKind{
		tree.DeclProperty, tree.DeclVariable, tree.DeclParameter, tree.DeclFunction,
	},
	Reports: reports(diag.LongReference, diag.ImplicitLongReference, diag.FloatReference, diag.CharReference),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		if d.Type == nil {
			return nil
		}
		if !d.TypeExplicit {
			return implicitNumeric(d)
		}
		var out []diag.Diagnostic
		for _, f := range forbiddenNumeric {
			if !mentions(d.Type, f.name) {
				continue
			}
			dg := f.id.On(d.TypeAnchor())
			if !d.TypeSpan.IsZero() {
				dg = dg.WithFix("Replace "+f.name+" with "+f.replace, diag.FixEdit{
					Span:    d.TypeSpan,
					NewText: substitute(d.Type, f.name, f.replace).String(),
				})
			}
			out = append(out, dg)
		}
		return out
	},
}

// implicitNumeric handles inferred types. Only the outermost type counts: an
// inferred List<Long> is reported where the Long is written.
func implicitNumeric(d *tree.Decl) []diag.Diagnostic {
	switch d.Type.Name {
	case "Long":
		return []diag.Diagnostic{diag.ImplicitLongReference.On(d.Anchor(), d.KindNoun())}
	case "Float":
		return []diag.Diagnostic{diag.FloatReference.On(d.TypeAnchor())}
	case "Char":
		return []diag.Diagnostic{diag.CharReference.On(d.TypeAnchor())}
	}
	return nil
}

func mentions(t *tree.Type, name string) bool {
	if t == nil {
		return false
	}
	if t.Name == name {
		return true
	}
	for _, a := range t.Args {
		if mentions(a, name) {
			return true
		}
	}
	return false
}

func substitute(t *tree.Type, from, to string) *tree.Type {
	out := &tree.Type{Name: t.Name, Nullable: t.Nullable, Decl: t.Decl}
	if out.Name == from {
		out.Name = to
		out.Decl = nil
	}
	for _, a := range t.Args {
		out.Args = append(out.Args, substitute(a, from, to))
	}
	return out
}
