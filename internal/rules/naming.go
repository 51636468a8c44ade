package rules

import (
	"slices"

	"dotgate/internal/diag"
	"dotgate/internal/tree"
)

// nameClash reports a declaration whose Dart name was already taken by an
// earlier declaration of the same scope, when the later one is visited.
// Scopes are the unit's top level and each class body.
var nameClash = DeclRule{
	Name:    "dart-name-clash",
	Reports: reports(diag.DartNameClash),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		if !clashCandidate(d) {
			return nil
		}
		var scope []*tree.Decl
		switch {
		case d.Parent == nil:
			scope = ctx.Unit.Decls
		case d.Parent.Kind == tree.DeclClass && slices.Contains(d.Parent.Members, d):
			scope = d.Parent.Members
		default:
			return nil
		}
		if c, ok := ctx.scopeClashes(d.Parent, scope)[d]; ok {
			return []diag.Diagnostic{c}
		}
		return nil
	},
}

// scopeClashes computes the clashes of one scope once; owner is nil for the
// unit's top level.
func (ctx *Context) scopeClashes(owner *tree.Decl, scope []*tree.Decl) map[*tree.Decl]diag.Diagnostic {
	if got, ok := ctx.clashes[owner]; ok {
		return got
	}
	if ctx.clashes == nil {
		ctx.clashes = make(map[*tree.Decl]map[*tree.Decl]diag.Diagnostic)
	}
	got := nameClashes(ctx, scope)
	ctx.clashes[owner] = got
	return got
}

// nameClashes maps every declaration whose Dart name was already taken by an
// earlier declaration of the scope to its diagnostic. Each declaration is
// reported against the first declaration holding the name.
func nameClashes(ctx *Context, scope []*tree.Decl) map[*tree.Decl]diag.Diagnostic {
	type holder struct {
		decl *tree.Decl
		name string
	}
	var (
		out  = make(map[*tree.Decl]diag.Diagnostic)
		seen []holder
	)
	for _, d := range scope {
		if !clashCandidate(d) {
			continue
		}
		name, ok := ctx.Names.Name(d)
		if !ok {
			continue
		}
		for _, h := range seen {
			if h.name != name || !mayClash(d, h.decl) {
				continue
			}
			other := h.decl
			out[d] = diag.DartNameClash.On(d.Anchor(), d.Name, other.Name).
				WithNote(diag.PositionSignatureOrDefault.Position(other.Anchor()),
					"'"+name+"' is also the Dart name of "+string(other.Describe()))
			break
		}
		seen = append(seen, holder{decl: d, name: name})
	}
	return out
}

func clashCandidate(d *tree.Decl) bool {
	switch d.Kind {
	case tree.DeclParameter, tree.DeclTypeParameter, tree.DeclLambda, tree.DeclVariable:
		return false
	}
	return true
}

// mayClash excludes pairs that Dart keeps apart: a constructor never clashes
// with a method or a field.
func mayClash(a, b *tree.Decl) bool {
	ctorA := a.Kind == tree.DeclConstructor
	ctorB := b.Kind == tree.DeclConstructor
	if ctorA == ctorB {
		return true
	}
	other := b
	if ctorB {
		other = a
	}
	return other.Kind != tree.DeclFunction && other.Kind != tree.DeclProperty
}

var extensionName = DeclRule{
	Name:    "extension-name",
	Kinds:   []tree.DeclKind{tree.DeclFunction, tree.DeclProperty},
	Reports: reports(diag.ExtensionWithoutExplicitDartExtensionNameInPublicPackage),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		if !ctx.Publishable || !d.Has(tree.ModExtension) {
			return nil
		}
		if d.Has(tree.ModPrivate) || d.Has(tree.ModInternal) {
			return nil
		}
		if _, ok := d.Annotation(tree.AnnDartExtensionName); ok {
			return nil
		}
		return []diag.Diagnostic{diag.ExtensionWithoutExplicitDartExtensionNameInPublicPackage.On(d.Anchor())}
	},
}

var dartNameOnOverride = DeclRule{
	Name:    "dart-name-on-override",
	Kinds:   []tree.DeclKind{tree.DeclFunction, tree.DeclProperty},
	Reports: reports(diag.DartNameOnOverride),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		if len(d.Overrides) == 0 && !d.Has(tree.ModOverride) {
			return nil
		}
		ann, ok := d.Annotation(tree.AnnDartName)
		if !ok {
			return nil
		}
		return []diag.Diagnostic{
			diag.DartNameOnOverride.On(ann.Anchor()).
				WithFix("Remove @DartName", diag.FixEdit{Span: ann.Span}),
		}
	},
}

var duplicateImport = UnitRule{
	Name:    "duplicate-import",
	Reports: reports(diag.DuplicateImport),
	Check: func(ctx *Context) []diag.Diagnostic {
		var out []diag.Diagnostic
		first := make(map[string]tree.Import)
		for _, imp := range ctx.Unit.Imports {
			key := imp.Target
			if key == "" {
				key = imp.Path
			}
			prev, ok := first[key]
			if !ok {
				first[key] = imp
				continue
			}
			out = append(out, diag.DuplicateImport.On(diag.At(imp.Span), imp.Path, prev.Path).
				WithNote(prev.Span, "first imported here"))
		}
		return out
	},
}
