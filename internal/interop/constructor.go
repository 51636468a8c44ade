package interop

import (
	"strings"

	"dotgate/internal/diag"
	"dotgate/internal/tree"
)

// ValidateConstructor checks @DartConstructor: it belongs on external
// companion functions that return the companion's owner class.
func ValidateConstructor(fn *tree.Decl) []diag.Diagnostic {
	if !fn.Kind.Callable() {
		return nil
	}
	ann, ok := fn.Annotation(tree.AnnDartConstructor)
	if !ok {
		return nil
	}
	var out []diag.Diagnostic
	companion := fn.Parent
	if !fn.IsExternal() || companion == nil || !companion.Has(tree.ModCompanion) {
		out = append(out, diag.DartConstructorWrongTarget.On(ann.Anchor()))
	}
	if companion == nil || companion.Parent == nil || companion.Parent.Kind != tree.DeclClass {
		return out
	}
	class := companion.Parent
	if !returnsClass(fn, class) {
		anchor := ann.Anchor()
		if !fn.TypeSpan.IsZero() {
			anchor = diag.At(fn.TypeSpan)
		}
		out = append(out, diag.DartConstructorWrongReturnType.On(anchor, classType(class)))
	}
	return out
}

// returnsClass compares the return type with the class's own type, type
// parameters matched by position.
func returnsClass(fn, class *tree.Decl) bool {
	t := fn.Type
	if t == nil || t.Nullable || len(t.Args) != len(class.TypeParams) {
		return false
	}
	if t.Decl != class && t.Name != class.Name {
		return false
	}
	for i, arg := range t.Args {
		if arg == nil || len(arg.Args) > 0 {
			return false
		}
		fnParam := i < len(fn.TypeParams) && fn.TypeParams[i].Name == arg.Name
		if !fnParam && class.TypeParams[i].Name != arg.Name {
			return false
		}
	}
	return true
}

func classType(class *tree.Decl) diag.TypeName {
	if len(class.TypeParams) == 0 {
		return diag.TypeName(class.Name)
	}
	names := make([]string, len(class.TypeParams))
	for i, tp := range class.TypeParams {
		names[i] = tp.Name
	}
	return diag.TypeName(class.Name + "<" + strings.Join(names, ", ") + ">")
}
