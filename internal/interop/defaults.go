package interop

import (
	"dotgate/internal/diag"
	"dotgate/internal/tree"
)

// hasDefault reports an own or inherited default value.
func hasDefault(p *tree.Decl) bool {
	seen := make(map[*tree.Decl]bool)
	for cur := p; cur != nil && !seen[cur]; cur = overriddenParam(cur) {
		seen[cur] = true
		if cur.Init != nil {
			return true
		}
	}
	return false
}

// ValidateDefaults checks @DartDifferentDefaultValue on the parameters of fn.
// Only annotations written on the parameter itself are considered.
func ValidateDefaults(fn *tree.Decl) []diag.Diagnostic {
	if !fn.Kind.Callable() {
		return nil
	}
	var out []diag.Diagnostic
	for _, p := range fn.Params {
		ann, ok := p.Annotation(tree.AnnDartDifferentDefaultValue)
		if !ok {
			continue
		}
		if !hasDefault(p) {
			out = append(out, diag.DartDifferentDefaultValueOnParameterWithoutDefaultValue.On(ann.Anchor()))
		}
		if !fn.IsExternal() {
			out = append(out, diag.DartDifferentDefaultValueOnNonExternal.On(ann.Anchor()))
		}
	}
	return out
}
