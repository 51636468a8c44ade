package interop

import (
	"slices"

	"dotgate/internal/diag"
	"dotgate/internal/tree"
)

// ParamMeta is the validated Dart-side shape of one parameter.
type ParamMeta struct {
	Name             string `json:"name" msgpack:"name"`
	Index            int    `json:"index" msgpack:"index"`
	Explicit         bool   `json:"explicit,omitempty" msgpack:"explicit,omitempty"`
	DifferentDefault bool   `json:"different_default,omitempty" msgpack:"different_default,omitempty"`
}

// Signature is the interop metadata handed to lowering for one callable.
type Signature struct {
	Symbol          string      `json:"symbol" msgpack:"symbol"`
	Kind            string      `json:"kind" msgpack:"kind"`
	DartConstructor bool        `json:"dart_constructor,omitempty" msgpack:"dart_constructor,omitempty"`
	Params          []ParamMeta `json:"params" msgpack:"params"`
}

// DartOrder returns parameter names sorted by their Dart index.
func (s Signature) DartOrder() []string {
	params := slices.Clone(s.Params)
	slices.SortStableFunc(params, func(a, b ParamMeta) int { return a.Index - b.Index })
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

// Reordered reports whether Dart sees the parameters in a different order.
func (s Signature) Reordered() bool {
	for i, p := range s.Params {
		if p.Index != i {
			return true
		}
	}
	return false
}

// Validate runs every interop check on fn.
func Validate(fn *tree.Decl) []diag.Diagnostic {
	out := ValidateIndices(fn)
	out = append(out, ValidateDefaults(fn)...)
	return append(out, ValidateConstructor(fn)...)
}

// Collect builds the metadata of a function or constructor. It returns false
// for other declarations and for callables with interop diagnostics.
func Collect(fn *tree.Decl) (Signature, bool) {
	if fn.Kind != tree.DeclFunction && fn.Kind != tree.DeclConstructor {
		return Signature{}, false
	}
	if len(Validate(fn)) > 0 {
		return Signature{}, false
	}
	sig := Signature{
		Symbol: fn.Symbol,
		Kind:   fn.Kind.String(),
		Params: make([]ParamMeta, len(fn.Params)),
	}
	_, sig.DartConstructor = fn.Annotation(tree.AnnDartConstructor)
	for i, p := range fn.Params {
		_, explicit := explicitIndex(p)
		_, different := p.Annotation(tree.AnnDartDifferentDefaultValue)
		if base := overriddenParam(p); base != nil && !different {
			_, different = base.Annotation(tree.AnnDartDifferentDefaultValue)
		}
		sig.Params[i] = ParamMeta{
			Name:             p.Name,
			Index:            EffectiveIndex(p),
			Explicit:         explicit,
			DifferentDefault: different,
		}
	}
	return sig, true
}
