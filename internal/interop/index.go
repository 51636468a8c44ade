package interop

import (
	"slices"

	"dotgate/internal/diag"
	"dotgate/internal/tree"
)

// overriddenParam returns the parameter at the same position in the first
// declaration fn overrides.
func overriddenParam(p *tree.Decl) *tree.Decl {
	fn := p.Parent
	if fn == nil || len(fn.Overrides) == 0 {
		return nil
	}
	i := slices.Index(fn.Params, p)
	base := fn.Overrides[0]
	if i < 0 || i >= len(base.Params) {
		return nil
	}
	return base.Params[i]
}

// explicitIndex returns the @DartIndex of p, inherited through overrides.
func explicitIndex(p *tree.Decl) (int, bool) {
	seen := make(map[*tree.Decl]bool)
	for cur := p; cur != nil && !seen[cur]; cur = overriddenParam(cur) {
		seen[cur] = true
		if a, ok := cur.Annotation(tree.AnnDartIndex); ok {
			return a.Index, true
		}
	}
	return 0, false
}

// EffectiveIndex is the position of p in the Dart signature. An explicit
// @DartIndex wins; unannotated parameters fill the slots no annotation
// claims, in declaration order. With valid annotations the effective indices
// of a function's parameters are a permutation of 0..n-1.
func EffectiveIndex(p *tree.Decl) int {
	if idx, ok := explicitIndex(p); ok {
		return idx
	}
	fn := p.Parent
	if fn == nil {
		return 0
	}
	pos := slices.Index(fn.Params, p)
	if pos < 0 {
		return 0
	}
	claimed := make([]bool, len(fn.Params))
	rank := 0
	for i, q := range fn.Params {
		idx, ok := explicitIndex(q)
		switch {
		case ok && idx >= 0 && idx < len(claimed):
			claimed[idx] = true
		case !ok && i < pos:
			rank++
		}
	}
	for slot, taken := range claimed {
		if taken {
			continue
		}
		if rank == 0 {
			return slot
		}
		rank--
	}
	return pos
}

// ValidateIndices checks the @DartIndex annotations on the parameters of fn.
// Only annotations conflict with each other; every conflicting annotation is
// reported, not only the first.
func ValidateIndices(fn *tree.Decl) []diag.Diagnostic {
	if !fn.Kind.Callable() || len(fn.Params) == 0 {
		return nil
	}
	last := len(fn.Params) - 1
	requested := make(map[int]int)
	for _, p := range fn.Params {
		if ann, ok := p.Annotation(tree.AnnDartIndex); ok {
			requested[ann.Index]++
		}
	}

	var out []diag.Diagnostic
	for _, p := range fn.Params {
		ann, ok := p.Annotation(tree.AnnDartIndex)
		if !ok {
			continue
		}
		if ann.Index < 0 || ann.Index > last {
			out = append(out, diag.DartIndexOutOfBounds.On(ann.Anchor(), ann.Index, last))
		}
		if requested[ann.Index] > 1 {
			out = append(out, diag.DartIndexConflict.On(ann.Anchor()))
		}
		if base := overriddenParam(p); base != nil && !fn.IsExternal() {
			if want := EffectiveIndex(base); want != ann.Index {
				out = append(out, diag.DartIndexMismatchOnOverride.On(ann.Anchor(), want))
			}
		}
	}
	return out
}
