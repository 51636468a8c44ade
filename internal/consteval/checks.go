package consteval

import (
	"slices"

	"dotgate/internal/diag"
	"dotgate/internal/tree"
)

// CheckInitializer verifies that a const property or const local is
// initialized with a constant.
func (ev *Evaluator) CheckInitializer(d *tree.Decl) []diag.Diagnostic {
	if !d.Has(tree.ModConst) || d.Init == nil {
		return nil
	}
	if d.Kind != tree.DeclProperty && d.Kind != tree.DeclVariable {
		return nil
	}
	v, diags := ev.Evaluate(d.Init, nil)
	out := slices.Clone(diags)
	if !v.IsConst() && !v.Reported {
		out = append(out, diag.ConstInitializedWithNonConstantValue.On(d.Anchor()))
	}
	return out
}

// CheckDefaults verifies the parameter default values of const constructors
// and const inline functions.
func (ev *Evaluator) CheckDefaults(d *tree.Decl) []diag.Diagnostic {
	if !d.IsConstCapable() {
		return nil
	}
	var out []diag.Diagnostic
	for _, p := range d.Params {
		if p.Init == nil {
			continue
		}
		v, diags := ev.Evaluate(p.Init, nil)
		out = append(out, diags...)
		if !v.IsConst() && !v.Reported {
			out = append(out, diag.NonConstantDefaultValueInConstConstructor.On(p.Init.Anchor()))
		}
	}
	return out
}

// CheckConstInline verifies the body shape of a const inline function: one
// return of a constant value, preceded only by const locals.
func (ev *Evaluator) CheckConstInline(fn *tree.Decl) []diag.Diagnostic {
	if !fn.IsConstInline() {
		return nil
	}
	returns := tree.Returns(fn.Body)
	if len(returns) > 1 {
		return []diag.Diagnostic{diag.ConstInlineFunctionWithMultipleReturns.On(fn.Anchor())}
	}

	var out []diag.Diagnostic
	for _, s := range fn.Body {
		switch {
		case s.Kind == tree.StmtReturn:
		case s.Kind == tree.StmtVar && s.Var != nil && s.Var.Has(tree.ModConst):
		default:
			out = append(out, diag.ConstInlineFunctionHasInvalidStatement.On(s.Anchor()))
		}
	}

	if len(returns) == 0 {
		return append(out, diag.ConstInlineFunctionReturnsNonConst.On(fn.Anchor()))
	}
	ret := returns[0]
	if ret.Expr == nil {
		return append(out, diag.ConstInlineFunctionReturnsNonConst.On(ret.Anchor()))
	}
	v, diags := ev.Evaluate(ret.Expr, nil)
	out = append(out, diags...)
	if !v.IsConst() && !v.Reported {
		out = append(out, diag.ConstInlineFunctionReturnsNonConst.On(ret.Expr.Anchor()))
	}
	return out
}
