package rules

import (
	"dotgate/internal/diag"
	"dotgate/internal/tree"
)

var constInitializer = DeclRule{
	Name:    "const-initializer",
	Kinds:   []tree.DeclKind{tree.DeclProperty, tree.DeclVariable},
	Reports: withEvaluation(diag.ConstInitializedWithNonConstantValue),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		return ctx.Eval.CheckInitializer(d)
	},
}

// constAnnotation evaluates every @const expression. Expressions nested in a
// const initializer are also reached through const-initializer; the pass
// drops the repeated findings.
var constAnnotation = ExprRule{
	Name:    "const-annotation",
	Reports: evaluationReports,
	Check: func(ctx *Context, e *tree.Expr) []diag.Diagnostic {
		if !e.Const {
			return nil
		}
		_, diags := ctx.Eval.Evaluate(e, nil)
		return diags
	},
}

var constDefaultValue = DeclRule{
	Name:    "const-default-value",
	Kinds:   []tree.DeclKind{tree.DeclConstructor, tree.DeclFunction},
	Reports: withEvaluation(diag.NonConstantDefaultValueInConstConstructor),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		return ctx.Eval.CheckDefaults(d)
	},
}

var constInlineShape = DeclRule{
	Name:  "const-inline-shape",
	Kinds: []tree.DeclKind{tree.DeclFunction},
	Reports: withEvaluation(
		diag.ConstInlineFunctionWithMultipleReturns,
		diag.ConstInlineFunctionReturnsNonConst,
		diag.ConstInlineFunctionHasInvalidStatement,
	),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		return ctx.Eval.CheckConstInline(d)
	},
}

var constModifier = DeclRule{
	Name:    "const-modifier",
	Kinds:   []tree.DeclKind{tree.DeclFunction},
	Reports: reports(diag.InapplicableConstFunctionModifier),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		if !d.Has(tree.ModConst) || d.Has(tree.ModInline) {
			return nil
		}
		if _, ok := d.Annotation(tree.AnnDartConstructor); ok {
			return nil
		}
		return []diag.Diagnostic{diag.InapplicableConstFunctionModifier.On(d.ModifierAnchor(tree.ModConst))}
	},
}
