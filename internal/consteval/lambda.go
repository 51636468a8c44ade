package consteval

import (
	"dotgate/internal/diag"
	"dotgate/internal/tree"
)

// lambda accepts a lambda in a const context when every reference inside it
// targets a global value or one of the lambda's own parameters and locals.
func (f *frame) lambda(e *tree.Expr) Value {
	l := e.Lambda
	if l == nil {
		return notConst("lambda has no body")
	}
	offending := LambdaCaptures(l)
	for _, ref := range offending {
		f.report(diag.ConstLambdaAccessingNonGlobalValue.On(ref.Anchor()))
	}
	if len(offending) > 0 {
		return reported("lambda accesses non-global values")
	}
	return Value{Kind: Function, Decl: l}
}

// LambdaCaptures returns the references inside l, nested lambdas included,
// whose targets are neither global nor declared within l.
func LambdaCaptures(l *tree.Decl) []*tree.Expr {
	var out []*tree.Expr
	visit := func(e *tree.Expr) bool {
		if e.Kind == tree.ExprRef && e.Ref != nil && !capturable(e.Ref, l) {
			out = append(out, e)
		}
		return true
	}
	walkLambda(l, visit)
	return out
}

func capturable(target, l *tree.Decl) bool {
	switch target.Kind {
	case tree.DeclClass, tree.DeclEnumEntry:
		return true
	}
	if target.IsStaticLike() {
		return true
	}
	for p := target.Parent; p != nil; p = p.Parent {
		if p == l {
			return true
		}
	}
	return false
}

func walkLambda(l *tree.Decl, fn func(*tree.Expr) bool) {
	expr := func(root *tree.Expr) {
		tree.WalkExpr(root, func(e *tree.Expr) bool {
			if !fn(e) {
				return false
			}
			if e.Lambda != nil {
				walkLambda(e.Lambda, fn)
			}
			return true
		})
	}
	for _, p := range l.Params {
		expr(p.Init)
	}
	tree.WalkStmts(l.Body, func(s *tree.Stmt) bool {
		expr(s.Expr)
		if s.Var != nil {
			expr(s.Var.Init)
		}
		return true
	})
}
