package tree

import (
	"dotgate/internal/diag"
	"dotgate/internal/source"
)

type ExprKind uint8

const (
	ExprOther ExprKind = iota
	ExprLiteral
	ExprNew // constructor call
	ExprCall
	ExprRef
	ExprLambda
	ExprBinary
	ExprUnary
	ExprTemplate
)

var exprKindNames = [...]string{
	ExprOther:    "other",
	ExprLiteral:  "literal",
	ExprNew:      "new",
	ExprCall:     "call",
	ExprRef:      "ref",
	ExprLambda:   "lambda",
	ExprBinary:   "binary",
	ExprUnary:    "unary",
	ExprTemplate: "template",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "other"
}

type LitKind uint8

const (
	LitInvalid LitKind = iota
	LitInt
	LitLong
	LitFloat
	LitDouble
	LitBool
	LitChar
	LitString
	LitNull
)

var litKindNames = [...]string{
	LitInvalid: "invalid",
	LitInt:     "int",
	LitLong:    "long",
	LitFloat:   "float",
	LitDouble:  "double",
	LitBool:    "bool",
	LitChar:    "char",
	LitString:  "string",
	LitNull:    "null",
}

func (k LitKind) String() string {
	if int(k) < len(litKindNames) {
		return litKindNames[k]
	}
	return "invalid"
}

// Expr is a resolved expression.
type Expr struct {
	ID   int
	Kind ExprKind
	Span source.Span
	Type *Type

	Lit   LitKind
	Value string // literal text as written, or the operator for unary/binary
	// Callee is the called function or constructor; Ref the referenced declaration.
	Callee   *Decl
	Ref      *Decl
	Receiver *Expr
	// Args holds call arguments, binary/unary operands and template parts.
	Args   []*Expr
	Lambda *Decl

	// Const marks an expression written with the @const annotation.
	Const     bool
	ConstSpan source.Span

	// Owner is the innermost declaration containing the expression,
	// Parent the enclosing expression.
	Owner  *Decl
	Parent *Expr
	// SuperCall is set for the constructor calls of a class supertype list.
	SuperCall bool
}

func (e *Expr) Anchor() diag.Anchor { return diag.At(e.Span) }

// ConstAnchor points at the @const annotation when known.
func (e *Expr) ConstAnchor() diag.Anchor {
	if !e.ConstSpan.IsZero() {
		return diag.At(e.ConstSpan)
	}
	return diag.At(e.Span)
}

// IsNegated reports an operand of unary minus.
func (e *Expr) IsNegated() bool {
	return e.Parent != nil && e.Parent.Kind == ExprUnary && e.Parent.Value == "-"
}

// IsCall reports constructor or function calls.
func (e *Expr) IsCall() bool {
	return e.Kind == ExprNew || e.Kind == ExprCall
}

// Children returns the direct subexpressions in source order.
// Lambda bodies are not included; use WalkStmts on Lambda.Body.
func (e *Expr) Children() []*Expr {
	if e.Receiver == nil {
		return e.Args
	}
	out := make([]*Expr, 0, len(e.Args)+1)
	out = append(out, e.Receiver)
	return append(out, e.Args...)
}

type StmtKind uint8

const (
	StmtOther StmtKind = iota
	StmtExpr
	StmtReturn
	StmtVar
	StmtIf
	StmtLoop
	StmtTry
)

var stmtKindNames = [...]string{
	StmtOther:  "other",
	StmtExpr:   "expr",
	StmtReturn: "return",
	StmtVar:    "var",
	StmtIf:     "if",
	StmtLoop:   "loop",
	StmtTry:    "try",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "other"
}

// Stmt is a statement of a function, constructor or lambda body.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	// Expr is the expression value, the returned value or the condition.
	Expr *Expr
	Var  *Decl
	Body []*Stmt
	Else []*Stmt
}

func (s *Stmt) Anchor() diag.Anchor { return diag.At(s.Span) }

// WalkStmts visits statements depth-first in source order, descending into
// nested blocks but not into lambdas. Returning false from fn skips the children.
func WalkStmts(stmts []*Stmt, fn func(*Stmt) bool) {
	for _, s := range stmts {
		if s == nil || !fn(s) {
			continue
		}
		WalkStmts(s.Body, fn)
		WalkStmts(s.Else, fn)
	}
}

// WalkExpr visits e and its subexpressions pre-order, not entering lambdas.
func WalkExpr(e *Expr, fn func(*Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range e.Children() {
		WalkExpr(c, fn)
	}
}

// Returns collects every return statement of a body, nested blocks included.
func Returns(body []*Stmt) []*Stmt {
	var out []*Stmt
	WalkStmts(body, func(s *Stmt) bool {
		if s.Kind == StmtReturn {
			out = append(out, s)
		}
		return true
	})
	return out
}
