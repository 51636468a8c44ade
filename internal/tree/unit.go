package tree

import (
	"dotgate/internal/source"
)

// Import is one import directive of the unit.
type Import struct {
	Path  string
	Alias string
	// Target is the symbol key of the imported declaration when the provider
	// resolved it; re-exports of one declaration share a Target.
	Target string
	Span   source.Span
}

// Unit is one resolved compilation unit.
type Unit struct {
	Path    string
	File    source.FileID
	Package string
	Imports []Import
	Decls   []*Decl
	// Externals are declarations from dependencies. They resolve references
	// and overrides but are never verified.
	Externals []*Decl

	declCount int
	exprCount int
}

// DeclCount and ExprCount are valid after Link.
func (u *Unit) DeclCount() int { return u.declCount }
func (u *Unit) ExprCount() int { return u.exprCount }

// Visitor receives every node of a unit in document order.
type Visitor interface {
	VisitDecl(d *Decl)
	VisitExpr(e *Expr)
}

// Walk traverses the unit depth-first, pre-order: a declaration before its
// type parameters, parameters, supertype calls, initializer, body and members.
func Walk(u *Unit, v Visitor) {
	for _, d := range u.Decls {
		walkDecl(d, v)
	}
}

func walkDecl(d *Decl, v Visitor) {
	if d == nil {
		return
	}
	v.VisitDecl(d)
	for _, tp := range d.TypeParams {
		walkDecl(tp, v)
	}
	for _, p := range d.Params {
		walkDecl(p, v)
	}
	for _, sc := range d.SuperCalls {
		walkExpr(sc, v)
	}
	walkExpr(d.Init, v)
	walkStmts(d.Body, v)
	for _, m := range d.Members {
		walkDecl(m, v)
	}
}

func walkStmts(stmts []*Stmt, v Visitor) {
	for _, s := range stmts {
		if s == nil {
			continue
		}
		walkExpr(s.Expr, v)
		walkDecl(s.Var, v)
		walkStmts(s.Body, v)
		walkStmts(s.Else, v)
	}
}

func walkExpr(e *Expr, v Visitor) {
	if e == nil {
		return
	}
	v.VisitExpr(e)
	for _, c := range e.Children() {
		walkExpr(c, v)
	}
	walkDecl(e.Lambda, v)
}

// Link assigns document-order IDs and fills Parent, Owner and SuperCall.
// External declarations get ID -1. Link is idempotent.
func Link(u *Unit) {
	ext := &linker{external: true}
	for _, d := range u.Externals {
		ext.decl(d, nil)
	}
	l := &linker{}
	for _, d := range u.Decls {
		l.decl(d, nil)
	}
	u.declCount = l.nextDecl
	u.exprCount = l.nextExpr
}

type linker struct {
	external bool
	nextDecl int
	nextExpr int
}

func (l *linker) decl(d *Decl, parent *Decl) {
	if d == nil {
		return
	}
	d.Parent = parent
	d.ID = -1
	if !l.external {
		d.ID = l.nextDecl
		l.nextDecl++
	}
	for _, tp := range d.TypeParams {
		l.decl(tp, d)
	}
	for _, p := range d.Params {
		l.decl(p, d)
	}
	for _, sc := range d.SuperCalls {
		l.expr(sc, d, nil)
		sc.SuperCall = true
	}
	l.expr(d.Init, d, nil)
	l.stmts(d.Body, d)
	for _, m := range d.Members {
		l.decl(m, d)
	}
}

func (l *linker) stmts(stmts []*Stmt, owner *Decl) {
	for _, s := range stmts {
		if s == nil {
			continue
		}
		l.expr(s.Expr, owner, nil)
		l.decl(s.Var, owner)
		l.stmts(s.Body, owner)
		l.stmts(s.Else, owner)
	}
}

func (l *linker) expr(e *Expr, owner *Decl, parent *Expr) {
	if e == nil {
		return
	}
	e.Owner = owner
	e.Parent = parent
	e.SuperCall = false
	e.ID = -1
	if !l.external {
		e.ID = l.nextExpr
		l.nextExpr++
	}
	for _, c := range e.Children() {
		l.expr(c, owner, e)
	}
	l.decl(e.Lambda, owner)
}
