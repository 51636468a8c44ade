package consteval

import (
	"dotgate/internal/diag"
	"dotgate/internal/tree"
)

// maxInlineDepth bounds nested const inline call expansion.
const maxInlineDepth = 32

type propState uint8

const (
	propUnvisited propState = iota
	propVisiting
	propDone
)

type result struct {
	v     Value
	diags []diag.Diagnostic
}

// Evaluator folds expressions in const contexts. One evaluator serves one
// verification pass; results are memoized per expression.
type Evaluator struct {
	memo      map[*tree.Expr]result
	propState map[*tree.Decl]propState
	props     map[*tree.Decl]Value
}

func New() *Evaluator {
	return &Evaluator{
		memo:      make(map[*tree.Expr]result),
		propState: make(map[*tree.Decl]propState),
		props:     make(map[*tree.Decl]Value),
	}
}

// Scope binds the parameters and const locals of a const inline function
// while one of its calls is folded. A nil scope evaluates the expression in
// its declaration context, where such parameters are Symbolic.
type Scope struct {
	fn    *tree.Decl
	vars  map[*tree.Decl]Value
	depth int
}

func (s *Scope) lookup(d *tree.Decl) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	v, ok := s.vars[d]
	return v, ok
}

func (s *Scope) level() int {
	if s == nil {
		return 0
	}
	return s.depth
}

// Evaluate folds e. The diagnostics describe failures located inside e:
// forbidden literals, misplaced @const, non-const calls marked @const and
// lambdas capturing local state. A NotConst result with Reported unset has
// no diagnostic yet; the caller decides which context error applies.
func (ev *Evaluator) Evaluate(e *tree.Expr, sc *Scope) (Value, []diag.Diagnostic) {
	if e == nil {
		return notConst("missing expression"), nil
	}
	if sc == nil {
		if r, ok := ev.memo[e]; ok {
			return r.v, r.diags
		}
	}
	f := &frame{ev: ev}
	v := f.eval(e, sc)
	if sc == nil {
		ev.memo[e] = result{v: v, diags: f.diags}
	}
	return v, f.diags
}

// IsConst reports whether e folds in its declaration context.
func (ev *Evaluator) IsConst(e *tree.Expr) bool {
	v, _ := ev.Evaluate(e, nil)
	return v.IsConst()
}

// Property folds the initializer of a const property or const local.
func (ev *Evaluator) Property(d *tree.Decl) Value {
	switch ev.propState[d] {
	case propDone:
		return ev.props[d]
	case propVisiting:
		return notConst("cyclic const evaluation of " + d.Name)
	}
	ev.propState[d] = propVisiting
	v, _ := ev.Evaluate(d.Init, nil)
	ev.props[d] = v
	ev.propState[d] = propDone
	return v
}

type frame struct {
	ev    *Evaluator
	diags []diag.Diagnostic
}

func (f *frame) report(d diag.Diagnostic) {
	f.diags = append(f.diags, d)
}

// silent evaluates in a frame whose diagnostics belong to another declaration.
func (f *frame) silent(e *tree.Expr, sc *Scope) Value {
	sub := &frame{ev: f.ev}
	v := sub.eval(e, sc)
	v.Reported = false
	return v
}

func (f *frame) eval(e *tree.Expr, sc *Scope) Value {
	if e == nil {
		return notConst("missing expression")
	}
	if e.Const && !e.IsCall() {
		f.report(diag.OnlyConstructorCallsCanBeConst.On(e.ConstAnchor()))
		v := f.evalKind(e, sc)
		if !v.IsConst() {
			v.Reported = true
		}
		return v
	}
	return f.evalKind(e, sc)
}

func (f *frame) evalKind(e *tree.Expr, sc *Scope) Value {
	switch e.Kind {
	case tree.ExprLiteral:
		v, d := CheckLiteral(e)
		if d != nil {
			f.report(*d)
		}
		return v
	case tree.ExprNew:
		return f.construct(e, sc)
	case tree.ExprCall:
		return f.call(e, sc)
	case tree.ExprRef:
		return f.ref(e, sc)
	case tree.ExprLambda:
		return f.lambda(e)
	case tree.ExprUnary:
		if len(e.Args) != 1 {
			return notConst("malformed unary expression")
		}
		return unary(e.Value, f.eval(e.Args[0], sc))
	case tree.ExprBinary:
		if len(e.Args) != 2 {
			return notConst("malformed binary expression")
		}
		lhs := f.eval(e.Args[0], sc)
		rhs := f.eval(e.Args[1], sc)
		return binary(e.Value, lhs, rhs)
	case tree.ExprTemplate:
		return f.template(e, sc)
	}
	return notConst("expression is not constant")
}

// args evaluates call arguments left to right, returning the first failure.
func (f *frame) args(e *tree.Expr, sc *Scope) ([]Value, Value) {
	vals := make([]Value, 0, len(e.Args))
	failed := Value{Kind: Null}
	for _, a := range e.Args {
		v := f.eval(a, sc)
		failed = worst(failed, v)
		vals = append(vals, v)
	}
	return vals, failed
}

func (f *frame) construct(e *tree.Expr, sc *Scope) Value {
	ctor := e.Callee
	vals, failed := f.args(e, sc)
	if ctor == nil {
		return notConst("unresolved constructor call")
	}
	if !ctor.IsConstCapable() {
		if e.Const {
			f.report(diag.ConstWithNonConst.On(e.Anchor(), "constructor"))
			return reported("constructor is not const")
		}
		return notConst("constructor of " + ownerName(ctor) + " is not const")
	}
	if !failed.IsConst() {
		if !failed.Reported && e.Const {
			f.report(diag.ConstWithNonConst.On(e.Anchor(), "constructor"))
			return reported("non-const argument")
		}
		return failed
	}
	for i := len(vals); i < len(ctor.Params); i++ {
		p := ctor.Params[i]
		if p.Init == nil {
			return notConst("missing argument for " + p.Name)
		}
		dv := f.silent(p.Init, nil)
		if !dv.IsConst() {
			return notConst("default value of " + p.Name + " is not constant")
		}
		vals = append(vals, dv)
	}
	return Value{Kind: Object, Decl: ctor, Fields: vals}
}

func (f *frame) call(e *tree.Expr, sc *Scope) Value {
	fn := e.Callee
	if fn != nil && fn.Kind == tree.DeclConstructor {
		return f.construct(e, sc)
	}
	vals, failed := f.args(e, sc)
	if fn == nil {
		return notConst("unresolved call")
	}
	if !constFunction(fn) {
		if e.Const {
			f.report(diag.ConstWithNonConst.On(e.Anchor(), "function"))
			return reported("function is not const")
		}
		return notConst("call to non-const function " + fn.Name)
	}
	if !failed.IsConst() {
		if !failed.Reported && e.Const {
			f.report(diag.ConstWithNonConst.On(e.Anchor(), "function"))
			return reported("non-const argument")
		}
		return failed
	}
	if !fn.IsConstInline() {
		// @DartConstructor factories have no body to fold.
		return Value{Kind: Object, Decl: fn, Fields: vals}
	}
	return f.inline(fn, vals, sc)
}

func constFunction(fn *tree.Decl) bool {
	if fn.IsConstInline() {
		return true
	}
	_, ok := fn.Annotation(tree.AnnDartConstructor)
	return ok && fn.Has(tree.ModConst)
}

// inline folds a const inline call by binding arguments and evaluating the
// single returned expression of the callee.
func (f *frame) inline(fn *tree.Decl, args []Value, sc *Scope) Value {
	depth := sc.level() + 1
	if depth > maxInlineDepth {
		return notConst("const inline expansion of " + fn.Name + " is too deep")
	}
	ret := singleReturn(fn)
	if ret == nil || ret.Expr == nil {
		return notConst(fn.Name + " does not return a single value")
	}
	callee := &Scope{fn: fn, vars: make(map[*tree.Decl]Value, len(fn.Params)), depth: depth}
	for i, p := range fn.Params {
		if i < len(args) {
			callee.vars[p] = args[i]
			continue
		}
		if p.Init == nil {
			return notConst("missing argument for " + p.Name)
		}
		callee.vars[p] = f.silent(p.Init, callee)
	}
	v := f.silent(ret.Expr, callee)
	if !v.IsConst() {
		return notConst("call to " + fn.Name + " does not fold: " + v.Reason)
	}
	return v
}

func singleReturn(fn *tree.Decl) *tree.Stmt {
	returns := tree.Returns(fn.Body)
	if len(returns) != 1 {
		return nil
	}
	return returns[0]
}

func (f *frame) ref(e *tree.Expr, sc *Scope) Value {
	d := e.Ref
	if d == nil {
		return notConst("unresolved reference")
	}
	if v, ok := sc.lookup(d); ok {
		return v
	}
	switch d.Kind {
	case tree.DeclEnumEntry:
		return Value{Kind: EnumEntry, Decl: d}
	case tree.DeclParameter:
		if d.Parent != nil && d.Parent.IsConstInline() {
			if sc != nil && sc.fn == d.Parent {
				return notConst("parameter " + d.Name + " is unbound")
			}
			return Value{Kind: Symbolic, Decl: d}
		}
		return notConst("parameter " + d.Name + " is not constant")
	case tree.DeclProperty, tree.DeclVariable:
		if !d.Has(tree.ModConst) {
			return notConst(d.Name + " is not const")
		}
		if sc != nil && d.Kind == tree.DeclVariable && d.EnclosingCallable() == sc.fn {
			v := f.silent(d.Init, sc)
			sc.vars[d] = v
			return v
		}
		v := f.ev.Property(d)
		if !v.IsConst() {
			return notConst(d.Name + " is not constant: " + v.Reason)
		}
		return v
	case tree.DeclFunction:
		if d.IsStaticLike() {
			return Value{Kind: Function, Decl: d}
		}
	}
	return notConst("reference to " + d.Name + " is not constant")
}

func (f *frame) template(e *tree.Expr, sc *Scope) Value {
	out := Value{Kind: String}
	failed := Value{Kind: Null}
	var buf []byte
	for _, part := range e.Args {
		v := f.eval(part, sc)
		switch {
		case !v.IsConst():
			failed = worst(failed, v)
		case v.Kind == Symbolic:
			out.Kind = Symbolic
		case v.Kind == Object || v.Kind == Function:
			failed = worst(failed, notConst("template part has no constant text"))
		default:
			buf = append(buf, v.text()...)
		}
	}
	if !failed.IsConst() {
		return failed
	}
	if out.Kind == String {
		out.Str = string(buf)
	}
	return out
}

func ownerName(d *tree.Decl) string {
	if owner := d.OwnerClass(); owner != nil {
		return owner.Name
	}
	return d.Name
}
