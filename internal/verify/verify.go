// Package verify runs the rule catalog over one resolved unit and decides
// whether the unit may proceed to lowering.
package verify

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"dotgate/internal/diag"
	"dotgate/internal/interop"
	"dotgate/internal/observ"
	"dotgate/internal/rules"
	"dotgate/internal/trace"
	"dotgate/internal/tree"
)

// Options configures a verification pass.
type Options struct {
	// Catalog defaults to rules.Default().
	Catalog *rules.Catalog
	// Publishable enables the checks for packages consumed by other Dart packages.
	Publishable bool
	// MaxDiagnostics caps the stored diagnostics; <= 0 keeps all. Errors past
	// the cap still close the gate.
	MaxDiagnostics int
}

// Result is the outcome of one pass.
type Result struct {
	Unit    string
	Bag     *diag.Bag
	Proceed bool
	// Metadata holds the interop signatures of every callable that passed the
	// interop checks, in document order.
	Metadata []interop.Signature
	Timing   observ.Report
}

// CatalogError is the panic value raised when a rule emits a diagnostic its
// catalog entry does not declare. It signals a bug in the rule, never in the
// verified code.
type CatalogError struct {
	Rule string
	Code diag.Code
	// Registered is false for codes missing from the identity registry.
	Registered bool
}

func (e *CatalogError) Error() string {
	if !e.Registered {
		return fmt.Sprintf("verify: rule %s reported unregistered code %d", e.Rule, e.Code)
	}
	return fmt.Sprintf("verify: rule %s reported %s without declaring it", e.Rule, e.Code.Name())
}

// Verify checks u in one depth-first traversal. Diagnostics appear in
// document order; identical findings from different rules are kept once.
func Verify(ctx context.Context, u *tree.Unit, opts Options) *Result {
	diag.Seal()
	cat := opts.Catalog
	if cat == nil {
		cat = rules.Default()
	}

	if trace.CurrentSpan(ctx).Unit == "" {
		ctx = trace.ForUnit(ctx, u.Path)
	}
	ctx, span := trace.Start(ctx, trace.ScopeUnit, "verify")
	timer := observ.NewTimer()
	bag := diag.NewBag(opts.MaxDiagnostics)
	p := &pass{
		ctx:  rules.NewContext(u, opts.Publishable),
		cat:  cat,
		out:  diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
		tctx: ctx,
	}

	phase := timer.Begin("unit-rules")
	for i := range cat.Units {
		r := &cat.Units[i]
		p.emit(r.Name, r.Reports, r.Check(p.ctx))
	}
	timer.End(phase, "")

	phase = timer.Begin("traverse")
	tree.Walk(u, p)
	timer.End(phase, strconv.Itoa(u.DeclCount())+" decls, "+strconv.Itoa(u.ExprCount())+" exprs")

	res := &Result{
		Unit:     u.Path,
		Bag:      bag,
		Proceed:  !bag.HasErrors(),
		Metadata: p.metadata,
		Timing:   timer.Report(),
	}
	span.Attr("errors", strconv.Itoa(bag.ErrorCount())).
		Attr("warnings", strconv.Itoa(bag.WarningCount()))
	span.End(gateDetail(res.Proceed))
	return res
}

func gateDetail(proceed bool) string {
	if proceed {
		return "proceed"
	}
	return "blocked"
}

type pass struct {
	ctx      *rules.Context
	cat      *rules.Catalog
	out      diag.Reporter
	tctx     context.Context // unit trace span; rule marks hang under it
	metadata []interop.Signature
}

func (p *pass) VisitDecl(d *tree.Decl) {
	for i := range p.cat.Decls {
		r := &p.cat.Decls[i]
		if r.Applies(d) {
			p.emit(r.Name, r.Reports, r.Check(p.ctx, d))
		}
	}
	if sig, ok := interop.Collect(d); ok {
		p.metadata = append(p.metadata, sig)
	}
}

func (p *pass) VisitExpr(e *tree.Expr) {
	for i := range p.cat.Exprs {
		r := &p.cat.Exprs[i]
		if r.Applies(e) {
			p.emit(r.Name, r.Reports, r.Check(p.ctx, e))
		}
	}
}

func (p *pass) emit(rule string, declared []diag.Identified, ds []diag.Diagnostic) {
	for _, d := range ds {
		if _, ok := d.Identity(); !ok {
			panic(&CatalogError{Rule: rule, Code: d.Code})
		}
		if !slices.ContainsFunc(declared, d.Is) {
			panic(&CatalogError{Rule: rule, Code: d.Code, Registered: true})
		}
		p.out.Report(d)
	}
	if len(ds) > 0 {
		trace.Mark(p.tctx, trace.ScopeRule, rule, ds[0].Code.ID())
	}
}
