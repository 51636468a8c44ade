// Package rules holds the catalog of Dart compatibility checks applied by the
// verification pass. Rules are independent: each sees one node and returns
// the diagnostics it finds. Work shared between visits is memoized on the
// Context.
package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"

	"dotgate/internal/consteval"
	"dotgate/internal/diag"
	"dotgate/internal/naming"
	"dotgate/internal/tree"
)

// Context is the per-pass state rules may read. Names and Eval memoize, so
// a Context belongs to exactly one pass.
type Context struct {
	Unit  *tree.Unit
	Names *naming.Mapper
	Eval  *consteval.Evaluator
	// Publishable marks units of a package distributed to other Dart packages.
	Publishable bool

	clashes map[*tree.Decl]map[*tree.Decl]diag.Diagnostic
}

func NewContext(u *tree.Unit, publishable bool) *Context {
	return &Context{
		Unit:        u,
		Names:       naming.NewMapper(u),
		Eval:        consteval.New(),
		Publishable: publishable,
	}
}

// DeclRule checks one declaration. Empty Kinds matches every kind.
type DeclRule struct {
	Name    string
	Kinds   []tree.DeclKind
	Reports []diag.Identified
	Check   func(ctx *Context, d *tree.Decl) []diag.Diagnostic
}

func (r *DeclRule) Applies(d *tree.Decl) bool {
	return len(r.Kinds) == 0 || slices.Contains(r.Kinds, d.Kind)
}

// ExprRule checks one expression. Empty Kinds matches every kind.
type ExprRule struct {
	Name    string
	Kinds   []tree.ExprKind
	Reports []diag.Identified
	Check   func(ctx *Context, e *tree.Expr) []diag.Diagnostic
}

func (r *ExprRule) Applies(e *tree.Expr) bool {
	return len(r.Kinds) == 0 || slices.Contains(r.Kinds, e.Kind)
}

// UnitRule checks unit-wide properties once per pass, before the traversal.
type UnitRule struct {
	Name    string
	Reports []diag.Identified
	Check   func(ctx *Context) []diag.Diagnostic
}

// Catalog is the ordered set of rules of a pass.
type Catalog struct {
	Units []UnitRule
	Decls []DeclRule
	Exprs []ExprRule
}

// Default returns the full rule catalog in application order.
func Default() *Catalog {
	return &Catalog{
		Units: []UnitRule{
			duplicateImport,
		},
		Decls: []DeclRule{
			nameClash,
			extensionName,
			dartNameOnOverride,
			setOperatorReturnType,
			setOperatorReturn,
			unnecessaryReified,
			numericTypeReference,
			implicitInterfaceOverride,
			enumShape,
			constInitializer,
			constDefaultValue,
			constInlineShape,
			constModifier,
			dartIndex,
			dartDifferentDefaultValue,
			dartConstructor,
		},
		Exprs: []ExprRule{
			specialInheritanceConstructor,
			iteratorOperator,
			constAnnotation,
		},
	}
}

// Names lists rule names in application order. Rules applied at several
// levels appear once.
func (c *Catalog) Names() []string {
	var out []string
	add := func(name string) {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	for _, r := range c.Units {
		add(r.Name)
	}
	for _, r := range c.Decls {
		add(r.Name)
	}
	for _, r := range c.Exprs {
		add(r.Name)
	}
	return out
}

// RulesFor returns the names of the rules that may report id.
func (c *Catalog) RulesFor(id *diag.Identity) []string {
	var out []string
	visit := func(name string, reports []diag.Identified) {
		for _, r := range reports {
			if r.Identity() == id && !slices.Contains(out, name) {
				out = append(out, name)
			}
		}
	}
	for _, r := range c.Units {
		visit(r.Name, r.Reports)
	}
	for _, r := range c.Decls {
		visit(r.Name, r.Reports)
	}
	for _, r := range c.Exprs {
		visit(r.Name, r.Reports)
	}
	return out
}

// Fingerprint identifies the catalog contents together with the identities
// they report. Cached results are only reused under an equal fingerprint.
func (c *Catalog) Fingerprint() string {
	h := sha256.New()
	write := func(name string, reports []diag.Identified) {
		h.Write([]byte(name))
		for _, r := range reports {
			id := r.Identity()
			h.Write([]byte{0})
			h.Write([]byte(strconv.Itoa(int(id.Code()))))
			h.Write([]byte(id.Name()))
			h.Write([]byte(id.Severity().String()))
			h.Write([]byte(id.Template()))
		}
		h.Write([]byte{'\n'})
	}
	for _, r := range c.Units {
		write(r.Name, r.Reports)
	}
	for _, r := range c.Decls {
		write(r.Name, r.Reports)
	}
	for _, r := range c.Exprs {
		write(r.Name, r.Reports)
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// Lists of identities shared by several rules.
var (
	literalReports = []diag.Identified{
		diag.LongReference,
		diag.FloatReference,
		diag.CharReference,
	}
	// evaluationReports are the diagnostics the constant evaluator may emit
	// for any expression it folds.
	evaluationReports = append(slices.Clone(literalReports),
		diag.OnlyConstructorCallsCanBeConst,
		diag.ConstWithNonConst,
		diag.ConstLambdaAccessingNonGlobalValue,
	)
)

func reports(ids ...diag.Identified) []diag.Identified {
	return ids
}

func withEvaluation(ids ...diag.Identified) []diag.Identified {
	return append(ids, evaluationReports...)
}
