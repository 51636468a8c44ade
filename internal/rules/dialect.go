package rules

import (
	"slices"

	"dotgate/internal/diag"
	"dotgate/internal/tree"
)

// setOperator returns the value parameter of an `operator fun set(index, value)`.
func setOperator(d *tree.Decl) (*tree.Decl, bool) {
	if d.Kind != tree.DeclFunction || !d.Has(tree.ModOperator) || d.Name != "set" || len(d.Params) != 2 {
		return nil, false
	}
	return d.Params[1], true
}

var setOperatorReturnType = DeclRule{
	Name:    "set-operator-return-type",
	Kinds:   []tree.DeclKind{tree.DeclFunction},
	Reports: reports(diag.WrongSetOperatorReturnType),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		value, ok := setOperator(d)
		if !ok || value.Type == nil {
			return nil
		}
		ret := d.Type
		if ret == nil {
			ret = &tree.Type{Name: "Unit"}
		}
		if ret.Equal(value.Type) {
			return nil
		}
		return []diag.Diagnostic{diag.WrongSetOperatorReturnType.On(d.Anchor(), value.Type.Rendered())}
	},
}

var setOperatorReturn = DeclRule{
	Name:    "set-operator-return",
	Kinds:   []tree.DeclKind{tree.DeclFunction},
	Reports: reports(diag.WrongSetOperatorReturn),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		value, ok := setOperator(d)
		if !ok {
			return nil
		}
		for _, ret := range tree.Returns(d.Body) {
			if ret.Expr != nil && ret.Expr.Kind == tree.ExprRef && ret.Expr.Ref == value {
				continue
			}
			return []diag.Diagnostic{diag.WrongSetOperatorReturn.On(d.Anchor(), diag.DeclName(value.Name))}
		}
		return nil
	},
}

var specialInheritanceConstructor = ExprRule{
	Name:    "special-inheritance-constructor",
	Kinds:   []tree.ExprKind{tree.ExprNew},
	Reports: reports(diag.SpecialInheritanceConstructorMisuse),
	Check: func(ctx *Context, e *tree.Expr) []diag.Diagnostic {
		if e.SuperCall || e.Callee == nil || !e.Callee.IsSpecialInheritanceConstructor() {
			return nil
		}
		return []diag.Diagnostic{diag.SpecialInheritanceConstructorMisuse.On(e.Anchor())}
	},
}

// Members every Dart object already has.
var objectMembers = map[string]int{"equals": 1, "hashCode": 0, "toString": 0}

// implicitInterfaceOverride: a class implementing a Dart class as an implicit
// interface must declare every member of that class itself, Dart does not
// inherit the implementations.
var implicitInterfaceOverride = DeclRule{
	Name:    "implicit-interface-override",
	Kinds:   []tree.DeclKind{tree.DeclClass},
	Reports: reports(diag.ImplicitInterfaceMemberNotImplemented),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		if d.Has(tree.ModInterface) || d.Has(tree.ModAbstract) {
			return nil
		}
		ifaces := implicitInterfaces(d, map[*tree.Decl]bool{})
		var out []diag.Diagnostic
		for _, iface := range ifaces {
			for _, m := range iface.Members {
				if !interfaceMember(m) || implements(d, m, ifaces, map[*tree.Decl]bool{}) {
					continue
				}
				out = append(out, diag.ImplicitInterfaceMemberNotImplemented.On(d.Anchor(), d.Describe(), m.Describe()))
			}
		}
		return out
	},
}

// implicitInterfaces collects the classes c and its supertypes implement
// through a special inheritance constructor called with Interface.
func implicitInterfaces(c *tree.Decl, seen map[*tree.Decl]bool) []*tree.Decl {
	if seen[c] {
		return nil
	}
	seen[c] = true
	var out []*tree.Decl
	add := func(iface *tree.Decl) {
		if iface != nil && !slices.Contains(out, iface) {
			out = append(out, iface)
		}
	}
	for _, call := range c.SuperCalls {
		add(implicitInterface(call))
	}
	for _, st := range c.Supertypes {
		if st.Decl == nil {
			continue
		}
		for _, iface := range implicitInterfaces(st.Decl, seen) {
			add(iface)
		}
	}
	return out
}

func implicitInterface(call *tree.Expr) *tree.Decl {
	if call.Callee == nil || !call.Callee.IsSpecialInheritanceConstructor() || len(call.Args) != 1 {
		return nil
	}
	arg := call.Args[0]
	if arg.Kind != tree.ExprRef || arg.Ref == nil || arg.Ref.Name != "Interface" {
		return nil
	}
	return call.Callee.OwnerClass()
}

func interfaceMember(m *tree.Decl) bool {
	switch m.Kind {
	case tree.DeclProperty:
		return !m.Has(tree.ModPrivate)
	case tree.DeclFunction:
		if n, ok := objectMembers[m.Name]; ok && len(m.Params) == n {
			return false
		}
		return !m.Has(tree.ModPrivate)
	}
	return false
}

// implements reports whether c, or a superclass that is not itself one of
// the implicit interfaces, declares a member overriding m.
func implements(c, m *tree.Decl, ifaces []*tree.Decl, seen map[*tree.Decl]bool) bool {
	if seen[c] || slices.Contains(ifaces, c) {
		return false
	}
	seen[c] = true
	for _, own := range c.Members {
		if overridesMember(own, m) {
			return true
		}
	}
	for _, st := range c.Supertypes {
		if st.Decl != nil && implements(st.Decl, m, ifaces, seen) {
			return true
		}
	}
	return false
}

func overridesMember(d, m *tree.Decl) bool {
	seen := map[*tree.Decl]bool{d: true}
	queue := slices.Clone(d.Overrides)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == m {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		queue = append(queue, cur.Overrides...)
	}
	return false
}

// Kotlin's iterator protocol. Dart iterators use moveNext() and current.
var kotlinIteratorMethods = map[string]bool{"hasNext": true, "next": true}

var iteratorOperator = ExprRule{
	Name:    "iterator-operator",
	Kinds:   []tree.ExprKind{tree.ExprCall},
	Reports: reports(diag.KotlinIteratorMethodUsage),
	Check: func(ctx *Context, e *tree.Expr) []diag.Diagnostic {
		fn := e.Callee
		if fn == nil || fn.Kind != tree.DeclFunction || !kotlinIteratorMethods[fn.Name] {
			return nil
		}
		if !fn.Has(tree.ModOperator) && !onIterator(fn, e) {
			return nil
		}
		return []diag.Diagnostic{diag.KotlinIteratorMethodUsage.On(e.Anchor())}
	},
}

func onIterator(fn *tree.Decl, call *tree.Expr) bool {
	if call.Receiver != nil && isIteratorType(call.Receiver.Type, map[*tree.Decl]bool{}) {
		return true
	}
	if owner := fn.OwnerClass(); owner != nil {
		return isIteratorClass(owner, map[*tree.Decl]bool{})
	}
	return false
}

func isIteratorType(t *tree.Type, seen map[*tree.Decl]bool) bool {
	if t == nil {
		return false
	}
	if t.Name == "Iterator" || t.Name == "MutableIterator" {
		return true
	}
	return t.Decl != nil && isIteratorClass(t.Decl, seen)
}

func isIteratorClass(c *tree.Decl, seen map[*tree.Decl]bool) bool {
	if seen[c] {
		return false
	}
	seen[c] = true
	if c.Name == "Iterator" || c.Name == "MutableIterator" {
		return true
	}
	for _, st := range c.Supertypes {
		if isIteratorType(st, seen) {
			return true
		}
	}
	return false
}

var unnecessaryReified = DeclRule{
	Name:    "unnecessary-reified",
	Kinds:   []tree.DeclKind{tree.DeclTypeParameter},
	Reports: reports(diag.UnnecessaryReified),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		if !d.Has(tree.ModReified) {
			return nil
		}
		out := diag.UnnecessaryReified.On(d.ModifierAnchor(tree.ModReified))
		if sp, ok := d.ModSpans[tree.ModReified]; ok && !sp.IsZero() {
			out = out.WithFix("Remove reified", diag.FixEdit{Span: sp})
		}
		return []diag.Diagnostic{out}
	},
}

var enumShape = DeclRule{
	Name:    "enum-shape",
	Kinds:   []tree.DeclKind{tree.DeclClass},
	Reports: reports(diag.VarInEnum, diag.DuplicateEnumMemberName),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		if !d.Has(tree.ModEnum) {
			return nil
		}
		var (
			out         []diag.Diagnostic
			entryBodies []*tree.Decl
		)
		for _, m := range d.Members {
			switch {
			case m.Kind == tree.DeclProperty && m.Has(tree.ModVar):
				out = append(out, diag.VarInEnum.On(m.Anchor()))
			case m.Kind == tree.DeclEnumEntry:
				for _, em := range m.Members {
					if ownFunctionOrProperty(em) {
						entryBodies = append(entryBodies, em)
					}
				}
			}
		}

		count := make(map[string]int, len(entryBodies))
		names := make([]string, len(entryBodies))
		for i, em := range entryBodies {
			name, ok := ctx.Names.Name(em)
			if !ok {
				continue
			}
			names[i] = name
			count[name]++
		}
		for i, em := range entryBodies {
			if names[i] != "" && count[names[i]] > 1 {
				out = append(out, diag.DuplicateEnumMemberName.On(em.Anchor()))
			}
		}
		return out
	},
}

func ownFunctionOrProperty(d *tree.Decl) bool {
	if d.Kind != tree.DeclFunction && d.Kind != tree.DeclProperty {
		return false
	}
	return len(d.Overrides) == 0 && !d.Has(tree.ModOverride)
}
