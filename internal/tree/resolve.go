package tree

// resolve binds symbol references once the whole unit has been built and linked.
func (b *builder) resolve(u *Unit) error {
	for _, p := range b.overrides {
		for _, key := range p.raw.Overrides {
			target, err := b.lookupSymbol(key)
			if err != nil {
				return b.errorf("%s overrides %v", p.decl.Symbol, err)
			}
			p.decl.Overrides = append(p.decl.Overrides, target)
		}
	}

	for _, t := range b.types {
		if c := b.classByName(t.Name); c != nil {
			t.Decl = c
		}
	}

	for _, p := range b.exprs {
		e := p.expr
		if p.raw.Ref != "" {
			target, err := b.lookupName(u, p.raw.Ref, e.Owner)
			if err != nil {
				return err
			}
			e.Ref = target
		}
		if p.raw.Callee != "" {
			target, err := b.lookupName(u, p.raw.Callee, e.Owner)
			if err != nil {
				return err
			}
			if target.Kind == DeclClass {
				ctor, err := b.pickConstructor(target, len(e.Args))
				if err != nil {
					return err
				}
				target = ctor
			}
			if target.Kind == DeclConstructor {
				e.Kind = ExprNew
			}
			e.Callee = target
		}
	}
	return nil
}

func (b *builder) lookupSymbol(key string) (*Decl, error) {
	switch found := b.symbols[key]; len(found) {
	case 0:
		return nil, b.errorf("unresolved symbol %q", key)
	case 1:
		return found[0], nil
	default:
		return nil, b.errorf("ambiguous symbol %q (%d declarations), set an explicit symbol", key, len(found))
	}
}

// lookupName resolves a name lexically from scope outwards, then as a symbol key.
func (b *builder) lookupName(u *Unit, name string, scope *Decl) (*Decl, error) {
	for s := scope; s != nil; s = s.Parent {
		found := scopeNamed(s, name)
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], nil
		default:
			return nil, b.errorf("ambiguous reference %q in %s, use a symbol key", name, s.Symbol)
		}
	}
	for _, top := range [][]*Decl{u.Decls, u.Externals} {
		var found []*Decl
		for _, d := range top {
			if d.Name == name {
				found = append(found, d)
			}
		}
		if len(found) == 1 {
			return found[0], nil
		}
		if len(found) > 1 {
			return nil, b.errorf("ambiguous reference %q at top level, use a symbol key", name)
		}
	}
	return b.lookupSymbol(name)
}

func scopeNamed(s *Decl, name string) []*Decl {
	var found []*Decl
	add := func(ds []*Decl) {
		for _, d := range ds {
			if d.Name == name {
				found = append(found, d)
			}
		}
	}
	add(s.Params)
	add(s.TypeParams)
	add(s.Members)
	WalkStmts(s.Body, func(st *Stmt) bool {
		if st.Var != nil && st.Var.Name == name {
			found = append(found, st.Var)
		}
		return true
	})
	return found
}

func (b *builder) pickConstructor(class *Decl, argc int) (*Decl, error) {
	var ctors, arity []*Decl
	for _, m := range class.Members {
		if m.Kind != DeclConstructor {
			continue
		}
		ctors = append(ctors, m)
		if len(m.Params) == argc {
			arity = append(arity, m)
		}
	}
	switch {
	case len(ctors) == 1:
		return ctors[0], nil
	case len(arity) == 1:
		return arity[0], nil
	case len(ctors) == 0:
		return nil, b.errorf("class %s has no constructor", class.Symbol)
	}
	return nil, b.errorf("ambiguous constructor of %s, use a symbol key", class.Symbol)
}

func (b *builder) classByName(name string) *Decl {
	var found *Decl
	for _, c := range b.classes {
		if c.Name == name || c.Symbol == name {
			if found != nil {
				return nil
			}
			found = c
		}
	}
	return found
}
