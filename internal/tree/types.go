package tree

import (
	"fmt"
	"strings"

	"dotgate/internal/diag"
)

// Type is a resolved Kotlin type reference.
type Type struct {
	Name     string
	Nullable bool
	Args     []*Type
	// Decl is the resolved class, when the type names one from this unit or its externals.
	Decl *Decl
}

func (t *Type) String() string {
	if t == nil {
		return "<unknown>"
	}
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Type) write(b *strings.Builder) {
	b.WriteString(t.Name)
	if len(t.Args) > 0 {
		b.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.write(b)
		}
		b.WriteByte('>')
	}
	if t.Nullable {
		b.WriteByte('?')
	}
}

// Rendered is the diagnostic argument form of the type.
func (t *Type) Rendered() diag.TypeName {
	return diag.TypeName(t.String())
}

// Is reports whether t names the given type, ignoring nullability and arguments.
func (t *Type) Is(name string) bool {
	return t != nil && t.Name == name
}

func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Name != o.Name || t.Nullable != o.Nullable || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// SubtypeOf reports whether values of t can be used where class is expected.
// Nullable types are never subtypes of the non-null class type.
func (t *Type) SubtypeOf(class *Decl) bool {
	if t == nil || class == nil || t.Nullable {
		return false
	}
	if t.Decl == class || (t.Decl == nil && t.Name == class.Name) {
		return true
	}
	if t.Decl == nil {
		return false
	}
	return classExtends(t.Decl, class, map[*Decl]bool{})
}

func classExtends(c, target *Decl, seen map[*Decl]bool) bool {
	if c == target {
		return true
	}
	if seen[c] {
		return false
	}
	seen[c] = true
	for _, st := range c.Supertypes {
		if st.Decl == target || (st.Decl == nil && st.Name == target.Name) {
			return true
		}
		if st.Decl != nil && classExtends(st.Decl, target, seen) {
			return true
		}
	}
	return false
}

// ParseType parses the shorthand used by unit files: "Map<String, List<Int>>?".
func ParseType(s string) (*Type, error) {
	p := typeParser{src: strings.TrimSpace(s)}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, &TypeSyntaxError{Input: s, Offset: p.pos}
	}
	return t, nil
}

// TypeSyntaxError reports a malformed type shorthand.
type TypeSyntaxError struct {
	Input  string
	Offset int
}

func (e *TypeSyntaxError) Error() string {
	return fmt.Sprintf("malformed type %q at offset %d", e.Input, e.Offset)
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) parse() (*Type, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isTypeNameByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return nil, &TypeSyntaxError{Input: p.src, Offset: p.pos}
	}
	t := &Type{Name: p.src[start:p.pos]}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return nil, err
			}
			t.Args = append(t.Args, arg)
			p.skipSpace()
			if p.pos >= len(p.src) {
				return nil, &TypeSyntaxError{Input: p.src, Offset: p.pos}
			}
			if p.src[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.src[p.pos] == '>' {
				p.pos++
				break
			}
			return nil, &TypeSyntaxError{Input: p.src, Offset: p.pos}
		}
		p.skipSpace()
	}
	if p.pos < len(p.src) && p.src[p.pos] == '?' {
		t.Nullable = true
		p.pos++
	}
	return t, nil
}

func isTypeNameByte(c byte) bool {
	return c == '_' || c == '.' || c == '*' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
