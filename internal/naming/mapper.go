// Package naming maps Kotlin declarations to the identifiers they get in
// generated Dart code.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"dotgate/internal/tree"
)

const (
	generatedPrefix = "$"
	privatePrefix   = "_"
	propertySuffix  = "$property"
)

// Mapper computes and memoizes Dart names for one unit. Not safe for
// concurrent use; each verification pass owns its Mapper.
type Mapper struct {
	unit  *tree.Unit
	cache map[*tree.Decl]result
}

type result struct {
	name string
	ok   bool
}

func NewMapper(u *tree.Unit) *Mapper {
	return &Mapper{unit: u, cache: make(map[*tree.Decl]result)}
}

// Name returns the Dart identifier of d. ok is false for declarations
// without a name of their own (unnamed primary constructors, lambdas).
func (m *Mapper) Name(d *tree.Decl) (string, bool) {
	if r, ok := m.cache[d]; ok {
		return r.name, r.ok
	}
	// guard against override cycles in malformed input
	m.cache[d] = result{}
	name, ok := m.compute(d)
	if ok {
		name = norm.NFC.String(name)
	}
	m.cache[d] = result{name: name, ok: ok}
	return name, ok
}

func (m *Mapper) compute(d *tree.Decl) (string, bool) {
	switch d.Kind {
	case tree.DeclLambda:
		return "", false
	case tree.DeclParameter, tree.DeclVariable, tree.DeclTypeParameter:
		return d.Name, d.Name != ""
	}

	// Overriding members always use the name of the member they override.
	if len(d.Overrides) > 0 {
		if root := d.Root(); root != d {
			return m.Name(root)
		}
	}

	annotated := ""
	if a, ok := d.Annotation(tree.AnnDartName); ok && a.Value != "" {
		annotated = a.Value
	}

	name := annotated
	if name == "" {
		switch {
		case d.Kind == tree.DeclFunction && d.Has(tree.ModOperator) && d.Name == "invoke":
			name = "call"
		case d.Kind == tree.DeclConstructor:
			if d.Has(tree.ModPrimary) {
				if d.Has(tree.ModPrivate) {
					return privatePrefix, true
				}
				return "", false
			}
			name = generatedPrefix + "constructor" + generatedPrefix + strconv.Itoa(m.constructorIndex(d))
		default:
			name = d.Name
		}
	}
	if name == "" {
		return "", false
	}

	if annotated == "" && d.Kind == tree.DeclFunction && m.isOverload(d) {
		name += generatedPrefix + SignatureHash(d)
	}

	if annotated == "" && d.Kind == tree.DeclClass {
		if outer := d.OwnerClass(); outer != nil {
			if outerName, ok := m.Name(outer); ok {
				name = outerName + generatedPrefix + name
			}
		}
	}

	switch {
	case d.Has(tree.ModPrivate) && !strings.HasPrefix(name, privatePrefix):
		name = privatePrefix + name
	case !d.Has(tree.ModPrivate) && strings.HasPrefix(name, privatePrefix):
		name = strings.TrimLeft(name, privatePrefix)
	}

	if d.Kind == tree.DeclProperty && m.clashesWithFunction(d, name) {
		name += propertySuffix
	}

	// must stay last
	if (d.Kind == tree.DeclClass && IsBuiltIn(name)) || IsReserved(name) {
		name = generatedPrefix + name
	}
	return name, true
}

// Siblings returns the declarations sharing d's naming scope: the members of
// its class, or the top-level declarations of the unit.
func (m *Mapper) Siblings(d *tree.Decl) []*tree.Decl {
	if d.Parent == nil {
		return m.unit.Decls
	}
	if d.Parent.Kind == tree.DeclClass {
		return d.Parent.Members
	}
	return nil
}

func (m *Mapper) constructorIndex(d *tree.Decl) int {
	idx := 0
	for _, s := range m.Siblings(d) {
		if s == d {
			return idx
		}
		if s.Kind == tree.DeclConstructor {
			idx++
		}
	}
	return idx
}

// isOverload reports a function preceded by a same-named sibling function.
func (m *Mapper) isOverload(d *tree.Decl) bool {
	for _, s := range m.Siblings(d) {
		if s == d {
			return false
		}
		if s.Kind == tree.DeclFunction && s.Name == d.Name {
			return true
		}
	}
	return false
}

func (m *Mapper) clashesWithFunction(d *tree.Decl, name string) bool {
	for _, s := range m.Siblings(d) {
		if s == d || s.Kind != tree.DeclFunction {
			continue
		}
		if sn, ok := m.Name(s); ok && sn == name {
			return true
		}
	}
	return false
}

// SignatureHash is the stable hex suffix distinguishing overloads.
func SignatureHash(d *tree.Decl) string {
	var b strings.Builder
	if d.Receiver != nil {
		b.WriteString(d.Receiver.String())
		b.WriteByte('.')
	}
	b.WriteString(d.Name)
	b.WriteByte('(')
	for i, p := range d.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Type.String())
	}
	b.WriteByte(')')
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:4])
}
