package tree

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"dotgate/internal/source"
)

type rawUnit struct {
	Unit      string      `yaml:"unit"`
	Text      *string     `yaml:"text"`
	Package   string      `yaml:"package"`
	Imports   []rawImport `yaml:"imports"`
	Decls     []*rawDecl  `yaml:"decls"`
	Externals []*rawDecl  `yaml:"externals"`
}

type rawImport struct {
	Path   string  `yaml:"path"`
	Alias  string  `yaml:"alias"`
	Target string  `yaml:"target"`
	Span   rawSpan `yaml:"span"`
}

type rawDecl struct {
	Kind          string             `yaml:"kind"`
	Name          string             `yaml:"name"`
	Symbol        string             `yaml:"symbol"`
	Span          rawSpan            `yaml:"span"`
	Sig           rawSpan            `yaml:"sig"`
	NameSpan      rawSpan            `yaml:"name_span"`
	Modifiers     []string           `yaml:"modifiers"`
	ModifierSpans map[string]rawSpan `yaml:"modifier_spans"`
	Type          string             `yaml:"type"`
	Inferred      bool               `yaml:"inferred"`
	TypeSpan      rawSpan            `yaml:"type_span"`
	Receiver      string             `yaml:"receiver"`
	Annotations   []rawAnnotation    `yaml:"annotations"`
	Params        []*rawDecl         `yaml:"params"`
	TypeParams    []*rawDecl         `yaml:"type_params"`
	Members       []*rawDecl         `yaml:"members"`
	Body          []*rawStmt         `yaml:"body"`
	Init          *rawExpr           `yaml:"init"`
	Default       *rawExpr           `yaml:"default"`
	Overrides     []string           `yaml:"overrides"`
	SuperTypes    []string           `yaml:"super_types"`
	SuperCalls    []*rawExpr         `yaml:"super_calls"`
}

type rawAnnotation struct {
	Name  string  `yaml:"name"`
	Value string  `yaml:"value"`
	Index *int    `yaml:"index"`
	Span  rawSpan `yaml:"span"`
}

// UnmarshalYAML accepts "DartConstructor", "DartName=foo", "DartIndex=1" or a mapping.
func (a *rawAnnotation) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		name, arg, hasArg := strings.Cut(strings.TrimPrefix(strings.TrimSpace(value.Value), "@"), "=")
		a.Name = name
		if hasArg {
			a.Value = arg
			if n, err := strconv.Atoi(arg); err == nil {
				a.Index = &n
			}
		}
		return nil
	}
	type plain rawAnnotation
	return value.Decode((*plain)(a))
}

type rawStmt struct {
	Kind  string     `yaml:"kind"`
	Span  rawSpan    `yaml:"span"`
	Value *rawExpr   `yaml:"value"`
	Cond  *rawExpr   `yaml:"cond"`
	Decl  *rawDecl   `yaml:"decl"`
	Body  []*rawStmt `yaml:"body"`
	Else  []*rawStmt `yaml:"else"`
}

type rawExpr struct {
	Kind      string     `yaml:"kind"`
	Span      rawSpan    `yaml:"span"`
	Type      string     `yaml:"type"`
	Lit       string     `yaml:"lit"`
	Value     string     `yaml:"value"`
	Op        string     `yaml:"op"`
	Callee    string     `yaml:"callee"`
	Ref       string     `yaml:"ref"`
	Receiver  *rawExpr   `yaml:"receiver"`
	Args      []*rawExpr `yaml:"args"`
	Parts     []*rawExpr `yaml:"parts"`
	Lambda    *rawDecl   `yaml:"lambda"`
	Const     bool       `yaml:"const"`
	ConstSpan rawSpan    `yaml:"const_span"`
}

// UnmarshalYAML accepts a Kotlin literal as a scalar shorthand: 1, 2L, 1.5,
// 0f, 'c', "\"text\"", true, null. A leading '-' becomes a unary minus.
func (e *rawExpr) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		text := strings.TrimSpace(value.Value)
		if strings.HasPrefix(text, "-") && len(text) > 1 {
			*e = rawExpr{Kind: "unary", Op: "-", Args: []*rawExpr{{Kind: "literal", Value: text[1:]}}}
			return nil
		}
		*e = rawExpr{Kind: "literal", Value: text}
		return nil
	}
	type plain rawExpr
	return value.Decode((*plain)(e))
}

type rawSpan []uint32

func (s rawSpan) valid() bool { return len(s) == 2 && s[0] <= s[1] }

// LoadError describes a malformed or unresolvable unit file.
type LoadError struct {
	Path string
	Msg  string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// LoadFile reads a resolved unit from a YAML file and registers its source in fs.
func LoadFile(fs *source.FileSet, path string) (*Unit, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit: %w", err)
	}
	return Parse(fs, path, data)
}

// Parse decodes a resolved unit. The source text comes from the "text" field,
// or from the file named by "unit" relative to path; spans index into it.
func Parse(fs *source.FileSet, path string, data []byte) (*Unit, error) {
	var raw rawUnit
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, &LoadError{Path: path, Msg: err.Error()}
	}

	unitPath := raw.Unit
	if unitPath == "" {
		unitPath = path
	}
	var fileID source.FileID
	switch {
	case raw.Text != nil:
		fileID = fs.AddVirtual(unitPath, []byte(*raw.Text))
	case raw.Unit == "":
		fileID = fs.AddVirtual(unitPath, nil)
	default:
		srcPath := unitPath
		if !filepath.IsAbs(srcPath) && path != "" {
			srcPath = filepath.Join(filepath.Dir(path), srcPath)
		}
		id, err := fs.Load(srcPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, &LoadError{Path: path, Msg: err.Error()}
			}
			// sources are optional, positions still resolve to line 1
			id = fs.AddVirtual(unitPath, nil)
		}
		fileID = id
	}

	contentLen, err := safecast.Conv[uint32](len(fs.Get(fileID).Content))
	if err != nil {
		return nil, &LoadError{Path: path, Msg: err.Error()}
	}
	b := &builder{
		path:     path,
		file:     fileID,
		nextSpan: contentLen + 1,
		symbols:  make(map[string][]*Decl),
	}
	u := &Unit{Path: unitPath, File: fileID, Package: raw.Package}
	for _, imp := range raw.Imports {
		u.Imports = append(u.Imports, Import{Path: imp.Path, Alias: imp.Alias, Target: imp.Target, Span: b.span(imp.Span)})
	}

	if u.Externals, err = b.decls(raw.Externals, "", ""); err != nil {
		return nil, err
	}
	if u.Decls, err = b.decls(raw.Decls, "", ""); err != nil {
		return nil, err
	}
	Link(u)
	if err := b.resolve(u); err != nil {
		return nil, err
	}
	return u, nil
}

type pendingExpr struct {
	expr *Expr
	raw  *rawExpr
}

type pendingDecl struct {
	decl *Decl
	raw  *rawDecl
}

type builder struct {
	path      string
	file      source.FileID
	nextSpan  uint32
	symbols   map[string][]*Decl
	classes   []*Decl
	exprs     []pendingExpr
	overrides []pendingDecl
	types     []*Type
}

func (b *builder) errorf(format string, args ...any) error {
	return &LoadError{Path: b.path, Msg: fmt.Sprintf(format, args...)}
}

// span returns the written span or a fresh empty one past the end of the file,
// so distinct nodes never share a position.
func (b *builder) span(s rawSpan) source.Span {
	if s.valid() {
		return source.Span{File: b.file, Start: s[0], End: s[1]}
	}
	off := b.nextSpan
	b.nextSpan++
	return source.Span{File: b.file, Start: off, End: off}
}

func (b *builder) optSpan(s rawSpan) source.Span {
	if s.valid() {
		return source.Span{File: b.file, Start: s[0], End: s[1]}
	}
	return source.Span{}
}

func (b *builder) typ(s string) (*Type, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseType(s)
	if err != nil {
		return nil, b.errorf("%v", err)
	}
	b.collectTypes(t)
	return t, nil
}

func (b *builder) collectTypes(t *Type) {
	b.types = append(b.types, t)
	for _, a := range t.Args {
		b.collectTypes(a)
	}
}

func (b *builder) decls(raws []*rawDecl, prefix, force string) ([]*Decl, error) {
	out := make([]*Decl, 0, len(raws))
	for _, r := range raws {
		d, err := b.decl(r, prefix, force)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (b *builder) decl(r *rawDecl, prefix, force string) (*Decl, error) {
	if r == nil {
		return nil, b.errorf("empty declaration under %q", prefix)
	}
	kind := r.Kind
	if force != "" {
		kind = force
	}
	d := &Decl{Name: r.Name, Span: b.span(r.Span), SigSpan: b.optSpan(r.Sig), NameSpan: b.optSpan(r.NameSpan)}
	switch kind {
	case "class":
		d.Kind = DeclClass
	case "interface":
		d.Kind, d.Mods = DeclClass, ModInterface
	case "object":
		d.Kind, d.Mods = DeclClass, ModObject
	case "companion":
		d.Kind, d.Mods = DeclClass, ModObject|ModCompanion
	case "enum":
		d.Kind, d.Mods = DeclClass, ModEnum
	case "fun", "function":
		d.Kind = DeclFunction
	case "constructor":
		d.Kind = DeclConstructor
	case "val", "property":
		d.Kind = DeclProperty
	case "var":
		d.Kind, d.Mods = DeclProperty, ModVar
	case "variable":
		d.Kind = DeclVariable
	case "param", "parameter":
		d.Kind = DeclParameter
	case "entry", "enum_entry":
		d.Kind = DeclEnumEntry
	case "type_param", "type_parameter":
		d.Kind = DeclTypeParameter
	case "lambda":
		d.Kind = DeclLambda
	default:
		return nil, b.errorf("declaration %q: unknown kind %q", r.Name, kind)
	}
	if d.Kind == DeclConstructor && d.Name == "" {
		d.Name = "<init>"
	}
	if d.Kind == DeclLambda && d.Name == "" {
		d.Name = "<lambda>"
	}

	for _, m := range r.Modifiers {
		bit, ok := ParseModifier(m)
		if !ok {
			return nil, b.errorf("declaration %q: unknown modifier %q", r.Name, m)
		}
		d.Mods |= bit
	}
	for m, sp := range r.ModifierSpans {
		bit, ok := ParseModifier(m)
		if !ok {
			return nil, b.errorf("declaration %q: unknown modifier %q", r.Name, m)
		}
		if d.ModSpans == nil {
			d.ModSpans = make(map[Modifiers]source.Span)
		}
		d.ModSpans[bit] = b.optSpan(sp)
	}

	var err error
	if d.Type, err = b.typ(r.Type); err != nil {
		return nil, err
	}
	d.TypeExplicit = d.Type != nil && !r.Inferred
	d.TypeSpan = b.optSpan(r.TypeSpan)
	if d.Receiver, err = b.typ(r.Receiver); err != nil {
		return nil, err
	}
	if d.Receiver != nil {
		d.Mods |= ModExtension
	}
	for _, a := range r.Annotations {
		ann := &Annotation{Name: a.Name, Value: a.Value, Span: b.span(a.Span)}
		if a.Index != nil {
			ann.Index = *a.Index
		}
		d.Annotations = append(d.Annotations, ann)
	}

	key := d.Name
	if prefix != "" {
		key = prefix + "." + d.Name
	}
	d.Symbol = r.Symbol
	if d.Symbol == "" {
		d.Symbol = key
	}
	b.symbols[d.Symbol] = append(b.symbols[d.Symbol], d)
	if r.Symbol != "" && r.Symbol != key {
		b.symbols[key] = append(b.symbols[key], d)
	}
	if d.Kind == DeclClass {
		b.classes = append(b.classes, d)
	}

	if d.TypeParams, err = b.decls(r.TypeParams, key, "type_param"); err != nil {
		return nil, err
	}
	if d.Params, err = b.decls(r.Params, key, "param"); err != nil {
		return nil, err
	}
	if d.Members, err = b.decls(r.Members, key, ""); err != nil {
		return nil, err
	}
	for _, st := range r.SuperTypes {
		t, err := b.typ(st)
		if err != nil {
			return nil, err
		}
		d.Supertypes = append(d.Supertypes, t)
	}
	for _, sc := range r.SuperCalls {
		e, err := b.expr(sc, key)
		if err != nil {
			return nil, err
		}
		d.SuperCalls = append(d.SuperCalls, e)
	}
	init := r.Init
	if init == nil {
		init = r.Default
	}
	if init != nil {
		if d.Init, err = b.expr(init, key); err != nil {
			return nil, err
		}
	}
	if d.Body, err = b.stmts(r.Body, key); err != nil {
		return nil, err
	}
	if len(r.Overrides) > 0 {
		b.overrides = append(b.overrides, pendingDecl{decl: d, raw: r})
	}
	return d, nil
}

func (b *builder) stmts(raws []*rawStmt, prefix string) ([]*Stmt, error) {
	out := make([]*Stmt, 0, len(raws))
	for _, r := range raws {
		if r == nil {
			continue
		}
		s := &Stmt{Span: b.span(r.Span)}
		switch r.Kind {
		case "return":
			s.Kind = StmtReturn
		case "expr":
			s.Kind = StmtExpr
		case "var", "val":
			s.Kind = StmtVar
		case "if":
			s.Kind = StmtIf
		case "loop", "for", "while":
			s.Kind = StmtLoop
		case "try":
			s.Kind = StmtTry
		case "other", "":
			s.Kind = StmtOther
		default:
			return nil, b.errorf("unknown statement kind %q in %s", r.Kind, prefix)
		}
		var err error
		value := r.Value
		if value == nil {
			value = r.Cond
		}
		if value != nil {
			if s.Expr, err = b.expr(value, prefix); err != nil {
				return nil, err
			}
		}
		if r.Decl != nil {
			if s.Kind != StmtVar {
				return nil, b.errorf("statement %q in %s cannot declare %q", r.Kind, prefix, r.Decl.Name)
			}
			if s.Var, err = b.decl(r.Decl, prefix, "variable"); err != nil {
				return nil, err
			}
			if r.Kind == "var" {
				s.Var.Mods |= ModVar
			}
		}
		if s.Body, err = b.stmts(r.Body, prefix); err != nil {
			return nil, err
		}
		if s.Else, err = b.stmts(r.Else, prefix); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (b *builder) expr(r *rawExpr, prefix string) (*Expr, error) {
	e := &Expr{Span: b.span(r.Span), Value: r.Value, Const: r.Const, ConstSpan: b.optSpan(r.ConstSpan)}
	switch r.Kind {
	case "literal", "lit":
		e.Kind = ExprLiteral
		if r.Lit != "" {
			lit, ok := parseLitKind(r.Lit)
			if !ok {
				return nil, b.errorf("unknown literal kind %q in %s", r.Lit, prefix)
			}
			e.Lit = lit
		} else {
			e.Lit = ClassifyLiteral(r.Value)
		}
	case "new":
		e.Kind = ExprNew
	case "call":
		e.Kind = ExprCall
	case "ref":
		e.Kind = ExprRef
	case "lambda":
		e.Kind = ExprLambda
	case "binary":
		e.Kind = ExprBinary
	case "unary":
		e.Kind = ExprUnary
	case "template":
		e.Kind = ExprTemplate
	case "other", "":
		e.Kind = ExprOther
	default:
		return nil, b.errorf("unknown expression kind %q in %s", r.Kind, prefix)
	}
	if r.Op != "" {
		e.Value = r.Op
	}

	var err error
	if e.Type, err = b.typ(r.Type); err != nil {
		return nil, err
	}
	if r.Receiver != nil {
		if e.Receiver, err = b.expr(r.Receiver, prefix); err != nil {
			return nil, err
		}
	}
	args := r.Args
	if e.Kind == ExprTemplate && len(r.Parts) > 0 {
		args = r.Parts
	}
	for _, a := range args {
		ae, err := b.expr(a, prefix)
		if err != nil {
			return nil, err
		}
		e.Args = append(e.Args, ae)
	}
	if r.Lambda != nil {
		if e.Lambda, err = b.decl(r.Lambda, prefix, "lambda"); err != nil {
			return nil, err
		}
		if e.Kind == ExprOther {
			e.Kind = ExprLambda
		}
	}
	if r.Callee != "" || r.Ref != "" {
		b.exprs = append(b.exprs, pendingExpr{expr: e, raw: r})
	}
	return e, nil
}

func parseLitKind(s string) (LitKind, bool) {
	for k, name := range litKindNames {
		if name == s && LitKind(k) != LitInvalid {
			return LitKind(k), true
		}
	}
	return LitInvalid, false
}

// ClassifyLiteral infers the literal kind from Kotlin literal text.
func ClassifyLiteral(text string) LitKind {
	switch {
	case text == "null":
		return LitNull
	case text == "true" || text == "false":
		return LitBool
	case strings.HasPrefix(text, `"`):
		return LitString
	case strings.HasPrefix(text, "'"):
		return LitChar
	}
	lower := strings.ToLower(text)
	hex := strings.HasPrefix(lower, "0x")
	switch {
	case strings.HasSuffix(lower, "l"):
		return LitLong
	case !hex && strings.HasSuffix(lower, "f"):
		return LitFloat
	case !hex && !strings.HasPrefix(lower, "0b") && strings.ContainsAny(lower, ".e"):
		return LitDouble
	}
	return LitInt
}
