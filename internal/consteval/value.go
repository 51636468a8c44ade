package consteval

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"dotgate/internal/tree"
)

// Kind classifies a constant value.
type Kind uint8

const (
	NotConst Kind = iota
	Int
	Double
	Bool
	String
	Null
	Object    // const constructor invocation
	Function  // const lambda or top-level function reference
	EnumEntry // enum entry reference
	Symbolic  // parameter of a const inline function, known to be constant but not its value
)

var kindNames = [...]string{
	NotConst:  "not-const",
	Int:       "int",
	Double:    "double",
	Bool:      "bool",
	String:    "string",
	Null:      "null",
	Object:    "object",
	Function:  "function",
	EnumEntry: "enum-entry",
	Symbolic:  "symbolic",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "not-const"
}

// Value is the result of evaluating an expression in a const context.
type Value struct {
	Kind Kind

	Int   int64 // within int32 range, except for the magnitude operand of a negation
	Float float64
	Bool  bool
	Str   string

	// Decl is the constructor for Object, the lambda or function for
	// Function, the entry for EnumEntry and the parameter for Symbolic.
	Decl   *tree.Decl
	Fields []Value

	// Reason explains a NotConst value; Reported means a diagnostic already
	// describes the failure and callers must not report it again.
	Reason   string
	Reported bool
}

func (v Value) IsConst() bool { return v.Kind != NotConst }

func notConst(reason string) Value {
	return Value{Kind: NotConst, Reason: reason}
}

func reported(reason string) Value {
	return Value{Kind: NotConst, Reason: reason, Reported: true}
}

// worst merges the failure of an operand into a result: reported failures win.
func worst(a, b Value) Value {
	if a.Kind == NotConst && (a.Reported || b.Kind != NotConst) {
		return a
	}
	if b.Kind == NotConst {
		return b
	}
	return a
}

func (v Value) String() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Double:
		return formatDouble(v.Float)
	case Bool:
		return strconv.FormatBool(v.Bool)
	case String:
		return strconv.Quote(v.Str)
	case Null:
		return "null"
	case Object:
		var b strings.Builder
		b.WriteString("const ")
		if v.Decl != nil {
			if owner := v.Decl.OwnerClass(); owner != nil {
				b.WriteString(owner.Name)
			} else {
				b.WriteString(v.Decl.Name)
			}
		}
		b.WriteByte('(')
		for i, f := range v.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.String())
		}
		b.WriteByte(')')
		return b.String()
	case Function:
		if v.Decl != nil && v.Decl.Kind != tree.DeclLambda {
			return "fun " + v.Decl.Name
		}
		return "<lambda>"
	case EnumEntry:
		if v.Decl != nil {
			if owner := v.Decl.OwnerClass(); owner != nil {
				return owner.Name + "." + v.Decl.Name
			}
			return v.Decl.Name
		}
		return "<entry>"
	case Symbolic:
		if v.Decl != nil {
			return "<" + v.Decl.Name + ">"
		}
		return "<symbolic>"
	}
	if v.Reason != "" {
		return fmt.Sprintf("<not const: %s>", v.Reason)
	}
	return "<not const>"
}

// text renders a value the way string templates concatenate it.
func (v Value) text() string {
	switch v.Kind {
	case String:
		return v.Str
	case Double:
		return formatDouble(v.Float)
	}
	return v.String()
}

// formatDouble follows Kotlin's Double.toString for the common cases.
func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e7 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	s := strconv.FormatFloat(f, 'G', -1, 64)
	if mant, exp, ok := strings.Cut(s, "E"); ok {
		if !strings.Contains(mant, ".") {
			mant += ".0"
		}
		exp = strings.TrimPrefix(exp, "+")
		return mant + "E" + exp
	}
	return s
}
