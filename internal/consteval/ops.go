package consteval

import (
	"math"
)

func unary(op string, v Value) Value {
	if !v.IsConst() {
		return v
	}
	if v.Kind == Symbolic {
		return v
	}
	switch op {
	case "+":
		if v.Kind == Int || v.Kind == Double {
			return v
		}
	case "-":
		switch v.Kind {
		case Int:
			return intResult(-v.Int)
		case Double:
			return Value{Kind: Double, Float: -v.Float}
		}
	case "!":
		if v.Kind == Bool {
			return Value{Kind: Bool, Bool: !v.Bool}
		}
	}
	return notConst("operator " + op + " is not constant for " + v.Kind.String())
}

func binary(op string, lhs, rhs Value) Value {
	if !lhs.IsConst() || !rhs.IsConst() {
		return worst(lhs, rhs)
	}
	if op == "?:" {
		switch lhs.Kind {
		case Null:
			return rhs
		case Symbolic:
			return lhs
		}
		return lhs
	}
	if lhs.Kind == Symbolic {
		return lhs
	}
	if rhs.Kind == Symbolic {
		return rhs
	}

	switch op {
	case "==":
		return Value{Kind: Bool, Bool: equal(lhs, rhs)}
	case "!=":
		return Value{Kind: Bool, Bool: !equal(lhs, rhs)}
	case "&&", "||":
		if lhs.Kind != Bool || rhs.Kind != Bool {
			break
		}
		if op == "&&" {
			return Value{Kind: Bool, Bool: lhs.Bool && rhs.Bool}
		}
		return Value{Kind: Bool, Bool: lhs.Bool || rhs.Bool}
	case "+":
		if lhs.Kind == String {
			if rhs.Kind == Object || rhs.Kind == Function {
				break
			}
			return Value{Kind: String, Str: lhs.Str + rhs.text()}
		}
		return arith(op, lhs, rhs)
	case "-", "*", "/", "%":
		return arith(op, lhs, rhs)
	case "<", "<=", ">", ">=":
		return compare(op, lhs, rhs)
	}
	return notConst("operator " + op + " is not constant for " + lhs.Kind.String() + " and " + rhs.Kind.String())
}

// intResult narrows an integer result to Int.
func intResult(n int64) Value {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return notConst("integer overflow")
	}
	return Value{Kind: Int, Int: n}
}

func arith(op string, lhs, rhs Value) Value {
	if lhs.Kind == Int && rhs.Kind == Int {
		a, b := lhs.Int, rhs.Int
		switch op {
		case "+":
			return intResult(a + b)
		case "-":
			return intResult(a - b)
		case "*":
			return intResult(a * b)
		case "/":
			if b == 0 {
				return notConst("division by zero")
			}
			return intResult(a / b)
		case "%":
			if b == 0 {
				return notConst("division by zero")
			}
			return intResult(a % b)
		}
	}
	a, okA := asFloat(lhs)
	b, okB := asFloat(rhs)
	if !okA || !okB {
		return notConst("operator " + op + " is not constant for " + lhs.Kind.String() + " and " + rhs.Kind.String())
	}
	switch op {
	case "+":
		return Value{Kind: Double, Float: a + b}
	case "-":
		return Value{Kind: Double, Float: a - b}
	case "*":
		return Value{Kind: Double, Float: a * b}
	case "/":
		return Value{Kind: Double, Float: a / b}
	case "%":
		return Value{Kind: Double, Float: math.Mod(a, b)}
	}
	return notConst("unknown operator " + op)
}

func compare(op string, lhs, rhs Value) Value {
	var c int
	switch {
	case lhs.Kind == String && rhs.Kind == String:
		switch {
		case lhs.Str < rhs.Str:
			c = -1
		case lhs.Str > rhs.Str:
			c = 1
		}
	default:
		a, okA := asFloat(lhs)
		b, okB := asFloat(rhs)
		if !okA || !okB {
			return notConst("operator " + op + " is not constant for " + lhs.Kind.String() + " and " + rhs.Kind.String())
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	}
	var res bool
	switch op {
	case "<":
		res = c < 0
	case "<=":
		res = c <= 0
	case ">":
		res = c > 0
	default:
		res = c >= 0
	}
	return Value{Kind: Bool, Bool: res}
}

func asFloat(v Value) (float64, bool) {
	switch v.Kind {
	case Int:
		return float64(v.Int), true
	case Double:
		return v.Float, true
	}
	return 0, false
}

func equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Int:
		return a.Int == b.Int
	case Double:
		return a.Float == b.Float
	case Bool:
		return a.Bool == b.Bool
	case String:
		return a.Str == b.Str
	case Null:
		return true
	case EnumEntry, Function:
		return a.Decl == b.Decl
	case Object:
		if a.Decl != b.Decl || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if !equal(a.Fields[i], b.Fields[i]) {
				return false
			}
		}
		return true
	}
	return false
}
