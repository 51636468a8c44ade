package consteval

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"dotgate/internal/diag"
	"dotgate/internal/tree"
)

var errIntRange = errors.New("integer literal does not fit in Int")

// IntLiteral parses a Kotlin integer literal (decimal, hex or binary with
// '_' separators). negated widens the accepted range by one for -2147483648.
func IntLiteral(text string, negated bool) (int64, error) {
	clean := strings.ReplaceAll(text, "_", "")
	base := 10
	if len(clean) >= 2 && clean[0] == '0' {
		switch clean[1] {
		case 'x', 'X':
			base, clean = 16, clean[2:]
		case 'b', 'B':
			base, clean = 2, clean[2:]
		}
	}
	if clean == "" {
		return 0, strconv.ErrSyntax
	}
	u, err := strconv.ParseUint(clean, base, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, errIntRange
		}
		return 0, err
	}
	limit := uint64(math.MaxInt32)
	if negated {
		limit++
	}
	if u > limit {
		return 0, errIntRange
	}
	return safecast.Conv[int64](u)
}

// CheckLiteral classifies a literal in a const context. Literals of kinds
// with no exact Dart constant form produce their diagnostic.
func CheckLiteral(e *tree.Expr) (Value, *diag.Diagnostic) {
	switch e.Lit {
	case tree.LitInt:
		n, err := IntLiteral(e.Value, e.IsNegated())
		if err != nil {
			if errors.Is(err, errIntRange) {
				d := diag.LongReference.On(e.Anchor())
				return reported("integer literal exceeds Int"), &d
			}
			return notConst("malformed integer literal " + strconv.Quote(e.Value)), nil
		}
		return Value{Kind: Int, Int: n}, nil
	case tree.LitLong:
		d := diag.LongReference.On(e.Anchor())
		return reported("Long literal"), &d
	case tree.LitFloat:
		d := diag.FloatReference.On(e.Anchor())
		return reported("Float literal"), &d
	case tree.LitChar:
		d := diag.CharReference.On(e.Anchor())
		return reported("Char literal"), &d
	case tree.LitDouble:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.ReplaceAll(e.Value, "_", ""), "d"), 64)
		if err != nil {
			return notConst("malformed floating literal " + strconv.Quote(e.Value)), nil
		}
		return Value{Kind: Double, Float: f}, nil
	case tree.LitBool:
		return Value{Kind: Bool, Bool: e.Value == "true"}, nil
	case tree.LitString:
		return Value{Kind: String, Str: unquote(e.Value)}, nil
	case tree.LitNull:
		return Value{Kind: Null}, nil
	}
	return notConst("unknown literal"), nil
}

// unquote strips Kotlin string quotes and resolves simple escapes.
// Unquoted text is taken verbatim.
func unquote(s string) string {
	if strings.HasPrefix(s, `"""`) && strings.HasSuffix(s, `"""`) && len(s) >= 6 {
		return s[3 : len(s)-3]
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'u':
			if i+4 < len(s) {
				if r, err := strconv.ParseUint(s[i+1:i+5], 16, 32); err == nil {
					b.WriteRune(rune(r))
					i += 4
					continue
				}
			}
			b.WriteString(`\u`)
		default: // \\ \" \' \$
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
