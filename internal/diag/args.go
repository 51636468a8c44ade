package diag

import (
	"fmt"
	"strconv"
	"strings"
)

// ArgKind is the runtime tag of a diagnostic argument.
type ArgKind uint8

const (
	ArgString ArgKind = iota + 1
	ArgType
	ArgInt
	ArgDecl
)

func (k ArgKind) String() string {
	switch k {
	case ArgString:
		return "string"
	case ArgType:
		return "type"
	case ArgInt:
		return "int"
	case ArgDecl:
		return "declaration"
	}
	return "invalid"
}

type (
	// TypeName is an already rendered Kotlin type, e.g. "List<Int>?".
	TypeName string
	// DeclName is a rendered declaration reference, e.g. "fun foo(Int)".
	DeclName string
)

// Arg lists the argument types an identity may be parameterized with.
type Arg interface {
	string | int | TypeName | DeclName
}

func kindOf[A Arg]() ArgKind {
	var zero A
	switch any(zero).(type) {
	case string:
		return ArgString
	case TypeName:
		return ArgType
	case int:
		return ArgInt
	case DeclName:
		return ArgDecl
	}
	panic("diag: unsupported argument type")
}

// ArgKindOf reports the kind of a dynamically supplied argument.
func ArgKindOf(v any) (ArgKind, bool) {
	switch v.(type) {
	case string:
		return ArgString, true
	case TypeName:
		return ArgType, true
	case int:
		return ArgInt, true
	case DeclName:
		return ArgDecl, true
	}
	return 0, false
}

// FormatArg renders an argument for message substitution.
func FormatArg(v any) string {
	switch a := v.(type) {
	case string:
		return a
	case TypeName:
		return string(a)
	case DeclName:
		return string(a)
	case int:
		return strconv.Itoa(a)
	}
	return fmt.Sprint(v)
}

// ParseArg converts the textual form back into a typed argument.
func ParseArg(kind ArgKind, text string) (any, error) {
	switch kind {
	case ArgString:
		return text, nil
	case ArgType:
		return TypeName(text), nil
	case ArgDecl:
		return DeclName(text), nil
	case ArgInt:
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("int argument %q: %w", text, err)
		}
		return n, nil
	}
	return nil, fmt.Errorf("unknown argument kind %d", kind)
}

// renderTemplate substitutes {N} placeholders. Unknown indices stay verbatim.
func renderTemplate(template string, args []any) string {
	if !strings.Contains(template, "{") {
		return template
	}
	var b strings.Builder
	b.Grow(len(template) + 16)
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c == '{' {
			if end := strings.IndexByte(template[i:], '}'); end > 1 {
				if n, err := strconv.Atoi(template[i+1 : i+end]); err == nil && n >= 0 && n < len(args) {
					b.WriteString(FormatArg(args[n]))
					i += end
					continue
				}
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
