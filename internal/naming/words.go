package naming

// Dart built-in identifiers: usable as member names but not as type names.
var builtInIdentifiers = setOf(
	"abstract", "as", "covariant", "deferred",
	"dynamic", "export", "extension", "external",
	"factory", "Function", "get", "implements",
	"import", "interface", "late", "library",
	"mixin", "operator", "part", "required",
	"set", "static", "typedef",
)

// Dart reserved words: never usable as identifiers.
var reservedWords = setOf(
	"assert", "break", "case", "catch", "class",
	"const", "continue", "default", "do", "else",
	"enum", "extends", "false", "final", "finally",
	"for", "if", "in", "is", "new", "null", "rethrow",
	"return", "super", "switch", "this", "throw", "true",
	"try", "var", "void", "while", "with",
)

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// IsReserved reports Dart reserved words.
func IsReserved(name string) bool {
	_, ok := reservedWords[name]
	return ok
}

// IsBuiltIn reports Dart built-in identifiers.
func IsBuiltIn(name string) bool {
	_, ok := builtInIdentifiers[name]
	return ok
}
