package rules

import (
	"dotgate/internal/diag"
	"dotgate/internal/interop"
	"dotgate/internal/tree"
)

var callables = []tree.DeclKind{tree.DeclFunction, tree.DeclConstructor}

var dartIndex = DeclRule{
	Name:  "dart-index",
	Kinds: callables,
	Reports: reports(
		diag.DartIndexOutOfBounds,
		diag.DartIndexConflict,
		diag.DartIndexMismatchOnOverride,
	),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		return interop.ValidateIndices(d)
	},
}

var dartDifferentDefaultValue = DeclRule{
	Name:  "dart-different-default-value",
	Kinds: callables,
	Reports: reports(
		diag.DartDifferentDefaultValueOnParameterWithoutDefaultValue,
		diag.DartDifferentDefaultValueOnNonExternal,
	),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		return interop.ValidateDefaults(d)
	},
}

var dartConstructor = DeclRule{
	Name:    "dart-constructor",
	Kinds:   callables,
	Reports: reports(diag.DartConstructorWrongTarget, diag.DartConstructorWrongReturnType),
	Check: func(ctx *Context, d *tree.Decl) []diag.Diagnostic {
		return interop.ValidateConstructor(d)
	},
}
