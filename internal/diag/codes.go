package diag

// Registration table. Codes are grouped: NAM1xxx naming, CST2xxx constants,
// TYP3xxx unsupported Kotlin features, ITR4xxx interop annotations.
var (
	DartNameClash = Define2[string, string](1001, "DART_NAME_CLASH", SevError, PositionSignatureOrDefault,
		"Dart name generated for '{0}' clashes with another declaration: '{1}'")
	DartNameOnOverride = Define0(1002, "DART_NAME_ON_OVERRIDE", SevError, PositionDefault,
		"cannot use @DartName on overridden member")
	ExtensionWithoutExplicitDartExtensionNameInPublicPackage = Define0(1003,
		"EXTENSION_WITHOUT_EXPLICIT_DART_EXTENSION_NAME_IN_PUBLIC_PACKAGE", SevWarning, PositionSignatureOrDefault,
		"public extension has no name set with @DartExtensionName even though this package is public")
	DuplicateImport = Define2[string, string](1004, "DUPLICATE_IMPORT", SevError, PositionDefault,
		"duplicate import: '{0}' is also imported at: '{1}'")
	DuplicateEnumMemberName = Define0(1005, "DUPLICATE_ENUM_MEMBER_NAME", SevError, PositionSignatureOrDefault,
		"enum cannot contain duplicate member names")

	ConstInitializedWithNonConstantValue = Define0(2001, "CONST_INITIALIZED_WITH_NON_CONSTANT_VALUE", SevError, PositionDefault,
		"const variables must be initialized with a constant value")
	OnlyConstructorCallsCanBeConst = Define0(2002, "ONLY_CONSTRUCTOR_CALLS_CAN_BE_CONST", SevError, PositionDefault,
		"only function and constructor calls can be const")
	ConstWithNonConst = Define1[string](2003, "CONST_WITH_NON_CONST", SevError, PositionDefault,
		"the {0} being called is not a const {0}")
	NonConstantDefaultValueInConstConstructor = Define0(2004, "NON_CONSTANT_DEFAULT_VALUE_IN_CONST_CONSTRUCTOR", SevError, PositionDefault,
		"the default value of an optional parameter in a const constructor must be constant")
	ConstInlineFunctionWithMultipleReturns = Define0(2005, "CONST_INLINE_FUNCTION_WITH_MULTIPLE_RETURNS", SevError, PositionSignatureOrDefault,
		"const inline functions cannot have multiple returns")
	ConstInlineFunctionReturnsNonConst = Define0(2006, "CONST_INLINE_FUNCTION_RETURNS_NON_CONST", SevError, PositionDefault,
		"const inline functions must return a constant value")
	ConstInlineFunctionHasInvalidStatement = Define0(2007, "CONST_INLINE_FUNCTION_HAS_INVALID_STATEMENT", SevError, PositionDefault,
		"const inline functions must only contain const variables and a single return statement")
	InapplicableConstFunctionModifier = Define0(2008, "INAPPLICABLE_CONST_FUNCTION_MODIFIER", SevError, PositionDefault,
		"'const' modifier is not applicable without 'inline' modifier")
	ConstLambdaAccessingNonGlobalValue = Define0(2009, "CONST_LAMBDA_ACCESSING_NON_GLOBAL_VALUE", SevError, PositionDefault,
		"const lambdas can only access global values and their own parameters")

	LongReference = Define0(3001, "LONG_REFERENCE", SevError, PositionDefault,
		"cannot use Long, use Int instead")
	ImplicitLongReference = Define1[string](3002, "IMPLICIT_LONG_REFERENCE", SevError, PositionDefault,
		"{0} has implicit type of Long, specify Int type explicitly")
	FloatReference = Define0(3003, "FLOAT_REFERENCE", SevError, PositionDefault,
		"cannot use Float, use Double instead")
	CharReference = Define0(3004, "CHAR_REFERENCE", SevError, PositionDefault,
		"cannot use Char, use String instead")
	UnnecessaryReified = Define0(3005, "UNNECESSARY_REIFIED", SevWarning, PositionDefault,
		"using reified is not necessary, there's no type erasure")
	WrongSetOperatorReturnType = Define1[TypeName](3006, "WRONG_SET_OPERATOR_RETURN_TYPE", SevError, PositionSignatureOrDefault,
		"return type of set operator must be the same type as its value parameter: {0}")
	WrongSetOperatorReturn = Define1[DeclName](3007, "WRONG_SET_OPERATOR_RETURN", SevWarning, PositionSignatureOrDefault,
		"set operator must return its value parameter: {0}")
	SpecialInheritanceConstructorMisuse = Define0(3008, "SPECIAL_INHERITANCE_CONSTRUCTOR_MISUSE", SevError, PositionDefault,
		"special inheritance constructor can only be used as super type constructor")
	KotlinIteratorMethodUsage = Define0(3009, "KOTLIN_ITERATOR_METHOD_USAGE", SevError, PositionSignatureOrDefault,
		"use 'moveNext' and 'current'")
	VarInEnum = Define0(3010, "VAR_IN_ENUM", SevError, PositionSignatureOrDefault,
		"enum can only declare non-var properties")
	ImplicitInterfaceMemberNotImplemented = Define2[DeclName, DeclName](3011, "ABSTRACT_MEMBER_NOT_IMPLEMENTED", SevError, PositionSignatureOrDefault,
		"{0} is not abstract and does not implement abstract member {1}")

	DartIndexOutOfBounds = Define2[int, int](4001, "DART_INDEX_OUT_OF_BOUNDS", SevError, PositionDefault,
		"index {0} out of bounds: must be in range of 0..{1}")
	DartIndexConflict = Define0(4002, "DART_INDEX_CONFLICT", SevError, PositionDefault,
		"index is equal to that of another @DartIndex")
	DartIndexMismatchOnOverride = Define1[int](4003, "DART_INDEX_MISMATCH_ON_OVERRIDE", SevError, PositionDefault,
		"index must match the overridden parameter's index {0}")
	DartDifferentDefaultValueOnParameterWithoutDefaultValue = Define0(4004,
		"DART_DIFFERENT_DEFAULT_VALUE_ON_PARAMETER_WITHOUT_DEFAULT_VALUE", SevError, PositionDefault,
		"parameter must have a default value")
	DartDifferentDefaultValueOnNonExternal = Define0(4005, "DART_DIFFERENT_DEFAULT_VALUE_ON_NON_EXTERNAL", SevError, PositionDefault,
		"parameter must be in external function")
	DartConstructorWrongTarget = Define0(4006, "DART_CONSTRUCTOR_WRONG_TARGET", SevError, PositionDefault,
		"@DartConstructor can only be used on external companion object methods")
	DartConstructorWrongReturnType = Define1[TypeName](4007, "DART_CONSTRUCTOR_WRONG_RETURN_TYPE", SevError, PositionSignatureOrDefault,
		"@DartConstructor annotated method must have return type '{0}'")
)
