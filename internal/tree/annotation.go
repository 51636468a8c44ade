package tree

import (
	"dotgate/internal/diag"
	"dotgate/internal/source"
)

// Interop annotation names as written in Kotlin sources.
const (
	AnnDartName                  = "DartName"
	AnnDartIndex                 = "DartIndex"
	AnnDartExtensionName         = "DartExtensionName"
	AnnDartDifferentDefaultValue = "DartDifferentDefaultValue"
	AnnDartConstructor           = "DartConstructor"
)

// Annotation is an annotation attached verbatim by the tree provider.
type Annotation struct {
	Name  string
	Value string // @DartName / @DartExtensionName argument
	Index int    // @DartIndex argument
	Span  source.Span
}

func (a *Annotation) Anchor() diag.Anchor { return diag.At(a.Span) }

// SpecialInheritanceType is the parameter type that marks an external
// constructor as usable only from a supertype list.
const SpecialInheritanceType = "InterfaceOrMixin"

// IsSpecialInheritanceConstructor reports constructors whose sole parameter
// is of type InterfaceOrMixin.
func (d *Decl) IsSpecialInheritanceConstructor() bool {
	return d.Kind == DeclConstructor && len(d.Params) == 1 && d.Params[0].Type.Is(SpecialInheritanceType)
}
