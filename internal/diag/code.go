package diag

import (
	"fmt"
)

// Code is the compact numeric identifier of a diagnostic identity.
type Code uint16

const (
	UnknownCode Code = 0

	// Dart naming and declaration shape
	namingFirst Code = 1000
	// Constant semantics
	constFirst Code = 2000
	// Kotlin features without a Dart equivalent
	typesFirst Code = 3000
	// Interop annotations (@DartIndex, @DartConstructor, ...)
	interopFirst Code = 4000
)

// ID returns the stable textual form used by formatters, e.g. "CST2003".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= int(namingFirst) && ic < int(constFirst):
		return fmt.Sprintf("NAM%04d", ic)
	case ic >= int(constFirst) && ic < int(typesFirst):
		return fmt.Sprintf("CST%04d", ic)
	case ic >= int(typesFirst) && ic < int(interopFirst):
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= int(interopFirst) && ic < 5000:
		return fmt.Sprintf("ITR%04d", ic)
	}
	return "E0000"
}

// Name returns the registered identity name, or "UNKNOWN".
func (c Code) Name() string {
	if id, ok := Lookup(c); ok {
		return id.Name()
	}
	return "UNKNOWN"
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Name())
}
