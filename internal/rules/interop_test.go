package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInteropRulesRunThroughCatalog(t *testing.T) {
	ds := check(t, `
decls:
  - kind: fun
    name: conflict
    params:
      - {name: a, type: Int, annotations: [DartIndex=1]}
      - {name: b, type: Int, annotations: [DartIndex=1, DartDifferentDefaultValue]}
  - {kind: fun, name: loose, annotations: [DartConstructor], type: Int}
`, false)
	assert.Equal(t, []string{
		"DART_INDEX_CONFLICT",
		"DART_INDEX_CONFLICT",
		"DART_DIFFERENT_DEFAULT_VALUE_ON_PARAMETER_WITHOUT_DEFAULT_VALUE",
		"DART_DIFFERENT_DEFAULT_VALUE_ON_NON_EXTERNAL",
		"DART_CONSTRUCTOR_WRONG_TARGET",
	}, names(ds))
}
