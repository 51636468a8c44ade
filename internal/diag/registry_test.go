package diag

import (
	"testing"
)

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestRegistryRejectsDuplicatesAndLateDefinitions(t *testing.T) {
	r := newRegistry()
	r.define(4001, "A", SevError, PositionDefault, "a", nil)

	expectPanic(t, "duplicate code", func() {
		r.define(4001, "B", SevError, PositionDefault, "b", nil)
	})
	expectPanic(t, "duplicate name", func() {
		r.define(4002, "A", SevError, PositionDefault, "a", nil)
	})
	expectPanic(t, "info severity", func() {
		r.define(4003, "C", SevInfo, PositionDefault, "c", nil)
	})

	r.seal()
	expectPanic(t, "after seal", func() {
		r.define(4004, "D", SevWarning, PositionDefault, "d", nil)
	})
	if _, ok := r.lookup(4001); !ok {
		t.Error("sealed registry must still resolve identities")
	}
}

func TestAllIsOrderedAndComplete(t *testing.T) {
	all := All()
	if len(all) != 31 {
		t.Fatalf("registered identities = %d, want 31", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Code() >= all[i].Code() {
			t.Fatalf("identities not ordered: %s before %s", all[i-1].Code().ID(), all[i].Code().ID())
		}
	}
	for _, id := range all {
		byName, ok := LookupName(id.Name())
		if !ok || byName != id {
			t.Errorf("LookupName(%s) mismatch", id.Name())
		}
		if id.Code().ID() == "E0000" {
			t.Errorf("%s has a code outside the known ranges", id.Name())
		}
	}
}

func TestCodeString(t *testing.T) {
	code := LongReference.Identity().Code()
	if code.ID() != "TYP3001" {
		t.Errorf("ID() = %q", code.ID())
	}
	if code.String() != "[TYP3001]: LONG_REFERENCE" {
		t.Errorf("String() = %q", code.String())
	}
	if Code(9999).Name() != "UNKNOWN" {
		t.Error("unregistered codes have no name")
	}
}
