package diag

import (
	"math/rand"
	"testing"

	"dotgate/internal/source"
)

func TestBagCountsPastCap(t *testing.T) {
	b := NewBag(2)
	anchor := At(source.Span{})

	if !b.Add(UnnecessaryReified.On(anchor)) {
		t.Fatal("first add must be stored")
	}
	if !b.Add(UnnecessaryReified.On(anchor)) {
		t.Fatal("second add must be stored")
	}
	if b.Add(LongReference.On(anchor)) {
		t.Fatal("third add must be dropped")
	}

	if b.Len() != 2 || b.Dropped() != 1 {
		t.Fatalf("Len=%d Dropped=%d", b.Len(), b.Dropped())
	}
	if !b.HasErrors() {
		t.Fatal("dropped error must still be visible to HasErrors")
	}
	if b.ErrorCount() != 1 || b.WarningCount() != 2 {
		t.Fatalf("errors=%d warnings=%d", b.ErrorCount(), b.WarningCount())
	}
}

func TestBagWarningsOnly(t *testing.T) {
	b := NewBag(0)
	b.Add(UnnecessaryReified.On(At(source.Span{})))
	if b.HasErrors() {
		t.Fatal("warnings must not count as errors")
	}
	if !b.HasWarnings() {
		t.Fatal("expected warnings")
	}
	if b.Count(UnnecessaryReified) != 1 || b.Count(LongReference) != 0 {
		t.Fatal("Count mismatch")
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 3, End: 5}

	r.Report(LongReference.On(At(sp)))
	r.Report(LongReference.On(At(sp)))
	r.Report(LongReference.On(At(source.Span{Start: 3, End: 6})))
	r.Report(FloatReference.On(At(sp)))

	if bag.Len() != 3 {
		t.Fatalf("expected 3 unique diagnostics, got %d", bag.Len())
	}
}

// TestBagGateOverRandomSeverities feeds random error/warning sequences into
// bags with and without a cap; HasErrors must track added errors exactly.
func TestBagGateOverRandomSeverities(t *testing.T) {
	rng := rand.New(rand.NewSource(20221018))
	anchor := At(source.Span{Start: 1, End: 2})
	for round := range 500 {
		n := rng.Intn(40)
		limit := rng.Intn(6) // 0 is unlimited
		b := NewBag(limit)
		errs, warns := 0, 0
		for range n {
			if rng.Intn(4) == 0 {
				b.Add(LongReference.On(anchor))
				errs++
			} else {
				b.Add(UnnecessaryReified.On(anchor))
				warns++
			}
		}
		if b.HasErrors() != (errs > 0) {
			t.Fatalf("round %d: HasErrors=%v after %d errors (cap %d)", round, b.HasErrors(), errs, limit)
		}
		if b.ErrorCount() != errs || b.WarningCount() != warns {
			t.Fatalf("round %d: counts %d/%d, want %d/%d", round, b.ErrorCount(), b.WarningCount(), errs, warns)
		}
		if limit > 0 && b.Len() > limit {
			t.Fatalf("round %d: stored %d past cap %d", round, b.Len(), limit)
		}
		if b.Len()+b.Dropped() != n {
			t.Fatalf("round %d: stored %d + dropped %d != %d", round, b.Len(), b.Dropped(), n)
		}
	}
}
