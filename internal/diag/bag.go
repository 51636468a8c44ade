package diag

// Bag is an ordered diagnostic sink. Insertion order is preserved.
// When the cap is reached further diagnostics are dropped from storage but
// still counted, so HasErrors never under-reports.
type Bag struct {
	items    []Diagnostic
	max      int
	errors   int
	warnings int
	dropped  int
}

// NewBag creates a bag keeping at most max diagnostics; max <= 0 means unlimited.
func NewBag(max int) *Bag {
	capHint := max
	if capHint <= 0 || capHint > 64 {
		capHint = 16
	}
	return &Bag{
		items: make([]Diagnostic, 0, capHint),
		max:   max,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не сохранена (достигнут лимит).
func (b *Bag) Add(d Diagnostic) bool {
	switch d.Severity {
	case SevError:
		b.errors++
	case SevWarning:
		b.warnings++
	}
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() int {
	return b.max
}

// HasErrors возвращает true, если была добавлена хотя бы одна ошибка.
func (b *Bag) HasErrors() bool {
	return b.errors > 0
}

// HasWarnings возвращает true, если была добавлена хотя бы одна диагностика с Severity >= Warning.
func (b *Bag) HasWarnings() bool {
	return b.warnings > 0 || b.errors > 0
}

func (b *Bag) ErrorCount() int   { return b.errors }
func (b *Bag) WarningCount() int { return b.warnings }

// Dropped is the number of diagnostics that did not fit under the cap.
func (b *Bag) Dropped() int {
	return b.dropped
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
// ВАЖНО: не модифицируйте возвращаемый срез!
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Count returns how many stored diagnostics were produced by id.
func (b *Bag) Count(id Identified) int {
	n := 0
	for i := range b.items {
		if b.items[i].Is(id) {
			n++
		}
	}
	return n
}
