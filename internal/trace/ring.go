package trace

import (
	"io"
	"slices"
	"sync"
)

// RingTracer keeps the last N events in memory so a blocked gate or a crash
// can show what led to it.
type RingTracer struct {
	mu     sync.Mutex
	events []Event
	next   int
	filled bool
	level  Level
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = DefaultRingSize
	}
	return &RingTracer{events: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if !accepts(t.level, ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := *ev
	stamp(&stored)
	t.events[t.next] = stored
	t.next++
	if t.next == len(t.events) {
		t.next = 0
		t.filled = true
	}
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.filled {
		return slices.Clone(t.events[:t.next])
	}
	out := make([]Event, 0, len(t.events))
	out = append(out, t.events[t.next:]...)
	return append(out, t.events[:t.next]...)
}

// ForUnits returns the stored events of the given units plus the events that
// belong to no unit. No units means every event.
func (t *RingTracer) ForUnits(units ...string) []Event {
	events := t.Snapshot()
	if len(units) == 0 {
		return events
	}
	return slices.DeleteFunc(events, func(ev Event) bool {
		return ev.Unit != "" && !slices.Contains(units, ev.Unit)
	})
}

// Dump writes events to w.
func Dump(w io.Writer, events []Event, format Format) error {
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
