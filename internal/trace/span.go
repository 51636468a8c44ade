package trace

import (
	"sync/atomic"
	"time"
)

var (
	seq     atomic.Uint64
	spanIDs atomic.Uint64
)

// now is replaced in tests.
var now = time.Now

// stamp assigns the next global sequence number to ev.
func stamp(ev *Event) {
	ev.Seq = seq.Add(1)
}

// Span is one open begin/end pair. A span of a filtered scope is inert: its
// methods do nothing and ID returns 0.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	unit    string
	scope   Scope
	name    string
	started time.Time
	attrs   map[string]string
}

var inert = &Span{}

func begin(t Tracer, scope Scope, name string, parent SpanContext) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return inert
	}
	s := &Span{
		tracer:  t,
		id:      spanIDs.Add(1),
		parent:  parent.SpanID,
		unit:    parent.Unit,
		scope:   scope,
		name:    name,
		started: now(),
	}
	t.Emit(s.event(KindSpanBegin, s.started, ""))
	return s
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	return &Event{
		Time:     at,
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Unit:     s.unit,
		Name:     s.name,
		Detail:   detail,
	}
}

// End closes the span and returns its duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	end := now()
	ev := s.event(KindSpanEnd, end, detail)
	ev.Attrs = s.attrs
	s.tracer.Emit(ev)
	return end.Sub(s.started)
}

// Attr attaches key=value to the end event.
func (s *Span) Attr(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.attrs == nil {
		s.attrs = make(map[string]string, 2)
	}
	s.attrs[key] = value
	return s
}

// ID is 0 for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}
