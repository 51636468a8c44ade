package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	// KindPoint is an instant event inside a span.
	KindPoint
	// KindHeartbeat is the periodic liveness signal of long runs.
	KindHeartbeat
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeDriver covers CLI commands and multi-unit runs.
	ScopeDriver Scope = iota + 1
	// ScopePass covers load, verify, cache and render phases.
	ScopePass
	// ScopeUnit covers the verification of one unit.
	ScopeUnit
	// ScopeRule covers a single rule application.
	ScopeRule
)

var scopeNames = [...]string{
	ScopeDriver: "driver",
	ScopePass:   "pass",
	ScopeUnit:   "unit",
	ScopeRule:   "rule",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is one trace record. Unit names the unit document the event belongs
// to; units are verified concurrently, so it is what separates interleaved
// events. Driver-level events have no unit.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for root spans
	Unit     string
	Name     string // e.g. "verify", "cache-hit", "dart-name-clash"
	Detail   string
	Attrs    map[string]string
}
