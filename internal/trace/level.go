package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff   Level = iota // no tracing
	LevelError              // only ring dumps on failure
	LevelPhase              // driver + pass boundaries
	LevelUnit               // per-unit spans
	LevelDebug              // everything, rule marks included
)

var levelNames = [...]string{"off", "error", "phase", "unit", "debug"}

// finest is the finest scope emitted at each level; 0 emits nothing.
var finest = [...]Scope{
	LevelOff:   0,
	LevelError: 0,
	LevelPhase: ScopePass,
	LevelUnit:  ScopeUnit,
	LevelDebug: ScopeRule,
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a flag value to a Level.
func ParseLevel(s string) (Level, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == want {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope are recorded at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(finest) {
		return false
	}
	return scope != 0 && scope <= finest[l]
}

// accepts is the filter every tracer applies; heartbeats bypass the level.
func accepts(l Level, ev *Event) bool {
	return ev.Kind == KindHeartbeat || l.ShouldEmit(ev.Scope)
}
