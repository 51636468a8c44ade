package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeUnit, false},
		{LevelUnit, ScopeUnit, true},
		{LevelUnit, ScopeRule, false},
		{LevelDebug, ScopeRule, true},
		{Level(42), ScopeDriver, false},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel("UNIT"); err != nil || l != LevelUnit {
		t.Fatalf("ParseLevel(UNIT) = %v, %v", l, err)
	}
	if _, err := ParseLevel("verbose"); err == nil || !strings.Contains(err.Error(), "off|error|phase|unit|debug") {
		t.Fatalf("ParseLevel(verbose) err = %v", err)
	}
	if m, err := ParseMode("BOTH"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode(BOTH) = %v, %v", m, err)
	}
	if f, ok := ParseFormat("jsonl"); !ok || f != FormatNDJSON {
		t.Fatalf("ParseFormat(jsonl) = %v, %v", f, ok)
	}
}

func TestRingTracerWraps(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Mark(ctx, ScopeRule, name, "")
	}
	events := ring.Snapshot()
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	var names []string
	for _, ev := range events {
		names = append(names, ev.Name)
	}
	if strings.Join(names, "") != "cde" {
		t.Fatalf("names = %v, want c d e", names)
	}
	if events[0].Seq >= events[2].Seq {
		t.Fatalf("sequence not monotonic: %d then %d", events[0].Seq, events[2].Seq)
	}
}

func TestSpansCarryParentAndUnit(t *testing.T) {
	ring := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), ring)

	ctx, outer := Start(ctx, ScopeDriver, "check")
	unitCtx, inner := Start(ForUnit(ctx, "a.yaml"), ScopeUnit, "verify")
	Mark(unitCtx, ScopeRule, "dart-name-clash", "NAM1001")
	inner.Attr("errors", "1").End("blocked")
	outer.End("")

	events := ring.Snapshot()
	if len(events) != 5 {
		t.Fatalf("events = %d, want 5", len(events))
	}
	if events[0].Unit != "" {
		t.Fatalf("driver span attributed to %q", events[0].Unit)
	}
	if events[1].ParentID != outer.ID() || events[1].Unit != "a.yaml" {
		t.Fatalf("inner begin = %+v", events[1])
	}
	if events[2].Kind != KindPoint || events[2].ParentID != inner.ID() || events[2].Unit != "a.yaml" {
		t.Fatalf("mark = %+v", events[2])
	}
	if events[3].Kind != KindSpanEnd || events[3].Attrs["errors"] != "1" {
		t.Fatalf("inner end = %+v", events[3])
	}
}

func TestRingForUnits(t *testing.T) {
	ring := NewRingTracer(16, LevelUnit)
	ctx := WithTracer(context.Background(), ring)
	Mark(ctx, ScopeDriver, "start", "")
	Mark(ForUnit(ctx, "a.yaml"), ScopeUnit, "cache-hit", "")
	Mark(ForUnit(ctx, "b.yaml"), ScopeUnit, "cache-hit", "")

	got := ring.ForUnits("b.yaml")
	if len(got) != 2 || got[0].Name != "start" || got[1].Unit != "b.yaml" {
		t.Fatalf("ForUnits(b.yaml) = %+v", got)
	}
	if n := len(ring.ForUnits()); n != 3 {
		t.Fatalf("ForUnits() = %d events", n)
	}

	var buf bytes.Buffer
	if err := Dump(&buf, got, FormatText); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 2 || strings.Contains(buf.String(), "a.yaml") {
		t.Fatalf("dump = %q", buf.String())
	}
}

func TestLevelFiltersSpans(t *testing.T) {
	ring := NewRingTracer(16, LevelPhase)
	ctx := WithTracer(context.Background(), ring)
	got, span := Start(ctx, ScopeUnit, "verify")
	if span.ID() != 0 || got != ctx {
		t.Fatal("unit span must be inert at phase level")
	}
	span.Attr("k", "v").End("")
	Mark(ctx, ScopeRule, "r", "")
	if n := len(ring.Snapshot()); n != 0 {
		t.Fatalf("stored %d events", n)
	}
}

func TestStreamFormats(t *testing.T) {
	ev := &Event{
		Time:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Kind:   KindSpanEnd,
		Scope:  ScopeUnit,
		SpanID: 7,
		Unit:   "units/a.yaml",
		Name:   "verify",
		Detail: "blocked",
		Attrs:  map[string]string{"warnings": "2", "errors": "1"},
	}

	var text bytes.Buffer
	NewStreamTracer(&text, LevelDebug, FormatText).Emit(ev)
	want := "03:04:05.000 unit   [units/a.yaml] ← verify (blocked) {errors=1, warnings=2}\n"
	if text.String() != want {
		t.Fatalf("text = %q\nwant %q", text.String(), want)
	}

	var nd bytes.Buffer
	NewStreamTracer(&nd, LevelDebug, FormatNDJSON).Emit(ev)
	var decoded map[string]any
	if err := json.Unmarshal(nd.Bytes(), &decoded); err != nil {
		t.Fatalf("ndjson: %v", err)
	}
	if decoded["kind"] != "end" || decoded["unit"] != "units/a.yaml" || decoded["detail"] != "blocked" {
		t.Fatalf("decoded = %v", decoded)
	}
}

func TestNewPicksFormatFromExtension(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf, OutputPath: "run.ndjson"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.(*MultiTracer); !ok {
		t.Fatalf("tracer = %T, want *MultiTracer", tr)
	}
	Mark(WithTracer(context.Background(), tr), ScopePass, "load", "")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected ndjson output, got %q", buf.String())
	}
	ring, ok := RingOf(tr)
	if !ok || len(ring.Snapshot()) != 1 {
		t.Fatal("ring child must see the event")
	}

	single, err := New(Config{Level: LevelUnit, Mode: ModeRing, RingSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := single.(*RingTracer); !ok {
		t.Fatalf("ring mode = %T", single)
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Fatal("off tracer must be disabled")
	}
	if _, ok := RingOf(tr); ok {
		t.Fatal("nop has no ring")
	}
}

func TestHeartbeatStops(t *testing.T) {
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatal("heartbeat must not start without tracing")
	}
	ring := NewRingTracer(64, LevelPhase)
	h := StartHeartbeat(ring, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	h.Stop()
	h.Stop()
	events := ring.Snapshot()
	if len(events) == 0 {
		t.Fatal("no heartbeats recorded")
	}
	if events[0].Detail != "#1" || events[0].Attrs["elapsed"] == "" {
		t.Fatalf("first heartbeat = %+v", events[0])
	}
	time.Sleep(5 * time.Millisecond)
	if len(ring.Snapshot()) != len(events) {
		t.Fatal("heartbeat kept running after Stop")
	}
}
