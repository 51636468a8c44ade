package ui

import (
	"fmt"
	"strings"
	"testing"

	"dotgate/internal/driver"
)

func TestProgressModelTracksUnits(t *testing.T) {
	m := NewProgressModel("dotgate check", []string{"a.yaml", "b.yaml"}, nil).(*progressModel)

	m.applyEvent(driver.Event{Unit: "a.yaml", Stage: driver.StageVerify, Status: driver.StatusWorking})
	if m.items[0].status != "verifying" || m.stageLabel != "verifying" {
		t.Fatalf("item = %+v, stage label %q", m.items[0], m.stageLabel)
	}
	if got := m.fraction(); got != 0.25 {
		t.Fatalf("fraction = %v, want 0.25", got)
	}

	m.applyEvent(driver.Event{Unit: "a.yaml", Stage: driver.StageVerify, Status: driver.StatusBlocked})
	m.applyEvent(driver.Event{Unit: "b.yaml", Stage: driver.StageCache, Status: driver.StatusDone})
	m.applyEvent(driver.Event{Unit: "unknown.yaml", Stage: driver.StageLoad, Status: driver.StatusError})
	if got := m.fraction(); got != 1 {
		t.Fatalf("fraction = %v, want 1", got)
	}

	view := m.View()
	for _, want := range []string{"dotgate check", "2/2 units", "1 blocked", "1 cached", "a.yaml", "b.yaml"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestProgressModelFoldsPassedUnits(t *testing.T) {
	units := make([]string, maxRows+5)
	for i := range units {
		units[i] = fmt.Sprintf("u%02d.yaml", i)
	}
	m := NewProgressModel("check", units, nil).(*progressModel)
	for _, u := range units[:maxRows+3] {
		m.applyEvent(driver.Event{Unit: u, Stage: driver.StageVerify, Status: driver.StatusDone})
	}
	last := units[len(units)-1]
	m.applyEvent(driver.Event{Unit: last, Stage: driver.StageVerify, Status: driver.StatusBlocked})

	rows, hidden := m.visibleRows()
	if len(rows) != maxRows || hidden != 5 {
		t.Fatalf("rows=%d hidden=%d", len(rows), hidden)
	}
	// blocked and still queued units come before passed ones
	if rows[0].path != units[maxRows+3] || rows[1].path != last {
		t.Fatalf("first rows = %s, %s", rows[0].path, rows[1].path)
	}
	if !strings.Contains(m.View(), "… 5 more units") {
		t.Fatalf("view:\n%s", m.View())
	}
}

func TestProgressModelQuitsWhenEventsClose(t *testing.T) {
	events := make(chan driver.Event)
	close(events)
	m := NewProgressModel("check", []string{"a.yaml"}, events).(*progressModel)
	msg := m.listenForEvent()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("msg = %T, want doneMsg", msg)
	}
	_, cmd := m.Update(msg)
	if !m.done || cmd == nil {
		t.Fatal("model must finish and quit")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"units/very/long/path.yaml", 10, "units/v..."},
		{"名前名前名前", 8, "名前..."},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
