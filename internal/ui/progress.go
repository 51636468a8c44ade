// Package ui renders the terminal progress view of multi-unit checks.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"dotgate/internal/driver"
)

// maxRows bounds the unit list; passed units are folded first.
const maxRows = 12

const statusWidth = 10

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	statusStyles = map[string]lipgloss.Style{
		"ok":        lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"cached":    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"blocked":   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		"error":     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"loading":   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"cache":     lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"verifying": lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
)

type progressModel struct {
	title      string
	events     <-chan driver.Event
	spinner    spinner.Model
	bar        progress.Model
	items      []unitItem
	index      map[string]int
	stageLabel string
	width      int
	done       bool
}

type unitItem struct {
	path   string
	status string
	stage  driver.Stage
	final  bool
}

// passed is true for units that went through the gate cleanly.
func (it unitItem) passed() bool {
	return it.final && (it.status == "ok" || it.status == "cached")
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders the progress of
// a multi-unit check. The model quits when events is closed.
func NewProgressModel(title string, units []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		items:   make([]unitItem, len(units)),
		index:   make(map[string]int, len(units)),
		width:   80,
	}
	for i, unit := range units {
		m.items[i] = unitItem{path: unit, status: "queued"}
		m.index[unit] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(driver.Event(msg)), m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(10, msg.Width-4)
		}
		return m, nil
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// tally counts finished units by outcome.
type tally struct {
	finished, blocked, failed, cached int
}

func (m *progressModel) tally() tally {
	var t tally
	for _, it := range m.items {
		if !it.final {
			continue
		}
		t.finished++
		switch it.status {
		case "blocked":
			t.blocked++
		case "error":
			t.failed++
		case "cached":
			t.cached++
		}
	}
	return t
}

func (m *progressModel) header() string {
	t := m.tally()
	parts := []string{fmt.Sprintf("%d/%d units", t.finished, len(m.items))}
	if t.blocked > 0 {
		parts = append(parts, fmt.Sprintf("%d blocked", t.blocked))
	}
	if t.failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed to load", t.failed))
	}
	if t.cached > 0 {
		parts = append(parts, fmt.Sprintf("%d cached", t.cached))
	}
	head := m.title
	if m.stageLabel != "" && !m.done {
		head += " (" + m.stageLabel + ")"
	}
	head += "  " + strings.Join(parts, ", ")
	if m.done {
		return "done: " + head
	}
	return m.spinner.View() + " " + head
}

// visibleRows picks the rows to draw: everything when it fits, otherwise
// the units that still run or failed, then as many passed ones as fit.
func (m *progressModel) visibleRows() (rows []unitItem, hidden int) {
	if len(m.items) <= maxRows {
		return m.items, 0
	}
	room := maxRows
	for _, it := range m.items {
		if !it.passed() && room > 0 {
			rows = append(rows, it)
			room--
		}
	}
	for _, it := range m.items {
		if it.passed() && room > 0 {
			rows = append(rows, it)
			room--
		}
	}
	return rows, len(m.items) - len(rows)
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.header()))
	b.WriteString("\n\n")

	nameWidth := max(20, m.width-statusWidth-4)
	rows, hidden := m.visibleRows()
	for _, it := range rows {
		style, ok := statusStyles[it.status]
		if !ok {
			style = mutedStyle
		}
		fmt.Fprintf(&b, "  %s %s\n", style.Render(fmt.Sprintf("%*s", statusWidth, it.status)), truncate(it.path, nameWidth))
	}
	if hidden > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  … %d more units", hidden)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	idx, ok := m.index[ev.Unit]
	if !ok {
		return nil
	}
	it := &m.items[idx]
	it.status = statusLabel(ev.Stage, ev.Status)
	it.stage = ev.Stage
	it.final = ev.Status.Final()
	if !it.final {
		m.stageLabel = ev.Stage.String()
	}
	return m.bar.SetPercent(m.fraction())
}

// stageWeight is the share of a unit's work done once it reaches a stage.
var stageWeight = map[driver.Stage]float64{
	driver.StageLoad:   0.1,
	driver.StageCache:  0.3,
	driver.StageVerify: 0.5,
}

// fraction weights finished units fully and running ones by stage.
func (m *progressModel) fraction() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, it := range m.items {
		if it.final {
			total++
			continue
		}
		total += stageWeight[it.stage]
	}
	return total / float64(len(m.items))
}

func statusLabel(stage driver.Stage, status driver.Status) string {
	switch status {
	case driver.StatusQueued:
		return "queued"
	case driver.StatusDone:
		if stage == driver.StageCache {
			return "cached"
		}
		return "ok"
	case driver.StatusBlocked:
		return "blocked"
	case driver.StatusError:
		return "error"
	}
	return stage.String()
}

// truncate shortens value to width terminal cells, marking the cut.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
