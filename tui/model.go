package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-beatclock/engine"
	"go-beatclock/pattern"
)

// Model is the terminal front end: a 16x16 step grid with a playhead driven
// by the scheduler's "step" observer events.
type Model struct {
	Engine *engine.Scheduler
	Bank   *pattern.Bank
	Store  *pattern.Store

	notes chan engine.Notification
	subs  []*engine.Subscription

	playhead int // last step reported by the scheduler, -1 when stopped
	editing  int // pattern being edited
	row      int // cursor row (voice)
	col      int // cursor column (step)
	status   string
	quitting bool
}

// NotificationMsg wraps a scheduler event for bubbletea
type NotificationMsg engine.Notification

// NewModel wires the model to the scheduler's observer events
func NewModel(eng *engine.Scheduler, bank *pattern.Bank, store *pattern.Store) *Model {
	m := &Model{
		Engine:   eng,
		Bank:     bank,
		Store:    store,
		notes:    make(chan engine.Notification, 64),
		playhead: -1,
	}

	// Observers run on the dispatch goroutine; forward without blocking it.
	forward := func(n engine.Notification) {
		select {
		case m.notes <- n:
		default:
		}
	}
	for _, name := range []string{"step", "play", "pause", "stop", "tempo"} {
		m.subs = append(m.subs, eng.On(name, forward))
	}
	return m
}

func listen(notes chan engine.Notification) tea.Cmd {
	return func() tea.Msg {
		return NotificationMsg(<-notes)
	}
}

func (m *Model) Init() tea.Cmd {
	return listen(m.notes)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Engine.Stop()
			for _, sub := range m.subs {
				m.Engine.Off(sub)
			}
			return m, tea.Quit

		case "p":
			if m.Engine.State() == engine.Playing {
				m.Engine.Pause()
			} else {
				m.Engine.Play()
			}

		case "s":
			m.Engine.Stop()
			m.playhead = -1

		case "+", "=":
			m.Engine.SetTempo(m.Engine.Tempo() + 5)
		case "-", "_":
			m.Engine.SetTempo(m.Engine.Tempo() - 5)

		case "h", "left":
			if m.col > 0 {
				m.col--
			}
		case "l", "right":
			if m.col < pattern.MaxSteps-1 {
				m.col++
			}
		case "j", "down":
			if m.row < pattern.NumSlots-1 {
				m.row++
			}
		case "k", "up":
			if m.row > 0 {
				m.row--
			}

		case " ":
			m.Bank.ToggleStep(m.editing, m.row, m.col)

		case "g":
			m.Engine.Seek(m.col)

		case "<", ",":
			if m.editing > 0 {
				m.editing--
			}
		case ">", ".":
			if m.editing < pattern.NumPatterns-1 {
				m.editing++
			}
		case "enter":
			m.Bank.QueuePattern(m.editing)

		case "[":
			m.Engine.OptimizeLatency()
			m.status = "profile: latency (10ms tick / 50ms lookahead)"
		case "]":
			m.Engine.OptimizeStability()
			m.status = "profile: stability (25ms tick / 200ms lookahead)"

		case "w":
			if name, err := m.Store.Save(m.Bank); err != nil {
				m.status = "save failed: " + err.Error()
			} else {
				m.status = "saved " + name
			}
		case "r":
			if err := m.Store.Load(m.Bank, ""); err != nil {
				m.status = "load failed: " + err.Error()
			} else {
				m.status = "loaded latest bank"
			}
		}

	case NotificationMsg:
		switch msg.Name {
		case "step":
			m.playhead = msg.Step
		case "stop":
			m.playhead = -1
		}
		return m, listen(m.notes)
	}

	return m, nil
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("215"))

	pos := m.Engine.Position()
	current, next := m.Bank.Current()

	queued := ""
	if next >= 0 {
		queued = fmt.Sprintf(" queued:%d", next+1)
	}
	header := headerStyle.Render(fmt.Sprintf(
		"go-beatclock  %-7s  %3.0fbpm  bar:%d beat:%d  pat:%d/%d edit:%d%s",
		strings.ToUpper(pos.State.String()), pos.Tempo, pos.Bar+1, pos.Beat+1,
		current+1, pattern.NumPatterns, m.editing+1, queued))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")

	pat := m.Bank.Snapshot(m.editing)
	for r := 0; r < pattern.NumSlots; r++ {
		row := &pat.Rows[r]
		out.WriteString(fmt.Sprintf("%-5s ", pattern.SlotNames[r]))
		for c := 0; c < pattern.MaxSteps; c++ {
			isCursor := r == m.row && c == m.col
			onPlayhead := m.editing == current && c == m.playhead

			var char string
			switch {
			case c >= row.Length:
				char = "-"
			case onPlayhead && row.Steps[c].Active:
				char = "◆"
			case onPlayhead:
				char = "▶"
			case row.Steps[c].Active:
				char = "●"
			default:
				char = "·"
			}
			if isCursor {
				out.WriteString("[" + char + "]")
			} else {
				out.WriteString(" " + char + " ")
			}
		}
		out.WriteString("\n")
	}

	met := m.Engine.Metrics()
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(fmt.Sprintf(
		"scheduled:%d missed:%d jitter:%.1fms latency:%.2fms obs-err:%d",
		met.ScheduledCount, met.MissedCount, met.Jitter*1000,
		met.LastLatency*1000, met.ObserverErrors)))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(
		"p:play/pause s:stop +/-:tempo hjkl:nav space:toggle g:seek </>:pattern enter:queue [/]:profile w:save r:load q:quit"))

	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(statusStyle.Render(m.status))
	}

	return out.String()
}
