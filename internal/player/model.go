// Package player is a terminal front end for a playback engine. The engine
// owns the clock; the model only forwards keys and redraws on change.
package player

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/awmpietro/algotrace/internal/playback"
	"github.com/awmpietro/algotrace/internal/render"
	"github.com/awmpietro/algotrace/internal/trace"
	"github.com/awmpietro/algotrace/internal/trace/query"
)

const (
	minSpeed = 0.25
	maxSpeed = 16
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	kindStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// changedMsg tells the model to re-read the engine snapshot.
type changedMsg struct{}

type Options struct {
	Title string
	Speed float64
	// Clock is passed through to the engine; nil means wall time.
	Clock playback.Clock
	// ShowPlot adds an asciigraph panel of the current series.
	ShowPlot bool
	// Where is a step query; n jumps to the next matching step.
	Where string
}

type Model struct {
	title    string
	engine   *playback.Engine
	changes  chan struct{}
	snap     playback.Snapshot
	width    int
	showPlot bool
	quitting bool
	matches  []int
	whereErr error
}

func New(steps []trace.Step, opts Options) *Model {
	m := &Model{
		title:    opts.Title,
		changes:  make(chan struct{}, 1),
		showPlot: opts.ShowPlot,
	}
	m.engine = playback.New(steps, playback.Options{
		Clock: opts.Clock,
		Speed: opts.Speed,
		OnChange: func(playback.Snapshot) {
			// Coalesce: one pending signal is enough to trigger a redraw.
			select {
			case m.changes <- struct{}{}:
			default:
			}
		},
	})
	m.snap = m.engine.Snapshot()

	if opts.Where != "" {
		found, err := query.Filter(steps, opts.Where)
		m.whereErr = err
		for _, f := range found {
			m.matches = append(m.matches, f.Index)
		}
	}
	return m
}

// nextMatch returns the first matching index after the cursor, wrapping
// around, or -1 when nothing matches.
func (m *Model) nextMatch() int {
	if len(m.matches) == 0 {
		return -1
	}
	for _, i := range m.matches {
		if i > m.snap.CurrentStepIndex {
			return i
		}
	}
	return m.matches[0]
}

// Engine exposes the underlying engine, mainly for tests and scripting.
func (m *Model) Engine() *playback.Engine { return m.engine }

func (m *Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m *Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.snap = m.engine.Snapshot()
		return m, m.waitForChange()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			m.engine.Close()
			return m, tea.Quit
		case " ", "space", "p":
			m.engine.TogglePlay()
		case "right", "l":
			m.engine.Next()
		case "left", "h":
			m.engine.Prev()
		case "r":
			m.engine.Reset()
		case "g", "home":
			m.engine.Seek(0)
		case "G", "end":
			m.engine.Seek(m.snap.Total - 1)
		case "+", "=":
			m.engine.SetSpeed(min(m.snap.Speed*2, maxSpeed))
		case "-", "_":
			m.engine.SetSpeed(max(m.snap.Speed/2, minSpeed))
		case "v":
			m.showPlot = !m.showPlot
		case "n":
			if i := m.nextMatch(); i >= 0 {
				m.engine.Seek(i)
			}
		}
		m.snap = m.engine.Snapshot()
	}
	return m, nil
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteByte('\n')

	status := "paused"
	if m.snap.IsPlaying {
		status = "playing"
	}
	sb.WriteString(statusStyle.Render(fmt.Sprintf("step %d/%d  %.0f%%  %s  x%g",
		m.snap.CurrentStepIndex+1, m.snap.Total, m.snap.Progress, status, m.snap.Speed)))
	if m.whereErr != nil {
		sb.WriteString("  " + statusStyle.Render("where: "+m.whereErr.Error()))
	} else if len(m.matches) > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  %d matches", len(m.matches))))
	}
	sb.WriteString("\n\n")

	if step := m.snap.CurrentStep; step != nil {
		sb.WriteString(kindStyle.Render(step.Kind.String()))
		sb.WriteByte(' ')
		sb.WriteString(step.Description)
		sb.WriteByte('\n')
		if step.Metrics != nil {
			sb.WriteString(statusStyle.Render(fmt.Sprintf("comparisons=%d swaps=%d",
				step.Metrics.Comparisons, step.Metrics.Swaps)))
			sb.WriteByte('\n')
		}
	} else {
		sb.WriteString("press space to play\n")
	}

	if body := m.body(); body != "" {
		sb.WriteString(panelStyle.Render(strings.TrimRight(body, "\n")))
		sb.WriteByte('\n')
	}

	sb.WriteString(helpStyle.Render("space play/pause · ←/→ step · g/G first/last · +/- speed · n next match · r reset · v plot · q quit"))
	sb.WriteByte('\n')
	return sb.String()
}

// body renders whichever visual the replayed state carries.
func (m *Model) body() string {
	st := m.engine.State()

	var parts []string
	if len(st.DPTable) > 0 {
		parts = append(parts, render.Table(st))
	}
	if len(st.GreedyDecisions) > 0 {
		parts = append(parts, render.Decisions(st))
	}
	if out := render.Graph(st); out != "" {
		parts = append(parts, out)
	}
	if out := render.Forest(st); out != "" {
		parts = append(parts, out)
	}
	if m.showPlot {
		width := 60
		if m.width > 20 {
			width = min(m.width-12, 100)
		}
		if out := render.ResultSeries(st, render.PlotOptions{Width: width, Height: 8}); out != "" {
			parts = append(parts, out)
		}
	}
	if st.Solution != nil {
		parts = append(parts, fmt.Sprintf("result=%d found=%v", st.Solution.Value, st.Solution.Found))
	}
	return strings.Join(parts, "\n")
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(steps []trace.Step, opts Options) error {
	m := New(steps, opts)
	defer m.engine.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
