package player

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/algotrace/internal/playback"
	"github.com/awmpietro/algotrace/internal/solver"
	"github.com/awmpietro/algotrace/internal/trace"
)

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

// idleClock never fires, so only keys move the cursor.
type idleClock struct{ scheduled int }

func (c *idleClock) AfterFunc(time.Duration, func()) playback.Timer {
	c.scheduled++
	return idleTimer{}
}

func knapsackSteps() []trace.Step {
	return solver.KnapsackDP(solver.KnapsackInput{
		Capacity: 5,
		Items:    []solver.Item{{ID: 1, Weight: 2, Value: 3}, {ID: 2, Weight: 3, Value: 4}},
	}).Steps
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestModel_StepsWithArrowKeys(t *testing.T) {
	m := New(knapsackSteps(), Options{Title: "knapsack", Clock: &idleClock{}})
	assert.Equal(t, -1, m.snap.CurrentStepIndex)
	assert.Contains(t, m.View(), "press space to play")

	press(m, tea.KeyMsg{Type: tea.KeyRight}, runes("l"))
	assert.Equal(t, 1, m.snap.CurrentStepIndex)

	press(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, m.snap.CurrentStepIndex)

	view := m.View()
	assert.Contains(t, view, "knapsack")
	assert.Contains(t, view, "INIT")
	assert.Contains(t, view, "step 1/")
}

func TestModel_SeekAndReset(t *testing.T) {
	steps := knapsackSteps()
	m := New(steps, Options{Clock: &idleClock{}})

	press(m, runes("G"))
	assert.Equal(t, len(steps)-1, m.snap.CurrentStepIndex)
	assert.Contains(t, m.View(), "result=7 found=true")

	press(m, runes("g"))
	assert.Equal(t, 0, m.snap.CurrentStepIndex)

	press(m, runes("r"))
	assert.Equal(t, -1, m.snap.CurrentStepIndex)
}

func TestModel_PlayPauseAndSpeed(t *testing.T) {
	clock := &idleClock{}
	m := New(knapsackSteps(), Options{Clock: clock, Speed: 1})

	press(m, runes(" "))
	assert.True(t, m.snap.IsPlaying)
	assert.Equal(t, 1, clock.scheduled)
	assert.Contains(t, m.View(), "playing")

	press(m, runes("+"), runes("+"))
	assert.Equal(t, 4.0, m.snap.Speed)

	for i := 0; i < 10; i++ {
		press(m, runes("-"))
	}
	assert.Equal(t, minSpeed, m.snap.Speed)

	press(m, runes("p"))
	assert.False(t, m.snap.IsPlaying)
}

func TestModel_ChangeSignalRefreshesSnapshot(t *testing.T) {
	m := New(knapsackSteps(), Options{Clock: &idleClock{}})
	cmd := m.Init()
	require.NotNil(t, cmd)

	// Drive the engine directly, as a timer tick would.
	m.Engine().Next()
	msg := cmd()
	assert.IsType(t, changedMsg{}, msg)

	_, next := m.Update(msg)
	assert.NotNil(t, next)
	assert.Equal(t, 0, m.snap.CurrentStepIndex)
}

func TestModel_PlotToggleAndQuit(t *testing.T) {
	m := New(knapsackSteps(), Options{Clock: &idleClock{}})
	press(m, tea.WindowSizeMsg{Width: 80, Height: 40}, runes("G"), runes("v"))
	assert.True(t, m.showPlot)
	assert.Contains(t, m.View(), "dp row")

	cmd := press(m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "", m.View())

	// A closed engine ignores play.
	m.Engine().Play()
	assert.False(t, m.Engine().Snapshot().IsPlaying)
}

func TestModel_RendersEveryFamily(t *testing.T) {
	cases := map[string]*trace.Trace{
		"✓ #": solver.KnapsackGreedy(solver.KnapsackInput{
			Capacity: 5,
			Items:    []solver.Item{{ID: 1, Weight: 2, Value: 3}, {ID: 2, Weight: 3, Value: 4}},
		}),
		"freq=": solver.Huffman(solver.HuffmanInput{Text: "aab"}),
		"via":   solver.Dijkstra(solver.GraphInput{GraphDOT: `digraph { A -> B [weight=2]; }`, StartNode: "A"}),
	}
	for want, tr := range cases {
		m := New(tr.Steps, Options{Clock: &idleClock{}})
		press(m, runes("G"))
		view := m.View()
		assert.True(t, strings.Contains(view, want), "%q not in\n%s", want, view)
	}
}

func TestModel_NextMatchWraps(t *testing.T) {
	steps := knapsackSteps()
	m := New(steps, Options{Clock: &idleClock{}, Where: `value == 7`})
	require.NoError(t, m.whereErr)
	require.Len(t, m.matches, 2)
	assert.Contains(t, m.View(), "2 matches")

	press(m, runes("n"))
	assert.Equal(t, m.matches[0], m.snap.CurrentStepIndex)
	press(m, runes("n"))
	assert.Equal(t, m.matches[1], m.snap.CurrentStepIndex)
	press(m, runes("n"))
	assert.Equal(t, m.matches[0], m.snap.CurrentStepIndex)

	bad := New(steps, Options{Clock: &idleClock{}, Where: "os.Exit(1)"})
	assert.Error(t, bad.whereErr)
	assert.Contains(t, bad.View(), "where:")
	press(bad, runes("n"))
	assert.Equal(t, -1, bad.snap.CurrentStepIndex)
}
