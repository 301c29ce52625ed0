package replay

import (
	"sync"

	"github.com/awmpietro/algotrace/internal/trace"
)

// Cursor caches the last folded state so forward moves only apply the new
// steps. Moving backwards refolds from the start. Results are always equal to
// Replay for the same index.
type Cursor struct {
	mu    sync.Mutex
	steps []trace.Step
	state State
}

func NewCursor(steps []trace.Step) *Cursor {
	return &Cursor{steps: steps, state: emptyState()}
}

func (c *Cursor) Len() int { return len(c.steps) }

// Steps returns the underlying steps. They must not be modified.
func (c *Cursor) Steps() []trace.Step { return c.steps }

// At returns the state after folding steps 0..i, with i clamped.
func (c *Cursor) At(i int) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	i = Clamp(i, len(c.steps))
	if i < c.state.Index {
		c.state = emptyState()
	}
	for j := c.state.Index + 1; j <= i; j++ {
		apply(&c.state, j, &c.steps[j])
	}
	return c.state.clone()
}
