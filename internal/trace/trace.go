package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Unreachable is the "infinity" sentinel for DP cells and graph distances.
const Unreachable = math.MaxInt32

type Metrics struct {
	TimeTaken       float64 `json:"time_taken"`
	TimeComplexity  string  `json:"time_complexity"`
	SpaceComplexity string  `json:"space_complexity"`
	StepCount       int     `json:"step_count"`
}

// Trace is the complete output of one solver run. It is never mutated after
// the solver returns.
type Trace struct {
	Steps         []Step  `json:"steps"`
	ResultValue   int     `json:"result_value"`
	SelectedItems []int   `json:"selected_items"`
	Metrics       Metrics `json:"metrics"`
}

// Solution returns the payload of the terminal SOLUTION step, if any.
func (t *Trace) Solution() (*Solution, bool) {
	if t == nil || len(t.Steps) == 0 {
		return nil, false
	}
	last := t.Steps[len(t.Steps)-1]
	if last.Kind != KindSolution {
		return nil, false
	}
	sol, ok := last.Payload.(*Solution)
	return sol, ok
}

// Hash is a sha256 over everything that must be reproducible across runs.
// Wall-clock time is excluded.
func (t *Trace) Hash() (string, error) {
	if t == nil {
		return "", errors.New("trace is nil")
	}
	canonical := struct {
		Steps           []Step `json:"steps"`
		ResultValue     int    `json:"result_value"`
		SelectedItems   []int  `json:"selected_items"`
		TimeComplexity  string `json:"time_complexity"`
		SpaceComplexity string `json:"space_complexity"`
		StepCount       int    `json:"step_count"`
	}{
		Steps:           t.Steps,
		ResultValue:     t.ResultValue,
		SelectedItems:   t.SelectedItems,
		TimeComplexity:  t.Metrics.TimeComplexity,
		SpaceComplexity: t.Metrics.SpaceComplexity,
		StepCount:       t.Metrics.StepCount,
	}
	b, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("canonicalize trace: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Validate checks the structural contract every solver must honour: INIT
// first, SOLUTION last, legal payload shapes, monotonic counters, and no step
// referencing state that an earlier step did not establish.
func (t *Trace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if len(t.Steps) == 0 {
		return errors.New("trace has no steps")
	}
	if t.Metrics.StepCount != len(t.Steps) {
		return fmt.Errorf("step_count %d does not match %d steps", t.Metrics.StepCount, len(t.Steps))
	}
	if t.Steps[0].Kind != KindInit {
		return fmt.Errorf("first step must be INIT, got %s", t.Steps[0].Kind)
	}
	if last := t.Steps[len(t.Steps)-1]; last.Kind != KindSolution {
		return fmt.Errorf("last step must be SOLUTION, got %s", last.Kind)
	}

	var (
		table *TableInit
		prev  Counters
		roots map[int]bool
		known map[int]bool
	)

	for i, s := range t.Steps {
		if !s.Kind.Valid() {
			return fmt.Errorf("step %d: invalid kind %d", i, uint8(s.Kind))
		}
		if s.Payload == nil {
			return fmt.Errorf("step %d: %s step has no payload", i, s.Kind)
		}
		if !s.Kind.Allows(s.Payload.Shape()) {
			return fmt.Errorf("step %d: %s step cannot carry %s payload", i, s.Kind, s.Payload.Shape())
		}
		if s.Metrics != nil {
			if s.Metrics.Comparisons < prev.Comparisons || s.Metrics.Swaps < prev.Swaps {
				return fmt.Errorf("step %d: counters decreased", i)
			}
			prev = *s.Metrics
		}

		switch p := s.Payload.(type) {
		case *TableInit:
			if p.Rows < 0 || p.Cols < 0 {
				return fmt.Errorf("step %d: negative table shape %dx%d", i, p.Rows, p.Cols)
			}
			table = p
		case *CellUpdate:
			if err := checkCell(table, p.I, p.J); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		case *CellFocus:
			if err := checkCell(table, p.I, p.J); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		case *ForestInit:
			roots = make(map[int]bool, len(p.Nodes))
			known = make(map[int]bool, len(p.Nodes))
			for _, n := range p.Nodes {
				roots[n.ID] = true
				known[n.ID] = true
			}
		case *MergeFocus:
			if !roots[p.LeftID] || !roots[p.RightID] {
				return fmt.Errorf("step %d: merge focus references non-root %d/%d", i, p.LeftID, p.RightID)
			}
		case *Merge:
			if !roots[p.LeftChildID] || !roots[p.RightChildID] || p.LeftChildID == p.RightChildID {
				return fmt.Errorf("step %d: merge references non-root %d/%d", i, p.LeftChildID, p.RightChildID)
			}
			if known[p.NewNodeID] {
				return fmt.Errorf("step %d: merge reuses node id %d", i, p.NewNodeID)
			}
			delete(roots, p.LeftChildID)
			delete(roots, p.RightChildID)
			roots[p.NewNodeID] = true
			known[p.NewNodeID] = true
		}
	}

	return nil
}

func checkCell(table *TableInit, i, j int) error {
	if table == nil {
		return fmt.Errorf("cell (%d,%d) referenced before table INIT", i, j)
	}
	if i < 0 || i >= table.Rows || j < 0 || j >= table.Cols {
		return fmt.Errorf("cell (%d,%d) outside %dx%d table", i, j, table.Rows, table.Cols)
	}
	return nil
}
