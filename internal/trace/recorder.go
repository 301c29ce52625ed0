package trace

import (
	"fmt"
	"time"
)

// Recorder accumulates steps for a single solver run. It is not safe for
// concurrent use; solvers are synchronous.
type Recorder struct {
	steps    []Step
	counters Counters
	started  time.Time
	now      func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{started: time.Now(), now: time.Now}
}

// Compare records n comparisons against the cumulative counters.
func (r *Recorder) Compare(n int) { r.counters.Comparisons += n }

// Swap records n swaps (heap moves, sort exchanges) against the cumulative counters.
func (r *Recorder) Swap(n int) { r.counters.Swaps += n }

func (r *Recorder) Counters() Counters { return r.counters }

func (r *Recorder) Len() int { return len(r.steps) }

// Emit appends a step. The description is formatted only when args are given.
func (r *Recorder) Emit(kind Kind, payload Payload, desc string, args ...any) {
	if len(args) > 0 {
		desc = fmt.Sprintf(desc, args...)
	}
	c := r.counters
	r.steps = append(r.steps, Step{
		Kind:        kind,
		Description: desc,
		Payload:     payload,
		Metrics:     &c,
	})
}

func (r *Recorder) Init(p Payload, desc string, args ...any) { r.Emit(KindInit, p, desc, args...) }

func (r *Recorder) Update(p Payload, desc string, args ...any) { r.Emit(KindUpdate, p, desc, args...) }

func (r *Recorder) Highlight(p Payload, desc string, args ...any) {
	r.Emit(KindHighlight, p, desc, args...)
}

func (r *Recorder) Info(desc string, args ...any) {
	if len(args) > 0 {
		desc = fmt.Sprintf(desc, args...)
	}
	r.Emit(KindInfo, &Note{Text: desc}, desc)
}

// Decide appends a PICK when picked is true, a REJECT otherwise.
func (r *Recorder) Decide(picked bool, p Payload, desc string, args ...any) {
	kind := KindReject
	if picked {
		kind = KindPick
	}
	r.Emit(kind, p, desc, args...)
}

// Finish appends the terminal SOLUTION step and seals the trace.
func (r *Recorder) Finish(sol *Solution, result int, selected []int, timeComplexity, spaceComplexity string) *Trace {
	if sol == nil {
		sol = &Solution{Value: result, Found: true}
	}
	r.Emit(KindSolution, sol, solutionDescription(sol))

	if selected == nil {
		selected = []int{}
	}
	steps := r.steps
	r.steps = nil

	return &Trace{
		Steps:         steps,
		ResultValue:   result,
		SelectedItems: selected,
		Metrics: Metrics{
			TimeTaken:       r.now().Sub(r.started).Seconds(),
			TimeComplexity:  timeComplexity,
			SpaceComplexity: spaceComplexity,
			StepCount:       len(steps),
		},
	}
}

func solutionDescription(sol *Solution) string {
	switch {
	case !sol.Found && sol.Reason != "":
		return "No solution: " + sol.Reason
	case !sol.Found:
		return "No solution"
	case sol.Value == Unreachable:
		return "Finished: result is unreachable"
	default:
		return fmt.Sprintf("Finished with result %d", sol.Value)
	}
}
