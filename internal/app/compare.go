package app

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/awmpietro/algotrace/internal/trace"
)

const (
	GreedyVariant = "greedy"
	DPVariant     = "dp"
)

// ErrNotComparable is returned by Compare for algorithms that lack either a
// greedy or a dp variant.
var ErrNotComparable = errors.New("algorithm has no greedy and dp variants")

// Comparison holds the greedy and dp solves of one input.
type Comparison struct {
	Algorithm string
	Greedy    SolveResult
	DP        SolveResult
}

// ComparisonSummary puts the two runs side by side. Deltas are greedy minus dp.
type ComparisonSummary struct {
	Algorithm         string  `json:"algorithm"`
	GreedyResult      int     `json:"greedy_result"`
	DPResult          int     `json:"dp_result"`
	ResultDelta       int     `json:"result_delta"`
	GreedyFound       bool    `json:"greedy_found"`
	DPFound           bool    `json:"dp_found"`
	GreedyOptimal     bool    `json:"greedy_optimal"`
	GreedySteps       int     `json:"greedy_steps"`
	DPSteps           int     `json:"dp_steps"`
	StepDelta         int     `json:"step_delta"`
	GreedyComparisons int     `json:"greedy_comparisons"`
	DPComparisons     int     `json:"dp_comparisons"`
	GreedySeconds     float64 `json:"greedy_seconds"`
	DPSeconds         float64 `json:"dp_seconds"`
	TimeDelta         float64 `json:"time_delta_seconds"`
}

func (c Comparison) Summary() ComparisonSummary {
	g, d := c.Greedy.Trace, c.DP.Trace
	s := ComparisonSummary{
		Algorithm:         c.Algorithm,
		GreedyResult:      g.ResultValue,
		DPResult:          d.ResultValue,
		ResultDelta:       g.ResultValue - d.ResultValue,
		GreedyFound:       found(g),
		DPFound:           found(d),
		GreedySteps:       len(g.Steps),
		DPSteps:           len(d.Steps),
		StepDelta:         len(g.Steps) - len(d.Steps),
		GreedyComparisons: comparisons(g),
		DPComparisons:     comparisons(d),
		GreedySeconds:     g.Metrics.TimeTaken,
		DPSeconds:         d.Metrics.TimeTaken,
		TimeDelta:         g.Metrics.TimeTaken - d.Metrics.TimeTaken,
	}
	s.GreedyOptimal = s.GreedyFound == s.DPFound && s.ResultDelta == 0
	return s
}

func found(tr *trace.Trace) bool {
	sol, ok := tr.Solution()
	return ok && sol.Found
}

func comparisons(tr *trace.Trace) int {
	for i := len(tr.Steps) - 1; i >= 0; i-- {
		if m := tr.Steps[i].Metrics; m != nil {
			return m.Comparisons
		}
	}
	return 0
}

// Compare solves the same JSON input with the greedy and the dp variant of
// algorithm. Both runs go through the cache and the store like Solve.
func (s *Service) Compare(ctx context.Context, algorithm string, input []byte) (Comparison, error) {
	return s.compare(ctx, algorithm, func(variant string) (SolveResult, error) {
		return s.Solve(ctx, SolveRequest{Algorithm: algorithm, Variant: variant, Input: input})
	})
}

// CompareYAML is Compare for an already parsed YAML input.
func (s *Service) CompareYAML(ctx context.Context, algorithm string, input *yaml.Node) (Comparison, error) {
	return s.compare(ctx, algorithm, func(variant string) (SolveResult, error) {
		return s.SolveYAML(ctx, algorithm, variant, input)
	})
}

// ComparePreset compares both variants on a named preset.
func (s *Service) ComparePreset(ctx context.Context, algorithm, name string) (Comparison, error) {
	p, err := s.presets.Get(algorithm, name)
	if err != nil {
		return Comparison{}, err
	}
	return s.CompareYAML(ctx, algorithm, &p.Input)
}

func (s *Service) compare(ctx context.Context, algorithm string, solve func(variant string) (SolveResult, error)) (Comparison, error) {
	if _, err := s.registry.Lookup(algorithm, ""); err != nil {
		return Comparison{}, err
	}
	for _, v := range []string{GreedyVariant, DPVariant} {
		if _, err := s.registry.Lookup(algorithm, v); err != nil {
			return Comparison{}, fmt.Errorf("%w: %s", ErrNotComparable, algorithm)
		}
	}

	greedy, err := solve(GreedyVariant)
	if err != nil {
		return Comparison{}, err
	}
	if err := ctx.Err(); err != nil {
		return Comparison{}, err
	}
	dp, err := solve(DPVariant)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{Algorithm: algorithm, Greedy: greedy, DP: dp}, nil
}
