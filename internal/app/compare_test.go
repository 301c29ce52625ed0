package app

import (
	"context"
	"errors"
	"testing"

	"github.com/awmpietro/algotrace/internal/presets"
	"github.com/awmpietro/algotrace/internal/solver"
)

func TestService_Compare_CoinChangeGreedyLoses(t *testing.T) {
	st := newFakeStore()
	s := newTestService(WithStore(st))

	c, err := s.Compare(context.Background(), "coin-change", []byte(`{"amount":6,"coins":[1,3,4]}`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Greedy.Variant != GreedyVariant || c.DP.Variant != DPVariant {
		t.Fatalf("expected greedy then dp, got %s/%s", c.Greedy.Variant, c.DP.Variant)
	}

	sum := c.Summary()
	if sum.GreedyResult != 3 || sum.DPResult != 2 || sum.ResultDelta != 1 {
		t.Fatalf("expected greedy 3 vs dp 2, got %+v", sum)
	}
	if sum.GreedyOptimal || !sum.GreedyFound || !sum.DPFound {
		t.Fatalf("expected both found and greedy not optimal, got %+v", sum)
	}
	if sum.GreedySteps != len(c.Greedy.Trace.Steps) || sum.StepDelta != sum.GreedySteps-sum.DPSteps {
		t.Fatalf("unexpected step counts %+v", sum)
	}
	if sum.DPComparisons == 0 || sum.GreedyComparisons == 0 {
		t.Fatalf("expected comparison counters on both runs, got %+v", sum)
	}
	if len(st.records) != 2 {
		t.Fatalf("expected both runs to be stored, got %d", len(st.records))
	}
}

func TestService_Compare_AgreeingRuns(t *testing.T) {
	s := newTestService()

	c, err := s.Compare(context.Background(), "coin-change", []byte(`{"amount":63,"coins":[1,5,10,25]}`))
	if err != nil {
		t.Fatal(err)
	}
	sum := c.Summary()
	if !sum.GreedyOptimal || sum.ResultDelta != 0 || sum.DPResult != 6 {
		t.Fatalf("expected greedy to match dp with 6 coins, got %+v", sum)
	}
}

func TestService_ComparePreset(t *testing.T) {
	s := newTestService()

	c, err := s.ComparePreset(context.Background(), "knapsack", "textbook-example")
	if err != nil {
		t.Fatal(err)
	}
	sum := c.Summary()
	if sum.GreedyResult != 160 || sum.DPResult != 220 || sum.ResultDelta != -60 {
		t.Fatalf("expected greedy 160 vs dp 220, got %+v", sum)
	}

	if _, err := s.ComparePreset(context.Background(), "knapsack", "missing"); !errors.Is(err, presets.ErrNotFound) {
		t.Fatalf("expected presets.ErrNotFound, got %v", err)
	}
}

func TestService_Compare_Errors(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	if _, err := s.Compare(ctx, "lcs", []byte(`{"text1":"a","text2":"b"}`)); !errors.Is(err, ErrNotComparable) {
		t.Fatalf("expected ErrNotComparable, got %v", err)
	}
	if _, err := s.Compare(ctx, "bogus", []byte(`{}`)); !errors.Is(err, solver.ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
	if _, err := s.Compare(ctx, "knapsack", []byte(`{"capacity":"big"}`)); !errors.Is(err, solver.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Compare(canceled, "coin-change", []byte(`{"amount":6,"coins":[1,3,4]}`)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
