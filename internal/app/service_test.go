package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/awmpietro/algotrace/internal/app/cache"
	"github.com/awmpietro/algotrace/internal/observability"
	"github.com/awmpietro/algotrace/internal/presets"
	"github.com/awmpietro/algotrace/internal/render"
	"github.com/awmpietro/algotrace/internal/solver"
	"github.com/awmpietro/algotrace/internal/store"
	"github.com/awmpietro/algotrace/internal/trace"
)

const textbookKnapsack = `{"capacity":50,"items":[{"id":1,"weight":10,"value":60},{"id":2,"weight":20,"value":100},{"id":3,"weight":30,"value":120}]}`

type fakeCache struct {
	calls int
}

func (c *fakeCache) GetOrCompute(key string, fn func() (*trace.Trace, error)) (*trace.Trace, bool, error) {
	c.calls++
	t, err := fn()
	return t, false, err
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]store.Record
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]store.Record{}}
}

func (f *fakeStore) Save(_ context.Context, rec store.Record) (store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return store.Record{}, f.saveErr
	}
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeStore) Load(_ context.Context, id string) (store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return store.Record{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return rec, nil
}

func (f *fakeStore) List(_ context.Context, limit int) ([]store.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.Summary{}
	for _, rec := range f.records {
		out = append(out, rec.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

type recordingObserver struct {
	events []observability.SolveEvent
}

func (r *recordingObserver) ObserveSolve(ev observability.SolveEvent) {
	r.events = append(r.events, ev)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("trace-%d", n)
	}
}

func newTestService(opts ...Option) *Service {
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	return NewService(solver.NewRegistry(), cache.NewInMemory(16), opts...)
}

func TestService_Solve_ReturnsTrace(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestService(WithObserver(obs))

	res, err := s.Solve(context.Background(), SolveRequest{Algorithm: "knapsack", Input: []byte(textbookKnapsack)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Trace.ResultValue != 220 {
		t.Fatalf("expected 220, got %d", res.Trace.ResultValue)
	}
	if res.Variant != "dp" || res.ID != "trace-1" || res.Cached || len(res.Hash) != 64 {
		t.Fatalf("unexpected result metadata %+v", res)
	}
	if len(obs.events) != 1 || obs.events[0].Result() != observability.ResultOK || obs.events[0].Steps != len(res.Trace.Steps) {
		t.Fatalf("expected one ok event, got %+v", obs.events)
	}
}

func TestService_Solve_CachesEquivalentInput(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestService(WithObserver(obs))
	ctx := context.Background()

	first, err := s.Solve(ctx, SolveRequest{Algorithm: "knapsack", Variant: "dp", Input: []byte(textbookKnapsack)})
	if err != nil {
		t.Fatal(err)
	}
	// same input with different whitespace and key order
	reordered := `{ "items":[{"value":60,"weight":10,"id":1},{"id":2,"weight":20,"value":100},{"id":3,"weight":30,"value":120}], "capacity":50 }`
	second, err := s.Solve(ctx, SolveRequest{Algorithm: "knapsack", Input: []byte(reordered)})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Hash != first.Hash || second.Trace != first.Trace {
		t.Fatalf("expected canonical cache hit, got cached=%v", second.Cached)
	}
	if second.ID == first.ID {
		t.Fatalf("expected a fresh id per solve")
	}
	if !obs.events[1].CacheHit {
		t.Fatalf("expected cache hit to be observed")
	}
}

func TestService_Solve_VariantsDoNotShareCache(t *testing.T) {
	c := &fakeCache{}
	s := NewService(solver.NewRegistry(), c)
	ctx := context.Background()

	dp, err := s.Solve(ctx, SolveRequest{Algorithm: "knapsack", Variant: "dp", Input: []byte(textbookKnapsack)})
	if err != nil {
		t.Fatal(err)
	}
	greedy, err := s.Solve(ctx, SolveRequest{Algorithm: "knapsack", Variant: "greedy", Input: []byte(textbookKnapsack)})
	if err != nil {
		t.Fatal(err)
	}
	if dp.Hash == greedy.Hash || greedy.Trace.ResultValue != 160 || c.calls != 2 {
		t.Fatalf("expected distinct keys per variant, got %s %s", dp.Hash, greedy.Hash)
	}
}

func TestService_Solve_BubblesUpErrors(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestService(WithObserver(obs))
	ctx := context.Background()

	_, err := s.Solve(ctx, SolveRequest{Algorithm: "bogo-sort", Input: []byte(`{}`)})
	if !errors.Is(err, solver.ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
	_, err = s.Solve(ctx, SolveRequest{Algorithm: "lcs", Variant: "greedy", Input: []byte(`{}`)})
	if !errors.Is(err, solver.ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
	_, err = s.Solve(ctx, SolveRequest{Algorithm: "lcs", Input: []byte(`{"text1":`)})
	if !errors.Is(err, solver.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(obs.events) != 1 || obs.events[0].Result() != observability.ResultError {
		t.Fatalf("expected decode failure to be observed, got %+v", obs.events)
	}
}

func TestService_Solve_DomainFailureIsNotAnError(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestService(WithObserver(obs))

	res, err := s.Solve(context.Background(), SolveRequest{Algorithm: "coin-change", Input: []byte(`{"amount":3,"coins":[2]}`)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Trace.ResultValue != -1 {
		t.Fatalf("expected -1, got %d", res.Trace.ResultValue)
	}
	if obs.events[0].Result() != observability.ResultNoSolution {
		t.Fatalf("expected no_solution, got %s", obs.events[0].Result())
	}
}

func TestService_Solve_PersistsWhenStoreConfigured(t *testing.T) {
	st := newFakeStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(WithStore(st), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	res, err := s.Solve(ctx, SolveRequest{Algorithm: "lcs", Input: []byte(`{"text1":"ABCBDAB","text2":"BDCABA"}`)})
	if err != nil {
		t.Fatal(err)
	}
	rec, err := s.Trace(ctx, res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Algorithm != "lcs" || rec.Hash != res.Hash || !rec.CreatedAt.Equal(now) {
		t.Fatalf("unexpected record %+v", rec)
	}
	if string(rec.Input) != `{"text1":"ABCBDAB","text2":"BDCABA"}` {
		t.Fatalf("expected canonical input, got %s", rec.Input)
	}

	recent, err := s.Recent(ctx, 10)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected one recent trace, got %v %v", recent, err)
	}

	if err := s.Delete(ctx, res.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Trace(ctx, res.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestService_Solve_StoreFailure(t *testing.T) {
	st := newFakeStore()
	st.saveErr = errors.New("disk full")
	obs := &recordingObserver{}
	s := newTestService(WithStore(st), WithObserver(obs))

	_, err := s.Solve(context.Background(), SolveRequest{Algorithm: "lis", Input: []byte(`{"sequence":[3,1,2]}`)})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected store error, got %v", err)
	}
	if obs.events[0].Result() != observability.ResultError {
		t.Fatalf("expected error event")
	}
}

func TestService_StoreDisabled(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	if _, err := s.Trace(ctx, "x"); !errors.Is(err, ErrStoreDisabled) {
		t.Fatalf("expected ErrStoreDisabled, got %v", err)
	}
	if _, err := s.Replay(ctx, "x", 0); !errors.Is(err, ErrStoreDisabled) {
		t.Fatalf("expected ErrStoreDisabled, got %v", err)
	}
	if _, err := s.Recent(ctx, 1); !errors.Is(err, ErrStoreDisabled) {
		t.Fatalf("expected ErrStoreDisabled, got %v", err)
	}
	if err := s.Delete(ctx, "x"); !errors.Is(err, ErrStoreDisabled) {
		t.Fatalf("expected ErrStoreDisabled, got %v", err)
	}
}

func TestService_ReplayStepsAndGraphviz(t *testing.T) {
	s := newTestService(WithStore(newFakeStore()))
	ctx := context.Background()

	res, err := s.SolvePreset(ctx, "dijkstra", "", "Simple Grid")
	if err != nil {
		t.Fatal(err)
	}

	st, err := s.Replay(ctx, res.ID, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if st.Index != len(res.Trace.Steps)-1 || st.Solution == nil {
		t.Fatalf("expected clamped final state, got index %d", st.Index)
	}

	updates, err := s.Steps(ctx, res.ID, `kind == "UPDATE"`)
	if err != nil {
		t.Fatal(err)
	}
	if len(updates) == 0 {
		t.Fatalf("expected relaxation updates")
	}
	if _, err := s.Steps(ctx, res.ID, `len(kind) > 1`); err == nil {
		t.Fatalf("expected unsafe query to be rejected")
	}

	dot, err := s.Graphviz(ctx, res.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(strings.TrimSpace(dot), "digraph") {
		t.Fatalf("expected directed DOT, got %s", dot)
	}

	huff, err := s.SolvePreset(ctx, "huffman", "", "repeated-chars")
	if err != nil {
		t.Fatal(err)
	}
	forest, err := s.Graphviz(ctx, huff.ID, 0)
	if err != nil || !strings.Contains(forest, "huffman") {
		t.Fatalf("expected forest DOT, got %q %v", forest, err)
	}

	knap, err := s.Solve(ctx, SolveRequest{Algorithm: "knapsack", Input: []byte(textbookKnapsack)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Graphviz(ctx, knap.ID, 0); !errors.Is(err, render.ErrNoGraph) {
		t.Fatalf("expected ErrNoGraph, got %v", err)
	}
}

func TestService_PresetsAndAlgorithms(t *testing.T) {
	s := newTestService()

	list, err := s.Presets("prims")
	if err != nil || len(list) != 2 {
		t.Fatalf("expected dijkstra presets for prims, got %v %v", list, err)
	}
	if _, err := s.Presets("nope"); !errors.Is(err, solver.ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
	if _, err := s.SolvePreset(context.Background(), "lcs", "", "missing"); !errors.Is(err, presets.ErrNotFound) {
		t.Fatalf("expected presets.ErrNotFound, got %v", err)
	}

	empty, err := NewService(solver.NewRegistry(), cache.NewInMemory(1), WithPresets(mustCatalog(t))).Presets("lcs")
	if err != nil || len(empty) != 0 || empty == nil {
		t.Fatalf("expected empty non-nil list, got %v %v", empty, err)
	}

	if got := len(s.Algorithms()); got != 12 {
		t.Fatalf("expected 12 algorithms, got %d", got)
	}
}

func mustCatalog(t *testing.T) *presets.Catalog {
	t.Helper()
	c, err := presets.Parse([]byte("algorithms:\n  knapsack: []\n"))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestService_Solve_RequestHashIdentifiesTraceContent(t *testing.T) {
	s := NewService(solver.NewRegistry(), &fakeCache{})
	ctx := context.Background()

	a, err := s.Solve(ctx, SolveRequest{Algorithm: "coin-change", Variant: "dp", Input: []byte(`{"amount":6,"coins":[1,3,4]}`)})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Solve(ctx, SolveRequest{Algorithm: "coin-change", Variant: "dp", Input: []byte(`{"coins":[1,3,4],"amount":6}`)})
	if err != nil {
		t.Fatal(err)
	}
	if a.Trace == b.Trace {
		t.Fatalf("expected two independent computations")
	}
	ha, _ := a.Trace.Hash()
	hb, _ := b.Trace.Hash()
	if a.Hash != b.Hash || ha != hb {
		t.Fatalf("expected equal requests to share the request hash and the trace hash")
	}

	c, err := s.Solve(ctx, SolveRequest{Algorithm: "coin-change", Variant: "greedy", Input: []byte(`{"amount":6,"coins":[1,3,4]}`)})
	if err != nil {
		t.Fatal(err)
	}
	if c.Hash == a.Hash {
		t.Fatalf("expected variants to have distinct hashes")
	}
}
