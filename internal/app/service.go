package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/awmpietro/algotrace/internal/app/cache"
	"github.com/awmpietro/algotrace/internal/logging"
	"github.com/awmpietro/algotrace/internal/observability"
	"github.com/awmpietro/algotrace/internal/presets"
	"github.com/awmpietro/algotrace/internal/render"
	"github.com/awmpietro/algotrace/internal/replay"
	"github.com/awmpietro/algotrace/internal/solver"
	"github.com/awmpietro/algotrace/internal/store"
	"github.com/awmpietro/algotrace/internal/trace"
	"github.com/awmpietro/algotrace/internal/trace/query"
)

// ErrStoreDisabled is returned by id-based operations when no store is configured.
var ErrStoreDisabled = errors.New("trace store is disabled")

type SolveRequest struct {
	Algorithm string
	Variant   string
	Input     []byte
}

type SolveResult struct {
	ID        string
	Algorithm string
	Variant   string
	// Hash identifies the canonical request. Equal requests share a hash and
	// produce identical traces.
	Hash   string
	Cached bool
	Trace  *trace.Trace
}

type Service struct {
	registry Registry
	cache    Cache
	store    Store
	observer observability.SolveObserver
	presets  *presets.Catalog
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
}

type Option func(*Service)

func WithStore(s Store) Option {
	return func(svc *Service) { svc.store = s }
}

func WithObserver(o observability.SolveObserver) Option {
	return func(svc *Service) { svc.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(svc *Service) {
		if fn != nil {
			svc.newID = fn
		}
	}
}

func WithClock(fn func() time.Time) Option {
	return func(svc *Service) {
		if fn != nil {
			svc.now = fn
		}
	}
}

func WithPresets(c *presets.Catalog) Option {
	return func(svc *Service) {
		if c != nil {
			svc.presets = c
		}
	}
}

func NewService(registry Registry, c Cache, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		cache:    c,
		logger:   logging.Discard(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presets == nil {
		s.presets = presets.Default()
	}
	return s
}

// Solve decodes the JSON input for the requested solver and returns its
// trace. Invalid domain input still yields a trace; only undecodable input
// and unknown solvers are errors.
func (s *Service) Solve(ctx context.Context, req SolveRequest) (SolveResult, error) {
	started := s.now()
	slv, err := s.registry.Lookup(req.Algorithm, req.Variant)
	if err != nil {
		return SolveResult{}, err
	}
	in, err := slv.DecodeJSON(req.Input)
	if err != nil {
		s.observe(slv, started, nil, false, err)
		return SolveResult{}, err
	}
	return s.solve(ctx, slv, in, started)
}

// SolveYAML is Solve for an already parsed YAML input, such as a preset.
func (s *Service) SolveYAML(ctx context.Context, algorithm, variant string, input *yaml.Node) (SolveResult, error) {
	started := s.now()
	slv, err := s.registry.Lookup(algorithm, variant)
	if err != nil {
		return SolveResult{}, err
	}
	in, err := slv.DecodeYAML(input)
	if err != nil {
		s.observe(slv, started, nil, false, err)
		return SolveResult{}, err
	}
	return s.solve(ctx, slv, in, started)
}

func (s *Service) solve(ctx context.Context, slv solver.Solver, in any, started time.Time) (SolveResult, error) {
	canonical, err := json.Marshal(in)
	if err != nil {
		err = fmt.Errorf("%w: %v", solver.ErrInvalidInput, err)
		s.observe(slv, started, nil, false, err)
		return SolveResult{}, err
	}
	key := slv.Algorithm + "/" + slv.Variant + ":" + string(canonical)

	tr, hit, err := s.cache.GetOrCompute(key, func() (*trace.Trace, error) {
		return slv.Solve(in)
	})
	if err != nil {
		s.observe(slv, started, nil, false, err)
		return SolveResult{}, err
	}

	res := SolveResult{
		ID:        s.newID(),
		Algorithm: slv.Algorithm,
		Variant:   slv.Variant,
		Hash:      cache.Hash(key),
		Cached:    hit,
		Trace:     tr,
	}

	if s.store != nil {
		rec, err := s.store.Save(ctx, store.Record{
			ID:        res.ID,
			Algorithm: res.Algorithm,
			Variant:   res.Variant,
			Hash:      res.Hash,
			CreatedAt: s.now().UTC(),
			Input:     canonical,
			Trace:     tr,
		})
		if err != nil {
			s.logger.Error("persist trace failed", "algorithm", res.Algorithm, "id", res.ID, "error", err)
			s.observe(slv, started, tr, hit, err)
			return SolveResult{}, fmt.Errorf("persist trace: %w", err)
		}
		res.ID = rec.ID
	}

	s.observe(slv, started, tr, hit, nil)
	return res, nil
}

func (s *Service) observe(slv solver.Solver, started time.Time, tr *trace.Trace, hit bool, err error) {
	if s.observer == nil {
		return
	}
	ev := observability.SolveEvent{
		Algorithm: slv.Algorithm,
		Variant:   slv.Variant,
		Duration:  s.now().Sub(started),
		CacheHit:  hit,
		Err:       err,
	}
	if tr != nil {
		ev.Steps = len(tr.Steps)
		if sol, ok := tr.Solution(); ok {
			ev.Found = sol.Found
		}
	}
	s.observer.ObserveSolve(ev)
}

func (s *Service) Trace(ctx context.Context, id string) (store.Record, error) {
	if s.store == nil {
		return store.Record{}, ErrStoreDisabled
	}
	return s.store.Load(ctx, id)
}

// Replay returns the state after folding steps 0..index of a stored trace.
// The index is clamped.
func (s *Service) Replay(ctx context.Context, id string, index int) (replay.State, error) {
	rec, err := s.Trace(ctx, id)
	if err != nil {
		return replay.State{}, err
	}
	return replay.Replay(rec.Trace.Steps, index), nil
}

func (s *Service) Steps(ctx context.Context, id, where string) ([]query.Match, error) {
	rec, err := s.Trace(ctx, id)
	if err != nil {
		return nil, err
	}
	return query.Filter(rec.Trace.Steps, where)
}

// Graphviz renders the graph or Huffman forest of a stored trace at index.
func (s *Service) Graphviz(ctx context.Context, id string, index int) (string, error) {
	rec, err := s.Trace(ctx, id)
	if err != nil {
		return "", err
	}
	return GraphvizAt(rec.Algorithm, rec.Trace, index)
}

// GraphvizAt renders tr at index without going through the store.
func GraphvizAt(algorithm string, tr *trace.Trace, index int) (string, error) {
	st := replay.Replay(tr.Steps, index)
	if st.Forest != nil {
		return render.ForestDOT(st.Forest)
	}
	return render.GraphDOT(st, Directed(algorithm))
}

// Directed reports whether an algorithm treats its graph as directed.
func Directed(algorithm string) bool {
	return algorithm == "dijkstra"
}

func (s *Service) Recent(ctx context.Context, limit int) ([]store.Summary, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	return s.store.List(ctx, limit)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrStoreDisabled
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) Algorithms() []solver.Descriptor {
	return s.registry.List()
}

// Presets lists the sample inputs for a registered algorithm. An algorithm
// without presets yields an empty list.
func (s *Service) Presets(algorithm string) ([]presets.Preset, error) {
	if _, err := s.registry.Lookup(algorithm, ""); err != nil {
		return nil, err
	}
	list := s.presets.List(algorithm)
	if list == nil {
		list = []presets.Preset{}
	}
	return list, nil
}

// SolvePreset solves a named preset of algorithm with the given variant.
func (s *Service) SolvePreset(ctx context.Context, algorithm, variant, name string) (SolveResult, error) {
	p, err := s.presets.Get(algorithm, name)
	if err != nil {
		return SolveResult{}, err
	}
	return s.SolveYAML(ctx, algorithm, variant, &p.Input)
}
