package app

import (
	"context"

	"gopkg.in/yaml.v3"

	"github.com/awmpietro/algotrace/internal/presets"
	"github.com/awmpietro/algotrace/internal/replay"
	"github.com/awmpietro/algotrace/internal/solver"
	"github.com/awmpietro/algotrace/internal/store"
	"github.com/awmpietro/algotrace/internal/trace"
	"github.com/awmpietro/algotrace/internal/trace/query"
)

// SolveService is what the transports need from Service.
type SolveService interface {
	Solve(ctx context.Context, req SolveRequest) (SolveResult, error)
	SolveYAML(ctx context.Context, algorithm, variant string, input *yaml.Node) (SolveResult, error)
	Compare(ctx context.Context, algorithm string, input []byte) (Comparison, error)
	Trace(ctx context.Context, id string) (store.Record, error)
	Replay(ctx context.Context, id string, index int) (replay.State, error)
	Steps(ctx context.Context, id, where string) ([]query.Match, error)
	Graphviz(ctx context.Context, id string, index int) (string, error)
	Recent(ctx context.Context, limit int) ([]store.Summary, error)
	Delete(ctx context.Context, id string) error
	Algorithms() []solver.Descriptor
	Presets(algorithm string) ([]presets.Preset, error)
}

type Registry interface {
	Lookup(algorithm, variant string) (solver.Solver, error)
	List() []solver.Descriptor
}

type Cache interface {
	GetOrCompute(key string, fn func() (*trace.Trace, error)) (*trace.Trace, bool, error)
}

type Store interface {
	Save(ctx context.Context, rec store.Record) (store.Record, error)
	Load(ctx context.Context, id string) (store.Record, error)
	List(ctx context.Context, limit int) ([]store.Summary, error)
	Delete(ctx context.Context, id string) error
}

var _ SolveService = (*Service)(nil)
