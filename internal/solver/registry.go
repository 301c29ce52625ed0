package solver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/awmpietro/algotrace/internal/trace"
)

var (
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	ErrUnknownVariant   = errors.New("unknown variant")
	ErrInvalidInput     = errors.New("invalid input")
)

// DefaultVariant names the only variant of single-implementation graph and
// forest algorithms.
const DefaultVariant = "default"

// Solver binds one (algorithm, variant) pair to its typed input and solve
// function.
type Solver struct {
	Algorithm string
	Variant   string
	Family    Family

	newInput func() any
	run      func(any) (*trace.Trace, bool)
}

// DecodeJSON decodes raw into the solver's input type. The returned value is
// a pointer suitable for Solve.
func (s Solver) DecodeJSON(raw []byte) (any, error) {
	in := s.newInput()
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidInput)
	}
	if err := json.Unmarshal(raw, in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return in, nil
}

func (s Solver) DecodeYAML(node *yaml.Node) (any, error) {
	in := s.newInput()
	if node == nil {
		return in, nil
	}
	if err := node.Decode(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return in, nil
}

// Solve runs the solver on a value produced by DecodeJSON or DecodeYAML, or
// on a typed input value.
func (s Solver) Solve(in any) (*trace.Trace, error) {
	t, ok := s.run(in)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s cannot take %T", ErrInvalidInput, s.Algorithm, s.Variant, in)
	}
	return t, nil
}

type Variant struct {
	Name   string `json:"name"`
	Family Family `json:"family"`
}

// Descriptor lists the variants of one algorithm.
type Descriptor struct {
	Algorithm      string    `json:"algorithm"`
	DefaultVariant string    `json:"default_variant"`
	Variants       []Variant `json:"variants"`
}

type entry struct {
	defaultVariant string
	variants       map[string]Solver
	order          []string
}

type Registry struct {
	algorithms map[string]*entry
}

// NewRegistry returns a registry populated with every built-in solver. The
// first variant registered for an algorithm is its default.
func NewRegistry() *Registry {
	r := &Registry{algorithms: map[string]*entry{}}

	register(r, "knapsack", "dp", FamilyTable, KnapsackDP)
	register(r, "knapsack", "greedy", FamilyGreedy, KnapsackGreedy)
	register(r, "coin-change", "dp", FamilyTable, CoinChangeDP)
	register(r, "coin-change", "greedy", FamilyGreedy, CoinChangeGreedy)
	register(r, "interval-scheduling", "greedy", FamilyGreedy, IntervalSchedulingGreedy)
	register(r, "interval-scheduling", "dp", FamilyTable, IntervalSchedulingDP)
	register(r, "lcs", "dp", FamilyTable, LCS)
	register(r, "edit-distance", "dp", FamilyTable, EditDistance)
	register(r, "matrix-chain", "dp", FamilyTable, MatrixChain)
	register(r, "lis", "dp", FamilyTable, LIS)
	register(r, "rod-cutting", "dp", FamilyTable, RodCutting)
	register(r, "dijkstra", DefaultVariant, FamilyGraph, Dijkstra)
	register(r, "prims", DefaultVariant, FamilyGraph, Prim)
	register(r, "kruskals", DefaultVariant, FamilyGraph, Kruskal)
	register(r, "huffman", DefaultVariant, FamilyForest, Huffman)

	return r
}

func register[In any](r *Registry, algorithm, variant string, family Family, fn func(In) *trace.Trace) {
	e, ok := r.algorithms[algorithm]
	if !ok {
		e = &entry{defaultVariant: variant, variants: map[string]Solver{}}
		r.algorithms[algorithm] = e
	}
	e.order = append(e.order, variant)
	e.variants[variant] = Solver{
		Algorithm: algorithm,
		Variant:   variant,
		Family:    family,
		newInput:  func() any { return new(In) },
		run: func(v any) (*trace.Trace, bool) {
			switch in := v.(type) {
			case *In:
				if in == nil {
					var zero In
					return fn(zero), true
				}
				return fn(*in), true
			case In:
				return fn(in), true
			}
			return nil, false
		},
	}
}

// Lookup resolves an empty variant to the algorithm's default.
func (r *Registry) Lookup(algorithm, variant string) (Solver, error) {
	e, ok := r.algorithms[algorithm]
	if !ok {
		return Solver{}, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}
	if variant == "" {
		variant = e.defaultVariant
	}
	s, ok := e.variants[variant]
	if !ok {
		return Solver{}, fmt.Errorf("%w: %s/%s", ErrUnknownVariant, algorithm, variant)
	}
	return s, nil
}

// List returns every algorithm sorted by name, variants in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.algorithms))
	for name, e := range r.algorithms {
		d := Descriptor{Algorithm: name, DefaultVariant: e.defaultVariant}
		for _, v := range e.order {
			d.Variants = append(d.Variants, Variant{Name: v, Family: e.variants[v].Family})
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Algorithm < out[j].Algorithm })
	return out
}
