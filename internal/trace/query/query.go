// Package query filters trace steps with boolean expressions such as
//
//	kind == "UPDATE" && value > 100
//
// Each step is exposed as a flat environment: index, kind, description,
// shape, comparisons, swaps, plus every top-level payload field under its
// JSON name.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/awmpietro/algotrace/internal/trace"
)

var ErrInvalid = errors.New("invalid query")

type Query struct {
	src     string
	program *vm.Program
}

// Match is a step that satisfied a query, with its position in the trace.
type Match struct {
	Index int        `json:"index"`
	Step  trace.Step `json:"step"`
}

// Compile validates and compiles src. An empty source matches every step.
func Compile(src string) (*Query, error) {
	src = strings.TrimSpace(src)
	q := &Query{src: src}
	if src == "" {
		return q, nil
	}
	if err := Validate(src); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	program, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	q.program = program
	return q, nil
}

func (q *Query) String() string { return q.src }

// Match evaluates the query against one step. A runtime error, typically a
// comparison against a field the step does not carry, is returned to the
// caller.
func (q *Query) Match(index int, s trace.Step) (bool, error) {
	if q == nil || q.program == nil {
		return true, nil
	}
	env, err := Env(index, s)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(q.program, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("query must evaluate to bool (got %T)", out)
	}
	return b, nil
}

// Filter returns every step matching src in trace order. Steps on which the
// query fails to evaluate do not match.
func Filter(steps []trace.Step, src string) ([]Match, error) {
	q, err := Compile(src)
	if err != nil {
		return nil, err
	}
	out := []Match{}
	for i, s := range steps {
		ok, err := q.Match(i, s)
		if err != nil || !ok {
			continue
		}
		out = append(out, Match{Index: i, Step: s})
	}
	return out, nil
}

// Env flattens a step into the variables a query can reference.
func Env(index int, s trace.Step) (map[string]any, error) {
	env := map[string]any{}
	if s.Payload != nil {
		raw, err := json.Marshal(s.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", s.Payload.Shape(), err)
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("flatten %s payload: %w", s.Payload.Shape(), err)
		}
		for k, v := range fields {
			env[k] = normalize(v)
		}
	}

	env["index"] = index
	env["kind"] = s.Kind.String()
	env["description"] = s.Description
	env["shape"] = string(s.Shape())
	env["comparisons"] = 0
	env["swaps"] = 0
	if s.Metrics != nil {
		env["comparisons"] = s.Metrics.Comparisons
		env["swaps"] = s.Metrics.Swaps
	}
	return env, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) <= math.MaxInt32 {
			return int(x)
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalize(x[k])
		}
		return x
	}
	return v
}
