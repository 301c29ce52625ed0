// Package solvedto holds the wire envelopes shared by the HTTP and Lambda
// transports, their validation, and the error-to-status mapping.
package solvedto

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/awmpietro/algotrace/internal/app"
	"github.com/awmpietro/algotrace/internal/presets"
	"github.com/awmpietro/algotrace/internal/render"
	"github.com/awmpietro/algotrace/internal/solver"
	"github.com/awmpietro/algotrace/internal/store"
	"github.com/awmpietro/algotrace/internal/trace"
	"github.com/awmpietro/algotrace/internal/trace/query"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 500
)

var validate = validator.New()

// ErrBadParam marks a malformed query or path parameter.
var ErrBadParam = errors.New("bad parameter")

type SolvePath struct {
	Algorithm string `validate:"required,max=64"`
	Variant   string `validate:"omitempty,max=64"`
}

// TraceQuery carries a step index that replay clamps to [-1, len-1], so any
// integer is accepted.
type TraceQuery struct {
	ID    string `validate:"required,max=128"`
	Index int
	Where string `validate:"max=1024"`
}

type ListQuery struct {
	Limit int `validate:"gte=1,lte=500"`
}

type AlgorithmsResponse struct {
	Algorithms []solver.Descriptor `json:"algorithms"`
}

type PresetsResponse struct {
	Algorithm string           `json:"algorithm"`
	Presets   []presets.Preset `json:"presets"`
}

type TracesResponse struct {
	Traces []store.Summary `json:"traces"`
}

type StepsResponse struct {
	Count   int           `json:"count"`
	Matches []query.Match `json:"matches"`
}

// CompareRun is one side of a comparison.
type CompareRun struct {
	ID      string       `json:"id"`
	Variant string       `json:"variant"`
	Hash    string       `json:"hash"`
	Trace   *trace.Trace `json:"trace"`
}

type CompareResponse struct {
	Summary app.ComparisonSummary `json:"summary"`
	Greedy  CompareRun            `json:"greedy"`
	DP      CompareRun            `json:"dp"`
}

func NewCompareResponse(c app.Comparison) CompareResponse {
	run := func(r app.SolveResult) CompareRun {
		return CompareRun{ID: r.ID, Variant: r.Variant, Hash: r.Hash, Trace: r.Trace}
	}
	return CompareResponse{Summary: c.Summary(), Greedy: run(c.Greedy), DP: run(c.DP)}
}

type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ParseInt reads an optional integer query parameter.
func ParseInt(name, raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrBadParam, name, raw)
	}
	return v, nil
}

// NewTraceQuery parses and validates the id, index and where parameters.
// A missing index means the last step.
func NewTraceQuery(id, index, where string) (TraceQuery, error) {
	q := TraceQuery{ID: id, Where: where}
	idx, err := ParseInt("index", index, int(^uint(0)>>1))
	if err != nil {
		return q, err
	}
	q.Index = idx
	return q, Validate(q)
}

func NewListQuery(limit string) (ListQuery, error) {
	n, err := ParseInt("limit", limit, DefaultListLimit)
	if err != nil {
		return ListQuery{}, err
	}
	q := ListQuery{Limit: n}
	return q, Validate(q)
}

func NewSolvePath(algorithm, variant string) (SolvePath, error) {
	p := SolvePath{Algorithm: algorithm, Variant: variant}
	return p, Validate(p)
}

// Status maps a service error to an HTTP status and a short error label.
func Status(err error) (int, string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, solver.ErrUnknownAlgorithm):
		return http.StatusNotFound, "unknown algorithm"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "trace not found"
	case errors.Is(err, presets.ErrNotFound):
		return http.StatusNotFound, "preset not found"
	case errors.Is(err, solver.ErrUnknownVariant):
		return http.StatusBadRequest, "unknown variant"
	case errors.Is(err, solver.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, query.ErrInvalid):
		return http.StatusBadRequest, "invalid query"
	case errors.Is(err, ErrBadParam), errors.As(err, &verrs):
		return http.StatusBadRequest, "validation failed"
	case errors.Is(err, render.ErrNoGraph):
		return http.StatusUnprocessableEntity, "trace has no graph"
	case errors.Is(err, app.ErrNotComparable):
		return http.StatusUnprocessableEntity, "algorithm not comparable"
	case errors.Is(err, app.ErrStoreDisabled):
		return http.StatusNotImplemented, "trace store disabled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func ErrorFor(err error) (int, ErrorBody) {
	status, label := Status(err)
	return status, ErrorBody{Error: label, Details: err.Error()}
}

func BadRequest(label string, err error) ErrorBody {
	return ErrorBody{Error: label, Details: err.Error()}
}
