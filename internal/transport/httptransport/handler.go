package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/awmpietro/algotrace/internal/app"
	"github.com/awmpietro/algotrace/internal/logging"
	"github.com/awmpietro/algotrace/internal/transport/solvedto"
)

const DefaultMaxBodyBytes = 1 << 20

type Handler struct {
	svc          app.SolveService
	maxBodyBytes int64
	logger       *slog.Logger
}

type Option func(*Handler)

func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(svc app.SolveService, opts ...Option) *Handler {
	h := &Handler{svc: svc, maxBodyBytes: DefaultMaxBodyBytes, logger: logging.Discard()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /solve/{algorithm}", h.Solve)
	mux.HandleFunc("POST /solve/{algorithm}/{variant}", h.Solve)
	mux.HandleFunc("POST /compare/{algorithm}", h.Compare)
	mux.HandleFunc("GET /algorithms", h.Algorithms)
	mux.HandleFunc("GET /presets/{algorithm}", h.Presets)
	mux.HandleFunc("GET /traces", h.Traces)
	mux.HandleFunc("GET /traces/{id}", h.Trace)
	mux.HandleFunc("DELETE /traces/{id}", h.DeleteTrace)
	mux.HandleFunc("GET /traces/{id}/replay", h.Replay)
	mux.HandleFunc("GET /traces/{id}/steps", h.Steps)
	mux.HandleFunc("GET /traces/{id}/dot", h.DOT)
	mux.HandleFunc("GET /healthz", Healthz)
}

// Solve responds with exactly the trace JSON. Domain failures such as an
// unreachable amount are still 200 with found=false in the solution step.
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	path, err := solvedto.NewSolvePath(r.PathValue("algorithm"), r.PathValue("variant"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Solve(r.Context(), app.SolveRequest{
		Algorithm: path.Algorithm,
		Variant:   path.Variant,
		Input:     body,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	etag := `"` + res.Hash + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Trace-Id", res.ID)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, res.Trace)
}

// Compare solves the body with the greedy and the dp variant and returns both
// traces with a side-by-side summary.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	path, err := solvedto.NewSolvePath(r.PathValue("algorithm"), "")
	if err != nil {
		h.writeError(w, err)
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	c, err := h.svc.Compare(r.Context(), path.Algorithm, body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, solvedto.NewCompareResponse(c))
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, solvedto.BadRequest("body too large", err))
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, solvedto.BadRequest("invalid body", err))
		return nil, false
	}
	return body, true
}

func (h *Handler) Algorithms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, solvedto.AlgorithmsResponse{Algorithms: h.svc.Algorithms()})
}

func (h *Handler) Presets(w http.ResponseWriter, r *http.Request) {
	algorithm := r.PathValue("algorithm")
	list, err := h.svc.Presets(algorithm)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, solvedto.PresetsResponse{Algorithm: algorithm, Presets: list})
}

func (h *Handler) Traces(w http.ResponseWriter, r *http.Request) {
	q, err := solvedto.NewListQuery(r.URL.Query().Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	list, err := h.svc.Recent(r.Context(), q.Limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, solvedto.TracesResponse{Traces: list})
}

func (h *Handler) Trace(w http.ResponseWriter, r *http.Request) {
	q, err := solvedto.NewTraceQuery(r.PathValue("id"), "", "")
	if err != nil {
		h.writeError(w, err)
		return
	}
	rec, err := h.svc.Trace(r.Context(), q.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) DeleteTrace(w http.ResponseWriter, r *http.Request) {
	q, err := solvedto.NewTraceQuery(r.PathValue("id"), "", "")
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), q.ID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Replay(w http.ResponseWriter, r *http.Request) {
	q, err := solvedto.NewTraceQuery(r.PathValue("id"), r.URL.Query().Get("index"), "")
	if err != nil {
		h.writeError(w, err)
		return
	}
	st, err := h.svc.Replay(r.Context(), q.ID, q.Index)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) Steps(w http.ResponseWriter, r *http.Request) {
	q, err := solvedto.NewTraceQuery(r.PathValue("id"), "", r.URL.Query().Get("where"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	matches, err := h.svc.Steps(r.Context(), q.ID, q.Where)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, solvedto.StepsResponse{Count: len(matches), Matches: matches})
}

func (h *Handler) DOT(w http.ResponseWriter, r *http.Request) {
	q, err := solvedto.NewTraceQuery(r.PathValue("id"), r.URL.Query().Get("index"), "")
	if err != nil {
		h.writeError(w, err)
		return
	}
	dot, err := h.svc.Graphviz(r.Context(), q.ID, q.Index)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, dot)
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, body := solvedto.ErrorFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
