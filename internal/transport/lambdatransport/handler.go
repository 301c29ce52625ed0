package lambdatransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/awmpietro/algotrace/internal/app"
	"github.com/awmpietro/algotrace/internal/transport/solvedto"
)

type Handler struct {
	svc          app.SolveService
	maxBodyBytes int
}

func NewHandler(svc app.SolveService, maxBodyBytes int) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handler{svc: svc, maxBodyBytes: maxBodyBytes}
}

// Handle routes an API Gateway v2 request by method and raw path, serving
// the same routes as the HTTP transport.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := req.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}
	parts := splitPath(req.RawPath)
	q := req.QueryStringParameters

	switch {
	case len(parts) == 1 && parts[0] == "healthz":
		return onlyGet(method, func() events.APIGatewayV2HTTPResponse {
			return jsonResp(http.StatusOK, map[string]string{"status": "ok"})
		}), nil

	case len(parts) == 1 && parts[0] == "algorithms":
		return onlyGet(method, func() events.APIGatewayV2HTTPResponse {
			return jsonResp(http.StatusOK, solvedto.AlgorithmsResponse{Algorithms: h.svc.Algorithms()})
		}), nil

	case (len(parts) == 2 || len(parts) == 3) && parts[0] == "solve":
		if method != http.MethodPost {
			return methodNotAllowed(), nil
		}
		variant := ""
		if len(parts) == 3 {
			variant = parts[2]
		}
		return h.solve(ctx, req, parts[1], variant), nil

	case len(parts) == 2 && parts[0] == "compare":
		if method != http.MethodPost {
			return methodNotAllowed(), nil
		}
		return h.compare(ctx, req, parts[1]), nil

	case len(parts) == 2 && parts[0] == "presets":
		return onlyGet(method, func() events.APIGatewayV2HTTPResponse {
			list, err := h.svc.Presets(parts[1])
			if err != nil {
				return errorResp(err)
			}
			return jsonResp(http.StatusOK, solvedto.PresetsResponse{Algorithm: parts[1], Presets: list})
		}), nil

	case len(parts) == 1 && parts[0] == "traces":
		return onlyGet(method, func() events.APIGatewayV2HTTPResponse {
			lq, err := solvedto.NewListQuery(q["limit"])
			if err != nil {
				return errorResp(err)
			}
			list, err := h.svc.Recent(ctx, lq.Limit)
			if err != nil {
				return errorResp(err)
			}
			return jsonResp(http.StatusOK, solvedto.TracesResponse{Traces: list})
		}), nil

	case len(parts) == 2 && parts[0] == "traces" && method == http.MethodDelete:
		if err := h.svc.Delete(ctx, parts[1]); err != nil {
			return errorResp(err), nil
		}
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNoContent}, nil

	case (len(parts) == 2 || len(parts) == 3) && parts[0] == "traces":
		sub := ""
		if len(parts) == 3 {
			sub = parts[2]
		}
		return onlyGet(method, func() events.APIGatewayV2HTTPResponse {
			return h.traces(ctx, parts[1], sub, q)
		}), nil
	}

	return jsonResp(http.StatusNotFound, solvedto.ErrorBody{Error: "not found", Details: req.RawPath}), nil
}

func (h *Handler) solve(ctx context.Context, req events.APIGatewayV2HTTPRequest, algorithm, variant string) events.APIGatewayV2HTTPResponse {
	path, err := solvedto.NewSolvePath(algorithm, variant)
	if err != nil {
		return errorResp(err)
	}
	body, fail := h.body(req)
	if fail != nil {
		return *fail
	}

	res, err := h.svc.Solve(ctx, app.SolveRequest{Algorithm: path.Algorithm, Variant: path.Variant, Input: body})
	if err != nil {
		return errorResp(err)
	}
	resp := jsonResp(http.StatusOK, res.Trace)
	resp.Headers["etag"] = `"` + res.Hash + `"`
	resp.Headers["x-trace-id"] = res.ID
	return resp
}

func (h *Handler) compare(ctx context.Context, req events.APIGatewayV2HTTPRequest, algorithm string) events.APIGatewayV2HTTPResponse {
	path, err := solvedto.NewSolvePath(algorithm, "")
	if err != nil {
		return errorResp(err)
	}
	body, fail := h.body(req)
	if fail != nil {
		return *fail
	}
	c, err := h.svc.Compare(ctx, path.Algorithm, body)
	if err != nil {
		return errorResp(err)
	}
	return jsonResp(http.StatusOK, solvedto.NewCompareResponse(c))
}

// body decodes the request body, or returns the response to send instead.
func (h *Handler) body(req events.APIGatewayV2HTTPRequest) ([]byte, *events.APIGatewayV2HTTPResponse) {
	body, err := readBody(req)
	if err != nil {
		resp := jsonResp(http.StatusBadRequest, solvedto.BadRequest("invalid body", err))
		return nil, &resp
	}
	if len(body) > h.maxBodyBytes {
		resp := jsonResp(http.StatusRequestEntityTooLarge, solvedto.ErrorBody{Error: "body too large"})
		return nil, &resp
	}
	return body, nil
}

func (h *Handler) traces(ctx context.Context, id, sub string, q map[string]string) events.APIGatewayV2HTTPResponse {
	tq, err := solvedto.NewTraceQuery(id, q["index"], q["where"])
	if err != nil {
		return errorResp(err)
	}

	switch sub {
	case "":
		rec, err := h.svc.Trace(ctx, tq.ID)
		if err != nil {
			return errorResp(err)
		}
		return jsonResp(http.StatusOK, rec)
	case "replay":
		st, err := h.svc.Replay(ctx, tq.ID, tq.Index)
		if err != nil {
			return errorResp(err)
		}
		return jsonResp(http.StatusOK, st)
	case "steps":
		matches, err := h.svc.Steps(ctx, tq.ID, tq.Where)
		if err != nil {
			return errorResp(err)
		}
		return jsonResp(http.StatusOK, solvedto.StepsResponse{Count: len(matches), Matches: matches})
	case "dot":
		dot, err := h.svc.Graphviz(ctx, tq.ID, tq.Index)
		if err != nil {
			return errorResp(err)
		}
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusOK,
			Headers:    map[string]string{"content-type": "text/vnd.graphviz"},
			Body:       dot,
		}
	}
	return jsonResp(http.StatusNotFound, solvedto.ErrorBody{Error: "not found", Details: sub})
}

func splitPath(raw string) []string {
	raw = strings.Trim(raw, "/")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "/")
}

func onlyGet(method string, fn func() events.APIGatewayV2HTTPResponse) events.APIGatewayV2HTTPResponse {
	if method != http.MethodGet {
		return methodNotAllowed()
	}
	return fn()
}

func methodNotAllowed() events.APIGatewayV2HTTPResponse {
	return jsonResp(http.StatusMethodNotAllowed, solvedto.ErrorBody{Error: "method not allowed"})
}

func readBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func errorResp(err error) events.APIGatewayV2HTTPResponse {
	status, body := solvedto.ErrorFor(err)
	return jsonResp(status, body)
}

func jsonResp(status int, body any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(body)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(b),
	}
}
