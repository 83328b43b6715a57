// Package http serves an Interpreter over a JSON HTTP API described by openapi.yaml.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/tlisp"
	"github.com/aretw0/tlisp/internal/presentation/graph"
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/dsl"
	"github.com/aretw0/tlisp/pkg/ports"
	"github.com/aretw0/tlisp/pkg/schema"
	"github.com/aretw0/tlisp/pkg/types"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server implements ServerInterface on top of an Interpreter.
type Server struct {
	Interp *tlisp.Interpreter
	// Store receives PUT and DELETE. Without one the API is read-only.
	Store    ports.DefinitionStore
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// Option configures the handler built by NewHandler.
type Option func(*Server)

// WithStore makes automata writable through PUT and DELETE.
func WithStore(s ports.DefinitionStore) Option {
	return func(srv *Server) { srv.Store = s }
}

// WithMetrics exposes g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(srv *Server) { srv.Gatherer = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) { srv.Logger = l }
}

// NewHandler creates the HTTP handler for interp.
func NewHandler(interp *tlisp.Interpreter, opts ...Option) (http.Handler, error) {
	server := &Server{Interp: interp, Logger: interp.Logger()}
	for _, opt := range opts {
		opt(server)
	}

	doc, err := GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if server.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.Gatherer, promhttp.HandlerOpts{}))
	}

	return HandlerFromMux(server, r, validateRequests(doc, server.Logger)), nil
}

// validateRequests checks each request against the operation chi routed it to.
func validateRequests(doc *openapi3.T, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rctx := chi.RouteContext(r.Context())
			pattern := rctx.RoutePattern()
			item := doc.Paths.Value(pattern)
			if item == nil || item.GetOperation(r.Method) == nil {
				next.ServeHTTP(w, r)
				return
			}

			params := make(map[string]string, len(rctx.URLParams.Keys))
			for i, key := range rctx.URLParams.Keys {
				params[key] = rctx.URLParams.Values[i]
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route: &routers.Route{
					Spec:      doc,
					Path:      pattern,
					PathItem:  item,
					Method:    r.Method,
					Operation: item.GetOperation(r.Method),
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.Warn("Request rejected", "path", r.URL.Path, "err", err)
				writeError(w, http.StatusBadRequest, Error{Kind: "bad-request", Message: err.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>tlisp API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "tlisp-http",
		"version":     tlisp.Version,
		"api_version": apiVersion,
	})
}

// EvalSource handles the POST /eval request.
func (s *Server) EvalSource(w http.ResponseWriter, r *http.Request) {
	var body EvalRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, Error{Kind: "bad-request", Message: "invalid request body"})
		return
	}
	v, err := s.Interp.Eval(r.Context(), body.Source)
	if err != nil {
		s.Logger.Debug("Eval failed", "err", err)
		writeError(w, http.StatusUnprocessableEntity, hostError(err))
		return
	}
	writeJSON(w, http.StatusOK, EvalResponse{Value: v.String()})
}

// ListAutomata handles the GET /automata request.
func (s *Server) ListAutomata(w http.ResponseWriter, r *http.Request) {
	names, err := s.Interp.Automata(r.Context())
	if err != nil {
		s.internalError(w, "ListAutomata", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"automata": names})
}

// GetAutomaton handles the GET /automata/{name} request.
func (s *Server) GetAutomaton(w http.ResponseWriter, r *http.Request, name string) {
	def, err := s.definition(r, name)
	if err != nil {
		s.lookupError(w, "GetAutomaton", err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// PutAutomaton handles the PUT /automata/{name} request. The definition is built before it
// is stored, so the store only ever holds definitions that compile.
func (s *Server) PutAutomaton(w http.ResponseWriter, r *http.Request, name string) {
	if s.Store == nil {
		writeError(w, http.StatusNotImplemented, Error{Kind: "read-only", Message: "no definition store configured"})
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, Error{Kind: "bad-request", Message: "invalid request body"})
		return
	}
	def, err := schema.ParseJSON(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, Error{Kind: "bad-request", Message: err.Error()})
		return
	}
	if def.Name != "" && def.Name != name {
		writeError(w, http.StatusBadRequest, Error{Kind: "bad-request", Message: fmt.Sprintf("body names %q, path names %q", def.Name, name)})
		return
	}
	def.Name = name

	if _, err := s.Interp.Define(r.Context(), def); err != nil {
		e := hostError(err)
		for _, ve := range schema.ValidationErrors(err) {
			e.Details = append(e.Details, ve.Error())
		}
		writeError(w, http.StatusUnprocessableEntity, e)
		return
	}
	if err := s.Store.Save(r.Context(), def); err != nil {
		s.internalError(w, "PutAutomaton", err)
		return
	}
	s.Logger.Info("Automaton Stored", "automaton", name)
	writeJSON(w, http.StatusOK, def)
}

// DeleteAutomaton handles the DELETE /automata/{name} request.
func (s *Server) DeleteAutomaton(w http.ResponseWriter, r *http.Request, name string) {
	if s.Store == nil {
		writeError(w, http.StatusNotImplemented, Error{Kind: "read-only", Message: "no definition store configured"})
		return
	}
	if err := s.Store.Delete(r.Context(), name); err != nil {
		s.internalError(w, "DeleteAutomaton", err)
		return
	}
	s.Interp.Forget(name)
	w.WriteHeader(http.StatusNoContent)
}

// RunAutomaton handles the POST /automata/{name}/run request.
func (s *Server) RunAutomaton(w http.ResponseWriter, r *http.Request, name string, params RunAutomatonParams) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, Error{Kind: "bad-request", Message: "invalid request body"})
		return
	}
	tapes := make([]types.Value, len(body.Tapes))
	for i, in := range body.Tapes {
		v, err := tapeValue(in)
		if err != nil {
			writeError(w, http.StatusBadRequest, Error{Kind: "bad-request", Message: fmt.Sprintf("tapes[%d]: %v", i, err)})
			return
		}
		tapes[i] = v
	}

	var (
		steps []*domain.StepEvent
		res   *domain.Result
		err   error
	)
	if params.Trace != nil && *params.Trace {
		steps, res, err = s.Interp.Trace(r.Context(), name, tapes...)
	} else {
		res, err = s.Interp.Run(r.Context(), name, tapes...)
	}
	if err != nil {
		if errors.Is(err, ports.ErrDefinitionNotFound) {
			writeError(w, http.StatusNotFound, Error{Kind: "not-found", Message: err.Error()})
			return
		}
		writeError(w, http.StatusUnprocessableEntity, hostError(err))
		return
	}

	resp := RunResponse{Outcome: res.Outcome.String(), Steps: res.Steps, Tapes: make([]TapeOutput, len(res.Tapes))}
	for i, t := range res.Tapes {
		cells := t.Cells()
		out := TapeOutput{Head: t.Index(), Contents: make([]any, len(cells))}
		for k, c := range cells {
			out.Contents[k] = schema.FromValue(c)
		}
		resp.Tapes[i] = out
	}
	for _, ev := range steps {
		st := Step{
			Step:       ev.Step,
			Depth:      ev.Depth,
			Automaton:  ev.Automaton,
			State:      ev.State,
			Symbols:    make([]string, len(ev.Symbols)),
			Transition: ev.Transition,
			Next:       ev.Next,
		}
		for k, sym := range ev.Symbols {
			st.Symbols[k] = sym.String()
		}
		resp.Trace = append(resp.Trace, st)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAutomatonGraph handles the GET /automata/{name}/graph request.
func (s *Server) GetAutomatonGraph(w http.ResponseWriter, r *http.Request, name string, params GetAutomatonGraphParams) {
	p, err := s.Interp.Lookup(r.Context(), name)
	if err != nil {
		s.lookupError(w, "GetAutomatonGraph", err)
		return
	}

	var out string
	if params.Format != nil && *params.Format == "markdown" {
		description := ""
		if def, err := s.definition(r, name); err == nil {
			description = def.Description
		}
		out, err = graph.Markdown(p.Automaton(), description)
	} else {
		out, err = graph.Mermaid(p.Automaton(), nil)
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, hostError(err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, out)
}

func (s *Server) definition(r *http.Request, name string) (*schema.Definition, error) {
	var loader ports.LibraryLoader = s.Store
	if s.Store == nil {
		loader = s.Interp.Library()
	}
	if loader == nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrDefinitionNotFound, name)
	}
	return loader.Load(r.Context(), name)
}

func (s *Server) lookupError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ports.ErrDefinitionNotFound) {
		writeError(w, http.StatusNotFound, Error{Kind: "not-found", Message: err.Error()})
		return
	}
	var ce *domain.ConstructionError
	if errors.As(err, &ce) {
		writeError(w, http.StatusUnprocessableEntity, hostError(err))
		return
	}
	s.internalError(w, op, err)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.Logger.Error(op+" failed", "err", err)
	writeError(w, http.StatusInternalServerError, Error{Kind: types.KindError, Message: err.Error()})
}

// tapeValue builds (head . contents) so that integer symbols are never read as a head.
func tapeValue(in TapeInput) (types.Value, error) {
	var cells []types.Value
	switch c := in.Contents.(type) {
	case string:
		cells = dsl.Chars(c)
	case []any:
		for _, raw := range c {
			v, err := schema.ToValue(raw)
			if err != nil {
				return nil, err
			}
			cells = append(cells, v)
		}
	case nil:
	default:
		return nil, fmt.Errorf("contents must be a string or an array, got %T", c)
	}
	return types.Cons(types.Integer(in.Head), types.List(cells...)), nil
}

func hostError(err error) Error {
	e := tlisp.ErrorValue(err)
	return Error{Kind: e.Kind, Message: e.Message}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, e Error) {
	writeJSON(w, status, ErrorResponse{Error: e})
}
