package http

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

//go:embed openapi.yaml
var rawSpec []byte

var (
	swaggerOnce sync.Once
	swagger     *openapi3.T
	swaggerErr  error
)

// GetSwagger returns the parsed and validated OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		swagger, swaggerErr = loader.LoadFromData(rawSpec)
		if swaggerErr == nil {
			swaggerErr = swagger.Validate(context.Background())
		}
	})
	return swagger, swaggerErr
}

// EvalRequest is the body of POST /eval.
type EvalRequest struct {
	Source string `json:"source"`
}

// EvalResponse carries the printed value of the last expression.
type EvalResponse struct {
	Value string `json:"value"`
}

// Error is the JSON form of a host error value.
type Error struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error Error `json:"error"`
}

// TapeInput is one input tape. Contents is a string or an array of symbols.
type TapeInput struct {
	Contents any `json:"contents"`
	Head     int `json:"head,omitempty"`
}

type RunRequest struct {
	Tapes []TapeInput `json:"tapes"`
}

type TapeOutput struct {
	Head     int   `json:"head"`
	Contents []any `json:"contents"`
}

// Step is one traced step.
type Step struct {
	Step       int      `json:"step"`
	Depth      int      `json:"depth"`
	Automaton  string   `json:"automaton"`
	State      string   `json:"state"`
	Symbols    []string `json:"symbols"`
	Transition int      `json:"transition"`
	Next       string   `json:"next"`
}

type RunResponse struct {
	Outcome string       `json:"outcome"`
	Steps   int          `json:"steps"`
	Tapes   []TapeOutput `json:"tapes"`
	Trace   []Step       `json:"trace,omitempty"`
}

type RunAutomatonParams struct {
	Trace *bool `json:"trace,omitempty"`
}

type GetAutomatonGraphParams struct {
	Format *string `json:"format,omitempty"`
}

// ServerInterface is implemented by Server; one method per operation of openapi.yaml.
type ServerInterface interface {
	GetHealth(w http.ResponseWriter, r *http.Request)
	GetInfo(w http.ResponseWriter, r *http.Request)
	EvalSource(w http.ResponseWriter, r *http.Request)
	ListAutomata(w http.ResponseWriter, r *http.Request)
	GetAutomaton(w http.ResponseWriter, r *http.Request, name string)
	PutAutomaton(w http.ResponseWriter, r *http.Request, name string)
	DeleteAutomaton(w http.ResponseWriter, r *http.Request, name string)
	RunAutomaton(w http.ResponseWriter, r *http.Request, name string, params RunAutomatonParams)
	GetAutomatonGraph(w http.ResponseWriter, r *http.Request, name string, params GetAutomatonGraphParams)
}

// wrapper binds path and query parameters before calling the ServerInterface.
type wrapper struct {
	handler ServerInterface
	onError func(w http.ResponseWriter, r *http.Request, err error)
}

func (w *wrapper) name(rw http.ResponseWriter, r *http.Request) (string, bool) {
	var name string
	err := runtime.BindStyledParameterWithOptions("simple", "name", chi.URLParam(r, "name"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		w.onError(rw, r, fmt.Errorf("invalid format for parameter name: %w", err))
		return "", false
	}
	return name, true
}

func (w *wrapper) GetAutomaton(rw http.ResponseWriter, r *http.Request) {
	if name, ok := w.name(rw, r); ok {
		w.handler.GetAutomaton(rw, r, name)
	}
}

func (w *wrapper) PutAutomaton(rw http.ResponseWriter, r *http.Request) {
	if name, ok := w.name(rw, r); ok {
		w.handler.PutAutomaton(rw, r, name)
	}
}

func (w *wrapper) DeleteAutomaton(rw http.ResponseWriter, r *http.Request) {
	if name, ok := w.name(rw, r); ok {
		w.handler.DeleteAutomaton(rw, r, name)
	}
}

func (w *wrapper) RunAutomaton(rw http.ResponseWriter, r *http.Request) {
	name, ok := w.name(rw, r)
	if !ok {
		return
	}
	var params RunAutomatonParams
	if err := runtime.BindQueryParameter("form", true, false, "trace", r.URL.Query(), &params.Trace); err != nil {
		w.onError(rw, r, fmt.Errorf("invalid format for parameter trace: %w", err))
		return
	}
	w.handler.RunAutomaton(rw, r, name, params)
}

func (w *wrapper) GetAutomatonGraph(rw http.ResponseWriter, r *http.Request) {
	name, ok := w.name(rw, r)
	if !ok {
		return
	}
	var params GetAutomatonGraphParams
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &params.Format); err != nil {
		w.onError(rw, r, fmt.Errorf("invalid format for parameter format: %w", err))
		return
	}
	w.handler.GetAutomatonGraph(rw, r, name, params)
}

// HandlerFromMux registers every operation on r. Each route first passes through validate.
func HandlerFromMux(si ServerInterface, r chi.Router, validate func(http.Handler) http.Handler) http.Handler {
	w := &wrapper{handler: si, onError: func(rw http.ResponseWriter, _ *http.Request, err error) {
		writeError(rw, http.StatusBadRequest, Error{Kind: "bad-request", Message: err.Error()})
	}}

	v := r.With(validate)
	v.Get("/health", si.GetHealth)
	v.Get("/info", si.GetInfo)
	v.Post("/eval", si.EvalSource)
	v.Get("/automata", si.ListAutomata)
	v.Get("/automata/{name}", w.GetAutomaton)
	v.Put("/automata/{name}", w.PutAutomaton)
	v.Delete("/automata/{name}", w.DeleteAutomaton)
	v.Post("/automata/{name}/run", w.RunAutomaton)
	v.Get("/automata/{name}/graph", w.GetAutomatonGraph)
	return r
}
