package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/tlisp"
	"github.com/aretw0/tlisp/pkg/adapters/memory"
	"github.com/aretw0/tlisp/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flip = `{
	"description": "inverts a binary string",
	"states": [{"name": "flip", "transitions": [
		{"match": "0", "ops": [{"write": "1"}, "->"], "next": "self"},
		{"match": "1", "ops": [{"write": "0"}, "->"], "next": "self"},
		{"match": [], "next": "accept"}
	]}]
}`

func newTestHandler(t *testing.T, opts ...Option) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	interp := tlisp.New(tlisp.WithLibrary(store))
	h, err := NewHandler(interp, append([]Option{WithStore(store)}, opts...)...)
	require.NoError(t, err)
	return h, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSpecIsValid(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "tlisp API", doc.Info.Title)
}

func TestHealthAndInfo(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	info := decode[map[string]string](t, do(t, h, "GET", "/info", ""))
	assert.Equal(t, tlisp.Version, info["version"])
	assert.Equal(t, "0.1.0", info["api_version"])

	w = do(t, h, "GET", "/openapi.yaml", "")
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestEval(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "POST", "/eval", `{"source": "(define x 20) (+ x 22)"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "42", decode[EvalResponse](t, w).Value)

	// Definitions persist across requests.
	w = do(t, h, "POST", "/eval", `{"source": "x"}`)
	assert.Equal(t, "20", decode[EvalResponse](t, w).Value)

	w = do(t, h, "POST", "/eval", `{"source": "(error \"boom\")"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "user-error", resp.Error.Kind)
	assert.Equal(t, "boom", resp.Error.Message)
}

func TestEval_RejectedByContract(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "POST", "/eval", `{"code": "1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad-request", decode[ErrorResponse](t, w).Error.Kind)
}

func TestAutomatonLifecycle(t *testing.T) {
	h, store := newTestHandler(t)

	w := do(t, h, "PUT", "/automata/flip", flip)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stored, err := store.Load(t.Context(), "flip")
	require.NoError(t, err)
	assert.Equal(t, "inverts a binary string", stored.Description)

	list := decode[map[string][]string](t, do(t, h, "GET", "/automata", ""))
	assert.Equal(t, []string{"flip"}, list["automata"])

	w = do(t, h, "GET", "/automata/flip", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"flip"`)

	w = do(t, h, "POST", "/automata/flip/run", `{"tapes": [{"contents": "0110"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	run := decode[RunResponse](t, w)
	assert.Equal(t, "accept", run.Outcome)
	assert.Equal(t, 5, run.Steps)
	require.Len(t, run.Tapes, 1)
	assert.Equal(t, 4, run.Tapes[0].Head)
	assert.Equal(t, []any{"1", "0", "0", "1"}, run.Tapes[0].Contents[:4])
	assert.Empty(t, run.Trace)

	w = do(t, h, "POST", "/automata/flip/run?trace=true", `{"tapes": [{"contents": ["1"], "head": 0}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	run = decode[RunResponse](t, w)
	require.Len(t, run.Trace, 2)
	assert.Equal(t, "flip", run.Trace[0].State)
	assert.Equal(t, []string{`"1"`}, run.Trace[0].Symbols)
	assert.Equal(t, "accept", run.Trace[1].Next)

	w = do(t, h, "GET", "/automata/flip/graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "graph LR")

	w = do(t, h, "GET", "/automata/flip/graph?format=markdown", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "inverts a binary string")

	w = do(t, h, "GET", "/automata/flip/graph?format=png", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "DELETE", "/automata/flip", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/automata/flip", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, h, "POST", "/automata/flip/run", `{"tapes": [{"contents": "0"}]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutAutomaton_Invalid(t *testing.T) {
	h, store := newTestHandler(t)

	w := do(t, h, "PUT", "/automata/broken", `{"states": [{"name": "a", "transitions": [{"any": true, "next": "nowhere"}]}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "construction-error", resp.Error.Kind)
	require.NotEmpty(t, resp.Error.Details)
	assert.Contains(t, resp.Error.Details[0], "nowhere")

	names, err := store.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, names)

	w = do(t, h, "PUT", "/automata/flip", `{"name": "other", "states": [{"name": "a"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunAutomaton_Errors(t *testing.T) {
	h, _ := newTestHandler(t)
	require.Equal(t, http.StatusOK, do(t, h, "PUT", "/automata/flip", flip).Code)

	w := do(t, h, "POST", "/automata/flip/run", `{"tapes": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "arity-error", decode[ErrorResponse](t, w).Error.Kind)

	w = do(t, h, "POST", "/automata/flip/run", `{"tapes": [{"contents": 7}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReadOnly(t *testing.T) {
	h, err := NewHandler(tlisp.New())
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotImplemented, do(t, h, "PUT", "/automata/flip", flip).Code)
	assert.Equal(t, http.StatusNotImplemented, do(t, h, "DELETE", "/automata/flip", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/automata/flip", "").Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	store := memory.NewStore()
	interp := tlisp.New(tlisp.WithLibrary(store), tlisp.WithLifecycleHooks(metrics.Hooks()))
	h, err := NewHandler(interp, WithStore(store), WithMetrics(reg))
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, do(t, h, "PUT", "/automata/flip", flip).Code)
	require.Equal(t, http.StatusOK, do(t, h, "POST", "/automata/flip/run", `{"tapes": [{"contents": "01"}]}`).Code)

	w := do(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `tlisp_runs_total{automaton="flip",outcome="accept"} 1`)
}

func TestTapeValue(t *testing.T) {
	v, err := tapeValue(TapeInput{Contents: []any{float64(1), "a"}, Head: 1})
	require.NoError(t, err)
	assert.Equal(t, `(1 1 "a")`, v.String())

	v, err = tapeValue(TapeInput{})
	require.NoError(t, err)
	assert.Equal(t, "(0)", v.String())

	_, err = tapeValue(TapeInput{Contents: map[string]any{}})
	assert.Error(t, err)
}
