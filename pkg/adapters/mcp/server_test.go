package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/tlisp"
	"github.com/aretw0/tlisp/pkg/adapters/memory"
	"github.com/aretw0/tlisp/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	lib, err := memory.NewFromDefinitions(&schema.Definition{
		Name:        "ones",
		Description: "accepts strings of ones",
		States: []schema.StateDef{{Name: "scan", Transitions: []schema.TransitionDef{
			{Match: "1", Ops: []schema.Op{{Kind: schema.OpRight}}, Next: "self"},
			{Match: []any{}, Next: "accept"},
		}}},
	})
	require.NoError(t, err)
	return NewServer(tlisp.New(tlisp.WithLibrary(lib)))
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestEvalTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleEval(ctx, call(map[string]any{"source": "(list 1 \"a\")"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, `(1 "a")`, text(t, res))

	res, err = s.handleEval(ctx, call(map[string]any{"source": "(car 1)"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "type-error")

	res, err = s.handleEval(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestRunTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	out, err := s.handleRun(ctx, mcp.CallToolRequest{}, RunArgs{Name: "ones", Tapes: []string{"11"}, Trace: true})
	require.NoError(t, err)
	assert.Equal(t, "accept", out.Outcome)
	assert.Equal(t, 3, out.Steps)
	assert.Equal(t, []string{`(2 "1" "1" ())`}, out.Tapes)
	require.Len(t, out.Trace, 3)
	assert.Equal(t, `1 scan ("1") -> scan`, out.Trace[0])

	out, err = s.handleRun(ctx, mcp.CallToolRequest{}, RunArgs{Name: "ones", Tapes: []string{"10"}})
	require.NoError(t, err)
	assert.Equal(t, "reject", out.Outcome)
	assert.Empty(t, out.Trace)

	handler := mcp.NewStructuredToolHandler(s.handleRun)
	res, err := handler(ctx, call(map[string]any{"name": "missing", "tapes": []any{"1"}}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListAndDescribeTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleList(ctx, call(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `["ones"]`, text(t, res))

	res, err = s.handleDescribe(ctx, call(map[string]any{"name": "ones"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "accepts strings of ones")

	res, err = s.handleDescribe(ctx, call(map[string]any{"name": "ones", "format": "mermaid"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "graph LR")

	res, err = s.handleDescribe(ctx, call(map[string]any{"name": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAutomataResource(t *testing.T) {
	s := newTestServer(t)
	_, err := s.interp.Eval(context.Background(), `(define local (automaton (s (_ accept))))`)
	require.NoError(t, err)

	data, err := s.automata(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `["local","ones"]`, string(data))
}
