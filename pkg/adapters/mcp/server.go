// Package mcp exposes an Interpreter as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tlisp"
	"github.com/aretw0/tlisp/internal/presentation/graph"
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/types"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AutomataURI is the resource listing every known automaton.
const AutomataURI = "tlisp://automata"

// RunArgs are the arguments of the run_automaton tool.
type RunArgs struct {
	Name  string   `json:"name"`
	Tapes []string `json:"tapes"`
	Trace bool     `json:"trace,omitempty"`
}

// RunResult aligns with the HTTP RunResponse, with tapes printed as (head . contents).
type RunResult struct {
	Outcome string   `json:"outcome" jsonschema_description:"halt, accept or reject"`
	Steps   int      `json:"steps" jsonschema_description:"Steps taken, base machines included"`
	Tapes   []string `json:"tapes" jsonschema_description:"Final tapes as (head . contents)"`
	Trace   []string `json:"trace,omitempty" jsonschema_description:"One line per step when trace is set"`
}

// Server wraps the Interpreter and exposes it as an MCP Server.
type Server struct {
	interp    *tlisp.Interpreter
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(interp *tlisp.Interpreter) *Server {
	s := &Server{
		interp:    interp,
		logger:    interp.Logger(),
		mcpServer: server.NewMCPServer("tlisp-mcp", tlisp.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://localhost"+addr))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("eval",
		mcp.WithDescription("Evaluate tlisp source in the global scope and print the last value."),
		mcp.WithString("source", mcp.Required(), mcp.Description("One or more expressions")),
	), s.handleEval)

	s.mcpServer.AddTool(mcp.NewTool("run_automaton",
		mcp.WithDescription("Run a named automaton; each tape is a string read one symbol per character."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Automaton name")),
		mcp.WithArray("tapes", mcp.Required(), mcp.Description("One string per tape"), mcp.WithStringItems()),
		mcp.WithBoolean("trace", mcp.Description("Report every step")),
		mcp.WithOutputSchema[RunResult](),
	), mcp.NewStructuredToolHandler(s.handleRun))

	s.mcpServer.AddTool(mcp.NewTool("list_automata",
		mcp.WithDescription("List the automata bound globally and available in the library."),
	), s.handleList)

	s.mcpServer.AddTool(mcp.NewTool("describe_automaton",
		mcp.WithDescription("Describe an automaton as markdown, or as a Mermaid diagram."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Automaton name")),
		mcp.WithString("format", mcp.Enum("markdown", "mermaid"), mcp.Description("Output format, markdown by default")),
	), s.handleDescribe)
}

func (s *Server) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.interp.Eval(ctx, src)
	if err != nil {
		return mcp.NewToolResultError(tlisp.ErrorValue(err).Error()), nil
	}
	return mcp.NewToolResultText(v.String()), nil
}

func (s *Server) handleRun(ctx context.Context, _ mcp.CallToolRequest, args RunArgs) (RunResult, error) {
	tapes := make([]types.Value, len(args.Tapes))
	for i, t := range args.Tapes {
		tapes[i] = types.String(t)
	}

	var (
		steps []*domain.StepEvent
		res   *domain.Result
		err   error
	)
	if args.Trace {
		steps, res, err = s.interp.Trace(ctx, args.Name, tapes...)
	} else {
		res, err = s.interp.Run(ctx, args.Name, tapes...)
	}
	if err != nil {
		s.logger.Warn("MCP Run failed", "automaton", args.Name, "err", err)
		return RunResult{}, tlisp.ErrorValue(err)
	}

	out := RunResult{Outcome: res.Outcome.String(), Steps: res.Steps, Tapes: make([]string, len(res.Tapes))}
	for i, t := range res.Tapes {
		out.Tapes[i] = t.Value().String()
	}
	for _, ev := range steps {
		out.Trace = append(out.Trace, fmt.Sprintf("%d %s %s -> %s", ev.Step, ev.State, types.List(ev.Symbols...), ev.Next))
	}
	return out, nil
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.automata(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.interp.Lookup(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var out string
	if request.GetString("format", "markdown") == "mermaid" {
		out, err = graph.Mermaid(p.Automaton(), nil)
	} else {
		description := ""
		if lib := s.interp.Library(); lib != nil {
			if def, err := lib.Load(ctx, name); err == nil {
				description = def.Description
			}
		}
		out, err = graph.Markdown(p.Automaton(), description)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) automata(ctx context.Context) ([]byte, error) {
	names, err := s.interp.Automata(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list automata: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(AutomataURI, "Known automata",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := s.automata(ctx)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      AutomataURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
