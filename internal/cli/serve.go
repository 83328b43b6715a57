package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/tlisp/pkg/adapters/http"
	"github.com/aretw0/tlisp/pkg/adapters/mcp"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the HTTP API on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, app *App, out io.Writer, addr string) error {
	handler, err := httpAdapter.NewHandler(app.Interp,
		httpAdapter.WithStore(app.Store),
		httpAdapter.WithMetrics(app.Registry),
		httpAdapter.WithLogger(app.Logger),
	)
	if err != nil {
		return fmt.Errorf("failed to build handler: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(out, "Serving tlisp API on %s", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	printSystemMessage(out, "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
		return srv.Close()
	}
	return nil
}

// ServeMCP exposes the interpreter as MCP tools over stdio or SSE.
func ServeMCP(ctx context.Context, app *App, transport, addr string) error {
	srv := mcp.NewServer(app.Interp)
	switch transport {
	case "stdio":
		return ignoreInterrupt(srv.ServeStdio())
	case "sse":
		return ignoreInterrupt(srv.ServeSSE(ctx, addr))
	default:
		return fmt.Errorf("unknown transport %q, expected stdio or sse", transport)
	}
}

// ignoreInterrupt turns a cancellation caused by a signal into a clean exit.
func ignoreInterrupt(err error) error {
	if isInterrupted(err) {
		return nil
	}
	return err
}
