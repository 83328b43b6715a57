package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/tlisp/pkg/types"
)

// RunFiles evaluates each file in order in one global scope. The value of the last
// expression of the last file is printed unless it is void.
func RunFiles(ctx context.Context, app *App, out io.Writer, paths ...string) error {
	var last types.Value = types.Void{}
	for _, path := range paths {
		v, err := app.Interp.EvalFile(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		app.Logger.Debug("File Evaluated", "path", path)
		last = v
	}
	if _, void := last.(types.Void); !void {
		fmt.Fprintln(out, last.String())
	}
	return nil
}

// EvalSource evaluates src and prints its value.
func EvalSource(ctx context.Context, app *App, out io.Writer, src string) error {
	v, err := app.Interp.Eval(ctx, src)
	if err != nil {
		return err
	}
	if _, void := v.(types.Void); !void {
		fmt.Fprintln(out, v.String())
	}
	return nil
}
