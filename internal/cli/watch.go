package cli

import (
	"context"
	"io"
	"time"

	"github.com/aretw0/tlisp/pkg/ports"
)

// WatchLibrary forgets cached automata whenever their definitions change, so the next
// lookup recompiles them. It returns immediately when the library cannot be watched.
func WatchLibrary(ctx context.Context, app *App, out io.Writer) error {
	w, ok := app.Library.(ports.Watchable)
	if !ok {
		app.Logger.Debug("Library is not watchable")
		return nil
	}
	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case name, ok := <-events:
				if !ok {
					return
				}
				// Let editors finish writing before the next lookup reads the file.
				time.Sleep(100 * time.Millisecond)
				app.Interp.Forget(name)
				app.Logger.Info("Change detected, automaton reloads on next use", "automaton", name)
				if out != nil {
					printSystemMessage(out, "Change detected in '%s'.", name)
				}
			}
		}
	}()
	return nil
}
