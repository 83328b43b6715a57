package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/tlisp/internal/presentation/graph"
	"github.com/aretw0/tlisp/internal/presentation/tui"
	"github.com/aretw0/tlisp/internal/validator"
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/aretw0/tlisp/pkg/schema"
	"github.com/aretw0/tlisp/pkg/types"
)

// RunOptions configures RunAutomaton.
type RunOptions struct {
	Name string
	// Tapes holds one string per tape, read one symbol per character.
	Tapes []string
	Trace bool
	JSON  bool
}

type jsonTape struct {
	Head     int   `json:"head"`
	Contents []any `json:"contents"`
}

type jsonResult struct {
	Outcome string     `json:"outcome"`
	Steps   int        `json:"steps"`
	Tapes   []jsonTape `json:"tapes"`
}

// RunAutomaton runs a named automaton and prints the trace (when asked), the outcome and the tapes.
func RunAutomaton(ctx context.Context, app *App, out io.Writer, opts RunOptions) (*domain.Result, error) {
	tapes := make([]types.Value, len(opts.Tapes))
	for i, t := range opts.Tapes {
		tapes[i] = types.String(t)
	}

	var (
		steps []*domain.StepEvent
		res   *domain.Result
		err   error
	)
	if opts.Trace {
		steps, res, err = app.Interp.Trace(ctx, opts.Name, tapes...)
	} else {
		res, err = app.Interp.Run(ctx, opts.Name, tapes...)
	}
	if err != nil {
		return nil, err
	}

	if opts.JSON {
		jr := jsonResult{Outcome: res.Outcome.String(), Steps: res.Steps}
		for _, t := range res.Tapes {
			jt := jsonTape{Head: t.Index()}
			for _, c := range t.Cells() {
				jt.Contents = append(jt.Contents, schema.FromValue(c))
			}
			jr.Tapes = append(jr.Tapes, jt)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return res, enc.Encode(jr)
	}

	for _, ev := range steps {
		fmt.Fprintf(out, "%4d  %-12s %-16s -> %s\n", ev.Step, ev.State, types.List(ev.Symbols...), ev.Next)
	}
	fmt.Fprintf(out, "outcome: %s\n", tui.Outcome(res.Outcome))
	fmt.Fprintf(out, "steps:   %d\n", res.Steps)
	for i, t := range res.Tapes {
		fmt.Fprintf(out, "tape %d:  %s\n", i, t)
	}
	return res, nil
}

// Describe prints the markdown description of an automaton, rendered for the terminal unless raw.
func Describe(ctx context.Context, app *App, out io.Writer, name string, raw bool) error {
	p, err := app.Interp.Lookup(ctx, name)
	if err != nil {
		return err
	}
	description := ""
	if def, err := app.Library.Load(ctx, name); err == nil {
		description = def.Description
	}
	md, err := graph.Markdown(p.Automaton(), description)
	if err != nil {
		return err
	}
	if !raw {
		if rendered, err := tui.NewRenderer()(md); err == nil {
			md = rendered
		}
	}
	_, err = io.WriteString(out, md)
	return err
}

// Graph prints the Mermaid diagram of an automaton. With tapes, the states visited by
// a run on them are highlighted.
func Graph(ctx context.Context, app *App, out io.Writer, name string, tapes []string) error {
	p, err := app.Interp.Lookup(ctx, name)
	if err != nil {
		return err
	}
	var overlay *graph.Overlay
	if len(tapes) > 0 {
		args := make([]types.Value, len(tapes))
		for i, t := range tapes {
			args[i] = types.String(t)
		}
		steps, _, err := app.Interp.Trace(ctx, name, args...)
		if err != nil {
			return err
		}
		overlay = graph.OverlayFromTrace(steps)
	}
	diagram, err := graph.Mermaid(p.Automaton(), overlay)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, diagram)
	return err
}

// Validate checks the named definitions, or the whole library when names is empty.
// It fails when any definition has errors; warnings are only printed.
func Validate(ctx context.Context, app *App, out io.Writer, names ...string) error {
	var reports []*validator.Report
	if len(names) == 0 {
		all, err := validator.CheckLibrary(ctx, app.Library)
		if err != nil {
			return err
		}
		reports = all
	}
	for _, name := range names {
		def, err := app.Library.Load(ctx, name)
		if err != nil {
			reports = append(reports, &validator.Report{Automaton: name, Errors: []string{err.Error()}})
			continue
		}
		reports = append(reports, validator.Check(ctx, def, app.Library))
	}

	failed := 0
	for _, r := range reports {
		io.WriteString(out, r.String())
		if !r.OK() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d automata are invalid", failed, len(reports))
	}
	fmt.Fprintf(out, "%d automata checked, all valid\n", len(reports))
	return nil
}
