package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/tlisp"
	"github.com/aretw0/tlisp/internal/compiler"
	"github.com/aretw0/tlisp/internal/presentation/tui"
	"github.com/aretw0/tlisp/pkg/types"
	"golang.org/x/term"
)

const (
	prompt         = "tlisp> "
	continuePrompt = "...... "
)

const replHelp = `Enter expressions; unbalanced input continues on the next line.
  :automata  list known automata
  :help      show this help
  :quit      leave (Ctrl-D works too)`

// LineReader is the input side of the REPL. *term.Terminal implements it.
type LineReader interface {
	ReadLine() (string, error)
	SetPrompt(prompt string)
}

// scanReader reads lines from a pipe or file. It prints prompts only when echo is set.
type scanReader struct {
	sc     *bufio.Scanner
	out    io.Writer
	prompt string
	echo   bool
}

// NewScanReader returns a LineReader over r that writes prompts to out when echo is set.
func NewScanReader(r io.Reader, out io.Writer, echo bool) LineReader {
	return &scanReader{sc: bufio.NewScanner(r), out: out, echo: echo}
}

func (r *scanReader) SetPrompt(p string) { r.prompt = p }

func (r *scanReader) ReadLine() (string, error) {
	if r.echo {
		fmt.Fprint(r.out, r.prompt)
	}
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

// RunREPL starts an interactive session. On a terminal it uses raw mode line editing
// and prints the banner; otherwise it reads plain lines without prompts.
func RunREPL(ctx context.Context, app *App, in *os.File, out io.Writer) error {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err == nil {
			defer term.Restore(fd, state)
			t := term.NewTerminal(struct {
				io.Reader
				io.Writer
			}{in, out}, prompt)
			tui.PrintBanner(t, tlisp.Version)
			return Loop(ctx, app.Interp, t, t)
		}
		app.Logger.Debug("Raw mode unavailable", "err", err)
	}
	return Loop(ctx, app.Interp, NewScanReader(in, out, false), out)
}

// Loop reads, evaluates and prints until EOF, :quit or ctx is done.
func Loop(ctx context.Context, interp *tlisp.Interpreter, lines LineReader, out io.Writer) error {
	parser := compiler.NewParser()
	var pending strings.Builder

	for {
		if pending.Len() == 0 {
			lines.SetPrompt(prompt)
		} else {
			lines.SetPrompt(continuePrompt)
		}
		line, err := lines.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		if pending.Len() == 0 {
			switch strings.TrimSpace(line) {
			case "":
				continue
			case ":quit", ":q":
				return nil
			case ":help":
				fmt.Fprintln(out, replHelp)
				continue
			case ":automata":
				names, err := interp.Automata(ctx)
				if err != nil {
					printError(out, err)
				} else {
					fmt.Fprintln(out, strings.Join(names, " "))
				}
				continue
			}
		}

		pending.WriteString(line)
		pending.WriteByte('\n')
		src := pending.String()
		if _, err := parser.Parse(src); compiler.IsIncomplete(err) {
			continue
		}
		pending.Reset()

		v, err := interp.Eval(ctx, src)
		if err != nil {
			printError(out, tlisp.ErrorValue(err))
			continue
		}
		if _, void := v.(types.Void); !void {
			fmt.Fprintln(out, v.String())
		}
	}
}
