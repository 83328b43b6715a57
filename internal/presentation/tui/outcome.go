package tui

import (
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/muesli/termenv"
)

// Outcome colours a run outcome: green for accept, red for reject, plain for halt.
func Outcome(o domain.Outcome) string {
	p := termenv.ColorProfile()
	s := termenv.String(o.String()).Bold()
	switch o {
	case domain.OutcomeAccept:
		s = s.Foreground(p.Color("#22c55e"))
	case domain.OutcomeReject:
		s = s.Foreground(p.Color("#ef4444"))
	}
	return s.String()
}

// Error renders an error line for terminal output.
func Error(msg string) string {
	p := termenv.ColorProfile()
	return termenv.String("error: " + msg).Foreground(p.Color("#ef4444")).String()
}
