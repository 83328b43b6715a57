package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the tlisp ASCII banner with the version underneath.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"  _   _ _           ", "#818cf8"},
		{" | |_| (_)___ _ __  ", "#a78bfa"},
		{" |  _| | / __| '_ \\ ", "#c084fc"},
		{" | |_| | \\__ \\ |_) |", "#e879f9"},
		{"  \\__|_|_|___/ .__/ ", "#f472b6"},
		{"             |_|    ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String(" automata on tapes, v"+version).Faint())
	fmt.Fprintln(w)
}
