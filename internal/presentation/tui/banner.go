package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the prism banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	if !IsTerminal(w) {
		p = termenv.Ascii
	}
	// A short spectrum, red to violet.
	colors := []string{"#f87171", "#fbbf24", "#34d399", "#60a5fa", "#a78bfa"}
	lines := []string{
		"             _",
		"  _ __  _ __(_)___ _ __ ___",
		" | '_ \\| '__| / __| '_ ` _ \\",
		" | |_) | |  | \\__ \\ | | | | |",
		" | .__/|_|  |_|___/_| |_| |_|",
		" |_|",
	}

	fmt.Fprintln(w)
	for i, l := range lines {
		fmt.Fprintln(w, termenv.String(l).Foreground(p.Color(colors[i%len(colors)])))
	}
	fmt.Fprintln(w)
}

// Heading styles a heading line for w.
func Heading(w io.Writer, text string) string {
	if !IsTerminal(w) {
		return text
	}
	return termenv.String(text).Bold().Foreground(termenv.ColorProfile().Color("#a78bfa")).String()
}
