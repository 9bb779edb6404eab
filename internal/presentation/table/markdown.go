// Package table renders inspection reports as markdown tables.
package table

import (
	"fmt"
	"strings"

	"github.com/aretw0/prism/internal/inspect"
)

// Options selects what the renderers include.
type Options struct {
	// Hidden includes hidden and inspector-only ports.
	Hidden bool
}

// Layout renders the members and ports of r.
// Hidden ports are shown in italics.
func Layout(r inspect.Report, opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Layout `%s`\n\n", r.Fingerprint)

	sb.WriteString("| Member | Kind | Type | Ports |\n|---|---|---|---|\n")
	for _, m := range r.Members {
		fmt.Fprintf(&sb, "| %s | %s | `%s` | %s |\n", escape(m.Name), m.Kind, escape(m.Type), escape(strings.Join(m.Ports, ", ")))
	}

	sb.WriteString("\n| Scope | Port | Type | Bin |\n|---|---|---|---|\n")
	for _, p := range r.Ports {
		if !visible(p, opts) {
			continue
		}
		name := escape(p.Name)
		if p.Visibility != "visible" {
			name = "_" + name + "_"
		}
		bin := ""
		if p.BinSized {
			bin = "yes"
		}
		fmt.Fprintf(&sb, "| %s | %s | `%s` | %s |\n", p.Scope, name, escape(p.Type), bin)
	}
	return sb.String()
}

// Values renders one row per output port and one column per slice.
func Values(r inspect.Report, opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Frame %d\n\n", r.Frame)

	sb.WriteString("| Port |")
	for i := range r.Slices {
		fmt.Fprintf(&sb, " %d |", i)
	}
	sb.WriteString("\n|---|" + strings.Repeat("---|", r.Slices) + "\n")

	for _, p := range r.Ports {
		if p.Scope != "output" || !visible(p, opts) {
			continue
		}
		fmt.Fprintf(&sb, "| %s |", escape(p.Name))
		for i := range r.Slices {
			cell := ""
			if i < len(p.Values) {
				cell = escape(inspect.Sprint(p.Values[i]))
			}
			fmt.Fprintf(&sb, " %s |", cell)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func visible(p inspect.Port, opts Options) bool {
	return opts.Hidden || p.Visibility == "visible"
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
