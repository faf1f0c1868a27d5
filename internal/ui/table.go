package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"dvgen/internal/layout"
)

// TableOpts controls RenderLayout.
type TableOpts struct {
	Color bool
	Width int // truncates the method column; 0 means no limit
}

func renderer(st lipgloss.Style) func(string) string {
	return func(s string) string { return st.Render(s) }
}

// RenderLayout prints one block per class: the vector symbols, component
// offsets and slot table. Overriding slots are marked with '*', abstract
// methods with '!'.
func RenderLayout(w io.Writer, reports []layout.ClassReport, opts TableOpts) error {
	bold := func(s string) string { return s }
	dim := func(s string) string { return s }
	mark := func(s string) string { return s }
	if opts.Color {
		bold = renderer(lipgloss.NewStyle().Bold(true))
		dim = renderer(lipgloss.NewStyle().Foreground(lipgloss.Color("8")))
		mark = renderer(lipgloss.NewStyle().Foreground(lipgloss.Color("3")))
	}

	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s\n", bold(r.Class), dim("(unit "+r.Unit+")"))
		fmt.Fprintf(&b, "  type   %%%s\n", r.VectorType)
		fmt.Fprintf(&b, "  global @%s\n", r.Global)
		fmt.Fprintf(&b, "  size   %d (align %d)\n", r.Size, r.Align)
		parts := make([]string, 0, len(r.Components))
		for _, c := range r.Components {
			parts = append(parts, fmt.Sprintf("%s@%d", c.Name, c.Offset))
		}
		fmt.Fprintf(&b, "  fields %s\n", strings.Join(parts, " "))
		if len(r.Slots) == 0 {
			b.WriteString("  no virtual methods\n")
			continue
		}

		methodWidth := runewidth.StringWidth("method")
		for _, s := range r.Slots {
			methodWidth = max(methodWidth, runewidth.StringWidth(s.Method))
		}
		if opts.Width > 0 {
			// 2 indent + slot(4) + marks(3) + offset(6) + gaps
			methodWidth = min(methodWidth, max(opts.Width-18, 12))
		}
		fmt.Fprintf(&b, "  %s\n", dim(fmt.Sprintf("%4s %2s %6s  %s  %s", "slot", "", "offset", runewidth.FillRight("method", methodWidth), "symbol")))
		for _, s := range r.Slots {
			flags := " "
			if s.Override {
				flags = "*"
			}
			if s.Abstract {
				flags += "!"
			} else {
				flags += " "
			}
			method := runewidth.FillRight(truncate(s.Method, methodWidth), methodWidth)
			fmt.Fprintf(&b, "  %4d %s %6d  %s  %s\n", s.Index, mark(flags), s.Offset, method, s.Proc)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
