package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"dvgen/internal/diag"
	"dvgen/internal/source"
)

// Pretty prints every diagnostic as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line and a ^~~ underline of the primary span.
// The bag is expected to be sorted.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	errC := color.New(color.FgRed, color.Bold)
	warnC := color.New(color.FgYellow, color.Bold)
	infoC := color.New(color.FgCyan)
	dim := color.New(color.Faint)
	for _, c := range []*color.Color{errC, warnC, infoC, dim} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for _, d := range bag.Items() {
		sevC := infoC
		switch d.Severity {
		case diag.SevError:
			sevC = errC
		case diag.SevWarning:
			sevC = warnC
		}
		f := fs.Get(d.Primary.File)
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			displayPath(f, opts.PathMode), start.Line, start.Col,
			sevC.Sprint(d.Severity.String()), d.Code.ID(), d.Message)
		writeExcerpt(w, fs, d.Primary, dim)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			nf := fs.Get(n.Span.File)
			ns, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  note: %s:%d:%d: %s\n", displayPath(nf, opts.PathMode), ns.Line, ns.Col, n.Msg)
		}
	}
	if dropped := bag.Dropped(); dropped > 0 {
		fmt.Fprintf(w, "%s\n", dim.Sprintf("... %d more diagnostics suppressed", dropped))
	}
}

func writeExcerpt(w io.Writer, fs *source.FileSet, sp source.Span, dim *color.Color) {
	f := fs.Get(sp.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(sp)
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		width = int(end.Col - start.Col)
	}
	gutter := fmt.Sprintf("%4d | ", start.Line)
	fmt.Fprintf(w, "%s%s\n", dim.Sprint(gutter), line)
	pad := strings.Repeat(" ", len(gutter)+int(start.Col)-1)
	fmt.Fprintf(w, "%s^%s\n", pad, strings.Repeat("~", width-1))
}
