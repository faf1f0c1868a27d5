package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dvgen/internal/buildpipeline"
	"dvgen/internal/diagfmt"
)

// colorEnabled reads --color and falls back to terminal detection for auto.
func colorEnabled(cmd *cobra.Command, f *os.File) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch colorFlag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(f), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
}

// printDiagnostics writes the collected diagnostics in the requested format.
// Warnings are printed even when the run succeeded.
func printDiagnostics(cmd *cobra.Command, w io.Writer, res *buildpipeline.CompileResult, format string) error {
	if res == nil || res.Bag == nil || res.Bag.Len() == 0 {
		return nil
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	if quiet && !res.Bag.HasErrors() {
		return nil
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	switch format {
	case "json":
		return diagfmt.JSON(w, res.Bag, res.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeAuto,
			Max:              maxDiagnostics,
			IncludeNotes:     true,
		})
	default:
		useColor, err := colorEnabled(cmd, os.Stderr)
		if err != nil {
			return err
		}
		diagfmt.Pretty(w, res.Bag, res.Files, diagfmt.PrettyOpts{
			Color:     useColor,
			PathMode:  diagfmt.PathModeAuto,
			ShowNotes: true,
		})
		if dropped := res.Bag.Dropped(); dropped > 0 {
			fmt.Fprintf(w, "... %d more diagnostics not shown\n", dropped)
		}
		return nil
	}
}
