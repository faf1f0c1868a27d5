package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dvgen/internal/buildpipeline"
	"dvgen/internal/layoutcache"
	"dvgen/internal/ui"
)

var layoutCmd = &cobra.Command{
	Use:   "layout [flags] [files...]",
	Short: "Print dispatch vector layouts",
	Long:  "Print the component offsets and method slots of every class vector for the selected target.",
	RunE:  layoutExecution,
}

func layoutExecution(cmd *cobra.Command, args []string) error {
	classes, err := cmd.Flags().GetStringSlice("class")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	if format != "table" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be table or json)", format)
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	setup, err := resolveCompileSetup(cmd, args)
	if err != nil {
		return err
	}
	req := buildpipeline.LayoutRequest{
		CompileRequest: setup.Request,
		Classes:        classes,
	}
	if !noCache {
		cache, cerr := layoutcache.Open("dvgen")
		if cerr != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "warning: layout cache disabled: %v\n", cerr)
			}
		} else {
			if clearCache {
				if err := cache.DropAll(); err != nil {
					return fmt.Errorf("failed to clear layout cache: %w", err)
				}
			}
			req.Cache = cache
		}
	}

	var res buildpipeline.LayoutResult
	// auto stays off: the progress view would share the terminal with the table
	if uiModeValue == uiModeOn {
		res, err = runLayoutsWithUI(cmd.Context(), "dvgen layout", &req)
	} else {
		res, err = buildpipeline.Layouts(cmd.Context(), &req)
	}
	if perr := printDiagnostics(cmd, os.Stderr, &res.CompileResult, "pretty"); perr != nil {
		return perr
	}
	if err != nil {
		return err
	}
	if len(classes) > 0 && len(res.Reports) == 0 {
		return fmt.Errorf("no class matches %v", classes)
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Reports)
	}
	useColor, err := colorEnabled(cmd, os.Stdout)
	if err != nil {
		return err
	}
	width := 0
	if isTerminal(os.Stdout) {
		if w, _, serr := term.GetSize(int(os.Stdout.Fd())); serr == nil { // #nosec G115 -- file descriptors fit in int
			width = w
		}
	}
	if err := ui.RenderLayout(os.Stdout, res.Reports, ui.TableOpts{Color: useColor, Width: width}); err != nil {
		return err
	}
	if res.Cached && !quiet {
		fmt.Fprintln(os.Stderr, "(from layout cache)")
	}
	return nil
}

func init() {
	addCompileFlags(layoutCmd)
	layoutCmd.Flags().StringSlice("class", nil, "only print these classes (repeatable)")
	layoutCmd.Flags().String("format", "table", "output format (table|json)")
	layoutCmd.Flags().Bool("no-cache", false, "do not read or write the layout cache")
	layoutCmd.Flags().Bool("clear-cache", false, "drop all cached layouts before running")
}
