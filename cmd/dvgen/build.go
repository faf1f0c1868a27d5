package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"dvgen/internal/buildpipeline"
	"dvgen/internal/observ"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [files...]",
	Short: "Generate dispatch vectors for class tables",
	Long:  "Generate one LLVM module per unit from the given class tables, or from the inputs listed in dvgen.toml.",
	RunE:  buildExecution,
}

func buildExecution(cmd *cobra.Command, args []string) error {
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	emitThunks, err := cmd.Flags().GetBool("emit-thunks")
	if err != nil {
		return err
	}
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	objects, err := cmd.Flags().GetBool("objects")
	if err != nil {
		return err
	}
	printCommands, err := cmd.Flags().GetBool("print-commands")
	if err != nil {
		return err
	}
	diagFormat, err := cmd.Flags().GetString("diagnostics")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	if diagFormat != "pretty" && diagFormat != "json" {
		return fmt.Errorf("unsupported diagnostics format %q (must be pretty or json)", diagFormat)
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	setup, err := resolveCompileSetup(cmd, args)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("emit-thunks") || setup.Manifest == nil {
		setup.Request.EmitThunks = emitThunks
	}
	if cmd.Flags().Changed("check") || setup.Manifest == nil {
		setup.Request.Check = check
	}
	if !cmd.Flags().Changed("out") && setup.Manifest != nil {
		outDir = setup.Manifest.outDir()
	}
	var timer *observ.Timer
	if showTimings {
		timer = observ.NewTimer()
		setup.Request.Timer = timer
	}

	req := buildpipeline.BuildRequest{
		CompileRequest: setup.Request,
		OutDir:         outDir,
		Objects:        objects,
		PrintCommands:  printCommands,
	}

	var res buildpipeline.BuildResult
	if shouldUseTUI(uiModeValue) && !quiet {
		res, err = runBuildWithUI(cmd.Context(), "dvgen build", &req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), &req)
	}
	if perr := printDiagnostics(cmd, os.Stderr, &res.CompileResult, diagFormat); perr != nil {
		return perr
	}
	if showTimings {
		printStageTimings(os.Stdout, res.Timings, err == nil)
		printPhaseTimings(os.Stdout, timer)
	}
	if err != nil {
		return err
	}
	if quiet {
		return nil
	}
	for _, p := range res.Outputs {
		if _, err := fmt.Fprintf(os.Stdout, "wrote %s\n", formatPathForOutput(setup.BaseDir, absPath(p))); err != nil {
			return err
		}
	}
	for _, p := range res.Objects {
		if _, err := fmt.Fprintf(os.Stdout, "wrote %s\n", formatPathForOutput(setup.BaseDir, absPath(p))); err != nil {
			return err
		}
	}
	return nil
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func init() {
	addCompileFlags(buildCmd)
	buildCmd.Flags().String("out", filepath.Join("target", "dv"), "output directory for .ll files")
	buildCmd.Flags().Bool("emit-thunks", false, "emit a $vcall thunk per virtual method")
	buildCmd.Flags().Bool("check", false, "verify prefix compatibility of every generated vector")
	buildCmd.Flags().Bool("objects", false, "compile each module to an object file with clang")
	buildCmd.Flags().Bool("print-commands", false, "print LLVM build commands")
	buildCmd.Flags().String("diagnostics", "pretty", "diagnostics format (pretty|json)")
}
