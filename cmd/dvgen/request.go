package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dvgen/internal/buildpipeline"
	"dvgen/internal/layout"
)

// addCompileFlags registers the flags shared by build and layout.
func addCompileFlags(cmd *cobra.Command) {
	cmd.Flags().String("target", "", fmt.Sprintf("target triple (%s)", strings.Join(layout.Triples(), ", ")))
	cmd.Flags().Int("jobs", 0, "parallel units (0 = GOMAXPROCS)")
	cmd.Flags().String("root", "", "name of the root class")
	cmd.Flags().String("unit", "", "unit for classes that do not name one")
	cmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
}

// compileSetup is the resolved input of a build or layout run.
type compileSetup struct {
	Request  buildpipeline.CompileRequest
	Manifest *projectManifest
	BaseDir  string
}

func resolveCompileSetup(cmd *cobra.Command, args []string) (*compileSetup, error) {
	setup := &compileSetup{}
	manifest, found, err := loadProjectManifest(".")
	if err != nil {
		return nil, err
	}

	var inputs []string
	switch {
	case len(args) > 0:
		inputs = append(inputs, args...)
	case found:
		inputs, err = manifest.inputPaths()
		if err != nil {
			return nil, err
		}
		setup.Manifest = manifest
		setup.BaseDir = manifest.Root
	default:
		return nil, errors.New(noManifestMessage)
	}

	var cfg buildConfig
	if setup.Manifest != nil {
		cfg = setup.Manifest.Config.Build
	}

	triple := cfg.Target
	if cmd.Flags().Changed("target") {
		if triple, err = cmd.Flags().GetString("target"); err != nil {
			return nil, err
		}
	}
	target, ok := layout.TargetByTriple(triple)
	if !ok {
		return nil, fmt.Errorf("unsupported target %q (supported: %s)", triple, strings.Join(layout.Triples(), ", "))
	}

	jobs := cfg.Jobs
	if cmd.Flags().Changed("jobs") {
		if jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return nil, err
		}
	}
	if jobs < 0 {
		return nil, fmt.Errorf("--jobs must not be negative")
	}
	rootName := cfg.Root
	if cmd.Flags().Changed("root") {
		if rootName, err = cmd.Flags().GetString("root"); err != nil {
			return nil, err
		}
	}
	unit := cfg.DefaultUnit
	if cmd.Flags().Changed("unit") {
		if unit, err = cmd.Flags().GetString("unit"); err != nil {
			return nil, err
		}
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	setup.Request = buildpipeline.CompileRequest{
		Inputs:         inputs,
		RootName:       rootName,
		DefaultUnit:    unit,
		Target:         target,
		Jobs:           jobs,
		EmitThunks:     cfg.EmitThunks,
		Check:          cfg.Check,
		MaxDiagnostics: maxDiagnostics,
	}
	return setup, nil
}

func formatPathForOutput(root, path string) string {
	if path == "" {
		return path
	}
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return path
		}
		root = cwd
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
