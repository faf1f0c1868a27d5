package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"dvgen/internal/layout"
)

const manifestName = "dvgen.toml"

const noManifestMessage = "no dvgen.toml found\nplease pass the class tables explicitly, e.g.:\n  dvgen build classes.toml"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Package packageConfig `toml:"package"`
	Build   buildConfig   `toml:"build"`
}

type packageConfig struct {
	Name string `toml:"name"`
}

type buildConfig struct {
	Inputs      []string `toml:"inputs"`
	OutDir      string   `toml:"out_dir"`
	Target      string   `toml:"target"`
	Jobs        int      `toml:"jobs"`
	EmitThunks  bool     `toml:"emit_thunks"`
	Check       bool     `toml:"check"`
	Root        string   `toml:"root"`
	DefaultUnit string   `toml:"default_unit"`
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return projectConfig{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("package") {
		return projectConfig{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if !meta.IsDefined("build") {
		return projectConfig{}, fmt.Errorf("%s: missing [build]", path)
	}
	if !meta.IsDefined("build", "inputs") || len(cfg.Build.Inputs) == 0 {
		return projectConfig{}, fmt.Errorf("%s: missing [build].inputs", path)
	}
	if cfg.Build.Target != "" {
		if _, ok := layout.TargetByTriple(cfg.Build.Target); !ok {
			return projectConfig{}, fmt.Errorf("%s: unsupported [build].target %q", path, cfg.Build.Target)
		}
	}
	if cfg.Build.Jobs < 0 {
		return projectConfig{}, fmt.Errorf("%s: [build].jobs must not be negative", path)
	}
	return cfg, nil
}

// inputPaths resolves [build].inputs against the manifest directory.
func (m *projectManifest) inputPaths() ([]string, error) {
	out := make([]string, 0, len(m.Config.Build.Inputs))
	for _, rel := range m.Config.Build.Inputs {
		p := filepath.Join(m.Root, filepath.FromSlash(strings.TrimSpace(rel)))
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%s: input does not exist: %s", m.Path, p)
			}
			return nil, fmt.Errorf("%s: failed to stat input: %w", m.Path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s: input is a directory: %s", m.Path, p)
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *projectManifest) outDir() string {
	if m.Config.Build.OutDir == "" {
		return filepath.Join(m.Root, "target", "dv")
	}
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Build.OutDir))
}
