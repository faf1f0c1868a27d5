package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadProjectManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, manifestName), `[package]
name = "shapes"

[build]
inputs = ["classes/geo.toml"]
out_dir = "out"
target = "i686-linux-gnu"
jobs = 2
emit_thunks = true
`)
	writeFile(t, filepath.Join(root, "classes", "geo.toml"), "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m, ok, err := loadProjectManifest(nested)
	if err != nil || !ok {
		t.Fatalf("loadProjectManifest = %v, %v", ok, err)
	}
	if m.Config.Package.Name != "shapes" {
		t.Fatalf("name = %q", m.Config.Package.Name)
	}
	if !m.Config.Build.EmitThunks || m.Config.Build.Jobs != 2 {
		t.Fatalf("build config = %+v", m.Config.Build)
	}
	inputs, err := m.inputPaths()
	if err != nil {
		t.Fatalf("inputPaths: %v", err)
	}
	if len(inputs) != 1 || inputs[0] != filepath.Join(m.Root, "classes", "geo.toml") {
		t.Fatalf("inputs = %v", inputs)
	}
	if got := m.outDir(); got != filepath.Join(m.Root, "out") {
		t.Fatalf("outDir = %q", got)
	}
}

func TestLoadProjectManifestMissing(t *testing.T) {
	_, ok, err := loadProjectManifest(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Skip("a dvgen.toml exists above the temp dir")
	}
}

func TestLoadProjectConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"no package", "[build]\ninputs = [\"a.toml\"]\n", "missing [package]"},
		{"no name", "[package]\nname = \"\"\n[build]\ninputs = [\"a.toml\"]\n", "missing [package].name"},
		{"no build", "[package]\nname = \"x\"\n", "missing [build]"},
		{"no inputs", "[package]\nname = \"x\"\n[build]\ninputs = []\n", "missing [build].inputs"},
		{"bad target", "[package]\nname = \"x\"\n[build]\ninputs = [\"a.toml\"]\ntarget = \"mips\"\n", "unsupported [build].target"},
		{"negative jobs", "[package]\nname = \"x\"\n[build]\ninputs = [\"a.toml\"]\njobs = -1\n", "must not be negative"},
		{"unknown key", "[package]\nname = \"x\"\n[build]\ninputs = [\"a.toml\"]\nmain = \"a\"\n", "unknown key build.main"},
		{"syntax", "[package\n", "failed to parse TOML"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), manifestName)
			writeFile(t, path, tc.data)
			_, err := loadProjectConfig(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestInputPathsMissingFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, manifestName), "[package]\nname = \"x\"\n[build]\ninputs = [\"gone.toml\"]\n")
	m, _, err := loadProjectManifest(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := m.inputPaths(); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("err = %v", err)
	}
}
