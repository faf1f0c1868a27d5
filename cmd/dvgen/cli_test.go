package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"dvgen/internal/buildpipeline"
)

func newTestCommand() *cobra.Command {
	root := &cobra.Command{Use: "dvgen"}
	root.PersistentFlags().Int("max-diagnostics", 7, "")
	sub := &cobra.Command{Use: "build"}
	addCompileFlags(sub)
	root.AddCommand(sub)
	return sub
}

func TestReadUIMode(t *testing.T) {
	cases := map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, " on ": uiModeOn, "off": uiModeOff}
	for in, want := range cases {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
	if !shouldUseTUI(uiModeOn) || shouldUseTUI(uiModeOff) {
		t.Fatalf("explicit modes not honored")
	}
}

func TestResolveCompileSetupFromArgs(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd := newTestCommand()
	if err := cmd.Flags().Set("target", "i686-linux-gnu"); err != nil {
		t.Fatalf("set target: %v", err)
	}
	if err := cmd.Flags().Set("jobs", "3"); err != nil {
		t.Fatalf("set jobs: %v", err)
	}
	setup, err := resolveCompileSetup(cmd, []string{"a.toml", "b.yaml"})
	if err != nil {
		t.Fatalf("resolveCompileSetup: %v", err)
	}
	req := setup.Request
	if len(req.Inputs) != 2 || req.Target.PtrSize != 4 || req.Jobs != 3 || req.MaxDiagnostics != 7 {
		t.Fatalf("request = %+v", req)
	}
	if setup.Manifest != nil {
		t.Fatalf("explicit inputs must not use a manifest")
	}
}

func TestResolveCompileSetupFromManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, manifestName), "[package]\nname = \"x\"\n[build]\ninputs = [\"c.toml\"]\nroot = \"base.Any\"\ncheck = true\n")
	writeFile(t, filepath.Join(root, "c.toml"), "")
	t.Chdir(root)

	cmd := newTestCommand()
	if err := cmd.Flags().Set("root", "base.Top"); err != nil {
		t.Fatalf("set root: %v", err)
	}
	setup, err := resolveCompileSetup(cmd, nil)
	if err != nil {
		t.Fatalf("resolveCompileSetup: %v", err)
	}
	if setup.Manifest == nil || !setup.Request.Check {
		t.Fatalf("manifest settings not applied: %+v", setup.Request)
	}
	if setup.Request.RootName != "base.Top" {
		t.Fatalf("flag should override manifest root, got %q", setup.Request.RootName)
	}
	if setup.Request.Target.Triple != "x86_64-linux-gnu" {
		t.Fatalf("default target = %q", setup.Request.Target.Triple)
	}
}

func TestResolveCompileSetupErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := resolveCompileSetup(newTestCommand(), nil); err == nil {
		t.Skip("a dvgen.toml exists above the temp dir")
	} else if !strings.Contains(err.Error(), "no dvgen.toml found") {
		t.Fatalf("err = %v", err)
	}

	cmd := newTestCommand()
	if err := cmd.Flags().Set("target", "sparc"); err != nil {
		t.Fatalf("set target: %v", err)
	}
	if _, err := resolveCompileSetup(cmd, []string{"a.toml"}); err == nil || !strings.Contains(err.Error(), "unsupported target") {
		t.Fatalf("err = %v", err)
	}
}

func TestPrintStageTimings(t *testing.T) {
	var timings buildpipeline.Timings
	timings.Set(buildpipeline.StageLoad, 2*time.Millisecond)
	timings.Set(buildpipeline.StageDeclare, time.Millisecond)
	timings.Set(buildpipeline.StageInitialize, time.Millisecond)
	timings.Set(buildpipeline.StageEmit, 3*time.Millisecond)

	var buf bytes.Buffer
	printStageTimings(&buf, timings, false)
	want := "loaded 2.0 ms\ngenerated 2.0 ms\n"
	if buf.String() != want {
		t.Fatalf("timings = %q, want %q", buf.String(), want)
	}
	buf.Reset()
	printStageTimings(&buf, timings, true)
	if !strings.HasSuffix(buf.String(), "emitted 3.0 ms\n") {
		t.Fatalf("missing emit line: %q", buf.String())
	}
}

func TestRenderVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	info := versionInfo{Version: "1.0.0", GitCommit: "abc"}
	if err := renderVersionJSON(&buf, info, versionOptions{showHash: true, showDate: true}); err != nil {
		t.Fatalf("renderVersionJSON: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Tool != "dvgen" || payload.GitCommit != "abc" || payload.BuildDate != "unknown" {
		t.Fatalf("payload = %+v", payload)
	}
}
