// Package buildpipeline orchestrates the compilation process.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BuildRequest configures output generation for a compilation.
type BuildRequest struct {
	CompileRequest
	OutDir        string
	Objects       bool // also compile every .ll into a .o
	PrintCommands bool
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	CompileResult
	Outputs []string // .ll paths, sorted by unit
	Objects []string
}

// Build compiles every unit and writes <out>/<unit>.ll.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	reqCopy := *req
	req = &reqCopy
	if req.OutDir == "" {
		req.OutDir = filepath.Join("target", "dv")
	}

	compileRes, err := Compile(ctx, &req.CompileRequest)
	result.CompileResult = compileRes
	if err != nil {
		return result, err
	}

	if err := os.MkdirAll(req.OutDir, 0o750); err != nil {
		return result, fmt.Errorf("failed to create output dir: %w", err)
	}
	for _, u := range compileRes.Units {
		start := time.Now()
		emitStage(req.Progress, u.Name, StageEmit, StatusWorking, nil, 0)
		llPath := filepath.Join(req.OutDir, u.Name+".ll")
		if err := os.WriteFile(llPath, []byte(u.Module.String()), 0o600); err != nil {
			err = fmt.Errorf("failed to write LLVM IR: %w", err)
			emitStage(req.Progress, u.Name, StageEmit, StatusError, err, time.Since(start))
			return result, err
		}
		result.Outputs = append(result.Outputs, llPath)
		if req.Objects {
			objPath := strings.TrimSuffix(llPath, ".ll") + ".o"
			if err := compileLLVMIR(req.PrintCommands, req.Target.Triple, llPath, objPath); err != nil {
				emitStage(req.Progress, u.Name, StageEmit, StatusError, err, time.Since(start))
				return result, err
			}
			result.Objects = append(result.Objects, objPath)
		}
		elapsed := time.Since(start)
		u.Timings.Set(StageEmit, elapsed)
		result.Timings.Add(StageEmit, elapsed)
		emitStage(req.Progress, u.Name, StageEmit, StatusDone, nil, elapsed)
	}
	return result, nil
}

func compileLLVMIR(printCommands bool, triple, llPath, objPath string) error {
	args := []string{"-c", "-x", "ir", llPath, "-o", objPath}
	if triple != "" {
		args = append([]string{"--target=" + triple}, args...)
	}
	var clangErr error
	if _, err := exec.LookPath("clang"); err == nil {
		if clangErr = runCommand(printCommands, "clang", args...); clangErr == nil {
			return nil
		}
	}
	// Fallback to llc
	llcPath, llcErr := exec.LookPath("llc")
	if llcErr != nil {
		if clangErr != nil {
			return fmt.Errorf("llc not found after clang failed: %w", errors.Join(clangErr, llcErr))
		}
		return fmt.Errorf("neither clang nor llc found: %w", llcErr)
	}
	llcArgs := []string{"-filetype=obj", llPath, "-o", objPath}
	if triple != "" {
		llcArgs = append([]string{"-mtriple=" + triple}, llcArgs...)
	}
	if err := runCommand(printCommands, llcPath, llcArgs...); err != nil {
		if clangErr != nil {
			return fmt.Errorf("clang and llc failed: %w", errors.Join(clangErr, err))
		}
		return fmt.Errorf("llc failed: %w", err)
	}
	return nil
}

func runCommand(printCommands bool, name string, args ...string) error {
	if printCommands {
		_, printErr := fmt.Fprintf(os.Stdout, "%s %s\n", name, strings.Join(args, " "))
		if printErr != nil {
			return fmt.Errorf("failed to print command: %w", printErr)
		}
	}
	// #nosec G204 -- tool name is clang or llc from PATH
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return err
		}
		return fmt.Errorf("%s: %s", name, msg)
	}
	return nil
}
