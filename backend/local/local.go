// Package local implements the direct-local-process backend of spec.md
// §4.8: the simplest Backend, running a task's evaluated command text
// with no containerization. Host capacity for the default
// MaxConcurrency/feasibility check uses github.com/shirou/gopsutil/v4 per
// SPEC_FULL.md's domain stack table (substituting gopsutil where the
// teacher has no analogous host-probing code of its own — this is new
// domain wiring, not an adaptation of an existing teacher file).
package local

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/viant/wdl/backend"
	"github.com/viant/wdl/values"
)

// Backend runs task commands as direct child processes of this process.
type Backend struct {
	// WorkRoot is the directory attempt directories are created under.
	WorkRoot string
}

// New creates a local Backend rooted at workRoot.
func New(workRoot string) *Backend { return &Backend{WorkRoot: workRoot} }

func (b *Backend) GuestInputsDir() (string, bool) { return "", false }

func (b *Backend) NeedsLocalInputs() bool { return true }

// Constraints validates requested CPU/memory against host capacity,
// probed via gopsutil; a GPU request is rejected outright since a direct
// local process has no accelerator isolation. Disk requests are not
// checked.
func (b *Backend) Constraints(ctx context.Context, inputs []values.Path, requirements backend.Requirements, hints backend.Hints) (backend.Constraints, error) {
	var c backend.Constraints
	if v, ok := requirements["cpu"]; ok {
		c.CPU = floatOf(v)
	}
	if v, ok := requirements["memory"]; ok {
		c.MemoryBytes = int64(floatOf(v))
	}
	if _, ok := requirements["gpu"]; ok {
		return backend.Constraints{}, fmt.Errorf("local backend: GPU requirements are not supported")
	}
	counts, err := cpu.CountsWithContext(ctx, true)
	if err == nil && c.CPU > float64(counts) {
		return backend.Constraints{}, fmt.Errorf("local backend: requested %.0f CPUs exceeds host capacity %d", c.CPU, counts)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err == nil && c.MemoryBytes > int64(vm.Total) {
		return backend.Constraints{}, fmt.Errorf("local backend: requested %d bytes memory exceeds host capacity %d", c.MemoryBytes, vm.Total)
	}
	return c, nil
}

// MaxConcurrency defaults to the host's available parallelism, per
// spec.md §5 ("defaults to the host's available parallelism").
func (b *Backend) MaxConcurrency() int { return runtime.GOMAXPROCS(0) }

// Retriable treats a killed-by-signal exit (SIGKILL from an OOM-killer,
// most commonly) as transient; any other non-zero exit is a genuine task
// failure.
func (b *Backend) Retriable(result *backend.Result, spawnErr error) bool {
	return spawnErr == nil && result != nil && result.ExitCode == -1
}

// Spawn runs req.Command via /bin/sh -c in a fresh attempt directory,
// capturing stdout/stderr to files and returning their paths in Result.
func (b *Backend) Spawn(ctx context.Context, inputs []values.Path, req backend.SpawnRequest) (*backend.Result, error) {
	attemptDir := req.AttemptDir
	if attemptDir == "" {
		attemptDir = filepath.Join(b.WorkRoot, uuid.NewString())
	}
	if err := os.MkdirAll(attemptDir, 0755); err != nil {
		return nil, fmt.Errorf("local backend: create attempt dir: %w", err)
	}

	stdoutPath := filepath.Join(attemptDir, "stdout")
	stderrPath := filepath.Join(attemptDir, "stderr")
	stdout, err := os.Create(stdoutPath)
	if err != nil {
		return nil, fmt.Errorf("local backend: create stdout: %w", err)
	}
	defer stdout.Close()
	stderr, err := os.Create(stderrPath)
	if err != nil {
		return nil, fmt.Errorf("local backend: create stderr: %w", err)
	}
	defer stderr.Close()

	stdoutBuf := bufio.NewWriter(stdout)
	stderrBuf := bufio.NewWriter(stderr)

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", req.Command)
	cmd.Dir = attemptDir
	cmd.Stdout = stdoutBuf
	cmd.Stderr = stderrBuf
	for k, v := range req.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	runErr := cmd.Run()
	stdoutBuf.Flush()
	stderrBuf.Flush()
	if ctx.Err() != nil {
		return nil, nil // cancellation: spec.md §4.8 "resolves to None"
	}
	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("local backend: spawn: %w", runErr)
		}
	}
	return &backend.Result{
		WorkDir:    attemptDir,
		ExitCode:   exitCode,
		StdoutPath: stdoutPath,
		StderrPath: stderrPath,
	}, nil
}

func floatOf(v values.Value) float64 {
	switch n := v.(type) {
	case values.Int:
		return float64(n)
	case values.Float:
		return float64(n)
	default:
		return 0
	}
}
