// Package container implements the container-engine (Docker-like)
// backend of spec.md §4.8, via github.com/docker/docker/client per
// SPEC_FULL.md's domain stack table. Each task spawn runs in its own
// container: the command is the entrypoint, inputs are bind-mounted
// under GuestInputsDir, and the container's exit code becomes the
// Result's ExitCode.
package container

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/google/uuid"

	"github.com/viant/wdl/backend"
	"github.com/viant/wdl/values"
)

// GuestInputsDir is the fixed mount point task commands see their inputs
// under inside the container.
const GuestInputsDir = "/inputs"

// Backend runs tasks in a container via the Docker engine API.
type Backend struct {
	Client         *client.Client
	WorkRoot       string
	DefaultMaxPar  int
}

// New creates a Backend using the engine reachable from the environment
// (DOCKER_HOST and friends), the same discovery client.FromEnv performs
// for any Docker CLI-adjacent tool.
func New(workRoot string, maxConcurrency int) (*Backend, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("container backend: %w", err)
	}
	return &Backend{Client: cli, WorkRoot: workRoot, DefaultMaxPar: maxConcurrency}, nil
}

func (b *Backend) GuestInputsDir() (string, bool) { return GuestInputsDir, true }

func (b *Backend) NeedsLocalInputs() bool { return true }

func (b *Backend) MaxConcurrency() int { return b.DefaultMaxPar }

// Retriable treats an engine-side failure to even start the container
// (spawnErr != nil) as transient; a non-zero exit from the task's own
// command is not.
func (b *Backend) Retriable(result *backend.Result, spawnErr error) bool {
	return spawnErr != nil
}

// Constraints maps requested cpu/memory into the Docker resource
// envelope; it does not probe the Docker daemon's own capacity (the
// daemon itself rejects infeasible resource limits at container-create
// time, surfacing as a Spawn error).
func (b *Backend) Constraints(ctx context.Context, inputs []values.Path, requirements backend.Requirements, hints backend.Hints) (backend.Constraints, error) {
	var c backend.Constraints
	if v, ok := requirements["cpu"]; ok {
		c.CPU = floatOf(v)
	}
	if v, ok := requirements["memory"]; ok {
		c.MemoryBytes = int64(floatOf(v))
	}
	if v, ok := requirements["container"]; ok {
		c.Container = v.String()
	} else {
		return backend.Constraints{}, fmt.Errorf("container backend: task has no `container` requirement")
	}
	return c, nil
}

// Spawn creates, starts, and awaits one container for req, bind-mounting
// every localized input at MapGuestPath(input) under GuestInputsDir. The
// inputs slice is not modified; since the command text was already
// expanded before Spawn, a command that refers to guest paths must have
// been built from MapGuestPath's results.
func (b *Backend) Spawn(ctx context.Context, inputs []values.Path, req backend.SpawnRequest) (*backend.Result, error) {
	attemptDir := req.AttemptDir
	if attemptDir == "" {
		attemptDir = filepath.Join(b.WorkRoot, uuid.NewString())
	}
	if err := os.MkdirAll(attemptDir, 0755); err != nil {
		return nil, fmt.Errorf("container backend: attempt dir: %w", err)
	}

	var mounts []mount.Mount
	for _, in := range inputs {
		if in.Localized == "" {
			continue
		}
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: in.Localized,
			Target: MapGuestPath(in),
		})
	}
	mounts = append(mounts, mount.Mount{Type: mount.TypeBind, Source: attemptDir, Target: "/attempt"})

	var env []string
	for k, v := range req.Env {
		env = append(env, k+"="+v)
	}

	created, err := b.Client.ContainerCreate(ctx, &container.Config{
		Image:      req.Constraints.Container,
		Cmd:        []string{"/bin/sh", "-c", req.Command},
		Env:        env,
		WorkingDir: "/attempt",
	}, &container.HostConfig{Mounts: mounts}, nil, nil, "wdl-"+req.ID)
	if err != nil {
		return nil, fmt.Errorf("container backend: create: %w", err)
	}
	defer func() { _ = b.Client.ContainerRemove(context.Background(), created.ID, container.RemoveOptions{Force: true}) }()

	if err := b.Client.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("container backend: start: %w", err)
	}

	statusCh, errCh := b.Client.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	var exitCode int
	select {
	case <-ctx.Done():
		return nil, nil // spec.md §4.8: cancellation resolves to None
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("container backend: wait: %w", err)
		}
	case st := <-statusCh:
		exitCode = int(st.StatusCode)
	}

	stdoutPath := filepath.Join(attemptDir, "stdout")
	stderrPath := filepath.Join(attemptDir, "stderr")
	if err := b.captureLogs(ctx, created.ID, stdoutPath, stderrPath); err != nil {
		return nil, fmt.Errorf("container backend: logs: %w", err)
	}

	return &backend.Result{WorkDir: attemptDir, ExitCode: exitCode, StdoutPath: stdoutPath, StderrPath: stderrPath}, nil
}

func (b *Backend) captureLogs(ctx context.Context, containerID, stdoutPath, stderrPath string) error {
	rc, err := b.Client.ContainerLogs(ctx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return err
	}
	defer rc.Close()
	stdout, err := os.Create(stdoutPath)
	if err != nil {
		return err
	}
	defer stdout.Close()
	stderr, err := os.Create(stderrPath)
	if err != nil {
		return err
	}
	defer stderr.Close()
	stdoutBuf := bufio.NewWriter(stdout)
	stderrBuf := bufio.NewWriter(stderr)
	_, err = demuxCopy(stdoutBuf, stderrBuf, rc)
	if flushErr := stdoutBuf.Flush(); err == nil {
		err = flushErr
	}
	if flushErr := stderrBuf.Flush(); err == nil {
		err = flushErr
	}
	return err
}

// demuxCopy splits the Docker multiplexed log stream into stdout/stderr;
// a minimal reimplementation of stdcopy.StdCopy's framing so this package
// does not need the (unlisted) stdcopy sub-dependency.
func demuxCopy(stdout, stderr io.Writer, r io.Reader) (int64, error) {
	var total int64
	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF {
				return total, nil
			}
			return total, err
		}
		size := int(header[4])<<24 | int(header[5])<<16 | int(header[6])<<8 | int(header[7])
		w := stdout
		if header[0] == 2 {
			w = stderr
		}
		n, err := io.CopyN(w, r, int64(size))
		total += n
		if err != nil {
			return total, err
		}
	}
}

// MapGuestPath returns the container-visible path for a localized input,
// mirroring its basename under GuestInputsDir.
func MapGuestPath(p values.Path) string {
	return GuestInputsDir + "/" + filepath.Base(p.Localized)
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
