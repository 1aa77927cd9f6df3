// Package cluster implements the cluster-submitter backends of spec.md
// §4.8: LSF+Apptainer and Slurm+Apptainer. Both wrap the same underlying
// shape — render a submission script invoking `apptainer exec` against
// an apptainer.ImageCache-resolved SIF image, submit it via the
// scheduler's CLI, then poll for completion — differing only in the
// submit/poll/kill command lines and job-ID parsing, so the shared logic
// lives in one Backend and each scheduler supplies a small `scheduler`
// implementation.
package cluster

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/viant/wdl/backend"
	"github.com/viant/wdl/backend/apptainer"
	"github.com/viant/wdl/values"
)

// scheduler abstracts the handful of operations that differ between LSF
// and Slurm: how a job is submitted, how its ID is parsed out of the
// submit command's output, how to poll whether it has finished, and how
// to cancel it.
type scheduler interface {
	name() string
	submitArgs(scriptPath string) (cmd string, args []string)
	parseJobID(submitOutput string) (string, error)
	pollArgs(jobID string) (cmd string, args []string)
	isFinished(pollOutput string) bool
	exitCode(pollOutput string) (int, bool)
	killArgs(jobID string) (cmd string, args []string)
	header(jobName string) string
}

// Backend submits one job per Spawn to a cluster scheduler, running the
// task command inside an Apptainer-resolved SIF image.
type Backend struct {
	sched      scheduler
	Cache      *apptainer.ImageCache
	EvalCtx    *apptainer.EvalContext
	WorkRoot   string
	MaxPar     int
	PollPeriod time.Duration
}

func newBackend(s scheduler, cache *apptainer.ImageCache, evalCtx *apptainer.EvalContext, workRoot string, maxConcurrency int) *Backend {
	return &Backend{sched: s, Cache: cache, EvalCtx: evalCtx, WorkRoot: workRoot, MaxPar: maxConcurrency, PollPeriod: 5 * time.Second}
}

// NewLSF creates an LSF+Apptainer Backend (bsub/bjobs/bkill).
func NewLSF(cache *apptainer.ImageCache, evalCtx *apptainer.EvalContext, workRoot string, maxConcurrency int) *Backend {
	return newBackend(lsfScheduler{}, cache, evalCtx, workRoot, maxConcurrency)
}

// NewSlurm creates a Slurm+Apptainer Backend (sbatch/sacct/scancel).
func NewSlurm(cache *apptainer.ImageCache, evalCtx *apptainer.EvalContext, workRoot string, maxConcurrency int) *Backend {
	return newBackend(slurmScheduler{}, cache, evalCtx, workRoot, maxConcurrency)
}

func (b *Backend) GuestInputsDir() (string, bool) { return "/inputs", true }

func (b *Backend) NeedsLocalInputs() bool { return true }

// MaxConcurrency for a cluster backend defaults to an operator-set cap
// on in-flight submissions, not host parallelism: the work itself runs
// on the cluster, not this process.
func (b *Backend) MaxConcurrency() int { return b.MaxPar }

// Retriable treats a scheduler-side submission/poll fault as transient;
// a job that ran and exited non-zero is a genuine task failure.
func (b *Backend) Retriable(result *backend.Result, spawnErr error) bool {
	return spawnErr != nil
}

func (b *Backend) Constraints(ctx context.Context, inputs []values.Path, requirements backend.Requirements, hints backend.Hints) (backend.Constraints, error) {
	var c backend.Constraints
	if v, ok := requirements["cpu"]; ok {
		c.CPU = floatOf(v)
	}
	if v, ok := requirements["memory"]; ok {
		c.MemoryBytes = int64(floatOf(v))
	}
	v, ok := requirements["container"]
	if !ok {
		return backend.Constraints{}, fmt.Errorf("cluster backend (%s): task has no `container` requirement", b.sched.name())
	}
	c.Container = v.String()
	return c, nil
}

// Spawn renders a submission script, submits it, and polls until the
// scheduler reports the job finished, observing ctx cancellation at
// every poll iteration by killing the job and returning (nil, nil).
func (b *Backend) Spawn(ctx context.Context, inputs []values.Path, req backend.SpawnRequest) (*backend.Result, error) {
	sifPath, err := b.Cache.Resolve(ctx, b.EvalCtx, req.Constraints.Container)
	if err != nil {
		return nil, fmt.Errorf("cluster backend (%s): %w", b.sched.name(), err)
	}

	attemptDir := req.AttemptDir
	if attemptDir == "" {
		attemptDir = filepath.Join(b.WorkRoot, uuid.NewString())
	}
	if err := os.MkdirAll(attemptDir, 0755); err != nil {
		return nil, fmt.Errorf("cluster backend (%s): attempt dir: %w", b.sched.name(), err)
	}

	scriptPath := filepath.Join(attemptDir, "submit.sh")
	stdoutPath := filepath.Join(attemptDir, "stdout")
	stderrPath := filepath.Join(attemptDir, "stderr")
	if err := writeScript(scriptPath, b.sched.header("wdl-"+req.ID), sifPath, inputs, req, stdoutPath, stderrPath); err != nil {
		return nil, fmt.Errorf("cluster backend (%s): script: %w", b.sched.name(), err)
	}

	cmdName, args := b.sched.submitArgs(scriptPath)
	out, err := exec.CommandContext(ctx, cmdName, args...).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("cluster backend (%s): submit: %w: %s", b.sched.name(), err, out)
	}
	jobID, err := b.sched.parseJobID(string(out))
	if err != nil {
		return nil, fmt.Errorf("cluster backend (%s): %w", b.sched.name(), err)
	}

	exitCode, err := b.poll(ctx, jobID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("cluster backend (%s): %w", b.sched.name(), err)
	}
	return &backend.Result{WorkDir: attemptDir, ExitCode: exitCode, StdoutPath: stdoutPath, StderrPath: stderrPath}, nil
}

func (b *Backend) poll(ctx context.Context, jobID string) (int, error) {
	ticker := time.NewTicker(b.PollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			cmdName, args := b.sched.killArgs(jobID)
			_ = exec.Command(cmdName, args...).Run()
			return 0, ctx.Err()
		case <-ticker.C:
			cmdName, args := b.sched.pollArgs(jobID)
			out, err := exec.CommandContext(ctx, cmdName, args...).CombinedOutput()
			if err != nil {
				continue // transient poll failure: retry on the next tick
			}
			if !b.sched.isFinished(string(out)) {
				continue
			}
			code, _ := b.sched.exitCode(string(out))
			return code, nil
		}
	}
}

func writeScript(path, header, sifPath string, inputs []values.Path, req backend.SpawnRequest, stdoutPath, stderrPath string) error {
	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	sb.WriteString(header)
	sb.WriteString("\n")
	sb.WriteString("apptainer exec")
	for _, in := range inputs {
		if in.Localized == "" {
			continue
		}
		sb.WriteString(" --bind " + in.Localized + ":/inputs/" + filepath.Base(in.Localized))
	}
	sb.WriteString(" " + sifPath + " /bin/sh -c '" + strings.ReplaceAll(req.Command, "'", `'\''`) + "'")
	sb.WriteString(" 1>" + stdoutPath + " 2>" + stderrPath + "\n")
	return os.WriteFile(path, []byte(sb.String()), 0755)
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
