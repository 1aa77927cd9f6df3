// Package backend implements the backend abstraction of spec.md §4.8: a
// uniform contract every task-execution backend (local process,
// container, Apptainer cluster submitters, remote TES service) maps onto
// its native mechanism. The shared contract lives here; each concrete
// backend lives in its own sub-package (backend/local, backend/container,
// backend/apptainer, backend/cluster, backend/tes) per SPEC_FULL.md's
// package table.
package backend

import (
	"context"

	"github.com/viant/wdl/values"
)

// GPUSpec describes a requested GPU/FPGA accelerator.
type GPUSpec struct {
	Kind  string
	Count int
}

// DiskSpec describes one requested scratch/data disk.
type DiskSpec struct {
	MountPoint string
	SizeGB     int
	Type       string
}

// Constraints is the materialized, backend-validated execution
// requirement set of spec.md §3 "Task spawn request": CPU, memory,
// disks, GPU/FPGA, and container source, after the backend's own
// Constraints method has checked feasibility against host capacity.
type Constraints struct {
	CPU         float64
	MemoryBytes int64
	Disks       []DiskSpec
	GPU         *GPUSpec
	Container   string
}

// Requirements and Hints are the task's runtime/requirements and hints
// sections, keyed by section key, carrying already-evaluated
// WDL values (coercion/type-checking happened upstream in resolve/eval).
type Requirements map[string]values.Value
type Hints map[string]values.Value

// SpawnRequest is the full spec.md §3 "Task spawn request": an
// identifier, the evaluated command text, the requirements/hints maps,
// the environment-variable map, the computed execution constraints, and
// the attempt/temp directories the backend should use.
type SpawnRequest struct {
	ID           string
	Command      string
	Requirements Requirements
	Hints        Hints
	Env          map[string]string
	Constraints  Constraints
	AttemptDir   string
	TempDir      string
}

// Result is a completed (or non-zero-exit) spawn's outcome: the work
// directory a backend wrote outputs into, and the process's exit code
// and captured stdout/stderr paths.
type Result struct {
	WorkDir    string
	ExitCode   int
	StdoutPath string
	StderrPath string
}

// Retriable classifies whether a spawn failure is transient (a signal
// known to indicate preemption, an infrastructure hiccup) versus a
// genuine task failure; eval's retry policy (spec.md §4.6) consults this.
type Retriable func(result *Result, spawnErr error) bool

// Backend is the uniform contract of spec.md §4.8.
type Backend interface {
	// Constraints validates feasibility of requirements/hints against
	// this backend's capacity, returning the materialized Constraints or
	// an error if infeasible (e.g. requested memory exceeds the host).
	Constraints(ctx context.Context, inputs []values.Path, requirements Requirements, hints Hints) (Constraints, error)

	// GuestInputsDir returns the absolute container path inputs are
	// mapped under, or ("", false) if this backend does not containerize.
	GuestInputsDir() (string, bool)

	// NeedsLocalInputs reports whether the evaluator must localize
	// (download) remote inputs onto this backend's local file system
	// before Spawn, versus the backend accepting remote paths directly.
	NeedsLocalInputs() bool

	// Spawn runs req against the given (already localized, if
	// NeedsLocalInputs) inputs. It resolves to (nil, nil) if ctx was
	// cancelled before or during the run (spec.md §4.8: "resolves to
	// None on cancellation"), to (result, nil) on completion — success or
	// non-zero exit are both represented in Result, not as an error — or
	// to (nil, err) for a genuine backend fault (could not even start
	// the process, lost contact with the cluster scheduler, etc).
	Spawn(ctx context.Context, inputs []values.Path, req SpawnRequest) (*Result, error)

	// MaxConcurrency is this backend's default task-execution semaphore
	// size (spec.md §5), 0 meaning "default to host parallelism".
	MaxConcurrency() int

	// Retriable classifies a finished or failed spawn for eval's retry
	// policy (spec.md §4.6).
	Retriable(result *Result, spawnErr error) bool
}
