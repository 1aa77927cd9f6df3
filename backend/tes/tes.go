// Package tes implements the remote-execution-service backend of
// spec.md §4.8 against the GA4GH Task Execution Service API: Spawn
// submits a TES task (POST /v1/tasks), then polls GET
// /v1/tasks/{id}?view=FULL (which carries the executor logs and exit
// code) until the task reaches a terminal state.
//
// No library in the examples corpus implements a TES client, and TES's
// wire format is plain JSON over HTTP with no protocol-level nuance a
// generic HTTP client lacks, so this package uses net/http and
// encoding/json directly rather than adopting an unrelated library for
// the sake of using one (see DESIGN.md's stdlib-justification entry for
// this package).
package tes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/viant/wdl/backend"
	"github.com/viant/wdl/values"
)

// Backend dispatches spawns to a TES server reachable at BaseURL.
type Backend struct {
	BaseURL    string
	HTTPClient *http.Client
	MaxPar     int
	PollPeriod time.Duration
}

// New creates a Backend against a TES server at baseURL (e.g.
// "https://tes.example.org").
func New(baseURL string, maxConcurrency int) *Backend {
	return &Backend{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		MaxPar:     maxConcurrency,
		PollPeriod: 5 * time.Second,
	}
}

func (b *Backend) GuestInputsDir() (string, bool) { return "/inputs", true }

// NeedsLocalInputs is false: a TES server stages its own inputs from the
// URLs given in the task request, so the evaluator need not localize
// them onto this process's file system first.
func (b *Backend) NeedsLocalInputs() bool { return false }

func (b *Backend) MaxConcurrency() int { return b.MaxPar }

// Retriable treats a network/HTTP-layer fault (spawnErr != nil) as
// transient; a TES task that reached COMPLETE with a non-zero exit code
// is a genuine task failure.
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
	if v, ok := requirements["container"]; ok {
		c.Container = v.String()
	} else {
		return backend.Constraints{}, fmt.Errorf("tes backend: task has no `container` requirement")
	}
	return c, nil
}

// tesTask is the minimal GA4GH TES task request/response shape this
// backend exercises.
type tesTask struct {
	Name       string          `json:"name"`
	Executors  []tesExecutor   `json:"executors"`
	Inputs     []tesIO         `json:"inputs,omitempty"`
	Outputs    []tesIO         `json:"outputs,omitempty"`
	Resources  tesResources    `json:"resources"`
	ID         string          `json:"id,omitempty"`
	State      string          `json:"state,omitempty"`
	Logs       []tesTaskLog    `json:"logs,omitempty"`
}

type tesExecutor struct {
	Image   string   `json:"image"`
	Command []string `json:"command"`
	Workdir string   `json:"workdir,omitempty"`
}

type tesIO struct {
	URL  string `json:"url"`
	Path string `json:"path"`
	Type string `json:"type"` // FILE or DIRECTORY
}

type tesResources struct {
	CPUCores   int     `json:"cpu_cores,omitempty"`
	RAMGB      float64 `json:"ram_gb,omitempty"`
}

type tesTaskLog struct {
	Logs []tesExecutorLog `json:"logs"`
}

type tesExecutorLog struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

var terminalStates = map[string]bool{
	"COMPLETE": true, "EXECUTOR_ERROR": true, "SYSTEM_ERROR": true, "CANCELED": true,
}

// Spawn submits req as a TES task and polls until it reaches a terminal
// state, observing ctx cancellation between polls by issuing a TES
// CANCEL and returning (nil, nil).
func (b *Backend) Spawn(ctx context.Context, inputs []values.Path, req backend.SpawnRequest) (*backend.Result, error) {
	task := tesTask{
		Name: req.ID,
		Executors: []tesExecutor{{
			Image:   req.Constraints.Container,
			Command: []string{"/bin/sh", "-c", req.Command},
			Workdir: "/attempt",
		}},
		Resources: tesResources{
			CPUCores: int(req.Constraints.CPU),
			RAMGB:    float64(req.Constraints.MemoryBytes) / (1 << 30),
		},
	}
	for _, in := range inputs {
		typ := "FILE"
		if in.Kind == values.KindDirectory {
			typ = "DIRECTORY"
		}
		task.Inputs = append(task.Inputs, tesIO{
			URL:  in.Eval,
			Path: "/inputs/" + filepath.Base(in.Eval),
			Type: typ,
		})
	}

	id, err := b.createTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("tes backend: create: %w", err)
	}

	final, err := b.poll(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			_ = b.cancelTask(context.Background(), id)
			return nil, nil
		}
		return nil, fmt.Errorf("tes backend: poll: %w", err)
	}

	exitCode := 0
	if len(final.Logs) > 0 && len(final.Logs[len(final.Logs)-1].Logs) > 0 {
		exitCode = final.Logs[len(final.Logs)-1].Logs[0].ExitCode
	}
	return &backend.Result{WorkDir: "/attempt", ExitCode: exitCode}, nil
}

func (b *Backend) createTask(ctx context.Context, task tesTask) (string, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/v1/tasks", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := b.HTTPClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("tes server returned %s", resp.Status)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (b *Backend) poll(ctx context.Context, id string) (*tesTask, error) {
	ticker := time.NewTicker(b.PollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+"/v1/tasks/"+id+"?view=FULL", nil)
			if err != nil {
				return nil, err
			}
			resp, err := b.HTTPClient.Do(httpReq)
			if err != nil {
				continue
			}
			var task tesTask
			decodeErr := json.NewDecoder(resp.Body).Decode(&task)
			resp.Body.Close()
			if decodeErr != nil {
				continue
			}
			if terminalStates[task.State] {
				return &task, nil
			}
		}
	}
}

func (b *Backend) cancelTask(ctx context.Context, id string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/v1/tasks/"+id+":cancel", nil)
	if err != nil {
		return err
	}
	resp, err := b.HTTPClient.Do(httpReq)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
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
