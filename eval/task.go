package eval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/wdl/ast"
	"github.com/viant/wdl/backend"
	"github.com/viant/wdl/cachekey"
	"github.com/viant/wdl/callcache"
	"github.com/viant/wdl/digest"
	"github.com/viant/wdl/transfer"
	"github.com/viant/wdl/values"
)

// RetryPolicy is spec.md §4.6's retry configuration: up to MaxRetries
// additional attempts for failures backend.Retriable classifies as
// transient.
type RetryPolicy struct {
	MaxRetries int
}

// TaskRunner drives the 7-step task-evaluation pipeline of spec.md
// §4.6 against one backend, coordinating the call cache, digest table,
// and transferer.
type TaskRunner struct {
	Eval      *Evaluator
	Backend   backend.Backend
	Cache     *callcache.Cache
	Digests   *digest.Table
	Transfer  *transfer.Transferer
	Retry     RetryPolicy
	AttemptID func() string // generates a fresh attempt/work directory name
}

// TaskOutcome is a completed task call's result: its declared output
// bindings, or a terminal error.
type TaskOutcome struct {
	Outputs map[string]values.Value
	Cached  bool
}

// Run executes task with the given already-evaluated input bindings,
// following spec.md §4.6's 7-step task-evaluation pipeline.
func (r *TaskRunner) Run(ctx context.Context, task ast.Task, inputs map[string]values.Value, reqs cachekey.RequirementsSubset) (TaskOutcome, error) {
	// Step 1: input bindings are already evaluated by the caller (the
	// workflow driver), which has the enclosing scope these bindings may
	// reference; declarations local to the task itself are folded in here.
	env := NewEnv()
	for name, v := range inputs {
		env.Bind(name, v)
	}
	if err := r.evalLocalDeclarations(env, task, inputs); err != nil {
		return TaskOutcome{}, err
	}

	// Step 2: compute execution constraints via the backend.
	var inputPaths []values.Path
	for _, v := range inputs {
		collectPaths(v, &inputPaths)
	}
	requirements := backend.Requirements{}
	if rt, ok := task.Requirements(); ok {
		if err := r.evalMetaSection(env, rt.Entries(), requirements); err != nil {
			return TaskOutcome{}, err
		}
	} else if rt, ok := task.Runtime(); ok {
		if err := r.evalMetaSection(env, rt.Entries(), requirements); err != nil {
			return TaskOutcome{}, err
		}
	}
	hints := backend.Hints{}
	if h, ok := task.Hints(); ok {
		if err := r.evalMetaSection(env, h.Entries(), hints); err != nil {
			return TaskOutcome{}, err
		}
	}
	constraints, err := r.Backend.Constraints(ctx, inputPaths, requirements, hints)
	if err != nil {
		return TaskOutcome{}, fmt.Errorf("eval: constraints: %w", err)
	}

	// Step 3: evaluate the command text.
	command, err := r.evalCommand(env, task)
	if err != nil {
		return TaskOutcome{}, err
	}

	// Step 4: localize file/directory inputs if the backend requests it.
	if r.Backend.NeedsLocalInputs() && r.Transfer != nil {
		if err := r.localize(ctx, inputPaths); err != nil {
			return TaskOutcome{}, fmt.Errorf("eval: localize: %w", err)
		}
	}

	// Step 5: check the call cache.
	key, err := cachekey.Compute(task.Cursor(), cachekey.Inputs(inputs), reqs, currentToolchainSemver, r.Digests)
	if err != nil {
		return TaskOutcome{}, fmt.Errorf("eval: cachekey: %w", err)
	}
	recordedDigests := digestsOf(inputPaths, r.Digests)

	var spawnResult *backend.Result
	entry, hit, err := r.Cache.Build(ctx, key, recordedDigests, func(ctx context.Context) (callcache.Entry, error) {
		spawnResult, err = r.spawnWithRetry(ctx, inputPaths, task, command, requirements, hints, constraints)
		if err != nil {
			return callcache.Entry{}, err
		}
		if spawnResult == nil {
			return callcache.Entry{}, context.Canceled
		}
		outputs, err := r.materializeOutputs(env, task, spawnResult)
		if err != nil {
			return callcache.Entry{}, err
		}
		serialized := make(map[string]interface{}, len(outputs))
		for k, v := range outputs {
			serialized[k] = values.Encode(v)
		}
		return callcache.Entry{Outputs: serialized}, nil
	})
	if err != nil {
		return TaskOutcome{}, err
	}

	// On a fresh build spawnResult/outputs were already materialized above;
	// on a cache hit, reconstruct typed outputs from the cache's encoded
	// form, which round-trips the original runtime type exactly.
	if hit {
		cachedOutputs, err := reconstructOutputs(entry.Outputs)
		if err != nil {
			return TaskOutcome{}, err
		}
		return TaskOutcome{Outputs: cachedOutputs, Cached: true}, nil
	}
	outputs, err := r.materializeOutputs(env, task, spawnResult)
	if err != nil {
		return TaskOutcome{}, err
	}
	return TaskOutcome{Outputs: outputs, Cached: false}, nil
}

func (r *TaskRunner) evalLocalDeclarations(env *Env, task ast.Task, bound map[string]values.Value) error {
	for _, d := range task.Declarations() {
		if _, already := bound[d.Name()]; already {
			continue
		}
		expr, ok := d.Expr()
		if !ok {
			continue
		}
		v, err := r.Eval.Expr(env, expr)
		if err != nil {
			return err
		}
		env.Bind(d.Name(), v)
	}
	return nil
}

func (r *TaskRunner) evalMetaSection(env *Env, entries []ast.MetaKeyValue, out map[string]values.Value) error {
	for _, kv := range entries {
		expr, ok := kv.Value()
		if !ok {
			continue
		}
		v, err := r.Eval.Expr(env, expr)
		if err != nil {
			return err
		}
		out[kv.Key()] = v
	}
	return nil
}

func (r *TaskRunner) evalCommand(env *Env, task ast.Task) (string, error) {
	cmdSection, ok := task.Command()
	if !ok {
		return "", nil
	}
	var sb strings.Builder
	for _, part := range cmdSection.Parts() {
		switch p := part.(type) {
		case ast.Placeholder:
			expr, ok := p.Expr()
			if !ok {
				continue
			}
			v, err := r.Eval.Expr(env, expr)
			if err != nil {
				return "", err
			}
			if _, isNone := v.(values.None); isNone {
				continue
			}
			sb.WriteString(v.String())
		default:
			sb.WriteString(textOf(part))
		}
	}
	return sb.String(), nil
}

func (r *TaskRunner) localize(ctx context.Context, paths []values.Path) error {
	for i := range paths {
		if paths[i].Eval == "" || strings.HasPrefix(paths[i].Eval, "/") && !strings.Contains(paths[i].Eval, "://") {
			continue // already a local absolute path; nothing to localize
		}
		local := filepath.Join(os.TempDir(), "wdl-inputs", filepath.Base(paths[i].Eval))
		if err := r.Transfer.Download(ctx, paths[i].Eval, local); err != nil {
			return err
		}
		paths[i].Localized = local
	}
	return nil
}

func (r *TaskRunner) spawnWithRetry(ctx context.Context, inputs []values.Path, task ast.Task, command string, requirements backend.Requirements, hints backend.Hints, constraints backend.Constraints) (*backend.Result, error) {
	var lastErr error
	var lastResult *backend.Result
	attempts := r.Retry.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		id := task.Name()
		if r.AttemptID != nil {
			id = r.AttemptID()
		}
		req := backend.SpawnRequest{
			ID:           id,
			Command:      command,
			Requirements: requirements,
			Hints:        hints,
			Constraints:  constraints,
		}
		result, err := r.Backend.Spawn(ctx, inputs, req)
		if result == nil && err == nil {
			return nil, nil // cancellation
		}
		if err == nil && (result.ExitCode == 0 || !r.Backend.Retriable(result, nil)) {
			return result, nil
		}
		if err != nil && !r.Backend.Retriable(nil, err) {
			return nil, err
		}
		lastErr, lastResult = err, result
		if ctx.Err() != nil {
			return nil, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return lastResult, nil
}

func (r *TaskRunner) materializeOutputs(env *Env, task ast.Task, result *backend.Result) (map[string]values.Value, error) {
	outSection, ok := task.Output()
	if !ok {
		return map[string]values.Value{}, nil
	}
	outputEnv := env.Push()
	outputEnv.Bind("stdout", values.Path{Kind: values.KindFile, Eval: result.StdoutPath})
	outputEnv.Bind("stderr", values.Path{Kind: values.KindFile, Eval: result.StderrPath})

	outputs := make(map[string]values.Value)
	for _, d := range outSection.Declarations() {
		expr, ok := d.Expr()
		if !ok {
			return nil, runtimeErr("evaluation-error", "output %q has no expression", d.Name())
		}
		v, err := r.Eval.Expr(outputEnv, expr)
		if err != nil {
			return nil, fmt.Errorf("eval: output %q: %w", d.Name(), err)
		}
		outputs[d.Name()] = v
		outputEnv.Bind(d.Name(), v)
	}
	return outputs, nil
}

// reconstructOutputs rebuilds output values from the call cache's encoded
// form (values.Encode/values.Decode), reproducing the exact value a prior
// build's materializeOutputs produced — compound Array/Map/Pair/Object
// values and File/Directory Path kind included, not just their rendered
// text.
func reconstructOutputs(serialized map[string]interface{}) (map[string]values.Value, error) {
	outputs := make(map[string]values.Value, len(serialized))
	for name, node := range serialized {
		v, err := values.Decode(node)
		if err != nil {
			return nil, fmt.Errorf("eval: reconstruct cached output %q: %w", name, err)
		}
		outputs[name] = v
	}
	return outputs, nil
}

func collectPaths(v values.Value, out *[]values.Path) {
	switch val := v.(type) {
	case values.Path:
		*out = append(*out, val)
	case values.Array:
		for _, e := range val.Vals {
			collectPaths(e, out)
		}
	case values.Map:
		for _, e := range val.Vals {
			collectPaths(e, out)
		}
	case values.Pair:
		collectPaths(val.Left, out)
		collectPaths(val.Right, out)
	case values.Object:
		for _, e := range val.Members {
			collectPaths(e, out)
		}
	}
}

func digestsOf(paths []values.Path, digests *digest.Table) map[string]string {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		if digests == nil {
			continue
		}
		d, err := digests.Digest(p.Eval, p.Kind == values.KindDirectory)
		if err != nil {
			continue
		}
		out[p.Eval] = d.String()
	}
	return out
}

// currentToolchainSemver is this package's own breaking-change counter
// for cache-key purposes; bumped in lockstep with versions.ToolchainSemver.
const currentToolchainSemver = 1
