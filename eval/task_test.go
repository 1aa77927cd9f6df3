package eval_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/afs"

	"github.com/viant/wdl/ast"
	"github.com/viant/wdl/backend"
	"github.com/viant/wdl/cachekey"
	"github.com/viant/wdl/callcache"
	"github.com/viant/wdl/digest"
	"github.com/viant/wdl/eval"
	"github.com/viant/wdl/parser"
	"github.com/viant/wdl/stdlib"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/values"
	"github.com/viant/wdl/versions"
)

// fakeBackend is a minimal in-memory backend.Backend: every Spawn call
// writes canned stdout/stderr files and reports success, counting how
// many times it was actually invoked so cache-hit/cache-miss behavior
// can be asserted.
type fakeBackend struct {
	dir   string
	calls int
}

func (f *fakeBackend) Constraints(ctx context.Context, inputs []values.Path, requirements backend.Requirements, hints backend.Hints) (backend.Constraints, error) {
	return backend.Constraints{CPU: 1}, nil
}

func (f *fakeBackend) GuestInputsDir() (string, bool) { return "", false }

func (f *fakeBackend) NeedsLocalInputs() bool { return false }

func (f *fakeBackend) Spawn(ctx context.Context, inputs []values.Path, req backend.SpawnRequest) (*backend.Result, error) {
	f.calls++
	stdout := filepath.Join(f.dir, "stdout.txt")
	stderr := filepath.Join(f.dir, "stderr.txt")
	if err := os.WriteFile(stdout, []byte("out\n"), 0644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(stderr, []byte(""), 0644); err != nil {
		return nil, err
	}
	return &backend.Result{WorkDir: f.dir, ExitCode: 0, StdoutPath: stdout, StderrPath: stderr}, nil
}

func (f *fakeBackend) MaxConcurrency() int { return 1 }

func (f *fakeBackend) Retriable(result *backend.Result, spawnErr error) bool { return false }

func taskOf(t *testing.T, src string) ast.Task {
	t.Helper()
	res := parser.Parse([]byte(src), versions.Config{})
	require.Empty(t, res.Diagnostics, "fixture must parse cleanly: %v", res.Diagnostics)
	doc, ok := ast.WrapDocument(syntax.NewRoot(res.Tree))
	require.True(t, ok)
	tasks := doc.Tasks()
	require.Len(t, tasks, 1)
	return tasks[0]
}

const greetTaskSrc = `version 1.2

task greet {
  input {
    String name
  }
  command {
    echo hello ${name}
  }
  output {
    String greeting = "hello " + name
  }
}
`

func newRunner(t *testing.T, be backend.Backend) *eval.TaskRunner {
	t.Helper()
	root := "file://" + t.TempDir()
	return &eval.TaskRunner{
		Eval:    eval.New(stdlib.New(), versions.V1_2),
		Backend: be,
		Cache:   callcache.New(afs.New(), root),
		Digests: digest.NewTable(digest.OS),
	}
}

func TestRunMissesThenHitsTheCallCache(t *testing.T) {
	task := taskOf(t, greetTaskSrc)
	be := &fakeBackend{dir: t.TempDir()}
	runner := newRunner(t, be)

	inputs := map[string]values.Value{"name": values.Str("alice")}
	reqs := cachekey.RequirementsSubset{}

	out1, err := runner.Run(context.Background(), task, inputs, reqs)
	require.NoError(t, err)
	assert.False(t, out1.Cached)
	assert.Equal(t, values.Str("hello alice"), out1.Outputs["greeting"])
	assert.Equal(t, 1, be.calls)

	out2, err := runner.Run(context.Background(), task, inputs, reqs)
	require.NoError(t, err)
	assert.True(t, out2.Cached)
	assert.Equal(t, 1, be.calls, "a cache hit must not spawn the backend again")
	assert.Equal(t, values.Str("hello alice"), out2.Outputs["greeting"])
}

const sumArrayTaskSrc = `version 1.2

task makeArray {
  input {
    Int n
  }
  command {
    echo ${n}
  }
  output {
    Array[Int] xs = [n, n + 1, n + 2]
  }
}
`

func TestRunCacheHitPreservesCompoundOutputType(t *testing.T) {
	task := taskOf(t, sumArrayTaskSrc)
	be := &fakeBackend{dir: t.TempDir()}
	runner := newRunner(t, be)

	inputs := map[string]values.Value{"n": values.Int(1)}
	reqs := cachekey.RequirementsSubset{}

	want := values.Array{Elem: nil, Vals: []values.Value{values.Int(1), values.Int(2), values.Int(3)}}

	out1, err := runner.Run(context.Background(), task, inputs, reqs)
	require.NoError(t, err)
	assert.False(t, out1.Cached)
	arr1, ok := out1.Outputs["xs"].(values.Array)
	require.True(t, ok, "fresh build output must be an Array, got %T", out1.Outputs["xs"])
	assert.Equal(t, want.Vals, arr1.Vals)

	out2, err := runner.Run(context.Background(), task, inputs, reqs)
	require.NoError(t, err)
	assert.True(t, out2.Cached)
	assert.Equal(t, 1, be.calls, "a cache hit must not spawn the backend again")
	arr2, ok := out2.Outputs["xs"].(values.Array)
	require.True(t, ok, "cache-hit output must still be an Array, not collapse to Str, got %T", out2.Outputs["xs"])
	assert.Equal(t, want.Vals, arr2.Vals)
}

func TestRunRebuildsOnInputChange(t *testing.T) {
	task := taskOf(t, greetTaskSrc)
	be := &fakeBackend{dir: t.TempDir()}
	runner := newRunner(t, be)
	reqs := cachekey.RequirementsSubset{}

	_, err := runner.Run(context.Background(), task, map[string]values.Value{"name": values.Str("alice")}, reqs)
	require.NoError(t, err)
	assert.Equal(t, 1, be.calls)

	out, err := runner.Run(context.Background(), task, map[string]values.Value{"name": values.Str("bob")}, reqs)
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Equal(t, 2, be.calls, "a changed input must invoke a fresh spawn rather than hit the cache")
	assert.Equal(t, values.Str("hello bob"), out.Outputs["greeting"])
}

func TestRunPropagatesSpawnError(t *testing.T) {
	task := taskOf(t, greetTaskSrc)
	runner := newRunner(t, &erroringBackend{})

	_, err := runner.Run(context.Background(), task, map[string]values.Value{"name": values.Str("alice")}, cachekey.RequirementsSubset{})
	assert.Error(t, err)
}

type erroringBackend struct{ fakeBackend }

func (e *erroringBackend) Spawn(ctx context.Context, inputs []values.Path, req backend.SpawnRequest) (*backend.Result, error) {
	return nil, assert.AnError
}
