package local_test

import (
	"context"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wdl/backend"
	"github.com/viant/wdl/backend/local"
)

func TestSpawnRunsCommandAndCapturesStdout(t *testing.T) {
	b := local.New(t.TempDir())
	result, err := b.Spawn(context.Background(), nil, backend.SpawnRequest{
		ID:      "t",
		Command: "echo hello",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.ExitCode)

	out, err := os.ReadFile(result.StdoutPath)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}

func TestSpawnReportsNonZeroExitCode(t *testing.T) {
	b := local.New(t.TempDir())
	result, err := b.Spawn(context.Background(), nil, backend.SpawnRequest{
		ID:      "t",
		Command: "exit 3",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.ExitCode)
}

func TestSpawnPassesEnvironmentVariables(t *testing.T) {
	b := local.New(t.TempDir())
	result, err := b.Spawn(context.Background(), nil, backend.SpawnRequest{
		ID:      "t",
		Command: "echo $GREETING",
		Env:     map[string]string{"GREETING": "hi there"},
	})
	require.NoError(t, err)
	out, err := os.ReadFile(result.StdoutPath)
	require.NoError(t, err)
	assert.Equal(t, "hi there\n", string(out))
}

func TestSpawnCancellationResolvesToNilResultAndNilError(t *testing.T) {
	b := local.New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := b.Spawn(ctx, nil, backend.SpawnRequest{ID: "t", Command: "sleep 5"})
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestGuestInputsDirReportsNoContainerization(t *testing.T) {
	b := local.New(t.TempDir())
	_, ok := b.GuestInputsDir()
	assert.False(t, ok)
}

func TestNeedsLocalInputsIsTrue(t *testing.T) {
	assert.True(t, local.New(t.TempDir()).NeedsLocalInputs())
}

func TestMaxConcurrencyDefaultsToHostParallelism(t *testing.T) {
	assert.Equal(t, runtime.GOMAXPROCS(0), local.New(t.TempDir()).MaxConcurrency())
}

func TestConstraintsRejectsGPURequirement(t *testing.T) {
	b := local.New(t.TempDir())
	_, err := b.Constraints(context.Background(), nil, backend.Requirements{"gpu": nil}, backend.Hints{})
	assert.Error(t, err)
}

func TestRetriableTreatsKilledProcessAsTransient(t *testing.T) {
	b := local.New(t.TempDir())
	assert.True(t, b.Retriable(&backend.Result{ExitCode: -1}, nil))
	assert.False(t, b.Retriable(&backend.Result{ExitCode: 1}, nil))
}
