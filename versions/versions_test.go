package versions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wdl/versions"
)

func TestParseRecognizesEveryClosedVersionLiteral(t *testing.T) {
	assert.Equal(t, versions.Draft3, versions.Parse("draft-3"))
	assert.Equal(t, versions.V1_0, versions.Parse("1.0"))
	assert.Equal(t, versions.V1_1, versions.Parse("1.1"))
	assert.Equal(t, versions.V1_2, versions.Parse("1.2"))
}

func TestParseReturnsUnrecognizedForUnknownLiteral(t *testing.T) {
	assert.Equal(t, versions.Unrecognized, versions.Parse("2.0"))
}

func TestStringRendersEachVersion(t *testing.T) {
	assert.Equal(t, "draft-3", versions.Draft3.String())
	assert.Equal(t, "1.0", versions.V1_0.String())
	assert.Equal(t, "1.1", versions.V1_1.String())
	assert.Equal(t, "1.2", versions.V1_2.String())
	assert.Equal(t, "unrecognized", versions.Unrecognized.String())
}

func TestAllowsDirectoryCoercionIsOnlyTrueFrom1_1Onward(t *testing.T) {
	assert.False(t, versions.Draft3.AllowsDirectoryCoercion())
	assert.False(t, versions.V1_0.AllowsDirectoryCoercion())
	assert.True(t, versions.V1_1.AllowsDirectoryCoercion())
	assert.True(t, versions.V1_2.AllowsDirectoryCoercion())
}

func TestAllowsMapToObjectCoercionIsOnlyTrueFrom1_1Onward(t *testing.T) {
	assert.False(t, versions.V1_0.AllowsMapToObjectCoercion())
	assert.True(t, versions.V1_1.AllowsMapToObjectCoercion())
}

func TestResolveWithRecognizedLiteralIgnoresFallback(t *testing.T) {
	fallback := versions.V1_0
	cfg := versions.Config{Fallback: &fallback}

	effective, recognized, err := cfg.Resolve("1.2")
	require.NoError(t, err)
	assert.True(t, recognized)
	assert.Equal(t, versions.V1_2, effective)
}

func TestResolveWithUnrecognizedLiteralAndNoFallbackErrors(t *testing.T) {
	cfg := versions.Config{}
	_, recognized, err := cfg.Resolve("2.0")
	assert.False(t, recognized)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2.0")
}

func TestResolveWithUnrecognizedLiteralAndFallbackSubstitutes(t *testing.T) {
	fallback := versions.V1_1
	cfg := versions.Config{Fallback: &fallback}

	effective, recognized, err := cfg.Resolve("2.0")
	require.NoError(t, err)
	assert.False(t, recognized)
	assert.Equal(t, versions.V1_1, effective)
}

func TestToolchainSemverIsStable(t *testing.T) {
	assert.Equal(t, 1, versions.ToolchainSemver)
}
