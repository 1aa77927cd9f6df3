package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/versions"
)

func TestAnalyzerConfigDefaultsHaveNoFallback(t *testing.T) {
	c := NewAnalyzerConfig()
	_, ok := c.FallbackVersion()
	assert.False(t, ok)
}

func TestAnalyzerConfigWithFallbackVersion(t *testing.T) {
	c := NewAnalyzerConfig(WithFallbackVersion(versions.V1_2))
	v, ok := c.FallbackVersion()
	require.True(t, ok)
	assert.Equal(t, versions.V1_2, v)
	assert.NotNil(t, c.VersionsConfig().Fallback)
}

func TestAnalyzerConfigRuleSeverityOverride(t *testing.T) {
	c := NewAnalyzerConfig(WithRuleSeverity("TrailingComma", diagnostics.Error))
	assert.Equal(t, diagnostics.Error, c.RuleSeverity("TrailingComma", diagnostics.Note))
	assert.Equal(t, diagnostics.Note, c.RuleSeverity("OtherRule", diagnostics.Note))
}

func TestAnalyzerConfigFeatureFlag(t *testing.T) {
	c := NewAnalyzerConfig(WithFeatureFlag("wdl_1_3", true))
	assert.True(t, c.FeatureFlag("wdl_1_3"))
	assert.False(t, c.FeatureFlag("unset"))
}

func TestExecutionConfigPathAllowedUnrestrictedByDefault(t *testing.T) {
	c := NewExecutionConfig()
	assert.True(t, c.PathAllowed("/anything"))
}

func TestExecutionConfigPathAllowedRestricted(t *testing.T) {
	c := NewExecutionConfig(WithAllowedFilePaths("/data/"))
	assert.True(t, c.PathAllowed("/data/file.txt"))
	assert.False(t, c.PathAllowed("/etc/passwd"))
}

func TestExecutionConfigURLAllowed(t *testing.T) {
	c := NewExecutionConfig(WithAllowedURLs("https://example.com/"))
	assert.True(t, c.URLAllowed("https://example.com/file"))
	assert.False(t, c.URLAllowed("https://evil.com/file"))
}

func TestExecutionConfigMaxRetriesAndConcurrency(t *testing.T) {
	c := NewExecutionConfig(WithMaxRetries(3), WithMaxConcurrency(8))
	assert.Equal(t, 3, c.MaxRetries())
	assert.Equal(t, 8, c.MaxConcurrency())
}
