// Package config implements the immutable, functional-options-constructed
// configuration records of spec.md §9: an AnalyzerConfig consumed by the
// analysis package and an ExecutionConfig consumed by the evaluator and
// backends. Grounded on the teacher's analyzer.Option pattern
// (analyzer/option.go): an unexported mutable builder target, exported
// `With...` constructors, and a `New` that applies them in order and
// returns a value the caller should treat as frozen.
package config

import (
	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/versions"
)

// AnalyzerConfig is the frozen-after-construction configuration for the
// analysis driver and lint pass.
type AnalyzerConfig struct {
	fallbackVersion *versions.SupportedVersion
	diagnosticsConf map[string]diagnostics.Severity
	ignoreFilename  string
	allRules        []string
	featureFlags    map[string]bool
}

// AnalyzerOption mutates an AnalyzerConfig under construction.
type AnalyzerOption func(*AnalyzerConfig)

// NewAnalyzerConfig builds an AnalyzerConfig, applying opts in order.
func NewAnalyzerConfig(opts ...AnalyzerOption) AnalyzerConfig {
	c := AnalyzerConfig{
		diagnosticsConf: map[string]diagnostics.Severity{},
		featureFlags:    map[string]bool{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithFallbackVersion sets the version assumed when a document declares
// an unrecognized version; omitting this option means unrecognized
// versions are a hard parse error (spec.md §4.2).
func WithFallbackVersion(v versions.SupportedVersion) AnalyzerOption {
	return func(c *AnalyzerConfig) { c.fallbackVersion = &v }
}

// WithRuleSeverity overrides a lint rule's default severity.
func WithRuleSeverity(ruleID string, sev diagnostics.Severity) AnalyzerOption {
	return func(c *AnalyzerConfig) { c.diagnosticsConf[ruleID] = sev }
}

// WithIgnoreFilename sets a basename (e.g. ".wdlignore") excluded from
// workspace discovery.
func WithIgnoreFilename(name string) AnalyzerOption {
	return func(c *AnalyzerConfig) { c.ignoreFilename = name }
}

// WithAllRules records the full catalog of rule identifiers, used for UI
// completion of `#@ except:` pragmas and for `--list-rules`-style output.
func WithAllRules(ids ...string) AnalyzerOption {
	return func(c *AnalyzerConfig) { c.allRules = append(c.allRules, ids...) }
}

// WithFeatureFlag toggles a named experimental feature (e.g. "wdl_1_3").
func WithFeatureFlag(name string, enabled bool) AnalyzerOption {
	return func(c *AnalyzerConfig) { c.featureFlags[name] = enabled }
}

func (c AnalyzerConfig) FallbackVersion() (versions.SupportedVersion, bool) {
	if c.fallbackVersion == nil {
		return 0, false
	}
	return *c.fallbackVersion, true
}

func (c AnalyzerConfig) VersionsConfig() versions.Config {
	return versions.Config{Fallback: c.fallbackVersion}
}

func (c AnalyzerConfig) RuleSeverity(ruleID string, fallback diagnostics.Severity) diagnostics.Severity {
	if sev, ok := c.diagnosticsConf[ruleID]; ok {
		return sev
	}
	return fallback
}

func (c AnalyzerConfig) IgnoreFilename() string { return c.ignoreFilename }

func (c AnalyzerConfig) AllRules() []string { return append([]string{}, c.allRules...) }

func (c AnalyzerConfig) FeatureFlag(name string) bool { return c.featureFlags[name] }

// ExecutionConfig is the frozen-after-construction configuration for the
// evaluator, backends, and transferer.
type ExecutionConfig struct {
	outputDirectory string
	allowedPaths    []string
	allowedURLs     []string
	maxRetries      int
	maxConcurrency  int
}

// ExecutionOption mutates an ExecutionConfig under construction.
type ExecutionOption func(*ExecutionConfig)

// NewExecutionConfig builds an ExecutionConfig, applying opts in order.
func NewExecutionConfig(opts ...ExecutionOption) ExecutionConfig {
	c := ExecutionConfig{maxRetries: 0, maxConcurrency: 0}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithOutputDirectory sets the root directory evaluation outputs are
// written under.
func WithOutputDirectory(dir string) ExecutionOption {
	return func(c *ExecutionConfig) { c.outputDirectory = dir }
}

// WithAllowedFilePaths restricts local file inputs to the given directory
// prefixes (spec.md §9 `allowed_file_paths`).
func WithAllowedFilePaths(dirs ...string) ExecutionOption {
	return func(c *ExecutionConfig) { c.allowedPaths = append(c.allowedPaths, dirs...) }
}

// WithAllowedURLs restricts remote file inputs to the given URL prefixes
// (spec.md §9 `allowed_urls`).
func WithAllowedURLs(prefixes ...string) ExecutionOption {
	return func(c *ExecutionConfig) { c.allowedURLs = append(c.allowedURLs, prefixes...) }
}

// WithMaxRetries sets the retriable-failure retry budget (spec.md §4.6).
func WithMaxRetries(n int) ExecutionOption {
	return func(c *ExecutionConfig) { c.maxRetries = n }
}

// WithMaxConcurrency sets the scheduler's execution semaphore size; zero
// means "default to host parallelism" (spec.md §5).
func WithMaxConcurrency(n int) ExecutionOption {
	return func(c *ExecutionConfig) { c.maxConcurrency = n }
}

func (c ExecutionConfig) OutputDirectory() string { return c.outputDirectory }

func (c ExecutionConfig) MaxRetries() int { return c.maxRetries }

func (c ExecutionConfig) MaxConcurrency() int { return c.maxConcurrency }

// PathAllowed reports whether path is within one of the allowed file path
// prefixes, or true if none were configured (unrestricted).
func (c ExecutionConfig) PathAllowed(path string) bool {
	if len(c.allowedPaths) == 0 {
		return true
	}
	for _, prefix := range c.allowedPaths {
		if hasPrefixPath(path, prefix) {
			return true
		}
	}
	return false
}

// URLAllowed reports whether url matches one of the allowed URL prefixes,
// or true if none were configured.
func (c ExecutionConfig) URLAllowed(url string) bool {
	if len(c.allowedURLs) == 0 {
		return true
	}
	for _, prefix := range c.allowedURLs {
		if hasPrefixPath(url, prefix) {
			return true
		}
	}
	return false
}

func hasPrefixPath(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
