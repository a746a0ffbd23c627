// Package testhelpers provides shared utilities for testing the purity checker
package testhelpers

import (
	"github.com/standardbeagle/purity/internal/config"
)

// TestConfigBuilder provides a fluent API for building test configs with safe defaults
// Usage:
//
//	cfg := testhelpers.NewTestConfigBuilder(root).
//		WithReferences("stubs/**/*.cs").
//		WithPureMethods("lists/pure.txt").
//		Build()
type TestConfigBuilder struct {
	cfg *config.Config
}

// NewTestConfigBuilder starts from the defaults for root with caching and
// gitignore handling off, so tests only see what they set up
func NewTestConfigBuilder(projectRoot string) *TestConfigBuilder {
	cfg := config.Default(projectRoot)
	cfg.Project.Name = "test-project"
	cfg.Cache.Enabled = false
	cfg.Watch.RespectGitignore = false
	cfg.Watch.DebounceMs = 50
	cfg.Output.Color = false
	return &TestConfigBuilder{cfg: cfg}
}

// WithExclusions adds exclusion patterns to the defaults
func (b *TestConfigBuilder) WithExclusions(patterns ...string) *TestConfigBuilder {
	b.cfg.Exclude = append(b.cfg.Exclude, patterns...)
	return b
}

// WithReferences sets the reference stub globs
func (b *TestConfigBuilder) WithReferences(patterns ...string) *TestConfigBuilder {
	b.cfg.References = patterns
	return b
}

// WithPureMethods adds pure-method list files
func (b *TestConfigBuilder) WithPureMethods(paths ...string) *TestConfigBuilder {
	b.cfg.Known.PureMethods = append(b.cfg.Known.PureMethods, paths...)
	return b
}

// WithPureLambda requires argument arg of typeName.method to be a pure lambda
func (b *TestConfigBuilder) WithPureLambda(typeName, method string, arg int) *TestConfigBuilder {
	b.cfg.PureLambdas = append(b.cfg.PureLambdas, config.PureLambda{Type: typeName, Method: method, Arg: arg})
	return b
}

// WithGitignore turns .gitignore handling back on
func (b *TestConfigBuilder) WithGitignore() *TestConfigBuilder {
	b.cfg.Watch.RespectGitignore = true
	return b
}

// WithCache enables the results cache in dir
func (b *TestConfigBuilder) WithCache(dir string) *TestConfigBuilder {
	b.cfg.Cache.Enabled = true
	b.cfg.Cache.Dir = dir
	return b
}

// Build returns the config. The builder must not be reused afterwards.
func (b *TestConfigBuilder) Build() *config.Config {
	return b.cfg
}
