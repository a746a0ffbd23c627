package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	perrors "github.com/standardbeagle/purity/internal/errors"
)

// maxDebounceMs bounds the watch debounce to something a user would notice
const maxDebounceMs = 60_000

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// Failures are returned as ConfigError naming the offending section.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return perrors.NewConfigError("project", cfg.Project.Root, err)
	}

	for _, group := range []struct {
		field    string
		patterns []string
	}{
		{"include", cfg.Include},
		{"exclude", cfg.Exclude},
		{"references", cfg.References},
	} {
		if bad, err := v.validatePatterns(group.patterns); err != nil {
			return perrors.NewConfigError(group.field, bad, err)
		}
	}

	for _, l := range cfg.PureLambdas {
		if err := v.validatePureLambda(l); err != nil {
			return perrors.NewConfigError("pure-lambda", l.Type+"."+l.Method, err)
		}
	}

	if cfg.Performance.Workers < 0 {
		return perrors.NewConfigError("performance.workers", fmt.Sprint(cfg.Performance.Workers),
			errors.New("workers cannot be negative"))
	}

	if err := v.validateOutputConfig(&cfg.Output); err != nil {
		return perrors.NewConfigError("output.format", cfg.Output.Format, err)
	}

	if cfg.Watch.DebounceMs < 0 || cfg.Watch.DebounceMs > maxDebounceMs {
		return perrors.NewConfigError("watch.debounce-ms", fmt.Sprint(cfg.Watch.DebounceMs),
			fmt.Errorf("debounce must be between 0 and %d", maxDebounceMs))
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validatePatterns(patterns []string) (string, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return p, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return "", nil
}

func (v *Validator) validatePureLambda(l PureLambda) error {
	switch {
	case l.Type == "":
		return errors.New("type is required")
	case l.Method == "" || strings.Contains(l.Method, "."):
		return fmt.Errorf("method must be a simple name, got %q", l.Method)
	case l.Arg < 0:
		return fmt.Errorf("arg cannot be negative, got %d", l.Arg)
	}
	return nil
}

func (v *Validator) validateOutputConfig(out *Output) error {
	switch out.Format {
	case "", "text", "json", "sarif":
		return nil
	}
	return fmt.Errorf("unknown output format %q (want text, json or sarif)", out.Format)
}

// setSmartDefaults fills the fields left at their zero value
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Performance.Workers == 0 {
		cfg.Performance.Workers = max(1, runtime.NumCPU()-1)
	}

	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = DefaultDebounceMs
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultFormat
	}

	if len(cfg.Include) == 0 {
		cfg.Include = []string{DefaultInclude}
	}

	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
