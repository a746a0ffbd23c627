package config

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
)

// FileName is the name of the project and global configuration file
const FileName = ".purity.kdl"

// Default values shared by the loader, the KDL parser and the validator
const (
	DefaultDebounceMs = 300
	DefaultFormat     = "text"
	DefaultInclude    = "**/*.cs"
)

type Config struct {
	Version     int
	Project     Project
	Include     []string
	Exclude     []string
	References  []string
	Known       KnownSymbols
	PureLambdas []PureLambda
	Performance Performance
	Output      Output
	Cache       Cache
	Watch       Watch
}

type Project struct {
	Root string
	Name string
}

// KnownSymbols selects the registry sources. List paths are relative to the
// project root.
type KnownSymbols struct {
	Defaults                     bool
	PureMethods                  []string
	PureExceptLocallyMethods     []string
	PureExceptReadLocallyMethods []string
	ReturnsNewObjectMethods      []string
	PureTypes                    []string
	NotUsedAsObject              []string
	Bundles                      []string
}

// PureLambda names a higher-order method whose argument at Arg must be a
// pure lambda
type PureLambda struct {
	Type   string
	Method string
	Arg    int
}

type Performance struct {
	Workers int // 0 = one per CPU
}

type Output struct {
	Format string // "text", "json" or "sarif"
	Color  bool
}

type Cache struct {
	Enabled bool
	Dir     string // empty = user cache dir
}

type Watch struct {
	DebounceMs       int
	RespectGitignore bool
}

// Load reads the configuration of the current directory
func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot merges ~/.purity.kdl with the project's .purity.kdl. The
// project file wins field by field except for exclusions, which are
// combined. path, when set, names an explicit project file to use instead
// of rootDir's.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	var projectConfig *Config
	var err error
	if path != "" {
		projectConfig, err = LoadKDLFile(path, searchDir)
	} else {
		projectConfig, err = LoadKDL(searchDir)
	}
	if err != nil {
		return nil, err
	}

	switch {
	case baseConfig != nil && projectConfig != nil:
		return mergeConfigs(baseConfig, projectConfig), nil
	case projectConfig != nil:
		return projectConfig, nil
	case baseConfig != nil:
		baseConfig.Project.Root = absOr(searchDir)
		return baseConfig, nil
	}

	cfg := Default(absOr(searchDir))
	cfg.EnrichExclusionsWithBuildArtifacts()
	return cfg, nil
}

// Default returns the configuration used when no file exists
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{
			Root: root,
			Name: filepath.Base(root),
		},
		Include: []string{DefaultInclude},
		Exclude: defaultExclusions(),
		Known:   KnownSymbols{Defaults: true},
		Performance: Performance{
			Workers: runtime.NumCPU(),
		},
		Output: Output{
			Format: DefaultFormat,
			Color:  true,
		},
		Cache: Cache{
			Enabled: true,
		},
		Watch: Watch{
			DebounceMs:       DefaultDebounceMs,
			RespectGitignore: true,
		},
	}
}

func defaultExclusions() []string {
	return []string{
		"**/.git/**",
		"**/.vs/**",
		"**/bin/**",
		"**/obj/**",
		"**/node_modules/**",
		"**/packages/**",
		"**/TestResults/**",
		"**/*.g.cs",
		"**/*.designer.cs",
		"**/*.Designer.cs",
	}
}

func absOr(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// mergeConfigs merges a base config with a project config.
// Project config takes precedence, but base exclusions are preserved.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		merged.Exclude = DeduplicatePatterns(append(slices.Clone(base.Exclude), project.Exclude...))
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}
	if len(project.PureLambdas) == 0 && len(base.PureLambdas) > 0 {
		merged.PureLambdas = base.PureLambdas
	}

	return &merged
}

// EnrichExclusionsWithBuildArtifacts adds the output directories declared by
// project files under the root to the exclusion list
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}

	detected := NewBuildArtifactDetector(c.Project.Root).DetectOutputDirectories()
	if len(detected) > 0 {
		c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
	}
}

// Resolve makes a path from the configuration absolute against the
// project root
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Project.Root, path)
}
