package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/purity/internal/cache"
	"github.com/standardbeagle/purity/internal/config"
	"github.com/standardbeagle/purity/internal/debug"
	"github.com/standardbeagle/purity/internal/diagnostics"
	"github.com/standardbeagle/purity/internal/purity"
	"github.com/standardbeagle/purity/internal/version"
)

// exitFindings is the status of a check that reported errors
const exitFindings = 1

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			if msg := exit.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(exit.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(2)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:                   version.Name,
		Usage:                  "Check purity annotations of C# code",
		Version:                version.Version,
		Writer:                 stdout,
		ErrWriter:              stderr,
		UseShortOptionHandling: true,
		// exit codes are handled by main so commands stay testable
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: .purity.kdl in the project root)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/Migrations/**')",
			},
			&cli.StringSliceFlag{
				Name:  "pure-lambda",
				Usage: "Require a pure lambda argument: Type.Method:Arg",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug logs to a file under the temp directory",
			},
		},
		Before: func(c *cli.Context) error {
			if !c.Bool("debug") {
				return nil
			}
			path, err := debug.InitDebugLogFile()
			if err != nil {
				return err
			}
			os.Setenv("PURITY_DEBUG", "1")
			fmt.Fprintf(c.App.ErrWriter, "Debug log: %s\n", path)
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Analyze the project, or the given files and directories",
				ArgsUsage: "[paths...]",
				Flags: append(outputFlags(),
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"j"},
						Usage:   "Members analyzed in parallel (0 = config or one per CPU)",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Neither read nor write the results cache",
					},
				),
				Action: checkCommand,
			},
			{
				Name:   "watch",
				Usage:  "Re-analyze the project whenever a source file changes",
				Flags:  outputFlags(),
				Action: watchCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Serve check_purity and known_symbol over MCP stdio",
				Action: mcpCommand,
			},
			{
				Name:      "known",
				Usage:     "Look up names in the known-symbol sets, or list a set",
				ArgsUsage: "[names...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "List one set (pure-methods, pure-types, returns-new-object-methods, ...)",
					},
				},
				Action: knownCommand,
			},
			{
				Name:  "cache",
				Usage: "Manage the results cache",
				Subcommands: []*cli.Command{
					{
						Name:   "clear",
						Usage:  "Remove every cached result",
						Action: cacheClearCommand,
					},
				},
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-color", Usage: "Disable colored output"},
				},
				Action: func(c *cli.Context) error {
					version.Banner(c.App.Writer, !c.Bool("no-color"))
					return nil
				},
			},
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json or sarif",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
	}
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
		}
		root = abs
	}

	cfg, err := config.LoadWithRoot(c.String("config"), root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if root != "" {
		cfg.Project.Root = root
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludes...)
	}
	for _, spec := range c.StringSlice("pure-lambda") {
		p, err := parsePureLambdaFlag(spec)
		if err != nil {
			return nil, err
		}
		cfg.PureLambdas = append(cfg.PureLambdas, p)
	}
	if c.IsSet("workers") {
		cfg.Performance.Workers = c.Int("workers")
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parsePureLambdaFlag(spec string) (config.PureLambda, error) {
	p, err := purity.ParsePureLambda(spec)
	if err != nil {
		return config.PureLambda{}, fmt.Errorf("--pure-lambda: %w", err)
	}
	return config.PureLambda{Type: p.Type, Method: p.Method, Arg: p.Arg}, nil
}

// openCache returns nil when caching is off or the directory is unusable
func openCache(cfg *config.Config, stderr io.Writer) *cache.ResultsCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	rc, err := cache.Open(cfg.Cache.Dir)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: results cache disabled: %v\n", err)
		return nil
	}
	return rc
}

func outputOptions(cfg *config.Config) (diagnostics.Options, error) {
	format, err := diagnostics.ParseFormat(cfg.Output.Format)
	if err != nil {
		return diagnostics.Options{}, err
	}
	return diagnostics.Options{
		Format:      format,
		Color:       cfg.Output.Color && !color.NoColor && format == diagnostics.FormatText,
		BaseDir:     cfg.Project.Root,
		ToolVersion: version.Version,
	}, nil
}
