package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/purity/internal/cache"
	"github.com/standardbeagle/purity/internal/debug"
	"github.com/standardbeagle/purity/internal/knownsymbols"
	"github.com/standardbeagle/purity/internal/mcp"
	"github.com/standardbeagle/purity/internal/workspace"
)

func mcpCommand(c *cli.Context) error {
	// stdout carries the protocol
	debug.SetMCPMode(true)

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return debug.Fatal("failed to load config: %v", err)
	}
	server := mcp.NewServer(cfg, openCache(cfg, c.App.ErrWriter))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

func knownCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	reg, warnings := workspace.KnownSymbols(cfg).BuildRegistry(nil)
	for _, w := range warnings {
		fmt.Fprintf(c.App.ErrWriter, "Warning: %v\n", w)
	}
	out := c.App.Writer

	if name := c.String("category"); name != "" {
		cat, ok := knownsymbols.ParseCategory(name)
		if !ok {
			return fmt.Errorf("unknown category %q", name)
		}
		for _, n := range reg.Names(cat) {
			fmt.Fprintln(out, n)
		}
		return nil
	}

	if c.NArg() == 0 {
		for _, cat := range knownsymbols.Categories() {
			fmt.Fprintf(out, "%-34s %d\n", cat.String(), reg.Len(cat))
		}
		return nil
	}

	missing := 0
	for _, name := range c.Args().Slice() {
		cats := reg.Lookup(name)
		if len(cats) == 0 {
			fmt.Fprintf(out, "%s: unknown\n", name)
			missing++
			continue
		}
		names := make([]string, len(cats))
		for i, cat := range cats {
			names[i] = cat.String()
		}
		fmt.Fprintf(out, "%s: %s\n", name, strings.Join(names, ", "))
	}
	if missing > 0 {
		return cli.Exit("", exitFindings)
	}
	return nil
}

func cacheClearCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	rc, err := cache.Open(cfg.Cache.Dir)
	if err != nil {
		return err
	}
	if err := rc.Clear(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Cleared %s\n", rc.Dir())
	return nil
}
