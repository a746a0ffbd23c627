package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/purity/internal/cache"
	"github.com/standardbeagle/purity/internal/config"
	"github.com/standardbeagle/purity/internal/diagnostics"
	"github.com/standardbeagle/purity/internal/version"
	"github.com/standardbeagle/purity/internal/watch"
	"github.com/standardbeagle/purity/internal/workspace"
)

func checkCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	opts, err := outputOptions(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := workspace.Check(ctx, cfg, openCache(cfg, c.App.ErrWriter), version.BuildID(), c.Args().Slice()...)
	if err != nil {
		return err
	}
	if err := report(c.App.Writer, c.App.ErrWriter, rep, opts); err != nil {
		return err
	}
	if rep.HasErrors() {
		return cli.Exit("", exitFindings)
	}
	return nil
}

// report prints the diagnostics to out and run warnings to errOut
func report(out, errOut io.Writer, rep *workspace.Report, opts diagnostics.Options) error {
	for _, w := range rep.Warnings {
		fmt.Fprintf(errOut, "Warning: %v\n", w)
	}
	if err := diagnostics.Write(out, rep.Diagnostics, opts); err != nil {
		return err
	}
	if opts.Format == diagnostics.FormatText && len(rep.Diagnostics) == 0 {
		fmt.Fprintf(out, "No purity problems in %d file(s), %d type(s).\n", rep.Sources, rep.Types)
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	opts, err := outputOptions(cfg)
	if err != nil {
		return err
	}
	rc := openCache(cfg, c.App.ErrWriter)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runWatch(ctx, cfg, rc, opts, c.App.Writer, c.App.ErrWriter)
}

// runWatch checks once, then again after every batch of changes, until
// ctx is done
func runWatch(ctx context.Context, cfg *config.Config, rc *cache.ResultsCache, opts diagnostics.Options, out, errOut io.Writer) error {
	rerun := func(ctx context.Context) {
		start := time.Now()
		rep, err := workspace.Check(ctx, cfg, rc, version.BuildID())
		if err != nil {
			if ctx.Err() == nil {
				fmt.Fprintf(errOut, "Error: %v\n", err)
			}
			return
		}
		if err := report(out, errOut, rep, opts); err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
		}
		if opts.Format == diagnostics.FormatText {
			fmt.Fprintf(errOut, "Checked in %v. Watching %s for changes...\n", time.Since(start).Round(time.Millisecond), cfg.Project.Root)
		}
	}

	w, err := watch.New(workspace.NewScanner(cfg), time.Duration(cfg.Watch.DebounceMs)*time.Millisecond,
		func(ctx context.Context, b watch.Batch) {
			if opts.Format == diagnostics.FormatText {
				fmt.Fprintf(errOut, "\n%d file(s) changed\n", b.Len())
			}
			rerun(ctx)
		})
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	rerun(ctx)
	return w.Run(ctx)
}
