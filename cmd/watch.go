package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/bustle/internal/errors"
	"github.com/conneroisu/bustle/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Recompile LESS sources as they change",
	Long: `Watch the asset sources and recompile LESS files when they change.

A change to a .less file that no bundle names directly is treated as an
import, and every bundle source is recompiled.

Examples:
  bustle watch --less                       # Watch the configured sources
  bustle watch --less --debounce 500ms      # Wait longer for edits to settle`,
	RunE: runWatch,
}

var (
	watchDebounce time.Duration
	watchInitial  bool
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before a batch of changes is compiled")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", true, "Compile stale sources before watching")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	if a.compiler == nil {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, "LESS preprocessing is disabled, enable it with --less or less.enabled")
	}

	targets := a.lessTargets()
	if watchInitial {
		handler := errors.NewErrorHandler(a.logger)
		for _, logical := range targets {
			if _, _, err := a.compiler.Ensure(ctx, logical); err != nil {
				handler.Handle(ctx, err)
			}
		}
	}

	fileWatcher, err := watcher.NewFileWatcher(watchDebounce, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.LessFilter)
	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddFilter(watcher.NoGitFilter)

	recompiler := watcher.NewRecompiler(a.compiler, a.watchRoots(), targets, a.logger)
	fileWatcher.AddHandler(recompiler.Handle)

	for _, root := range a.watchRoots() {
		if err := fileWatcher.AddRecursive(root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %d director(ies) for LESS changes, press Ctrl+C to stop\n", len(fileWatcher.WatchList()))
	<-ctx.Done()

	if ctx.Err() != context.Canceled {
		return ctx.Err()
	}
	return nil
}
