package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mojifix/internal/fixer"
	"mojifix/internal/report"
	"mojifix/internal/watch"
)

// watchCmd keeps the targets repaired as they change on disk.
var watchCmd = &cobra.Command{
	Use:   "watch [files...]",
	Short: "Watch the targets and repair them as they change",
	Long: `Run an initial repair pass, then keep watching the target files and
re-run the pass whenever a change settles. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	files := targetList(args)
	writer := report.NewWriter(cmd.OutOrStdout(), logger, verbose)
	runner := fixer.NewRunner(fixer.New(cfg.Workspace, logger), writer, logger)

	w, err := watch.New(cfg.Workspace, files, runner, cfg.GetDebounce(), logger)
	if err != nil {
		return err
	}

	// Initial pass, then watch until cancelled.
	w.TriggerPass()
	if err := w.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	w.Stop()

	stats := w.GetStats()
	logger.Info("Watch session finished",
		zap.Int("passes", stats.PassesTriggered),
		zap.Int("modified", stats.FilesModified),
		zap.Int("errors", stats.Errors))
	return nil
}
