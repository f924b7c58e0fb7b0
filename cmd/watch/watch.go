// Package watch implements the scheduled fetch command: run the fetch
// pass on a cron schedule until interrupted.
package watch

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/iAnanich/scrapy-ntk/cmd/common"
	"github.com/iAnanich/scrapy-ntk/internal/runner"
)

const signalChannelBufferSize = 1

// Command returns the watch command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Fetch new finished jobs on a schedule",
		Long: `Run the incremental fetch pass on a cron schedule.
The watcher runs continuously until interrupted with Ctrl+C; each pass
picks up only the jobs that finished since the previous one.`,
		RunE: runWatch,
	}
}

// runWatch executes the watch command.
func runWatch(cmd *cobra.Command, _ []string) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	client, err := deps.NewShubClient()
	if err != nil {
		return err
	}

	checkpoints, db, err := deps.NewCheckpoints(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	r := runner.New(deps.Logger, client, checkpoints, deps.Config.Fetch)
	log := deps.Logger.WithComponent("watch")

	schedule := deps.Config.Watch.Schedule
	scheduler := cron.New()
	_, err = scheduler.AddFunc(schedule, func() {
		if _, runErr := r.RunOnce(cmd.Context()); runErr != nil {
			log.Error("Scheduled fetch failed", "error", runErr)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", schedule, err)
	}

	log.Info("Watcher started", "schedule", schedule)
	scheduler.Start()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, signalChannelBufferSize)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Info("Shutdown signal received", "signal", sig.String())
	case <-cmd.Context().Done():
		log.Info("Context cancelled")
	}

	// Let an in-flight pass finish before exiting
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	log.Info("Watcher stopped")
	return nil
}
