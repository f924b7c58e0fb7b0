// Package fetch implements the one-shot fetch command: run one
// incremental fetch pass and display the jobs it found.
package fetch

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/iAnanich/scrapy-ntk/cmd/common"
	"github.com/iAnanich/scrapy-ntk/internal/runner"
)

// runDurationUnit rounds the reported run duration for display.
const runDurationUnit = time.Millisecond

// Command returns the fetch command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch new finished jobs once",
		Long: `Run one incremental fetch pass over the configured targets.
Only jobs not recorded by previous runs are reported; the checkpoint
database is updated so the next run starts where this one stopped.`,
		RunE: runFetch,
	}
}

// runFetch executes the fetch command.
func runFetch(cmd *cobra.Command, _ []string) error {
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
	result, err := r.RunOnce(cmd.Context())
	if err != nil {
		return err
	}

	renderResult(result)
	return nil
}

// renderResult displays the found jobs in a table.
func renderResult(result *runner.Result) {
	if len(result.Keys) == 0 {
		fmt.Println("No new jobs found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Job Key", "Project", "Spider", "Job"})
	for _, key := range result.Keys {
		t.AppendRow(table.Row{
			key.String(),
			key.ProjectID(),
			key.SpiderID(),
			key.JobNum(),
		})
	}
	t.Render()

	fmt.Printf("Found %d new jobs in %s", len(result.Keys), result.Duration.Round(runDurationUnit))
	if result.StopReason != "" {
		fmt.Printf(" (%s)", result.StopReason)
	}
	fmt.Println()
}
