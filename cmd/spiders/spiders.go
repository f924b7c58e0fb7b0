// Package spiders implements the spiders command: list the spiders of a
// cloud project and show which ones are configured as fetch targets.
package spiders

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/iAnanich/scrapy-ntk/cmd/common"
	"github.com/iAnanich/scrapy-ntk/internal/shub"
)

// Command returns the spiders command.
func Command() *cobra.Command {
	var projectID int

	cmd := &cobra.Command{
		Use:   "spiders",
		Short: "List the spiders of a project",
		Long: `List the spiders of a cloud project. Without --project the
project of the first configured fetch target is used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSpiders(cmd, projectID)
		},
	}
	cmd.Flags().IntVar(&projectID, "project", 0, "project ID to list spiders for")
	return cmd
}

// runSpiders executes the spiders command.
func runSpiders(cmd *cobra.Command, projectID int) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	if projectID == 0 {
		if len(deps.Config.Fetch.Targets) == 0 {
			return fmt.Errorf("no project given: use --project or configure fetch targets")
		}
		projectID = deps.Config.Fetch.Targets[0].ProjectID
	}

	if err = deps.Config.RequireAPIKey(); err != nil {
		return err
	}

	session := shub.NewSession(deps.Logger, shub.Defaults{
		APIKey:    deps.Config.Shub.APIKey,
		ProjectID: projectID,
	}, false, sessionOptions(deps)...)
	defer session.Drop()

	client, err := session.Client()
	if err != nil {
		return err
	}

	list, err := client.ListSpiders(cmd.Context(), projectID)
	if err != nil {
		return fmt.Errorf("failed to list spiders: %w", err)
	}

	targeted := make(map[int]bool, len(deps.Config.Fetch.Targets))
	for _, target := range deps.Config.Fetch.Targets {
		if target.ProjectID == projectID {
			targeted[target.SpiderID] = true
		}
	}

	renderSpiders(projectID, list, targeted)
	return nil
}

// sessionOptions builds the client options for the session from config.
func sessionOptions(deps *common.CommandDeps) []shub.Option {
	opts := []shub.Option{
		shub.WithTimeout(deps.Config.Shub.Timeout),
		shub.WithPageSize(deps.Config.Shub.PageSize),
	}
	if deps.Config.Shub.BaseURL != "" {
		opts = append(opts, shub.WithBaseURL(deps.Config.Shub.BaseURL))
	}
	return opts
}

// renderSpiders displays the spiders in a table.
func renderSpiders(projectID int, list []shub.Spider, targeted map[int]bool) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Spider ID", "Name", "Targeted"})
	for _, spider := range list {
		mark := ""
		if targeted[spider.ID] {
			mark = "yes"
		}
		t.AppendRow(table.Row{spider.ID, spider.Name, mark})
	}
	t.Render()

	fmt.Printf("Project %d has %d spiders\n", projectID, len(list))
}
