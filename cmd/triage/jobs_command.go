package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"triage/internal/api"
	"triage/internal/queue"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List pipeline jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(statusFilters))
			for _, value := range statusFilters {
				status, ok := queue.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q (expected one of %s)", value, statusList())
				}
				statuses = append(statuses, status)
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			jobs, err := client.Jobs(cmd.Context(), statuses...)
			if err != nil {
				return fmt.Errorf("list jobs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs found")
				return nil
			}

			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				rows = append(rows, []string{
					job.ID,
					titleLabel(job.Source),
					job.Status,
					formatSteps(job.Steps),
					job.CreatedAt,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Source", "Status", "Steps", "Created"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by job status ("+statusList()+", repeatable)")
	return cmd
}

func statusList() string {
	statuses := queue.AllStatuses()
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}

func formatSteps(steps []api.StepView) string {
	parts := make([]string, 0, len(steps))
	for _, step := range steps {
		label := step.Status
		switch {
		case step.Skipped:
			label = "skipped"
		case step.Attempt > 1:
			label = fmt.Sprintf("%s x%d", step.Status, step.Attempt)
		}
		parts = append(parts, fmt.Sprintf("%s:%s", step.Name, label))
	}
	return strings.Join(parts, " ")
}
