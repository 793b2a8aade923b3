package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"triage/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("query daemon status: %w (is triaged running?)", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			daemonKind := statusError
			daemonMsg := "stopped"
			if status.Running {
				daemonKind = statusOK
				daemonMsg = fmt.Sprintf("pid %d", status.PID)
			}
			fmt.Fprintln(out, renderStatusLine("Daemon", daemonKind, daemonMsg, colorize))
			fmt.Fprintln(out, renderStatusLine("Queue DB", statusInfo, status.QueueDBPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Feedback DB", statusInfo, status.StoreDBPath, colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Workflow", colorize) {
				fmt.Fprintln(out, line)
			}
			workflowKind := statusWarn
			workflowMsg := "idle"
			if status.Workflow.Running {
				workflowKind = statusOK
				workflowMsg = "processing"
			}
			fmt.Fprintln(out, renderStatusLine("Engine", workflowKind, workflowMsg, colorize))
			if lastErr := strings.TrimSpace(status.Workflow.LastError); lastErr != "" {
				fmt.Fprintln(out, renderStatusLine("Last Error", statusError, lastErr, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Queue", statusInfo, formatQueueStats(status.Workflow.QueueStats), colorize))
			for _, health := range status.Workflow.StepHealth {
				kind := statusOK
				msg := "ready"
				if !health.Ready {
					kind = statusError
					msg = health.Detail
				}
				fmt.Fprintln(out, renderStatusLine("Step "+health.Name, kind, msg, colorize))
			}
			if status.Workflow.LastJob != nil {
				fmt.Fprintln(out, renderStatusLine("Last Job", statusInfo, formatLastJob(status.Workflow.LastJob), colorize))
			}
			return nil
		},
	}
}

func formatQueueStats(stats map[string]int) string {
	if len(stats) == 0 {
		return "empty"
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%d %s", stats[key], key))
	}
	return strings.Join(parts, ", ")
}

func formatLastJob(job *api.JobView) string {
	return fmt.Sprintf("%s (%s, %s)", job.ID, titleLabel(job.Source), job.Status)
}
