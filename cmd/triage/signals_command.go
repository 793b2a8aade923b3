package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const signalTextWidth = 60

func newSignalsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "signals",
		Short: "Show the urgent negative feedback queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			signals, err := client.Signals(cmd.Context())
			if err != nil {
				return fmt.Errorf("query signals: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total: %d   Urgent: %d\n", signals.Total, signals.UrgentCount)
			if len(signals.TopCategories) > 0 {
				parts := make([]string, 0, len(signals.TopCategories))
				for _, c := range signals.TopCategories {
					parts = append(parts, fmt.Sprintf("%s (%d)", c.Category, c.Count))
				}
				fmt.Fprintf(out, "Top categories: %s\n", strings.Join(parts, ", "))
			}

			if len(signals.Priority) == 0 {
				fmt.Fprintln(out, "No urgent negative feedback")
				return nil
			}

			rows := make([][]string, 0, len(signals.Priority))
			for _, entry := range signals.Priority {
				rows = append(rows, []string{
					titleLabel(entry.Source),
					titleLabel(entry.Urgency),
					entry.Category,
					collapseText(entry.Text),
					entry.CreatedAt,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Source", "Urgency", "Category", "Feedback", "Received"},
				rows,
				columnLimit{column: 4, width: signalTextWidth},
			))
			return nil
		},
	}
}

func collapseText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
