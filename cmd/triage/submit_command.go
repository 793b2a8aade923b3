package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"triage/internal/feedback"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "submit [text]",
		Short: "Submit a feedback signal for processing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("feedback text is required")
			}
			if _, ok := feedback.ParseSource(source); !ok {
				return fmt.Errorf("unknown source %q (expected one of %s)", source, sourceList())
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Submit(cmd.Context(), source, text)
			if err != nil {
				return fmt.Errorf("submit feedback: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Queued job %s\n", resp.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Feedback source ("+sourceList()+")")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func sourceList() string {
	sources := feedback.Sources()
	names := make([]string, 0, len(sources))
	for _, source := range sources {
		names = append(names, string(source))
	}
	return strings.Join(names, ", ")
}
