package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"yt2text/internal/config"
	"yt2text/internal/queue"
	"yt2text/internal/sourcelist"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		listFile string
		title    string
	)

	cmd := &cobra.Command{
		Use:   "submit [url...]",
		Short: "Queue videos for the daemon",
		Long: "Queue one or more video URLs for background processing by 'yt2text serve'.\n" +
			"Use --file to import URLs from a .txt, .csv or .xlsx list.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []sourcelist.Entry
			for _, arg := range args {
				if url := strings.TrimSpace(arg); url != "" {
					entries = append(entries, sourcelist.Entry{URL: url, Title: title})
				}
			}
			if listFile != "" {
				path, err := config.ExpandPath(listFile)
				if err != nil {
					return err
				}
				loaded, err := sourcelist.Load(path)
				if err != nil {
					return err
				}
				entries = append(entries, loaded...)
			}
			if len(entries) == 0 {
				return errors.New("provide at least one url or --file")
			}
			if title != "" && len(entries) > 1 {
				return errors.New("--title applies to a single url only")
			}

			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				for _, entry := range entries {
					task, err := store.NewTask(cmd.Context(), entry.URL, entry.Title)
					if err != nil {
						return fmt.Errorf("queue %s: %w", entry.URL, err)
					}
					fmt.Fprintf(out, "Queued %s  %s\n", task.ID, task.URL)
				}
				if len(entries) > 1 {
					fmt.Fprintf(out, "%d tasks queued\n", len(entries))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&listFile, "file", "f", "", "Import URLs from a .txt, .csv or .xlsx file")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Document title for a single url")
	return cmd
}
