package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"yt2text/internal/api"
	"yt2text/internal/config"
	"yt2text/internal/queue"
	"yt2text/internal/textutil"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the task queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts and database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(out, renderTable([]string{"Status", "Count"}, buildQueueStatusRows(stats), []columnAlignment{alignLeft, alignRight}))

				health, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Database: %s\n", health.DBPath)
				fmt.Fprintf(out, "Schema version: %s\n", health.SchemaVersion)
				fmt.Fprintf(out, "Integrity check: %s\n", passFail(health.IntegrityCheck))
				if len(health.MissingColumns) > 0 {
					fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(health.MissingColumns, ", "))
				}
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
				return nil
			})
		},
	}
}

func buildQueueStatusRows(stats map[queue.Status]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		rows = append(rows, []string{string(status), fmt.Sprintf("%d", stats[status])})
	}
	return rows
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued and finished tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(listStatuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				tasks, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Status", "Progress", "Created"},
					buildQueueListRows(api.SortTasksNewestFirst(api.FromTasks(tasks))),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by task status (repeatable)")
	return cmd
}

func buildQueueListRows(tasks []api.Task) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		progress := task.FormattingProgress
		if progress == "" {
			progress = task.Progress.Stage
		}
		created := ""
		if t := api.ParseTime(task.CreatedAt); !t.IsZero() {
			created = t.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{task.ID, textutil.Truncate(task.Title, listTitleRunes), task.Status, progress, created})
	}
	return rows
}

const listTitleRunes = 48

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				task, err := store.GetByID(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if task == nil {
					return fmt.Errorf("task %s not found", args[0])
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:       %s\n", task.ID)
				fmt.Fprintf(out, "URL:      %s\n", task.URL)
				fmt.Fprintf(out, "Title:    %s\n", task.Title)
				fmt.Fprintf(out, "Status:   %s\n", task.Status)
				if task.ProgressStage != "" {
					fmt.Fprintf(out, "Stage:    %s (%.0f%%)\n", task.ProgressStage, task.ProgressPercent)
				}
				if task.ParagraphCount > 0 {
					fmt.Fprintf(out, "Progress: %d/%d paragraphs\n", task.FormattedCount, task.ParagraphCount)
				}
				if task.AudioPath != "" {
					fmt.Fprintf(out, "Audio:    %s\n", task.AudioPath)
				}
				if task.TranscriptPath != "" {
					fmt.Fprintf(out, "Document: %s\n", task.TranscriptPath)
				}
				fmt.Fprintf(out, "Created:  %s\n", task.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Updated:  %s\n", task.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
				if task.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", task.ErrorMessage)
				}
				fmt.Fprint(out, renderTimings(task.Timings()))
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Requeue failed tasks (all of them when no id is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				count, err := store.RetryFailed(cmd.Context(), args...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d failed tasks\n", count)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				removed, err := store.Remove(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("task %s not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var (
		clearCompleted bool
		clearFailed    bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove tasks from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				var (
					removed int64
					err     error
					label   = "queue"
				)
				switch {
				case clearCompleted:
					removed, err = store.ClearCompleted(cmd.Context())
					label = "completed"
				case clearFailed:
					removed, err = store.ClearFailed(cmd.Context())
					label = "failed"
				default:
					removed, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s tasks\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed tasks")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed tasks")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight tasks to the queue after a crash",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				count, err := store.ResetStuckProcessing(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d in-flight tasks\n", count)
				return nil
			})
		},
	}
}

func parseStatuses(values []string) ([]queue.Status, error) {
	var statuses []queue.Status
	for _, value := range values {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func passFail(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
