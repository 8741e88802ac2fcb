package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/longkey1/flowprobe/internal/config"
	"github.com/longkey1/flowprobe/internal/history"
	"github.com/longkey1/flowprobe/internal/probe"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved probes",
	Long: `Manage saved probes including listing, viewing, renaming and deleting them.

Probes are saved with 'flowprobe probe --save'. Comparing saved probes shows
whether a server that used to answer has started hanging.`,
}

// openHistory loads the config and returns the history store
func openHistory() (*config.Config, *history.Store, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, history.NewStore(cfg.HistoryDir), nil
}

// confirm asks a yes/no question on the command's input
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	var response string
	fmt.Fscanln(cmd.InOrStdin(), &response)
	return response == "y" || response == "Y"
}

// historyListCmd represents the history list command
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved probes",
	Long:  `List all saved probes sorted by most recent first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openHistory()
		if err != nil {
			return err
		}

		records, err := store.List()
		if err != nil {
			return fmt.Errorf("listing probes: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No saved probes found.")
			fmt.Fprintln(out, "\nSave a probe with:")
			fmt.Fprintln(out, "  flowprobe probe --save <chatflow-id>")
			return nil
		}

		writeRecordTable(out, records)

		fmt.Fprintln(out, "\nUse 'flowprobe history show <id>' to view probe details.")
		return nil
	},
}

// writeRecordTable prints one line per record
func writeRecordTable(out io.Writer, records []history.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tOUTCOME\tSTATUS\tTIME\tCHATFLOW\tNAME")
	fmt.Fprintln(w, "--\t-------\t-------\t------\t----\t--------\t----")

	for _, rec := range records {
		name := rec.Name
		if name == "" {
			name = "-"
		}
		status := "-"
		if rec.Report.StatusCode != 0 {
			status = fmt.Sprintf("%d", rec.Report.StatusCode)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%s\t%s\n",
			rec.GetShortID(),
			rec.CreatedAt.Format("2006-01-02 15:04"),
			rec.Report.Outcome,
			status,
			rec.Report.ElapsedSeconds,
			rec.ChatflowID,
			name,
		)
	}
	w.Flush()
}

// historyShowCmd represents the history show command
var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved probe",
	Long: `Show the details of a saved probe.

The ID can be a short ID (minimum 4 characters), full UUID, or "latest" for the most recent probe.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := openHistory()
		if err != nil {
			return err
		}

		rec, err := store.FindByPrefix(args[0])
		if err != nil {
			return fmt.Errorf("finding probe: %w", err)
		}

		format := cfg.Output
		if cmd.Flags().Changed("output") {
			format, _ = cmd.Flags().GetString("output")
		}
		return writeRecord(cmd.OutOrStdout(), format, rec)
	},
}

// writeRecord renders a saved probe in the given format
func writeRecord(out io.Writer, format string, rec *history.Record) error {
	switch format {
	case "", "text":
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}

	fmt.Fprintf(out, "Probe: %s\n", rec.ID)
	if rec.Name != "" {
		fmt.Fprintf(out, "Name: %s\n", rec.Name)
	}
	fmt.Fprintf(out, "Target: %s\n", rec.TargetURL)
	fmt.Fprintf(out, "Question: %s\n", rec.Question)
	fmt.Fprintf(out, "Streaming: %v\n", rec.Streaming)
	fmt.Fprintf(out, "Timeout: %s\n", rec.Timeout)
	fmt.Fprintf(out, "Created: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Outcome: %s\n", rec.Report.Outcome)
	fmt.Fprintln(out)

	for _, ev := range rec.Report.Events {
		fmt.Fprintf(out, "Event [%ss]: %s %s\n", formatRecordedSeconds(ev.ElapsedSeconds), ev.Name, ev.Data)
	}

	switch rec.Report.Outcome {
	case probe.OutcomeSuccess:
		fmt.Fprintf(out, "Status Code: %d\n", rec.Report.StatusCode)
		fmt.Fprintf(out, "Response: %s...\n", rec.Report.Response)
		fmt.Fprintf(out, "Time Taken: %ss\n", formatRecordedSeconds(rec.Report.ElapsedSeconds))
	default:
		fmt.Fprintln(out, probe.ErrorMarker+rec.Report.Error)
	}
	return nil
}

// formatRecordedSeconds formats a stored elapsed time the way the probe prints it
func formatRecordedSeconds(s float64) string {
	return probe.FormatSeconds(time.Duration(s * float64(time.Second)))
}

// historyDeleteCmd represents the history delete command
var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved probe",
	Long: `Delete a saved probe permanently.

The ID can be a short ID (minimum 4 characters), full UUID, or "latest" for the most recent probe.

Warning: This action cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openHistory()
		if err != nil {
			return err
		}

		rec, err := store.FindByPrefix(args[0])
		if err != nil {
			return fmt.Errorf("finding probe: %w", err)
		}

		out := cmd.OutOrStdout()
		if !confirm(cmd, fmt.Sprintf("Are you sure you want to delete probe %s?", rec.GetDisplayName())) {
			fmt.Fprintln(out, "Deletion cancelled.")
			return nil
		}

		if err := store.Delete(rec.ID); err != nil {
			return fmt.Errorf("deleting probe: %w", err)
		}

		fmt.Fprintf(out, "Probe %s deleted successfully.\n", rec.GetDisplayName())
		return nil
	},
}

// historyRenameCmd represents the history rename command
var historyRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a saved probe",
	Long: `Rename a saved probe.

The ID can be a short ID (minimum 4 characters), full UUID, or "latest" for the most recent probe.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openHistory()
		if err != nil {
			return err
		}

		rec, err := store.FindByPrefix(args[0])
		if err != nil {
			return fmt.Errorf("finding probe: %w", err)
		}

		rec.Name = args[1]
		if err := store.Save(rec); err != nil {
			return fmt.Errorf("saving probe: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Probe %s renamed to \"%s\".\n", rec.GetShortID(), rec.Name)
		return nil
	},
}

// historyClearCmd represents the history clear command
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete old saved probes",
	Long: `Delete old saved probes permanently.

By default, deletes probes saved more than history_retention_days ago (30 by default).
Use --before to specify a different date, or --all to delete all probes.

Warning: This action cannot be undone.

Examples:
  flowprobe history clear                      # Delete probes older than the retention period
  flowprobe history clear --before 2024-01-01  # Delete probes saved before 2024-01-01
  flowprobe history clear --before 2024-12     # Delete probes saved before 2024-12-01
  flowprobe history clear --all                # Delete all probes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		beforeDateStr, _ := cmd.Flags().GetString("before")
		deleteAll, _ := cmd.Flags().GetBool("all")

		cfg, store, err := openHistory()
		if err != nil {
			return err
		}

		records, err := store.List()
		if err != nil {
			return fmt.Errorf("listing probes: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No probes to delete.")
			return nil
		}

		var question string
		toDelete := records
		if !deleteAll {
			var beforeDate time.Time
			if beforeDateStr != "" {
				beforeDate, err = parseDate(beforeDateStr)
				if err != nil {
					return fmt.Errorf("parsing date: %w", err)
				}
			} else {
				beforeDate = time.Now().AddDate(0, 0, -cfg.HistoryRetentionDays)
			}

			toDelete = history.CreatedBefore(records, beforeDate)
			if len(toDelete) == 0 {
				fmt.Fprintf(out, "No probes found saved before %s.\n", beforeDate.Format("2006-01-02"))
				return nil
			}

			if beforeDateStr != "" {
				question = fmt.Sprintf("Are you sure you want to delete %d probes saved before %s?",
					len(toDelete), beforeDate.Format("2006-01-02"))
			} else {
				question = fmt.Sprintf("Are you sure you want to delete %d probes older than %d days (saved before %s)?",
					len(toDelete), cfg.HistoryRetentionDays, beforeDate.Format("2006-01-02"))
			}
		} else {
			question = fmt.Sprintf("Are you sure you want to delete all %d probes?", len(toDelete))
		}

		if !confirm(cmd, question) {
			fmt.Fprintln(out, "Deletion cancelled.")
			return nil
		}

		deleted, failed := deleteRecords(store, toDelete, cmd.ErrOrStderr())

		fmt.Fprintf(out, "Successfully deleted %d probes", deleted)
		if failed > 0 {
			fmt.Fprintf(out, " (%d failed)", failed)
		}
		fmt.Fprintln(out, ".")
		return nil
	},
}

// deleteRecords removes each record, reporting failures to errOut
func deleteRecords(store *history.Store, records []history.Record, errOut io.Writer) (deleted, failed int) {
	for _, rec := range records {
		if err := store.Delete(rec.ID); err != nil {
			fmt.Fprintf(errOut, "Warning: failed to delete probe %s: %v\n", rec.GetDisplayName(), err)
			failed++
		} else {
			deleted++
		}
	}
	return deleted, failed
}

// parseDate parses a date string in various formats and returns a time.Time
// Supported formats: YYYY-MM-DD, YYYY-MM, YYYY
func parseDate(dateStr string) (time.Time, error) {
	// Try YYYY-MM-DD format
	if t, err := time.Parse("2006-01-02", dateStr); err == nil {
		return t, nil
	}

	// Try YYYY-MM format (use first day of month)
	if t, err := time.Parse("2006-01", dateStr); err == nil {
		return t, nil
	}

	// Try YYYY format (use first day of year)
	if t, err := time.Parse("2006", dateStr); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD, YYYY-MM, or YYYY)", dateStr)
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyRenameCmd)
	historyCmd.AddCommand(historyClearCmd)

	historyShowCmd.Flags().StringP("output", "o", "", "Output format: text, json or yaml")

	// historyClearCmd flags
	historyClearCmd.Flags().String("before", "", "Delete only probes saved before this date (format: YYYY-MM-DD, YYYY-MM, or YYYY)")
	historyClearCmd.Flags().Bool("all", false, "Delete all probes (overrides retention days setting)")
}
