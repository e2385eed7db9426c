package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"screen-vision/src/config"
	"screen-vision/src/history"
)

func newHistoryCmd(opts *cliOptions) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recent captures stored in the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithOptions(opts.loadOptions())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if strings.TrimSpace(cfg.HistoryDSN) == "" {
				return errors.New("history is disabled: set HISTORY_DSN")
			}

			store, err := history.Open(contextOf(cmd), cfg.HistoryDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(contextOf(cmd), limit)
			if err != nil {
				return err
			}
			verbosef(cmd, opts, "Loaded %d records", len(records))

			if jsonOutput {
				return writeHistoryJSON(cmd.OutOrStdout(), records)
			}
			return writeHistoryTable(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output records as JSON")
	return cmd
}

type historyEntry struct {
	ID        int64    `json:"id"`
	CreatedAt string   `json:"created_at"`
	Source    string   `json:"source"`
	Backend   string   `json:"backend"`
	Region    [4]int   `json:"region"`
	Caption   string   `json:"caption"`
	Tags      []string `json:"tags"`
	Objects   int      `json:"object_count"`
	Duration  float64  `json:"duration_seconds"`
}

func writeHistoryJSON(w io.Writer, records []history.Record) error {
	entries := make([]historyEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, historyEntry{
			ID:        r.ID,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
			Source:    r.Source,
			Backend:   r.Backend,
			Region:    [4]int{r.X, r.Y, r.W, r.H},
			Caption:   r.Caption,
			Tags:      r.Tags,
			Objects:   r.ObjectCount,
			Duration:  r.Duration.Seconds(),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func writeHistoryTable(w io.Writer, records []history.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tSOURCE\tREGION\tOBJECTS\tCAPTION")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d,%d,%d,%d\t%d\t%s\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Source,
			r.X, r.Y, r.W, r.H,
			r.ObjectCount,
			r.Caption)
	}
	return tw.Flush()
}
