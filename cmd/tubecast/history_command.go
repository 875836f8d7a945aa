package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tubecast/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var count int
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show uploads recorded on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			var want history.Status
			if s := strings.TrimSpace(statusFilter); s != "" {
				parsed, ok := history.ParseStatus(strings.ToLower(s))
				if !ok {
					return fmt.Errorf("unknown status %q (want uploading, completed, failed or rejected)", statusFilter)
				}
				want = parsed
			}

			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			limit := count
			if want != "" {
				// Filtering happens after the query, so fetch a wider window.
				limit = count * 10
			}
			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, count)
			for _, r := range records {
				if want != "" && r.Status != want {
					continue
				}
				if len(rows) == count {
					break
				}
				rows = append(rows, historyRow(r))
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No uploads recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable([]column{
				fixedCol("Started"), col("File"), col("Status"), numCol("Size"), numCol("Sent"),
				numCol("Requests"), numCol("Took"), wideCol("Video / Error"),
			}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of records to show")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show records with this status")
	return cmd
}

func historyRow(r history.Record) []string {
	result := r.VideoID
	if r.Error != "" {
		result = r.Error
	}
	took := ""
	if d := r.Duration(); d > 0 {
		took = d.Round(time.Second).String()
	}
	return []string{
		r.StartedAt.Local().Format("2006-01-02 15:04"),
		r.FileName(),
		string(r.Status),
		humanize.IBytes(uint64(r.FileSize)),
		humanize.IBytes(uint64(r.BytesConfirmed)),
		strconv.Itoa(r.Attempts),
		took,
		result,
	}
}
