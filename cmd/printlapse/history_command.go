package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"printlapse/internal/history"
	"printlapse/internal/textutil"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent captures and their encode outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No captures recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.StartedAt.Local().Format("2006-01-02 15:04"),
					rec.JobName,
					strconv.Itoa(rec.FrameCount),
					textutil.HMSSeconds(rec.CaptureSeconds),
					string(rec.EncodeStatus),
					historyOutputCell(rec),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Started", "Job", "Frames", "Capture Time", "Encode", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of captures to show")
	return cmd
}

// historyOutputCell picks the most useful path to show for a record: the
// finished video when the encode succeeded, otherwise the frames directory
// (with the failure message when there is one).
func historyOutputCell(rec history.Record) string {
	switch rec.EncodeStatus {
	case history.EncodeSucceeded:
		return rec.VideoPath
	case history.EncodeFailed:
		if rec.EncodeError != "" {
			return fmt.Sprintf("%s (%s)", rec.FramesDir, rec.EncodeError)
		}
		return rec.FramesDir
	default:
		return rec.FramesDir
	}
}

// ageLabel renders a compact "how long ago" string for status output.
func ageLabel(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return textutil.HMS(time.Since(t)) + " ago"
}
