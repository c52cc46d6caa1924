package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"printlapse/internal/config"
	"printlapse/internal/history"
	"printlapse/internal/logging"
	"printlapse/internal/preflight"
	"printlapse/internal/printer"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show printer reachability and environment health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			rows := make([][]string, 0, 8)

			client := printer.NewClient(cfg, logging.NewNop())
			if client.IsOnline(cmd.Context()) {
				status := client.JobStatus(cmd.Context())
				detail := fmt.Sprintf("%s online", cfg.Printer.Host)
				if status.Printing() {
					detail = fmt.Sprintf("%s printing %q (%.0f%%)", cfg.Printer.Host, status.Name, status.Progress()*100)
				}
				rows = append(rows, []string{"Printer", "ok", detail})
			} else {
				rows = append(rows, []string{"Printer", "FAIL", fmt.Sprintf("%s unreachable", cfg.Printer.Host)})
			}

			for _, result := range preflight.RunAll(cfg) {
				state := "ok"
				if !result.Passed {
					state = "FAIL"
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}

			rows = append(rows, lastCaptureRow(cmd, cfg))

			fmt.Fprintln(out, renderTable(
				[]string{"Check", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func lastCaptureRow(cmd *cobra.Command, cfg *config.Config) []string {
	store, err := history.Open(cfg)
	if err != nil {
		return []string{"Last capture", "FAIL", err.Error()}
	}
	defer store.Close()

	records, err := store.Recent(cmd.Context(), 1)
	if err != nil {
		return []string{"Last capture", "FAIL", err.Error()}
	}
	if len(records) == 0 {
		return []string{"Last capture", "ok", "none recorded"}
	}
	rec := records[0]
	detail := fmt.Sprintf("%s, %d frames, %s (%s)", rec.JobName, rec.FrameCount, rec.EncodeStatus, ageLabel(rec.StartedAt))
	return []string{"Last capture", "ok", detail}
}
