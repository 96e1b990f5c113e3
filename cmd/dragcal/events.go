package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dragcal/internal/ics"
	"dragcal/internal/refresh"
	"dragcal/internal/store"
)

type eventLine struct {
	Key     string    `json:"key"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	AllDay  bool      `json:"all_day,omitempty"`
}

func newEventsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Refresh the feeds once and print the resulting events",
		Example: `
dragcal events --format json
dragcal events --format ics > week.ics
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "ics" {
				return fmt.Errorf("unknown --format %q (json, ics)", format)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st := store.New(0)
			pipeline := refresh.NewPipeline(cfg, ics.NewFetcher(cfg.CacheDir, nil), st)
			if _, err := pipeline.Run(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "ics" {
				_, err := out.Write(ics.Encode(st.List(), time.Now()))
				return err
			}

			lines := make([]eventLine, 0, st.Len())
			for _, ev := range st.List() {
				v := ev.Values()
				lines = append(lines, eventLine{Key: ev.Key, Summary: v.Summary, Start: v.Start, End: v.End, AllDay: v.AllDay})
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(lines)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or ics")
	return cmd
}
