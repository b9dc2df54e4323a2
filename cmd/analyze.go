package main

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/opportunity-analyzer/internal/analysis"
)

var analyzeDelay time.Duration

var analyzeCmd = &cobra.Command{
	Use:   "analyze <zip>",
	Short: "Run one opportunity analysis and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		svc := a.Analyzer
		if cmd.Flags().Changed("delay") {
			svc = analysis.New(a.View, analysis.WithDelay(analyzeDelay))
		}

		report, err := svc.Analyze(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(report), "encode report")
	},
}

func init() {
	analyzeCmd.Flags().DurationVar(&analyzeDelay, "delay", analysis.DefaultDelay, "minimum analysis time, overriding analysis.delay_ms")
	rootCmd.AddCommand(analyzeCmd)
}
