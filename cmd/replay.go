package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/pestel/config"
	"github.com/mohammad-safakhou/pestel/internal/analysis"
	"github.com/mohammad-safakhou/pestel/internal/llm"
	"github.com/mohammad-safakhou/pestel/internal/snapshot"
	"github.com/mohammad-safakhou/pestel/internal/telemetry"
)

// replayCMD re-runs a recorded analysis with live LLM calls but the
// snapshot's web content instead of live searches. Useful for iterating on
// prompts without burning search quota.
func replayCMD() *cobra.Command {
	var cfgPath string
	var replay = &cobra.Command{
		Use:   "replay <snapshot.json>",
		Short: "Re-run a recorded analysis against its captured search results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)

			doc, err := snapshot.Load(args[0])
			if err != nil {
				return err
			}
			if doc.Form == nil {
				return fmt.Errorf("snapshot %s has no form", args[0])
			}

			tele := telemetry.NewTelemetry(cfg.Telemetry)
			provider, err := llm.NewProvider(cfg.LLM, tele)
			if err != nil {
				return err
			}

			graph := analysis.NewGraph(cfg, provider, doc.Searcher(), tele)
			result, err := graph.Run(context.Background(), doc.Form)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result.Reports, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	replay.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return replay
}
