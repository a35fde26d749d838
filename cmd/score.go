package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/pestel/config"
	"github.com/mohammad-safakhou/pestel/internal/llm"
	"github.com/mohammad-safakhou/pestel/internal/scoring"
	"github.com/mohammad-safakhou/pestel/internal/snapshot"
	"github.com/mohammad-safakhou/pestel/internal/telemetry"
)

// scoreCMD grades the reports in a saved snapshot without re-running the
// analysis itself.
func scoreCMD() *cobra.Command {
	var cfgPath string
	var score = &cobra.Command{
		Use:   "score <snapshot.json>",
		Short: "Score the reports of a recorded analysis",
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

			scorer := scoring.NewScorer(provider, cfg.LLM.Routing.Model("scoring"))
			scores := scorer.CalculateScores(context.Background(), doc.Form, doc.Reports)

			out, err := json.MarshalIndent(scores, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	score.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return score
}
