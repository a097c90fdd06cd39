package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/rules"
	"github.com/sells-group/prospect-cli/internal/scorer"
)

var (
	scoreInput    string
	scoreMinScore int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score and rank leads read from a JSON file",
	Long:  "Reads a JSON array of leads (or '-' for stdin), scores each one with the configured scoring tables and prints the ranked leads that reach --min-score.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := loadRules(cfg.Rules)
		if err != nil {
			return err
		}

		in := io.Reader(os.Stdin)
		if scoreInput != "-" {
			f, err := os.Open(scoreInput)
			if err != nil {
				return eris.Wrap(err, "open input")
			}
			defer f.Close() //nolint:errcheck
			in = f
		}

		ranked, err := scoreLeads(in, rs.Scoring, rs.Sectors, scoreMinScore)
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, ranked)
	},
}

func scoreLeads(r io.Reader, sr *rules.ScoringRules, sectors *rules.SectorTable, minScore int) ([]model.Lead, error) {
	var leads []model.Lead
	if err := json.NewDecoder(r).Decode(&leads); err != nil {
		return nil, eris.Wrap(err, "decode leads")
	}
	engine, err := scorer.New(sr, sectors)
	if err != nil {
		return nil, err
	}
	return engine.Rank(leads, minScore), nil
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreInput, "input", "i", "-", "JSON file of leads, '-' for stdin")
	scoreCmd.Flags().IntVar(&scoreMinScore, "min-score", 0, "minimum total score to keep")
	rootCmd.AddCommand(scoreCmd)
}
