package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/model"
)

var (
	runSector      string
	runRegion      string
	runMinScore    int
	runMaxLeads    int
	runSources     []string
	runSkipWebsite bool
	runSkipSocial  bool
	runSkipAI      bool
	runOutput      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, filter, enrich and rank leads for a sector and region",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("run"); err != nil {
			return err
		}
		ctx := cmd.Context()

		params, err := runParams(cmd, cfg.Pipeline)
		if err != nil {
			return err
		}

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Pipeline.Run(ctx, params)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.String("run_id", result.RunID),
			zap.Int("leads", len(result.Leads)),
			zap.Int("high_quality", result.Stats.HighQualityLeads),
			zap.Float64("inference_cost_usd", a.Inference.Stats().EstimatedCostUSD),
		)

		out := io.Writer(os.Stdout)
		if runOutput != "" {
			f, err := os.Create(runOutput)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return writeJSON(out, result)
	},
}

// runParams merges flags over the configured defaults. Flags left unset
// keep the config value.
func runParams(cmd *cobra.Command, defaults config.PipelineConfig) (model.RunParams, error) {
	p := model.RunParams{
		Sector:      defaults.Sector,
		Region:      defaults.Region,
		MinScore:    defaults.MinScore,
		MaxLeads:    defaults.MaxLeads,
		SkipWebsite: runSkipWebsite,
		SkipSocial:  runSkipSocial,
		SkipAI:      runSkipAI,
	}
	if cmd.Flags().Changed("sector") {
		p.Sector = runSector
	}
	if cmd.Flags().Changed("region") {
		p.Region = runRegion
	}
	if cmd.Flags().Changed("min-score") {
		p.MinScore = runMinScore
	}
	if cmd.Flags().Changed("max-leads") {
		p.MaxLeads = runMaxLeads
	}
	sources, err := parseSources(runSources)
	if err != nil {
		return p, err
	}
	p.Sources = sources
	return p, nil
}

// parseSources validates source names. An empty list means every
// configured source.
func parseSources(names []string) ([]model.Source, error) {
	known := make(map[model.Source]bool)
	for _, s := range model.AllSources() {
		known[s] = true
	}
	var out []model.Source
	for _, n := range names {
		s := model.Source(strings.ToLower(strings.TrimSpace(n)))
		if s == "" {
			continue
		}
		if !known[s] {
			return nil, eris.Errorf("unknown source %q", n)
		}
		out = append(out, s)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	runCmd.Flags().StringVar(&runSector, "sector", "", "target sector (default from config)")
	runCmd.Flags().StringVar(&runRegion, "region", "", "target region (default from config)")
	runCmd.Flags().IntVar(&runMinScore, "min-score", 0, "minimum total score to retain (default from config)")
	runCmd.Flags().IntVar(&runMaxLeads, "max-leads", 0, "maximum leads to return (default from config)")
	runCmd.Flags().StringSliceVar(&runSources, "sources", nil, "comma-separated sources to query (default: all configured)")
	runCmd.Flags().BoolVar(&runSkipWebsite, "skip-website", false, "skip website analysis")
	runCmd.Flags().BoolVar(&runSkipSocial, "skip-social", false, "skip social analysis")
	runCmd.Flags().BoolVar(&runSkipAI, "skip-ai", false, "skip model analysis")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write the result JSON to a file instead of stdout")
	rootCmd.AddCommand(runCmd)
}
