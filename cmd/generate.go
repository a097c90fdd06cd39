package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-cli/internal/inference"
)

var (
	generateModel     string
	generateMaxTokens int
	generateNoCache   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Send a prompt through the inference provider chain",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("generate"); err != nil {
			return err
		}
		client, err := newInference(cfg)
		if err != nil {
			return err
		}

		var opts []inference.Option
		if generateModel != "" {
			opts = append(opts, inference.WithModel(generateModel))
		}
		if generateMaxTokens > 0 {
			opts = append(opts, inference.WithMaxTokens(generateMaxTokens))
		}
		if generateNoCache {
			opts = append(opts, inference.WithoutCache())
		}

		resp := client.Generate(cmd.Context(), strings.Join(args, " "), opts...)
		if err := writeJSON(os.Stdout, resp); err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("generation failed: %s", resp.Error)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateModel, "model", "", "model override for the first provider")
	generateCmd.Flags().IntVar(&generateMaxTokens, "max-tokens", 0, "maximum tokens to generate")
	generateCmd.Flags().BoolVar(&generateNoCache, "no-cache", false, "bypass the response cache")
	rootCmd.AddCommand(generateCmd)
}
