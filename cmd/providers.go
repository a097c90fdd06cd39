package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-cli/internal/inference"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List inference providers and why any are unavailable",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newInference(cfg)
		if err != nil {
			return err
		}
		formatProviders(os.Stdout, client.Providers(), client.Unavailable())
		return nil
	},
}

// formatProviders writes the active providers in priority order followed
// by the skipped ones.
func formatProviders(out io.Writer, active []inference.Identity, skipped []inference.Unavailable) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROVIDER\tSTATUS\tDEFAULT MODEL\tRPM\tMODELS")
	_, _ = fmt.Fprintln(w, "--------\t------\t-------------\t---\t------")
	for _, p := range active {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			p.Name, "available", p.DefaultModel, p.RequestsPerMinute, strings.Join(p.Models, ", "))
	}
	for _, u := range skipped {
		_, _ = fmt.Fprintf(w, "%s\t%s\t\t\t\n", u.Name, "unavailable: "+u.Reason)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
