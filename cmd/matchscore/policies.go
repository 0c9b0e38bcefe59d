package main

import (
	"fmt"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List the built-in scoring policies",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		d := matching.DefaultConfig()

		for _, p := range []scoring.Policy{scoring.JudgedPolicy(), scoring.AttributePolicy()} {
			fmt.Fprintf(out, "%s\n", cyan(p.Name))
			fmt.Fprintf(out, "  time      %.2f\n", p.TimeWeight)
			fmt.Fprintf(out, "  distance  %.2f\n", p.DistanceWeight)
			fmt.Fprintf(out, "  text      %.2f\n", p.TextWeight)
			fmt.Fprintf(out, "  category  %.2f\n", p.CategoryWeight)
			fmt.Fprintf(out, "  late window %s\n", p.LateReportWindow)
		}
		fmt.Fprintf(out, "\nauto-match >= %.0f, potential > %.0f\n", d.AutoMatchThreshold, d.ExploratoryThreshold)
	},
}

func init() {
	rootCmd.AddCommand(policiesCmd)
}
