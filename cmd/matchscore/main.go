// Command matchscore scores lost/found report pairs offline so operators can
// compare scoring policies before rolling one out.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "matchscore",
	Short:        "Score lost/found report pairs offline",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
