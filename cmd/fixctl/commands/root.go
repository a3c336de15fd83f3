// Package commands implements the fixctl CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version is injected at build time.
	Version = "dev"

	configPath    string
	gatewaySection string
)

var rootCmd = &cobra.Command{
	Use:           "fixctl",
	Short:         "fixctl drives a client-side FIX session engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the gateway config file")
	rootCmd.PersistentFlags().StringVar(&gatewaySection, "gateway", "primary", "named gateway section to load")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
