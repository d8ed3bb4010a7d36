package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "orchardctl",
	Short: "Run and manage the orchard tree service",
	Long: `orchardctl runs the orchard HTTP server and manages its database.

Configuration is read from $ORCHARD_CONFIG_PATH/orchard.yml and ORCHARD_*
environment variables. See "orchardctl configuration show".`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
