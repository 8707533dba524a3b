package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "polytrader",
	Short: "Polytrader is a durable decision pipeline for prediction markets",
	Long: `Polytrader runs a checkpointed market-analysis pipeline
(fetch, research, analysis, trade decision) with human confirmation
before any trade decision is made.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the config file")
}
