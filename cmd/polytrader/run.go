package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polytrader/polytrader/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <market-id>",
	Short: "Run the decision pipeline for one market",
	Long: `Runs the full pipeline for a market in the terminal, pausing for
confirmation before the trade decision unless --auto-approve is set.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		autoApprove, _ := cmd.Flags().GetBool("auto-approve")
		jsonMode, _ := cmd.Flags().GetBool("json")

		engine, err := cli.BuildEngine(cfg, logger, cli.BuildOptions{AutoApprove: autoApprove})
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		opts := cli.SessionOptions{MarketID: args[0], JSON: jsonMode}
		if err := cli.RunSession(cmd.Context(), engine, opts, os.Stdin, os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("auto-approve", false, "Skip the trade confirmation prompt")
	runCmd.Flags().Bool("json", false, "Emit raw NDJSON events")
}
