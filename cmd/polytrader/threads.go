package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polytrader/polytrader/internal/cli"
)

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "Inspect and resume persisted threads",
	Long: `Works against the configured checkpoint store. With in-memory
durability there is nothing to inspect; enable Redis in the config to keep
threads across invocations.`,
}

var threadsHistoryCmd = &cobra.Command{
	Use:   "history <thread-id>",
	Short: "Print a thread's checkpoint history",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		engine, err := cli.BuildEngine(cfg, logger, cli.BuildOptions{})
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		history, err := engine.History(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if len(history) == 0 {
			fmt.Println("No checkpoints for thread.")
			return
		}
		for _, cp := range history {
			state, _ := json.Marshal(cp.State)
			fmt.Printf("%s  position=%s  step=%d\n  %s\n", cp.SavedAt.Format("2006-01-02 15:04:05"), cp.Position, cp.State.LoopStep, state)
		}
	},
}

var threadsResumeCmd = &cobra.Command{
	Use:   "resume <thread-id>",
	Short: "Resume a thread from its latest checkpoint",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		jsonMode, _ := cmd.Flags().GetBool("json")

		engine, err := cli.BuildEngine(cfg, logger, cli.BuildOptions{})
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		opts := cli.SessionOptions{JSON: jsonMode}
		if err := cli.ResumeSession(cmd.Context(), engine, args[0], opts, os.Stdin, os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(threadsCmd)
	threadsCmd.AddCommand(threadsHistoryCmd)
	threadsCmd.AddCommand(threadsResumeCmd)

	threadsResumeCmd.Flags().Bool("json", false, "Emit raw NDJSON events")
}
