package main

import (
	"fmt"

	"github.com/polytrader/polytrader"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of polytrader",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("polytrader version %s\n", polytrader.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
