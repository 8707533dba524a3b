package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/polytrader/polytrader/internal/config"
	"github.com/polytrader/polytrader/internal/logging"
)

// loadConfig reads the configuration named by the --config flag and builds
// the application logger from it.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(logging.ParseLevel(cfg.LogLevel)), nil
}
