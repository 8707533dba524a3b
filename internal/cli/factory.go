// Package cli holds the command implementations behind cmd/polytrader:
// engine assembly from configuration and the interactive run session.
package cli

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"

	"github.com/polytrader/polytrader"
	"github.com/polytrader/polytrader/internal/config"
	"github.com/polytrader/polytrader/internal/gamma"
	redisadapter "github.com/polytrader/polytrader/pkg/adapters/redis"
	"github.com/polytrader/polytrader/pkg/collaborators"
	"github.com/polytrader/polytrader/pkg/nodes"
	"github.com/polytrader/polytrader/pkg/observability"
)

// BuildOptions tune engine assembly beyond what the config file carries.
type BuildOptions struct {
	// AutoApprove skips the analysis confirmation interrupt.
	AutoApprove bool
	// Registry receives the engine metrics; nil means the Prometheus
	// default registry.
	Registry prometheus.Registerer
}

// BuildEngine assembles the engine from configuration: Gamma market data,
// baseline collaborators, and either in-memory or Redis-backed durability.
func BuildEngine(cfg *config.Config, logger *slog.Logger, opts BuildOptions) (*polytrader.Engine, error) {
	client := gamma.New(
		gamma.WithBaseURL(cfg.Gamma.BaseURL),
		gamma.WithLogger(logger),
	)

	var analysisOpts []nodes.AnalysisOption
	if opts.AutoApprove {
		analysisOpts = append(analysisOpts, nodes.WithAutoApprove())
	}
	pipeline := nodes.DefaultPipeline(
		client,
		collaborators.Researcher{},
		collaborators.Analyst{},
		collaborators.NewTrader(),
		analysisOpts...,
	)

	engineOpts := []polytrader.Option{
		polytrader.WithLogger(logger),
		polytrader.WithLifecycleHooks(observability.NewMetrics(opts.Registry).Hooks()),
	}
	if cfg.Redis.Enabled {
		rdb := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		engineOpts = append(engineOpts,
			polytrader.WithCheckpointer(redisadapter.NewFromClient(rdb)),
			polytrader.WithLocker(redisadapter.NewLocker(rdb, "polytrader")),
		)
		logger.Info("using redis durability", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	}

	return polytrader.New(pipeline, engineOpts...)
}
