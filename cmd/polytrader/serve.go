package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/polytrader/polytrader/internal/cli"
	"github.com/polytrader/polytrader/pkg/adapters/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the engine in server mode, exposing threads and runs over a JSON/SSE API.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.ListenAddr = addr
		}

		engine, err := cli.BuildEngine(cfg, logger, cli.BuildOptions{})
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		srv := &http.Server{
			Addr:    cfg.Server.ListenAddr,
			Handler: httpapi.NewHandler(engine, httpapi.WithLogger(logger)),
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("Starting Polytrader Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Polytrader Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides config)")
}
