// Package httpd implements the HTTP API server command.
package httpd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/goscreener/cmd/common"
	"github.com/jonesrussell/goscreener/internal/api"
	"github.com/jonesrussell/goscreener/internal/database"
)

// Command returns the httpd command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Serve the crawl API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := common.BuildLogger(cmd, cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var runner api.Runner = common.BuildExecutor(cfg, log)
			var history *database.ExecutionRepository

			if cfg.Database.Enabled {
				db, err := database.Connect(ctx, database.Config{
					Host:     cfg.Database.Host,
					Port:     cfg.Database.Port,
					User:     cfg.Database.User,
					Password: cfg.Database.Password,
					DBName:   cfg.Database.DBName,
					SSLMode:  cfg.Database.SSLMode,
				})
				if err != nil {
					return err
				}
				defer db.Close()

				history = database.NewExecutionRepository(db)
				runner = api.NewRecordingRunner(runner, history, log)
				log.Info("execution history enabled", "host", cfg.Database.Host)
			}

			registry := api.NewRegistry()
			pool := api.NewPool(runner, registry, log)
			handler := api.NewHandler(runner, registry, pool, log)
			if history != nil {
				handler.SetHistory(history)
			}

			server := api.NewServer(api.ServerConfig{
				Address:      cfg.Server.Address,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				Debug:        cfg.App.Debug,
			}, handler, pool, log)

			return server.Start(ctx)
		},
	}
}
