// Package scheduler implements the scheduled recrawl command.
package scheduler

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/goscreener/cmd/common"
	"github.com/jonesrussell/goscreener/internal/scheduler"
)

// Command returns the scheduler command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run configured region crawls on their cron schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := common.BuildLogger(cmd, cfg)
			if err != nil {
				return err
			}

			if len(cfg.Schedules) == 0 {
				return fmt.Errorf("no schedules configured")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			executor := common.BuildExecutor(cfg, log)
			manager := scheduler.New(executor, log)

			for _, s := range cfg.Schedules {
				params := common.ParamsFromConfig(cfg, s.Region)
				if s.Out != "" {
					params.OutputPath = s.Out
				}
				if s.MaxPages > 0 {
					params.MaxPages = s.MaxPages
				}
				params.UseCache = s.UseCache

				if err := manager.Add(ctx, scheduler.Entry{Cron: s.Cron, Params: params}); err != nil {
					return fmt.Errorf("register schedule for %s: %w", s.Region, err)
				}
			}

			manager.Start()
			log.Info("scheduler running", "schedules", len(cfg.Schedules))

			<-ctx.Done()
			log.Info("scheduler stopping")
			manager.Stop()
			return nil
		},
	}
}
