package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seblum/octiv-booker/internal/application/scheduler"
	"github.com/seblum/octiv-booker/internal/application/usecases"
	"github.com/seblum/octiv-booker/internal/interfaces/web"
)

func newServeCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard and the daily booking schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rf, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.RequireDashboard(); err != nil {
				return err
			}
			log, err := processLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := openDeps(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer d.Close()
			if err := d.requireDB(); err != nil {
				return err
			}

			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			tmpl, err := web.ParseTemplates()
			if err != nil {
				return err
			}
			sessions := web.NewSessionManager(cfg.SessionHashKey, cfg.SessionBlockKey, cfg.IsProduction())
			srv := web.New(cfg.HTTPAddr, sessions, usecases.AuthService{Users: d.users}, d.runs, tmpl, log)

			g, ctx := errgroup.WithContext(ctx)
			if cfg.Schedule != "" {
				sched := &scheduler.Scheduler{
					Spec:     cfg.Schedule,
					Location: loc,
					Logger:   log,
					Job: func(ctx context.Context) error {
						run, err := bookOnce(ctx, cfg, d)
						if usecases.IsLocked(err) {
							log.Info("run skipped, day locked by another process")
							return nil
						}
						if err == nil {
							log.Info("scheduled run result",
								zap.String("run_id", run.ID),
								zap.Stringer("outcome", run.Result.Outcome),
								zap.String("reason", string(run.Result.Reason)))
						}
						return err
					},
				}
				srv.Next = sched.Next
				g.Go(func() error { return sched.Run(ctx) })
			} else {
				log.Info("no schedule configured, dashboard only")
			}
			g.Go(func() error { return srv.ListenAndServe(ctx) })

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("http-addr", ":8080", "dashboard listen address")
	cmd.Flags().String("schedule", "58 23 * * *", "cron spec for the booking run; empty disables it")
	return cmd
}
