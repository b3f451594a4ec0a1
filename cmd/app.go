package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/seblum/octiv-booker/internal/application/usecases"
	"github.com/seblum/octiv-booker/internal/infrastructure/browser"
	"github.com/seblum/octiv-booker/internal/infrastructure/config"
	"github.com/seblum/octiv-booker/internal/infrastructure/crypto"
	"github.com/seblum/octiv-booker/internal/infrastructure/logging"
	"github.com/seblum/octiv-booker/internal/infrastructure/mail"
	"github.com/seblum/octiv-booker/internal/infrastructure/postgres"
	"github.com/seblum/octiv-booker/internal/infrastructure/redislock"
)

func loadConfig(rf *rootFlags, flags *pflag.FlagSet) (config.Config, error) {
	return config.Load(config.Options{File: rf.configFile, EnvFile: rf.envFile, Flags: flags})
}

// runLogger builds a logger writing to a fresh per-run file in cfg.LogDir.
func runLogger(cfg config.Config) (*zap.Logger, string, error) {
	return logging.New(logging.Options{Env: cfg.Env, Level: cfg.LogLevel, Dir: cfg.LogDir})
}

func processLogger(cfg config.Config) (*zap.Logger, error) {
	log, _, err := logging.New(logging.Options{Env: cfg.Env, Level: cfg.LogLevel})
	return log, err
}

// deps are the optional backing services. Fields stay nil when the
// service is not configured.
type deps struct {
	pool  *pgxpool.Pool
	guard usecases.Guard
	store usecases.RunStore
	creds usecases.CredentialsService
	runs  *postgres.RunRepo
	users *postgres.UserRepo

	closers []func()
}

func openDeps(ctx context.Context, cfg config.Config, log *zap.Logger) (*deps, error) {
	d := &deps{guard: redislock.Noop{}}

	if cfg.DatabaseURL != "" {
		pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)
		if err := postgres.Migrate(ctx, pool); err != nil {
			d.Close()
			return nil, err
		}
		d.pool = pool
		d.runs = postgres.NewRunRepo(pool)
		d.users = postgres.NewUserRepo(pool)
		d.store = d.runs
		d.creds.Store = postgres.NewCredentialRepo(pool)
		if len(cfg.CredEncKey) > 0 {
			aead, err := crypto.New(cfg.CredEncKey)
			if err != nil {
				d.Close()
				return nil, err
			}
			d.creds.AEAD = aead
		}
	}

	if cfg.RedisURL != "" {
		g, err := redislock.New(ctx, cfg.RedisURL)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.closers = append(d.closers, func() { _ = g.Close() })
		d.guard = g
	} else {
		log.Debug("REDIS_URL not set, runs are not guarded across processes")
	}
	return d, nil
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

func (d *deps) requireDB() error {
	if d.pool == nil {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// newRunner assembles a booking runner for one run; log and logPath belong
// to that run.
func newRunner(cfg config.Config, d *deps, log *zap.Logger, logPath string) (usecases.Runner, error) {
	trigger, err := usecases.ParseExecutionTime(cfg.ExecutionBookingTime)
	if err != nil {
		return usecases.Runner{}, err
	}
	return usecases.Runner{
		Pages: browser.NewFactory(browser.Options{
			Headless:   cfg.Headless,
			ChromePath: cfg.ChromePath,
			RemoteURL:  cfg.ChromeRemoteURL,
			Logger:     log,
		}),
		Session: usecases.SessionConfig{
			BaseURL:            cfg.BaseURL,
			DaysBeforeBookable: cfg.DaysBeforeBookable,
			Action:             cfg.Action(),
			Trigger:            trigger,
			Catalog:            cfg.Locators,
			AlertTimeout:       cfg.AlertTimeout,
			ErrorTimeout:       cfg.ErrorTimeout,
			TimetableTimeout:   cfg.TimetableTimeout,
		},
		ClassDict: cfg.ClassDict,
		Retries:   cfg.Retries,
		Guard:     d.guard,
		Store:     d.store,
		Notifier:  mail.New(cfg.Email, log),
		LogPath:   logPath,
		Logger:    log,
	}, nil
}
