package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seblum/octiv-booker/internal/application/usecases"
	"github.com/seblum/octiv-booker/internal/domain/booking"
	"github.com/seblum/octiv-booker/internal/infrastructure/config"
)

func newBookCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Log in, wait for the booking window and book today's preferred class",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rf, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			boot, err := processLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = boot.Sync() }()

			d, err := openDeps(ctx, cfg, boot)
			if err != nil {
				return err
			}
			defer d.Close()

			run, err := bookOnce(ctx, cfg, d)
			if usecases.IsLocked(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "another run is already booking this day, skipping")
				return nil
			}
			printRun(cmd.OutOrStdout(), run)
			return err
		},
	}

	f := cmd.Flags()
	f.Int("retries", 3, "session attempts before giving up")
	f.Bool("headless", true, "run Chrome without a window")
	f.Int("days-before-bookable", 0, "book for today plus this many days")
	f.String("execution-booking-time", "00:00:00.000000", "wall-clock time (HH:MM:SS[.ffffff]) to fire the booking click")
	f.Bool("book-class", true, "book (true) or cancel (false)")
	return cmd
}

// bookOnce performs one booking run with its own log file.
func bookOnce(ctx context.Context, cfg config.Config, d *deps) (booking.Run, error) {
	log, logPath, err := runLogger(cfg)
	if err != nil {
		return booking.Run{}, err
	}
	defer func() { _ = log.Sync() }()

	creds, err := d.creds.Resolve(ctx, cfg.Octiv, cfg.CredentialLabel)
	if err != nil {
		return booking.Run{}, err
	}
	log.Info("booking run",
		zap.String("account", creds.Username),
		zap.String("credentials", creds.Label),
		zap.Stringer("action", cfg.Action()),
		zap.Int("days_before_bookable", cfg.DaysBeforeBookable),
		zap.String("execution_time", cfg.ExecutionBookingTime))

	runner, err := newRunner(cfg, d, log, logPath)
	if err != nil {
		return booking.Run{}, err
	}
	return runner.Run(ctx, creds)
}

func printRun(w io.Writer, run booking.Run) {
	if run.ID == "" {
		return
	}
	fmt.Fprintf(w, "%s: %s", run.Result.Outcome, run.Result.Reason)
	if run.Result.ClassName != "" {
		fmt.Fprintf(w, " (%s at %s)", run.Result.ClassName, run.Result.TimeSlot)
	}
	fmt.Fprintf(w, " [run %s, %d attempt(s)]\n", run.ID, run.Attempts)
}
