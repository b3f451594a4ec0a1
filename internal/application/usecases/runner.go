package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seblum/octiv-booker/internal/domain/booking"
	"github.com/seblum/octiv-booker/internal/domain/calendar"
	"github.com/seblum/octiv-booker/internal/domain/user"
	"github.com/seblum/octiv-booker/internal/internaltypes"
)

// Guard keeps two processes from booking the same account and day at once.
type Guard interface {
	Acquire(ctx context.Context, account string, day string) (release func(context.Context) error, err error)
	AlreadyBooked(ctx context.Context, account string, day string) (bool, error)
	MarkBooked(ctx context.Context, account string, day string) error
}

type RunStore interface {
	Save(ctx context.Context, run booking.Run) error
}

type Notifier interface {
	Notify(ctx context.Context, run booking.Run) error
}

const DefaultRetries = 3

// Runner executes whole sessions with retries, each on a fresh page. Guard,
// Store and Notifier are optional.
type Runner struct {
	Pages     booking.PageFactory
	Session   SessionConfig
	ClassDict booking.ClassDict
	Retries   int
	Guard     Guard
	Store     RunStore
	Notifier  Notifier
	LogPath   string
	Logger    *zap.Logger
}

// Run books for creds. The returned run always carries a terminal result;
// the error is set when every attempt failed on the driver side or the
// guard refused the run.
func (r Runner) Run(ctx context.Context, creds user.SiteCredentials) (booking.Run, error) {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := r.Session.Trigger.clock()
	now := clock.Now()
	target := calendar.Resolve(now, r.Session.DaysBeforeBookable)
	day := target.Date.Format("2006-01-02")

	run := booking.Run{
		ID:         uuid.NewString(),
		Account:    creds.Username,
		StartedAt:  now,
		TargetDate: target.Date,
		Weekday:    target.Weekday,
		Action:     r.Session.Action,
		LogPath:    r.LogPath,
	}
	log = log.With(zap.String("run_id", run.ID), zap.String("day", day))

	if r.Guard != nil {
		if r.Session.Action != booking.Cancel {
			booked, err := r.Guard.AlreadyBooked(ctx, creds.Username, day)
			if err != nil {
				log.Warn("run guard lookup failed", zap.Error(err))
			} else if booked {
				log.Info("already booked for this day, skipping")
				run.Result = booking.Result{Outcome: booking.Neutral, Reason: booking.ReasonAlreadyBooked}
				run.FinishedAt = clock.Now()
				return run, nil
			}
		}
		release, err := r.Guard.Acquire(ctx, creds.Username, day)
		if err != nil {
			return run, fmt.Errorf("acquire run guard: %w", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("release run guard", zap.Error(err))
			}
		}()
	}

	retries := r.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		run.Attempts = attempt
		res, err := r.attempt(ctx, creds, log.With(zap.Int("attempt", attempt)))
		if err == nil {
			run.Result = res
			lastErr = nil
			break
		}
		lastErr = err
		log.Warn("session attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	run.FinishedAt = clock.Now()

	if lastErr != nil {
		run.Result = booking.Result{Outcome: booking.Failed, Reason: booking.ReasonSessionError}
		run.Error = lastErr.Error()
	}
	log.Info("run finished",
		zap.Stringer("outcome", run.Result.Outcome),
		zap.String("reason", string(run.Result.Reason)),
		zap.String("class", run.Result.ClassName),
		zap.String("time", run.Result.TimeSlot))

	if run.Result.Outcome == booking.Success && r.Guard != nil && r.Session.Action != booking.Cancel {
		if err := r.Guard.MarkBooked(ctx, creds.Username, day); err != nil {
			log.Warn("mark booked", zap.Error(err))
		}
	}
	r.report(ctx, run, log)

	if lastErr != nil {
		return run, fmt.Errorf("all %d attempts failed: %w", run.Attempts, lastErr)
	}
	return run, nil
}

func (r Runner) attempt(ctx context.Context, creds user.SiteCredentials, log *zap.Logger) (booking.Result, error) {
	if r.Pages == nil {
		return booking.Result{}, errors.New("no page factory configured")
	}
	page, err := r.Pages.Open(ctx)
	if err != nil {
		return booking.Result{}, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("close page", zap.Error(err))
		}
	}()
	return NewSession(page, r.Session, log).Run(ctx, creds, r.ClassDict)
}

func (r Runner) report(ctx context.Context, run booking.Run, log *zap.Logger) {
	ctx = context.WithoutCancel(ctx)
	if r.Store != nil {
		if err := r.Store.Save(ctx, run); err != nil {
			log.Error("save run", zap.Error(err))
		}
	}
	if r.Notifier != nil {
		if err := r.Notifier.Notify(ctx, run); err != nil {
			log.Error("send notification", zap.Error(err))
		}
	}
}

// IsLocked reports whether err came from a run guard held elsewhere.
func IsLocked(err error) bool { return errors.Is(err, internaltypes.ErrLocked) }
