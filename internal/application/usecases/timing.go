package usecases

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seblum/octiv-booker/internal/domain/booking"
	"github.com/seblum/octiv-booker/internal/domain/locator"
	"github.com/seblum/octiv-booker/internal/internaltypes"
)

const DefaultPoll = time.Millisecond

type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

// Trigger fires a click at a time of day. A zero offset fires at once.
// Precision is bounded by Poll; the site's booking windows open on whole
// seconds.
type Trigger struct {
	At    time.Duration // offset from local midnight
	Poll  time.Duration
	Clock Clock
}

// ParseExecutionTime parses "HH:MM:SS.ffffff". The fraction is optional.
func ParseExecutionTime(s string) (Trigger, error) {
	if s == "" {
		return Trigger{}, nil
	}
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return Trigger{}, fmt.Errorf("%w: %q", internaltypes.ErrInvalidExecutionTime, s)
	}
	at := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	return Trigger{At: at}, nil
}

func (t Trigger) Immediate() bool { return t.At == 0 }

func (t Trigger) clock() Clock {
	if t.Clock == nil {
		return SystemClock
	}
	return t.Clock
}

// Instant is the moment on now's calendar day the trigger fires.
func (t Trigger) Instant(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Add(t.At)
}

// Wait blocks until the trigger instant has passed on the current day. An
// instant already in the past returns at once.
func (t Trigger) Wait(ctx context.Context) error {
	if t.Immediate() {
		return nil
	}
	c := t.clock()
	poll := t.Poll
	if poll <= 0 {
		poll = DefaultPoll
	}
	deadline := t.Instant(c.Now())
	for c.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.Sleep(poll)
	}
	return nil
}

// Click waits for the trigger and force-clicks loc.
func (t Trigger) Click(ctx context.Context, page booking.Page, loc locator.Locator, log *zap.Logger) error {
	if err := t.Wait(ctx); err != nil {
		return fmt.Errorf("wait for execution time: %w", err)
	}
	c := t.clock()
	start := c.Now()
	if err := page.ForceClick(ctx, loc); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	if log != nil {
		log.Info("clicked",
			zap.Time("started", start),
			zap.Duration("took", c.Now().Sub(start)))
	}
	return nil
}
