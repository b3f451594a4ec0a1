package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled booking run.
type Job func(ctx context.Context) error

// Scheduler fires Job on a cron spec. A firing that finds the previous run
// still busy is skipped.
type Scheduler struct {
	Spec     string
	Location *time.Location
	Job      Job
	Logger   *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
	id   cron.EntryID
}

// Parse validates a standard five-field spec or a descriptor like @daily.
func Parse(spec string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return s, nil
}

// NextAfter returns the first firing of spec after from, in loc.
func NextAfter(spec string, loc *time.Location, from time.Time) (time.Time, error) {
	s, err := Parse(spec)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	return s.Next(from.In(loc)), nil
}

// Run blocks until ctx is cancelled, then waits for a running job.
func (s *Scheduler) Run(ctx context.Context) error {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	if _, err := Parse(s.Spec); err != nil {
		return err
	}

	cl := cronLogger{log.Named("cron").Sugar()}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	id, err := c.AddFunc(s.Spec, func() { s.fire(ctx, log) })
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.Spec, err)
	}

	s.mu.Lock()
	s.cron, s.id = c, id
	s.mu.Unlock()

	c.Start()
	log.Info("scheduler started", zap.String("spec", s.Spec), zap.String("tz", loc.String()), zap.Time("next", c.Entry(id).Next))

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("scheduler stopped")
	return ctx.Err()
}

// Next reports the upcoming firing, or zero when not running.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return time.Time{}
	}
	return s.cron.Entry(s.id).Next
}

func (s *Scheduler) fire(ctx context.Context, log *zap.Logger) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	log.Info("scheduled run starting")
	if err := s.Job(ctx); err != nil {
		log.Error("scheduled run failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return
	}
	log.Info("scheduled run done", zap.Duration("took", time.Since(start)))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
