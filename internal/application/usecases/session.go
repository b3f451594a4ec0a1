package usecases

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seblum/octiv-booker/internal/domain/booking"
	"github.com/seblum/octiv-booker/internal/domain/calendar"
	"github.com/seblum/octiv-booker/internal/domain/locator"
	"github.com/seblum/octiv-booker/internal/domain/user"
)

type SessionConfig struct {
	BaseURL            string
	DaysBeforeBookable int
	Action             booking.Action
	Trigger            Trigger
	Catalog            locator.Catalog
	AlertTimeout       time.Duration
	ErrorTimeout       time.Duration
	TimetableTimeout   time.Duration
}

// Session drives one page through login, day selection and booking. It is
// single use: create a new one per attempt.
type Session struct {
	page    booking.Page
	cfg     SessionConfig
	slots   SlotIndexBuilder
	dialogs DialogClassifier
	log     *zap.Logger
	state   booking.SessionState
}

func NewSession(page booking.Page, cfg SessionConfig, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Action == 0 {
		cfg.Action = booking.Enter
	}
	return &Session{
		page:  page,
		cfg:   cfg,
		slots: SlotIndexBuilder{Catalog: cfg.Catalog, Timeout: cfg.TimetableTimeout, Logger: log},
		dialogs: DialogClassifier{
			Catalog:      cfg.Catalog,
			AlertTimeout: cfg.AlertTimeout,
			ErrorTimeout: cfg.ErrorTimeout,
			Logger:       log,
		},
		log: log,
	}
}

func (s *Session) now() time.Time { return s.cfg.Trigger.clock().Now() }

func (s *Session) State() booking.SessionState { return s.state }

// Login signs in. It returns false when the site rejected the credentials.
func (s *Session) Login(ctx context.Context, username, password string) (bool, error) {
	c := s.cfg.Catalog
	if err := s.page.Navigate(ctx, s.cfg.BaseURL); err != nil {
		return false, fmt.Errorf("open %s: %w", s.cfg.BaseURL, err)
	}
	if err := s.page.Type(ctx, c.LoginUsernameInput(), username); err != nil {
		return false, fmt.Errorf("type username: %w", err)
	}
	if err := s.page.Click(ctx, c.LoginUsernameSubmit()); err != nil {
		return false, fmt.Errorf("submit username: %w", err)
	}
	if err := s.page.Type(ctx, c.LoginPasswordInput(), password); err != nil {
		return false, fmt.Errorf("type password: %w", err)
	}
	if err := s.page.Click(ctx, c.LoginTerms()); err != nil {
		return false, fmt.Errorf("accept terms: %w", err)
	}
	if err := s.page.Click(ctx, c.LoginPasswordSubmit()); err != nil {
		return false, fmt.Errorf("submit password: %w", err)
	}

	if _, rejected, err := s.dialogs.AfterLogin(ctx, s.page); err != nil {
		return false, err
	} else if rejected {
		return false, nil
	}
	s.state.LoggedIn = true
	s.log.Info("logged in", zap.String("user", username))
	return true, nil
}

// SwitchDay moves the booking page to the target day. Failures are fatal to
// the session.
func (s *Session) SwitchDay(ctx context.Context) (calendar.Target, error) {
	target := calendar.Resolve(s.now(), s.cfg.DaysBeforeBookable)
	for i := 0; i < target.WeekAdvances; i++ {
		if err := s.page.Click(ctx, s.cfg.Catalog.NextWeek()); err != nil {
			return calendar.Target{}, fmt.Errorf("advance week %d/%d: %w", i+1, target.WeekAdvances, err)
		}
	}
	if err := s.page.Click(ctx, s.cfg.Catalog.DaySelector(target.Weekday)); err != nil {
		return calendar.Target{}, fmt.Errorf("select %s: %w", target.Weekday, err)
	}
	s.state.Weekday = target.Weekday
	s.state.TargetDate = target.Date
	s.state.CurrentDay = target.FormatDate()
	s.log.Info("switched day",
		zap.String("date", s.state.CurrentDay),
		zap.Int("week_advances", target.WeekAdvances))
	return target, nil
}

// BookClass walks prefs in order until one attempt reaches a terminal
// verdict. Errors are driver failures only; everything the site answers
// ends up in the returned result.
func (s *Session) BookClass(ctx context.Context, prefs []booking.Preference, action booking.Action) (booking.Result, error) {
	if len(prefs) == 0 || prefs[0].IsNoClass() {
		s.log.Info("no class set for this day")
		return s.state.Finish(booking.Neutral, booking.ReasonNoClassConfigured), nil
	}

	index, err := s.slots.Build(ctx, s.page, booking.ClassNames(prefs), action)
	if err != nil {
		return booking.Result{}, err
	}
	if index.Empty() {
		s.log.Info("no classes found for this day")
		return s.state.Finish(booking.Failed, booking.ReasonNoClassesFound), nil
	}

	found := false
	for _, p := range prefs {
		s.state.Record(p)
		log := s.log.With(zap.String("class", p.ClassName), zap.String("time", p.Time))

		slot, ok := index.Lookup(p.ClassName, p.Time)
		if !ok {
			log.Info("class not present")
			continue
		}
		found = true

		log.Info("booking", zap.Stringer("action", action))
		if err := s.cfg.Trigger.Click(ctx, s.page, slot.Control, log); err != nil {
			return booking.Result{}, err
		}
		v, err := s.dialogs.AfterClick(ctx, s.page, p.PrioritizeWaitingList)
		if err != nil {
			return booking.Result{}, err
		}
		if v.Terminal() {
			log.Info("booking finished", zap.Stringer("verdict", v.Kind))
			return s.state.Finish(v.Outcome(), v.Reason()), nil
		}
		log.Info("trying next preference", zap.Stringer("verdict", v.Kind))
	}

	if !found {
		return s.state.Finish(booking.Failed, booking.ReasonClassNotPresent), nil
	}
	return s.state.Finish(booking.Failed, booking.ReasonAttemptsExhausted), nil
}

// Run logs in, selects the target day and books from that weekday's
// preferences.
func (s *Session) Run(ctx context.Context, creds user.SiteCredentials, classDict booking.ClassDict) (booking.Result, error) {
	ok, err := s.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return booking.Result{}, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return s.state.Finish(booking.Failed, booking.ReasonLoginRejected), nil
	}
	target, err := s.SwitchDay(ctx)
	if err != nil {
		return booking.Result{}, fmt.Errorf("switch day: %w", err)
	}
	return s.BookClass(ctx, classDict[target.Weekday], s.cfg.Action)
}
