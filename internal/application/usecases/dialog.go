package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seblum/octiv-booker/internal/domain/booking"
	"github.com/seblum/octiv-booker/internal/domain/locator"
)

var (
	waitlistPhrases    = []string{"waiting list", "warteliste"}
	cancelPhrases      = []string{"wirklich", "stornieren"}
	loginRejectPhrases = []string{"credentials", "fehler"}

	// Checked in order; the first match wins.
	errorPhrases = []struct {
		phrase string
		kind   booking.VerdictKind
	}{
		{"cannot book this far in advance", booking.BookingWindowTooFar},
		{"maximum bookings per day", booking.DailyLimitReached},
		{"fully booked", booking.ClassFull},
	}
)

const defaultDialogTimeout = 3 * time.Second

// DialogClassifier turns whatever the page shows after a click into a
// verdict. Native alerts are drained before the DOM is queried again.
type DialogClassifier struct {
	Catalog      locator.Catalog
	AlertTimeout time.Duration
	ErrorTimeout time.Duration
	Logger       *zap.Logger
}

func (d DialogClassifier) log() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func orDefault(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

// AfterClick classifies the page state following a slot click. A waitlist
// offer is accepted only when prioritizeWaitingList is set.
func (d DialogClassifier) AfterClick(ctx context.Context, page booking.Page, prioritizeWaitingList bool) (booking.Verdict, error) {
	log := d.log()

	alert, ok, err := page.WaitForAlert(ctx, orDefault(d.AlertTimeout, defaultDialogTimeout))
	if err != nil {
		return booking.Verdict{}, fmt.Errorf("wait for alert: %w", err)
	}
	if ok {
		return d.resolveAlert(ctx, alert, prioritizeWaitingList)
	}

	if _, ok, err := page.WaitFor(ctx, d.Catalog.ErrorWindow(), orDefault(d.ErrorTimeout, defaultDialogTimeout)); err != nil {
		return booking.Verdict{}, fmt.Errorf("wait for error window: %w", err)
	} else if ok {
		text, _, err := page.Text(ctx, d.Catalog.ErrorText())
		if err != nil {
			return booking.Verdict{}, fmt.Errorf("read error text: %w", err)
		}
		v := ClassifyError(text)
		if v.Kind == booking.UnrecognizedError {
			log.Warn("unrecognized error panel", zap.String("text", text))
		} else {
			log.Info("error panel", zap.Stringer("verdict", v.Kind), zap.String("text", text))
		}
		return v, nil
	}

	return booking.Verdict{Kind: booking.BookingConfirmedNoDialog}, nil
}

func (d DialogClassifier) resolveAlert(ctx context.Context, alert booking.Alert, prioritizeWaitingList bool) (booking.Verdict, error) {
	log := d.log()
	text := alert.Text()

	switch {
	case containsAny(text, waitlistPhrases):
		v := booking.Verdict{Kind: booking.WaitlistOffered, Text: text}
		if prioritizeWaitingList {
			if err := alert.Accept(ctx); err != nil {
				return booking.Verdict{}, fmt.Errorf("accept waitlist: %w", err)
			}
			log.Info("class full, joined waiting list")
			v.WaitlistJoined = true
			return v, nil
		}
		if err := alert.Dismiss(ctx); err != nil {
			return booking.Verdict{}, fmt.Errorf("dismiss waitlist: %w", err)
		}
		log.Info("class full, skipping waiting list")
		return v, nil

	case containsAny(text, cancelPhrases):
		if err := alert.Dismiss(ctx); err != nil {
			return booking.Verdict{}, fmt.Errorf("dismiss cancel prompt: %w", err)
		}
		log.Warn("aborted cancel prompt")
		return booking.Verdict{Kind: booking.CancelAborted, Text: text}, nil
	}

	// an open dialog blocks the page, so unknown ones are dismissed too
	if err := alert.Dismiss(ctx); err != nil {
		return booking.Verdict{}, fmt.Errorf("dismiss alert: %w", err)
	}
	log.Warn("unrecognized alert", zap.String("text", text))
	return booking.Verdict{Kind: booking.UnrecognizedAlert, Text: text}, nil
}

// AfterLogin reports a LoginRejected verdict when the login error box shows
// a credentials message. Other text in the box is logged and ignored.
func (d DialogClassifier) AfterLogin(ctx context.Context, page booking.Page) (booking.Verdict, bool, error) {
	_, ok, err := page.WaitFor(ctx, d.Catalog.LoginError(), orDefault(d.ErrorTimeout, defaultDialogTimeout))
	if err != nil {
		return booking.Verdict{}, false, fmt.Errorf("wait for login error: %w", err)
	}
	if !ok {
		return booking.Verdict{}, false, nil
	}
	text, _, err := page.Text(ctx, d.Catalog.LoginError())
	if err != nil {
		return booking.Verdict{}, false, fmt.Errorf("read login error: %w", err)
	}
	if containsAny(text, loginRejectPhrases) {
		d.log().Error("login rejected", zap.String("text", text))
		return booking.Verdict{Kind: booking.LoginRejected, Text: text}, true, nil
	}
	if strings.TrimSpace(text) != "" {
		d.log().Warn("unrecognized login message", zap.String("text", text))
	}
	return booking.Verdict{}, false, nil
}

// ClassifyError maps inline error panel text to a verdict.
func ClassifyError(text string) booking.Verdict {
	norm := normalize(text)
	for _, e := range errorPhrases {
		if strings.Contains(norm, e.phrase) {
			return booking.Verdict{Kind: e.kind, Text: text}
		}
	}
	return booking.Verdict{Kind: booking.UnrecognizedError, Text: text}
}

func containsAny(text string, phrases []string) bool {
	norm := normalize(text)
	for _, p := range phrases {
		if strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

// normalize lowercases and collapses runs of whitespace to one space.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
