package booking

import "fmt"

type Outcome int

const (
	Failed Outcome = iota
	Success
	Neutral
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failed:
		return "failed"
	case Neutral:
		return "neutral"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ParseOutcome is the inverse of String, used when reading run history.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "success":
		return Success, nil
	case "failed":
		return Failed, nil
	case "neutral":
		return Neutral, nil
	}
	return Failed, fmt.Errorf("unknown outcome %q", s)
}

type Reason string

const (
	ReasonBooked              Reason = "booked"
	ReasonWaitlisted          Reason = "waitlisted"
	ReasonNoClassConfigured   Reason = "no class configured"
	ReasonNoClassesFound      Reason = "no classes found"
	ReasonClassNotPresent     Reason = "class not present on this day"
	ReasonAttemptsExhausted   Reason = "no preference could be booked"
	ReasonBookingWindowTooFar Reason = "booking window not open yet"
	ReasonDailyLimitReached   Reason = "daily booking limit reached"
	ReasonLoginRejected       Reason = "login rejected"
	ReasonAlreadyBooked       Reason = "already booked today"
	ReasonSessionError        Reason = "browser session failed"
)

type VerdictKind int

const (
	WaitlistOffered VerdictKind = iota + 1
	BookingConfirmedNoDialog
	CancelAborted
	ClassFull
	BookingWindowTooFar
	DailyLimitReached
	UnrecognizedAlert
	UnrecognizedError
	LoginRejected
)

var verdictNames = map[VerdictKind]string{
	WaitlistOffered:          "waitlist offered",
	BookingConfirmedNoDialog: "booking confirmed",
	CancelAborted:            "cancel aborted",
	ClassFull:                "class full",
	BookingWindowTooFar:      "booking window too far",
	DailyLimitReached:        "daily limit reached",
	UnrecognizedAlert:        "unrecognized alert",
	UnrecognizedError:        "unrecognized error",
	LoginRejected:            "login rejected",
}

func (k VerdictKind) String() string {
	if s, ok := verdictNames[k]; ok {
		return s
	}
	return fmt.Sprintf("verdict(%d)", int(k))
}

// Verdict is the classification of what the page showed after an action.
// Text is the verbatim alert or error text, if any.
type Verdict struct {
	Kind           VerdictKind
	Text           string
	WaitlistJoined bool
}

// Terminal reports whether the session stops iterating preferences.
func (v Verdict) Terminal() bool {
	switch v.Kind {
	case WaitlistOffered:
		return v.WaitlistJoined
	case BookingConfirmedNoDialog, BookingWindowTooFar, DailyLimitReached, LoginRejected:
		return true
	}
	return false
}

// Outcome is meaningful for terminal verdicts only.
func (v Verdict) Outcome() Outcome {
	switch v.Kind {
	case WaitlistOffered, BookingConfirmedNoDialog:
		return Success
	}
	return Failed
}

// Reason is meaningful for terminal verdicts only.
func (v Verdict) Reason() Reason {
	switch v.Kind {
	case WaitlistOffered:
		return ReasonWaitlisted
	case BookingConfirmedNoDialog:
		return ReasonBooked
	case BookingWindowTooFar:
		return ReasonBookingWindowTooFar
	case DailyLimitReached:
		return ReasonDailyLimitReached
	case LoginRejected:
		return ReasonLoginRejected
	}
	return ReasonAttemptsExhausted
}
