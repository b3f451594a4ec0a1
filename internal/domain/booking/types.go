package booking

import (
	"time"

	"github.com/seblum/octiv-booker/internal/domain/locator"
)

// NoClass is the class name that marks a day with nothing to book.
const NoClass = "None"

type Action = locator.Action

const (
	Enter  = locator.Enter
	Cancel = locator.Cancel
)

// Preference is one entry of a day's ordered wish list. Earlier entries win.
type Preference struct {
	Time                  string `mapstructure:"time" json:"time"`
	ClassName             string `mapstructure:"class" json:"class"`
	PrioritizeWaitingList bool   `mapstructure:"wl" json:"wl"`
}

func (p Preference) IsNoClass() bool { return p.ClassName == NoClass }

// ClassDict maps a weekday to that day's preferences.
type ClassDict map[time.Weekday][]Preference

// ClassNames returns the set of class names in prefs.
func ClassNames(prefs []Preference) map[string]struct{} {
	out := make(map[string]struct{}, len(prefs))
	for _, p := range prefs {
		out[p.ClassName] = struct{}{}
	}
	return out
}

type DiscoveredSlot struct {
	ClassName string
	Time      string
	Control   locator.Locator
}

// Attempt is one processed preference, in the order the session tried it.
type Attempt struct {
	Time  string `json:"time"`
	Class string `json:"class"`
}

type Info struct {
	CurrentDate string
	Bookings    []Attempt
}

// Result is what a finished session reports. ClassName and TimeSlot name the
// booked slot on Success and the last one tried on Failed.
type Result struct {
	Outcome   Outcome
	Reason    Reason
	ClassName string
	TimeSlot  string
	Info      Info
}

// SessionState is the mutable record of one session, created fresh per run.
type SessionState struct {
	LoggedIn   bool
	Weekday    time.Weekday
	TargetDate time.Time
	Outcome    Outcome
	Reason     Reason
	LastClass  string
	LastTime   string
	CurrentDay string
	Bookings   []Attempt
}

// Record appends a processed preference to the booking log.
func (s *SessionState) Record(p Preference) {
	s.LastClass = p.ClassName
	s.LastTime = p.Time
	s.Bookings = append(s.Bookings, Attempt{Time: p.Time, Class: p.ClassName})
}

// Finish sets the terminal outcome and returns the result surface.
// Neutral results carry no class and time.
func (s *SessionState) Finish(o Outcome, r Reason) Result {
	s.Outcome = o
	s.Reason = r
	res := Result{
		Outcome: o,
		Reason:  r,
		Info: Info{
			CurrentDate: s.CurrentDay,
			Bookings:    append([]Attempt(nil), s.Bookings...),
		},
	}
	if o != Neutral {
		res.ClassName = s.LastClass
		res.TimeSlot = s.LastTime
	}
	return res
}
