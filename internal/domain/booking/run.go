package booking

import "time"

// Run is one invocation of the booking runner as kept in history and sent
// in notifications.
type Run struct {
	ID         string
	Account    string
	StartedAt  time.Time
	FinishedAt time.Time
	TargetDate time.Time
	Weekday    time.Weekday
	Action     Action
	Result     Result
	Attempts   int
	Error      string
	LogPath    string
}

func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }
