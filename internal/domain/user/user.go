package user

import "time"

// User is a dashboard login. It is unrelated to the Octiv account the
// booker signs in with, see SiteCredentials.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}
