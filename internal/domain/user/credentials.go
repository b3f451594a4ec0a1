package user

import "time"

// SiteCredentials are the Octiv login of one account. Label names the entry
// in the credential store; env-sourced credentials use "env".
type SiteCredentials struct {
	Label    string
	Username string
	Password string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c SiteCredentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}
