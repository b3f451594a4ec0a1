package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/seblum/octiv-booker/internal/domain/user"
	"github.com/seblum/octiv-booker/internal/internaltypes"
)

type CredentialStore interface {
	Upsert(ctx context.Context, c user.SiteCredentials) error
	Get(ctx context.Context, label string) (user.SiteCredentials, error)
}

type Sealer interface {
	EncryptToString(plaintext string) (string, error)
	DecryptString(ciphertext string) (string, error)
}

// CredentialsService keeps Octiv logins with the password sealed at rest.
type CredentialsService struct {
	Store CredentialStore
	AEAD  Sealer
}

func (s CredentialsService) Set(ctx context.Context, c user.SiteCredentials) error {
	if !c.Complete() {
		return fmt.Errorf("username and password are required")
	}
	sealed, err := s.AEAD.EncryptToString(c.Password)
	if err != nil {
		return fmt.Errorf("seal password: %w", err)
	}
	c.Password = sealed
	return s.Store.Upsert(ctx, c)
}

func (s CredentialsService) Get(ctx context.Context, label string) (user.SiteCredentials, error) {
	c, err := s.Store.Get(ctx, label)
	if err != nil {
		return user.SiteCredentials{}, err
	}
	pw, err := s.AEAD.DecryptString(c.Password)
	if err != nil {
		return user.SiteCredentials{}, fmt.Errorf("open password for %q: %w", label, err)
	}
	c.Password = pw
	return c, nil
}

// Resolve prefers complete credentials from the environment and falls back
// to the stored entry for label.
func (s CredentialsService) Resolve(ctx context.Context, env user.SiteCredentials, label string) (user.SiteCredentials, error) {
	if env.Complete() {
		env.Label = "env"
		return env, nil
	}
	if s.Store == nil || s.AEAD == nil {
		return user.SiteCredentials{}, fmt.Errorf("OCTIV_USERNAME and OCTIV_PASSWORD are required")
	}
	c, err := s.Get(ctx, label)
	if errors.Is(err, internaltypes.ErrNotFound) {
		return user.SiteCredentials{}, fmt.Errorf("no credentials in environment or store (label %q)", label)
	}
	return c, err
}
