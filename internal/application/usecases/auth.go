package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/seblum/octiv-booker/internal/domain/user"
	"github.com/seblum/octiv-booker/internal/internaltypes"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) error
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

// AuthService checks dashboard logins.
type AuthService struct {
	Users UserStore
}

func (a AuthService) VerifyPassword(ctx context.Context, username, password string) (user.User, error) {
	u, err := a.Users.GetByUsername(ctx, username)
	if err != nil {
		return user.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return user.User{}, internaltypes.ErrUnauthorized
	}
	return u, nil
}

func (a AuthService) Register(ctx context.Context, username, password string) (user.User, error) {
	u, err := NewUser(username, password)
	if err != nil {
		return user.User{}, err
	}
	if err := a.Users.Create(ctx, u); err != nil {
		return user.User{}, fmt.Errorf("create user %q: %w", username, err)
	}
	return u, nil
}

func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func NewUser(username, password string) (user.User, error) {
	if username == "" || password == "" {
		return user.User{}, fmt.Errorf("username and password are required")
	}
	h, err := HashPassword(password)
	if err != nil {
		return user.User{}, err
	}
	return user.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: h,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
