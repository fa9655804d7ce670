// Package user deals with the accounts that can sign in to the web service.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/billfold/billfold/internal/web"
	"golang.org/x/crypto/bcrypt"
)

// Set of errors for user API.
var (
	ErrNotFound              = errors.New("user not found")
	ErrInvalidArgument       = errors.New("user invalid argument")
	ErrUniqueEmail           = errors.New("email is not unique")
	ErrAuthenticationFailure = errors.New("authentication failed")
)

// User is an account that can sign in to the web service.
type User struct {
	ID           int
	Name         string
	Email        string
	PasswordHash []byte
	DateCreated  time.Time
}

// NewUser holds the information needed to register an account.
type NewUser struct {
	Name     string
	Email    string
	Password string
}

// Store is used to persist user accounts.
type Store interface {
	Create(ctx context.Context, u User) (User, error)
	QueryByEmail(ctx context.Context, email string) (User, error)
}

// Core deals with user business logic.
type Core struct {
	store Store
}

func NewCore(store Store) *Core {
	return &Core{store: store}
}

// Create registers a new account with a bcrypt password hash.
func (c *Core) Create(ctx context.Context, nu NewUser) (User, error) {
	switch {
	case nu.Name == "":
		return User{}, fmt.Errorf("name is required: %w", ErrInvalidArgument)
	case nu.Email == "":
		return User{}, fmt.Errorf("email is required: %w", ErrInvalidArgument)
	case len(nu.Password) < 8:
		return User{}, fmt.Errorf("password must have at least 8 characters: %w", ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("generating password hash: %w", err)
	}

	u := User{
		Name:         nu.Name,
		Email:        nu.Email,
		PasswordHash: hash,
		DateCreated:  web.GetTime(ctx),
	}

	return c.store.Create(ctx, u)
}

// Authenticate verifies the email/password pair and returns the account. A
// wrong password and an unknown email fail the same way.
func (c *Core) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := c.store.QueryByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrAuthenticationFailure
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrAuthenticationFailure
	}

	return u, nil
}
