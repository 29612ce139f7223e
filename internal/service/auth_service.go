package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"webauth/internal/models"
	"webauth/internal/repository"
)

// Domain errors for auth flows.
var (
	// ErrInvalidCredentials covers both "no such user" and "bad
	// password". Collapsing them is deliberate: callers must not be
	// able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmptyCredentials   = errors.New("username and password must not be empty")
)

// dummyHash is a bcrypt digest of an unguessable throwaway value. When a
// login names an unknown user we still run the compare against it, so
// the unknown-user path does the same work as the wrong-password path.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthService implements the local strategy against the credential store.
type AuthService struct {
	users repository.UserStore
	cost  int
}

func NewAuthService(users repository.UserStore, bcryptCost int) *AuthService {
	// A cost below the bcrypt default (10) would weaken stored hashes,
	// whatever the configuration says.
	if bcryptCost < bcrypt.DefaultCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, cost: bcryptCost}
}

var _ Authorization = (*AuthService)(nil)

// Register hashes the password, inserts the user, and authenticates the
// just-supplied credentials to produce the identity for the session.
// A username collision surfaces as ErrUsernameTaken.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, ErrEmptyCredentials
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.users.Create(ctx, username, hash); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}

	return s.Authenticate(ctx, username, password)
}

// Authenticate validates a username/password pair and returns the full
// user record on success. Unknown user and wrong password both come
// back as ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("look up user %q: %w", username, err)
	}
	if u == nil {
		// Burn a compare anyway so this path costs the same as a mismatch.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
