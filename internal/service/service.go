package service

import (
	"context"
	"time"

	"webauth/internal/models"
	"webauth/internal/repository"
)

// Authorization is the local strategy: credential verification and
// registration against the credential store.
type Authorization interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// Identity is the session identity codec. Serialize projects an
// authenticated user to the value stored in the session; Deserialize
// resolves it back, returning (nil, nil) when the user no longer exists.
type Identity interface {
	Serialize(u *models.User) int
	Deserialize(ctx context.Context, userID int) (*models.User, error)
}

// EventLog exposes the append-only auth audit trail.
type EventLog interface {
	Record(ctx context.Context, eventType, username string, meta any) error
	List(ctx context.Context, f EventFilter) ([]models.AuthEvent, error)
}

// EventFilter supports audit history filtering by time range and type.
type EventFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "LOGIN", "LOGIN_FAILED", "REGISTER", "LOGOUT"
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Identity
	EventLog
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, bcryptCost int) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Users, bcryptCost),
		Identity:      NewIdentityService(repos.Users),
		EventLog:      NewEventLogService(repos.Events),
	}
}
