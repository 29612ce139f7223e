package repository

import (
	"context"
	"database/sql"
	"time"

	"webauth/internal/models"
)

// UserStore is the credential store: user records keyed by username.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// EventStore is the append-only auth audit trail.
type EventStore interface {
	Append(ctx context.Context, e models.AuthEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.AuthEvent, error)
}

type Repository struct {
	Users  UserStore
	Events EventStore
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Users:  NewUserRepository(db),
		Events: NewEventRepository(db),
	}
}
