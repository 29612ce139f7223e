package service

import (
	"context"
	"fmt"

	"webauth/internal/models"
	"webauth/internal/repository"
)

// IdentityService converts between an authenticated user and the value
// persisted in the session.
type IdentityService struct {
	users repository.UserStore
}

func NewIdentityService(users repository.UserStore) *IdentityService {
	return &IdentityService{users: users}
}

var _ Identity = (*IdentityService)(nil)

// Serialize projects a user to its session token. The projection is the
// user id; nothing else crosses into the session.
func (s *IdentityService) Serialize(u *models.User) int {
	return u.ID
}

// Deserialize resolves a session token back into a full user record.
// A stale id (deleted user) returns (nil, nil): absent, not an error.
func (s *IdentityService) Deserialize(ctx context.Context, userID int) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("deserialize user id %d: %w", userID, err)
	}
	return u, nil
}
