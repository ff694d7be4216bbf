// Package members: service.go holds member business logic: lazy
// registration on first interaction and preferred-name management.
package members

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"gasbot/internal/common"
)

const maxPreferredNameLen = 32

// Service manages group members.
type Service struct {
	repo *Repository
}

// NewService creates a new member service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// EnsureUser guarantees a record exists for the user and refreshes the
// stored display name. Called on every interaction, so it is a single
// upsert round-trip.
func (s *Service) EnsureUser(ctx context.Context, userID int64, displayName string) (*Member, error) {
	m, err := s.repo.GetOrCreate(ctx, userID, displayName)
	if err != nil {
		return nil, err
	}
	if m.CreatedAt.Equal(m.UpdatedAt) {
		log.WithFields(log.Fields{
			"user_id": userID,
			"name":    displayName,
		}).Info("New member registered")
	}
	return m, nil
}

// IsMember reports whether the user is known to the ledger. Used by the
// chat filter to decide DM access.
func (s *Service) IsMember(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// GetByUserID returns the member record.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// SetPreferredName validates and stores the name shown on the balance
// board. Empty input clears nothing: it is rejected.
func (s *Service) SetPreferredName(ctx context.Context, userID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxPreferredNameLen {
		return common.ErrInvalidName
	}
	return s.repo.SetPreferredName(ctx, userID, name)
}
