// Package locations: service.go holds shortcut business logic. The one
// rule that matters: a shortcut stores the ROUND TRIP, double the one-way
// distance the user typed.
package locations

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"

	"gasbot/internal/common"
)

// Store is the persistence the service needs. Satisfied by *Repository;
// tests substitute an in-memory fake.
type Store interface {
	Upsert(ctx context.Context, loc *Location) error
	GetByName(ctx context.Context, name string) (*Location, error)
	List(ctx context.Context) ([]*Location, error)
}

// Service manages location shortcuts.
type Service struct {
	store Store
}

// NewService creates a new location service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Upsert creates or replaces a shortcut and returns the stored round-trip
// distance. The name is lowercased so "/driveto PNC" and "/driveto pnc"
// hit the same row; the original casing is kept as the label.
func (s *Service) Upsert(ctx context.Context, name string, oneWayMiles decimal.Decimal) (decimal.Decimal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return decimal.Zero, common.ErrLocationNotFound
	}
	if oneWayMiles.IsNegative() || oneWayMiles.IsZero() {
		return decimal.Zero, common.ErrInvalidDistance
	}

	roundTrip := oneWayMiles.Mul(decimal.NewFromInt(2)).Round(2)
	loc := &Location{
		Name:           strings.ToLower(name),
		Label:          name,
		RoundTripMiles: roundTrip,
	}
	if err := s.store.Upsert(ctx, loc); err != nil {
		return decimal.Zero, err
	}

	log.WithFields(log.Fields{
		"location":   loc.Name,
		"round_trip": roundTrip.String(),
	}).Info("Location shortcut saved")
	return roundTrip, nil
}

// Resolve returns the shortcut for a name, or common.ErrLocationNotFound.
func (s *Service) Resolve(ctx context.Context, name string) (*Location, error) {
	return s.store.GetByName(ctx, strings.TrimSpace(name))
}

// List returns every shortcut, for the help text.
func (s *Service) List(ctx context.Context) ([]*Location, error) {
	return s.store.List(ctx)
}
