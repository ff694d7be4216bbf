// Package garage: service.go holds fleet business logic: startup
// reconciliation and the current-price rule (latest recorded price, falling
// back to the configured default when nobody has recorded one yet).
package garage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"

	"gasbot/internal/common"
	"gasbot/internal/config"
)

// Service manages the car fleet and the gas price.
type Service struct {
	repo         *Repository
	defaultPrice decimal.Decimal
}

// NewService creates a new garage service.
func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, defaultPrice: cfg.DefaultGasPrice}
}

// SyncFleet reconciles the stored cars with the configuration.
// Called once at startup before the bot accepts commands.
func (s *Service) SyncFleet(ctx context.Context, fleet []config.CarSpec) error {
	if err := s.repo.ReconcileFleet(ctx, fleet); err != nil {
		return err
	}
	log.WithField("cars", len(fleet)).Info("Fleet reconciled with configuration")
	return nil
}

// CarByName resolves a fleet car, case-insensitively.
func (s *Service) CarByName(ctx context.Context, name string) (*Car, error) {
	return s.repo.GetByName(ctx, name)
}

// List returns the fleet ordered by name.
func (s *Service) List(ctx context.Context) ([]*Car, error) {
	return s.repo.List(ctx)
}

// SetNotes attaches free-text notes to a car ("studded tires on").
// An empty string clears them.
func (s *Service) SetNotes(ctx context.Context, name, notes string) error {
	return s.repo.SetNotes(ctx, name, notes)
}

// CurrentPrice returns the gas price in effect right now: the most recently
// recorded price, or the configured default if none exists.
func (s *Service) CurrentPrice(ctx context.Context) (decimal.Decimal, error) {
	price, err := s.repo.CurrentPrice(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.WithField("default", s.defaultPrice).Debug("No gas price recorded, using default")
			return s.defaultPrice, nil
		}
		return decimal.Zero, err
	}
	return price, nil
}

// SetPrice records a new current gas price. Subsequent drives use it;
// already-recorded drive costs are never recomputed.
func (s *Service) SetPrice(ctx context.Context, price decimal.Decimal, setBy int64) error {
	if !price.IsPositive() {
		return common.ErrInvalidPrice
	}
	by := setBy
	if err := s.repo.RecordPrice(ctx, price.Round(2), &by); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"price":  price.StringFixed(2),
		"set_by": setBy,
	}).Info("Gas price updated")
	return nil
}
