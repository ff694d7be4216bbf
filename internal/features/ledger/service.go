// Package ledger: service.go is the balance engine's business logic:
// validation, cost computation, and orchestration of the transactional
// writes. The service talks to storage through small interfaces so the
// logic is testable without a database.
package ledger

import (
	"context"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"

	"gasbot/internal/common"
	"gasbot/internal/config"
	"gasbot/internal/features/garage"
	"gasbot/internal/features/locations"
	"gasbot/internal/features/members"
)

// Store is the ledger's own persistence. Satisfied by *Repository.
type Store interface {
	RecordDrive(ctx context.Context, ev *DriveEvent) (decimal.Decimal, error)
	RecordFill(ctx context.Context, ev *FillEvent) (decimal.Decimal, error)
	ListBalances(ctx context.Context) ([]*BalanceEntry, error)
	ZeroAllBalances(ctx context.Context) (int64, error)
}

// Fleet resolves cars and the current gas price. Satisfied by *garage.Service.
type Fleet interface {
	CarByName(ctx context.Context, name string) (*garage.Car, error)
	CurrentPrice(ctx context.Context) (decimal.Decimal, error)
	SetPrice(ctx context.Context, price decimal.Decimal, setBy int64) error
}

// Roster registers and looks up members. Satisfied by *members.Service.
type Roster interface {
	EnsureUser(ctx context.Context, userID int64, displayName string) (*members.Member, error)
}

// Shortcuts resolves location names to distances. Satisfied by *locations.Service.
type Shortcuts interface {
	Resolve(ctx context.Context, name string) (*locations.Location, error)
}

// Service is the ledger engine.
type Service struct {
	store     Store
	fleet     Fleet
	roster    Roster
	shortcuts Shortcuts

	maxDriveMiles decimal.Decimal
	rosterOrder   []int64
}

// NewService creates the ledger engine.
func NewService(store Store, fleet Fleet, roster Roster, shortcuts Shortcuts, cfg *config.Config) *Service {
	return &Service{
		store:         store,
		fleet:         fleet,
		roster:        roster,
		shortcuts:     shortcuts,
		maxDriveMiles: decimal.NewFromInt(int64(cfg.MaxDriveMiles)),
		rosterOrder:   cfg.RosterOrder,
	}
}

// driveCost converts distance into dollars: miles / mpg * price, rounded to
// cents. A misconfigured car (mpg <= 0) or price (<= 0) yields 0.00 rather
// than an error: a bad fleet entry must not block drive logging.
func driveCost(miles, mpg, pricePerGallon decimal.Decimal) decimal.Decimal {
	if !mpg.IsPositive() || !pricePerGallon.IsPositive() {
		log.WithFields(log.Fields{
			"mpg":   mpg.String(),
			"price": pricePerGallon.String(),
		}).Warn("Cost inputs invalid, recording zero-cost drive")
		return decimal.Zero.Round(2)
	}
	return miles.Div(mpg).Mul(pricePerGallon).Round(2)
}

// RecordDrive logs a drive: resolves the car and the current gas price,
// computes the cost, and atomically writes the drive event plus the
// driver's balance charge. Location is non-empty when the drive came
// through a shortcut; it is display metadata only, the distance was already
// resolved.
func (s *Service) RecordDrive(ctx context.Context, userID int64, displayName, carName string, miles decimal.Decimal, nearEmpty bool, location string) (*DriveResult, error) {
	if miles.IsNegative() || miles.GreaterThan(s.maxDriveMiles) {
		return nil, common.ErrInvalidDistance
	}

	car, err := s.fleet.CarByName(ctx, carName)
	if err != nil {
		return nil, err
	}

	if _, err := s.roster.EnsureUser(ctx, userID, displayName); err != nil {
		return nil, err
	}

	price, err := s.fleet.CurrentPrice(ctx)
	if err != nil {
		return nil, err
	}

	cost := driveCost(miles, car.MPG, price)

	ev := &DriveEvent{
		UserID:    userID,
		CarID:     car.ID,
		Miles:     miles.Round(2),
		Cost:      cost,
		NearEmpty: nearEmpty,
	}
	if location != "" {
		ev.Location = &location
	}

	balance, err := s.store.RecordDrive(ctx, ev)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"car":     car.Name,
		"miles":   miles.String(),
		"cost":    cost.StringFixed(2),
	}).Info("Drive recorded")

	return &DriveResult{
		Car:        car.Name,
		Miles:      ev.Miles,
		Cost:       cost,
		NewBalance: balance,
		Location:   location,
	}, nil
}

// RecordDriveTo logs a drive to a named shortcut. The shortcut must exist
// before anything is written; an unknown name changes no state.
func (s *Service) RecordDriveTo(ctx context.Context, userID int64, displayName, locationName, carName string, nearEmpty bool) (*DriveResult, error) {
	loc, err := s.shortcuts.Resolve(ctx, locationName)
	if err != nil {
		return nil, err
	}
	return s.RecordDrive(ctx, userID, displayName, carName, loc.RoundTripMiles, nearEmpty, loc.Label)
}

// ResolveShortcut exposes location lookup so /driveto can validate the
// name before any prompt goes up.
func (s *Service) ResolveShortcut(ctx context.Context, name string) (*locations.Location, error) {
	return s.shortcuts.Resolve(ctx, name)
}

// Payer identifies whose balance a fill credits.
type Payer struct {
	ID   int64
	Name string
}

// RecordFill logs a fill-up payment. The payer defaults to the acting user
// and is registered if unseen. When newPrice is non-nil the fill also
// becomes the current gas price for subsequent drives. The fill event and
// the payer's credit are written atomically.
func (s *Service) RecordFill(ctx context.Context, actorID int64, actorName, carName string, amount decimal.Decimal, payer *Payer, newPrice *decimal.Decimal) (*FillResult, error) {
	if !amount.IsPositive() {
		return nil, common.ErrInvalidPayment
	}
	if newPrice != nil && !newPrice.IsPositive() {
		return nil, common.ErrInvalidPrice
	}

	car, err := s.fleet.CarByName(ctx, carName)
	if err != nil {
		return nil, err
	}

	if payer == nil {
		payer = &Payer{ID: actorID, Name: actorName}
	}

	if _, err := s.roster.EnsureUser(ctx, actorID, actorName); err != nil {
		return nil, err
	}
	payerMember, err := s.roster.EnsureUser(ctx, payer.ID, payer.Name)
	if err != nil {
		return nil, err
	}

	if newPrice != nil {
		if err := s.fleet.SetPrice(ctx, *newPrice, actorID); err != nil {
			return nil, err
		}
	}

	ev := &FillEvent{
		UserID:  actorID,
		CarID:   &car.ID,
		PayerID: payer.ID,
		Amount:  amount.Round(2),
	}
	if newPrice != nil {
		rounded := newPrice.Round(2)
		ev.PricePerGallon = &rounded
	}

	balance, err := s.store.RecordFill(ctx, ev)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"actor":  actorID,
		"payer":  payer.ID,
		"car":    car.Name,
		"amount": amount.StringFixed(2),
	}).Info("Fill recorded")

	return &FillResult{
		Car:        car.Name,
		Amount:     ev.Amount,
		PayerID:    payer.ID,
		PayerName:  payerMember.Name(),
		NewBalance: balance,
	}, nil
}

// Balances returns the group snapshot ordered for display: members on the
// configured roster first, in roster order, then everyone else by when they
// joined. Two calls with no writes in between return identical results.
func (s *Service) Balances(ctx context.Context) ([]*BalanceEntry, error) {
	entries, err := s.store.ListBalances(ctx)
	if err != nil {
		return nil, err
	}

	rank := make(map[int64]int, len(s.rosterOrder))
	for i, id := range s.rosterOrder {
		rank[id] = i
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ri, iOK := rank[entries[i].UserID]
		rj, jOK := rank[entries[j].UserID]
		switch {
		case iOK && jOK:
			return ri < rj
		case iOK:
			return true
		case jOK:
			return false
		default:
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
	})

	return entries, nil
}

// MyBalance registers the user if needed and returns their balance.
func (s *Service) MyBalance(ctx context.Context, userID int64, displayName string) (decimal.Decimal, error) {
	m, err := s.roster.EnsureUser(ctx, userID, displayName)
	if err != nil {
		return decimal.Zero, err
	}
	return m.BalanceOwed, nil
}

// SettleAll zeroes every known member's balance. History is kept; only the
// running totals reset. Returns how many members were settled.
func (s *Service) SettleAll(ctx context.Context) (int64, error) {
	n, err := s.store.ZeroAllBalances(ctx)
	if err != nil {
		return 0, err
	}
	log.WithField("users", n).Info("Balances settled to zero")
	return n, nil
}
