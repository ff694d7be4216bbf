package ledger_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasbot/internal/common"
	"gasbot/internal/config"
	"gasbot/internal/features/garage"
	"gasbot/internal/features/ledger"
	"gasbot/internal/features/locations"
	"gasbot/internal/features/members"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// fakeEnv implements the ledger's Store, Fleet, Roster and Shortcuts
// interfaces in memory so the engine is testable without a database.
type fakeEnv struct {
	cars      map[string]*garage.Car
	price     decimal.Decimal
	shortcuts map[string]*locations.Location

	memberOrder []int64
	members     map[int64]*members.Member
	balances    map[int64]decimal.Decimal

	drives []*ledger.DriveEvent
	fills  []*ledger.FillEvent
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		cars: map[string]*garage.Car{
			"subaru":   {ID: 1, Name: "Subaru", MPG: dec("20")},
			"mercedes": {ID: 2, Name: "Mercedes", MPG: dec("17")},
		},
		price:     dec("3.30"),
		shortcuts: map[string]*locations.Location{},
		members:   map[int64]*members.Member{},
		balances:  map[int64]decimal.Decimal{},
	}
}

func (f *fakeEnv) CarByName(_ context.Context, name string) (*garage.Car, error) {
	car, ok := f.cars[strings.ToLower(name)]
	if !ok {
		return nil, common.ErrCarNotFound
	}
	return car, nil
}

func (f *fakeEnv) CurrentPrice(_ context.Context) (decimal.Decimal, error) {
	return f.price, nil
}

func (f *fakeEnv) SetPrice(_ context.Context, price decimal.Decimal, _ int64) error {
	if !price.IsPositive() {
		return common.ErrInvalidPrice
	}
	f.price = price.Round(2)
	return nil
}

func (f *fakeEnv) EnsureUser(_ context.Context, userID int64, displayName string) (*members.Member, error) {
	m, ok := f.members[userID]
	if !ok {
		m = &members.Member{
			UserID:      userID,
			DisplayName: displayName,
			CreatedAt:   time.Unix(int64(len(f.memberOrder)), 0),
		}
		f.members[userID] = m
		f.memberOrder = append(f.memberOrder, userID)
		f.balances[userID] = decimal.Zero
	}
	m.BalanceOwed = f.balances[userID]
	return m, nil
}

func (f *fakeEnv) Resolve(_ context.Context, name string) (*locations.Location, error) {
	loc, ok := f.shortcuts[strings.ToLower(name)]
	if !ok {
		return nil, common.ErrLocationNotFound
	}
	return loc, nil
}

func (f *fakeEnv) RecordDrive(_ context.Context, ev *ledger.DriveEvent) (decimal.Decimal, error) {
	f.drives = append(f.drives, ev)
	f.balances[ev.UserID] = f.balances[ev.UserID].Add(ev.Cost)
	return f.balances[ev.UserID], nil
}

func (f *fakeEnv) RecordFill(_ context.Context, ev *ledger.FillEvent) (decimal.Decimal, error) {
	f.fills = append(f.fills, ev)
	f.balances[ev.PayerID] = f.balances[ev.PayerID].Sub(ev.Amount)
	return f.balances[ev.PayerID], nil
}

func (f *fakeEnv) ListBalances(_ context.Context) ([]*ledger.BalanceEntry, error) {
	var out []*ledger.BalanceEntry
	for _, id := range f.memberOrder {
		m := f.members[id]
		out = append(out, &ledger.BalanceEntry{
			UserID:      id,
			Name:        m.Name(),
			BalanceOwed: f.balances[id],
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}

func (f *fakeEnv) ZeroAllBalances(_ context.Context) (int64, error) {
	for id := range f.balances {
		f.balances[id] = decimal.Zero
	}
	return int64(len(f.balances)), nil
}

func newTestService(t *testing.T, rosterOrder ...int64) (*ledger.Service, *fakeEnv) {
	t.Helper()
	env := newFakeEnv()
	cfg := &config.Config{
		MaxDriveMiles: 10000,
		RosterOrder:   rosterOrder,
	}
	return ledger.NewService(env, env, env, env, cfg), env
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// DRIVE TESTS
// =============================================================================

func TestRecordDrive_CostFormula(t *testing.T) {
	// 40 miles in a 20 mpg car at $3.30/gal costs $6.60.
	svc, env := newTestService(t)
	ctx := context.Background()

	res, err := svc.RecordDrive(ctx, 100, "Abbas", "Subaru", dec("40"), false, "")
	require.NoError(t, err)

	assert.True(t, res.Cost.Equal(dec("6.60")), "cost = %s", res.Cost)
	assert.True(t, res.NewBalance.Equal(dec("6.60")), "balance = %s", res.NewBalance)
	assert.Equal(t, "Subaru", res.Car)
	require.Len(t, env.drives, 1)
	assert.False(t, env.drives[0].NearEmpty)
}

func TestRecordDrive_CostRoundsToCents(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// 10 / 17 * 3.30 = 1.9411... rounds to 1.94.
	res, err := svc.RecordDrive(ctx, 100, "Abbas", "Mercedes", dec("10"), false, "")
	require.NoError(t, err)
	assert.True(t, res.Cost.Equal(dec("1.94")), "cost = %s", res.Cost)
}

func TestRecordDrive_CaseInsensitiveCar(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.RecordDrive(context.Background(), 100, "Abbas", "sUbArU", dec("20"), false, "")
	require.NoError(t, err)
	assert.Equal(t, "Subaru", res.Car)
}

func TestRecordDrive_UnknownCar_NoStateChange(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordDrive(ctx, 100, "Abbas", "Tesla", dec("40"), false, "")
	assert.ErrorIs(t, err, common.ErrCarNotFound)
	assert.Empty(t, env.drives, "no drive event should be written")
	assert.Empty(t, env.balances, "no balance should change")
}

func TestRecordDrive_InvalidDistance(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordDrive(ctx, 100, "Abbas", "Subaru", dec("-5"), false, "")
	assert.ErrorIs(t, err, common.ErrInvalidDistance)

	_, err = svc.RecordDrive(ctx, 100, "Abbas", "Subaru", dec("10001"), false, "")
	assert.ErrorIs(t, err, common.ErrInvalidDistance)

	assert.Empty(t, env.drives)
}

func TestRecordDrive_ZeroMiles(t *testing.T) {
	// A zero-mile drive is legal and records a $0.00 event.
	svc, env := newTestService(t)

	res, err := svc.RecordDrive(context.Background(), 100, "Abbas", "Subaru", dec("0"), false, "")
	require.NoError(t, err)
	assert.True(t, res.Cost.IsZero())
	assert.Len(t, env.drives, 1)
}

func TestRecordDrive_BadMPGRecordsZeroCost(t *testing.T) {
	// A misconfigured car must not block logging; the drive costs $0.00.
	svc, env := newTestService(t)
	env.cars["broken"] = &garage.Car{ID: 3, Name: "Broken", MPG: decimal.Zero}

	res, err := svc.RecordDrive(context.Background(), 100, "Abbas", "Broken", dec("40"), false, "")
	require.NoError(t, err)
	assert.True(t, res.Cost.IsZero())
	assert.Len(t, env.drives, 1)
}

func TestRecordDriveTo_UsesRoundTripMiles(t *testing.T) {
	svc, env := newTestService(t)
	env.shortcuts["pnc"] = &locations.Location{Name: "pnc", Label: "PNC", RoundTripMiles: dec("2")}

	res, err := svc.RecordDriveTo(context.Background(), 100, "Abbas", "pnc", "Subaru", false)
	require.NoError(t, err)

	// 2 / 20 * 3.30 = 0.33
	assert.True(t, res.Cost.Equal(dec("0.33")), "cost = %s", res.Cost)
	assert.Equal(t, "PNC", res.Location)
	require.Len(t, env.drives, 1)
	require.NotNil(t, env.drives[0].Location)
	assert.Equal(t, "PNC", *env.drives[0].Location)
}

func TestRecordDriveTo_UnknownLocation_NoStateChange(t *testing.T) {
	svc, env := newTestService(t)

	_, err := svc.RecordDriveTo(context.Background(), 100, "Abbas", "nowhere", "Subaru", false)
	assert.ErrorIs(t, err, common.ErrLocationNotFound)
	assert.Empty(t, env.drives)
	assert.Empty(t, env.balances)
}

// =============================================================================
// FILL TESTS
// =============================================================================

func TestRecordFill_CreditsPayer(t *testing.T) {
	// Drive $6.60 then pay $20: balance lands at -$13.40. Negative balances
	// are pre-payments, not errors.
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordDrive(ctx, 100, "Abbas", "Subaru", dec("40"), false, "")
	require.NoError(t, err)

	res, err := svc.RecordFill(ctx, 100, "Abbas", "Subaru", dec("20"), nil, nil)
	require.NoError(t, err)
	assert.True(t, res.NewBalance.Equal(dec("-13.40")), "balance = %s", res.NewBalance)
	assert.Equal(t, int64(100), res.PayerID)
}

func TestRecordFill_PayerFromReply(t *testing.T) {
	// Replying to someone's message makes them the payer; the actor's own
	// balance is untouched.
	svc, env := newTestService(t)
	ctx := context.Background()

	payer := &ledger.Payer{ID: 200, Name: "Sajjad"}
	res, err := svc.RecordFill(ctx, 100, "Abbas", "Subaru", dec("30"), payer, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(200), res.PayerID)
	assert.Equal(t, "Sajjad", res.PayerName)
	assert.True(t, env.balances[200].Equal(dec("-30")))
	assert.True(t, env.balances[100].IsZero())
}

func TestRecordFill_InvalidAmount(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordFill(ctx, 100, "Abbas", "Subaru", decimal.Zero, nil, nil)
	assert.ErrorIs(t, err, common.ErrInvalidPayment)

	_, err = svc.RecordFill(ctx, 100, "Abbas", "Subaru", dec("-5"), nil, nil)
	assert.ErrorIs(t, err, common.ErrInvalidPayment)

	assert.Empty(t, env.fills)
}

func TestRecordFill_InvalidPrice(t *testing.T) {
	svc, env := newTestService(t)
	bad := dec("-1")

	_, err := svc.RecordFill(context.Background(), 100, "Abbas", "Subaru", dec("20"), nil, &bad)
	assert.ErrorIs(t, err, common.ErrInvalidPrice)
	assert.Empty(t, env.fills)
	assert.True(t, env.price.Equal(dec("3.30")), "price must not change")
}

func TestRecordFill_NewPriceAffectsNextDrive(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	newPrice := dec("4.00")
	_, err := svc.RecordFill(ctx, 100, "Abbas", "Subaru", dec("45.50"), nil, &newPrice)
	require.NoError(t, err)
	assert.True(t, env.price.Equal(dec("4.00")))

	// 20 / 20 * 4.00 = 4.00
	res, err := svc.RecordDrive(ctx, 100, "Abbas", "Subaru", dec("20"), false, "")
	require.NoError(t, err)
	assert.True(t, res.Cost.Equal(dec("4.00")), "cost = %s", res.Cost)
	require.Len(t, env.fills, 1)
	require.NotNil(t, env.fills[0].PricePerGallon)
	assert.True(t, env.fills[0].PricePerGallon.Equal(dec("4.00")))
}

// =============================================================================
// BALANCE AND SETTLEMENT TESTS
// =============================================================================

func TestBalances_Additive(t *testing.T) {
	// The final balance equals the sum of recorded event costs.
	svc, _ := newTestService(t)
	ctx := context.Background()

	var want decimal.Decimal
	for _, miles := range []string{"12.5", "3", "40", "0.7"} {
		res, err := svc.RecordDrive(ctx, 100, "Abbas", "Subaru", dec(miles), false, "")
		require.NoError(t, err)
		want = want.Add(res.Cost)
	}

	balance, err := svc.MyBalance(ctx, 100, "Abbas")
	require.NoError(t, err)
	assert.True(t, balance.Equal(want), "balance %s != sum of costs %s", balance, want)
}

func TestBalances_SplitDriveCostsMatchCombined(t *testing.T) {
	// Logging 12.3 + 7.7 miles as two drives costs the same as one 20-mile
	// drive, give or take a cent of rounding.
	split, _ := newTestService(t)
	combined, _ := newTestService(t)
	ctx := context.Background()

	a, err := split.RecordDrive(ctx, 100, "Abbas", "Subaru", dec("12.3"), false, "")
	require.NoError(t, err)
	b, err := split.RecordDrive(ctx, 100, "Abbas", "Subaru", dec("7.7"), false, "")
	require.NoError(t, err)

	c, err := combined.RecordDrive(ctx, 100, "Abbas", "Subaru", dec("20"), false, "")
	require.NoError(t, err)

	diff := a.Cost.Add(b.Cost).Sub(c.Cost).Abs()
	assert.True(t, diff.LessThanOrEqual(dec("0.01")), "split vs combined differ by %s", diff)
}

func TestBalances_FillDriveFill(t *testing.T) {
	// A drive between two fills changes the balance by exactly its cost.
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordFill(ctx, 100, "Abbas", "Subaru", dec("10"), nil, nil)
	require.NoError(t, err)

	start, err := svc.MyBalance(ctx, 100, "Abbas")
	require.NoError(t, err)

	res, err := svc.RecordDrive(ctx, 100, "Abbas", "Subaru", dec("40"), false, "")
	require.NoError(t, err)

	_, err = svc.RecordFill(ctx, 100, "Abbas", "Subaru", dec("10"), nil, nil)
	require.NoError(t, err)

	end, err := svc.MyBalance(ctx, 100, "Abbas")
	require.NoError(t, err)
	assert.True(t, end.Equal(start.Add(res.Cost).Sub(dec("10"))))
}

func TestBalances_SnapshotIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordDrive(ctx, 100, "Abbas", "Subaru", dec("40"), false, "")
	require.NoError(t, err)
	_, err = svc.RecordDrive(ctx, 200, "Sajjad", "Mercedes", dec("10"), false, "")
	require.NoError(t, err)

	first, err := svc.Balances(ctx)
	require.NoError(t, err)
	second, err := svc.Balances(ctx)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].UserID, second[i].UserID)
		assert.True(t, first[i].BalanceOwed.Equal(second[i].BalanceOwed))
	}
}

func TestBalances_RosterOrder(t *testing.T) {
	// Roster members come first in configured order, stragglers follow by
	// join time.
	svc, _ := newTestService(t, 300, 100)
	ctx := context.Background()

	for _, u := range []struct {
		id   int64
		name string
	}{{100, "Abbas"}, {200, "Sajjad"}, {300, "Mahdi"}} {
		_, err := svc.RecordDrive(ctx, u.id, u.name, "Subaru", dec("1"), false, "")
		require.NoError(t, err)
	}

	entries, err := svc.Balances(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(300), entries[0].UserID)
	assert.Equal(t, int64(100), entries[1].UserID)
	assert.Equal(t, int64(200), entries[2].UserID)
}

func TestSettleAll_ZeroesEveryone(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordDrive(ctx, 100, "Abbas", "Subaru", dec("40"), false, "")
	require.NoError(t, err)
	_, err = svc.RecordFill(ctx, 200, "Sajjad", "Subaru", dec("50"), nil, nil)
	require.NoError(t, err)

	n, err := svc.SettleAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for id, b := range env.balances {
		assert.True(t, b.IsZero(), "user %d balance %s", id, b)
	}
	// History survives settlement.
	assert.Len(t, env.drives, 1)
	assert.Len(t, env.fills, 1)
}

func TestMyBalance_RegistersUnknownUser(t *testing.T) {
	svc, env := newTestService(t)

	balance, err := svc.MyBalance(context.Background(), 999, "Newcomer")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	assert.Contains(t, env.members, int64(999))
}
