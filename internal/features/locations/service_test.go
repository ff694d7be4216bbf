package locations_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasbot/internal/common"
	"gasbot/internal/features/locations"
)

// fakeStore keeps shortcuts in a map keyed by the lowercased name.
type fakeStore struct {
	byName map[string]*locations.Location
}

func newFakeStore() *fakeStore {
	return &fakeStore{byName: make(map[string]*locations.Location)}
}

func (f *fakeStore) Upsert(_ context.Context, loc *locations.Location) error {
	f.byName[loc.Name] = loc
	return nil
}

func (f *fakeStore) GetByName(_ context.Context, name string) (*locations.Location, error) {
	loc, ok := f.byName[strings.ToLower(name)]
	if !ok {
		return nil, common.ErrLocationNotFound
	}
	return loc, nil
}

func (f *fakeStore) List(_ context.Context) ([]*locations.Location, error) {
	var out []*locations.Location
	for _, loc := range f.byName {
		out = append(out, loc)
	}
	return out, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestUpsert_DoublesOneWayDistance(t *testing.T) {
	store := newFakeStore()
	svc := locations.NewService(store)

	roundTrip, err := svc.Upsert(context.Background(), "PNC", dec("1.0"))
	require.NoError(t, err)
	assert.True(t, roundTrip.Equal(dec("2")), "round trip = %s", roundTrip)

	loc, err := svc.Resolve(context.Background(), "pnc")
	require.NoError(t, err)
	assert.Equal(t, "pnc", loc.Name)
	assert.Equal(t, "PNC", loc.Label, "label keeps original casing")
	assert.True(t, loc.RoundTripMiles.Equal(dec("2")))
}

func TestUpsert_OverwritesExisting(t *testing.T) {
	store := newFakeStore()
	svc := locations.NewService(store)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "gym", dec("3"))
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, "Gym", dec("5"))
	require.NoError(t, err)

	loc, err := svc.Resolve(ctx, "gym")
	require.NoError(t, err)
	assert.True(t, loc.RoundTripMiles.Equal(dec("10")), "latest distance wins")
	assert.Equal(t, "Gym", loc.Label)
}

func TestUpsert_RejectsBadInput(t *testing.T) {
	svc := locations.NewService(newFakeStore())
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "", dec("1"))
	assert.ErrorIs(t, err, common.ErrLocationNotFound)

	_, err = svc.Upsert(ctx, "pnc", decimal.Zero)
	assert.ErrorIs(t, err, common.ErrInvalidDistance)

	_, err = svc.Upsert(ctx, "pnc", dec("-2"))
	assert.ErrorIs(t, err, common.ErrInvalidDistance)
}

func TestResolve_Unknown(t *testing.T) {
	svc := locations.NewService(newFakeStore())

	_, err := svc.Resolve(context.Background(), "nowhere")
	assert.ErrorIs(t, err, common.ErrLocationNotFound)
}
