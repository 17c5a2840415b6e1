package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/talkingpet/storefront/internal/cart"
	"github.com/talkingpet/storefront/internal/constants"
)

func setupTestStore(t *testing.T) (SnapshotStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSnapshotStore(client), mr
}

func sampleCart() domain.Cart {
	cart := domain.Cart{}
	cart.Add(domain.Item{
		ID:    "p1",
		Kind:  domain.ItemKindProduct,
		Name:  "dog food",
		Price: decimal.NewFromInt(10),
	}, 2)
	return cart
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	store, _ := setupTestStore(t)
	c := context.Background()

	require.NoError(t, store.Save(c, "user-1", sampleCart()))

	loaded := store.Load(c, "user-1")
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, "p1", loaded.Lines[0].ID)
	assert.Equal(t, int32(2), loaded.Lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(10).Equal(loaded.Lines[0].Price))
}

func TestLoadMissingKeyYieldsEmptyCart(t *testing.T) {
	store, _ := setupTestStore(t)

	loaded := store.Load(context.Background(), "nobody")

	assert.Empty(t, loaded.Lines)
}

func TestLoadMalformedSnapshotYieldsEmptyCart(t *testing.T) {
	store, mr := setupTestStore(t)

	mr.Set(fmt.Sprintf(constants.KeyCartSnapshot, "user-1"), `{"not":"an array"}`)

	loaded := store.Load(context.Background(), "user-1")
	assert.Empty(t, loaded.Lines)
}

func TestClearThenReloadYieldsEmptyCart(t *testing.T) {
	store, _ := setupTestStore(t)
	c := context.Background()

	require.NoError(t, store.Save(c, "user-1", sampleCart()))

	cart := store.Load(c, "user-1")
	cart.Clear()
	require.NoError(t, store.Save(c, "user-1", cart))

	loaded := store.Load(c, "user-1")
	assert.Empty(t, loaded.Lines)
}

func TestIdentitySwitchKeepsSnapshotsApart(t *testing.T) {
	store, _ := setupTestStore(t)
	c := context.Background()

	require.NoError(t, store.Save(c, "user-1", sampleCart()))
	require.NoError(t, store.Save(c, constants.AnonymousIdentity, domain.Cart{}))

	// Switching to the anonymous identity reads an empty cart while user-1's
	// snapshot stays untouched in the store.
	anonymous := store.Load(c, constants.AnonymousIdentity)
	assert.Empty(t, anonymous.Lines)

	kept := store.Load(c, "user-1")
	assert.Len(t, kept.Lines, 1)
}
