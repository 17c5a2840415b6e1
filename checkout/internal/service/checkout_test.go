package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkingpet/storefront/checkout/internal/domain"
	"github.com/talkingpet/storefront/checkout/internal/store"
	"github.com/talkingpet/storefront/checkout/pkg/request"
	"github.com/talkingpet/storefront/internal/cart"
	"github.com/talkingpet/storefront/internal/config"
	inErrors "github.com/talkingpet/storefront/internal/errors"
	"github.com/talkingpet/storefront/internal/upstream"
)

const testIdentity = "user-1"

type fakeCarts struct {
	snapshot cart.Cart
	cleared  bool
}

func (f *fakeCarts) Snapshot(c context.Context, identity string) cart.Cart {
	return f.snapshot
}

func (f *fakeCarts) ClearCart(c context.Context, identity string) error {
	f.cleared = true
	f.snapshot = cart.Cart{}
	return nil
}

type fakeProfiles struct {
	refreshed bool
}

func (f *fakeProfiles) RefreshBalance(c context.Context, identity string) {
	f.refreshed = true
}

type fixture struct {
	service   CheckoutService
	checkouts store.CheckoutStore
	carts     *fakeCarts
	profiles  *fakeProfiles
	upstream  *[]string
}

func setupCheckout(t *testing.T, snapshot cart.Cart) fixture {
	calls := &[]string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls = append(*calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost && r.URL.Path == "/api/orders" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "success",
				"data": map[string]interface{}{
					"order": map[string]interface{}{"id": "ord-1"},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "success"})
	}))
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	carts := &fakeCarts{snapshot: snapshot}
	profiles := &fakeProfiles{}
	checkouts := store.NewCheckoutStore(cache)
	cfg := config.Checkout{
		ShippingFee:       "99",
		QrPollSeconds:     5,
		TrackPollSeconds:  10,
		ConfirmationRoute: "/orders/confirmation",
	}
	svc := NewCheckoutService(
		carts,
		profiles,
		checkouts,
		upstream.NewClient(config.Upstream{BaseURL: server.URL, TimeoutSeconds: 5}),
		decimal.NewFromInt(99),
		cfg,
	)
	return fixture{service: svc, checkouts: checkouts, carts: carts, profiles: profiles, upstream: calls}
}

func productSnapshot() cart.Cart {
	return cart.Cart{Lines: []cart.Line{
		{ID: "p1", Kind: cart.ItemKindProduct, Name: "kibble", Price: decimal.NewFromInt(20), Quantity: 2},
		{ID: "c1", Kind: cart.ItemKindCourse, Name: "obedience", Price: decimal.NewFromInt(50), Quantity: 1},
	}}
}

func servicesSnapshot() cart.Cart {
	return cart.Cart{Lines: []cart.Line{
		{ID: "s1", Kind: cart.ItemKindService, Name: "grooming", Price: decimal.NewFromInt(30), Quantity: 1},
	}}
}

func pickupSubmit(method string) request.Submit {
	return request.Submit{
		PaymentMethod: method,
		Shipping:      request.Shipping{Mode: "store_pickup"},
	}
}

func called(calls []string, want string) bool {
	for _, call := range calls {
		if strings.Contains(call, want) {
			return true
		}
	}
	return false
}

func TestQuote(t *testing.T) {
	t.Run("given product lines should charge the shipping fee", func(t *testing.T) {
		f := setupCheckout(t, productSnapshot())
		quote := f.service.Quote(context.Background(), testIdentity)
		assert.True(t, quote.ShippingRequired)
		assert.True(t, decimal.NewFromInt(99).Equal(quote.ShippingFee))
		assert.True(t, decimal.NewFromInt(189).Equal(quote.Total))
	})

	t.Run("given services only should skip the shipping fee", func(t *testing.T) {
		f := setupCheckout(t, servicesSnapshot())
		quote := f.service.Quote(context.Background(), testIdentity)
		assert.False(t, quote.ShippingRequired)
		assert.True(t, quote.ShippingFee.IsZero())
		assert.True(t, decimal.NewFromInt(30).Equal(quote.Total))
	})
}

func TestSubmitWithBalance(t *testing.T) {
	f := setupCheckout(t, productSnapshot())

	checkout, err := f.service.Submit(context.Background(), testIdentity, pickupSubmit("balance"))
	require.NoError(t, err)

	assert.Equal(t, domain.StatePaid.String(), checkout.State)
	assert.Equal(t, "ord-1", checkout.OrderID)
	assert.Equal(t, "/orders/confirmation?orderId=ord-1", checkout.RedirectTo)
	assert.True(t, f.carts.cleared, "balance payment settles immediately, cart must be cleared")
	assert.True(t, f.profiles.refreshed, "debited balance must be re-synced")
	assert.True(t, called(*f.upstream, "POST /api/orders"))
	assert.True(t, called(*f.upstream, "POST /api/courses/c1/enroll"))

	saved, err := f.checkouts.Load(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePaid, saved.State)
}

func TestSubmitWithCard(t *testing.T) {
	f := setupCheckout(t, productSnapshot())

	checkout, err := f.service.Submit(context.Background(), testIdentity, pickupSubmit("card"))
	require.NoError(t, err)

	assert.Equal(t, domain.StateAwaitingPayment.String(), checkout.State)
	assert.False(t, f.carts.cleared, "cart must survive until the payment settles")
	assert.False(t, f.profiles.refreshed)
	assert.False(t, called(*f.upstream, "mark-paid"))
	assert.False(t, called(*f.upstream, "enroll"), "courses enroll only once paid")

	saved, err := f.checkouts.Load(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingPayment, saved.State)
	assert.Equal(t, []string{"c1"}, saved.PendingCourseIDs)
}

func TestSubmitWithEmptyCart(t *testing.T) {
	f := setupCheckout(t, cart.Cart{})

	_, err := f.service.Submit(context.Background(), testIdentity, pickupSubmit("card"))

	assert.ErrorIs(t, err, inErrors.ErrEmptyCart)
	assert.False(t, called(*f.upstream, "POST /api/orders"))
}

func TestSubmitHomeDeliveryWithoutAddress(t *testing.T) {
	f := setupCheckout(t, productSnapshot())

	_, err := f.service.Submit(context.Background(), testIdentity, request.Submit{
		PaymentMethod: "card",
		Shipping:      request.Shipping{Mode: "home_delivery"},
	})

	assert.ErrorIs(t, err, inErrors.ErrAddressRequired)
}

func TestConfirmPayment(t *testing.T) {
	f := setupCheckout(t, productSnapshot())
	_, err := f.service.Submit(context.Background(), testIdentity, pickupSubmit("qr"))
	require.NoError(t, err)

	checkout, err := f.service.ConfirmPayment(context.Background(), testIdentity)
	require.NoError(t, err)

	assert.Equal(t, domain.StatePaid.String(), checkout.State)
	assert.Equal(t, "/orders/confirmation?orderId=ord-1", checkout.RedirectTo)
	assert.True(t, f.carts.cleared)
	assert.True(t, called(*f.upstream, "POST /api/orders/ord-1/mark-paid"))
	assert.True(t, called(*f.upstream, "POST /api/courses/c1/enroll"))
	assert.False(t, f.profiles.refreshed, "card and qr payments do not touch the balance")
}

func TestConfirmPaymentWithoutPendingCheckout(t *testing.T) {
	f := setupCheckout(t, productSnapshot())

	_, err := f.service.ConfirmPayment(context.Background(), testIdentity)

	assert.ErrorIs(t, err, inErrors.ErrNoPendingPayment)
}

func TestFailAndRetryPayment(t *testing.T) {
	f := setupCheckout(t, productSnapshot())
	_, err := f.service.Submit(context.Background(), testIdentity, pickupSubmit("card"))
	require.NoError(t, err)

	failed, err := f.service.FailPayment(context.Background(), testIdentity, "card declined")
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed.String(), failed.State)
	assert.Equal(t, "card declined", failed.FailureMessage)
	assert.False(t, f.carts.cleared, "failed payment keeps the cart")

	retried, err := f.service.RetryPayment(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingPayment.String(), retried.State)
	assert.Empty(t, retried.FailureMessage)
}

func TestFailPaymentWithoutPendingCheckout(t *testing.T) {
	f := setupCheckout(t, productSnapshot())

	_, err := f.service.FailPayment(context.Background(), testIdentity, "card declined")

	assert.ErrorIs(t, err, inErrors.ErrNoPendingPayment)
}

func TestSubmitServicesOnlySkipsShipping(t *testing.T) {
	f := setupCheckout(t, servicesSnapshot())

	checkout, err := f.service.Submit(context.Background(), testIdentity, request.Submit{
		PaymentMethod: "balance",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatePaid.String(), checkout.State)
	assert.True(t, f.carts.cleared)
}
