package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/talkingpet/storefront/checkout/internal/controller"
	"github.com/talkingpet/storefront/checkout/internal/service"
	"github.com/talkingpet/storefront/checkout/internal/store"
	"github.com/talkingpet/storefront/internal/config"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/upstream"
)

// AttachCheckoutApp wires the checkout wizard and the payment surfaces into
// the shared router.
func AttachCheckoutApp(
	c context.Context,
	router *mux.Router,
	cache *redis.Client,
	upstreamClient *upstream.Client,
	carts service.CartStore,
	profiles service.ProfileRefresher,
	cfg config.Checkout,
) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AttachCheckoutApp").
		Logger()

	shippingFee, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msgf("invalid shipping fee %q with error=%s", cfg.ShippingFee, err.Error())
	}

	checkouts := store.NewCheckoutStore(cache)
	checkoutService := service.NewCheckoutService(
		carts,
		profiles,
		checkouts,
		upstreamClient,
		shippingFee,
		cfg,
	)
	controller.AttachCheckoutController(router, &checkoutService, upstreamClient, cfg)
}
