package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/talkingpet/storefront/checkout/internal/domain"
	"github.com/talkingpet/storefront/internal/constants"
	inErrors "github.com/talkingpet/storefront/internal/errors"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/otel"
)

// CheckoutStore persists the per-identity wizard record between the order
// submission and the payment outcome. One record per identity: a new
// submission overwrites whatever was pending.
type CheckoutStore struct {
	cache *redis.Client
}

func NewCheckoutStore(cache *redis.Client) CheckoutStore {
	return CheckoutStore{cache: cache}
}

func checkoutKey(identity string) string {
	return fmt.Sprintf(constants.KeyCheckout, identity)
}

// Load reads the pending record for an identity. A missing key yields
// ErrNoPendingPayment.
func (s CheckoutStore) Load(c context.Context, identity string) (domain.Checkout, error) {
	c, span := otel.Tracer.Start(c, "CheckoutStore Load")
	defer span.End()

	cacheKey := checkoutKey(identity)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutStore Load").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	payload, err := s.cache.Get(c, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Checkout{}, inErrors.ErrNoPendingPayment
	}
	if err != nil {
		err = fmt.Errorf("failed reading checkout record with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Checkout{}, err
	}

	checkout := domain.Checkout{}
	err = json.Unmarshal(payload, &checkout)
	if err != nil {
		err = fmt.Errorf("failed unmarshaling checkout record with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Checkout{}, err
	}
	return checkout, nil
}

func (s CheckoutStore) Save(c context.Context, identity string, checkout domain.Checkout) error {
	c, span := otel.Tracer.Start(c, "CheckoutStore Save")
	defer span.End()

	cacheKey := checkoutKey(identity)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutStore Save").
		Str(log.KeyCacheKey, cacheKey).
		Str(log.KeyCheckoutState, checkout.State.String()).
		Logger()

	payload, err := json.Marshal(checkout)
	if err != nil {
		err = fmt.Errorf("failed marshaling checkout record with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	err = s.cache.Set(c, cacheKey, payload, 0).Err()
	if err != nil {
		err = fmt.Errorf("failed writing checkout record with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("wrote checkout record")
	return nil
}

func (s CheckoutStore) Drop(c context.Context, identity string) error {
	c, span := otel.Tracer.Start(c, "CheckoutStore Drop")
	defer span.End()

	cacheKey := checkoutKey(identity)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutStore Drop").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	err := s.cache.Del(c, cacheKey).Err()
	if err != nil {
		err = fmt.Errorf("failed deleting checkout record with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}
