package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/talkingpet/storefront/cart/internal/store"
	"github.com/talkingpet/storefront/cart/pkg/response"
	domain "github.com/talkingpet/storefront/internal/cart"
	inErrors "github.com/talkingpet/storefront/internal/errors"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/otel"
)

type CartService struct {
	snapshots store.SnapshotStore
}

func NewCartService(snapshots store.SnapshotStore) CartService {
	return CartService{snapshots: snapshots}
}

func (svc CartService) FindCart(c context.Context, identity string) response.Cart {
	c, span := otel.Tracer.Start(c, "CartService FindCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService FindCart").
		Str(log.KeyIdentity, identity).
		Logger()

	logger.Trace().Msg("loading cart snapshot")
	cart := svc.snapshots.Load(c, identity)
	return response.FromCart(cart)
}

func (svc CartService) AddItem(
	c context.Context,
	identity string,
	item domain.Item,
	quantity int32,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddItem").
		Str(log.KeyIdentity, identity).
		Str(log.KeyItemID, item.ID).
		Str(log.KeyItemKind, string(item.Kind)).
		Int32(log.KeyQuantity, quantity).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "merging item into cart").Logger()
	logger.Info().Msg("merging item into cart")
	c = logger.WithContext(c)
	cart := svc.snapshots.Load(c, identity)
	before := lineQuantity(cart, item.ID)
	cart.Add(item, quantity)
	after := lineQuantity(cart, item.ID)
	if after < before+quantity {
		// The clamp is silent toward the caller, matching the storefront's
		// observed behavior; it is still visible here for support.
		logger.Info().
			Int32(log.KeyStockCeiling, after).
			Msgf("clamped quantity to stock ceiling=%d", after)
	}
	logger.Info().Msg("merged item into cart")

	logger = logger.With().Str(log.KeyProcess, "persisting cart snapshot").Logger()
	logger.Info().Msg("persisting cart snapshot")
	err := svc.snapshots.Save(c, identity, cart)
	if err != nil {
		err = fmt.Errorf("failed persisting cart snapshot with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("persisted cart snapshot")

	return response.FromCart(cart), nil
}

func (svc CartService) SetQuantity(
	c context.Context,
	identity string,
	itemId string,
	quantity int32,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService SetQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService SetQuantity").
		Str(log.KeyIdentity, identity).
		Str(log.KeyItemID, itemId).
		Int32(log.KeyQuantity, quantity).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "setting line quantity").Logger()
	logger.Info().Msg("setting line quantity")
	c = logger.WithContext(c)
	cart := svc.snapshots.Load(c, identity)
	cart.SetQuantity(itemId, quantity)
	logger.Info().Msg("set line quantity")

	logger = logger.With().Str(log.KeyProcess, "persisting cart snapshot").Logger()
	err := svc.snapshots.Save(c, identity, cart)
	if err != nil {
		err = fmt.Errorf("failed persisting cart snapshot with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	return response.FromCart(cart), nil
}

func (svc CartService) RemoveItem(
	c context.Context,
	identity string,
	itemId string,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService RemoveItem").
		Str(log.KeyIdentity, identity).
		Str(log.KeyItemID, itemId).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "removing line").Logger()
	logger.Info().Msg("removing line")
	c = logger.WithContext(c)
	cart := svc.snapshots.Load(c, identity)
	cart.Remove(itemId)
	logger.Info().Msg("removed line")

	err := svc.snapshots.Save(c, identity, cart)
	if err != nil {
		err = fmt.Errorf("failed persisting cart snapshot with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	return response.FromCart(cart), nil
}

func (svc CartService) ClearCart(c context.Context, identity string) error {
	c, span := otel.Tracer.Start(c, "CartService ClearCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService ClearCart").
		Str(log.KeyIdentity, identity).
		Str(log.KeyProcess, "clearing cart").
		Logger()

	logger.Info().Msg("clearing cart")
	c = logger.WithContext(c)
	err := svc.snapshots.Drop(c, identity)
	if err != nil {
		err = fmt.Errorf("failed clearing cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("cleared cart")
	return nil
}

// Snapshot exposes the raw domain cart for checkout orchestration.
func (svc CartService) Snapshot(c context.Context, identity string) domain.Cart {
	return svc.snapshots.Load(c, identity)
}

func lineQuantity(cart domain.Cart, id string) int32 {
	for _, line := range cart.Lines {
		if line.ID == id {
			return line.Quantity
		}
	}
	return 0
}
