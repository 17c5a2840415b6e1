package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	domain "github.com/talkingpet/storefront/internal/cart"
	"github.com/talkingpet/storefront/internal/constants"
	inErrors "github.com/talkingpet/storefront/internal/errors"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/otel"
)

// SnapshotStore persists the full line set per identity, the way the browser
// client kept a JSON array under a per-user local-storage key. Snapshots have
// no TTL: a cart survives until it is cleared.
type SnapshotStore struct {
	cache *redis.Client
}

func NewSnapshotStore(cache *redis.Client) SnapshotStore {
	return SnapshotStore{cache: cache}
}

func snapshotKey(identity string) string {
	return fmt.Sprintf(constants.KeyCartSnapshot, identity)
}

// Load reads the line set for an identity. A missing key yields an empty
// cart; so does a malformed snapshot, with the read error swallowed and
// logged.
func (s SnapshotStore) Load(c context.Context, identity string) domain.Cart {
	c, span := otel.Tracer.Start(c, "SnapshotStore Load")
	defer span.End()

	cacheKey := snapshotKey(identity)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SnapshotStore Load").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger.Trace().Msg("reading cart snapshot")
	payload, err := s.cache.Get(c, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}
	}
	if err != nil {
		err = fmt.Errorf("failed reading cart snapshot with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Cart{}
	}

	lines := []domain.Line{}
	err = json.Unmarshal(payload, &lines)
	if err != nil {
		err = fmt.Errorf("failed unmarshaling cart snapshot with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Cart{}
	}
	return domain.Cart{Lines: lines}
}

// Save writes the full line set for an identity after every mutation.
func (s SnapshotStore) Save(c context.Context, identity string, cart domain.Cart) error {
	c, span := otel.Tracer.Start(c, "SnapshotStore Save")
	defer span.End()

	cacheKey := snapshotKey(identity)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SnapshotStore Save").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	lines := cart.Lines
	if lines == nil {
		lines = []domain.Line{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart snapshot with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	err = s.cache.Set(c, cacheKey, payload, 0).Err()
	if err != nil {
		err = fmt.Errorf("failed writing cart snapshot with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("wrote cart snapshot")
	return nil
}

// Drop deletes the snapshot for an identity.
func (s SnapshotStore) Drop(c context.Context, identity string) error {
	c, span := otel.Tracer.Start(c, "SnapshotStore Drop")
	defer span.End()

	cacheKey := snapshotKey(identity)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SnapshotStore Drop").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	err := s.cache.Del(c, cacheKey).Err()
	if err != nil {
		err = fmt.Errorf("failed deleting cart snapshot with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}
