package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/talkingpet/storefront/internal/constants"
	inErrors "github.com/talkingpet/storefront/internal/errors"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/otel"
	"github.com/talkingpet/storefront/internal/upstream"
	"github.com/talkingpet/storefront/support/pkg/response"
)

// SupportService relays chat messages to the assistant upstream. The chat
// session id is pinned per identity so a conversation survives page reloads;
// anonymous visitors share the lifetime of their anonymous identity.
type SupportService struct {
	upstream *upstream.Client
	cache    *redis.Client
}

func NewSupportService(upstreamClient *upstream.Client, cache *redis.Client) SupportService {
	return SupportService{upstream: upstreamClient, cache: cache}
}

func (svc SupportService) SendMessage(
	c context.Context,
	identity string,
	message string,
) (response.ChatReply, error) {
	c, span := otel.Tracer.Start(c, "SupportService SendMessage")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SupportService SendMessage").
		Str(log.KeyIdentity, identity).
		Logger()

	sessionId, err := svc.sessionID(c, identity)
	if err != nil {
		err = fmt.Errorf("failed resolving chat session with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.ChatReply{}, err
	}
	logger = logger.With().Str(log.KeySessionID, sessionId).Logger()

	logger = logger.With().Str(log.KeyProcess, "relaying chat message").Logger()
	logger.Info().Msg("relaying chat message")
	envelope := struct {
		Data struct {
			Reply string `json:"reply"`
		} `json:"data"`
	}{}
	err = svc.upstream.Post(c, "/api/chat", map[string]string{
		"session_id": sessionId,
		"message":    message,
	}, &envelope)
	if err != nil {
		err = fmt.Errorf("failed relaying chat message with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.ChatReply{}, err
	}
	logger.Info().Msg("relayed chat message")

	return response.ChatReply{SessionID: sessionId, Reply: envelope.Data.Reply}, nil
}

// sessionID returns the pinned chat session for an identity, minting one on
// first use.
func (svc SupportService) sessionID(c context.Context, identity string) (string, error) {
	cacheKey := fmt.Sprintf(constants.KeyChatSession, identity)
	sessionId, err := svc.cache.Get(c, cacheKey).Result()
	if err == nil {
		return sessionId, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", err
	}

	sessionId = uuid.NewString()
	err = svc.cache.Set(c, cacheKey, sessionId, 0).Err()
	if err != nil {
		return "", err
	}
	return sessionId, nil
}
