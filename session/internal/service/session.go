package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/talkingpet/storefront/internal/constants"
	inErrors "github.com/talkingpet/storefront/internal/errors"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/otel"
	"github.com/talkingpet/storefront/internal/token"
	"github.com/talkingpet/storefront/internal/upstream"
	"github.com/talkingpet/storefront/session/pkg/request"
	"github.com/talkingpet/storefront/session/pkg/response"
)

type SessionService struct {
	upstream *upstream.Client
	cache    *redis.Client
}

func NewSessionService(upstream *upstream.Client, cache *redis.Client) SessionService {
	return SessionService{upstream: upstream, cache: cache}
}

// Bootstrap resolves the current user from the bearer token in context. Any
// failure degrades to logged-out: the error is swallowed and logged, never
// surfaced, the same way the browser client treated a dead session.
func (svc SessionService) Bootstrap(c context.Context) *response.User {
	c, span := otel.Tracer.Start(c, "SessionService Bootstrap")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionService Bootstrap").
		Logger()

	if token.BearerFromContext(c) == "" {
		return nil
	}

	logger = logger.With().Str(log.KeyProcess, "fetching current user").Logger()
	logger.Info().Msg("fetching current user")
	envelope := struct {
		Data struct {
			User response.User `json:"user"`
		} `json:"data"`
	}{}
	err := svc.upstream.Get(c, "/api/auth/me", &envelope)
	if err != nil {
		err = fmt.Errorf("failed fetching current user with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Info().Err(err).Msg("treating session as logged out")
		return nil
	}
	logger.Info().Msg("fetched current user")

	user := envelope.Data.User
	svc.cacheUser(c, user)
	return &user
}

// Login posts credentials upstream, keeps the returned token and re-fetches
// the profile with it. Failures propagate to the caller.
func (svc SessionService) Login(
	c context.Context,
	param request.Login,
) (response.Credentials, *response.User, error) {
	c, span := otel.Tracer.Start(c, "SessionService Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionService Login").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "posting credentials").Logger()
	logger.Info().Msg("posting credentials")
	credentials, err := svc.exchange(c, "/api/auth/login", param)
	if err != nil {
		err = fmt.Errorf("failed logging in with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Credentials{}, nil, err
	}
	logger.Info().Msg("posted credentials")

	logger = logger.With().Str(log.KeyProcess, "fetching profile").Logger()
	logger.Info().Msg("fetching profile")
	c = token.AttachSessionToContext(c, token.Session{Raw: credentials.Token})
	user := svc.Bootstrap(logger.WithContext(c))
	logger.Info().Msg("fetched profile")

	return credentials, user, nil
}

// Register is login's twin over /api/auth/register.
func (svc SessionService) Register(
	c context.Context,
	param request.Register,
) (response.Credentials, *response.User, error) {
	c, span := otel.Tracer.Start(c, "SessionService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionService Register").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "registering account").Logger()
	logger.Info().Msg("registering account")
	credentials, err := svc.exchange(c, "/api/auth/register", param)
	if err != nil {
		err = fmt.Errorf("failed registering account with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Credentials{}, nil, err
	}
	logger.Info().Msg("registered account")

	c = token.AttachSessionToContext(c, token.Session{Raw: credentials.Token})
	user := svc.Bootstrap(logger.WithContext(c))

	return credentials, user, nil
}

// Logout drops the cached profile. There is no upstream call: the token is
// the caller's to discard, and the cart identity switches to anonymous on the
// next request by itself.
func (svc SessionService) Logout(c context.Context, identity string) {
	c, span := otel.Tracer.Start(c, "SessionService Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionService Logout").
		Str(log.KeyIdentity, identity).
		Logger()

	err := svc.cache.Del(c, fmt.Sprintf(constants.KeySessionUser, identity)).Err()
	if err != nil {
		logger.Error().Err(err).Msgf("failed dropping cached profile with error=%s", err.Error())
		return
	}
	logger.Info().Msg("dropped cached profile")
}

// UpdateUser shallow-merges a patch into the cached profile, only when one is
// set. Used to reflect server-confirmed changes, balance after a purchase or
// a theme switch, without a full refetch.
func (svc SessionService) UpdateUser(
	c context.Context,
	identity string,
	patch map[string]interface{},
) *response.User {
	c, span := otel.Tracer.Start(c, "SessionService UpdateUser")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionService UpdateUser").
		Str(log.KeyIdentity, identity).
		Logger()

	cacheKey := fmt.Sprintf(constants.KeySessionUser, identity)
	payload, err := svc.cache.Get(c, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Msgf("failed reading cached profile with error=%s", err.Error())
		return nil
	}

	merged := map[string]interface{}{}
	err = json.Unmarshal(payload, &merged)
	if err != nil {
		logger.Error().Err(err).Msgf("failed unmarshaling cached profile with error=%s", err.Error())
		return nil
	}
	for k, v := range patch {
		merged[k] = v
	}

	remarshaled, err := json.Marshal(merged)
	if err != nil {
		logger.Error().Err(err).Msgf("failed marshaling merged profile with error=%s", err.Error())
		return nil
	}
	err = svc.cache.Set(c, cacheKey, remarshaled, 0).Err()
	if err != nil {
		logger.Error().Err(err).Msgf("failed writing merged profile with error=%s", err.Error())
		return nil
	}

	user := response.User{}
	err = json.Unmarshal(remarshaled, &user)
	if err != nil {
		logger.Error().Err(err).Msgf("failed unmarshaling merged profile with error=%s", err.Error())
		return nil
	}
	logger.Info().Msg("patched cached profile")
	return &user
}

// RefreshBalance refetches the profile and keeps only the server-confirmed
// balance. Best effort: a failure leaves the cached balance alone.
func (svc SessionService) RefreshBalance(c context.Context, identity string) {
	c, span := otel.Tracer.Start(c, "SessionService RefreshBalance")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionService RefreshBalance").
		Str(log.KeyIdentity, identity).
		Logger()

	user := svc.Bootstrap(logger.WithContext(c))
	if user == nil {
		logger.Info().Msg("skipping balance refresh, no session")
		return
	}
	svc.UpdateUser(c, identity, map[string]interface{}{"balance": user.Balance})
}

func (svc SessionService) exchange(
	c context.Context,
	path string,
	body interface{},
) (response.Credentials, error) {
	envelope := struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}{}
	err := svc.upstream.Post(c, path, body, &envelope)
	if err != nil {
		return response.Credentials{}, err
	}
	return response.Credentials{Token: envelope.Data.Token}, nil
}

func (svc SessionService) cacheUser(c context.Context, user response.User) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionService cacheUser").
		Str(log.KeyUserID, user.ID).
		Logger()

	payload, err := json.Marshal(user)
	if err != nil {
		logger.Error().Err(err).Msgf("failed marshaling profile with error=%s", err.Error())
		return
	}
	err = svc.cache.Set(c, fmt.Sprintf(constants.KeySessionUser, user.ID), payload, 0).Err()
	if err != nil {
		logger.Error().Err(err).Msgf("failed caching profile with error=%s", err.Error())
	}
}
