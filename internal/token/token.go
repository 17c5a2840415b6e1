package token

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/talkingpet/storefront/internal/constants"
	inErrors "github.com/talkingpet/storefront/internal/errors"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/otel"
)

// Claims is the shape the upstream auth issuer signs. Subject carries the user
// id and Role one of customer/employee/admin.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func Verify(c context.Context, secretKey string, raw string) (*Claims, error) {
	c, span := otel.Tracer.Start(c, "token Verify")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "token Verify").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing claims").Logger()
	logger.Trace().Msg("parsing claims")
	claims := Claims{}
	jwtToken, err := jwt.ParseWithClaims(raw,
		&claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing claims with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("parsed claims")

	logger = logger.With().Str(log.KeyProcess, "validating token").Logger()
	logger.Trace().Msg("validating token")
	if !jwtToken.Valid {
		err = fmt.Errorf("failed validating token with error=%w", inErrors.ErrTokenInvalid)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, inErrors.ErrTokenInvalid
	}
	logger = logger.With().
		Str(log.KeyUserID, claims.Subject).
		Str(log.KeyRole, claims.Role).
		Logger()
	logger.Info().Msg("validated token")

	return &claims, nil
}

type sessionKey struct{}

type Session struct {
	Raw    string
	Claims *Claims
}

func AttachSessionToContext(c context.Context, s Session) context.Context {
	return context.WithValue(c, sessionKey{}, s)
}

func SessionFromContext(c context.Context) (Session, bool) {
	s, ok := c.Value(sessionKey{}).(Session)
	return s, ok
}

// IdentityFromContext resolves the cart/session partition key: the subject of
// a verified token, or the shared anonymous identity when not logged in.
func IdentityFromContext(c context.Context) string {
	s, ok := SessionFromContext(c)
	if !ok || s.Claims == nil || s.Claims.Subject == "" {
		return constants.AnonymousIdentity
	}
	return s.Claims.Subject
}

// BearerFromContext returns the raw token for forwarding upstream, empty when
// the request is anonymous.
func BearerFromContext(c context.Context) string {
	s, ok := SessionFromContext(c)
	if !ok {
		return ""
	}
	return s.Raw
}
