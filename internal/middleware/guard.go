package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/talkingpet/storefront/internal/constants"
	inErrors "github.com/talkingpet/storefront/internal/errors"
	"github.com/talkingpet/storefront/internal/httpx"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/token"
)

const (
	loginRoute      = "/login"
	adminLoginRoute = "/admin/login"
	homeRoute       = "/"
)

// Identify parses the bearer token when one is present and attaches the
// session to the request context. It never rejects: the cart and the public
// catalog work for anonymous visitors.
func Identify(secretKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).
				With().
				Str(log.KeyTag, "middleware Identify").
				Logger()
			c := logger.WithContext(r.Context())

			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r.WithContext(c))
				return
			}

			claims, err := token.Verify(c, secretKey, raw)
			if err != nil {
				// An expired or garbage token degrades to anonymous, the
				// same way the browser client silently resets its session.
				logger.Info().Err(err).Msg("ignoring invalid bearer token")
				next.ServeHTTP(w, r.WithContext(c))
				return
			}

			c = token.AttachSessionToContext(c, token.Session{Raw: raw, Claims: claims})
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

// Authenticated gates a subtree to logged-in users. The originally requested
// path is echoed back so the client can return to it after login.
func Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context()).
			With().
			Str(log.KeyTag, "middleware Authenticated").
			Logger()
		c := logger.WithContext(r.Context())

		if _, ok := token.SessionFromContext(c); !ok {
			logger.Error().
				Err(inErrors.ErrEmptyAuth).
				Msg(inErrors.ErrEmptyAuth.Error())
			httpx.WriteJsonResponse(c, w,
				map[string]string{httpx.HeaderRedirectTo: loginRoute},
				map[string]interface{}{
					"status":     "failed",
					"statusCode": http.StatusUnauthorized,
					"message":    inErrors.ErrEmptyAuth.Error(),
					"data": map[string]interface{}{
						"redirectTo": loginRoute,
						"from":       r.URL.RequestURI(),
					},
				})
			return
		}

		next.ServeHTTP(w, r.WithContext(c))
	})
}

// RoleRestricted gates a subtree to an allowed-role set. Unauthenticated
// requests are pointed at the admin login when the admin role is among the
// allowed set; a logged-in user with the wrong role is pointed home instead.
func RoleRestricted(roles ...string) func(http.Handler) http.Handler {
	login := loginRoute
	if slices.Contains(roles, constants.RoleAdmin) {
		login = adminLoginRoute
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).
				With().
				Str(log.KeyTag, "middleware RoleRestricted").
				Strs("allowedRoles", roles).
				Logger()
			c := logger.WithContext(r.Context())

			session, ok := token.SessionFromContext(c)
			if !ok {
				logger.Error().
					Err(inErrors.ErrEmptyAuth).
					Msg(inErrors.ErrEmptyAuth.Error())
				httpx.WriteJsonResponse(c, w,
					map[string]string{httpx.HeaderRedirectTo: login},
					map[string]interface{}{
						"status":     "failed",
						"statusCode": http.StatusUnauthorized,
						"message":    inErrors.ErrEmptyAuth.Error(),
						"data": map[string]interface{}{
							"redirectTo": login,
							"from":       r.URL.RequestURI(),
						},
					})
				return
			}

			if !slices.Contains(roles, session.Claims.Role) {
				logger.Error().
					Err(inErrors.ErrRoleForbidden).
					Str(log.KeyRole, session.Claims.Role).
					Msg(inErrors.ErrRoleForbidden.Error())
				httpx.WriteJsonResponse(c, w,
					map[string]string{httpx.HeaderRedirectTo: homeRoute},
					map[string]interface{}{
						"status":     "failed",
						"statusCode": http.StatusForbidden,
						"message":    inErrors.ErrRoleForbidden.Error(),
						"data": map[string]interface{}{
							"redirectTo": homeRoute,
						},
					})
				return
			}

			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

func bearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	const prefix = "bearer "
	if len(authorization) <= len(prefix) ||
		!strings.EqualFold(authorization[:len(prefix)], prefix) {
		return ""
	}
	return authorization[len(prefix):]
}
