package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkingpet/storefront/internal/constants"
	"github.com/talkingpet/storefront/internal/httpx"
	"github.com/talkingpet/storefront/internal/token"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject, role string, expiresIn time.Duration) string {
	claims := token.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(token.IdentityFromContext(r.Context())))
	})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestIdentify(t *testing.T) {
	handler := Identify(testSecret)(identityEcho())

	t.Run("given no token should pass through as anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, constants.AnonymousIdentity, rec.Body.String())
	})

	t.Run("given valid token should attach the session", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", constants.RoleCustomer, time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", rec.Body.String())
	})

	t.Run("given expired token should degrade to anonymous", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", constants.RoleCustomer, -time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code, "an invalid token must not reject the request")
		assert.Equal(t, constants.AnonymousIdentity, rec.Body.String())
	})

	t.Run("given garbage token should degrade to anonymous", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		r.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, constants.AnonymousIdentity, rec.Body.String())
	})
}

func TestAuthenticated(t *testing.T) {
	handler := Identify(testSecret)(Authenticated(identityEcho()))

	t.Run("given no session should point at login with the origin path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/checkout?step=2", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get(httpx.HeaderRedirectTo))
		body := decodeEnvelope(t, rec)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "/login", data["redirectTo"])
		assert.Equal(t, "/api/checkout?step=2", data["from"])
	})

	t.Run("given session should pass through", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/checkout", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", constants.RoleCustomer, time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRoleRestricted(t *testing.T) {
	adminOnly := Identify(testSecret)(
		RoleRestricted(constants.RoleAdmin)(identityEcho()))
	staffOnly := Identify(testSecret)(
		RoleRestricted(constants.RoleAdmin, constants.RoleEmployee)(identityEcho()))

	t.Run("given no session should point at the admin login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		adminOnly.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "/admin/login", rec.Header().Get(httpx.HeaderRedirectTo))
	})

	t.Run("given wrong role should point home", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", constants.RoleCustomer, time.Hour))
		rec := httptest.NewRecorder()
		adminOnly.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "/", rec.Header().Get(httpx.HeaderRedirectTo))
	})

	t.Run("given allowed role should pass through", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "emp-1", constants.RoleEmployee, time.Hour))
		rec := httptest.NewRecorder()
		staffOnly.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "emp-1", rec.Body.String())
	})

	t.Run("given staff gate should still point plain login when admin absent", func(t *testing.T) {
		onlyEmployee := Identify(testSecret)(
			RoleRestricted(constants.RoleEmployee)(identityEcho()))
		rec := httptest.NewRecorder()
		onlyEmployee.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookings", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get(httpx.HeaderRedirectTo))
	})
}
