package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkingpet/storefront/internal/config"
	"github.com/talkingpet/storefront/internal/constants"
	"github.com/talkingpet/storefront/internal/httpx"
	"github.com/talkingpet/storefront/internal/middleware"
	"github.com/talkingpet/storefront/internal/token"
	"github.com/talkingpet/storefront/internal/upstream"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject, role string) string {
	claims := token.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func setupCatalog(t *testing.T) (*mux.Router, *[]string) {
	upstreamCalls := &[]string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*upstreamCalls = append(*upstreamCalls, r.Method+" "+r.URL.Path)
		w.Header().Set(httpx.HeaderContentType, httpx.HeaderValueJson)
		w.Write([]byte(`{"status":"success"}`))
	}))
	t.Cleanup(server.Close)

	router := mux.NewRouter()
	router.Use(middleware.Identify(testSecret))
	AttachCatalogController(router,
		upstream.NewClient(config.Upstream{BaseURL: server.URL, TimeoutSeconds: 5}))
	return router, upstreamCalls
}

func TestCatalogRoutes(t *testing.T) {
	t.Run("given anonymous visitor product list should proxy through", func(t *testing.T) {
		router, upstreamCalls := setupCatalog(t)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"GET /api/products"}, *upstreamCalls)
	})

	t.Run("given product detail should interpolate the id", func(t *testing.T) {
		router, upstreamCalls := setupCatalog(t)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/p-9", nil))

		assert.Equal(t, []string{"GET /api/products/p-9"}, *upstreamCalls)
	})

	t.Run("given anonymous product create should hint the admin login", func(t *testing.T) {
		router, upstreamCalls := setupCatalog(t)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "/admin/login", rec.Header().Get(httpx.HeaderRedirectTo))
		assert.Empty(t, *upstreamCalls, "the gate must stop the request before the proxy")
	})

	t.Run("given customer product create should be forbidden", func(t *testing.T) {
		router, upstreamCalls := setupCatalog(t)
		r := httptest.NewRequest(http.MethodPost, "/api/products", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", constants.RoleCustomer))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, *upstreamCalls)
	})

	t.Run("given admin product create should proxy through", func(t *testing.T) {
		router, upstreamCalls := setupCatalog(t)
		r := httptest.NewRequest(http.MethodPost, "/api/products", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "admin-1", constants.RoleAdmin))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"POST /api/products"}, *upstreamCalls)
	})

	t.Run("given anonymous my courses should require login", func(t *testing.T) {
		router, upstreamCalls := setupCatalog(t)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses/mine", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get(httpx.HeaderRedirectTo))
		assert.Empty(t, *upstreamCalls)
	})

	t.Run("given logged in enroll should proxy through", func(t *testing.T) {
		router, upstreamCalls := setupCatalog(t)
		r := httptest.NewRequest(http.MethodPost, "/api/courses/c-1/enroll", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", constants.RoleCustomer))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"POST /api/courses/c-1/enroll"}, *upstreamCalls)
	})
}
