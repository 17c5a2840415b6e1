package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkingpet/storefront/internal/config"
	"github.com/talkingpet/storefront/internal/constants"
	"github.com/talkingpet/storefront/internal/token"
	"github.com/talkingpet/storefront/internal/upstream"
	"github.com/talkingpet/storefront/session/pkg/request"
)

func setupSession(t *testing.T) (SessionService, *redis.Client) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/me":
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]interface{}{"message": "no token"})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"user": map[string]interface{}{
						"id":      "user-1",
						"name":    "Ana",
						"email":   "ana@example.com",
						"role":    "customer",
						"balance": "150",
						"theme":   "light",
					},
				},
			})
		case "/api/auth/login":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"token": "fresh-token"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{"message": "not found"})
		}
	}))
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	return NewSessionService(
		upstream.NewClient(config.Upstream{BaseURL: server.URL, TimeoutSeconds: 5}),
		cache,
	), cache
}

func TestBootstrap(t *testing.T) {
	t.Run("given no bearer should report logged out", func(t *testing.T) {
		svc, _ := setupSession(t)
		assert.Nil(t, svc.Bootstrap(context.Background()))
	})

	t.Run("given bearer should fetch and cache the profile", func(t *testing.T) {
		svc, cache := setupSession(t)
		c := token.AttachSessionToContext(context.Background(), token.Session{Raw: "some-token"})

		user := svc.Bootstrap(c)

		require.NotNil(t, user)
		assert.Equal(t, "user-1", user.ID)
		assert.Equal(t, "Ana", user.Name)

		cached, err := cache.Get(context.Background(),
			fmt.Sprintf(constants.KeySessionUser, "user-1")).Result()
		require.NoError(t, err)
		assert.Contains(t, cached, "ana@example.com")
	})
}

func TestLogin(t *testing.T) {
	svc, _ := setupSession(t)

	credentials, user, err := svc.Login(context.Background(), request.Login{
		Email:    "ana@example.com",
		Password: "secret",
	})

	require.NoError(t, err)
	assert.Equal(t, "fresh-token", credentials.Token)
	require.NotNil(t, user, "profile is re-fetched with the fresh token")
	assert.Equal(t, "user-1", user.ID)
}

func TestLogout(t *testing.T) {
	svc, cache := setupSession(t)
	c := token.AttachSessionToContext(context.Background(), token.Session{Raw: "some-token"})
	require.NotNil(t, svc.Bootstrap(c))

	svc.Logout(context.Background(), "user-1")

	err := cache.Get(context.Background(),
		fmt.Sprintf(constants.KeySessionUser, "user-1")).Err()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestUpdateUser(t *testing.T) {
	t.Run("given cached profile should shallow merge the patch", func(t *testing.T) {
		svc, _ := setupSession(t)
		c := token.AttachSessionToContext(context.Background(), token.Session{Raw: "some-token"})
		require.NotNil(t, svc.Bootstrap(c))

		user := svc.UpdateUser(context.Background(), "user-1", map[string]interface{}{
			"theme": "dark",
		})

		require.NotNil(t, user)
		assert.Equal(t, "dark", user.Theme)
		assert.Equal(t, "Ana", user.Name, "untouched fields survive the merge")
	})

	t.Run("given no cached profile should be a no-op", func(t *testing.T) {
		svc, _ := setupSession(t)
		assert.Nil(t, svc.UpdateUser(context.Background(), "user-1", map[string]interface{}{
			"theme": "dark",
		}))
	})
}
