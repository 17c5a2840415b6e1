package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkingpet/storefront/internal/config"
	"github.com/talkingpet/storefront/internal/upstream"
)

func setupSupport(t *testing.T) (SupportService, *[]string) {
	sessionIds := &[]string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{}
		json.NewDecoder(r.Body).Decode(&payload)
		*sessionIds = append(*sessionIds, payload["session_id"])
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"reply": "woof"},
		})
	}))
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	return NewSupportService(
		upstream.NewClient(config.Upstream{BaseURL: server.URL, TimeoutSeconds: 5}),
		cache,
	), sessionIds
}

func TestSendMessage(t *testing.T) {
	svc, sessionIds := setupSupport(t)

	first, err := svc.SendMessage(context.Background(), "user-1", "hola")
	require.NoError(t, err)
	assert.Equal(t, "woof", first.Reply)
	assert.NotEmpty(t, first.SessionID)

	second, err := svc.SendMessage(context.Background(), "user-1", "otra pregunta")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID, "conversation is pinned per identity")
	assert.Equal(t, []string{first.SessionID, first.SessionID}, *sessionIds)

	other, err := svc.SendMessage(context.Background(), "user-2", "hola")
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, other.SessionID, "identities never share a conversation")
}
