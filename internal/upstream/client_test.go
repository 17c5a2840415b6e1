package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkingpet/storefront/internal/config"
	"github.com/talkingpet/storefront/internal/httpx"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/token"
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(config.Upstream{BaseURL: server.URL, TimeoutSeconds: 5})
}

func TestDoForwardsBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRequestId string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestId = r.Header.Get(httpx.HeaderRequestID)
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	defer server.Close()

	c := token.AttachSessionToContext(context.Background(), token.Session{Raw: "raw-token"})
	c = log.AttachRequestIDToContext(c, "req-42")
	err := newTestClient(server).Get(c, "/api/auth/me", nil)

	require.NoError(t, err)
	assert.Equal(t, "Bearer raw-token", gotAuth)
	assert.Equal(t, "req-42", gotRequestId)
}

func TestDoSkipsBearerWhenAnonymous(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	defer server.Close()

	err := newTestClient(server).Get(context.Background(), "/api/products", nil)

	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestDoDecodesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "failed",
			"message": "correo o contraseña incorrectos",
		})
	}))
	defer server.Close()

	err := newTestClient(server).Post(context.Background(), "/api/auth/login", map[string]string{}, nil)

	require.Error(t, err)
	var upstreamErr *Error
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusUnauthorized, upstreamErr.StatusCode)
	assert.Equal(t, "correo o contraseña incorrectos", Message(err, "fallback"))
}

func TestMessageFallsBack(t *testing.T) {
	assert.Equal(t, "fallback", Message(errors.New("connection refused"), "fallback"))
	assert.Equal(t, "fallback", Message(&Error{StatusCode: 500}, "fallback"))
}

func TestProxyStreamsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "page=2", r.URL.RawQuery)
		w.Header().Set(httpx.HeaderContentType, httpx.HeaderValueJson)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	r := httptest.NewRequest(http.MethodGet, "/api/products?page=2", nil)
	rec := httptest.NewRecorder()
	newTestClient(server).Proxy(rec, r, "/api/products")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
}
