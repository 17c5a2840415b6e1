package cmd

import (
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/talkingpet/storefront/internal/upstream"
	"github.com/talkingpet/storefront/session/internal/controller"
	"github.com/talkingpet/storefront/session/internal/service"
)

// AttachSessionApp wires the auth surface into the shared router and hands
// the session service back so checkout can re-sync balances.
func AttachSessionApp(
	router *mux.Router,
	upstreamClient *upstream.Client,
	cache *redis.Client,
) service.SessionService {
	sessionService := service.NewSessionService(upstreamClient, cache)
	controller.AttachSessionController(router, &sessionService, upstreamClient)
	return sessionService
}
