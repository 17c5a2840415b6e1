package cmd

import (
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/talkingpet/storefront/internal/upstream"
	"github.com/talkingpet/storefront/support/internal/controller"
	"github.com/talkingpet/storefront/support/internal/service"
)

func AttachSupportApp(
	router *mux.Router,
	upstreamClient *upstream.Client,
	cache *redis.Client,
) {
	supportService := service.NewSupportService(upstreamClient, cache)
	controller.AttachSupportController(router, &supportService, upstreamClient)
}
