package cmd

import (
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/talkingpet/storefront/cart/internal/controller"
	"github.com/talkingpet/storefront/cart/internal/service"
	"github.com/talkingpet/storefront/cart/internal/store"
)

// AttachCartApp wires the cart surface into the shared router and hands the
// cart service back so checkout can read and clear snapshots.
func AttachCartApp(router *mux.Router, cache *redis.Client) service.CartService {
	snapshots := store.NewSnapshotStore(cache)
	cartService := service.NewCartService(snapshots)
	controller.AttachCartController(router, &cartService)
	return cartService
}
