package cmd

import (
	"github.com/gorilla/mux"

	"github.com/talkingpet/storefront/internal/config"
	"github.com/talkingpet/storefront/internal/upstream"
	"github.com/talkingpet/storefront/order/internal/controller"
)

func AttachOrderApp(router *mux.Router, upstreamClient *upstream.Client, cfg config.Checkout) {
	controller.AttachOrderController(router, upstreamClient, cfg)
}
