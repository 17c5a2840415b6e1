package cmd

import (
	"github.com/gorilla/mux"

	"github.com/talkingpet/storefront/booking/internal/controller"
	"github.com/talkingpet/storefront/internal/upstream"
)

func AttachBookingApp(router *mux.Router, upstreamClient *upstream.Client) {
	controller.AttachBookingController(router, upstreamClient)
}
