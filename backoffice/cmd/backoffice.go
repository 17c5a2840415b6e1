package cmd

import (
	"github.com/gorilla/mux"

	"github.com/talkingpet/storefront/backoffice/internal/controller"
	"github.com/talkingpet/storefront/internal/upstream"
)

func AttachBackofficeApp(router *mux.Router, upstreamClient *upstream.Client) {
	controller.AttachUsersController(router, upstreamClient)
}
