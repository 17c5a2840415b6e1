package cmd

import (
	"github.com/gorilla/mux"

	"github.com/talkingpet/storefront/catalog/internal/controller"
	"github.com/talkingpet/storefront/internal/upstream"
)

func AttachCatalogApp(router *mux.Router, upstreamClient *upstream.Client) {
	controller.AttachCatalogController(router, upstreamClient)
}
