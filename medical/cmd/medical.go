package cmd

import (
	"github.com/gorilla/mux"

	"github.com/talkingpet/storefront/internal/upstream"
	"github.com/talkingpet/storefront/medical/internal/controller"
)

func AttachMedicalApp(router *mux.Router, upstreamClient *upstream.Client) {
	controller.AttachMedicalController(router, upstreamClient)
}
