package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/middleware"
	"github.com/talkingpet/storefront/internal/otel"
	"github.com/talkingpet/storefront/internal/upstream"
)

// MedicalController forwards the pet medical-record surface. Owners read and
// append their own pets' histories; the core API enforces ownership.
type MedicalController struct {
	upstream *upstream.Client
}

func AttachMedicalController(router *mux.Router, upstreamClient *upstream.Client) {
	controller := MedicalController{upstream: upstreamClient}

	sub := router.PathPrefix("/api/medical").Subrouter()
	sub.Use(middleware.Authenticated)
	sub.HandleFunc("/mis-mascotas", controller.forward(func(vars map[string]string) string {
		return "/api/medical/mis-mascotas"
	})).Methods(http.MethodGet, http.MethodPost)

	for _, section := range []string{"expediente", "vacunas", "consultas", "medicamentos", "alergias"} {
		section := section
		sub.HandleFunc("/pet/{petId}/"+section, controller.forward(
			func(vars map[string]string) string {
				return "/api/medical/pet/" + vars["petId"] + "/" + section
			})).Methods(http.MethodGet, http.MethodPost)
	}
}

func (t MedicalController) forward(build func(vars map[string]string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, span := otel.Tracer.Start(r.Context(), "MedicalController Forward")
		defer span.End()

		path := build(mux.Vars(r))
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "MedicalController Forward").
			Str(log.KeyUpstreamPath, path).
			Logger()
		c = logger.WithContext(c)

		t.upstream.Proxy(w, r.WithContext(c), path)
	}
}
