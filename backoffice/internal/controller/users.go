package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/talkingpet/storefront/internal/constants"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/middleware"
	"github.com/talkingpet/storefront/internal/otel"
	"github.com/talkingpet/storefront/internal/upstream"
)

// UsersController forwards the back-office user administration surface. The
// whole subtree is admin-only.
type UsersController struct {
	upstream *upstream.Client
}

func AttachUsersController(router *mux.Router, upstreamClient *upstream.Client) {
	controller := UsersController{upstream: upstreamClient}

	sub := router.PathPrefix("/api/users").Subrouter()
	sub.Use(middleware.RoleRestricted(constants.RoleAdmin))
	sub.HandleFunc("", controller.forward(func(vars map[string]string) string {
		return "/api/users"
	})).Methods(http.MethodGet, http.MethodPost)
	sub.HandleFunc("/{userId}", controller.forward(func(vars map[string]string) string {
		return "/api/users/" + vars["userId"]
	})).Methods(http.MethodPatch, http.MethodDelete)
}

func (t UsersController) forward(build func(vars map[string]string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, span := otel.Tracer.Start(r.Context(), "UsersController Forward")
		defer span.End()

		path := build(mux.Vars(r))
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "UsersController Forward").
			Str(log.KeyUpstreamPath, path).
			Logger()
		c = logger.WithContext(c)

		t.upstream.Proxy(w, r.WithContext(c), path)
	}
}
