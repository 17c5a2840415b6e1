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

// CatalogController forwards the product, service and course surfaces to the
// core API. Reads are public; writes stay behind the admin role.
type CatalogController struct {
	upstream *upstream.Client
}

func AttachCatalogController(router *mux.Router, upstreamClient *upstream.Client) {
	controller := CatalogController{upstream: upstreamClient}
	adminOnly := middleware.RoleRestricted(constants.RoleAdmin)

	products := router.PathPrefix("/api/products").Subrouter()
	products.HandleFunc("", controller.forward(func(vars map[string]string) string {
		return "/api/products"
	})).Methods(http.MethodGet)
	products.HandleFunc("/{productId}", controller.forward(func(vars map[string]string) string {
		return "/api/products/" + vars["productId"]
	})).Methods(http.MethodGet)
	products.Handle("", adminOnly(controller.forward(func(vars map[string]string) string {
		return "/api/products"
	}))).Methods(http.MethodPost)
	products.Handle("/{productId}", adminOnly(controller.forward(func(vars map[string]string) string {
		return "/api/products/" + vars["productId"]
	}))).Methods(http.MethodPut, http.MethodDelete)

	services := router.PathPrefix("/api/services").Subrouter()
	services.HandleFunc("", controller.forward(func(vars map[string]string) string {
		return "/api/services"
	})).Methods(http.MethodGet)
	services.HandleFunc("/{serviceId}", controller.forward(func(vars map[string]string) string {
		return "/api/services/" + vars["serviceId"]
	})).Methods(http.MethodGet)
	services.Handle("", adminOnly(controller.forward(func(vars map[string]string) string {
		return "/api/services"
	}))).Methods(http.MethodPost)
	services.Handle("/{serviceId}", adminOnly(controller.forward(func(vars map[string]string) string {
		return "/api/services/" + vars["serviceId"]
	}))).Methods(http.MethodPut, http.MethodDelete)

	courses := router.PathPrefix("/api/courses").Subrouter()
	courses.Handle("/mine", middleware.Authenticated(controller.forward(
		func(vars map[string]string) string {
			return "/api/courses/mine"
		}))).Methods(http.MethodGet)
	courses.Handle("/admin/list", adminOnly(controller.forward(
		func(vars map[string]string) string {
			return "/api/courses/admin/list"
		}))).Methods(http.MethodGet)
	courses.HandleFunc("", controller.forward(func(vars map[string]string) string {
		return "/api/courses"
	})).Methods(http.MethodGet)
	courses.HandleFunc("/{courseId}", controller.forward(func(vars map[string]string) string {
		return "/api/courses/" + vars["courseId"]
	})).Methods(http.MethodGet)
	courses.Handle("/{courseId}/enroll", middleware.Authenticated(controller.forward(
		func(vars map[string]string) string {
			return "/api/courses/" + vars["courseId"] + "/enroll"
		}))).Methods(http.MethodPost)
	courses.Handle("", adminOnly(controller.forward(func(vars map[string]string) string {
		return "/api/courses"
	}))).Methods(http.MethodPost)
	courses.Handle("/{courseId}", adminOnly(controller.forward(func(vars map[string]string) string {
		return "/api/courses/" + vars["courseId"]
	}))).Methods(http.MethodPut, http.MethodDelete)
}

func (t CatalogController) forward(build func(vars map[string]string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, span := otel.Tracer.Start(r.Context(), "CatalogController Forward")
		defer span.End()

		path := build(mux.Vars(r))
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "CatalogController Forward").
			Str(log.KeyUpstreamPath, path).
			Logger()
		c = logger.WithContext(c)

		t.upstream.Proxy(w, r.WithContext(c), path)
	}
}
