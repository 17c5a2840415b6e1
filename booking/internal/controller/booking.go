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

// BookingController forwards the service-booking surface. Availability is
// public so the booking picker works before login; everything else needs a
// session, and the staff views need the matching role.
type BookingController struct {
	upstream *upstream.Client
}

func AttachBookingController(router *mux.Router, upstreamClient *upstream.Client) {
	controller := BookingController{upstream: upstreamClient}
	staffOnly := middleware.RoleRestricted(constants.RoleAdmin, constants.RoleEmployee)

	sub := router.PathPrefix("/api/bookings").Subrouter()
	sub.HandleFunc("/availability", controller.forward(func(vars map[string]string) string {
		return "/api/bookings/availability"
	})).Methods(http.MethodGet)
	sub.Handle("/mine", middleware.Authenticated(controller.forward(
		func(vars map[string]string) string {
			return "/api/bookings/mine"
		}))).Methods(http.MethodGet)
	sub.Handle("", middleware.Authenticated(controller.forward(
		func(vars map[string]string) string {
			return "/api/bookings"
		}))).Methods(http.MethodPost)
	sub.Handle("/all", middleware.RoleRestricted(constants.RoleAdmin)(controller.forward(
		func(vars map[string]string) string {
			return "/api/bookings/all"
		}))).Methods(http.MethodGet)
	sub.Handle("/employee", staffOnly(controller.forward(
		func(vars map[string]string) string {
			return "/api/bookings/employee"
		}))).Methods(http.MethodGet)
	sub.Handle("/{bookingId}/status", staffOnly(controller.forward(
		func(vars map[string]string) string {
			return "/api/bookings/" + vars["bookingId"] + "/status"
		}))).Methods(http.MethodPatch)
}

func (t BookingController) forward(build func(vars map[string]string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, span := otel.Tracer.Start(r.Context(), "BookingController Forward")
		defer span.End()

		path := build(mux.Vars(r))
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "BookingController Forward").
			Str(log.KeyUpstreamPath, path).
			Logger()
		c = logger.WithContext(c)

		t.upstream.Proxy(w, r.WithContext(c), path)
	}
}
