package controller

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/talkingpet/storefront/internal/config"
	"github.com/talkingpet/storefront/internal/constants"
	"github.com/talkingpet/storefront/internal/httpx"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/middleware"
	"github.com/talkingpet/storefront/internal/otel"
	"github.com/talkingpet/storefront/internal/poller"
	"github.com/talkingpet/storefront/internal/upstream"
)

// OrderController forwards the order history surfaces and streams live
// tracking updates for a single order.
type OrderController struct {
	upstream *upstream.Client
	config   config.Checkout
}

func AttachOrderController(
	router *mux.Router,
	upstreamClient *upstream.Client,
	cfg config.Checkout,
) {
	controller := OrderController{upstream: upstreamClient, config: cfg}
	adminOnly := middleware.RoleRestricted(constants.RoleAdmin)

	sub := router.PathPrefix("/api/orders").Subrouter()
	sub.Handle("/mine", middleware.Authenticated(controller.forward(
		func(vars map[string]string) string {
			return "/api/orders/mine"
		}))).Methods(http.MethodGet)
	sub.Handle("/admin/summary", adminOnly(controller.forward(
		func(vars map[string]string) string {
			return "/api/orders/admin/summary"
		}))).Methods(http.MethodGet)
	sub.Handle("/admin", adminOnly(controller.forward(func(vars map[string]string) string {
		return "/api/orders/admin"
	}))).Methods(http.MethodGet)
	sub.Handle("/{orderId}", middleware.Authenticated(controller.forward(
		func(vars map[string]string) string {
			return "/api/orders/" + vars["orderId"]
		}))).Methods(http.MethodGet)
	sub.Handle("/{orderId}/track", middleware.Authenticated(controller.forward(
		func(vars map[string]string) string {
			return "/api/orders/" + vars["orderId"] + "/track"
		}))).Methods(http.MethodGet)
	sub.Handle("/{orderId}/track/stream", middleware.Authenticated(
		http.HandlerFunc(controller.TrackStream))).Methods(http.MethodGet)
}

// TrackStream polls the tracking status upstream at a fixed interval and
// pushes each status as a server-sent event until the order reaches a
// terminal status or the client disconnects.
func (t OrderController) TrackStream(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController TrackStream")
	defer span.End()

	orderId := mux.Vars(r)["orderId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController TrackStream").
		Str(log.KeyOrderID, orderId).
		Logger()
	c = logger.WithContext(c)

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    "streaming unsupported",
		})
		return
	}
	w.Header().Set(httpx.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	tracker := poller.New(
		time.Duration(t.config.TrackPollSeconds)*time.Second,
		func(c context.Context) (string, error) {
			envelope := struct {
				Data struct {
					Status string `json:"status"`
				} `json:"data"`
			}{}
			err := t.upstream.Get(c, "/api/orders/"+orderId+"/track", &envelope)
			if err != nil {
				return "", err
			}
			return envelope.Data.Status, nil
		},
		func(status string) bool {
			return status == "delivered" || status == "cancelled"
		},
	)

	logger.Info().Msg("streaming order tracking")
	tracker.Run(c, func(status string) {
		fmt.Fprintf(w, "event: status\ndata: %s\n\n", status)
		flusher.Flush()
	})
	logger.Info().Msg("stopped streaming order tracking")
}

func (t OrderController) forward(build func(vars map[string]string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, span := otel.Tracer.Start(r.Context(), "OrderController Forward")
		defer span.End()

		path := build(mux.Vars(r))
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "OrderController Forward").
			Str(log.KeyUpstreamPath, path).
			Logger()
		c = logger.WithContext(c)

		t.upstream.Proxy(w, r.WithContext(c), path)
	}
}
