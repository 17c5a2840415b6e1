package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/talkingpet/storefront/checkout/internal/service"
	"github.com/talkingpet/storefront/checkout/pkg/request"
	"github.com/talkingpet/storefront/internal/config"
	inErrors "github.com/talkingpet/storefront/internal/errors"
	"github.com/talkingpet/storefront/internal/httpx"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/middleware"
	"github.com/talkingpet/storefront/internal/otel"
	"github.com/talkingpet/storefront/internal/poller"
	"github.com/talkingpet/storefront/internal/token"
	"github.com/talkingpet/storefront/internal/upstream"
)

type CheckoutController struct {
	service  *service.CheckoutService
	upstream *upstream.Client
	config   config.Checkout
}

func AttachCheckoutController(
	router *mux.Router,
	service *service.CheckoutService,
	upstreamClient *upstream.Client,
	cfg config.Checkout,
) {
	controller := CheckoutController{service: service, upstream: upstreamClient, config: cfg}

	sub := router.PathPrefix("/api/checkout").Subrouter()
	sub.Use(middleware.Authenticated)
	sub.HandleFunc("", controller.Status).Methods(http.MethodGet)
	sub.HandleFunc("", controller.Submit).Methods(http.MethodPost)
	sub.HandleFunc("/quote", controller.Quote).Methods(http.MethodGet)
	sub.HandleFunc("/payment/confirm", controller.ConfirmPayment).Methods(http.MethodPost)
	sub.HandleFunc("/payment/fail", controller.FailPayment).Methods(http.MethodPost)
	sub.HandleFunc("/payment/retry", controller.RetryPayment).Methods(http.MethodPost)
	sub.HandleFunc("/qr/{paymentId}/wait", controller.WaitQrPayment).Methods(http.MethodGet)

	payments := router.PathPrefix("/api/payments").Subrouter()
	payments.Use(middleware.Authenticated)
	payments.HandleFunc("/stripe/create-session", controller.proxy("/api/payments/stripe/create-session")).
		Methods(http.MethodPost)
	payments.HandleFunc("/qr/generate", controller.proxy("/api/payments/qr/generate")).
		Methods(http.MethodPost)
	payments.HandleFunc("/qr/status/{paymentId}", controller.QrStatus).Methods(http.MethodGet)
	payments.HandleFunc("/qr/simulate", controller.proxy("/api/payments/qr/simulate")).
		Methods(http.MethodPost)

	customers := router.PathPrefix("/api/customers").Subrouter()
	customers.Use(middleware.Authenticated)
	customers.HandleFunc("/service-address", controller.proxy("/api/customers/service-address")).
		Methods(http.MethodGet, http.MethodPost)
}

func (t CheckoutController) Quote(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController Quote")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController Quote").
		Logger()

	identity := token.IdentityFromContext(c)
	logger = logger.With().Str(log.KeyIdentity, identity).Logger()
	c = logger.WithContext(c)
	quote := t.service.Quote(c, identity)

	httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "quoted checkout",
		"data": map[string]interface{}{
			"quote": quote,
		},
	})
}

func (t CheckoutController) Submit(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController Submit")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController Submit").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.Submit{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	identity := token.IdentityFromContext(c)
	logger = logger.With().
		Str(log.KeyIdentity, identity).
		Str(log.KeyPaymentMethod, reqBody.PaymentMethod).
		Str(log.KeyProcess, "submitting checkout").
		Logger()
	logger.Info().Msg("submitting checkout")
	c = logger.WithContext(c)
	checkout, err := t.service.Submit(c, identity, reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusFor(err),
			"message":    upstream.Message(err, err.Error()),
		})
		return
	}
	logger.Info().Msg("submitted checkout")

	httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "submitted checkout",
		"data": map[string]interface{}{
			"checkout": checkout,
		},
	})
}

func (t CheckoutController) Status(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController Status")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController Status").
		Logger()

	identity := token.IdentityFromContext(c)
	c = logger.WithContext(c)
	checkout, err := t.service.Status(c, identity)
	if err != nil {
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusFor(err),
			"message":    err.Error(),
		})
		return
	}

	httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found checkout",
		"data": map[string]interface{}{
			"checkout": checkout,
		},
	})
}

func (t CheckoutController) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController ConfirmPayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController ConfirmPayment").
		Logger()

	identity := token.IdentityFromContext(c)
	logger = logger.With().
		Str(log.KeyIdentity, identity).
		Str(log.KeyProcess, "confirming payment").
		Logger()
	logger.Info().Msg("confirming payment")
	c = logger.WithContext(c)
	checkout, err := t.service.ConfirmPayment(c, identity)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusFor(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("confirmed payment")

	httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "confirmed payment",
		"data": map[string]interface{}{
			"checkout": checkout,
		},
	})
}

func (t CheckoutController) FailPayment(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController FailPayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController FailPayment").
		Logger()

	reqBody := request.FailPayment{}
	// The body is optional: a missing message still records the failure.
	json.NewDecoder(r.Body).Decode(&reqBody)

	identity := token.IdentityFromContext(c)
	logger = logger.With().
		Str(log.KeyIdentity, identity).
		Str(log.KeyProcess, "recording failed payment").
		Logger()
	logger.Info().Msg("recording failed payment")
	c = logger.WithContext(c)
	checkout, err := t.service.FailPayment(c, identity, reqBody.Message)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusFor(err),
			"message":    err.Error(),
		})
		return
	}

	httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "recorded failed payment",
		"data": map[string]interface{}{
			"checkout": checkout,
		},
	})
}

func (t CheckoutController) RetryPayment(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController RetryPayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController RetryPayment").
		Logger()

	identity := token.IdentityFromContext(c)
	logger = logger.With().
		Str(log.KeyIdentity, identity).
		Str(log.KeyProcess, "retrying payment").
		Logger()
	logger.Info().Msg("retrying payment")
	c = logger.WithContext(c)
	checkout, err := t.service.RetryPayment(c, identity)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusFor(err),
			"message":    err.Error(),
		})
		return
	}

	httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "retrying payment",
		"data": map[string]interface{}{
			"checkout": checkout,
		},
	})
}

// WaitQrPayment streams the QR payment status as server-sent events, one
// fetch per poll tick, and confirms the checkout once the status turns paid.
// The stream ends on the terminal status or when the client disconnects.
func (t CheckoutController) WaitQrPayment(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController WaitQrPayment")
	defer span.End()

	paymentId := mux.Vars(r)["paymentId"]
	identity := token.IdentityFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController WaitQrPayment").
		Str(log.KeyIdentity, identity).
		Str(log.KeyPaymentID, paymentId).
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

	watcher := poller.New(
		time.Duration(t.config.QrPollSeconds)*time.Second,
		func(c context.Context) (string, error) {
			envelope := struct {
				Data struct {
					Status string `json:"status"`
				} `json:"data"`
			}{}
			err := t.upstream.Get(c, "/api/payments/qr/status/"+paymentId, &envelope)
			if err != nil {
				return "", err
			}
			return envelope.Data.Status, nil
		},
		func(status string) bool { return status == "paid" },
	)

	logger.Info().Msg("watching qr payment")
	last := watcher.Run(c, func(status string) {
		fmt.Fprintf(w, "event: status\ndata: %s\n\n", status)
		flusher.Flush()
	})
	if last != "paid" {
		return
	}

	checkout, err := t.service.ConfirmPayment(c, identity)
	if err != nil {
		logger.Error().Err(err).Msgf("failed confirming qr payment with error=%s", err.Error())
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", err.Error())
		flusher.Flush()
		return
	}
	fmt.Fprintf(w, "event: done\ndata: %s\n\n", checkout.RedirectTo)
	flusher.Flush()
}

func (t CheckoutController) QrStatus(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController QrStatus")
	defer span.End()

	paymentId := mux.Vars(r)["paymentId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController QrStatus").
		Str(log.KeyPaymentID, paymentId).
		Logger()
	c = logger.WithContext(c)

	t.upstream.Proxy(w, r.WithContext(c), "/api/payments/qr/status/"+paymentId)
}

func (t CheckoutController) proxy(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, span := otel.Tracer.Start(r.Context(), "CheckoutController Proxy")
		defer span.End()

		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "CheckoutController Proxy").
			Str(log.KeyUpstreamPath, path).
			Logger()
		c = logger.WithContext(c)

		t.upstream.Proxy(w, r.WithContext(c), path)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrEmptyCart),
		errors.Is(err, inErrors.ErrAddressRequired),
		errors.Is(err, inErrors.ErrInvalidCheckout):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrNoPendingPayment):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
