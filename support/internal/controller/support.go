package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inErrors "github.com/talkingpet/storefront/internal/errors"
	"github.com/talkingpet/storefront/internal/httpx"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/middleware"
	"github.com/talkingpet/storefront/internal/otel"
	"github.com/talkingpet/storefront/internal/token"
	"github.com/talkingpet/storefront/internal/upstream"
	"github.com/talkingpet/storefront/support/internal/service"
	"github.com/talkingpet/storefront/support/pkg/request"
)

// SupportController exposes the chat widget, its history, the feedback form
// and the upload pass-through. Chat works for anonymous visitors too.
type SupportController struct {
	service  *service.SupportService
	upstream *upstream.Client
}

func AttachSupportController(
	router *mux.Router,
	service *service.SupportService,
	upstreamClient *upstream.Client,
) {
	controller := SupportController{service: service, upstream: upstreamClient}

	chat := router.PathPrefix("/api/chat").Subrouter()
	chat.HandleFunc("", controller.SendMessage).Methods(http.MethodPost)
	chat.HandleFunc("/history/{sessionId}", controller.History).Methods(http.MethodGet)
	chat.HandleFunc("/feedback", controller.Feedback).Methods(http.MethodPost)

	router.Handle("/api/uploads", middleware.Authenticated(
		http.HandlerFunc(controller.Upload))).Methods(http.MethodPost)
}

func (t SupportController) SendMessage(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SupportController SendMessage")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SupportController SendMessage").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.ChatMessage{}
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
		Str(log.KeyProcess, "sending chat message").
		Logger()
	c = logger.WithContext(c)
	reply, err := t.service.SendMessage(c, identity, reqBody.Message)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadGateway,
			"message":    upstream.Message(err, "assistant unavailable"),
		})
		return
	}

	httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "sent chat message",
		"data": map[string]interface{}{
			"chat": reply,
		},
	})
}

func (t SupportController) History(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SupportController History")
	defer span.End()

	sessionId := mux.Vars(r)["sessionId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SupportController History").
		Str(log.KeySessionID, sessionId).
		Logger()
	c = logger.WithContext(c)

	t.upstream.Proxy(w, r.WithContext(c), "/api/chat/history/"+sessionId)
}

func (t SupportController) Feedback(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SupportController Feedback")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SupportController Feedback").
		Logger()
	c = logger.WithContext(c)

	t.upstream.Proxy(w, r.WithContext(c), "/api/chat/feedback")
}

func (t SupportController) Upload(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SupportController Upload")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SupportController Upload").
		Logger()
	c = logger.WithContext(c)

	t.upstream.Proxy(w, r.WithContext(c), "/api/uploads")
}
