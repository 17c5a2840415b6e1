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
	"github.com/talkingpet/storefront/session/internal/service"
	"github.com/talkingpet/storefront/session/pkg/request"
)

type SessionController struct {
	service  *service.SessionService
	upstream *upstream.Client
}

func AttachSessionController(
	router *mux.Router,
	service *service.SessionService,
	upstreamClient *upstream.Client,
) {
	controller := SessionController{service: service, upstream: upstreamClient}

	sub := router.PathPrefix("/api/auth").Subrouter()
	sub.HandleFunc("/login", controller.Login).Methods(http.MethodPost)
	sub.HandleFunc("/register", controller.Register).Methods(http.MethodPost)
	sub.HandleFunc("/forgot", controller.ForgotPassword).Methods(http.MethodPost)
	sub.HandleFunc("/reset", controller.ResetPassword).Methods(http.MethodPost)
	sub.HandleFunc("/me", controller.CurrentUser).Methods(http.MethodGet)
	sub.Handle("/logout", middleware.Authenticated(http.HandlerFunc(controller.Logout))).
		Methods(http.MethodPost)

	users := router.PathPrefix("/api/users").Subrouter()
	users.Handle("/theme", middleware.Authenticated(http.HandlerFunc(controller.UpdateTheme))).
		Methods(http.MethodPatch)
}

func (t SessionController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionController Login").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.Login{}
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

	logger = logger.With().
		Str(log.KeyEmail, reqBody.Email).
		Str(log.KeyProcess, "logging in").
		Logger()
	logger.Info().Msg("logging in")
	c = logger.WithContext(c)
	credentials, user, err := t.service.Login(c, reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    upstream.Message(err, "invalid credentials"),
		})
		return
	}
	logger.Info().Msg("logged in")

	httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "logged in",
		"data": map[string]interface{}{
			"token": credentials.Token,
			"user":  user,
		},
	})
}

func (t SessionController) Register(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionController Register").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.Register{}
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

	logger = logger.With().
		Str(log.KeyEmail, reqBody.Email).
		Str(log.KeyProcess, "registering").
		Logger()
	logger.Info().Msg("registering")
	c = logger.WithContext(c)
	credentials, user, err := t.service.Register(c, reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    upstream.Message(err, "registration failed"),
		})
		return
	}
	logger.Info().Msg("registered")

	httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "registered",
		"data": map[string]interface{}{
			"token": credentials.Token,
			"user":  user,
		},
	})
}

func (t SessionController) CurrentUser(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController CurrentUser")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionController CurrentUser").
		Logger()

	c = logger.WithContext(c)
	user := t.service.Bootstrap(c)
	if user == nil {
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    inErrors.ErrEmptyAuth.Error(),
		})
		return
	}

	httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found current user",
		"data": map[string]interface{}{
			"user": user,
		},
	})
}

func (t SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionController Logout").
		Logger()

	identity := token.IdentityFromContext(c)
	logger = logger.With().Str(log.KeyIdentity, identity).Logger()
	logger.Info().Msg("logging out")
	c = logger.WithContext(c)
	t.service.Logout(c, identity)
	logger.Info().Msg("logged out")

	httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "logged out",
	})
}

func (t SessionController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController ForgotPassword")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionController ForgotPassword").
		Logger()
	c = logger.WithContext(c)

	t.upstream.Proxy(w, r.WithContext(c), "/api/auth/forgot")
}

func (t SessionController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController ResetPassword")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionController ResetPassword").
		Logger()
	c = logger.WithContext(c)

	t.upstream.Proxy(w, r.WithContext(c), "/api/auth/reset")
}

func (t SessionController) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController UpdateTheme")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionController UpdateTheme").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.UpdateTheme{}
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
		Str(log.KeyTheme, reqBody.Theme).
		Str(log.KeyProcess, "updating theme").
		Logger()
	logger.Info().Msg("updating theme")
	c = logger.WithContext(c)
	err := t.upstream.Patch(c, "/api/users/theme", reqBody, nil)
	if err != nil {
		err = fmt.Errorf("failed updating theme with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    upstream.Message(err, "failed updating theme"),
		})
		return
	}
	user := t.service.UpdateUser(c, identity, map[string]interface{}{"theme": reqBody.Theme})
	logger.Info().Msg("updated theme")

	httpx.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "updated theme",
		"data": map[string]interface{}{
			"user": user,
		},
	})
}
