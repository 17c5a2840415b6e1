package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	backofficecmd "github.com/talkingpet/storefront/backoffice/cmd"
	bookingcmd "github.com/talkingpet/storefront/booking/cmd"
	cartcmd "github.com/talkingpet/storefront/cart/cmd"
	catalogcmd "github.com/talkingpet/storefront/catalog/cmd"
	checkoutcmd "github.com/talkingpet/storefront/checkout/cmd"
	"github.com/talkingpet/storefront/internal/config"
	"github.com/talkingpet/storefront/internal/constants"
	"github.com/talkingpet/storefront/internal/infra"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/middleware"
	"github.com/talkingpet/storefront/internal/otel"
	"github.com/talkingpet/storefront/internal/upstream"
	medicalcmd "github.com/talkingpet/storefront/medical/cmd"
	ordercmd "github.com/talkingpet/storefront/order/cmd"
	sessioncmd "github.com/talkingpet/storefront/session/cmd"
	supportcmd "github.com/talkingpet/storefront/support/cmd"
)

func runStorefront(c context.Context) {
	logger := log.InitLogger(fmt.Sprintf("/var/log/%s.log", constants.AppStorefront)).
		With().
		Str(log.KeyAppName, constants.AppStorefront).
		Str(log.KeyTag, "main runStorefront").
		Logger()
	c = logger.WithContext(c)

	logger.Info().
		Str(log.KeyProcess, "init config").
		Msg("initializing config")
	cfg := config.InitConfig(c, constants.AppStorefront)
	logger = logger.With().
		Any(log.KeyConfig, cfg).
		Logger()
	c = logger.WithContext(c)
	logger.Info().
		Str(log.KeyProcess, "init config").
		Msg("initialized config")

	logger.Info().
		Str(log.KeyProcess, "InitOtelSdk").
		Msg("initalizing otel sdk")
	otelShutdowns, err := otel.InitOtelSdk(c, constants.AppStorefront, cfg.Otel)
	if err != nil {
		logger.Error().
			Err(err).
			Str(log.KeyProcess, "InitOtelSdk").
			Msgf("failed initalizing otel sdk with error=%s", err.Error())
	}
	logger.Info().
		Str(log.KeyProcess, "InitOtelSdk").
		Msg("initalized otel sdk")

	logger.Info().
		Str(log.KeyProcess, "init cache").
		Msg("initializing cache")
	cache := infra.NewCacheClient(c, cfg.Cache)
	logger.Info().
		Str(log.KeyProcess, "init cache").
		Msg("initialized cache")

	logger.Info().
		Str(log.KeyProcess, "init upstream").
		Msg("initializing upstream client")
	upstreamClient := upstream.NewClient(cfg.Upstream)
	logger.Info().
		Str(log.KeyProcess, "init upstream").
		Msg("initialized upstream client")

	logger.Info().
		Str(log.KeyProcess, "start server").
		Msg("initalizing router")
	router := mux.NewRouter()
	router.Use(otelmux.Middleware(constants.AppStorefront))
	router.Use(middleware.Logging)
	router.Use(middleware.RecoverPanic)
	router.Use(middleware.Identify(cfg.Application.SecretKey))
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	logger.Info().
		Str(log.KeyProcess, "start server").
		Msg("initalized router")

	logger.Info().
		Str(log.KeyProcess, "start server").
		Msg("attaching apps")
	cartService := cartcmd.AttachCartApp(router, cache)
	sessionService := sessioncmd.AttachSessionApp(router, upstreamClient, cache)
	checkoutcmd.AttachCheckoutApp(
		c,
		router,
		cache,
		upstreamClient,
		cartService,
		sessionService,
		cfg.Checkout,
	)
	catalogcmd.AttachCatalogApp(router, upstreamClient)
	bookingcmd.AttachBookingApp(router, upstreamClient)
	ordercmd.AttachOrderApp(router, upstreamClient, cfg.Checkout)
	medicalcmd.AttachMedicalApp(router, upstreamClient)
	backofficecmd.AttachBackofficeApp(router, upstreamClient)
	supportcmd.AttachSupportApp(router, upstreamClient, cache)
	logger.Info().
		Str(log.KeyProcess, "start server").
		Msg("attached apps")

	// WriteTimeout stays zero: the QR wait and order tracking streams hold
	// the response open for as long as the client keeps listening.
	server := http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext: func(net.Listener) context.Context { return c },
		Handler:     router,
		ReadTimeout: 45 * time.Second,
	}
	logger.Info().
		Str(log.KeyProcess, "start server").
		Msg("initialized server")

	go func() {
		logger.Info().
			Str(log.KeyProcess, "start server").
			Msgf("start listening request at %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().
				Err(err).
				Str(log.KeyProcess, "shutdown server").
				Msgf("error=%s occured while server is running", err.Error())
			if err := otel.ShutdownOtel(c, otelShutdowns); err != nil {
				logger.Error().
					Err(err).
					Str(log.KeyProcess, "shutdown server").
					Msgf("failed shutting down otel with error=%s", err.Error())
			}
		}
		logger.Info().
			Str(log.KeyProcess, "shutdown server").
			Msg("shutdown server")
	}()

	<-c.Done()
	logger.Info().
		Str(log.KeyProcess, "shutdown server").
		Msg("received interuption signal shutting down")
	err = server.Shutdown(c)
	if err != nil {
		logger.Error().
			Err(err).
			Str(log.KeyProcess, "shutdown server").
			Msgf("failed shutting down server with error=%s", err.Error())
	}

	err = cache.Close()
	if err != nil {
		logger.Error().
			Err(err).
			Str(log.KeyProcess, "shutdown server").
			Msgf("failed closing cache client with error=%s", err.Error())
	}

	err = otel.ShutdownOtel(c, otelShutdowns)
	if err != nil {
		logger.Error().
			Err(err).
			Str(log.KeyProcess, "shutdown server").
			Msgf("failed shutting down otel with error=%s", err.Error())
	}
	logger.Info().
		Str(log.KeyProcess, "shutdown server").
		Msg("shutdown storefront")
}
