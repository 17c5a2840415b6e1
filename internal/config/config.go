package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/talkingpet/storefront/internal/log"
)

type Application struct {
	Env       string `mapstructure:"env"        json:"env"`
	Host      string `mapstructure:"host"       json:"host"`
	SecretKey string `mapstructure:"secret_key" json:"-"`
	Port      int    `mapstructure:"port"       json:"port"`
}

type Upstream struct {
	// BaseURL points at the core API that owns catalog, bookings, orders,
	// payments and medical records. Default matches the local compose setup.
	BaseURL        string `mapstructure:"base_url"        json:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

type Cache struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"-"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
}

type Checkout struct {
	ShippingFee       string `mapstructure:"shipping_fee"         json:"shipping_fee"`
	QrPollSeconds     int    `mapstructure:"qr_poll_seconds"      json:"qr_poll_seconds"`
	TrackPollSeconds  int    `mapstructure:"track_poll_seconds"   json:"track_poll_seconds"`
	ConfirmationRoute string `mapstructure:"confirmation_route"   json:"confirmation_route"`
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

type Config struct {
	Application `mapstructure:"application" json:"application"`
	Upstream    `mapstructure:"upstream"    json:"upstream"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Checkout    `mapstructure:"checkout"    json:"checkout"`
	Otel        `mapstructure:"otel"        json:"otel"`
}

var (
	once   sync.Once
	config *Config
)

func InitConfig(c context.Context, filename string) *Config {
	cfg := Config{}
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		viper.SetConfigName(filename)
		viper.AddConfigPath("./env")
		viper.SetConfigType("yaml")
		viper.SetDefault("upstream.base_url", "http://localhost:4000")
		viper.SetDefault("upstream.timeout_seconds", 30)
		viper.SetDefault("checkout.shipping_fee", "99")
		viper.SetDefault("checkout.qr_poll_seconds", 5)
		viper.SetDefault("checkout.track_poll_seconds", 10)
		viper.SetDefault("checkout.confirmation_route", "/orders/confirmation")
		viper.AutomaticEnv()

		logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
		logger.Info().Msg("reading config")
		err := viper.ReadInConfig()
		if err != nil {
			err = fmt.Errorf("error when reading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("read config")

		logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		err = viper.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger = logger.With().Any(log.KeyConfig, cfg).Logger()
		logger.Info().Msg("unmarshaled config")
	})
	return config
}
