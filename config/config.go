package config

import (
	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Development-only VAPID key pair. Well known, gives no confidentiality;
// production deployments must supply their own via the environment.
const (
	devVAPIDPublicKey  = "BEl62iUYgUivxIkv69yViEuiBIa-Ib9-SkvMeAtA3LFgDzkrxZJjSgSnfckjBJuBkr3qBUYIHBQFLXYp5Nksh8U"
	devVAPIDPrivateKey = "UUxI4O8-FbRouADVXc-hK3ltRAc8UV3sP0YOwIzpAMI"
)

type Config struct {
	Env        string `env:"ENVIRONMENT"`
	ServerPort int    `env:"SERVER_PORT" envDefault:"8080"`
	ServerDNS  string `env:"SERVER_DNS" envDefault:"http://localhost:8080"`
	APIToken   string `env:"API_TOKEN"`
	DBPath     string `env:"DB_PATH" envDefault:"pushgate.sqlite"`

	AppName string `env:"APP_NAME" envDefault:"VRK Solutions"`
	AppIcon string `env:"APP_ICON" envDefault:"/favicon.ico"`

	VAPID struct {
		PublicKey  string `env:"VAPID_PUBLIC_KEY"`
		PrivateKey string `env:"VAPID_PRIVATE_KEY"`
		Subscriber string `env:"VAPID_SUBSCRIBER" envDefault:"admin@localhost"`
	}

	log *zap.Logger
}

func NewConfig(lc fx.Lifecycle, log *zap.Logger) *Config {
	cfg := &Config{log: log}
	env.Parse(cfg)

	if cfg.VAPID.PublicKey == "" || cfg.VAPID.PrivateKey == "" {
		// Rotating away from a leaked pair invalidates every stored
		// subscription, so a production boot with no keys is refused outright.
		if cfg.Env == "production" {
			cfg.log.Sugar().Panic("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY envvars must be populated in production")
		}
		cfg.log.Sugar().Info("VAPID keys not configured, falling back to the shared development key pair")
		cfg.VAPID.PublicKey = devVAPIDPublicKey
		cfg.VAPID.PrivateKey = devVAPIDPrivateKey
	}

	if cfg.APIToken == "" {
		if cfg.Env == "production" {
			cfg.log.Sugar().Panic("API_TOKEN envvar must be populated in production")
		}
		cfg.log.Sugar().Info("API_TOKEN not set, API auth is disabled in this environment")
	}

	return cfg
}
