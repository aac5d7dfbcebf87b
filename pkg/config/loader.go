package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("SIGEB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Allow common env vars without the SIGEB_ prefix for container deploys
	viper.BindEnv("http.port", "HTTP_PORT", "SIGEB_HTTP_PORT")
	viper.BindEnv("database.url", "DATABASE_URL", "SIGEB_DATABASE_URL")
	viper.BindEnv("redis.url", "REDIS_URL", "SIGEB_REDIS_URL")
	viper.BindEnv("relay.nats.url", "NATS_URL", "SIGEB_RELAY_NATS_URL")
	viper.BindEnv("relay.rabbitmq.url", "RABBITMQ_URL", "SIGEB_RELAY_RABBITMQ_URL")
	viper.BindEnv("jwt.secret", "JWT_SECRET", "SIGEB_JWT_SECRET")
	viper.BindEnv("payment.stripe.secret_key", "STRIPE_SECRET_KEY")
	viper.BindEnv("payment.stripe.webhook_secret", "STRIPE_WEBHOOK_SECRET")
	viper.BindEnv("app.environment", "SIGEB_APP_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: env vars plus defaults carry the deploy.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "sigeb")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("http.port", 8080)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.auto_migrate", true)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("relay.driver", "nats")
	viper.SetDefault("relay.nats.max_reconnects", 10)
	viper.SetDefault("relay.nats.reconnect_wait", 2*time.Second)
	viper.SetDefault("relay.rabbitmq.exchange", "sigeb.eventos")
	viper.SetDefault("payment.currency", "cop")
	viper.SetDefault("reservation.hold_window", 10*time.Minute)
	viper.SetDefault("reservation.sweep_interval", 60*time.Second)
	viper.SetDefault("trip.unlock_timeout", 1000*time.Millisecond)
	viper.SetDefault("fare.short_hop.base", 17500)
	viper.SetDefault("fare.short_hop.free_minutes", 45)
	viper.SetDefault("fare.short_hop.per_minute", 250)
	viper.SetDefault("fare.long_haul.base", 28000)
	viper.SetDefault("fare.long_haul.free_minutes", 90)
	viper.SetDefault("fare.long_haul.per_minute", 400)
	viper.SetDefault("fare.tax_rate", 0.10)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}
