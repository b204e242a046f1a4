package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	CatalogSource string `env:"CATALOG_SOURCE" envDefault:"file" validate:"oneof=file postgres"`
	CatalogFile   string `env:"CATALOG_FILE" envDefault:"catalog.yaml" validate:"required_if=CatalogSource file"`
	DatabaseURL   string `env:"DATABASE_URL" validate:"required_if=CatalogSource postgres"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	CacheMemorySize       int    `env:"CACHE_MEMORY_SIZE" envDefault:"10000" validate:"gt=0"`
	CartStoreProvider     string `env:"CART_STORE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" validate:"required_if=CacheProvider redis,required_if=CartStoreProvider redis"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"nyp.catalog.aggregates" validate:"required_with=KafkaBrokers"`

	KafkaBatchTimeout time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"10ms" validate:"gte=0"`

	SentryDSN string `env:"SENTRY_DSN" validate:"omitempty,url"`

	HideOutOfStockItems bool `env:"HIDE_OUT_OF_STOCK_ITEMS" envDefault:"false"`
	OutOfStockThreshold int  `env:"OUT_OF_STOCK_THRESHOLD" envDefault:"0" validate:"min=0"`

	PriceThousandSeparator string `env:"PRICE_THOUSAND_SEPARATOR" envDefault:"," validate:"max=1"`
	PriceDecimalSeparator  string `env:"PRICE_DECIMAL_SEPARATOR" envDefault:"." validate:"required,len=1"`
	PriceDecimals          int32  `env:"PRICE_DECIMALS" envDefault:"2" validate:"min=0,max=8"`
	CurrencySymbol         string `env:"CURRENCY_SYMBOL" envDefault:"$"`

	CartTTL        time.Duration `env:"CART_TTL" envDefault:"48h" validate:"gt=0"`
	PolicyCacheTTL time.Duration `env:"POLICY_CACHE_TTL" envDefault:"5m" validate:"gte=0"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	LogFile   string     `env:"LOG_FILE"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads the configuration from environ instead of the process
// environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	if c.PriceThousandSeparator == c.PriceDecimalSeparator {
		return fmt.Errorf("PRICE_THOUSAND_SEPARATOR and PRICE_DECIMAL_SEPARATOR must differ")
	}

	for _, broker := range c.KafkaBrokers {
		if strings.TrimSpace(broker) == "" {
			return fmt.Errorf("KAFKA_BROKERS must not contain empty entries")
		}
	}

	return nil
}

// EventsEnabled reports whether aggregate events go to Kafka.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
