package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	Database   DatabaseConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Catalog    CatalogConfig
	Payment    PaymentConfig
	Fulfilment FulfilmentConfig
	Mail       MailConfig
	Pricing    PricingConfig
	Timeouts   TimeoutConfig

	// FulfilmentWebhookSecret authenticates POST /internal/webhooks/fulfillment.
	FulfilmentWebhookSecret string
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	MigrationsPath string
}

type MongoConfig struct {
	URI    string
	DBName string
}

type RedisConfig struct {
	Addr     string
	Password string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type CatalogConfig struct {
	DBPath         string
	MigrationsPath string
}

type PaymentConfig struct {
	StripeSecretKey string
	Currency        string
}

type FulfilmentConfig struct {
	Enabled           bool
	BaseURL           string
	RecipeID          string
	PartnerBillingKey string
	TestMode          bool
}

type MailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal
	FlatShipping          decimal.Decimal
	TaxRate               decimal.Decimal
}

type TimeoutConfig struct {
	Request      time.Duration
	Payment      time.Duration
	Fulfilment   time.Duration
	Notification time.Duration
	Persist      time.Duration
}

// Load reads the environment, falling back to an optional .env file and then defaults.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "printshop")
	viper.SetDefault("MIGRATIONS_PATH", "./internal/repository/migrations")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB_NAME", "printshop")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_TOPIC", "order-events")
	viper.SetDefault("KAFKA_GROUP_ID", "printshop-cart")
	viper.SetDefault("CATALOG_DB_PATH", "./catalog.db")
	viper.SetDefault("CATALOG_MIGRATIONS_PATH", "./internal/catalog/migrations")
	viper.SetDefault("PAYMENT_CURRENCY", "usd")
	viper.SetDefault("FULFILLMENT_ENABLED", "true")
	viper.SetDefault("GOOTEN_BASE_URL", "https://api.print.io/api/v/5/source/api")
	viper.SetDefault("GOOTEN_TEST_MODE", "true")
	viper.SetDefault("FROM_EMAIL", "orders@floridaprints.example")
	viper.SetDefault("FROM_NAME", "Florida Prints")
	viper.SetDefault("FREE_SHIPPING_THRESHOLD", "75.00")
	viper.SetDefault("FLAT_SHIPPING", "8.99")
	viper.SetDefault("TAX_RATE", "0.07")
	viper.SetDefault("REQUEST_TIMEOUT", "5s")
	viper.SetDefault("PAYMENT_TIMEOUT", "10s")
	viper.SetDefault("FULFILLMENT_TIMEOUT", "15s")
	viper.SetDefault("NOTIFICATION_TIMEOUT", "5s")
	viper.SetDefault("PERSIST_TIMEOUT", "10s")

	viper.AutomaticEnv()

	dbPort, err := strconv.Atoi(getEnvOrViper("DB_PORT"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT"),
		Environment: getEnvOrViper("ENVIRONMENT"),
		LogLevel:    getEnvOrViper("LOG_LEVEL"),
		Database: DatabaseConfig{
			Host:           getEnvOrViper("DB_HOST"),
			Port:           dbPort,
			User:           getEnvOrViper("DB_USER"),
			Password:       getEnvOrViper("DB_PASSWORD"),
			DBName:         getEnvOrViper("DB_NAME"),
			MigrationsPath: getEnvOrViper("MIGRATIONS_PATH"),
		},
		Mongo: MongoConfig{
			URI:    getEnvOrViper("MONGO_URI"),
			DBName: getEnvOrViper("MONGO_DB_NAME"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrViper("REDIS_ADDR"),
			Password: getEnvOrViper("REDIS_PASSWORD"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnvOrViper("KAFKA_BROKERS")),
			Topic:   getEnvOrViper("KAFKA_TOPIC"),
			GroupID: getEnvOrViper("KAFKA_GROUP_ID"),
		},
		Catalog: CatalogConfig{
			DBPath:         getEnvOrViper("CATALOG_DB_PATH"),
			MigrationsPath: getEnvOrViper("CATALOG_MIGRATIONS_PATH"),
		},
		Payment: PaymentConfig{
			StripeSecretKey: strings.TrimSpace(getEnvOrViper("STRIPE_SECRET_KEY")),
			Currency:        strings.ToLower(getEnvOrViper("PAYMENT_CURRENCY")),
		},
		Fulfilment: FulfilmentConfig{
			BaseURL:           strings.TrimRight(getEnvOrViper("GOOTEN_BASE_URL"), "/"),
			RecipeID:          strings.TrimSpace(getEnvOrViper("GOOTEN_RECIPE_ID")),
			PartnerBillingKey: strings.TrimSpace(getEnvOrViper("GOOTEN_PARTNER_BILLING_KEY")),
		},
		Mail: MailConfig{
			SendGridAPIKey: strings.TrimSpace(getEnvOrViper("SENDGRID_API_KEY")),
			FromEmail:      getEnvOrViper("FROM_EMAIL"),
			FromName:       getEnvOrViper("FROM_NAME"),
		},
		FulfilmentWebhookSecret: strings.TrimSpace(getEnvOrViper("FULFILLMENT_WEBHOOK_SECRET")),
	}

	if cfg.Fulfilment.Enabled, err = parseBool("FULFILLMENT_ENABLED"); err != nil {
		return nil, err
	}
	if cfg.Fulfilment.TestMode, err = parseBool("GOOTEN_TEST_MODE"); err != nil {
		return nil, err
	}
	if cfg.Pricing, err = loadPricing(); err != nil {
		return nil, err
	}
	if cfg.Timeouts, err = loadTimeouts(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Payment.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.Fulfilment.Enabled {
		if c.Fulfilment.RecipeID == "" {
			return fmt.Errorf("GOOTEN_RECIPE_ID is required when FULFILLMENT_ENABLED is true")
		}
		if c.Fulfilment.PartnerBillingKey == "" {
			return fmt.Errorf("GOOTEN_PARTNER_BILLING_KEY is required when FULFILLMENT_ENABLED is true")
		}
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	return nil
}

func loadPricing() (PricingConfig, error) {
	var p PricingConfig
	var err error
	if p.FreeShippingThreshold, err = parseDecimal("FREE_SHIPPING_THRESHOLD"); err != nil {
		return p, err
	}
	if p.FlatShipping, err = parseDecimal("FLAT_SHIPPING"); err != nil {
		return p, err
	}
	if p.TaxRate, err = parseDecimal("TAX_RATE"); err != nil {
		return p, err
	}
	return p, nil
}

func loadTimeouts() (TimeoutConfig, error) {
	var t TimeoutConfig
	var err error
	if t.Request, err = parseDuration("REQUEST_TIMEOUT"); err != nil {
		return t, err
	}
	if t.Payment, err = parseDuration("PAYMENT_TIMEOUT"); err != nil {
		return t, err
	}
	if t.Fulfilment, err = parseDuration("FULFILLMENT_TIMEOUT"); err != nil {
		return t, err
	}
	if t.Notification, err = parseDuration("NOTIFICATION_TIMEOUT"); err != nil {
		return t, err
	}
	if t.Persist, err = parseDuration("PERSIST_TIMEOUT"); err != nil {
		return t, err
	}
	return t, nil
}

func getEnvOrViper(key string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return viper.GetString(key)
}

func parseBool(key string) (bool, error) {
	v, err := strconv.ParseBool(getEnvOrViper(key))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDecimal(key string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(getEnvOrViper(key))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return v, nil
}

// parseDuration reads a timeout. Zero or negative would expire every call before it starts.
func parseDuration(key string) (time.Duration, error) {
	v, err := time.ParseDuration(getEnvOrViper(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", key, v)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
