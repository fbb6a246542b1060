package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const devJWTSecret = "dev-secret-change-me"

// Config holds all application configuration
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Log      LogConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Catalog  CatalogConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Payment  PaymentConfig
	Order    OrderConfig
}

type AppConfig struct {
	Name     string
	Env      string
	HTTPPort string
	GRPCPort string
}

type HTTPConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	GuestCartTTL time.Duration
}

// CatalogConfig points at the SQLite product catalog
type CatalogConfig struct {
	DBPath         string
	MigrationsPath string
}

type PostgresConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	MigrationsPath string
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	GroupID      string
	PollInterval time.Duration
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// PaymentConfig configures transaction verification against the gateway.
// An empty VerifyURL disables verification.
type PaymentConfig struct {
	VerifyURL string
	APIKey    string
	Timeout   time.Duration
}

// OrderConfig holds the defaults applied to guest orders
type OrderConfig struct {
	DefaultPaymentMethod string
	DefaultCurrency      string
}

// Load reads configuration from storefront.yaml (optional) and
// STOREFRONT_-prefixed environment variables, then applies defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("storefront")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/storefront")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			HTTPPort: v.GetString("app.http_port"),
			GRPCPort: v.GetString("app.grpc_port"),
		},
		HTTP: HTTPConfig{
			RequestTimeout:  v.GetDuration("http.request_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxBodySize:     v.GetInt64("http.max_body_size"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("mongo.uri"),
			Database: v.GetString("mongo.database"),
		},
		Redis: RedisConfig{
			Addr:         v.GetString("redis.addr"),
			Password:     v.GetString("redis.password"),
			DB:           v.GetInt("redis.db"),
			GuestCartTTL: v.GetDuration("redis.guest_cart_ttl"),
		},
		Catalog: CatalogConfig{
			DBPath:         v.GetString("catalog.db_path"),
			MigrationsPath: v.GetString("catalog.migrations_path"),
		},
		Postgres: PostgresConfig{
			Host:           v.GetString("postgres.host"),
			Port:           v.GetInt("postgres.port"),
			User:           v.GetString("postgres.user"),
			Password:       v.GetString("postgres.password"),
			DBName:         v.GetString("postgres.dbname"),
			MigrationsPath: v.GetString("postgres.migrations_path"),
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(v.GetString("kafka.brokers")),
			Topic:        v.GetString("kafka.topic"),
			GroupID:      v.GetString("kafka.group_id"),
			PollInterval: v.GetDuration("kafka.poll_interval"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			Issuer:    v.GetString("auth.issuer"),
		},
		Payment: PaymentConfig{
			VerifyURL: v.GetString("payment.verify_url"),
			APIKey:    v.GetString("payment.api_key"),
			Timeout:   v.GetDuration("payment.timeout"),
		},
		Order: OrderConfig{
			DefaultPaymentMethod: v.GetString("order.default_payment_method"),
			DefaultCurrency:      v.GetString("order.default_currency"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.HTTPPort == "" {
		cfg.App.HTTPPort = "8080"
	}
	if cfg.App.GRPCPort == "" {
		cfg.App.GRPCPort = "50060"
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = "mongodb://localhost:27017"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "cartdb"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.GuestCartTTL == 0 {
		cfg.Redis.GuestCartTTL = 30 * 24 * time.Hour
	}
	if cfg.Catalog.DBPath == "" {
		cfg.Catalog.DBPath = "./catalog.db"
	}
	if cfg.Catalog.MigrationsPath == "" {
		cfg.Catalog.MigrationsPath = "./internal/catalog/migrations"
	}
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = "localhost"
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
	if cfg.Postgres.User == "" {
		cfg.Postgres.User = "postgres"
	}
	if cfg.Postgres.Password == "" {
		cfg.Postgres.Password = "postgres"
	}
	if cfg.Postgres.DBName == "" {
		cfg.Postgres.DBName = "storefront"
	}
	if cfg.Postgres.MigrationsPath == "" {
		cfg.Postgres.MigrationsPath = "./internal/orders/migrations"
	}
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "order-events"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "storefront-cart"
	}
	if cfg.Kafka.PollInterval == 0 {
		cfg.Kafka.PollInterval = time.Second
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = devJWTSecret
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "storefront"
	}
	if cfg.Payment.Timeout == 0 {
		cfg.Payment.Timeout = 10 * time.Second
	}
	if cfg.Order.DefaultPaymentMethod == "" {
		cfg.Order.DefaultPaymentMethod = "WALLET"
	}
	if cfg.Order.DefaultCurrency == "" {
		cfg.Order.DefaultCurrency = "NGN"
	}
}

func (c *Config) validate() error {
	if c.App.Env == "production" && c.Auth.JWTSecret == devJWTSecret {
		return errors.New("config: auth.jwt_secret must be set in production")
	}
	if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
		return fmt.Errorf("config: invalid postgres port %d", c.Postgres.Port)
	}
	if c.Redis.GuestCartTTL < 0 {
		return errors.New("config: redis.guest_cart_ttl must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
