package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/prudhivi99/retail-orders/internal/messaging"
	"github.com/prudhivi99/retail-orders/internal/store"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	ServiceName      string `mapstructure:"SERVICE_NAME"`
	ServiceID        string `mapstructure:"SERVICE_ID"`
	ServerPort       int    `mapstructure:"SERVER_PORT"`
	AdvertiseAddress string `mapstructure:"ADVERTISE_ADDRESS"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	StoreDriver  string `mapstructure:"STORE_DRIVER"`
	DbHost       string `mapstructure:"POSTGRES_HOST"`
	DbPort       int    `mapstructure:"POSTGRES_PORT"`
	DbUser       string `mapstructure:"POSTGRES_USER"`
	DbPassword   string `mapstructure:"POSTGRES_PASSWORD"`
	DbName       string `mapstructure:"POSTGRES_DB"`
	DbSSLMode    string `mapstructure:"POSTGRES_SSLMODE"`
	StockRetries int    `mapstructure:"STOCK_RETRIES"`

	RedisAddr   string        `mapstructure:"REDIS_ADDR"`
	CachePrefix string        `mapstructure:"CACHE_PREFIX"`
	CacheTTL    time.Duration `mapstructure:"CACHE_TTL"`

	EventsEnabled    bool   `mapstructure:"EVENTS_ENABLED"`
	RabbitMQHost     string `mapstructure:"RABBITMQ_HOST"`
	RabbitMQPort     int    `mapstructure:"RABBITMQ_PORT"`
	RabbitMQUser     string `mapstructure:"RABBITMQ_USER"`
	RabbitMQPassword string `mapstructure:"RABBITMQ_PASSWORD"`

	ConsulEnabled bool   `mapstructure:"CONSUL_ENABLED"`
	ConsulHost    string `mapstructure:"CONSUL_HOST"`
	ConsulPort    int    `mapstructure:"CONSUL_PORT"`

	// fallbacks for the gateway when Consul has no healthy instance
	OrderServiceURL   string `mapstructure:"ORDER_SERVICE_URL"`
	CatalogServiceURL string `mapstructure:"CATALOG_SERVICE_URL"`
}

// Service names the binary being configured; it seeds the defaults that
// differ between services.
type Service struct {
	Name string
	Port int
}

func setDefaults(v *viper.Viper, svc Service) {
	v.SetDefault("SERVICE_NAME", svc.Name)
	v.SetDefault("SERVICE_ID", svc.Name+"-1")
	v.SetDefault("SERVER_PORT", svc.Port)
	v.SetDefault("ADVERTISE_ADDRESS", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)

	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "retail")
	v.SetDefault("POSTGRES_PASSWORD", "retail")
	v.SetDefault("POSTGRES_DB", "retail")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("STOCK_RETRIES", 3)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("CACHE_PREFIX", "catalog")
	v.SetDefault("CACHE_TTL", 5*time.Minute)

	v.SetDefault("EVENTS_ENABLED", true)
	v.SetDefault("RABBITMQ_HOST", "localhost")
	v.SetDefault("RABBITMQ_PORT", 5672)
	v.SetDefault("RABBITMQ_USER", "guest")
	v.SetDefault("RABBITMQ_PASSWORD", "guest")

	v.SetDefault("CONSUL_ENABLED", true)
	v.SetDefault("CONSUL_HOST", "localhost")
	v.SetDefault("CONSUL_PORT", 8500)

	v.SetDefault("ORDER_SERVICE_URL", "http://order-service:8082")
	v.SetDefault("CATALOG_SERVICE_URL", "http://catalog-service:8081")
}

// Load reads defaults, then the optional env file, then the environment.
// A missing file is not an error.
func Load(svc Service, file string) (*Config, error) {
	v := viper.New()
	setDefaults(v, svc)

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ServerPort <= 0 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.ServerPort)
	}
	if c.StockRetries < 0 {
		return fmt.Errorf("invalid STOCK_RETRIES %d", c.StockRetries)
	}
	return nil
}

func (c *Config) Postgres() store.PostgresConfig {
	return store.PostgresConfig{
		Host:     c.DbHost,
		Port:     c.DbPort,
		User:     c.DbUser,
		Password: c.DbPassword,
		DBName:   c.DbName,
		SSLMode:  c.DbSSLMode,
	}
}

func (c *Config) RabbitMQ() messaging.Config {
	return messaging.Config{
		Host:     c.RabbitMQHost,
		Port:     c.RabbitMQPort,
		User:     c.RabbitMQUser,
		Password: c.RabbitMQPassword,
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
