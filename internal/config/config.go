package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverCosmos   = "cosmos"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Log         LogConfig
	Store       StoreConfig
	Cosmos      CosmosConfig
	Database    DatabaseConfig
	Idempotency IdempotencyConfig
	Redis       RedisConfig
	HTTP        HTTPConfig
	Telemetry   TelemetryConfig
	MCP         MCPConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// StoreConfig selects the winery document store.
type StoreConfig struct {
	Driver string // cosmos, postgres, memory
}

type CosmosConfig struct {
	ConnectionString string
	UseEmulator      bool
	Database         string
	Container        string
	Throughput       int32
	ProvisionOnStart bool
}

type DatabaseConfig struct {
	URL            string
	MigrateOnStart bool
}

type IdempotencyConfig struct {
	Driver string // memory, redis, postgres
	TTL    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	CORSAllowOrigins []string
}

type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
}

type MCPConfig struct {
	Enabled bool
}

// Load reads configuration with the following priority (highest first):
//  1. environment variables prefixed WINE_ (e.g. WINE_COSMOS_CONNECTION_STRING)
//  2. the file at path, or config.toml in ., ./config or /app when path is empty
//  3. built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("WINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("store.driver")),
		},
		Cosmos: CosmosConfig{
			ConnectionString: v.GetString("cosmos.connection_string"),
			UseEmulator:      v.GetBool("cosmos.use_emulator"),
			Database:         v.GetString("cosmos.database"),
			Container:        v.GetString("cosmos.container"),
			Throughput:       v.GetInt32("cosmos.throughput"),
			ProvisionOnStart: v.GetBool("cosmos.provision_on_start"),
		},
		Database: DatabaseConfig{
			URL:            v.GetString("database.url"),
			MigrateOnStart: v.GetBool("database.migrate_on_start"),
		},
		Idempotency: IdempotencyConfig{
			Driver: strings.ToLower(v.GetString("idempotency.driver")),
			TTL:    v.GetDuration("idempotency.ttl"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			CORSAllowOrigins: commaList(v.GetStringSlice("http.cors_allow_origins")),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
		MCP: MCPConfig{
			Enabled: v.GetBool("mcp.enabled"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// commaList splits every element on commas. Env values reach viper as one
// string, which GetStringSlice only splits on whitespace.
func commaList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "wine-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("store.driver", DriverCosmos)
	v.SetDefault("cosmos.database", "envino")
	v.SetDefault("cosmos.container", "wineries")
	v.SetDefault("cosmos.throughput", 400)
	v.SetDefault("idempotency.driver", DriverMemory)
	v.SetDefault("idempotency.ttl", 24*time.Hour)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.cors_allow_origins", []string{"*"})
	v.SetDefault("telemetry.collector_endpoint", "localhost:4317")
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.service_name", "wine-api")
	v.SetDefault("mcp.enabled", true)
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverCosmos:
		if c.Cosmos.ConnectionString == "" {
			return fmt.Errorf("cosmos connection string not configured (WINE_COSMOS_CONNECTION_STRING)")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database url not configured (WINE_DATABASE_URL)")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Idempotency.Driver {
	case DriverMemory, DriverRedis:
	case DriverPostgres:
		if c.Store.Driver != DriverPostgres {
			return errors.New("idempotency driver postgres requires store driver postgres")
		}
	default:
		return fmt.Errorf("unknown idempotency driver %q", c.Idempotency.Driver)
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry sampling ratio must be between 0 and 1, got %v", c.Telemetry.SamplingRatio)
	}
	return nil
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}
