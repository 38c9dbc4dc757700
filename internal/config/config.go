package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = "config/.env"

type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Server      ServerConfig      `mapstructure:"server"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Live        LiveConfig        `mapstructure:"live"`
	GRPC        GRPCConfig        `mapstructure:"grpc"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
	Redis       RedisConfig       `mapstructure:"redis"`
	BaaS        BaaSConfig        `mapstructure:"baas"`
	Google      GoogleConfig      `mapstructure:"google"`
	GraphHopper GraphHopperConfig `mapstructure:"graphhopper"`
	Mapbox      MapboxConfig      `mapstructure:"mapbox"`
	Tracking    TrackingConfig    `mapstructure:"tracking"`
	Planner     PlannerConfig     `mapstructure:"planner"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type HTTPConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type MetricsConfig struct {
	Port string `mapstructure:"port"`
}

type LiveConfig struct {
	Port string `mapstructure:"port"`
}

type GRPCConfig struct {
	Port string `mapstructure:"port"`
}

type PostgresConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"db_name"`
	SSLMode        string        `mapstructure:"ssl_mode"`
	MigrateTimeout time.Duration `mapstructure:"migrate_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
	MaxConns       int32         `mapstructure:"max_conns"`
	MinConns       int32         `mapstructure:"min_conns"`
}

// DSN returns a libpq style connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	DB   int    `mapstructure:"db"`
}

// BaaSConfig points at the hosted auth / storage / row-store project.
type BaaSConfig struct {
	URL          string `mapstructure:"url"`
	AnonKey      string `mapstructure:"anon_key"`
	ServiceKey   string `mapstructure:"service_key"`
	AvatarBucket string `mapstructure:"avatar_bucket"`
}

type GoogleConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	DailyLimit int           `mapstructure:"daily_limit"`
	GeocodeTTL time.Duration `mapstructure:"geocode_ttl"`
}

type GraphHopperConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollAttempts int           `mapstructure:"poll_attempts"`
	Workers      int           `mapstructure:"workers"`
	JobTTL       time.Duration `mapstructure:"job_ttl"`
}

type MapboxConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// TrackingConfig selects the live vehicle sources. Both may be empty.
type TrackingConfig struct {
	GTFSRTURL string        `mapstructure:"gtfsrt_url"`
	LinkAddr  string        `mapstructure:"link_addr"`
	Refresh   time.Duration `mapstructure:"refresh"`
}

type PlannerConfig struct {
	DragThresholdM float64       `mapstructure:"drag_threshold_m"`
	TTL            time.Duration `mapstructure:"ttl"`
}

// Load reads config/.env (if present) and the environment.
func Load() (*Config, error) {
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for _, k := range v.AllKeys() {
		_ = v.BindEnv(k)
	}
	for _, k := range envOnlyKeys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// keys without a default still need an explicit binding for Unmarshal
var envOnlyKeys = []string{
	"postgres.password",
	"baas.url",
	"baas.anon_key",
	"baas.service_key",
	"google.api_key",
	"graphhopper.api_key",
	"mapbox.token",
	"tracking.gtfsrt_url",
	"tracking.link_addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("http.request_timeout", 10*time.Second)

	v.SetDefault("metrics.port", "9000")
	v.SetDefault("live.port", "8081")
	v.SetDefault("grpc.port", "50051")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.db_name", "postgres")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.migrate_timeout", 10*time.Second)
	v.SetDefault("postgres.query_timeout", 3*time.Second)
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("baas.avatar_bucket", "avatars")

	v.SetDefault("google.base_url", "https://maps.googleapis.com")
	v.SetDefault("google.daily_limit", 2000)
	v.SetDefault("google.geocode_ttl", 30*24*time.Hour)

	v.SetDefault("graphhopper.base_url", "https://graphhopper.com")
	v.SetDefault("graphhopper.poll_interval", time.Second)
	v.SetDefault("graphhopper.poll_attempts", 20)
	v.SetDefault("graphhopper.workers", 4)
	v.SetDefault("graphhopper.job_ttl", 6*time.Hour)

	v.SetDefault("mapbox.base_url", "https://api.mapbox.com")

	v.SetDefault("tracking.refresh", 10*time.Second)

	v.SetDefault("planner.drag_threshold_m", 52.75)
	v.SetDefault("planner.ttl", 24*time.Hour)
}

// Validate ensures required fields are present.
func (c Config) Validate() error {
	if c.Server.Port == 0 {
		return errors.New("server.port is required")
	}
	if c.Postgres.Host == "" {
		return errors.New("postgres.host is required")
	}
	if c.Postgres.User == "" || c.Postgres.Password == "" || c.Postgres.DBName == "" {
		return errors.New("postgres credentials are required")
	}
	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	if c.BaaS.URL == "" {
		return errors.New("baas.url is required")
	}
	return nil
}

// ServerAddr returns host:port for the API listener.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
