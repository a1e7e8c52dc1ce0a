package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// configFile is read from the working directory when present.
const configFile = ".config.json"

type Config struct {
	Port       int            `mapstructure:"port"`
	Env        string         `mapstructure:"env"`
	Pepper     string         `mapstructure:"pepper"`
	HMACKey    string         `mapstructure:"hmac_key"`
	CORSOrigin string         `mapstructure:"cors_origin"`
	Database   PostgresConfig `mapstructure:"database"`
	JWT        JWTConfig      `mapstructure:"jwt"`
	Storage    StorageConfig  `mapstructure:"storage"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	Tracing    TracingConfig  `mapstructure:"tracing"`
	RateLimit  RateConfig     `mapstructure:"rate_limit"`
	// TrustedProxies lists the IPs or CIDR ranges of the reverse proxies in
	// front of the app. Only their X-Forwarded-For headers are believed.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

type PostgresConfig struct {
	// DSN overrides the other fields. A "sqlite://" prefix selects the sqlite driver.
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

func (pc PostgresConfig) ConnectionInfo() string {
	if pc.DSN != "" {
		return pc.DSN
	}
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

type JWTConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
}

type StorageConfig struct {
	// Driver is "local" or "s3".
	Driver    string `mapstructure:"driver"`
	Dir       string `mapstructure:"dir"`
	BaseURL   string `mapstructure:"base_url"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// RedisConfig enables the channel stats cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	StatsTTL time.Duration `mapstructure:"stats_ttl"`
}

// KafkaConfig enables event publishing when Brokers is set.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// TracingConfig enables the OTLP trace exporter when Endpoint is set.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type RateConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// setDefaults registers the default dev setup. Every key needs a default,
// otherwise viper does not look it up in the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 1111)
	v.SetDefault("env", "dev")
	v.SetDefault("pepper", "secret-random-string")
	v.SetDefault("hmac_key", "secret-hmac-key")
	v.SetDefault("cors_origin", "")
	v.SetDefault("trusted_proxies", []string{})

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "videotube")

	v.SetDefault("jwt.access_secret", "secret-access-key")
	v.SetDefault("jwt.access_ttl", 24*time.Hour)
	v.SetDefault("jwt.refresh_secret", "secret-refresh-key")
	v.SetDefault("jwt.refresh_ttl", 10*24*time.Hour)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.dir", "media")
	v.SetDefault("storage.base_url", "http://localhost:1111/media")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stats_ttl", time.Minute)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "videotube.events")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("rate_limit.rps", 5.0)
	v.SetDefault("rate_limit.burst", 10)
}

// LoadConfig loads configuration from the .config.json file in dir if present,
// otherwise the default dev setup is used. Environment variables prefixed with
// VIDEOTUBE_ override both, e.g. VIDEOTUBE_DATABASE_HOST. In production the file is required.
func LoadConfig(dir string, isProd bool) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("VIDEOTUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(dir + string(os.PathSeparator) + configFile)
	err := v.ReadInConfig()
	switch {
	case err == nil:
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	case errors.Is(err, os.ErrNotExist) && !isProd:
		slog.Info("no config file found, using the dev setup")
	default:
		return Config{}, fmt.Errorf("read %s: %w", configFile, err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if isProd {
		c.Env = "prod"
	}
	return c, nil
}
