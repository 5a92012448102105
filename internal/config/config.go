package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	AppEnv           string        `mapstructure:"APP_ENV"`
	ClientURL        string        `mapstructure:"CLIENT_URL"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DBConnectTimeout time.Duration `mapstructure:"DB_CONNECT_TIMEOUT"`
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPass        string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int           `mapstructure:"REDIS_DB"`
	CacheTTLList     int           `mapstructure:"CACHE_TTL_DOC_LIST"`
	CacheTTLItem     int           `mapstructure:"CACHE_TTL_DOC_ITEM"`
	CacheMemoryCap   int           `mapstructure:"CACHE_MEMORY_CAPACITY"`
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	TokenTTL         time.Duration `mapstructure:"TOKEN_TTL"`
	BodyLimit        int64         `mapstructure:"BODY_LIMIT"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout  time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	LogFormat        string        `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"PORT":                  "5000",
	"APP_ENV":               EnvDevelopment,
	"CLIENT_URL":            "",
	"DATABASE_URL":          "",
	"DB_CONNECT_TIMEOUT":    "5s",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"CACHE_TTL_DOC_LIST":    60,
	"CACHE_TTL_DOC_ITEM":    300,
	"CACHE_MEMORY_CAPACITY": 10000,
	"JWT_SECRET":            "",
	"TOKEN_TTL":             "24h",
	"BODY_LIMIT":            1 << 20,
	"REQUEST_TIMEOUT":       "30s",
	"SHUTDOWN_TIMEOUT":      "10s",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "dev",
}

// LoadConfig читает .env из path (если он есть) и переменные окружения.
// Окружение имеет приоритет над файлом.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	// Без SetDefault/BindEnv ключи из окружения не попадают в Unmarshal
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err = v.BindEnv(key); err != nil {
			return config, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config file: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}
	config.Port = strings.TrimSpace(config.Port)
	if config.Port == "" {
		config.Port = "5000"
	}

	return config, config.Validate()
}

// Validate проверяет обязательные ключи и допустимые значения
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.BodyLimit <= 0 {
		errs = append(errs, fmt.Errorf("BODY_LIMIT must be positive, got %d", c.BodyLimit))
	}
	switch c.LogFormat {
	case "dev", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be dev, text or json, got %q", c.LogFormat))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// Addr адрес для http.Server
func (c Config) Addr() string {
	return ":" + c.Port
}

func (c Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// AllowedOrigins разбирает CLIENT_URL, который может содержать несколько адресов через запятую
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.ClientURL, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
