// Package config предоставляет структуры и функции для парсинга и загрузки конфига.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"APP_ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	Trial                   Trial        `yaml:"trial"`
	ReviewPolicy            ReviewPolicy `yaml:"review_policy"`
	Analysis                Analysis     `yaml:"analysis"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"5"`
	RateBurst   int           `yaml:"rate_burst" env-default:"10"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ настройки подключения к брокеру
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Trial настройки пробного периода для новых пользователей
type Trial struct {
	Period time.Duration `yaml:"period" env-default:"336h"`
}

// WarningLevel описывает порог предупреждения: уровень срабатывает,
// когда осталось не больше RemainingAtMost ревью.
type WarningLevel struct {
	Level           string `yaml:"level"`
	RemainingAtMost int    `yaml:"remaining_at_most"`
	Message         string `yaml:"message"`
}

// ReviewPolicy политика квот и предупреждений по ревью.
// Ключи MaxReviews: уровни подписки (STARTER, HERO, LEGEND).
type ReviewPolicy struct {
	MaxReviews         map[string]int `yaml:"max_reviews"`
	WarningLevels      []WarningLevel `yaml:"warning_levels"`
	CoolingPeriodHours int            `yaml:"cooling_period_hours" env-default:"24"`
}

// Analysis настройки анализа кода через Gemini
type Analysis struct {
	APIKey          string        `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model           string        `yaml:"model" env-default:"gemini-2.5-flash"`
	CacheTTL        time.Duration `yaml:"cache_ttl" env-default:"24h"`
	MaxOutputTokens int32         `yaml:"max_output_tokens" env-default:"2048"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает YAML-конфиг, переменные окружения перекрывают значения из файла.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Validate проверяет согласованность политики ревью.
func (c *Config) Validate() error {
	for name, limit := range c.ReviewPolicy.MaxReviews {
		if limit < 0 {
			return fmt.Errorf("review_policy.max_reviews.%s must not be negative", name)
		}
	}
	for _, lvl := range c.ReviewPolicy.WarningLevels {
		if lvl.Level == "" || lvl.Level == "none" {
			return fmt.Errorf("review_policy.warning_levels: level name %q is reserved or empty", lvl.Level)
		}
		if lvl.RemainingAtMost < 0 {
			return fmt.Errorf("review_policy.warning_levels.%s: remaining_at_most must not be negative", lvl.Level)
		}
	}
	if c.ReviewPolicy.CoolingPeriodHours < 0 {
		return fmt.Errorf("review_policy.cooling_period_hours must not be negative")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"Trial:\n"+
			"  Period: %s\n"+
			"Analysis:\n"+
			"  Model: %s\n",
		c.Env,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.Trial.Period,
		c.Analysis.Model,
	)
}
