package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string `env:"CREW_HTTP_ADDR" envDefault:":8080"`
	LogMode  string `env:"CREW_LOG_MODE" envDefault:"dev"`

	MySQLDSN string `env:"CREW_MYSQL_DSN" envDefault:"user:password@tcp(127.0.0.1:3306)/crew?charset=utf8mb4&parseTime=True&loc=Local"`

	RedisAddr     string `env:"CREW_REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"CREW_REDIS_PASSWORD"`
	RedisDB       int    `env:"CREW_REDIS_DB" envDefault:"0"`

	KafkaBrokers []string `env:"CREW_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"CREW_KAFKA_TOPIC" envDefault:"crew-events"`

	GCSBucket      string `env:"CREW_GCS_BUCKET"`
	GCSCDNDomain   string `env:"CREW_GCS_CDN_DOMAIN"`
	GCSCredentials string `env:"CREW_GCS_CREDENTIALS"`

	JWTAccessSecret string `env:"CREW_JWT_ACCESS_SECRET"`

	ApplyRateRPS   float64 `env:"CREW_APPLY_RATE_RPS" envDefault:"1"`
	ApplyRateBurst int     `env:"CREW_APPLY_RATE_BURST" envDefault:"5"`

	OutboxInterval    time.Duration `env:"CREW_OUTBOX_INTERVAL" envDefault:"1s"`
	ReconcileInterval time.Duration `env:"CREW_RECONCILE_INTERVAL" envDefault:"5m"`

	MaxJoinedCrews  int `env:"CREW_MAX_JOINED_CREWS" envDefault:"5"`
	MaxAppliedCrews int `env:"CREW_MAX_APPLIED_CREWS" envDefault:"5"`
}

// Load 先尝试读取 .env（不存在则忽略），再解析环境变量
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxJoinedCrews <= 0 || cfg.MaxAppliedCrews <= 0 {
		return nil, errors.New("crew limits must be positive")
	}
	return &cfg, nil
}
