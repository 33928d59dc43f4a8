package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// AppConfig is read from the environment, optionally seeded from .env.
type AppConfig struct {
	Port           string        `validate:"required,numeric"`
	Env            string        `validate:"required,oneof=development production test"`
	BackendAPIURL  string        `validate:"required,url"`
	BackendWSURL   string        `validate:"required,url"`
	BackendTimeout time.Duration `validate:"gt=0"`
	StreamMaxFPS   int           `validate:"gte=0,lte=60"`
	RedisAddress   string        `validate:"omitempty,hostname_port"`
	RedisPassword  string
	RedisDB        int           `validate:"gte=0"`
	ResultTTL      time.Duration `validate:"gt=0"`
	ContentFile    string        `validate:"omitempty,file"`
	MaxImageSize   int64         `validate:"gt=0"`
	MaxVideoSize   int64         `validate:"gt=0"`
}

func LoadAppConfig(v *validator.Validate) (*AppConfig, error) {
	cfg := &AppConfig{
		Port:          getEnv("APP_PORT", "3000"),
		Env:           getEnv("APP_ENV", "development"),
		BackendAPIURL: getEnv("BACKEND_API_URL", "http://localhost:8000"),
		BackendWSURL:  getEnv("BACKEND_WS_URL", "ws://localhost:8000"),
		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		ContentFile:   os.Getenv("CONTENT_FILE"),
	}

	var err error
	if cfg.BackendTimeout, err = getDuration("BACKEND_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ResultTTL, err = getDuration("RESULT_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.StreamMaxFPS, err = getInt("STREAM_MAX_FPS", 10); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	maxImageMB, err := getInt("MAX_IMAGE_MB", 10)
	if err != nil {
		return nil, err
	}
	maxVideoMB, err := getInt("MAX_VIDEO_MB", 200)
	if err != nil {
		return nil, err
	}
	cfg.MaxImageSize = int64(maxImageMB) * 1024 * 1024
	cfg.MaxVideoSize = int64(maxVideoMB) * 1024 * 1024

	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
