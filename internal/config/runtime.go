package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Runtime is resolved from defaults, then the YAML file named by
// ALGOTRACE_CONFIG, then environment variables.
type Runtime struct {
	HTTPAddr        string        `yaml:"http_addr" validate:"required"`
	CacheMaxItems   int           `yaml:"cache_max_items" validate:"gte=1"`
	MaxBodyBytes    int           `yaml:"max_body_bytes" validate:"gte=1024"`
	ObsBuffer       int           `yaml:"obs_buffer" validate:"gte=1"`
	LogLevel        string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat       string        `yaml:"log_format" validate:"oneof=text json"`
	StoreEnabled    bool          `yaml:"store_enabled"`
	StorePath       string        `yaml:"store_path"`
	StoreRetention  time.Duration `yaml:"store_retention" validate:"gte=0"`
	StoreMaxRecords int           `yaml:"store_max_records" validate:"gte=0"`
	DefaultSpeed    float64       `yaml:"default_speed" validate:"gt=0,lte=64"`
	ShutdownSeconds int           `yaml:"shutdown_seconds" validate:"gte=1"`
}

var validate = validator.New()

func Defaults() Runtime {
	return Runtime{
		HTTPAddr:        ":8080",
		CacheMaxItems:   1024,
		MaxBodyBytes:    1 << 20,
		ObsBuffer:       4096,
		LogLevel:        "info",
		LogFormat:       "text",
		StoreEnabled:    true,
		StoreRetention:  24 * time.Hour,
		StoreMaxRecords: 10000,
		DefaultSpeed:    1,
		ShutdownSeconds: 10,
	}
}

// Load fails only when the config file cannot be read or parsed. Invalid
// environment values fall back to the previous layer.
func Load() (Runtime, error) {
	rt := Defaults()

	if path := os.Getenv("ALGOTRACE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return rt, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &rt); err != nil {
			return rt, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	rt.HTTPAddr = getenv("HTTP_ADDR", rt.HTTPAddr)
	rt.CacheMaxItems = getenvInt("ALGOTRACE_CACHE_MAX_ITEMS", rt.CacheMaxItems, 1)
	rt.MaxBodyBytes = getenvInt("ALGOTRACE_MAX_BODY_BYTES", rt.MaxBodyBytes, 1024)
	rt.ObsBuffer = getenvInt("ALGOTRACE_OBS_BUFFER", rt.ObsBuffer, 1)
	rt.LogLevel = strings.ToLower(getenv("ALGOTRACE_LOG_LEVEL", rt.LogLevel))
	rt.LogFormat = strings.ToLower(getenv("ALGOTRACE_LOG_FORMAT", rt.LogFormat))
	rt.StoreEnabled = getenvBool("ALGOTRACE_STORE", rt.StoreEnabled)
	rt.StorePath = getenv("ALGOTRACE_STORE_PATH", rt.StorePath)
	rt.StoreRetention = getenvDuration("ALGOTRACE_STORE_RETENTION", rt.StoreRetention)
	rt.StoreMaxRecords = getenvInt("ALGOTRACE_STORE_MAX_RECORDS", rt.StoreMaxRecords, 0)
	rt.DefaultSpeed = getenvFloat("ALGOTRACE_SPEED", rt.DefaultSpeed)
	rt.ShutdownSeconds = getenvInt("ALGOTRACE_SHUTDOWN_SECONDS", rt.ShutdownSeconds, 1)

	return rt, nil
}

func (r Runtime) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid runtime config: %w", err)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback, min int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return fallback
	}
	return v
}

func getenvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getenvFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
