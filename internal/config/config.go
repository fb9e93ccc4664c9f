package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend selection values for the OCR and scoring capabilities.
const (
	OCRBackendTesseract   = "tesseract"
	OCRBackendRekognition = "rekognition"

	ScorerBackendLocal  = "local"
	ScorerBackendRemote = "remote"
)

type Config struct {
	Host           string
	Port           string
	RequestTimeout time.Duration

	// Intake limits. MaxImageBytes is the hard cap enforced by the input
	// validator before any extraction work starts.
	MaxImageBytes int64

	// OCR capability.
	OCRBackend  string
	OCRLanguage string
	OCRWorkers  int

	// Scoring capability.
	ScorerBackend  string
	ScorerURL      string
	ScorerTimeout  time.Duration

	// Barcode lookup.
	OFFBaseURL    string
	LookupTimeout time.Duration

	// Optional Azure blob source for label images referenced by blob URL.
	AzureStorageAccount string
	AzureStorageKey     string

	// Pause between the 90% mark and completion so the progress surface
	// does not jump instantaneously. Not a correctness requirement.
	SettleDelay time.Duration
}

func (c *Config) ServerAddress() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

func LoadFromEnv() (*Config, error) {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                getEnvOrDefault("PORT", "8080"),
		RequestTimeout:      parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		MaxImageBytes:       parseIntOrDefault("MAX_IMAGE_BYTES", 10*1024*1024), // 10 MiB
		OCRBackend:          getEnvOrDefault("OCR_BACKEND", OCRBackendTesseract),
		OCRLanguage:         getEnvOrDefault("OCR_LANGUAGE", "eng"),
		OCRWorkers:          int(parseIntOrDefault("OCR_WORKERS", 0)),
		ScorerBackend:       getEnvOrDefault("SCORER_BACKEND", ScorerBackendLocal),
		ScorerURL:           os.Getenv("SCORER_URL"),
		ScorerTimeout:       parseDurationOrDefault("SCORER_TIMEOUT", 15*time.Second),
		OFFBaseURL:          getEnvOrDefault("OFF_BASE_URL", "https://world.openfoodfacts.org"),
		LookupTimeout:       parseDurationOrDefault("LOOKUP_TIMEOUT", 10*time.Second),
		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),
		SettleDelay:         parseDurationOrDefault("SETTLE_DELAY", 500*time.Millisecond),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxImageBytes <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_BYTES must be > 0 (got %d)", cfg.MaxImageBytes)
	}
	if cfg.RequestTimeout <= 0 || cfg.ScorerTimeout <= 0 || cfg.LookupTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, scorer=%s, lookup=%s)",
			cfg.RequestTimeout, cfg.ScorerTimeout, cfg.LookupTimeout)
	}
	switch cfg.OCRBackend {
	case OCRBackendTesseract, OCRBackendRekognition:
	default:
		return nil, fmt.Errorf("invalid OCR_BACKEND: %q", cfg.OCRBackend)
	}
	switch cfg.ScorerBackend {
	case ScorerBackendLocal:
	case ScorerBackendRemote:
		if cfg.ScorerURL == "" {
			return nil, fmt.Errorf("SCORER_URL is required when SCORER_BACKEND=remote")
		}
	default:
		return nil, fmt.Errorf("invalid SCORER_BACKEND: %q", cfg.ScorerBackend)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
