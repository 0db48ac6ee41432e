package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port              string
	BaseURL           string
	AllowedOrigins    []string
	DataDir           string
	MaxUploadBytes    int64
	OpenAIAPIKey      string
	OpenAIModel       string
	EnrichTimeout     time.Duration
	BaseCurrency      string
	DefaultLaborRate  float64
	DefaultMarkupPct  float64
	DefaultTaxPct     float64
	DefaultFaultCost  float64
	DefaultPartsPrice float64
}

func LoadConfig() (Config, error) {
	cfg := Config{}

	cfg.Port = envOrDefault("PORT", "8080")
	cfg.BaseURL = envOrDefault("BASE_URL", fmt.Sprintf("http://localhost:%s", cfg.Port))
	cfg.AllowedOrigins = parseListEnv("ALLOWED_ORIGINS", []string{cfg.BaseURL})
	cfg.DataDir = envOrDefault("DATA_DIR", "data")

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = envOrDefault("OPENAI_MODEL", "gpt-4o-mini")

	enrichTimeoutSeconds, err := parseIntEnv("ENRICH_TIMEOUT_SECONDS", 20)
	if err != nil {
		return Config{}, fmt.Errorf("parse ENRICH_TIMEOUT_SECONDS: %w", err)
	}
	cfg.EnrichTimeout = time.Duration(enrichTimeoutSeconds) * time.Second

	maxUploadMB, err := parseIntEnv("MAX_UPLOAD_MB", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_UPLOAD_MB: %w", err)
	}
	cfg.MaxUploadBytes = maxUploadMB * 1024 * 1024

	cfg.BaseCurrency = envOrDefault("BASE_CURRENCY", "KES")

	cfg.DefaultLaborRate, err = parseFloatEnv("DEFAULT_LABOR_RATE", 1500)
	if err != nil {
		return Config{}, fmt.Errorf("parse DEFAULT_LABOR_RATE: %w", err)
	}
	cfg.DefaultMarkupPct, err = parseFloatEnv("DEFAULT_MARKUP_PCT", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse DEFAULT_MARKUP_PCT: %w", err)
	}
	cfg.DefaultTaxPct, err = parseFloatEnv("DEFAULT_TAX_PCT", 16)
	if err != nil {
		return Config{}, fmt.Errorf("parse DEFAULT_TAX_PCT: %w", err)
	}
	cfg.DefaultFaultCost, err = parseFloatEnv("DEFAULT_FAULT_COST", 8000)
	if err != nil {
		return Config{}, fmt.Errorf("parse DEFAULT_FAULT_COST: %w", err)
	}
	cfg.DefaultPartsPrice, err = parseFloatEnv("DEFAULT_PARTS_PRICE", 5000)
	if err != nil {
		return Config{}, fmt.Errorf("parse DEFAULT_PARTS_PRICE: %w", err)
	}

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = absDataDir

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseIntEnv(key string, fallback int64) (int64, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}

	num, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return num, nil
}

func parseListEnv(key string, fallback []string) []string {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}

	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return num, nil
}
