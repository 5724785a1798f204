// Package config loads server settings from the environment, an optional
// .env file and an optional YAML catalogue of mandates and services.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"proposal-generator/internal/fee"
	"proposal-generator/internal/model"
)

const (
	EnvProduction     = "production"
	DefaultDatabase   = "sqlite:proposals.db"
	DefaultGeminiName = "gemini-2.5-flash-lite"
)

type Config struct {
	Port     string
	Env      string
	LogLevel slog.Level

	DatabaseURL string

	GeminiAPIKey string
	GeminiModel  string

	PlacesAPIKey string
	PlacesURL    string

	TemplatePath string
	CORSOrigin   string

	MaxUploadBytes int
	RateLimitRPS   float64
	RateLimitBurst int

	Catalog  fee.Catalog
	Services []model.Service
}

// Catalogue is the YAML file named by CATALOG_FILE.
type Catalogue struct {
	Mandates []model.Mandate `yaml:"mandates"`
	Services []model.Service `yaml:"services"`
}

func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getenvDefault("PORT", "3000"),
		Env:            getenvDefault("APP_ENV", "development"),
		DatabaseURL:    getenvDefault("DATABASE_URL", DefaultDatabase),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getenvDefault("GEMINI_MODEL", DefaultGeminiName),
		PlacesAPIKey:   os.Getenv("GOOGLE_PLACES_API_KEY"),
		PlacesURL:      os.Getenv("PLACES_URL"),
		TemplatePath:   os.Getenv("PROPOSAL_TEMPLATE"),
		CORSOrigin:     getenvDefault("CORS_ORIGIN", "*"),
		MaxUploadBytes: getenvIntDefault("MAX_UPLOAD_MB", 30) << 20,
		RateLimitRPS:   getenvFloatDefault("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getenvIntDefault("RATE_LIMIT_BURST", 5),
		Catalog:        fee.DefaultCatalog(),
		Services:       model.DefaultServices,
	}

	level, err := ParseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if path := os.Getenv("CATALOG_FILE"); path != "" {
		cat, err := LoadCatalogue(path)
		if err != nil {
			return nil, err
		}
		cfg.Apply(cat)
	}
	return cfg, nil
}

// LoadCatalogue parses a YAML catalogue file.
func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	var cat Catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalogue %s: %w", path, err)
	}
	for _, m := range cat.Mandates {
		if !m.Name.Valid() {
			return nil, fmt.Errorf("catalogue %s: unknown mandate %q", path, m.Name)
		}
	}
	return &cat, nil
}

// Apply overrides mandate reference data and, when the catalogue lists any,
// the service sections.
func (c *Config) Apply(cat *Catalogue) {
	for _, m := range cat.Mandates {
		if m.ID == "" {
			m.ID = string(m.Name)
		}
		c.Catalog[m.Name] = m
	}
	if len(cat.Services) > 0 {
		c.Services = cat.Services
	}
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
