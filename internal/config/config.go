// Package config provides centralized configuration management for the
// cloudnotes application. It loads configuration from CLI flags and
// environment variables, validates required fields, and provides sensible
// defaults.
//
// CLI flags control which services are mocked (--no-ai, --test).
// Environment variables provide secrets and service configuration.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kuitang/cloudnotes/internal/enrich"
	"github.com/kuitang/cloudnotes/internal/i18n"
	"github.com/kuitang/cloudnotes/internal/ratelimit"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	ListenAddr   string
	TemplatesDir string

	// Database and encryption
	DataDir   string // Directory holding notes.db and prefs.json
	MasterKey string // 64 hex characters (32 bytes)

	// Rate limiting
	RateLimitConfig ratelimit.Config

	// Mock service flags (controlled by CLI flags, not env vars)
	NoAI bool // If true, use the mock enricher (--no-ai)

	// OpenAI
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string // Optional override, mainly for tests and proxies

	// UI
	DefaultLang i18n.Lang
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags parses CLI flags and returns them. Call before LoadConfig.
// This registers and parses --no-ai, --test, and --addr flags.
func ParseFlags() (noAI bool, addr string) {
	var testMode bool
	flag.BoolVar(&noAI, "no-ai", false, "Use mock enricher (no OpenAI calls)")
	flag.BoolVar(&testMode, "test", false, "Shorthand for --no-ai")
	flag.StringVar(&addr, "addr", "", "Listen address (default :8080, overrides LISTEN_ADDR env var)")
	flag.Parse()

	if testMode {
		noAI = true
	}

	return noAI, addr
}

// LoadConfig loads configuration from environment variables and CLI flag
// values. The noAI flag controls whether enrichment uses a mock. The addr
// flag overrides the LISTEN_ADDR env var if non-empty.
func LoadConfig(noAI bool, addr string) (*Config, error) {
	cfg := &Config{}

	// CLI flag values
	cfg.NoAI = noAI

	// Server settings
	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", ":8080")
	if addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.TemplatesDir = getEnvOrDefault("TEMPLATES_DIR", "./web/templates")

	// Database and encryption
	cfg.DataDir = getEnvOrDefault("DATA_DIR", "/data")
	cfg.MasterKey = os.Getenv("MASTER_KEY")

	// Rate limiting
	cfg.RateLimitConfig = ratelimit.Config{
		RPS:             parseFloat64OrDefault("RATE_LIMIT_RPS", ratelimit.DefaultConfig.RPS),
		Burst:           parseIntOrDefault("RATE_LIMIT_BURST", ratelimit.DefaultConfig.Burst),
		CleanupInterval: parseDurationOrDefault("RATE_LIMIT_CLEANUP_INTERVAL", time.Hour),
	}

	// OpenAI
	cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", enrich.DefaultModel)
	cfg.OpenAIBaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))

	// UI
	cfg.DefaultLang = i18n.Parse(os.Getenv("DEFAULT_LANG"), i18n.DefaultLang)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
// When the mock enricher is NOT active, the OpenAI API key is required.
func (c *Config) Validate() error {
	var errs []string

	// OpenAI: require the API key unless --no-ai
	if !c.NoAI && c.OpenAIAPIKey == "" {
		errs = append(errs, "OPENAI_API_KEY is required (set env var or use --no-ai)")
	}

	// MasterKey: always required (losing it = the notes DB unreadable)
	if c.MasterKey == "" {
		errs = append(errs, "MASTER_KEY is required (generate with: openssl rand -hex 32)")
	} else if len(c.MasterKey) != 64 {
		errs = append(errs, "MASTER_KEY must be 64 hex characters (32 bytes)")
	}

	if c.DataDir == "" {
		errs = append(errs, "DATA_DIR must not be empty")
	}

	// Validate rate limit config
	if c.RateLimitConfig.RPS <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitConfig.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	return nil
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "cloudnotes server starting...")

	// Enrichment
	if c.NoAI {
		fmt.Fprintln(os.Stderr, "  AI:      Mock enricher (--no-ai)")
	} else {
		fmt.Fprintf(os.Stderr, "  AI:      OpenAI (real, model: %s)\n", c.OpenAIModel)
	}

	// Master key
	fmt.Fprintln(os.Stderr, "  Master:  From MASTER_KEY env var")

	fmt.Fprintf(os.Stderr, "  Data:    %s\n", c.DataDir)
	fmt.Fprintf(os.Stderr, "  Lang:    %s\n", c.DefaultLang)
	fmt.Fprintf(os.Stderr, "  Listen:  %s\n", c.ListenAddr)
	fmt.Fprintln(os.Stderr, "")
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// MustLoadConfig loads configuration and panics if validation fails.
// Use this in main() when you want the application to fail fast on bad config.
func MustLoadConfig(noAI bool, addr string) *Config {
	cfg, err := LoadConfig(noAI, addr)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			panic(fmt.Sprintf("Configuration validation failed:\n  - %s", strings.Join(validationErr.Errors, "\n  - ")))
		}
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}
