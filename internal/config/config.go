// ABOUTME: Centralized configuration for the book generation pipeline
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Config holds all configuration for the pipeline
type Config struct {
	// OpenAI settings
	OpenAIKey  string
	ChatModel  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Availability probe
	ProbeInterval time.Duration

	// Pipeline settings
	MaxChapters         int
	SummaryTTL          time.Duration
	CompletionThreshold float64

	// Where projects live when no explicit directory is given
	ProjectsDir string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		ChatModel:           getEnv("BOOKFORGE_OPENAI_MODEL", "gpt-4o-mini"),
		Timeout:             getEnvDuration("BOOKFORGE_TIMEOUT", 120*time.Second),
		MaxRetries:          getEnvInt("BOOKFORGE_MAX_RETRIES", 3),
		RetryDelay:          getEnvDuration("BOOKFORGE_RETRY_DELAY", 2*time.Second),
		ProbeInterval:       getEnvDuration("BOOKFORGE_PROBE_INTERVAL", 60*time.Second),
		MaxChapters:         getEnvInt("BOOKFORGE_MAX_CHAPTERS", 20),
		SummaryTTL:          getEnvDuration("BOOKFORGE_SUMMARY_TTL", 0),
		CompletionThreshold: getEnvFloat("BOOKFORGE_COMPLETION_THRESHOLD", 0.8),
		ProjectsDir:         getEnv("BOOKFORGE_PROJECTS_DIR", defaultProjectsDir()),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("BOOKFORGE_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.MaxChapters < 1 {
		return fmt.Errorf("BOOKFORGE_MAX_CHAPTERS must be >= 1, got %d", c.MaxChapters)
	}
	if c.CompletionThreshold <= 0 || c.CompletionThreshold > 1 {
		return fmt.Errorf("BOOKFORGE_COMPLETION_THRESHOLD must be in (0,1], got %f", c.CompletionThreshold)
	}
	return nil
}

// defaultProjectsDir resolves the XDG data directory for projects.
// Respects XDG_DATA_HOME environment variable override for testing.
func defaultProjectsDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "bookforge", "projects")
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
