// ABOUTME: Tests for environment-driven configuration loading
// ABOUTME: Verifies defaults, overrides, and validation ranges

package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %q", cfg.ChatModel)
	}
	if cfg.Timeout != 120*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.MaxChapters != 20 {
		t.Errorf("MaxChapters = %d", cfg.MaxChapters)
	}
	if cfg.SummaryTTL != 0 {
		t.Errorf("SummaryTTL = %v, want 0 (never expire)", cfg.SummaryTTL)
	}
	if cfg.CompletionThreshold != 0.8 {
		t.Errorf("CompletionThreshold = %v", cfg.CompletionThreshold)
	}
	if !strings.Contains(cfg.ProjectsDir, "bookforge") {
		t.Errorf("ProjectsDir = %q, want under the bookforge data dir", cfg.ProjectsDir)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("BOOKFORGE_OPENAI_MODEL", "gpt-4o")
	t.Setenv("BOOKFORGE_MAX_RETRIES", "5")
	t.Setenv("BOOKFORGE_RETRY_DELAY", "500ms")
	t.Setenv("BOOKFORGE_MAX_CHAPTERS", "8")
	t.Setenv("BOOKFORGE_SUMMARY_TTL", "24h")
	t.Setenv("BOOKFORGE_COMPLETION_THRESHOLD", "0.9")
	t.Setenv("BOOKFORGE_PROJECTS_DIR", "/tmp/projects")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChatModel != "gpt-4o" {
		t.Errorf("ChatModel = %q", cfg.ChatModel)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 500*time.Millisecond {
		t.Errorf("RetryDelay = %v", cfg.RetryDelay)
	}
	if cfg.MaxChapters != 8 {
		t.Errorf("MaxChapters = %d", cfg.MaxChapters)
	}
	if cfg.SummaryTTL != 24*time.Hour {
		t.Errorf("SummaryTTL = %v", cfg.SummaryTTL)
	}
	if cfg.CompletionThreshold != 0.9 {
		t.Errorf("CompletionThreshold = %v", cfg.CompletionThreshold)
	}
	if cfg.ProjectsDir != "/tmp/projects" {
		t.Errorf("ProjectsDir = %q", cfg.ProjectsDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"too many retries", func(c *Config) { c.MaxRetries = 11 }, true},
		{"zero chapters", func(c *Config) { c.MaxChapters = 0 }, true},
		{"threshold zero", func(c *Config) { c.CompletionThreshold = 0 }, true},
		{"threshold above one", func(c *Config) { c.CompletionThreshold = 1.1 }, true},
		{"threshold exactly one", func(c *Config) { c.CompletionThreshold = 1.0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{MaxRetries: 3, MaxChapters: 20, CompletionThreshold: 0.8}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_BadEnvValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("BOOKFORGE_MAX_RETRIES", "lots")
	t.Setenv("BOOKFORGE_TIMEOUT", "soon")
	t.Setenv("BOOKFORGE_COMPLETION_THRESHOLD", "most")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxRetries != 3 || cfg.Timeout != 120*time.Second || cfg.CompletionThreshold != 0.8 {
		t.Errorf("unparseable env values should fall back to defaults: %+v", cfg)
	}
}
