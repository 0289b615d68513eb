package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	RegisterFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	return cmd
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.NavigationTimeout != 90*time.Second {
		t.Errorf("Expected 90s timeout, got %v", cfg.NavigationTimeout)
	}
	if cfg.RetryMaxAttempts != 3 || cfg.RetryBaseDelay != 2*time.Second {
		t.Errorf("Unexpected retry policy: %d x %v", cfg.RetryMaxAttempts, cfg.RetryBaseDelay)
	}
	if cfg.ListenAddr != ":3000" || !cfg.BrowserHeadless {
		t.Errorf("Unexpected service defaults: %+v", cfg)
	}
}

func TestLoad_Layering(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	envFile := filepath.Join(dir, "taxcert.env")
	content := "TAXCERT_LISTEN_ADDR=:9000\nTAXCERT_BROWSER_POOL_SIZE=2\nTAXCERT_RETRY_MAX_ATTEMPTS=5\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("TAXCERT_LISTEN_ADDR")
		os.Unsetenv("TAXCERT_BROWSER_POOL_SIZE")
		os.Unsetenv("TAXCERT_RETRY_MAX_ATTEMPTS")
	})
	// The real environment wins over the file, flags win over both
	t.Setenv("TAXCERT_BROWSER_POOL_SIZE", "4")

	cmd := newCommand(t, "--config", envFile, "--retries", "1", "--verbose")
	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":9000" {
		t.Errorf("Expected listen addr from .env, got %s", cfg.ListenAddr)
	}
	if cfg.BrowserPoolSize != 4 {
		t.Errorf("Expected pool size from environment, got %d", cfg.BrowserPoolSize)
	}
	if cfg.RetryMaxAttempts != 1 {
		t.Errorf("Expected retries from flag, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected debug level, got %s", cfg.LogLevel)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unparseable duration", "TAXCERT_NAVIGATION_TIMEOUT", "soon"},
		{"pool too large", "TAXCERT_BROWSER_POOL_SIZE", "11"},
		{"zero attempts", "TAXCERT_RETRY_MAX_ATTEMPTS", "0"},
		{"unknown level", "TAXCERT_LOG_LEVEL", "trace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(nil); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_MissingConfigFileIsIgnored(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newCommand(t, "--config", filepath.Join(t.TempDir(), "absent.env"))
	if _, err := Load(cmd); err != nil {
		t.Errorf("Expected missing .env to be ignored, got %v", err)
	}
}
