package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// envSnapshot saves and clears BINGO_/SERVICE_ environment variables so
// tests don't leak into or pick up the surrounding shell's environment.
func envSnapshot(t *testing.T) func() {
	t.Helper()
	saved := make(map[string]string)
	relevant := func(key string) bool {
		return strings.HasPrefix(key, "BINGO_") || key == "SERVICE_NAME" || key == "SERVICE_VERSION"
	}
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if relevant(parts[0]) {
			saved[parts[0]] = parts[1]
			os.Unsetenv(parts[0])
		}
	}
	return func() {
		for _, env := range os.Environ() {
			parts := strings.SplitN(env, "=", 2)
			if relevant(parts[0]) {
				os.Unsetenv(parts[0])
			}
		}
		for k, v := range saved {
			os.Setenv(k, v)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	defer envSnapshot(t)()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.ServiceName != "bingo" {
		t.Errorf("ServiceName = %q, want bingo", cfg.ServiceName)
	}
	if cfg.ServiceVersion != "dev" {
		t.Errorf("ServiceVersion = %q, want dev", cfg.ServiceVersion)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.MaxCycles != 1000 {
		t.Errorf("MaxCycles = %d, want 1000", cfg.MaxCycles)
	}
	if cfg.BatchDeadline != 30*time.Second {
		t.Errorf("BatchDeadline = %v, want 30s", cfg.BatchDeadline)
	}
}

func TestLoadBareServiceEnvVars(t *testing.T) {
	defer envSnapshot(t)()
	os.Setenv("SERVICE_NAME", "billing-rules")
	os.Setenv("SERVICE_VERSION", "1.2.3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServiceName != "billing-rules" {
		t.Errorf("ServiceName = %q, want billing-rules (from bare SERVICE_NAME)", cfg.ServiceName)
	}
	if cfg.ServiceVersion != "1.2.3" {
		t.Errorf("ServiceVersion = %q, want 1.2.3 (from bare SERVICE_VERSION)", cfg.ServiceVersion)
	}
}

func TestLoadPrefixedEnvVars(t *testing.T) {
	defer envSnapshot(t)()
	os.Setenv("BINGO_PORT", "9090")
	os.Setenv("BINGO_ENVIRONMENT", "production")
	os.Setenv("BINGO_MAX_CYCLES", "50")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Environment != "production" {
		t.Errorf("Environment = %q, want production", cfg.Environment)
	}
	if cfg.MaxCycles != 50 {
		t.Errorf("MaxCycles = %d, want 50", cfg.MaxCycles)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	defer envSnapshot(t)()

	dir := t.TempDir()
	path := dir + "/bingo.yaml"
	contents := "host: 127.0.0.1\nport: 7000\ntoken_pool_single: 10\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want 127.0.0.1", cfg.Host)
	}
	if cfg.Port != 7000 {
		t.Errorf("Port = %d, want 7000", cfg.Port)
	}
	if cfg.TokenPoolSingle != 10 {
		t.Errorf("TokenPoolSingle = %d, want 10", cfg.TokenPoolSingle)
	}
}

func TestLoadMissingFile(t *testing.T) {
	defer envSnapshot(t)()
	if _, err := Load("/nonexistent/bingo.yaml"); err == nil {
		t.Fatal("Load with a missing config file should return an error")
	}
}
