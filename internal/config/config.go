// Package config loads the driving process's configuration (spec.md §6
// environment surface, expanded in SPEC_FULL.md §2): network binding,
// telemetry identity, and engine tuning knobs. It wraps
// github.com/spf13/viper the way beads' internal/config layers a
// config.yaml file under BD_/BEADS_-prefixed environment variables —
// here the prefix is BINGO_, matching bingo's own env surface.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved configuration a bingo process starts with.
type Config struct {
	Host string
	Port int

	ServiceName    string
	ServiceVersion string
	Environment    string

	MaxCycles       int
	MaxActivations  int
	BatchDeadline   time.Duration
	TokenPoolSingle int
	TokenPoolMulti  int
	ExprCacheSize   int
}

// defaults mirrors the engine/beta/formula package defaults so a process
// started with no configuration at all behaves identically to the
// libraries' own zero-config behavior.
func defaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("service_name", "bingo")
	v.SetDefault("service_version", "dev")
	v.SetDefault("environment", "development")
	v.SetDefault("max_cycles", 1000)
	v.SetDefault("max_activations", 100_000)
	v.SetDefault("batch_deadline", 30*time.Second)
	v.SetDefault("token_pool_single", 5000)
	v.SetDefault("token_pool_multi", 2500)
	v.SetDefault("expr_cache_size", 512)
}

// Load resolves configuration from (in ascending precedence): built-in
// defaults, an optional YAML file at configPath (pass "" to skip), and
// environment variables — BINGO_*-prefixed for most keys, matching
// spec.md §6's BINGO_HOST/BINGO_PORT/BINGO_MAX_CYCLES/etc., except
// service_name/service_version, bound directly to the bare SERVICE_NAME/
// SERVICE_VERSION vars spec.md §6 names without a BINGO_ prefix. This is
// the same file-under-env-vars layering beads' internal/config applies
// for .beads/config.yaml under BD_/BEADS_ vars.
func Load(configPath string) (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("bingo")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("service_name", "SERVICE_NAME"); err != nil {
		return Config{}, fmt.Errorf("config: bind SERVICE_NAME: %w", err)
	}
	if err := v.BindEnv("service_version", "SERVICE_VERSION"); err != nil {
		return Config{}, fmt.Errorf("config: bind SERVICE_VERSION: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	return Config{
		Host:            v.GetString("host"),
		Port:            v.GetInt("port"),
		ServiceName:     v.GetString("service_name"),
		ServiceVersion:  v.GetString("service_version"),
		Environment:     v.GetString("environment"),
		MaxCycles:       v.GetInt("max_cycles"),
		MaxActivations:  v.GetInt("max_activations"),
		BatchDeadline:   v.GetDuration("batch_deadline"),
		TokenPoolSingle: v.GetInt("token_pool_single"),
		TokenPoolMulti:  v.GetInt("token_pool_multi"),
		ExprCacheSize:   v.GetInt("expr_cache_size"),
	}, nil
}
