// Package config loads SmartMeal settings from layered sources:
// built-in defaults, an optional YAML file and SMARTMEAL_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SMARTMEAL_"

// PathEnvVar overrides the config file path when no explicit path is given.
const PathEnvVar = "SMARTMEAL_CONFIG"

// DefaultPath is read when present and no other path is given.
const DefaultPath = "smartmeal.yaml"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Match     MatchConfig     `koanf:"match"`
	Navigator NavigatorConfig `koanf:"navigator"`
	Server    ServerConfig    `koanf:"server"`
	MCP       MCPConfig       `koanf:"mcp"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Tree      TreeConfig      `koanf:"tree"`
	Store     StoreConfig     `koanf:"store"`
	Breaker   BreakerConfig   `koanf:"breaker"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type MatchConfig struct {
	Threshold float64 `koanf:"threshold" validate:"gt=0,lte=1"`
}

type NavigatorConfig struct {
	RecoveryDelay   time.Duration `koanf:"recovery_delay" validate:"gt=0"`
	HealthInterval  time.Duration `koanf:"health_interval" validate:"gt=0"`
	DegradedAfter   int           `koanf:"degraded_after" validate:"gte=0"`
	CallTimeout     time.Duration `koanf:"call_timeout" validate:"gt=0"`
	PreflightHealth bool          `koanf:"preflight_health"`
}

type ServerConfig struct {
	Addr        string   `koanf:"addr" validate:"required"`
	RateLimit   int      `koanf:"rate_limit" validate:"gte=0"`
	CORSOrigins []string `koanf:"cors_origins"`
}

type MCPConfig struct {
	Transport string `koanf:"transport" validate:"oneof=stdio sse"`
	Addr      string `koanf:"addr" validate:"required_if=Transport sse"`
	BaseURL   string `koanf:"base_url" validate:"omitempty,url"`
}

type CatalogConfig struct {
	// Path of a YAML or JSON catalog; empty uses the embedded seed catalog.
	Path string `koanf:"path"`
}

type TreeConfig struct {
	// Path of a YAML or JSON tree definition; empty uses the embedded seed tree.
	Path string `koanf:"path"`
	// URL of a remote tree service; when set it replaces the in-process tree.
	URL string `koanf:"url" validate:"omitempty,url"`
}

type StoreConfig struct {
	Driver        string        `koanf:"driver" validate:"oneof=memory file redis badger"`
	Path          string        `koanf:"path"`
	RedisAddr     string        `koanf:"redis_addr" validate:"required_if=Driver redis"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db" validate:"gte=0"`
	TTL           time.Duration `koanf:"ttl" validate:"gte=0"`

	// EncryptionKey enables AES-256-GCM sealing of stored snapshots (base64, 32 bytes).
	EncryptionKey string `koanf:"encryption_key" validate:"omitempty,base64"`
	// FallbackKeys are older keys still accepted on load, for rotation.
	FallbackKeys []string `koanf:"fallback_keys" validate:"omitempty,dive,base64"`
}

type BreakerConfig struct {
	MaxFailures uint32        `koanf:"max_failures" validate:"gte=1"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Match: MatchConfig{
			Threshold: 0.75,
		},
		Navigator: NavigatorConfig{
			RecoveryDelay:   3 * time.Second,
			HealthInterval:  5 * time.Minute,
			DegradedAfter:   3,
			CallTimeout:     10 * time.Second,
			PreflightHealth: true,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			RateLimit:   100,
			CORSOrigins: []string{"*"},
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Addr:      ":8081",
		},
		Store: StoreConfig{
			Driver:    "memory",
			RedisAddr: "localhost:6379",
		},
		Breaker: BreakerConfig{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
	}
}

// Load reads the configuration. An explicit path must exist; otherwise
// SMARTMEAL_CONFIG and then smartmeal.yaml are tried and may be absent.
// Environment variables win over the file: SMARTMEAL_MATCH_THRESHOLD sets match.threshold.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	for _, path := range []string{"server.cors_origins", "store.fallback_keys"} {
		if err := splitList(k, path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func resolvePath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return path, nil
	}
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath, nil
	}
	return "", nil
}

// envKey maps SMARTMEAL_NAVIGATOR_RECOVERY_DELAY to navigator.recovery_delay.
// Only the first underscore separates the section.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	return strings.Replace(key, "_", ".", 1)
}

func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if err := k.Set(path, parts); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}
