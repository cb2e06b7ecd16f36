package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Environment variables consumed by ilpctl. The three mandatory values gate
// every spawn: nothing is started until all of them are present.
const (
	EnvXRPAddress  = "XRP_ADDRESS"
	EnvXRPSecret   = "XRP_SECRET"
	EnvAdminToken  = "ADMIN_AUTH_TOKEN"
	EnvILPAddress  = "ILP_ADDRESS"
	EnvDataDir     = "DATA_DIR"
	EnvLogFilter   = "RUST_LOG"
	EnvDebugFilter = "DEBUG"
)

const (
	DefaultILPAddress = "private.local.node"
	DefaultDataDir    = "."

	// StoreSocket is the well-known Unix socket the store binds and every
	// downstream stage dials. All four stages of one run share this path.
	StoreSocket = "/tmp/ilp-redis.sock"
)

var ErrMissingEnv = errors.New("config: missing required environment")

// Config is the resolved runtime configuration. Populated once at startup,
// read-only afterwards. XRPSecret and AdminToken must never be logged.
type Config struct {
	XRPAddress  string `koanf:"xrp_address"`
	XRPSecret   string `koanf:"xrp_secret"`
	AdminToken  string `koanf:"admin_auth_token"`
	ILPAddress  string `koanf:"ilp_address"`
	DataDir     string `koanf:"data_dir"`
	LogFilter   string `koanf:"rust_log"`
	DebugFilter string `koanf:"debug"`

	StoreSocket string `koanf:"-"`
}

// envKeys maps process environment names to koanf keys. Anything not listed
// here is dropped before it reaches the config tree.
var envKeys = map[string]string{
	EnvXRPAddress:  "xrp_address",
	EnvXRPSecret:   "xrp_secret",
	EnvAdminToken:  "admin_auth_token",
	EnvILPAddress:  "ilp_address",
	EnvDataDir:     "data_dir",
	EnvLogFilter:   "rust_log",
	EnvDebugFilter: "debug",
}

// Load reads the environment into a Config and validates it. Defaults apply
// for the optional values; a missing or empty mandatory value fails the load
// with every absent variable named.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"ilp_address": DefaultILPAddress,
		"data_dir":    DefaultDataDir,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	// Present-but-empty optionals fall back to their defaults.
	if strings.TrimSpace(cfg.ILPAddress) == "" {
		cfg.ILPAddress = DefaultILPAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = DefaultDataDir
	}
	cfg.StoreSocket = StoreSocket

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Missing returns the mandatory environment variables that are absent or
// empty, in a fixed order.
func (c *Config) Missing() []string {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(c.XRPAddress) == "" {
		missing = append(missing, EnvXRPAddress)
	}
	if strings.TrimSpace(c.XRPSecret) == "" {
		missing = append(missing, EnvXRPSecret)
	}
	if strings.TrimSpace(c.AdminToken) == "" {
		missing = append(missing, EnvAdminToken)
	}
	return missing
}

// Validate enforces the mandatory values.
func (c *Config) Validate() error {
	if missing := c.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return nil
}
