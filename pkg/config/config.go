package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arnavshah/rotation-api-go/pkg/scheduler"
)

// EnvPrefix prefixes every environment override, e.g. ROTA_SERVER__PORT
const EnvPrefix = "ROTA_"

type Config struct {
	AppEnv     string           `json:"app_env"`
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Auth       AuthConfig       `json:"auth"`
	Logging    LoggingConfig    `json:"logging"`
	Scheduling SchedulingConfig `json:"scheduling"`
}

type ServerConfig struct {
	Port    string `json:"port"`
	GinMode string `json:"gin_mode"`
}

// DatabaseConfig selects postgres when URL is set, sqlite at Path otherwise
type DatabaseConfig struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

type AuthConfig struct {
	JWTSecret       string `json:"jwt_secret"`
	APIMasterSecret string `json:"api_master_secret"`
	AdminUsername   string `json:"admin_username"`
	AdminPassword   string `json:"admin_password"`
	BcryptCost      int    `json:"bcrypt_cost"`
}

type LoggingConfig struct {
	Level string `json:"level"`
}

// SchedulingConfig holds the planning defaults. An empty Catalog means the
// built-in catalog.
type SchedulingConfig struct {
	Policy            string                `json:"policy"`
	PresentTarget     int                   `json:"present_target"`
	RestAfterOverride bool                  `json:"rest_after_override"`
	Catalog           []scheduler.TrackSpec `json:"catalog"`
}

// LoadDotEnv loads the first .env found in the working directory or its parents
func LoadDotEnv() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads the optional file at path, then applies ROTA_ environment overrides.
// An empty path or a missing file leaves only defaults and environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if k, err = LoadFile(path); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads a yaml or json document into a new koanf instance
func LoadFile(path string) (*koanf.Koanf, error) {
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return k, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	}
	return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
}

// SetDefaults applies sane defaults to every section
func (c *Config) SetDefaults() {
	if c.AppEnv == "" {
		c.AppEnv = "production"
	}
	c.Server.SetDefaults()
	c.Database.SetDefaults()
	c.Auth.SetDefaults()
	c.Logging.SetDefaults()
	c.Scheduling.SetDefaults()
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Scheduling.Validate(); err != nil {
		return fmt.Errorf("scheduling: %w", err)
	}
	return nil
}

func (c *ServerConfig) SetDefaults() {
	if c.Port == "" {
		c.Port = "8000"
	}
}

func (c *DatabaseConfig) SetDefaults() {
	if c.URL == "" && c.Path == "" {
		c.Path = "rotation.db"
	}
}

func (c *AuthConfig) SetDefaults() {
	if c.AdminUsername == "" {
		c.AdminUsername = "admin"
	}
	if c.AdminPassword == "" {
		c.AdminPassword = "admin123"
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 14
	}
}

func (c AuthConfig) Validate() error {
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt_cost %d out of range", c.BcryptCost)
	}
	return nil
}

// RequireSecrets fails when a signing secret is unset. The CLI plans without
// them, so only the HTTP server calls it.
func (c AuthConfig) RequireSecrets() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "jwt_secret ("+EnvPrefix+"AUTH__JWT_SECRET)")
	}
	if c.APIMasterSecret == "" {
		missing = append(missing, "api_master_secret ("+EnvPrefix+"AUTH__API_MASTER_SECRET)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing auth secrets: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c *SchedulingConfig) SetDefaults() {
	if c.Policy == "" {
		c.Policy = string(scheduler.PolicyFIFO)
	}
	if c.PresentTarget == 0 {
		c.PresentTarget = scheduler.DefaultPresentTarget
	}
}

func (c SchedulingConfig) Validate() error {
	if _, err := scheduler.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if c.PresentTarget < 0 {
		return fmt.Errorf("present_target must not be negative")
	}
	if len(c.Catalog) > 0 {
		if _, err := scheduler.NewCatalog(c.Catalog); err != nil {
			return err
		}
	}
	return nil
}

// ShiftCatalog returns the configured catalog, or the default one
func (c SchedulingConfig) ShiftCatalog() *scheduler.Catalog {
	if len(c.Catalog) == 0 {
		return scheduler.DefaultCatalog()
	}
	return &scheduler.Catalog{Tracks: c.Catalog}
}
