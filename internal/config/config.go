package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. MEDIUMROAST_AUTH_TYPE
const EnvPrefix = "MEDIUMROAST"

type Config struct {
	AppName string  `mapstructure:"app_name"`
	Auth    Auth    `mapstructure:"auth"`
	Server  Server  `mapstructure:"server"`
	Logging Logging `mapstructure:"logging"`
}

// Auth selects the credential strategy and carries the inputs each strategy needs
type Auth struct {
	Type     string `mapstructure:"type"      validate:"required,oneof=device-flow pat pem"`
	AuthHost string `mapstructure:"auth_host" validate:"required,url"`
	APIHost  string `mapstructure:"api_host"  validate:"required,url"`
	Accept   string `mapstructure:"accept"    validate:"required"`
	Scope    string `mapstructure:"scope"`

	ClientID string `mapstructure:"client_id" validate:"required_if=Type device-flow"`

	PATFile string `mapstructure:"pat_file" validate:"required_if=Type pat"`

	PEMFile        string `mapstructure:"pem_file"        validate:"required_if=Type pem"`
	AppID          string `mapstructure:"app_id"          validate:"required_if=Type pem"`
	InstallationID string `mapstructure:"installation_id" validate:"required_if=Type pem"`
}

// Server locates the object API
type Server struct {
	BaseURL    string        `mapstructure:"base_url"    validate:"required,url"`
	APIVersion string        `mapstructure:"api_version" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"gte=0"`
	UserAgent  string        `mapstructure:"user_agent"`
}

type Logging struct {
	Level   string `mapstructure:"level"   validate:"oneof=trace debug info warn error"`
	Console bool   `mapstructure:"console"`
}

var defaults = map[string]any{
	"app_name": "Mediumroast",

	"auth.type":            "device-flow",
	"auth.auth_host":       "https://github.com",
	"auth.api_host":        "https://api.github.com",
	"auth.accept":          "application/vnd.github.v3+json",
	"auth.scope":           "repo",
	"auth.client_id":       "",
	"auth.pat_file":        "",
	"auth.pem_file":        "",
	"auth.app_id":          "",
	"auth.installation_id": "",

	"server.base_url":    "http://localhost:6767",
	"server.api_version": "v1",
	"server.timeout":     "30s",
	"server.user_agent":  "mediumroast-go",

	"logging.level":   "info",
	"logging.console": true,
}

// Load reads the YAML file at path (optional; "" searches ./config.yaml and
// $HOME/.mediumroast/config.yaml), applies MEDIUMROAST_* overrides and validates the result.
func Load(path string) (*Config, error) {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("config")
		vip.AddConfigPath(".")
		vip.AddConfigPath("$HOME/.mediumroast")
	}

	vip.SetConfigType("yaml")
	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	for key, value := range defaults {
		vip.SetDefault(key, value)
	}

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration, including the per-strategy required fields
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

var _ AuthConfig = Auth{}
var _ ServerConfig = Server{}
var _ LogConfig = Logging{}

type AuthConfig interface {
	GetAuthType() string
	GetAuthHost() string
	GetAPIHost() string
	GetScope() string
}

type ServerConfig interface {
	GetBaseURL() string
	GetAPIVersion() string
	GetTimeout() time.Duration
}

type LogConfig interface {
	GetLevel() string
	IsConsole() bool
}

func (a Auth) GetAuthType() string { return a.Type }
func (a Auth) GetAuthHost() string { return a.AuthHost }
func (a Auth) GetAPIHost() string  { return a.APIHost }
func (a Auth) GetScope() string    { return a.Scope }

func (s Server) GetBaseURL() string    { return s.BaseURL }
func (s Server) GetAPIVersion() string { return s.APIVersion }

// GetTimeout returns the per-request timeout; zero disables it
func (s Server) GetTimeout() time.Duration { return s.Timeout }

func (l Logging) GetLevel() string { return l.Level }
func (l Logging) IsConsole() bool  { return l.Console }
