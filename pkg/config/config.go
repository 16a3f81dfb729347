package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides, e.g. CREW_SERVER__PORT=9000.
const EnvPrefix = "CREW_"

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Auth       AuthConfig       `json:"auth"`
	Scheduling SchedulingConfig `json:"scheduling"`
	Notify     NotifyConfig     `json:"notify"`
	Metrics    MetricsConfig    `json:"metrics"`
	Logging    LoggingConfig    `json:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port int    `json:"port"`
	Mode string `json:"mode"`
}

// DatabaseConfig selects the store. A URL selects Postgres, otherwise SQLite at Path.
type DatabaseConfig struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// AuthConfig holds secrets and the bootstrap admin account.
type AuthConfig struct {
	JWTSecret       string `json:"jwt_secret"`
	APIMasterSecret string `json:"api_master_secret"`
	AdminUsername   string `json:"admin_username"`
	AdminPassword   string `json:"admin_password"`
	TokenTTLHours   int    `json:"token_ttl_hours"`
	BcryptCost      int    `json:"bcrypt_cost"`
}

// SchedulingConfig tunes the resolver inputs.
type SchedulingConfig struct {
	// LenientDates replaces unparseable windows with a same-day 09:00-17:00
	// window instead of rejecting the request.
	LenientDates bool `json:"lenient_dates"`
}

// NotifyConfig configures notification channels.
type NotifyConfig struct {
	Email EmailConfig `json:"email"`
	MQTT  MQTTConfig  `json:"mqtt"`
}

// EmailConfig configures the transactional email API.
type EmailConfig struct {
	Enabled        bool   `json:"enabled"`
	Endpoint       string `json:"endpoint"`
	APIKey         string `json:"api_key"`
	From           string `json:"from"`
	AdminAddress   string `json:"admin_address"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// MQTTConfig configures the realtime assignment feed.
type MQTTConfig struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	Retained    bool   `json:"retained"`
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace"`
}

// LoggingConfig configures the zerolog output.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Load reads an optional .env file, the optional config file at path (YAML or
// JSON) and CREW_ environment overrides, then applies defaults and validates.
func Load(path string) (*Config, error) {
	LoadDotEnv()

	k := koanf.New(".")
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}

	cfg.applyLegacyEnv()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads the first .env found in the working directory or its parents.
func LoadDotEnv() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
}

// applyLegacyEnv honours the plain variables used by earlier deployments for
// any field the file and CREW_ overrides left empty.
func (c *Config) applyLegacyEnv() {
	if c.Server.Port == 0 {
		if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			c.Server.Port = port
		}
	}
	if c.Server.Mode == "" {
		c.Server.Mode = os.Getenv("GIN_MODE")
	}
	if c.Database.URL == "" {
		c.Database.URL = os.Getenv("DATABASE_URL")
	}
	if c.Database.Path == "" {
		c.Database.Path = os.Getenv("DATA_PATH")
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if c.Auth.APIMasterSecret == "" {
		c.Auth.APIMasterSecret = os.Getenv("API_MASTER_SECRET")
	}
	if c.Auth.AdminUsername == "" {
		c.Auth.AdminUsername = os.Getenv("ADMIN_USERNAME")
	}
	if c.Auth.AdminPassword == "" {
		c.Auth.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	}
}

// SetDefaults applies fallback values for optional fields.
func (c *Config) SetDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Database.Path == "" {
		c.Database.Path = "crew.db"
	}
	if c.Auth.AdminUsername == "" {
		c.Auth.AdminUsername = "admin"
	}
	if c.Auth.AdminPassword == "" {
		c.Auth.AdminPassword = "admin123"
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = 24
	}
	if c.Auth.BcryptCost <= 0 {
		c.Auth.BcryptCost = 12
	}
	if c.Notify.Email.TimeoutSeconds <= 0 {
		c.Notify.Email.TimeoutSeconds = 10
	}
	if c.Notify.MQTT.ClientID == "" {
		c.Notify.MQTT.ClientID = "crew-scheduler"
	}
	if c.Notify.MQTT.TopicPrefix == "" {
		c.Notify.MQTT.TopicPrefix = "crew"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "crew"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown server.mode %s", c.Server.Mode)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Auth.APIMasterSecret == "" {
		return fmt.Errorf("auth.api_master_secret is required")
	}
	if c.Notify.Email.Enabled && c.Notify.Email.Endpoint == "" {
		return fmt.Errorf("notify.email.endpoint is required when email is enabled")
	}
	if c.Notify.MQTT.Enabled && c.Notify.MQTT.Broker == "" {
		return fmt.Errorf("notify.mqtt.broker is required when mqtt is enabled")
	}
	if c.Notify.MQTT.QoS > 2 {
		return fmt.Errorf("notify.mqtt.qos must be 0, 1 or 2")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("unknown logging.format %s", c.Logging.Format)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
