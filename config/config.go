// Package config loads the application settings from an optional file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const EnvPrefix = "KAIROS"

type Config struct {
	Database Database `mapstructure:"database"`
	HTTP     HTTP     `mapstructure:"http"`
	Auth     Auth     `mapstructure:"auth"`
	Sales    Sales    `mapstructure:"sales"`
	Reports  Reports  `mapstructure:"reports"`
	Shop     Shop     `mapstructure:"shop"`
	Log      Log      `mapstructure:"log"`
}

type Database struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type HTTP struct {
	BindAddr string `mapstructure:"bind_addr"`
	TLSCert  string `mapstructure:"tls_cert"`
	TLSKey   string `mapstructure:"tls_key"`
}

func (h HTTP) TLS() bool {
	return h.TLSCert != "" && h.TLSKey != ""
}

type Auth struct {
	Secret     string        `mapstructure:"secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

type Sales struct {
	AllowNegativeStock bool `mapstructure:"allow_negative_stock"`
	VerifyTotal        bool `mapstructure:"verify_total"`
}

type Reports struct {
	LowStockThreshold int64  `mapstructure:"low_stock_threshold"`
	Timezone          string `mapstructure:"timezone"`
}

// Location resolves Timezone; "Local" and "" mean the host zone.
func (r Reports) Location() (*time.Location, error) {
	if r.Timezone == "" || r.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(r.Timezone)
}

type Shop struct {
	Name string `mapstructure:"name"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("http.bind_addr", ":8080")
	v.SetDefault("http.tls_cert", "")
	v.SetDefault("http.tls_key", "")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.session_ttl", 12*time.Hour)
	v.SetDefault("auth.cookie_name", "kairos_session")
	v.SetDefault("auth.bcrypt_cost", 0)
	v.SetDefault("sales.allow_negative_stock", true)
	v.SetDefault("sales.verify_total", false)
	v.SetDefault("reports.low_stock_threshold", 5)
	v.SetDefault("reports.timezone", "Local")
	v.SetDefault("shop.name", "Kairos")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// legacyEnv keeps the deployment variables of the first releases working.
var legacyEnv = map[string]string{
	"database.dsn":   "POSTGRES_DSN",
	"http.bind_addr": "BIND_ADDR",
	"http.tls_cert":  "TLS_CERT",
	"http.tls_key":   "TLS_KEY",
}

// Load reads path when it is not empty, then overlays KAIROS_* variables
// (KAIROS_DATABASE_DSN for database.dsn) and the legacy names.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		env := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, env, legacy); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &c, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "pgx", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database DSN is required")
	}
	if _, err := c.Reports.Location(); err != nil {
		return fmt.Errorf("reports timezone: %w", err)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ValidateServe additionally checks what the HTTP server needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Auth.Secret == "" {
		return errors.New("auth secret is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if (c.HTTP.TLSCert == "") != (c.HTTP.TLSKey == "") {
		return errors.New("TLS needs both a certificate and a key")
	}
	return nil
}

// SetupLogging configures the standard logrus logger.
func SetupLogging(l Log) error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	switch l.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", l.Format)
	}

	return nil
}
