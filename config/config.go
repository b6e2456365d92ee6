// Package config loads the service configuration from an optional dotenv
// file and the environment using Viper.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-viper/mapstructure/v2"
	auth "github.com/goliatone/go-auth-dwsp"
	"github.com/spf13/viper"
)

// DefaultEnvFile is read when AUTH_ENV_FILE is not set.
const DefaultEnvFile = "config/secret.env"

// Config holds application configuration loaded from the environment.
type Config struct {
	// JWTSecret signs session tokens. Required.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration `mapstructure:"TOKEN_TTL"`

	DWSPClientID     string `mapstructure:"DWSP_CLIENT_ID"`
	DWSPClientSecret string `mapstructure:"DWSP_CLIENT_SECRET"`
	DWSPBaseURL      string `mapstructure:"DWSP_BASE_URL"`
	// DWSPAuthorizeURL enables GET /api/oauth/login when set.
	DWSPAuthorizeURL string `mapstructure:"DWSP_AUTHORIZE_URL"`
	// DWSPInsecureSkipVerify relaxes TLS verification for the DWSP client only.
	DWSPInsecureSkipVerify bool          `mapstructure:"DWSP_INSECURE_SKIP_VERIFY"`
	DWSPTimeout            time.Duration `mapstructure:"DWSP_TIMEOUT"`

	// HomeRedirectURL is the Location sent after a delegated login.
	HomeRedirectURL string `mapstructure:"HOME_REDIRECT_URL"`

	CookieName   string        `mapstructure:"COOKIE_NAME"`
	CookieDomain string        `mapstructure:"COOKIE_DOMAIN"`
	CookieTTL    time.Duration `mapstructure:"COOKIE_TTL"`
	CookieSecure bool          `mapstructure:"COOKIE_SECURE"`

	BcryptCost      int `mapstructure:"BCRYPT_COST"`
	HashConcurrency int `mapstructure:"HASH_CONCURRENCY"`

	DBDriver string `mapstructure:"DB_DRIVER"`
	DBDSN    string `mapstructure:"DB_DSN"`

	HTTPAddr  string `mapstructure:"HTTP_ADDR"`
	StaticDir string `mapstructure:"STATIC_DIR"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var _ auth.Config = (*Config)(nil)

// Load reads the dotenv file named by AUTH_ENV_FILE (default
// config/secret.env) if present, then the environment.
func Load() (*Config, error) {
	path := os.Getenv("AUTH_ENV_FILE")
	if path == "" {
		path = DefaultEnvFile
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit dotenv path. A missing file is ignored,
// environment variables override the file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		millisecondsHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}

// millisecondsHookFunc decodes a bare integer into a time.Duration as
// milliseconds, so COOKIE_TTL=216000000 means 60h. Values with a unit
// ("60h", "90m") fall through to the standard duration hook.
func millisecondsHookFunc() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != durationType || from.Kind() != reflect.String {
			return data, nil
		}
		raw := strings.TrimSpace(data.(string))
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return data, nil
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", auth.DefaultTokenExpiration)
	v.SetDefault("DWSP_CLIENT_ID", "")
	v.SetDefault("DWSP_CLIENT_SECRET", "")
	v.SetDefault("DWSP_BASE_URL", "https://31.133.60.137:3001")
	v.SetDefault("DWSP_AUTHORIZE_URL", "")
	v.SetDefault("DWSP_INSECURE_SKIP_VERIFY", false)
	v.SetDefault("DWSP_TIMEOUT", 10*time.Second)
	v.SetDefault("HOME_REDIRECT_URL", "http://localhost:8080/")
	v.SetDefault("COOKIE_NAME", auth.DefaultCookieName)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_TTL", auth.DefaultCookieDuration)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("BCRYPT_COST", auth.MinPasswordCost)
	v.SetDefault("HASH_CONCURRENCY", 0)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	if c.BcryptCost < auth.MinPasswordCost {
		c.BcryptCost = auth.MinPasswordCost
	}
}

// Validate will run validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.JWTSecret, validation.Required),
		validation.Field(&c.DWSPClientID, validation.Required),
		validation.Field(&c.DWSPClientSecret, validation.Required),
		validation.Field(&c.DWSPBaseURL, validation.Required),
		validation.Field(&c.HTTPAddr, validation.Required),
		validation.Field(&c.BcryptCost, validation.Max(31)),
		validation.Field(&c.HashConcurrency, validation.Min(0)),
		validation.Field(&c.DBDriver, validation.In("sqlite", "postgres")),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("json", "text")),
	)
}

func (c *Config) GetSigningKey() string {
	return c.JWTSecret
}

func (c *Config) GetTokenExpiration() time.Duration {
	return c.TokenTTL
}

func (c *Config) GetCookieName() string {
	return c.CookieName
}

func (c *Config) GetCookieDomain() string {
	return c.CookieDomain
}

func (c *Config) GetCookieDuration() time.Duration {
	return c.CookieTTL
}

func (c *Config) GetCookieSecure() bool {
	return c.CookieSecure
}

func (c *Config) GetPasswordCost() int {
	return c.BcryptCost
}

func (c *Config) GetHashConcurrency() int {
	return c.HashConcurrency
}
