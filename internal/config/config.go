package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/makeplus/makeplus-api/internal/store"
)

// EnvPrefix is prepended to every environment variable override, e.g.
// MAKEPLUS_AUTH_JWT_SECRET for auth.jwt_secret.
const EnvPrefix = "MAKEPLUS"

// Config is the complete runtime configuration. It is built once at startup
// and handed to constructors.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Mail      MailConfig      `mapstructure:"mail" yaml:"mail"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	Environment     string        `mapstructure:"environment" yaml:"environment"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	MaxBodySize     int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
}

// DatabaseConfig selects the SQL database and tunes its pool.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"`
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// AuthConfig controls session tokens and the session cookie.
type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	CookieTTL    time.Duration `mapstructure:"cookie_ttl" yaml:"cookie_ttl"`
	SecureCookie bool          `mapstructure:"secure_cookie" yaml:"secure_cookie"`
}

// RateLimitConfig sets the per-IP request budgets. All limits share Window.
type RateLimitConfig struct {
	Window     time.Duration `mapstructure:"window" yaml:"window"`
	ContactMax int           `mapstructure:"contact_max" yaml:"contact_max"`
	LoginMax   int           `mapstructure:"login_max" yaml:"login_max"`
	AdminMax   int           `mapstructure:"admin_max" yaml:"admin_max"`
}

// MailConfig configures the SMTP relay for contact notifications. An empty
// Host disables email.
type MailConfig struct {
	Host     string        `mapstructure:"host" yaml:"host"`
	Port     int           `mapstructure:"port" yaml:"port"`
	Username string        `mapstructure:"username" yaml:"username"`
	Password string        `mapstructure:"password" yaml:"password"`
	From     string        `mapstructure:"from" yaml:"from"`
	To       string        `mapstructure:"to" yaml:"to"`
	UseTLS   bool          `mapstructure:"use_tls" yaml:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			Environment:     "development",
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"http://localhost:3000"},
			MaxBodySize:     10 << 20,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "makeplus.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL:  7 * 24 * time.Hour,
			CookieTTL: 7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Window:     15 * time.Minute,
			ContactMax: 5,
			LoginMax:   5,
			AdminMax:   100,
		},
		Mail: MailConfig{
			Port:    587,
			From:    "noreply@makeplus.local",
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// legacyEnv maps config keys to the unprefixed variable names older
// deployments export.
var legacyEnv = map[string]string{
	"server.port":            "PORT",
	"server.environment":     "NODE_ENV",
	"auth.jwt_secret":        "JWT_SECRET",
	"rate_limit.window":      "RATE_LIMIT_WINDOW",
	"rate_limit.contact_max": "RATE_LIMIT_MAX_REQUESTS",
	"rate_limit.admin_max":   "ADMIN_RATE_LIMIT_MAX",
	"mail.host":              "SMTP_HOST",
	"mail.port":              "SMTP_PORT",
	"mail.username":          "SMTP_USER",
	"mail.password":          "SMTP_PASSWORD",
	"mail.use_tls":           "SMTP_SECURE",
	"mail.from":              "EMAIL_FROM",
	"mail.to":                "EMAIL_TO",
}

// SetDefaults registers every default value with v so that environment
// overrides apply to all keys.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.environment", d.Server.Environment)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("auth.cookie_ttl", d.Auth.CookieTTL)
	v.SetDefault("auth.secure_cookie", d.Auth.SecureCookie)
	v.SetDefault("rate_limit.window", d.RateLimit.Window)
	v.SetDefault("rate_limit.contact_max", d.RateLimit.ContactMax)
	v.SetDefault("rate_limit.login_max", d.RateLimit.LoginMax)
	v.SetDefault("rate_limit.admin_max", d.RateLimit.AdminMax)
	v.SetDefault("mail.host", d.Mail.Host)
	v.SetDefault("mail.port", d.Mail.Port)
	v.SetDefault("mail.username", d.Mail.Username)
	v.SetDefault("mail.password", d.Mail.Password)
	v.SetDefault("mail.from", d.Mail.From)
	v.SetDefault("mail.to", d.Mail.To)
	v.SetDefault("mail.use_tls", d.Mail.UseTLS)
	v.SetDefault("mail.timeout", d.Mail.Timeout)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Load builds the configuration from, lowest precedence first: defaults, the
// .env file at envFile, the YAML file at configFile (optional unless named
// explicitly), MAKEPLUS_* environment variables and any flags already bound
// to v.
func Load(v *viper.Viper, configFile, envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	SetDefaults(v)
	applyDotEnv(v, dotenv)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, name := range legacyEnv {
		v.BindEnv(key, envName(key), name)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("makeplus")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDotEnv installs .env entries as defaults, so the YAML file and the
// process environment both take precedence over them. A prefixed name wins
// over its legacy alias.
func applyDotEnv(v *viper.Viper, dotenv map[string]string) {
	if len(dotenv) == 0 {
		return
	}
	for _, key := range v.AllKeys() {
		if val, ok := dotenv[envName(key)]; ok {
			v.SetDefault(key, val)
		} else if val, ok := dotenv[legacyEnv[key]]; ok && legacyEnv[key] != "" {
			v.SetDefault(key, val)
		}
	}
}

// envName is the prefixed environment variable for a config key.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		errs = append(errs, errors.New("auth.jwt_secret is required outside development"))
	}
	if _, err := store.LookupDialect(c.Database.Driver); err != nil {
		errs = append(errs, fmt.Errorf("database.driver: %w", err))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}
	if c.RateLimit.ContactMax <= 0 || c.RateLimit.LoginMax <= 0 || c.RateLimit.AdminMax <= 0 {
		errs = append(errs, errors.New("rate_limit maxima must be positive"))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, errors.New("server.max_body_size must be positive"))
	}
	if c.Mail.Host != "" && c.Mail.To == "" {
		errs = append(errs, errors.New("mail.to is required when mail.host is set"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "" || c.Server.Environment == "development"
}

// Addr is the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// StoreOptions converts the database section for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver:          c.Database.Driver,
		DSN:             c.Database.DSN,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// SlogLevel parses the configured level, defaulting to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
