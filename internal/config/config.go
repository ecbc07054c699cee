// Package config loads the authd configuration from YAML and AUTHD_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. AUTHD_AUTH_ACCESS_SECRET.
const EnvPrefix = "AUTHD"

type Server struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Postgres struct {
	// DSN empty selects the in-memory account provider.
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type Kafka struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Auth struct {
	AccessSecret      string        `mapstructure:"access_secret"`
	RefreshSecret     string        `mapstructure:"refresh_secret"`
	AccessTTL         time.Duration `mapstructure:"access_ttl"`
	RefreshTTL        time.Duration `mapstructure:"refresh_ttl"`
	Issuer            string        `mapstructure:"issuer"`
	Leeway            time.Duration `mapstructure:"leeway"`
	RevocationTTL     time.Duration `mapstructure:"revocation_ttl"`
	AtomicRotation    bool          `mapstructure:"atomic_rotation"`
	RevokeOnReuse     bool          `mapstructure:"revoke_on_reuse"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	MaxLoginAttempts  int           `mapstructure:"max_login_attempts"`
	LoginCooldown     time.Duration `mapstructure:"login_cooldown"`
	IPThrottle        bool          `mapstructure:"ip_throttle"`
	AuditBufferSize   int           `mapstructure:"audit_buffer_size"`
	LatencyHistograms bool          `mapstructure:"latency_histograms"`
}

// File is the full authd configuration.
type File struct {
	Server   Server         `mapstructure:"server"`
	Redis    Redis          `mapstructure:"redis"`
	Postgres Postgres       `mapstructure:"postgres"`
	Kafka    Kafka          `mapstructure:"kafka"`
	Log      logging.Config `mapstructure:"log"`
	Auth     Auth           `mapstructure:"auth"`
}

func setDefaults(v *viper.Viper) {
	def := sessionauth.DefaultConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.metrics_enabled", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.auto_migrate", true)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "auth.audit")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.service", "authd")

	v.SetDefault("auth.access_secret", "")
	v.SetDefault("auth.refresh_secret", "")
	v.SetDefault("auth.access_ttl", def.JWT.AccessTTL)
	v.SetDefault("auth.refresh_ttl", def.JWT.RefreshTTL)
	v.SetDefault("auth.issuer", "authd")
	v.SetDefault("auth.leeway", time.Duration(0))
	v.SetDefault("auth.revocation_ttl", time.Duration(0))
	v.SetDefault("auth.atomic_rotation", def.Revocation.Atomic)
	v.SetDefault("auth.revoke_on_reuse", false)
	v.SetDefault("auth.rate_limit_enabled", def.RateLimit.Enabled)
	v.SetDefault("auth.max_login_attempts", def.RateLimit.MaxLoginAttempts)
	v.SetDefault("auth.login_cooldown", def.RateLimit.LoginCooldown)
	v.SetDefault("auth.ip_throttle", true)
	v.SetDefault("auth.audit_buffer_size", def.Audit.BufferSize)
	v.SetDefault("auth.latency_histograms", true)
}

// Load reads path (optional) and applies AUTHD_* overrides.
func Load(path string) (File, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return File{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return File{}, fmt.Errorf("decode config: %w", err)
	}
	if f.Server.Addr == "" {
		return File{}, errors.New("server.addr must be set")
	}
	if f.Kafka.Enabled && (len(f.Kafka.Brokers) == 0 || f.Kafka.Topic == "") {
		return File{}, errors.New("kafka.brokers and kafka.topic required when kafka is enabled")
	}
	return f, nil
}

// EngineConfig converts the auth section. Audit is enabled when Kafka is.
func (f File) EngineConfig() sessionauth.Config {
	cfg := sessionauth.DefaultConfig()
	a := f.Auth

	cfg.JWT.AccessSecret = []byte(a.AccessSecret)
	cfg.JWT.RefreshSecret = []byte(a.RefreshSecret)
	cfg.JWT.AccessTTL = a.AccessTTL
	cfg.JWT.RefreshTTL = a.RefreshTTL
	cfg.JWT.Issuer = a.Issuer
	cfg.JWT.Leeway = a.Leeway

	cfg.Revocation.TTL = a.RevocationTTL
	cfg.Revocation.Atomic = a.AtomicRotation
	cfg.Revocation.RevokeOnReuse = a.RevokeOnReuse

	cfg.RateLimit.Enabled = a.RateLimitEnabled
	cfg.RateLimit.MaxLoginAttempts = a.MaxLoginAttempts
	cfg.RateLimit.LoginCooldown = a.LoginCooldown
	cfg.RateLimit.EnableIPThrottle = a.IPThrottle

	cfg.Audit.Enabled = f.Kafka.Enabled
	cfg.Audit.BufferSize = a.AuditBufferSize

	cfg.Metrics.Enabled = f.Server.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = a.LatencyHistograms
	return cfg
}
