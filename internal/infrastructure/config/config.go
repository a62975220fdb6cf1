package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// DevJWTSecret is used when JWT_SECRET is unset. It is refused in production.
const DevJWTSecret = "dev-secret-change"

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	LogPretty bool          `env:"LOG_PRETTY, default=false"`
	JWTSecret string        `env:"JWT_SECRET, default=dev-secret-change"`
	JWTTTL    time.Duration `env:"JWT_TTL,   default=120m"`

	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`

	// TrustedProxies lists CIDRs of reverse proxies allowed to set X-Forwarded-For.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	Postgres    PostgresConfig
	Redis       RedisConfig
	Idempotency IdempotencyConfig
	RateLimit   RateLimitConfig
}

type PostgresConfig struct {
	URL      string `env:"DATABASE_URL"`
	MaxConns int32  `env:"DB_MAX_CONNS, default=10"`
	MinConns int32  `env:"DB_MIN_CONNS, default=2"`
}

// RedisConfig is optional: with an empty Addr idempotency keys are kept in memory.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type IdempotencyConfig struct {
	TTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

// RateLimitConfig throttles /login and /register per client IP.
type RateLimitConfig struct {
	RPS   float64 `env:"AUTH_RATE_LIMIT_RPS,   default=5"`
	Burst int     `env:"AUTH_RATE_LIMIT_BURST, default=10"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// LoadFrom reads configuration from an explicit lookuper. Used by tests.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// UsingDevSecret reports whether tokens are signed with the built-in secret.
func (c *Config) UsingDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

// TrustedProxyNets parses TRUSTED_PROXIES. A bare IP is treated as a single host.
func (c *Config) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", raw)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// Validate checks the settings needed to serve traffic.
func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.IsProduction() && c.UsingDevSecret() {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS must not exceed DB_MAX_CONNS"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("auth rate limit must be positive"))
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
