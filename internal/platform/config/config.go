// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token issuer) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the vidstream API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis), backs the access token denylist
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Token signing. The two secrets must differ.
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET,required,notEmpty"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY"  envDefault:"15m"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET,required,notEmpty"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"240h"`

	// CookieSecure sets the Secure attribute on every auth cookie.
	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"true"`

	// RevokeSessionOnPasswordChange clears the stored refresh token when the
	// password changes.
	RevokeSessionOnPasswordChange bool `env:"REVOKE_SESSION_ON_PASSWORD_CHANGE" envDefault:"false"`

	// Per-call deadlines for external collaborators
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`
	MediaTimeout time.Duration `env:"MEDIA_TIMEOUT" envDefault:"20s"`
	CacheTimeout time.Duration `env:"CACHE_TIMEOUT" envDefault:"1s"`

	// Multipart uploads are spooled here before being sent to the media host.
	UploadDir      string `env:"UPLOAD_DIR"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	// Object Storage (Cloudflare R2 / S3-compatible)
	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION"   envDefault:"auto"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// TrustedProxies lists the IPs or CIDRs of reverse proxies whose
	// X-Forwarded-For and X-Real-IP headers are believed. Empty means the
	// TCP peer is always the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	trustedProxyNets []netip.Prefix
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		return errors.New("token expiries must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}

	nets, err := parseProxyNets(c.TrustedProxies)
	if err != nil {
		return err
	}
	c.trustedProxyNets = nets
	return nil
}

// parseProxyNets accepts bare addresses as single-host prefixes.
func parseProxyNets(entries []string) ([]netip.Prefix, error) {
	nets := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid CIDR %q", entry)
			}
			nets = append(nets, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", entry)
		}
		addr = addr.Unmap()
		nets = append(nets, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return nets, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// TrustedProxyNets returns the parsed TRUSTED_PROXIES. It is empty until
// [Load] has validated the configuration.
func (c *Config) TrustedProxyNets() []netip.Prefix {
	return c.trustedProxyNets
}

// AllowedOrigins returns the CORS origin suffixes from EXTRA_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
