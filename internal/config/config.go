// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Signing   SigningConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
}

type AppConfig struct {
	Address      string
	Debug        bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SigningConfig locates the signing key. PrivateKey holds inline PEM and
// takes precedence over KeyFile. TrustedCerts lists PEM files of signer
// certificates accepted by the verifier.
type SigningConfig struct {
	PrivateKey   string
	KeyFile      string
	CertFile     string
	CommonName   string
	TrustedCerts []string
}

// Enabled reports whether any key source is configured
func (s SigningConfig) Enabled() bool {
	return s.PrivateKey != "" || s.KeyFile != ""
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Burst           int
	DefaultPerMin   int
	CleanupInterval time.Duration
	EntryTTL        time.Duration
}

type AuthConfig struct {
	ClientsFile string
}

// Load reads .env files (missing files are ignored) and then the process
// environment
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return FromViper(newViper()), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ADDRESS", ":8080")
	v.SetDefault("APP_DEBUG", false)
	v.SetDefault("READ_TIMEOUT", "30s")
	v.SetDefault("WRITE_TIMEOUT", "60s")
	v.SetDefault("PRIVATE_KEY", "")
	v.SetDefault("SIGNING_KEY_FILE", "")
	v.SetDefault("SIGNING_CERT_FILE", "")
	v.SetDefault("SIGNING_COMMON_NAME", "UBL Invoice Engine")
	v.SetDefault("SIGNING_TRUSTED_CERTS", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_PER_MIN", 60)
	v.SetDefault("RATE_LIMIT_CLEANUP_INTERVAL", "5m")
	v.SetDefault("RATE_LIMIT_ENTRY_TTL", "10m")
	v.SetDefault("API_CLIENTS_FILE", "")

	return v
}

// FromViper builds a Config from v
func FromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Address:      v.GetString("APP_ADDRESS"),
			Debug:        v.GetBool("APP_DEBUG"),
			ReadTimeout:  v.GetDuration("READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("WRITE_TIMEOUT"),
		},
		Signing: SigningConfig{
			PrivateKey:   v.GetString("PRIVATE_KEY"),
			KeyFile:      v.GetString("SIGNING_KEY_FILE"),
			CertFile:     v.GetString("SIGNING_CERT_FILE"),
			CommonName:   v.GetString("SIGNING_COMMON_NAME"),
			TrustedCerts: splitList(v.GetString("SIGNING_TRUSTED_CERTS")),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			Burst:           v.GetInt("RATE_LIMIT_BURST"),
			DefaultPerMin:   v.GetInt("RATE_LIMIT_PER_MIN"),
			CleanupInterval: v.GetDuration("RATE_LIMIT_CLEANUP_INTERVAL"),
			EntryTTL:        v.GetDuration("RATE_LIMIT_ENTRY_TTL"),
		},
		Auth: AuthConfig{
			ClientsFile: v.GetString("API_CLIENTS_FILE"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
