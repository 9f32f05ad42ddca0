package app

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aussiebroadwan/daybook/internal/auth/cookies"
	"github.com/aussiebroadwan/daybook/pkg/httpx"
	"github.com/aussiebroadwan/daybook/pkg/jwtx"
)

const (
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

type Config struct {
	Issuer         string        `mapstructure:"AUTH_ISSUER"`
	Algorithm      string        `mapstructure:"AUTH_ALGORITHM"`        // EdDSA, ES256 or HS256
	SigningKeyFile string        `mapstructure:"AUTH_SIGNING_KEY_FILE"` // PEM key, or raw secret for HS256
	SigningSecret  string        `mapstructure:"AUTH_SIGNING_SECRET"`   // inline HS256 secret
	AccessTTL      time.Duration `mapstructure:"AUTH_ACCESS_TTL"`
	RefreshTTL     time.Duration `mapstructure:"AUTH_REFRESH_TTL"`
	ResetTTL       time.Duration `mapstructure:"AUTH_RESET_TTL"`
	DatabaseFile   string        `mapstructure:"AUTH_DATABASE_FILE"`
	PepperFile     string        `mapstructure:"AUTH_PEPPER_FILE"`

	SessionBackend string `mapstructure:"SESSION_BACKEND"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`

	CookieSecure   bool   `mapstructure:"COOKIE_SECURE"`
	CookieSameSite string `mapstructure:"COOKIE_SAMESITE"`
	CookieDomain   string `mapstructure:"COOKIE_DOMAIN"`

	LogoutRedirectURL string `mapstructure:"LOGOUT_REDIRECT_URL"`
	ResetURLBase      string `mapstructure:"RESET_URL_BASE"`

	// Empty SMTPAddr logs mail instead of sending it.
	SMTPAddr     string `mapstructure:"SMTP_ADDR"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	// First admin, created only while the directory is empty.
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	OTelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSampleRatio float64 `mapstructure:"OTEL_SAMPLE_RATIO"`

	// TrustProxy honours X-Forwarded-For for rate limiting.
	TrustProxy bool `mapstructure:"TRUST_PROXY"`

	Env                  string        `mapstructure:"ENV"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	LogFormat            string        `mapstructure:"LOG_FORMAT"`
	Port                 int           `mapstructure:"PORT"`
	RequestTimeout       time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownGracePeriod  time.Duration `mapstructure:"SHUTDOWN_GRACE_PERIOD"`
	HousekeepingInterval time.Duration `mapstructure:"HOUSEKEEPING_INTERVAL"`
}

// LoadConfig reads .env (if present), then the environment. Environment
// variables win. RATELIMIT_* overrides are applied to the httpx profiles as
// a side effect.
func LoadConfig() (Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("AUTH_ISSUER", "daybook-auth")
	v.SetDefault("AUTH_ALGORITHM", jwtx.AlgorithmEdDSA)
	v.SetDefault("AUTH_SIGNING_KEY_FILE", "")
	v.SetDefault("AUTH_SIGNING_SECRET", "")
	v.SetDefault("AUTH_ACCESS_TTL", "15m")
	v.SetDefault("AUTH_REFRESH_TTL", "168h")
	v.SetDefault("AUTH_RESET_TTL", "1h")
	v.SetDefault("AUTH_DATABASE_FILE", "daybook.db")
	v.SetDefault("AUTH_PEPPER_FILE", "pepper")
	v.SetDefault("SESSION_BACKEND", SessionBackendSQLite)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("COOKIE_SAMESITE", "lax")
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("LOGOUT_REDIRECT_URL", "/login")
	v.SetDefault("RESET_URL_BASE", "http://localhost:8080/reset-password")
	v.SetDefault("SMTP_ADDR", "")
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "daybook <no-reply@daybook.local>")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("PORT", 8080)
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("SHUTDOWN_GRACE_PERIOD", "10s")
	v.SetDefault("HOUSEKEEPING_INTERVAL", "1h")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	httpx.ApplyRateLimitOverrides(v.GetString)
	httpx.TrustProxyHeaders = cfg.TrustProxy

	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Issuer) == "" {
		errs = append(errs, errors.New("config: AUTH_ISSUER must be set"))
	}
	switch c.Algorithm {
	case jwtx.AlgorithmEdDSA, jwtx.AlgorithmES256, jwtx.AlgorithmHS256:
	default:
		errs = append(errs, fmt.Errorf("config: unsupported AUTH_ALGORITHM %q", c.Algorithm))
	}
	if c.SigningSecret != "" && c.Algorithm != jwtx.AlgorithmHS256 {
		errs = append(errs, errors.New("config: AUTH_SIGNING_SECRET only applies to HS256"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= c.AccessTTL {
		errs = append(errs, errors.New("config: need 0 < AUTH_ACCESS_TTL < AUTH_REFRESH_TTL"))
	}
	if c.ResetTTL <= 0 {
		errs = append(errs, errors.New("config: AUTH_RESET_TTL must be positive"))
	}

	switch c.SessionBackend {
	case SessionBackendSQLite:
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("config: REDIS_ADDR is required when SESSION_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown SESSION_BACKEND %q", c.SessionBackend))
	}

	if sameSite, err := cookies.ParseSameSite(c.CookieSameSite); err != nil {
		errs = append(errs, fmt.Errorf("config: COOKIE_SAMESITE: %w", err))
	} else if sameSite == http.SameSiteNoneMode && !c.CookieSecure {
		errs = append(errs, errors.New("config: COOKIE_SAMESITE=none requires COOKIE_SECURE=true"))
	}

	if c.LogoutRedirectURL == "" {
		errs = append(errs, errors.New("config: LOGOUT_REDIRECT_URL must be set"))
	}
	if u, err := url.Parse(c.ResetURLBase); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.New("config: RESET_URL_BASE must be an absolute URL"))
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("config: ADMIN_EMAIL and ADMIN_PASSWORD are set together"))
	}
	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		errs = append(errs, errors.New("config: OTEL_SAMPLE_RATIO must be within [0, 1]"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("config: REQUEST_TIMEOUT must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: invalid PORT %d", c.Port))
	}

	return errors.Join(errs...)
}

// CookieConfig derives the cookie attributes. Validate must have passed.
func (c Config) CookieConfig() cookies.Config {
	sameSite, _ := cookies.ParseSameSite(c.CookieSameSite)
	return cookies.Config{
		Secure:     c.CookieSecure,
		SameSite:   sameSite,
		Domain:     c.CookieDomain,
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
	}
}
