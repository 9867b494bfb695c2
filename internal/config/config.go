package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var ErrExclusiveModes = errors.New("STAGING and PRODUCTION are mutually exclusive options")

type Config struct {
	Production bool
	Staging    bool
	BaseURL    string `validate:"required,url"`

	EnableMail          bool
	DisableDiscordBot   bool
	DisableVerification bool

	DisableRateLimiting    bool
	RateLimitBlockDuration time.Duration `validate:"gt=0"`
	RateLimitPoints        int           `validate:"gt=0"`
	RateLimitRedisURL      string

	// TrustProxy makes the client IP come from X-Forwarded-For when the
	// connecting peer is in TrustedProxies. Defaults to Docker or ServeStatic.
	TrustProxy     bool
	TrustedProxies []string

	// Docker is auto-detected on production hosts; it implies ServeStatic.
	Docker      bool
	ServeStatic bool
	StaticDir   string

	Port      string `validate:"required,number"`
	MongoURI  string `validate:"required"`
	DBName    string `validate:"required"`
	SecretDir string
	SentryDSN string

	Secrets Secrets
}

// envVar remembers whether a value came from the environment, so that
// staging defaults only replace values the operator did not set.
type envVar[T any] struct {
	value T
	isSet bool
}

func (v *envVar[T]) setIfNotSet(value T) {
	if !v.isSet {
		v.value = value
	}
}

type lookupFunc func(key string) (string, bool)

func boolVar(lookup lookupFunc, key string, fallback bool) envVar[bool] {
	raw, ok := lookup(key)
	if !ok || raw == "" {
		return envVar[bool]{value: fallback}
	}
	return envVar[bool]{value: raw == "1" || strings.EqualFold(raw, "true"), isSet: true}
}

func stringVar(lookup lookupFunc, key, fallback string) envVar[string] {
	raw, ok := lookup(key)
	if !ok || raw == "" {
		return envVar[string]{value: fallback}
	}
	return envVar[string]{value: raw, isSet: true}
}

func intVar(lookup lookupFunc, key string, fallback int) (envVar[int], error) {
	raw, ok := lookup(key)
	if !ok || raw == "" {
		return envVar[int]{value: fallback}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return envVar[int]{}, fmt.Errorf("environment variable %s is not a number: %w", key, err)
	}
	return envVar[int]{value: n, isSet: true}, nil
}

// listVar reads a comma separated list. Empty entries are dropped.
func listVar(lookup lookupFunc, key string, fallback []string) envVar[[]string] {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return envVar[[]string]{value: fallback}
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return envVar[[]string]{value: out, isSet: true}
}

// DefaultTrustedProxies are the loopback, link-local and private ranges a
// reverse proxy in front of the container normally connects from.
var DefaultTrustedProxies = []string{
	"127.0.0.0/8", "::1/128",
	"169.254.0.0/16", "fe80::/10",
	"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fc00::/7",
}

// LoadConfig loads configuration from environment variables and secret files
func LoadConfig() (*Config, error) {
	if _, isProd := os.LookupEnv("PRODUCTION"); !isProd {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found")
		} else {
			log.Println("Loaded .env file successfully")
		}
	}

	return load(os.LookupEnv, detectDocker)
}

func load(lookup lookupFunc, docker func() bool) (*Config, error) {
	production := boolVar(lookup, "PRODUCTION", false)
	staging := boolVar(lookup, "STAGING", false)
	if production.value && staging.value {
		return nil, ErrExclusiveModes
	}

	baseURL := stringVar(lookup, "BASE_URL", "https://labhive.de")
	enableMail := boolVar(lookup, "ENABLE_MAIL", true)
	disableDiscord := boolVar(lookup, "DISABLE_DISCORD_BOT", false)
	disableVerification := boolVar(lookup, "DISABLE_VERIFICATION", false)
	disableRateLimiting := boolVar(lookup, "DISABLE_RATE_LIMITING", false)
	blockDuration, err := intVar(lookup, "RATE_LIMITING_BLOCK_DURATION", 60)
	if err != nil {
		return nil, err
	}
	points, err := intVar(lookup, "RATE_LIMITING_POINTS", 100)
	if err != nil {
		return nil, err
	}
	dockerVar := boolVar(lookup, "DOCKER", false)
	serveStatic := boolVar(lookup, "SERVE_STATIC", false)

	if docker != nil && docker() {
		log.Println("Docker detected!")
		dockerVar.value = true
		serveStatic.value = true
	}

	trustProxy := boolVar(lookup, "TRUST_PROXY", dockerVar.value || serveStatic.value)
	trustedProxies := listVar(lookup, "TRUSTED_PROXIES", append([]string(nil), DefaultTrustedProxies...))

	if staging.value {
		enableMail.setIfNotSet(false)
		disableDiscord.setIfNotSet(true)
		disableVerification.setIfNotSet(true)
		disableRateLimiting.setIfNotSet(true)
		blockDuration.setIfNotSet(1)
		baseURL.setIfNotSet("https://dev.labhive.de")
	}

	mongoHost := "localhost"
	if production.value {
		mongoHost = "mongodb"
	}

	cfg := &Config{
		Production:             production.value,
		Staging:                staging.value,
		BaseURL:                strings.TrimRight(baseURL.value, "/"),
		EnableMail:             enableMail.value,
		DisableDiscordBot:      disableDiscord.value,
		DisableVerification:    disableVerification.value,
		DisableRateLimiting:    disableRateLimiting.value,
		RateLimitBlockDuration: time.Duration(blockDuration.value) * time.Second,
		RateLimitPoints:        points.value,
		RateLimitRedisURL:      stringVar(lookup, "RATE_LIMITING_REDIS_URL", "").value,
		TrustProxy:             trustProxy.value,
		TrustedProxies:         trustedProxies.value,
		Docker:                 dockerVar.value,
		ServeStatic:            serveStatic.value,
		StaticDir:              stringVar(lookup, "STATIC_DIR", "dist").value,
		Port:                   stringVar(lookup, "PORT", "5000").value,
		MongoURI:               stringVar(lookup, "MONGO_URI", "mongodb://"+mongoHost+":27017").value,
		DBName:                 stringVar(lookup, "DB_NAME", "labshare").value,
		SecretDir:              stringVar(lookup, "SECRET_DIR", "secret").value,
		SentryDSN:              stringVar(lookup, "SENTRY_DSN", "").value,
	}

	secrets, err := loadSecrets(cfg)
	if err != nil {
		return nil, err
	}
	cfg.Secrets = *secrets

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// IsDevelopment is true when neither production nor staging is enabled.
func (c *Config) IsDevelopment() bool {
	return !c.Production && !c.Staging
}

// Options lists the effective options without secrets, for the staging
// debug endpoint.
func (c *Config) Options() map[string]any {
	return map[string]any{
		"PRODUCTION":                   c.Production,
		"STAGING":                      c.Staging,
		"BASE_URL":                     c.BaseURL,
		"ENABLE_MAIL":                  c.EnableMail,
		"DISABLE_DISCORD_BOT":          c.DisableDiscordBot,
		"DISABLE_VERIFICATION":         c.DisableVerification,
		"DISABLE_RATE_LIMITING":        c.DisableRateLimiting,
		"RATE_LIMITING_BLOCK_DURATION": c.RateLimitBlockDuration.String(),
		"RATE_LIMITING_POINTS":         c.RateLimitPoints,
		"RATE_LIMITING_REDIS":          c.RateLimitRedisURL != "",
		"TRUST_PROXY":                  c.TrustProxy,
		"TRUSTED_PROXIES":              strings.Join(c.TrustedProxies, ","),
		"DOCKER":                       c.Docker,
		"SERVE_STATIC":                 c.ServeStatic,
		"PORT":                         c.Port,
		"DB_NAME":                      c.DBName,
		"SENTRY":                       c.SentryDSN != "",
	}
}

func detectDocker() bool {
	b, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false
	}
	return strings.Contains(string(b), "docker")
}
