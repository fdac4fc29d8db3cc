package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Amund211/gw2lib/internal/constants"
	"github.com/Amund211/gw2lib/internal/domain"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const (
	defaultPort                  = "8080"
	defaultRateLimitPerMinute    = 600
	defaultRateLimitBurst        = 300
	defaultInboundRequestsPerSec = 10
)

type Config struct {
	cloudSQLUnixSocketPath string
	dBPassword             string
	dBUsername             string
	sentryDSN              string
	gcpProject             string
	gw2APIKey              string
	gw2APIHost             string
	language               domain.Language
	port                   string
	rateLimitPerMinute     int
	rateLimitBurst         int
	env                    environment
}

func (c *Config) CloudSQLUnixSocketPath() string {
	return c.cloudSQLUnixSocketPath
}

func (c *Config) DBPassword() string {
	return c.dBPassword
}

func (c *Config) DBUsername() string {
	return c.dBUsername
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

// GCPProject enables Google Cloud trace correlation in logs when set
func (c *Config) GCPProject() string {
	return c.gcpProject
}

// GW2APIKey may be empty, in which case authenticated endpoints are unavailable
func (c *Config) GW2APIKey() string {
	return c.gw2APIKey
}

func (c *Config) GW2APIHost() string {
	return c.gw2APIHost
}

func (c *Config) Language() domain.Language {
	return c.language
}

func (c *Config) Port() string {
	return c.port
}

// Outbound requests per minute to the GW2 API
func (c *Config) RateLimitPerMinute() int {
	return c.rateLimitPerMinute
}

func (c *Config) RateLimitBurst() int {
	return c.rateLimitBurst
}

// Requests per second a single client may make to the proxy
func (c *Config) InboundRequestsPerSecond() int {
	return defaultInboundRequestsPerSec
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, host: %s, language: %s, port: %s, authenticated: %t, ...}",
		string(c.env),
		c.gw2APIHost,
		c.language,
		c.port,
		c.gw2APIKey != "",
	)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}
	invalidValue := func(key, value string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, value)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("GW2LIB_ENVIRONMENT")
	if !ok {
		return missingKey("GW2LIB_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return invalidValue("GW2LIB_ENVIRONMENT", rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	cloudSQLUnixSocketPath := os.Getenv("CLOUDSQL_UNIX_SOCKET")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbUsername := os.Getenv("DB_USERNAME")
	sentryDSN := os.Getenv("SENTRY_DSN")
	gcpProject := os.Getenv("GOOGLE_CLOUD_PROJECT")
	gw2APIKey := os.Getenv("GW2_API_KEY")

	gw2APIHost := strings.TrimRight(os.Getenv("GW2_API_HOST"), "/")
	if gw2APIHost == "" {
		gw2APIHost = constants.DEFAULT_API_HOST
	}
	if !strings.HasPrefix(gw2APIHost, "http://") && !strings.HasPrefix(gw2APIHost, "https://") {
		return invalidValue("GW2_API_HOST", gw2APIHost)
	}

	language := domain.DefaultLanguage
	if rawLanguage := os.Getenv("GW2_LANGUAGE"); rawLanguage != "" {
		parsed, err := domain.ParseLanguage(rawLanguage)
		if err != nil {
			return invalidValue("GW2_LANGUAGE", rawLanguage)
		}
		language = parsed
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	positiveInt := func(key string, fallback int) (int, bool) {
		raw := os.Getenv(key)
		if raw == "" {
			return fallback, true
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			return 0, false
		}
		return value, true
	}

	rateLimitPerMinute, ok := positiveInt("GW2_RATE_LIMIT_PER_MINUTE", defaultRateLimitPerMinute)
	if !ok {
		return invalidValue("GW2_RATE_LIMIT_PER_MINUTE", os.Getenv("GW2_RATE_LIMIT_PER_MINUTE"))
	}
	rateLimitBurst, ok := positiveInt("GW2_RATE_LIMIT_BURST", defaultRateLimitBurst)
	if !ok {
		return invalidValue("GW2_RATE_LIMIT_BURST", os.Getenv("GW2_RATE_LIMIT_BURST"))
	}

	if env == production || env == staging {
		if cloudSQLUnixSocketPath == "" {
			return missingKey("CLOUDSQL_UNIX_SOCKET")
		}
		if dbUsername == "" {
			return missingKey("DB_USERNAME")
		}
		if dbPassword == "" {
			return missingKey("DB_PASSWORD")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	return Config{
		cloudSQLUnixSocketPath: cloudSQLUnixSocketPath,
		dBPassword:             dbPassword,
		dBUsername:             dbUsername,
		sentryDSN:              sentryDSN,
		gcpProject:             gcpProject,
		gw2APIKey:              gw2APIKey,
		gw2APIHost:             gw2APIHost,
		language:               language,
		port:                   port,
		rateLimitPerMinute:     rateLimitPerMinute,
		rateLimitBurst:         rateLimitBurst,
		env:                    env,
	}, nil
}
