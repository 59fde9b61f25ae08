// Package config provides environment-based configuration for the service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every tunable knob of the conversion pipeline.
type Config struct {
	Port int

	// Outbound API bases.
	UpstreamBaseURL string
	MailboxBaseURL  string

	// Timeout applied to every outbound HTTP call.
	RequestTimeout time.Duration

	// Session lifecycle.
	MaxUsage                int
	MaxRegistrationAttempts int
	SessionKey              string

	// Mailbox polling.
	MailboxPollInterval time.Duration
	MailboxPollAttempts int
	SubjectMarker       string
	LinkMarker          string
	MailboxDomains      []string

	// Conversion polling.
	ConvertPollInterval time.Duration
	ConvertDeadline     time.Duration

	// Redis (session store).
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional integrations; empty means disabled.
	DatabaseURL string
	ConsulAddr  string
	ConsulToken string
}

// defaultMailboxDomains are the disposable-mailbox domains accepted by the
// mailbox provider. Overridable via MAILBOX_DOMAINS.
var defaultMailboxDomains = []string{
	"vwh.sh", "iusearch.lol", "barid.site", "z44d.pro", "wael.fun", "kuruptd.ink",
}

// Load reads configuration from environment variables, applying defaults
// for anything unset.
func Load() *Config {
	return &Config{
		Port: GetEnvInt("PORT", 8080),

		UpstreamBaseURL: GetEnv("UPSTREAM_BASE_URL", "https://api2.bankstatementconverter.com/api/v1"),
		MailboxBaseURL:  GetEnv("MAILBOX_BASE_URL", "https://api.barid.site"),

		RequestTimeout: GetEnvDuration("REQUEST_TIMEOUT", 60*time.Second),

		MaxUsage:                GetEnvInt("MAX_USAGE", 5),
		MaxRegistrationAttempts: GetEnvInt("MAX_REGISTRATION_ATTEMPTS", 3),
		SessionKey:              GetEnv("SESSION_KEY", "bankconv:session"),

		MailboxPollInterval: GetEnvDuration("MAILBOX_POLL_INTERVAL", 5*time.Second),
		MailboxPollAttempts: GetEnvInt("MAILBOX_POLL_ATTEMPTS", 15),
		SubjectMarker:       GetEnv("SUBJECT_MARKER", "verify email"),
		LinkMarker:          GetEnv("LINK_MARKER", "verify my email"),
		MailboxDomains:      GetEnvList("MAILBOX_DOMAINS", defaultMailboxDomains),

		ConvertPollInterval: GetEnvDuration("CONVERT_POLL_INTERVAL", 3*time.Second),
		ConvertDeadline:     GetEnvDuration("CONVERT_DEADLINE", 90*time.Second),

		RedisAddr:     GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       GetEnvInt("REDIS_DB", 0),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		ConsulAddr:  os.Getenv("CONSUL_HTTP_ADDR"),
		ConsulToken: os.Getenv("CONSUL_HTTP_TOKEN"),
	}
}

// GetEnv retrieves an environment variable or returns a default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt retrieves an integer environment variable or returns a default value.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// GetEnvDuration retrieves a duration environment variable or returns a default value.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvList retrieves a comma-separated environment variable or returns a
// default value.
func GetEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
