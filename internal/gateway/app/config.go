package app

import (
	"fmt"
	"net/netip"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/chatgate/internal/gateway/service"
	"github.com/aussiebroadwan/chatgate/internal/gateway/store"
	"github.com/aussiebroadwan/chatgate/internal/gateway/store/drivers/file"
	"github.com/aussiebroadwan/chatgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/chatgate/pkg/httpx"
)

type Config struct {
	UpstreamKeys []string // Required: GROQ_API_KEY, comma separated
	AdminSecret  string   // Required: guards /current-key and seeds key derivation

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8000)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	KeyStoreDriver   string // file, sqlite, memory (default: file)
	KeyStoreFile     string // JSON record path for the file driver (default: current_key.json)
	KeyStoreDatabase string // SQLite path for the sqlite driver (default: gateway.db)

	RotationPolicy   service.Policy // startup, on-demand, scheduled (default: scheduled)
	RotationSchedule string         // cron schedule for the scheduled policy (default: @every 1m)

	UpstreamURL       string
	UpstreamModel     string
	UpstreamMaxTokens int
	UpstreamTimeout   time.Duration
	UpstreamKeyMode   string // round, random (default: round)

	CORSAllowedOrigins []string       // default: *
	TrustedProxies     []netip.Prefix // TRUSTED_PROXIES, IPs or CIDRs (default: none)
}

// ConfigError reports every missing or invalid variable at once.
type ConfigError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid environment variables: "+strings.Join(e.Invalid, "; "))
	}
	return "config: " + strings.Join(parts, "; ")
}

// LoadConfig reads the configuration from the environment. It returns a
// *ConfigError when a required variable is missing or a value is invalid.
func LoadConfig() (Config, error) {
	cfg := Config{
		UpstreamKeys: splitList(os.Getenv("GROQ_API_KEY")),
		AdminSecret:  os.Getenv("ADMIN_SECRET"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8000),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		KeyStoreDriver:   strings.ToLower(getEnvOrDefault("KEY_STORE_DRIVER", store.DriverFile)),
		KeyStoreFile:     getEnvOrDefault("KEY_STORE_FILE", file.DefaultPath),
		KeyStoreDatabase: getEnvOrDefault("KEY_STORE_DATABASE", sqlite.DefaultPath),

		RotationSchedule: getEnvOrDefault("KEY_ROTATION_SCHEDULE", service.DefaultRotationSchedule),

		UpstreamURL:       getEnvOrDefault("UPSTREAM_URL", service.DefaultUpstreamURL),
		UpstreamModel:     getEnvOrDefault("UPSTREAM_MODEL", service.DefaultUpstreamModel),
		UpstreamMaxTokens: getEnvIntOrDefault("UPSTREAM_MAX_TOKENS", service.DefaultUpstreamMaxTokens),
		UpstreamTimeout:   getEnvDurationOrDefault("UPSTREAM_TIMEOUT", service.DefaultUpstreamTimeout),
		UpstreamKeyMode:   strings.ToLower(getEnvOrDefault("UPSTREAM_KEY_MODE", service.KeyModeRound)),

		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
	}

	cerr := &ConfigError{}

	if len(cfg.UpstreamKeys) == 0 {
		cerr.Missing = append(cerr.Missing, "GROQ_API_KEY")
	}
	if cfg.AdminSecret == "" {
		cerr.Missing = append(cerr.Missing, "ADMIN_SECRET")
	}

	policy, err := service.ParsePolicy(os.Getenv("KEY_ROTATION_POLICY"))
	if err != nil {
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("KEY_ROTATION_POLICY=%q", os.Getenv("KEY_ROTATION_POLICY")))
	}
	cfg.RotationPolicy = policy

	if !slices.Contains([]string{store.DriverFile, store.DriverSQLite, store.DriverMemory}, cfg.KeyStoreDriver) {
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("KEY_STORE_DRIVER=%q", cfg.KeyStoreDriver))
	}
	if cfg.UpstreamKeyMode != service.KeyModeRound && cfg.UpstreamKeyMode != service.KeyModeRandom {
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("UPSTREAM_KEY_MODE=%q", cfg.UpstreamKeyMode))
	}

	proxies, err := httpx.ParseTrustedProxies(splitList(os.Getenv("TRUSTED_PROXIES")))
	if err != nil {
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("TRUSTED_PROXIES=%q", os.Getenv("TRUSTED_PROXIES")))
	}
	cfg.TrustedProxies = proxies

	if len(cerr.Missing) > 0 || len(cerr.Invalid) > 0 {
		return cfg, cerr
	}
	return cfg, nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
