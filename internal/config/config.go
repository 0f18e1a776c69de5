package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 10).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// SensorURL is the field controller that serves {waterLevel, humidity, temperature, soilMoisture}.
	SensorURL string
	// SensorPollInterval is how often the controller is polled (default 5s).
	SensorPollInterval time.Duration
	// SensorTimeout bounds one poll. Zero means one poll interval.
	SensorTimeout time.Duration

	// PredictorURL is the crop-water predictor's POST /predict endpoint. Empty disables it
	// and the dashboard shows the default suggestion.
	PredictorURL string
	// FlowRateMLPerMin converts the predicted amount of water into pump minutes.
	FlowRateMLPerMin float64

	// StatusSpec is the cron spec for re-evaluating the watering status (default "@every 1m").
	StatusSpec string

	// Theme is the initial dashboard theme, "light" (default) or "dark".
	Theme string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string
	// LogLevel is debug, info (default), warn or error.
	LogLevel slog.Level

	// CORSAllowedOrigins is a list of origins allowed for CORS (e.g. http://localhost:3000).
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string

	// RateLimitPerMin limits write requests per client IP. Zero disables limiting.
	RateLimitPerMin int
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "irrigation"),
		DBUser: getEnv("DB_USER", "irrigation"),
		DBPass: getEnv("DB_PASS", "irrigation"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		SensorURL:          getEnv("SENSOR_URL", "http://192.168.57.117"),
		SensorPollInterval: getEnvDuration("SENSOR_POLL_INTERVAL", 5*time.Second),
		SensorTimeout:      getEnvDuration("SENSOR_TIMEOUT", 0),

		PredictorURL:     getEnv("PREDICTOR_URL", ""),
		FlowRateMLPerMin: getEnvFloat("FLOW_RATE_ML_PER_MIN", 0),

		StatusSpec: getEnv("STATUS_SPEC", "@every 1m"),
		Theme:      getEnv("THEME", "light"),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  parseLevel(getEnv("LOG_LEVEL", "info")),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),

		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 60),
	}
}

// DSN returns the lib/pq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
}

// DatabaseURL returns the postgres:// URL golang-migrate expects.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// TLSEnabled reports whether both certificate and key are configured.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("5s", "1m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
