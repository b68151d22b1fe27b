package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var timeOfDayRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Report pipeline
	ReportTimes []string // zero-padded "HH:MM", sorted ascending
	HistoryDays int

	// Upstream reporting provider
	MetricsAPIURL   string
	MetricsAPIToken string

	// Messaging gateway
	MessagingAPIURL   string
	MessagingAPIToken string
	ReportDestination string

	// Day cache
	CacheBackend string // file | dynamodb | none
	CacheDir     string
	CacheTTL     time.Duration

	// Auth
	JWTSecret    string
	WebhookToken string

	// Timeouts
	RequestTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		MetricsAPIURL:     getEnv("METRICS_API_URL", "http://localhost:9090"),
		MetricsAPIToken:   getEnv("METRICS_API_TOKEN", ""),
		MessagingAPIURL:   getEnv("MESSAGING_API_URL", "http://localhost:9091"),
		MessagingAPIToken: getEnv("MESSAGING_API_TOKEN", ""),
		ReportDestination: getEnv("REPORT_DESTINATION", ""),
		CacheBackend:      getEnv("CACHE_BACKEND", "file"),
		CacheDir:          getEnv("CACHE_DIR", "./data"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		WebhookToken:      getEnv("WEBHOOK_TOKEN", ""),
	}

	times := strings.Split(getEnv("REPORT_TIMES", "18:00"), ",")
	for i, tod := range times {
		times[i] = strings.TrimSpace(tod)
		if !timeOfDayRe.MatchString(times[i]) {
			return nil, fmt.Errorf("invalid REPORT_TIMES entry %q: expected zero-padded HH:MM", times[i])
		}
	}
	// Zero-padded HH:MM sorts lexicographically in chronological order
	sort.Strings(times)
	config.ReportTimes = times

	historyDays, err := strconv.Atoi(getEnv("HISTORY_DAYS", "15"))
	if err != nil || historyDays < 1 {
		return nil, fmt.Errorf("invalid HISTORY_DAYS: %v", getEnv("HISTORY_DAYS", "15"))
	}
	config.HistoryDays = historyDays

	ttlHours, err := strconv.Atoi(getEnv("CACHE_TTL_HOURS", "25"))
	if err != nil || ttlHours < 1 {
		return nil, fmt.Errorf("invalid CACHE_TTL_HOURS: %v", getEnv("CACHE_TTL_HOURS", "25"))
	}
	config.CacheTTL = time.Duration(ttlHours) * time.Hour

	requestTimeout, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	config.RequestTimeout = time.Duration(requestTimeout) * time.Second

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}

	// Calculate WebSocket constants
	config.PongWait = time.Duration(wsReadTimeout) * time.Second
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = time.Duration(wsWriteTimeout) * time.Second
	config.MaxMessageSize = 512

	switch config.CacheBackend {
	case "file", "dynamodb", "none":
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: expected file, dynamodb or none", config.CacheBackend)
	}

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
