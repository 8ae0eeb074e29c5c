package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/shenikar/incident-response-core/internal/models"
)

// AuthUser is one static login credential. The core never manages
// user accounts (spec.md §1's "authentication token issuance itself
// is outside the core") — this is the minimal seed-from-environment
// credential list the /auth/login handler checks against, in the
// teacher's comma-separated-env-list idiom (cf. APIKeys below).
type AuthUser struct {
	Username string
	Password string
	Role     models.Role
	StaffID  *uuid.UUID
}

// Config holds every environment-derived setting for the service.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Webhook / lifecycle notification config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"500ms"`

	// Stats config
	StatsTimeWindowMinutes int `env:"STATS_TIME_WINDOW_MINUTES" envDefault:"60"`

	// Auth
	APIKeys   []string `env:"API_KEYS"`
	JWTSecret string   `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"12h"`
	// AuthUsers is parsed from AUTH_USERS="username:password:role:staff_id;...".
	// staff_id is optional (blank for admin/dispatcher logins not tied to a
	// Staff row).
	AuthUsers []AuthUser

	// Triage (spec.md §4.1, §6)
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	LLMTimeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"5s"`

	// External verification dependencies (spec.md §4.5, §5)
	WeatherEndpoint     string        `env:"WEATHER_ENDPOINT"`
	WeatherTimeout      time.Duration `env:"WEATHER_TIMEOUT" envDefault:"3s"`
	WeatherCacheTTL     time.Duration `env:"WEATHER_CACHE_TTL" envDefault:"10m"`
	STTEndpoint         string        `env:"STT_ENDPOINT"`
	STTTimeout          time.Duration `env:"STT_TIMEOUT" envDefault:"10s"`
	FraudScoreThreshold float64       `env:"FRAUD_SCORE_THRESHOLD" envDefault:"0.8"`

	// Mobile ingestion / dispatch (spec.md §6)
	MobileTicketCreationEndpoint  string        `env:"MOBILE_TICKET_CREATION_ENDPOINT"`
	MobileTicketEndpointAuthToken string        `env:"MOBILE_TICKET_ENDPOINT_AUTH_TOKEN"`
	MobileDispatchMaxAttempts     int           `env:"MOBILE_DISPATCH_MAX_ATTEMPTS" envDefault:"6"`
	MobileDispatchInitialBackoff  time.Duration `env:"MOBILE_DISPATCH_INITIAL_BACKOFF_SECONDS" envDefault:"1.0"`
	MobileDispatchMaxBackoff      time.Duration `env:"MOBILE_DISPATCH_MAX_BACKOFF" envDefault:"5m"`
	MobileDispatchTimeout         time.Duration `env:"MOBILE_DISPATCH_TIMEOUT" envDefault:"15s"`
	DispatchWorkerCount           int           `env:"DISPATCH_WORKER_COUNT" envDefault:"4"`
	DispatchFairnessTicket        int           `env:"DISPATCH_FAIRNESS_TICKET" envDefault:"8"`

	DuplicateRadiusM      int `env:"DUPLICATE_RADIUS_M" envDefault:"500"`
	DuplicateWindowSeconds int `env:"DUPLICATE_WINDOW_SECONDS" envDefault:"1800"`
	DuplicateMinCount      int `env:"DUPLICATE_MIN_COUNT" envDefault:"3"`

	// Assignment / lifecycle (spec.md §4.2, §4.3)
	AssignmentWindowSeconds int           `env:"ASSIGNMENT_WINDOW_SECONDS" envDefault:"600"`
	RejectCooldown          time.Duration `env:"REJECT_COOLDOWN" envDefault:"15m"`
	DeadlineSweepInterval    time.Duration `env:"DEADLINE_SWEEP_INTERVAL" envDefault:"30s"`
	LedgerReconcileInterval  time.Duration `env:"LEDGER_RECONCILE_INTERVAL" envDefault:"1h"`

	// Outbound call rate limiting (spec.md §5's per-dependency deadlines,
	// generalised to a request rate bound per external collaborator).
	ExternalRateLimitPerSecond float64 `env:"EXTERNAL_RATE_LIMIT_PER_SECOND" envDefault:"5"`
	ExternalRateLimitBurst     int     `env:"EXTERNAL_RATE_LIMIT_BURST" envDefault:"10"`
}

// LoadConfig loads configuration from the environment, optionally
// seeded from a local .env file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		HTTPPort:               getEnv("HTTP_PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:              os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		WebhookURL:             os.Getenv("WEBHOOK_URL"),
		WebhookSecret:          os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:         getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:      getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:       getEnvAsDuration("WEBHOOK_BASE_DELAY", 500*time.Millisecond),
		StatsTimeWindowMinutes: getEnvAsInt("STATS_TIME_WINDOW_MINUTES", 60),
		JWTSecret:              getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTTTL:                 getEnvAsDuration("JWT_TTL", 12*time.Hour),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMTimeout:   getEnvAsDuration("LLM_TIMEOUT", 5*time.Second),

		WeatherEndpoint:     os.Getenv("WEATHER_ENDPOINT"),
		WeatherTimeout:      getEnvAsDuration("WEATHER_TIMEOUT", 3*time.Second),
		WeatherCacheTTL:     getEnvAsDuration("WEATHER_CACHE_TTL", 10*time.Minute),
		STTEndpoint:         os.Getenv("STT_ENDPOINT"),
		STTTimeout:          getEnvAsDuration("STT_TIMEOUT", 10*time.Second),
		FraudScoreThreshold: getEnvAsFloat("FRAUD_SCORE_THRESHOLD", 0.8),

		MobileTicketCreationEndpoint:   os.Getenv("MOBILE_TICKET_CREATION_ENDPOINT"),
		MobileTicketEndpointAuthToken:  os.Getenv("MOBILE_TICKET_ENDPOINT_AUTH_TOKEN"),
		MobileDispatchMaxAttempts:      getEnvAsInt("MOBILE_DISPATCH_MAX_ATTEMPTS", 6),
		MobileDispatchInitialBackoff:   time.Duration(getEnvAsFloat("MOBILE_DISPATCH_INITIAL_BACKOFF_SECONDS", 1.0) * float64(time.Second)),
		MobileDispatchMaxBackoff:       getEnvAsDuration("MOBILE_DISPATCH_MAX_BACKOFF", 5*time.Minute),
		MobileDispatchTimeout:          getEnvAsDuration("MOBILE_DISPATCH_TIMEOUT", 15*time.Second),
		DispatchWorkerCount:            getEnvAsInt("DISPATCH_WORKER_COUNT", 4),
		DispatchFairnessTicket:         getEnvAsInt("DISPATCH_FAIRNESS_TICKET", 8),

		DuplicateRadiusM:       getEnvAsInt("DUPLICATE_RADIUS_M", 500),
		DuplicateWindowSeconds: getEnvAsInt("DUPLICATE_WINDOW_SECONDS", 1800),
		DuplicateMinCount:      getEnvAsInt("DUPLICATE_MIN_COUNT", 3),

		AssignmentWindowSeconds: getEnvAsInt("ASSIGNMENT_WINDOW_SECONDS", 600),
		RejectCooldown:          getEnvAsDuration("REJECT_COOLDOWN", 15*time.Minute),
		DeadlineSweepInterval:   getEnvAsDuration("DEADLINE_SWEEP_INTERVAL", 30*time.Second),
		LedgerReconcileInterval: getEnvAsDuration("LEDGER_RECONCILE_INTERVAL", time.Hour),

		ExternalRateLimitPerSecond: getEnvAsFloat("EXTERNAL_RATE_LIMIT_PER_SECOND", 5),
		ExternalRateLimitBurst:     getEnvAsInt("EXTERNAL_RATE_LIMIT_BURST", 10),
	}

	apiKeysStr := os.Getenv("API_KEYS")
	if apiKeysStr != "" {
		cfg.APIKeys = strings.Split(apiKeysStr, ",")
		for i, key := range cfg.APIKeys {
			cfg.APIKeys[i] = strings.TrimSpace(key)
		}
	}

	cfg.AuthUsers = parseAuthUsers(os.Getenv("AUTH_USERS"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	return cfg, nil
}

// parseAuthUsers parses AUTH_USERS="admin:secret:admin:;dispatcher:secret:responder:11111111-1111-1111-1111-111111111111".
// Malformed entries are skipped rather than failing startup, matching
// the teacher's tolerant env-list parsing for API_KEYS.
func parseAuthUsers(raw string) []AuthUser {
	if raw == "" {
		return nil
	}
	var users []AuthUser
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 3 {
			continue
		}
		u := AuthUser{
			Username: strings.TrimSpace(parts[0]),
			Password: strings.TrimSpace(parts[1]),
			Role:     models.Role(strings.TrimSpace(parts[2])),
		}
		if len(parts) >= 4 && strings.TrimSpace(parts[3]) != "" {
			if id, err := uuid.Parse(strings.TrimSpace(parts[3])); err == nil {
				u.StaffID = &id
			}
		}
		users = append(users, u)
	}
	return users
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
