package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string
	RedisURL   string
	JWTSecret  string
	JWTExpiry  time.Duration

	// Collaborator base URLs. The quiz backend is the authority for
	// session state; executor and AI are side services.
	QuizBackendURL  string
	CodeExecutorURL string
	AICollabURL     string
	AICollabKey     string

	// PollInterval is the fixed session-status polling cadence.
	PollInterval time.Duration
	// CollabTimeout bounds a single round-trip to the backend or executor.
	CollabTimeout time.Duration
	// AITimeout bounds AI calls, which are much slower than the rest.
	AITimeout time.Duration
	// RuntimeIdleTTL is how long an untouched participant runtime
	// survives before the reaper tears it down.
	RuntimeIdleTTL time.Duration
	// PreloadQuestions eagerly fetches the full question set once
	// total_questions is known, for instant back/forward navigation.
	PreloadQuestions bool

	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8090"),
		GinMode:          getEnv("GIN_MODE", "debug"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "pretty"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:        getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		JWTExpiry:        time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 6)) * time.Hour,
		QuizBackendURL:   getEnv("QUIZ_BACKEND_URL", "http://localhost:8080/api/v1"),
		CodeExecutorURL:  getEnv("CODE_EXECUTOR_URL", "http://localhost:8081"),
		AICollabURL:      getEnv("AI_COLLAB_URL", "http://localhost:8082"),
		AICollabKey:      getEnv("AI_COLLAB_KEY", ""),
		PollInterval:     time.Duration(getEnvInt("POLL_INTERVAL_MS", 2000)) * time.Millisecond,
		CollabTimeout:    time.Duration(getEnvInt("COLLAB_TIMEOUT_SECONDS", 10)) * time.Second,
		AITimeout:        time.Duration(getEnvInt("AI_TIMEOUT_SECONDS", 60)) * time.Second,
		RuntimeIdleTTL:   time.Duration(getEnvInt("RUNTIME_IDLE_TTL_MINUTES", 30)) * time.Minute,
		PreloadQuestions: getEnvBool("PRELOAD_QUESTIONS", true),
		AllowedOrigins:   parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
