package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the client settings read from the environment.
type Config struct {
	BaseURL       string
	PushTransport string // "socketio" or "websocket"
	WSPath        string
	HTTPTimeout   time.Duration

	StateDriver   string // "sqlite", "postgres", "redis" or "memory"
	StateDSN      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SearchDebounce time.Duration

	AMQPURL      string
	AMQPExchange string
	OTLPEndpoint string
	MetricsAddr  string

	Environment string
	LogLevel    string
	LogFile     string
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		BaseURL:       strings.TrimRight(getEnv("ANIMEHUB_BASE_URL", "http://localhost:3000"), "/"),
		PushTransport: getEnv("ANIMEHUB_PUSH_TRANSPORT", "socketio"),
		WSPath:        getEnv("ANIMEHUB_WS_PATH", "/ws"),
		HTTPTimeout:   getDuration("ANIMEHUB_HTTP_TIMEOUT", 30*time.Second),

		StateDriver:   getEnv("ANIMEHUB_STATE_DRIVER", "sqlite"),
		StateDSN:      getEnv("ANIMEHUB_STATE_DSN", defaultStatePath()),
		RedisAddr:     getEnv("ANIMEHUB_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("ANIMEHUB_REDIS_PASSWORD", ""),
		RedisDB:       getInt("ANIMEHUB_REDIS_DB", 0),

		SearchDebounce: getDuration("ANIMEHUB_SEARCH_DEBOUNCE", 300*time.Millisecond),

		AMQPURL:      getEnv("ANIMEHUB_AMQP_URL", ""),
		AMQPExchange: getEnv("ANIMEHUB_AMQP_EXCHANGE", "animehub.client"),
		OTLPEndpoint: getEnv("ANIMEHUB_OTLP_ENDPOINT", ""),
		MetricsAddr:  getEnv("ANIMEHUB_METRICS_ADDR", ""),

		Environment: getEnv("ANIMEHUB_ENV", "development"),
		LogLevel:    getEnv("ANIMEHUB_LOG_LEVEL", "info"),
		LogFile:     getEnv("ANIMEHUB_LOG_FILE", ""),
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "animehub.db"
	}
	return dir + string(os.PathSeparator) + "animehub" + string(os.PathSeparator) + "state.db"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
