package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tank-monitor/analytics/internal/domain"
)

type Config struct {
	// HTTP
	HTTPPort string

	// Postgres (reading store + tank catalog)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	TanksTable     string
	ReadingsTable  string
	AlertsTable    string
	StatusLogTable string

	// Reading columns the queries filter and order on
	ReadingsTankColumn string
	ReadingsTimeColumn string
	ReadingsSeqColumn  string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MQTT alert fan-out
	MQTTEnabled     bool
	MQTTBroker      string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string

	// Scheduler
	EvalInterval time.Duration
	EvalWorkers  int

	// Pipeline channels
	StatusLogChannelSize int
	AlertChannelSize     int
	PublishChannelSize   int

	// Status log batch writer tuning
	LogBatchSize       int
	LogFlushIntervalMS int

	// Analytics
	WindowDays      int
	CriticalPercent float64
	LowPercent      float64
	CriticalDays    float64

	// Alerts
	AlertDedupTTL time.Duration

	// Auth
	AuthCacheTTLSeconds int
	StaticAPIKeys       []string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file, using system environment variables")
	}

	return &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8002"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "tank_user"),
		DBPassword:           getEnv("DB_PASSWORD", "tank_password"),
		DBName:               getEnv("DB_NAME", "tank_alert"),
		DBMaxConns:           int32(getEnvInt("DB_MAX_CONNS", 10)),
		TanksTable:           getEnv("TANKS_TABLE", "fuel_tanks"),
		ReadingsTable:        getEnv("READINGS_TABLE", "dip_readings"),
		AlertsTable:          getEnv("ALERTS_TABLE", "tank_alerts"),
		StatusLogTable:       getEnv("STATUS_LOG_TABLE", "tank_status_log"),
		ReadingsTankColumn:   getEnv("READINGS_TANK_COLUMN", "tank_id"),
		ReadingsTimeColumn:   getEnv("READINGS_TIME_COLUMN", "created_at"),
		ReadingsSeqColumn:    getEnv("READINGS_SEQ_COLUMN", "id"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		MQTTEnabled:          getEnvBool("MQTT_ENABLED", false),
		MQTTBroker:           getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:         getEnv("MQTT_CLIENT_ID", "tank-analytics"),
		MQTTUsername:         getEnv("MQTT_USERNAME", ""),
		MQTTPassword:         getEnv("MQTT_PASSWORD", ""),
		MQTTTopicPrefix:      getEnv("MQTT_TOPIC_PREFIX", "tankalert"),
		EvalInterval:         getEnvDuration("EVAL_INTERVAL", 5*time.Minute),
		EvalWorkers:          getEnvInt("EVAL_WORKERS", 8),
		StatusLogChannelSize: getEnvInt("STATUS_LOG_CHANNEL_SIZE", 5000),
		AlertChannelSize:     getEnvInt("ALERT_CHANNEL_SIZE", 1000),
		PublishChannelSize:   getEnvInt("PUBLISH_CHANNEL_SIZE", 5000),
		LogBatchSize:         getEnvInt("LOG_BATCH_SIZE", 200),
		LogFlushIntervalMS:   getEnvInt("LOG_FLUSH_INTERVAL_MS", 1000),
		WindowDays:           getEnvInt("WINDOW_DAYS", 7),
		CriticalPercent:      getEnvFloat("CRITICAL_PERCENT", domain.DefaultThresholds.CriticalPercent),
		LowPercent:           getEnvFloat("LOW_PERCENT", domain.DefaultThresholds.LowPercent),
		CriticalDays:         getEnvFloat("CRITICAL_DAYS", domain.DefaultThresholds.CriticalDays),
		AlertDedupTTL:        getEnvDuration("ALERT_DEDUP_TTL", 6*time.Hour),
		AuthCacheTTLSeconds:  getEnvInt("AUTH_CACHE_TTL_SECONDS", 300),
		StaticAPIKeys:        splitList(getEnv("STATIC_API_KEYS", "")),
	}
}

// Validate rejects settings the analytics core cannot run with.
func (c *Config) Validate() error {
	if c.WindowDays <= 0 {
		return fmt.Errorf("WINDOW_DAYS must be positive, got %d", c.WindowDays)
	}
	if c.CriticalPercent >= c.LowPercent {
		return fmt.Errorf("CRITICAL_PERCENT (%.1f) must be below LOW_PERCENT (%.1f)", c.CriticalPercent, c.LowPercent)
	}
	if c.CriticalDays < 0 {
		return fmt.Errorf("CRITICAL_DAYS must not be negative, got %.1f", c.CriticalDays)
	}
	if c.EvalWorkers <= 0 {
		return fmt.Errorf("EVAL_WORKERS must be positive, got %d", c.EvalWorkers)
	}
	if c.EvalInterval <= 0 {
		return fmt.Errorf("EVAL_INTERVAL must be positive, got %s", c.EvalInterval)
	}
	if c.LogFlushIntervalMS <= 0 {
		return fmt.Errorf("LOG_FLUSH_INTERVAL_MS must be positive, got %d", c.LogFlushIntervalMS)
	}
	if c.LogBatchSize <= 0 {
		return fmt.Errorf("LOG_BATCH_SIZE must be positive, got %d", c.LogBatchSize)
	}
	return nil
}

func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

func (c *Config) Thresholds() domain.Thresholds {
	return domain.Thresholds{
		CriticalPercent: c.CriticalPercent,
		LowPercent:      c.LowPercent,
		CriticalDays:    c.CriticalDays,
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
		log.Printf("config: invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
