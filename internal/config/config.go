package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	GRPC    GRPCConfig
	NEO     NEOConfig
	Worker  WorkerConfig
	DB      DatabaseConfig
	Kafka   KafkaConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS int
	CORSOrigins  []string
}

type GRPCConfig struct {
	Enabled bool
	Port    int
}

// NEOConfig covers the NASA NeoWs client and the background catalog poller.
type NEOConfig struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	PollEnabled  bool
	PollInterval time.Duration
	FeedDays     int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type DatabaseConfig struct {
	Path string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8000),
			RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 20),
			CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"*"}),
		},
		GRPC: GRPCConfig{
			Enabled: getEnvBool("GRPC_ENABLED", true),
			Port:    getEnvInt("GRPC_PORT", 50051),
		},
		NEO: NEOConfig{
			APIKey:       getEnv("NASA_API_KEY", "DEMO_KEY"),
			BaseURL:      getEnv("NASA_NEO_BASE_URL", "https://api.nasa.gov/neo/rest/v1"),
			Timeout:      getEnvDuration("NASA_TIMEOUT", 15*time.Second),
			PollEnabled:  getEnvBool("NEO_POLL_ENABLED", true),
			PollInterval: getEnvDuration("NEO_POLL_INTERVAL", time.Hour),
			FeedDays:     getEnvInt("NEO_FEED_DAYS", 7),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 50),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/impactor.db"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "neo.hazardous-approaches"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Enabled && (c.GRPC.Port < 1 || c.GRPC.Port > 65535) {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be positive, got %d", c.Server.RateLimitRPS)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.NEO.APIKey == "" {
		return fmt.Errorf("NASA API key must not be empty")
	}
	if c.NEO.Timeout <= 0 {
		return fmt.Errorf("NASA timeout must be positive")
	}
	if c.NEO.PollInterval < time.Minute {
		return fmt.Errorf("NEO poll interval must be at least 1 minute")
	}
	// NeoWs rejects feed windows longer than a week.
	if c.NEO.FeedDays < 1 || c.NEO.FeedDays > 7 {
		return fmt.Errorf("NEO feed days must be between 1 and 7, got %d", c.NEO.FeedDays)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("worker buffer size must not be negative")
	}

	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
