package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	Quotes     QuotesConfig
	LogLevel   string
	Migrations string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers        []string
	SnapshotTopic  string
	EventsTopic    string
	ConsumerGroup  string
	Enabled        bool
}

// RedisConfig holds the quote-cache Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// QuotesConfig holds the daily-close provider configuration
type QuotesConfig struct {
	BaseURL    string
	APIKey     string
	RatePerSec float64
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		logrus.Debug("Loaded configuration overrides from .env")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "wheeljournal"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			SnapshotTopic: getEnv("KAFKA_SNAPSHOT_TOPIC", "position-snapshots"),
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "journal-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "wheeljournal"),
			Enabled:       getEnv("KAFKA_ENABLED", "false") == "true",
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		Quotes: QuotesConfig{
			BaseURL:    getEnv("QUOTES_BASE_URL", "https://api.tiingo.com"),
			APIKey:     getEnv("QUOTES_API_KEY", ""),
			RatePerSec: 2,
		},
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Migrations: getEnv("MIGRATIONS_PATH", "file://db/migrations"),
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
