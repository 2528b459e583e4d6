// Package config provides configuration management and environment variable handling for the application
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all configuration for the call flow processor
type Config struct {
	Database  DatabaseConfig  `json:"database"`
	Server    ServerConfig    `json:"server"`
	Redis     RedisConfig     `json:"redis"`
	Logging   LoggingConfig   `json:"logging"`
	Lease     LeaseConfig     `json:"lease"`
	Fetchers  FetchersConfig  `json:"fetchers"`
	Producers ProducersConfig `json:"producers"`
}

type DatabaseConfig struct {
	Host            string        `json:"host" validate:"required"`
	Port            int           `json:"port" validate:"gt=0,lte=65535"`
	Name            string        `json:"name" validate:"required"`
	User            string        `json:"user" validate:"required"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `json:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `json:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `json:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `json:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" validate:"gt=0"`
}

type RedisConfig struct {
	URL                 string        `json:"url" validate:"required"`
	DB                  int           `json:"db" validate:"gte=0"`
	Prefix              string        `json:"prefix" validate:"required"`
	HealthCheckInterval time.Duration `json:"health_check_interval"`
}

type LoggingConfig struct {
	Dir        string `json:"dir"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

type LeaseConfig struct {
	TTL time.Duration `json:"ttl" validate:"gt=0"`
}

// SourceConfig describes one upstream HTTP source polled by a fetcher
type SourceConfig struct {
	Endpoint     string        `json:"endpoint" validate:"required,url"`
	FetchLimit   int           `json:"fetch_limit" validate:"gt=0"`
	PollInterval time.Duration `json:"poll_interval" validate:"gt=0"`
	Timeout      time.Duration `json:"timeout" validate:"gt=0"`
}

type FetchersConfig struct {
	Calls       SourceConfig `json:"calls"`
	CallEvents  SourceConfig `json:"call_events"`
	Connections SourceConfig `json:"connections"`
	Operators   SourceConfig `json:"operators"`
}

type ProducersConfig struct {
	BatchSize         int           `json:"batch_size" validate:"gt=0"`
	PollInterval      time.Duration `json:"poll_interval" validate:"gt=0"`
	ExternalUploadURL string        `json:"external_upload_url" validate:"required,url"`
	ExternalTimeout   time.Duration `json:"external_timeout" validate:"gt=0"`
	PruneUploaded     bool          `json:"prune_uploaded"`
	PruneInterval     time.Duration `json:"prune_interval" validate:"gt=0"`
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "call_flow"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			URL:                 getEnvString("REDIS_URL", "redis://localhost:6379"),
			DB:                  getEnvInt("REDIS_DB", 0),
			Prefix:              getEnvString("REDIS_PREFIX", "call-flow-processor"),
			HealthCheckInterval: getEnvDuration("REDIS_HEALTH_CHECK_INTERVAL", 30*time.Second),
		},
		Logging: LoggingConfig{
			Dir:        getEnvString("LOG_DIR", "data"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Lease: LeaseConfig{
			TTL: getEnvDuration("LEASE_TTL", 30*time.Second),
		},
		Fetchers: FetchersConfig{
			Calls:       loadSourceConfig("CALLS"),
			CallEvents:  loadSourceConfig("CALL_EVENTS"),
			Connections: loadSourceConfig("CONNECTIONS"),
			Operators:   loadSourceConfig("OPERATORS"),
		},
		Producers: ProducersConfig{
			BatchSize:         getEnvInt("PRODUCER_BATCH_SIZE", 1000),
			PollInterval:      getEnvDuration("PRODUCER_POLL_INTERVAL", 5*time.Second),
			ExternalUploadURL: getEnvString("EXTERNAL_UPLOAD_URL", "http://localhost:9000/cdr/upload"),
			ExternalTimeout:   getEnvDuration("EXTERNAL_UPLOAD_TIMEOUT", 30*time.Second),
			PruneUploaded:     getEnvBool("PRODUCER_PRUNE_UPLOADED", false),
			PruneInterval:     getEnvDuration("PRODUCER_PRUNE_INTERVAL", time.Hour),
		},
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadSourceConfig(prefix string) SourceConfig {
	return SourceConfig{
		Endpoint:     getEnvString(prefix+"_SOURCE_URL", "http://localhost:9100/"+strings.ToLower(strings.ReplaceAll(prefix, "_", "-"))),
		FetchLimit:   getEnvInt(prefix+"_FETCH_LIMIT", 100),
		PollInterval: getEnvDuration(prefix+"_POLL_INTERVAL", 3*time.Second),
		Timeout:      getEnvDuration(prefix+"_TIMEOUT", 10*time.Second),
	}
}

// loadEnvFile loads environment variables from .env file if it exists
func loadEnvFile() error {
	envFile := ".env"

	// Check if .env file exists
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// .env file doesn't exist, continue with environment variables
		return nil
	}

	// Open .env file
	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	// Read file line by line
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value pairs
		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				// Remove quotes if present
				if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
					(strings.HasPrefix(value, `'`) && strings.HasSuffix(value, `'`)) {
					value = value[1 : len(value)-1]
				}

				// Set environment variable if not already set
				if os.Getenv(key) == "" {
					os.Setenv(key, value)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func ValidateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			messages := make([]string, 0, len(errs))
			for _, fe := range errs {
				messages = append(messages, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("configuration validation failed: %s", strings.Join(messages, "; "))
		}
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
