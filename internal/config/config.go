package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServiceKind names one of the deployable services.
type ServiceKind string

const (
	AnswerService  ServiceKind = "answer-service"
	CourseService  ServiceKind = "course-service"
	ExamService    ServiceKind = "exam-service"
	StudentService ServiceKind = "student-service"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Name string `yaml:"name" env:"SERVER_NAME"`
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME,duration"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	Mongo struct {
		URI      string `yaml:"uri" env:"MONGO_URI"`
		Database string `yaml:"database" env:"MONGO_DATABASE"`
		Timeout  string `yaml:"timeout" env:"MONGO_TIMEOUT,duration"`
	} `yaml:"mongo"`

	Clients struct {
		AnswerServiceURL  string `yaml:"answer_service_url" env:"ANSWER_SERVICE_URL"`
		StudentServiceURL string `yaml:"student_service_url" env:"STUDENT_SERVICE_URL"`
		CourseServiceURL  string `yaml:"course_service_url" env:"COURSE_SERVICE_URL"`
		Timeout           string `yaml:"timeout" env:"CLIENT_TIMEOUT,duration"`
		MaxRetries        int    `yaml:"max_retries" env:"CLIENT_MAX_RETRIES"`
		RetryBackoff      string `yaml:"retry_backoff" env:"CLIENT_RETRY_BACKOFF,duration"`
	} `yaml:"clients"`

	Cascade struct {
		RelayInterval string `yaml:"relay_interval" env:"CASCADE_RELAY_INTERVAL,duration"`
		BatchSize     int    `yaml:"batch_size" env:"CASCADE_BATCH_SIZE"`
	} `yaml:"cascade"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration for one service from a YAML file, a .env
// file and environment variables, in increasing order of precedence.
func LoadConfig(configPath string, kind ServiceKind) (*Config, error) {
	config := &Config{}
	setDefaults(config, kind)

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := newEnvSource(kind).apply(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config, kind); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config, kind ServiceKind) {
	config.Server.Name = string(kind)
	config.Server.Port = defaultPort(kind)
	config.Server.Mode = "development"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = defaultDBName(kind)
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations/" + defaultDBName(kind)

	config.Mongo.URI = "mongodb://localhost:27017"
	config.Mongo.Database = "answers"
	config.Mongo.Timeout = "10s"

	config.Clients.AnswerServiceURL = "http://localhost:8001"
	config.Clients.CourseServiceURL = "http://localhost:8002"
	config.Clients.StudentServiceURL = "http://localhost:8004"
	config.Clients.Timeout = "3s"
	config.Clients.MaxRetries = 2
	config.Clients.RetryBackoff = "200ms"

	config.Cascade.RelayInterval = "30s"
	config.Cascade.BatchSize = 50

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

func defaultPort(kind ServiceKind) string {
	switch kind {
	case AnswerService:
		return "8001"
	case CourseService:
		return "8002"
	case ExamService:
		return "8003"
	case StudentService:
		return "8004"
	default:
		return "8080"
	}
}

func defaultDBName(kind ServiceKind) string {
	switch kind {
	case CourseService:
		return "course"
	case ExamService:
		return "exam"
	case StudentService:
		return "student"
	default:
		return "classroom"
	}
}

// validateConfig checks only what the given service actually uses.
func validateConfig(config *Config, kind ServiceKind) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch kind {
	case AnswerService:
		if config.Mongo.URI == "" {
			return fmt.Errorf("mongo uri is required")
		}
		if config.Mongo.Database == "" {
			return fmt.Errorf("mongo database is required")
		}
	case CourseService, ExamService, StudentService:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
		if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
			return fmt.Errorf("invalid database conn_max_lifetime: %w", err)
		}
	default:
		return fmt.Errorf("unknown service %q", kind)
	}

	switch kind {
	case CourseService:
		if config.Clients.AnswerServiceURL == "" || config.Clients.StudentServiceURL == "" {
			return fmt.Errorf("answer and student service urls are required")
		}
	case StudentService:
		if config.Clients.CourseServiceURL == "" {
			return fmt.Errorf("course service url is required")
		}
		if config.Cascade.BatchSize <= 0 {
			return fmt.Errorf("cascade batch_size must be positive")
		}
	}

	if config.Clients.MaxRetries < 0 {
		return fmt.Errorf("clients max_retries must not be negative")
	}
	if _, err := time.ParseDuration(config.Clients.Timeout); err != nil {
		return fmt.Errorf("invalid clients timeout: %w", err)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
