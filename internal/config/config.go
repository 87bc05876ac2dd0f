package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// The services run in EKS with every setting injected as a pod environment
// variable. Defaults match the docker-compose stack with localstack.

const (
	ClassifierRules  = "rules"
	ClassifierGemini = "gemini"
)

type Config struct {
	IsLocalDev bool   `mapstructure:"IS_LOCAL_DEV"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBMaxConns int    `mapstructure:"DB_MAX_CONNS"`

	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSEndpoint        string `mapstructure:"AWS_ENDPOINT"`
	LogEventsQueueURL  string `mapstructure:"LOG_EVENTS_QUEUE_URL"`
	AlertSenderEmail   string `mapstructure:"ALERT_SENDER_EMAIL"`
	AlertRecipientMail string `mapstructure:"ALERT_RECIPIENT_EMAIL"`
	WorkerConcurrency  int    `mapstructure:"WORKER_CONCURRENCY"`

	ClassifierBackend string        `mapstructure:"CLASSIFIER_BACKEND"`
	ClassifierTimeout time.Duration `mapstructure:"CLASSIFIER_TIMEOUT"`
	GeminiAPIKey      string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string        `mapstructure:"GEMINI_MODEL"`
	WorkdayTimezone   string        `mapstructure:"WORKDAY_TIMEZONE"`

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (config Config, err error) {
	v.SetDefault("IS_LOCAL_DEV", false)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_HOST", "db")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "clockwise_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("AWS_REGION", "us-east-1") // Default region for AWS services
	v.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	v.SetDefault("LOG_EVENTS_QUEUE_URL", "http://localstack:4566/000000000000/clocking-log-events")
	v.SetDefault("ALERT_SENDER_EMAIL", "alerts@clockwise.local")
	v.SetDefault("ALERT_RECIPIENT_EMAIL", "hr@clockwise.local")
	v.SetDefault("WORKER_CONCURRENCY", 10)
	v.SetDefault("CLASSIFIER_BACKEND", ClassifierRules)
	v.SetDefault("CLASSIFIER_TIMEOUT", "15s")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("WORKDAY_TIMEZONE", "UTC")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317")

	// Read in environment variables that match the keys.
	v.AutomaticEnv()

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	config.ClassifierBackend = strings.ToLower(strings.TrimSpace(config.ClassifierBackend))

	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.ServerPort == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.DBHost == "" || c.DBName == "" {
		errs = append(errs, errors.New("DB_HOST and DB_NAME are required"))
	}
	if c.DBMaxConns < 1 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be at least 1"))
	}
	if c.WorkerConcurrency < 1 {
		errs = append(errs, errors.New("WORKER_CONCURRENCY must be at least 1"))
	}
	if c.ClassifierTimeout <= 0 {
		errs = append(errs, errors.New("CLASSIFIER_TIMEOUT must be positive"))
	}

	switch c.ClassifierBackend {
	case ClassifierRules:
	case ClassifierGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when CLASSIFIER_BACKEND is gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("CLASSIFIER_BACKEND must be %q or %q, got %q", ClassifierRules, ClassifierGemini, c.ClassifierBackend))
	}

	if _, err := time.LoadLocation(c.WorkdayTimezone); err != nil {
		errs = append(errs, fmt.Errorf("WORKDAY_TIMEZONE is invalid: %w", err))
	}

	return errors.Join(errs...)
}

// Location returns the workday time zone. It falls back to UTC on an invalid
// name, which Validate already rejects.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.WorkdayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseURL builds the postgres connection URL shared by pgxpool, otelsql
// and golang-migrate.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}
