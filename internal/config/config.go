package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const devJWTSecret = "dev-only-jwt-secret-change-me"

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string   `env:"APP_PORT" envDefault:"5000"`
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`

	// DatabaseURL selects Persistent Mode for users. Empty means Local Mode.
	DatabaseURL string `env:"DATABASE_URL"`

	OTPStore         string        `env:"OTP_STORE" envDefault:"dynamo"` // "dynamo" | "redis" | "memory"
	OTPTTL           time.Duration `env:"OTP_TTL" envDefault:"5m"`
	OTPSweepInterval time.Duration `env:"OTP_SWEEP_INTERVAL" envDefault:"1m"`
	RedisURL         string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables

	TaskEventsTopicARN string `env:"TASK_EVENTS_TOPIC_ARN"`

	MailTransport string        `env:"MAIL_TRANSPORT" envDefault:"smtp"` // "smtp" | "log"
	SMTPHost      string        `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort      string        `env:"SMTP_PORT" envDefault:"1025"`
	SMTPFrom      string        `env:"SMTP_FROM" envDefault:"noreply@example.com"`
	SMTPUsername  string        `env:"SMTP_USERNAME"`
	SMTPPassword  string        `env:"SMTP_PASSWORD"`
	MailTimeout   time.Duration `env:"MAIL_TIMEOUT" envDefault:"30s"`

	Scheduler Scheduler
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	OTPs  string `env:"DYNAMO_TABLE_OTPS" envDefault:"otps"`
	Tasks string `env:"DYNAMO_TABLE_TASKS" envDefault:"tasks"`
}

// Scheduler holds the cron expressions of the background jobs.
type Scheduler struct {
	Enabled           bool          `env:"SCHEDULER_ENABLED" envDefault:"true"`
	ReminderCron      string        `env:"REMINDER_CRON" envDefault:"0 9 * * *"`
	ReminderCheckCron string        `env:"REMINDER_CHECK_CRON" envDefault:"0 */6 * * *"`
	ReportCron        string        `env:"REPORT_CRON" envDefault:"0 8 * * 1"`
	JobTimeout        time.Duration `env:"JOB_TIMEOUT" envDefault:"5m"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = devJWTSecret
	}
	switch c.OTPStore {
	case "dynamo", "redis", "memory":
	default:
		return fmt.Errorf("OTP_STORE must be dynamo, redis or memory, got %q", c.OTPStore)
	}
	switch c.MailTransport {
	case "smtp", "log":
	default:
		return fmt.Errorf("MAIL_TRANSPORT must be smtp or log, got %q", c.MailTransport)
	}
	if c.OTPTTL <= 0 {
		return errors.New("OTP_TTL must be positive")
	}
	if c.OTPSweepInterval <= 0 {
		return errors.New("OTP_SWEEP_INTERVAL must be positive")
	}
	return nil
}
