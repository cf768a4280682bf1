package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for document attachments.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Configured reports whether enough settings are present to build a client.
func (c MinIOConfig) Configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level    string
	Timezone string
}

// SchedulerConfig controls the sweep and deferred-send loops.
// Only one process should run with Enabled=true.
type SchedulerConfig struct {
	Enabled       bool
	SweepSchedule string
	PollSchedule  string
	Timezone      string
	RunOnStart    bool
}

// NotifyConfig holds dispatch defaults.
type NotifyConfig struct {
	Locale          string
	DefaultRoles    []string
	NotificationTTL time.Duration
	DeliveryTimeout time.Duration
	GroupWindow     time.Duration
	AttachmentTTL   time.Duration
}

// SMTPConfig holds SMTP relay credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Configured reports whether the SMTP relay can be used.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Port > 0 && c.From != ""
}

// ResendConfig holds Resend API credentials.
type ResendConfig struct {
	APIKey string
	From   string
}

// Configured reports whether the Resend API can be used.
func (c ResendConfig) Configured() bool {
	return c.APIKey != "" && c.From != ""
}

// EmailConfig selects the email provider.
type EmailConfig struct {
	Provider string // "smtp" | "resend"
	SMTP     SMTPConfig
	Resend   ResendConfig
}

// SMSConfig holds the SMS provider endpoint.
type SMSConfig struct {
	Endpoint   string
	APIKey     string
	Sender     string
	RatePerSec int
}

// Configured reports whether the SMS provider can be used.
func (c SMSConfig) Configured() bool {
	return c.Endpoint != "" && c.APIKey != "" && c.Sender != ""
}

// RedisConfig enables cross-replica relay of realtime notifications.
type RedisConfig struct {
	URL     string
	Channel string
}

// AMQPConfig enables publishing notification events to a topic exchange.
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Notify    NotifyConfig
	Email     EmailConfig
	SMS       SMSConfig
	Redis     RedisConfig
	AMQP      AMQPConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Timezone: getEnv("LOG_TIMEZONE", "UTC"),
		},
		Scheduler: SchedulerConfig{
			Enabled:       getEnvBool("SCHEDULER_ENABLED", true),
			SweepSchedule: getEnv("SWEEP_SCHEDULE", "@every 12h"),
			PollSchedule:  getEnv("POLL_SCHEDULE", "@every 60s"),
			Timezone:      getEnv("SCHEDULER_TIMEZONE", "UTC"),
			RunOnStart:    getEnvBool("SWEEP_ON_START", false),
		},
		Notify: NotifyConfig{
			Locale:          getEnv("NOTIFY_LOCALE", "en"),
			DefaultRoles:    getEnvList("NOTIFY_DEFAULT_ROLES", []string{"admin", "manager"}),
			NotificationTTL: getEnvDuration("NOTIFY_TTL", 30*24*time.Hour),
			DeliveryTimeout: getEnvDuration("DELIVERY_TIMEOUT", 10*time.Second),
			GroupWindow:     getEnvDuration("GROUP_WINDOW", 7*24*time.Hour),
			AttachmentTTL:   getEnvDuration("ATTACHMENT_URL_TTL", 15*time.Minute),
		},
		Email: EmailConfig{
			Provider: strings.ToLower(getEnv("EMAIL_PROVIDER", "smtp")),
			SMTP: SMTPConfig{
				Host:     getEnv("SMTP_HOST", ""),
				Port:     getEnvInt("SMTP_PORT", 587),
				User:     getEnv("SMTP_USER", ""),
				Password: getEnv("SMTP_PASSWORD", ""),
				From:     getEnv("SMTP_FROM", ""),
			},
			Resend: ResendConfig{
				APIKey: getEnv("RESEND_API_KEY", ""),
				From:   getEnv("EMAIL_FROM", ""),
			},
		},
		SMS: SMSConfig{
			Endpoint:   getEnv("SMS_ENDPOINT", ""),
			APIKey:     getEnv("SMS_API_KEY", ""),
			Sender:     getEnv("SMS_SENDER", ""),
			RatePerSec: getEnvInt("SMS_RATE_PER_SEC", 5),
		},
		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", ""),
			Channel: getEnv("REDIS_CHANNEL", "docexpiry:notifications"),
		},
		AMQP: AMQPConfig{
			URL:        getEnv("AMQP_URL", ""),
			Exchange:   getEnv("AMQP_EXCHANGE", "docexpiry.events"),
			RoutingKey: getEnv("AMQP_ROUTING_KEY", "notification.created"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

// getEnvList splits a comma-separated value, dropping empty entries.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
