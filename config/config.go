package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	AWS       AWSConfig
	Email     EmailConfig
	Meeting   MeetingConfig
	Reminders RemindersConfig
}

// EmailConfig selects the mail provider and sender identity.
type EmailConfig struct {
	Provider           string // "ses" or "noop"
	FromAddress        string
	FromName           string
	InsecureSkipVerify bool // dev only: skip TLS verification towards SES
}

// MeetingConfig configures the default meeting-link provider.
type MeetingConfig struct {
	LinkBase string // e.g. https://meet.example.com/j
}

// RemindersConfig drives the reminder scheduler in the worker process.
type RemindersConfig struct {
	Enabled             bool
	Dedupe              bool // claim an email_logs row before each dispatch
	SpeakerWindowHours  int
	AttendeeWindowHours int
	SpeakerMinute       int // minute past the hour the speaker job fires
	AttendeeMinute      int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:5173)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/speakerhub?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Fanout   bool // publish chat messages through Redis so every instance relays them
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the profile photo bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PhotosBucket    string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "speakerhub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Fanout:   getEnvBool("REALTIME_REDIS_FANOUT", true),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PhotosBucket:    getEnv("AWS_S3_BUCKET_NAME", "speakerhub-photos"),
		},
		Email: EmailConfig{
			Provider:           getEnv("EMAIL_PROVIDER", "noop"),
			FromAddress:        getEnv("AWS_SES_FROM_EMAIL", "noreply@example.com"),
			FromName:           getEnv("EMAIL_FROM_NAME", "SpeakerHub"),
			InsecureSkipVerify: getEnvBool("SES_INSECURE_SKIP_VERIFY", false),
		},
		Meeting: MeetingConfig{
			LinkBase: strings.TrimRight(getEnv("MEETING_LINK_BASE", "https://zoom.us/j"), "/"),
		},
		Reminders: RemindersConfig{
			Enabled:             getEnvBool("REMINDERS_ENABLED", true),
			Dedupe:              getEnvBool("REMINDERS_DEDUPE", true),
			SpeakerWindowHours:  getEnvInt("REMINDER_SPEAKER_WINDOW_HOURS", 24),
			AttendeeWindowHours: getEnvInt("REMINDER_ATTENDEE_WINDOW_HOURS", 12),
			SpeakerMinute:       getEnvInt("REMINDER_SPEAKER_MINUTE", 0),
			AttendeeMinute:      getEnvInt("REMINDER_ATTENDEE_MINUTE", 30),
		},
	}
	if cfg.Reminders.SpeakerMinute < 0 || cfg.Reminders.SpeakerMinute > 59 ||
		cfg.Reminders.AttendeeMinute < 0 || cfg.Reminders.AttendeeMinute > 59 {
		return nil, fmt.Errorf("reminder minutes must be within 0-59")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
