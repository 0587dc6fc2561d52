package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Email providers, checked in order: Resend, SendGrid, SMTP.
	ResendAPIKey   string
	SendGridAPIKey string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string

	// Default sender identity for email campaigns.
	SenderEmail string
	SenderName  string

	// SMS gateway
	SMSAPIBase    string
	SMSUsername   string
	SMSAPIKey     string
	SMSSenderID   string // numeric fallback sender id for invalid-sender retries
	SMSSenderName string

	// Phone normalization
	PhoneCountryPrefix string

	// Messaging
	AMQPURL string

	// Outbound HTTP
	SendTimeout time.Duration

	// Server
	Port string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "leadvault"),

		ResendAPIKey:   getEnv("RESEND_API_KEY", ""),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPass:       getEnv("SMTP_PASS", ""),

		SenderEmail: getEnv("SENDER_EMAIL", ""),
		SenderName:  getEnv("SENDER_NAME", "LeadVault"),

		SMSAPIBase:    getEnv("SMS_API_BASE", "https://api.mimsms.com"),
		SMSUsername:   getEnv("SMS_USERNAME", ""),
		SMSAPIKey:     getEnv("SMS_API_KEY", ""),
		SMSSenderID:   getEnv("SMS_SENDER_ID", ""),
		SMSSenderName: getEnv("SMS_SENDER_NAME", "LeadVault"),

		PhoneCountryPrefix: getEnv("DEFAULT_PHONE_COUNTRY_PREFIX", "880"),

		AMQPURL: getEnv("AMQP_URL", ""),

		SendTimeout: time.Duration(getEnvInt("SEND_TIMEOUT_SECONDS", 30)) * time.Second,

		Port: getEnv("PORT", "8080"),
	}

	if cfg.SenderEmail == "" {
		if cfg.SMTPUser != "" {
			cfg.SenderEmail = cfg.SMTPUser
		} else {
			cfg.SenderEmail = "noreply@leadvault.app"
		}
	}

	return cfg
}

// SMSConfigured reports whether the SMS gateway credentials are present.
func (c *Config) SMSConfigured() bool {
	return c.SMSUsername != "" && c.SMSAPIKey != ""
}

// SMTPConfigured reports whether the raw SMTP transport is usable.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
