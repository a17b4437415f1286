// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetBrevoAPIKey() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
}

// NotificationConfig provides settings for the notification module.
type NotificationConfig interface {
	GetAppBaseURL() string
	GetLeadEmailTemplateID() int64
}

// ClaimConfig provides settings for the unattended-lead claim lease.
type ClaimConfig interface {
	GetClaimTTL() time.Duration
	GetResponseDeadline() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// WebhookConfig provides settings for the public ingestion webhook.
type WebhookConfig interface {
	GetWebhookAPIKey() string
}

// SchedulerConfig provides settings for the asynq-backed outbox worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetAsynqQueueName() string
}

// MailboxConfig provides settings for the IMAP lead inbox poller.
type MailboxConfig interface {
	GetIMAPHost() string
	GetIMAPPort() int
	GetIMAPUsername() string
	GetIMAPPassword() string
	GetIMAPFolder() string
	GetIMAPPollInterval() time.Duration
	IsMailboxEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	JWTAccessSecret     string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	AppBaseURL          string
	EmailEnabled        bool
	BrevoAPIKey         string
	EmailFromName       string
	EmailFromAddress    string
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	LeadEmailTemplateID int64
	WebhookAPIKey       string
	ClaimTTL            time.Duration
	ResponseDeadline    time.Duration
	RedisURL            string
	AsynqQueueName      string
	IMAPHost            string
	IMAPPort            int
	IMAPUsername        string
	IMAPPassword        string
	IMAPFolder          string
	IMAPPollInterval    time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetBrevoAPIKey() string      { return c.BrevoAPIKey }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }

// NotificationConfig implementation
func (c *Config) GetAppBaseURL() string         { return c.AppBaseURL }
func (c *Config) GetLeadEmailTemplateID() int64 { return c.LeadEmailTemplateID }

// ClaimConfig implementation
func (c *Config) GetClaimTTL() time.Duration         { return c.ClaimTTL }
func (c *Config) GetResponseDeadline() time.Duration { return c.ResponseDeadline }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// WebhookConfig implementation
func (c *Config) GetWebhookAPIKey() string { return c.WebhookAPIKey }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }

// MailboxConfig implementation
func (c *Config) GetIMAPHost() string                 { return c.IMAPHost }
func (c *Config) GetIMAPPort() int                    { return c.IMAPPort }
func (c *Config) GetIMAPUsername() string             { return c.IMAPUsername }
func (c *Config) GetIMAPPassword() string             { return c.IMAPPassword }
func (c *Config) GetIMAPFolder() string               { return c.IMAPFolder }
func (c *Config) GetIMAPPollInterval() time.Duration  { return c.IMAPPollInterval }
func (c *Config) IsMailboxEnabled() bool              { return c.IMAPHost != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	brevoAPIKey := getEnv("BREVO_API_KEY", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:          getEnv("APP_BASE_URL", "http://localhost:4200"),
		EmailEnabled:        emailEnabled && (brevoAPIKey != "" || getEnv("SMTP_HOST", "") != ""),
		BrevoAPIKey:         brevoAPIKey,
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Dealer Portal"),
		EmailFromAddress:    getEnv("EMAIL_FROM_ADDRESS", ""),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		LeadEmailTemplateID: mustInt64(getEnv("LEAD_EMAIL_TEMPLATE_ID", "0")),
		WebhookAPIKey:       getEnv("WEBHOOK_API_KEY", ""),
		ClaimTTL:            mustDuration(getEnv("CLAIM_TTL", "20m")),
		ResponseDeadline:    mustDuration(getEnv("RESPONSE_DEADLINE", "24h")),
		RedisURL:            getEnv("REDIS_URL", ""),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "default"),
		IMAPHost:            getEnv("IMAP_HOST", ""),
		IMAPPort:            mustInt(getEnv("IMAP_PORT", "993")),
		IMAPUsername:        getEnv("IMAP_USERNAME", ""),
		IMAPPassword:        getEnv("IMAP_PASSWORD", ""),
		IMAPFolder:          getEnv("IMAP_FOLDER", "INBOX"),
		IMAPPollInterval:    mustDuration(getEnv("IMAP_POLL_INTERVAL", "1m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.WebhookAPIKey == "" {
		return nil, fmt.Errorf("WEBHOOK_API_KEY is required")
	}
	if emailEnabled && cfg.BrevoAPIKey == "" && cfg.SMTPHost == "" {
		return nil, fmt.Errorf("BREVO_API_KEY or SMTP_HOST is required when EMAIL_ENABLED is true")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.ClaimTTL <= 0 {
		return nil, fmt.Errorf("CLAIM_TTL must be a positive duration")
	}
	if cfg.ResponseDeadline <= 0 {
		return nil, fmt.Errorf("RESPONSE_DEADLINE must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
