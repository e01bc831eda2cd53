package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	// Practice identity used in outbound messages and calendar events.
	PracticeName     string
	PracticeLocation string
	AdminEmail       string

	// Scheduling policy
	BusinessTimezone     string
	SlotDurationMins     int
	LeadTimeHours        int
	HorizonBusinessDays  int
	SameDayWeekdays      string // comma-separated weekday numbers, 0=Sunday
	SlotToleranceSeconds int

	// Reminder escalation thresholds
	FirstReminderAfter  time.Duration
	SecondReminderAfter time.Duration
	FinalReminderAfter  time.Duration
	ReminderRunInterval time.Duration
	ReminderDryRun      bool

	// Email delivery
	EmailProvider     string // sendgrid | ses | stub
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string

	// SMS delivery (Telnyx REST)
	TelnyxAPIKey string
	SMSFrom      string

	// AWS (SES)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Redis (reminder batch run-lock)
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	ReminderLockTTL time.Duration

	AdminJWTSecret     string
	CORSAllowedOrigins string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		PracticeName:     getEnv("PRACTICE_NAME", "Stillwater Counseling"),
		PracticeLocation: getEnv("PRACTICE_LOCATION", ""),
		AdminEmail:       getEnv("ADMIN_EMAIL", ""),

		BusinessTimezone:     getEnv("BUSINESS_TIMEZONE", "America/New_York"),
		SlotDurationMins:     getEnvAsInt("SLOT_DURATION_MINS", 15),
		LeadTimeHours:        getEnvAsInt("LEAD_TIME_HOURS", 4),
		HorizonBusinessDays:  getEnvAsInt("HORIZON_BUSINESS_DAYS", 3),
		SameDayWeekdays:      getEnv("SAME_DAY_WEEKDAYS", "4,5"),
		SlotToleranceSeconds: getEnvAsInt("SLOT_TOLERANCE_SECONDS", 60),

		FirstReminderAfter:  getEnvAsDuration("FIRST_REMINDER_AFTER", 24*time.Hour),
		SecondReminderAfter: getEnvAsDuration("SECOND_REMINDER_AFTER", 48*time.Hour),
		FinalReminderAfter:  getEnvAsDuration("FINAL_REMINDER_AFTER", 168*time.Hour),
		ReminderRunInterval: getEnvAsDuration("REMINDER_RUN_INTERVAL", 15*time.Minute),
		ReminderDryRun:      getEnvAsBool("REMINDER_DRY_RUN", false),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Stillwater Counseling"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Stillwater Counseling"),

		TelnyxAPIKey: getEnv("TELNYX_API_KEY", ""),
		SMSFrom:      getEnv("SMS_FROM", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		ReminderLockTTL: getEnvAsDuration("REMINDER_LOCK_TTL", 10*time.Minute),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
	}
}

// SameDayExceptionWeekdays parses the configured weekday list (0=Sunday..6=Saturday).
// Unparseable entries are skipped.
func (c *Config) SameDayExceptionWeekdays() []time.Weekday {
	var days []time.Weekday
	for _, part := range strings.Split(c.SameDayWeekdays, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
}

// CORSOrigins splits the configured comma-separated origin list.
func (c *Config) CORSOrigins() []string {
	if strings.TrimSpace(c.CORSAllowedOrigins) == "" {
		return nil
	}
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
