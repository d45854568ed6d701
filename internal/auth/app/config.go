package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/worklog/internal/auth/notify"
	"github.com/aussiebroadwan/worklog/pkg/cryptox"
	"github.com/aussiebroadwan/worklog/pkg/httpx"
)

// Mail delivery modes.
const (
	MailModeLog  = "log"
	MailModeSMTP = "smtp"
)

type Config struct {
	Issuer         string // Issuer claim for tokens (default: worklog-auth)
	BootstrapToken string // Optional: token required to perform bootstrap

	DatabaseFile   string // Path to SQLite database file (default: ./auth.db)
	PepperFile     string // Path to the password pepper, created when missing (default: ./pepper)
	SigningKeyFile string // Optional: Ed25519 PKCS8 PEM; empty means an ephemeral key

	AccessTokenTTL        time.Duration // Access token lifetime (default: 15m)
	PasswordTokenValidity time.Duration // Reset token window (default: 1h)
	PasswordHashCost      int           // argon2id iterations (default: 2)
	PasswordMinLength     int           // Minimum password length (default: 8)
	PasswordPolicyFile    string        // Optional YAML policy overriding min length and denylist
	PasswordResetURL      string        // Link base embedded in reset mails

	MailMode string // log or smtp (default: log)
	SMTP     notify.SMTPConfig

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired reset token cleanup interval (default: 1h)

	RateLimits httpx.RateLimitProfiles
}

func LoadConfig() Config {
	return Config{
		Issuer:         getEnvOrDefault("AUTH_ISSUER", "worklog-auth"),
		BootstrapToken: os.Getenv("BOOTSTRAP_TOKEN"),

		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		SigningKeyFile: os.Getenv("AUTH_SIGNING_KEY_FILE"),

		AccessTokenTTL:        getEnvDurationOrDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		PasswordTokenValidity: getEnvDurationOrDefault("PASSWORD_TOKEN_VALIDITY", cryptox.DefaultResetTokenValidity),
		PasswordHashCost:      getEnvIntOrDefault("PASSWORD_HASH_COST", cryptox.DefaultIterations),
		PasswordMinLength:     getEnvIntOrDefault("PASSWORD_MIN_LENGTH", cryptox.DefaultMinPasswordLength),
		PasswordPolicyFile:    os.Getenv("PASSWORD_POLICY_FILE"),
		PasswordResetURL:      getEnvOrDefault("PASSWORD_RESET_URL", "http://localhost:3000/reset-password"),

		MailMode: strings.ToLower(getEnvOrDefault("MAIL_MODE", MailModeLog)),
		SMTP: notify.SMTPConfig{
			Host:               os.Getenv("SMTP_HOST"),
			Port:               getEnvIntOrDefault("SMTP_PORT", 587),
			User:               os.Getenv("SMTP_USER"),
			Pass:               os.Getenv("SMTP_PASS"),
			From:               os.Getenv("SMTP_FROM"),
			InsecureSkipVerify: getEnvBoolOrDefault("SMTP_INSECURE", false),
		},

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),

		RateLimits: httpx.RateLimitProfilesFromEnv(),
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.PasswordTokenValidity <= 0 {
		errs = append(errs, errors.New("PASSWORD_TOKEN_VALIDITY must be positive"))
	}
	if c.PasswordHashCost < 1 {
		errs = append(errs, errors.New("PASSWORD_HASH_COST must be at least 1"))
	}
	if c.PasswordMinLength < 1 || c.PasswordMinLength > cryptox.MaxPasswordLength {
		errs = append(errs, fmt.Errorf("PASSWORD_MIN_LENGTH must be between 1 and %d", cryptox.MaxPasswordLength))
	}
	if c.PasswordResetURL == "" {
		errs = append(errs, errors.New("PASSWORD_RESET_URL is required"))
	}
	switch c.MailMode {
	case MailModeLog:
	case MailModeSMTP:
		if c.SMTP.Host == "" || c.SMTP.From == "" {
			errs = append(errs, errors.New("SMTP_HOST and SMTP_FROM are required when MAIL_MODE=smtp"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_MODE must be %q or %q, got %q", MailModeLog, MailModeSMTP, c.MailMode))
	}
	return errors.Join(errs...)
}

// PasswordPolicy builds the strength policy. Values from PASSWORD_POLICY_FILE
// take precedence over PASSWORD_MIN_LENGTH.
func (c Config) PasswordPolicy() (cryptox.Policy, error) {
	p := cryptox.Policy{MinLength: c.PasswordMinLength}
	if c.PasswordPolicyFile == "" {
		return p, nil
	}

	fromFile, err := cryptox.LoadPolicyFile(c.PasswordPolicyFile)
	if err != nil {
		return cryptox.Policy{}, err
	}
	if fromFile.MinLength > 0 {
		p.MinLength = fromFile.MinLength
	}
	p.Denylist = fromFile.Denylist
	return p, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
