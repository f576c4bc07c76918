// Package config loads the application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// API contains API server configuration
	API APIConfig
	// Auth contains authentication configuration
	Auth AuthConfig
	// Database contains database configuration
	Database DatabaseConfig
	// Email contains email service configuration
	Email EmailConfig
	// Policy contains the password policy configuration
	Policy PolicyConfig

	// Rate Limiting Configuration
	RateLimit struct {
		Requests int // Number of requests allowed per window
		Window   int // Time window in seconds
		Burst    int // Maximum burst size
	}

	// Env selects the logger profile ("production" or anything else)
	Env string
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname
	Host string
	// Port is the database server port
	Port int
	// User is the database username
	User string
	// Password is the database password
	Password string
	// DBName is the database name
	DBName string
	// SSLMode is the SSL mode for the database connection
	SSLMode string
	// MigrationsPath is the path to database migrations
	MigrationsPath string
}

// APIConfig contains API server settings
type APIConfig struct {
	// Port is the server port to listen on
	Port string
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	// JWTSecret is the secret key used to sign JWT tokens
	JWTSecret string
	// JWTExpiration is the JWT token expiration time in hours
	JWTExpiration int
	// RegistrationOpen determines if new user registration is allowed
	RegistrationOpen bool
}

// EmailConfig contains email service settings
type EmailConfig struct {
	// SMTPHost is the SMTP server hostname
	SMTPHost string
	// SMTPPort is the SMTP server port
	SMTPPort int
	// SMTPUsername is the SMTP authentication username
	SMTPUsername string
	// SMTPPassword is the SMTP authentication password
	SMTPPassword string
	// FromAddress is the email address used as sender
	FromAddress string
	// AppURL is the base URL of the application
	AppURL string
}

// PolicyConfig contains every externally tunable knob of the password
// policy: validator thresholds, history retention and expiry behaviour.
type PolicyConfig struct {
	// Validator thresholds
	MinLength          int
	MinLetters         int
	MinLowercase       int
	MinUppercase       int
	MinDigits          int
	MinSymbols         int
	MaxConsecutive     int
	MinEntropyBits     float64
	CommonSequences    []string
	DictionaryPath     string
	DictionaryContains bool
	StrengthEnabled    bool
	StrengthMinScore   int

	// History retention
	HistoryCount  int
	HistoryOffset int

	// Expiry / session state machine
	ExpirySeconds    int
	CheckOnlyAtLogin bool
	ExcludedPaths    []string
	ChangePath       string
	StaticPrefixes   []string
	AllowLogout      bool
	LogoutPath       string
}

// ExpiryDuration returns the configured maximum password age.
func (p PolicyConfig) ExpiryDuration() time.Duration {
	return time.Duration(p.ExpirySeconds) * time.Second
}

// ExpiryEnabled reports whether duration-based expiry is active at all.
func (p PolicyConfig) ExpiryEnabled() bool {
	return p.ExpirySeconds > 0
}

// DefaultCommonSequences are the keyboard walks and runs rejected by the
// common-sequence check unless overridden.
var DefaultCommonSequences = []string{
	"0123456789",
	"`1234567890-=",
	"~!@#$%^&*()_+",
	"abcdefghijklmnopqrstuvwxyz",
	"qwertyuiop[]\\",
	"qwertyuiop{}|",
	"asdfghjkl;'",
	"asdfghjkl:\"",
	"zxcvbnm,./",
	"zxcvbnm<>?",
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
	"qazwsx",
	"password",
}

// LoadFromEnv retrieves configuration from environment variables
func (c *Config) LoadFromEnv() error {
	c.Env = getEnvOrDefault("APP_ENV", "development")
	c.API = APIConfig{
		Port: getEnvOrDefault("API_PORT", "8080"),
	}
	c.Database = DatabaseConfig{
		Host:           getEnvOrDefault("DB_HOST", "localhost"),
		Port:           getEnvAsInt("DB_PORT", 5432),
		User:           getEnvOrDefault("DB_USER", "postgres"),
		Password:       getEnvOrDefault("DB_PASSWORD", "postgres"),
		DBName:         getEnvOrDefault("DB_NAME", "passguard"),
		SSLMode:        getEnvOrDefault("DB_SSL_MODE", "disable"),
		MigrationsPath: getEnvOrDefault("DB_MIGRATIONS_PATH", "migrations"),
	}
	c.Auth = AuthConfig{
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTExpiration:    getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		RegistrationOpen: getEnvAsBool("REGISTRATION_OPEN", true),
	}
	c.Email = EmailConfig{
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		FromAddress:  os.Getenv("SMTP_FROM"),
		AppURL:       os.Getenv("APP_URL"),
	}
	c.Policy = PolicyConfig{
		MinLength:          getEnvAsInt("POLICY_MIN_LENGTH", 8),
		MinLetters:         getEnvAsInt("POLICY_MIN_LETTERS", 3),
		MinLowercase:       getEnvAsInt("POLICY_MIN_LOWERCASE", 1),
		MinUppercase:       getEnvAsInt("POLICY_MIN_UPPERCASE", 1),
		MinDigits:          getEnvAsInt("POLICY_MIN_DIGITS", 1),
		MinSymbols:         getEnvAsInt("POLICY_MIN_SYMBOLS", 1),
		MaxConsecutive:     getEnvAsInt("POLICY_MAX_CONSECUTIVE", 3),
		MinEntropyBits:     getEnvAsFloat("POLICY_MIN_ENTROPY_BITS", 25),
		CommonSequences:    getEnvAsSlice("POLICY_COMMON_SEQUENCES", DefaultCommonSequences),
		DictionaryPath:     os.Getenv("POLICY_DICTIONARY_PATH"),
		DictionaryContains: getEnvAsBool("POLICY_DICTIONARY_CONTAINS", false),
		StrengthEnabled:    getEnvAsBool("POLICY_STRENGTH_ENABLED", true),
		StrengthMinScore:   getEnvAsInt("POLICY_STRENGTH_MIN_SCORE", 2),
		HistoryCount:       getEnvAsInt("POLICY_HISTORY_COUNT", 10),
		HistoryOffset:      getEnvAsInt("POLICY_HISTORY_OFFSET", 0),
		ExpirySeconds:      getEnvAsInt("POLICY_EXPIRY_SECONDS", 60*60*24*90),
		CheckOnlyAtLogin:   getEnvAsBool("POLICY_CHECK_ONLY_AT_LOGIN", false),
		ExcludedPaths:      getEnvAsSlice("POLICY_EXCLUDED_PATHS", nil),
		ChangePath:         getEnvOrDefault("POLICY_CHANGE_PATH", "/password/change"),
		StaticPrefixes:     getEnvAsSlice("POLICY_STATIC_PREFIXES", []string{"/static/", "/media/"}),
		AllowLogout:        getEnvAsBool("POLICY_ALLOW_LOGOUT", true),
		LogoutPath:         getEnvOrDefault("POLICY_LOGOUT_PATH", "/api/v1/auth/logout"),
	}

	// Load rate limit configuration
	c.RateLimit.Requests = getEnvAsInt("RATE_LIMIT_REQUESTS", 1000)
	c.RateLimit.Window = getEnvAsInt("RATE_LIMIT_WINDOW", 60)
	c.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", 50)

	// Validate required fields
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	// Bad exclusion patterns must fail at startup, not at request time
	for _, pattern := range c.Policy.ExcludedPaths {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid POLICY_EXCLUDED_PATHS pattern %q: %w", pattern, err)
		}
	}

	return nil
}

// getEnvAsInt retrieves an environment variable and converts it to an integer
func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvAsFloat retrieves an environment variable and converts it to a float
func getEnvAsFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvAsBool retrieves an environment variable and converts it to a boolean
func getEnvAsBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvAsSlice retrieves a comma separated environment variable
func getEnvAsSlice(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
