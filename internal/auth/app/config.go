package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/internal/auth/notify"
	"github.com/oncreesaas/oncree/internal/auth/service"
	"github.com/oncreesaas/oncree/pkg/jwtx"
)

type Config struct {
	Issuer         string        // Issuer claim for tokens (default: oncree-auth)
	TokenTTL       time.Duration // Access token lifetime (default: 15m)
	SigningKeyFile string        // Optional: Ed25519 PEM key; without it keys are ephemeral
	NumKeys        int           // Ephemeral signing keys to generate (default: 3, max: 10)

	DatabaseFile string // Path to SQLite database file (default: ./auth.db)
	PepperFile   string // Path to the pepper used for password and code hashing (default: ./pepper)

	CodeTTL            time.Duration // One-time code lifetime (default: 10m)
	CodeMaxAttempts    int           // Wrong codes before a challenge locks (default: 3)
	ResendCooldown     time.Duration // Minimum gap between two codes for one email and purpose (default: 60s, 0 disables)
	ChallengeRetention time.Duration // How long retired challenges are kept (default: 24h)

	SMTP notify.SMTPConfig // Used when SMTP_HOST is set, otherwise codes are only logged

	RedisAddr     string // Optional: share the resend cooldown between replicas
	RedisPassword string
	RedisDB       int

	OTPReturnToClient bool // Expose GET /dev/otp. Refused when ENV=prod

	SeedAdminEmail    string // Optional: admin account created when missing
	SeedAdminPassword string // Optional: generated and logged as a warning when empty
	SeedUsers         string // Optional: "email:password:type[:mfa],..."

	Env                  string        // Environment (dev, test, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// LoadConfig reads the configuration from the environment. A .env file in
// the working directory is loaded first when present; real environment
// variables win over it.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Issuer:         getEnvOrDefault("AUTH_ISSUER", "oncree-auth"),
		TokenTTL:       getEnvDurationOrDefault("AUTH_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		SigningKeyFile: os.Getenv("AUTH_SIGNING_KEY_FILE"),
		NumKeys:        getEnvIntOrDefault("AUTH_NUM_KEYS", 3),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		CodeTTL:            getEnvDurationOrDefault("CODE_TTL", service.DefaultCodeTTL),
		CodeMaxAttempts:    getEnvIntOrDefault("CODE_MAX_ATTEMPTS", service.DefaultMaxAttempts),
		ResendCooldown:     getEnvDurationOrDefault("RESEND_COOLDOWN", 60*time.Second),
		ChallengeRetention: getEnvDurationOrDefault("CHALLENGE_RETENTION", service.DefaultChallengeRetention),

		SMTP: notify.SMTPConfig{
			Host:       os.Getenv("SMTP_HOST"),
			Port:       getEnvIntOrDefault("SMTP_PORT", 587),
			Username:   os.Getenv("SMTP_USERNAME"),
			Password:   os.Getenv("SMTP_PASSWORD"),
			From:       os.Getenv("SMTP_FROM"),
			Timeout:    getEnvDurationOrDefault("SMTP_TIMEOUT", 10*time.Second),
			RequireTLS: getEnvBoolOrDefault("SMTP_REQUIRE_TLS", true),
		},

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		OTPReturnToClient: getEnvBoolOrDefault("OTP_RETURN_TO_CLIENT", false),

		SeedAdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
		SeedUsers:         os.Getenv("SEED_USERS"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// IsProduction reports whether ENV names a production deployment.
func (c Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "prod", "production":
		return true
	}
	return false
}

// Validate rejects configurations the service must not start with.
func (c Config) Validate() error {
	var errs []error

	if c.OTPReturnToClient && c.IsProduction() {
		errs = append(errs, fmt.Errorf("OTP_RETURN_TO_CLIENT must not be enabled when ENV=%s", c.Env))
	}
	if c.CodeTTL <= 0 {
		errs = append(errs, errors.New("CODE_TTL must be positive"))
	}
	if c.CodeMaxAttempts < 1 {
		errs = append(errs, errors.New("CODE_MAX_ATTEMPTS must be at least 1"))
	}
	if c.ResendCooldown < 0 {
		errs = append(errs, errors.New("RESEND_COOLDOWN must not be negative"))
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		errs = append(errs, errors.New("SMTP_FROM is required when SMTP_HOST is set"))
	}
	if _, err := c.SeedData(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SeedData returns the accounts to create at startup.
func (c Config) SeedData() (domain.BootstrapData, error) {
	var data domain.BootstrapData

	if c.SeedAdminEmail != "" {
		data.Users = append(data.Users, domain.SeedUser{
			Email:    c.SeedAdminEmail,
			Name:     "Administrator",
			Password:   c.SeedAdminPassword,
			Type:     domain.AccountAdmin,
			EmailMFA: true,
		})
	}

	users, err := parseSeedUsers(c.SeedUsers)
	if err != nil {
		return data, err
	}
	data.Users = append(data.Users, users...)
	return data, nil
}

// parseSeedUsers parses "email:password:type[:mfa]" entries separated by
// commas.
func parseSeedUsers(raw string) ([]domain.SeedUser, error) {
	var out []domain.SeedUser

	for entry := range strings.SplitSeq(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("SEED_USERS: entry %d fields, want email:password:type[:mfa]", len(parts))
		}

		u := domain.SeedUser{
			Email:    parts[0],
			Password:   parts[1],
			Type:     domain.AccountType(strings.ToLower(parts[2])),
		}
		if !u.Type.Valid() {
			return nil, fmt.Errorf("SEED_USERS: unknown account type %q", parts[2])
		}
		if len(parts) == 4 {
			if parts[3] != "mfa" {
				return nil, fmt.Errorf("SEED_USERS: unknown flag %q", parts[3])
			}
			u.EmailMFA = true
		}
		out = append(out, u)
	}
	return out, nil
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
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
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

	// Bare integers are seconds
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}
