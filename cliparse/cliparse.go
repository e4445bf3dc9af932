package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	JWTSecret       string
	TokenTTL        time.Duration
	CredentialsFile string

	SessionBackend string
	RedisAddr      string
	SessionTTL     time.Duration

	NullEndDatePolicy string
	MaxImageWidth     int
	LoginRate         int

	LogLevel  string
	LogFormat string
	LogFile   string
}

// ParseFlags reads flags first and falls back to environment variables
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("quickly-survey", flag.ContinueOnError)

	// Network and storage (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Identity (prefer env variables for the secret, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "Token signing secret (prefer env)")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", 0, "Login token lifetime")
	fs.StringVar(&cfg.CredentialsFile, "credentials", "", "YAML credentials file")

	// Navigation sessions
	fs.StringVar(&cfg.SessionBackend, "sessions", "", "Session backend (memory or redis)")
	fs.StringVar(&cfg.RedisAddr, "redis", "", "Redis address for the redis session backend")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", 0, "Navigation state lifetime")

	// Survey behaviour
	fs.StringVar(&cfg.NullEndDatePolicy, "null-end-date", "", "What a missing end date means to respondents (closed or open)")
	fs.IntVar(&cfg.MaxImageWidth, "max-image-width", 0, "Maximum stored question image width in pixels")
	fs.IntVar(&cfg.LoginRate, "login-rate", 0, "Login attempts per minute per client")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Also write logs to this rotating file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", 3318)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	envString(&cfg.DatabaseType, "DATABASE_TYPE", "sqlite")
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = os.Getenv("CREDENTIALS_FILE")
	}
	if cfg.CredentialsFile == "" {
		return Config{}, errors.New("credentials file required (use -credentials or CREDENTIALS_FILE env)")
	}

	var err error
	if cfg.TokenTTL == 0 {
		if cfg.TokenTTL, err = envDuration("TOKEN_TTL", 12*time.Hour); err != nil {
			return Config{}, err
		}
	}

	envString(&cfg.SessionBackend, "SESSION_BACKEND", "memory")
	envString(&cfg.RedisAddr, "REDIS_ADDR", "")
	if cfg.SessionBackend != "memory" && cfg.SessionBackend != "redis" {
		return Config{}, errors.New("session backend must be memory or redis")
	}
	if cfg.SessionBackend == "redis" && cfg.RedisAddr == "" {
		return Config{}, errors.New("REDIS_ADDR required for the redis session backend")
	}
	if cfg.SessionTTL == 0 {
		if cfg.SessionTTL, err = envDuration("SESSION_TTL", 24*time.Hour); err != nil {
			return Config{}, err
		}
	}

	envString(&cfg.NullEndDatePolicy, "NULL_END_DATE_POLICY", "closed")
	if cfg.MaxImageWidth == 0 {
		if cfg.MaxImageWidth, err = envInt("MAX_IMAGE_WIDTH", 1024); err != nil {
			return Config{}, err
		}
	}
	if cfg.LoginRate == 0 {
		if cfg.LoginRate, err = envInt("LOGIN_RATE", 10); err != nil {
			return Config{}, err
		}
	}

	envString(&cfg.LogLevel, "LOG_LEVEL", "info")
	envString(&cfg.LogFormat, "LOG_FORMAT", "text")
	envString(&cfg.LogFile, "LOG_FILE", "")

	return cfg, nil
}

func envString(dst *string, key, def string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
		return
	}
	*dst = def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid " + key + " env variable")
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.New("invalid " + key + " env variable")
	}
	return d, nil
}
