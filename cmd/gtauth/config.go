package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/gt-platform/gtauth/internal/logger"
	"github.com/gt-platform/gtauth/internal/token"
)

const (
	defaultListenAddr      = "localhost:8000"
	defaultLoggingLevel    = logger.LevelInfo
	defaultEnvironment     = logger.EnvProduction
	defaultRedisAddr       = "localhost:6379"
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 24 * time.Hour
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the auth service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Redis instance keeping the revoked token blacklist
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Secret key
	// Tokens are signed symmetrically, so this key is used for both signing and verification
	SecretKey string

	// Token lifetimes
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Environment
	Environment string

	// Frontend origin allowed by CORS, split in url and port parts
	CORSOriginURL  string
	CORSOriginPort string

	// Google social login credentials
	// Social login routes are mounted only when the client ID is set
	GoogleClientID     string
	GoogleClientSecret string

	// Callback URL registered with Google and the frontend URLs the
	// browser flow redirects to after the callback
	OAuthRedirectURL        string
	OAuthSuccessRedirectURL string
	OAuthFailureRedirectURL string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		Environment:     defaultEnvironment,
		RedisAddr:       defaultRedisAddr,
		AccessTokenTTL:  defaultAccessTokenTTL,
		RefreshTokenTTL: defaultRefreshTokenTTL,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	var parseErr error

	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setInt := func(o *int) func(value string) {
		return func(value string) {
			if value == "" {
				return
			}
			parsed, err := strconv.Atoi(value)
			if err != nil {
				parseErr = errors.Join(parseErr, fmt.Errorf("invalid int value %q. Err: %w", value, err))
				return
			}
			*o = parsed
		}
	}
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if value == "" {
				return
			}
			parsed, err := time.ParseDuration(value)
			if err != nil {
				parseErr = errors.Join(parseErr, fmt.Errorf("invalid duration value %q. Err: %w", value, err))
				return
			}
			*o = parsed
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":                setString(&c.ListenAddr),
		"DATABASE_URI":               setString(&c.DatabaseDSN),
		"REDIS_ADDR":                 setString(&c.RedisAddr),
		"REDIS_PASSWORD":             setString(&c.RedisPassword),
		"REDIS_DB":                   setInt(&c.RedisDB),
		"SECRET_KEY":                 setString(&c.SecretKey),
		"ACCESS_TOKEN_TTL":           setDuration(&c.AccessTokenTTL),
		"REFRESH_TOKEN_TTL":          setDuration(&c.RefreshTokenTTL),
		"LOG_LEVEL":                  setString(&c.LogLevel),
		"ENVIRONMENT":                setString(&c.Environment),
		"CORS_ORIGIN_URL":            setString(&c.CORSOriginURL),
		"CORS_ORIGIN_PORT":           setString(&c.CORSOriginPort),
		"GOOGLE_CLIENT_ID":           setString(&c.GoogleClientID),
		"GOOGLE_CLIENT_SECRET":       setString(&c.GoogleClientSecret),
		"OAUTH_REDIRECT_URL":         setString(&c.OAuthRedirectURL),
		"OAUTH_SUCCESS_REDIRECT_URL": setString(&c.OAuthSuccessRedirectURL),
		"OAUTH_FAILURE_REDIRECT_URL": setString(&c.OAuthFailureRedirectURL),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}

	return parseErr
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("gtauth", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis address for the revoked token blacklist")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.DurationVar(&c.AccessTokenTTL, "access-ttl", c.AccessTokenTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTokenTTL, "refresh-ttl", c.RefreshTokenTTL, "Refresh token lifetime")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

// Validate checks the options that have no workable defaults. Called
// once after all config sources are applied, so the process dies on
// startup instead of on the first request.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN must be set"))
	}
	if _, err := token.NewKey(c.SecretKey); err != nil {
		errs = append(errs, err)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}

	return errors.Join(errs...)
}

// CORSOrigin joins the configured origin url and port the way browsers
// send the Origin header. Empty when no origin is configured.
func (c *Config) CORSOrigin() string {
	if c.CORSOriginURL == "" {
		return ""
	}
	if c.CORSOriginPort == "" {
		return c.CORSOriginURL
	}
	return c.CORSOriginURL + ":" + c.CORSOriginPort
}
