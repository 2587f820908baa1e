package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Database   DatabaseConfig
	Alternate  AlternateConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Cron       CronConfig
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
	MaxConns   int32
	MinConns   int32
}

// AlternateConfig describes the optional second tenant, reached through the
// sentinel department id. An empty Driver disables it.
type AlternateConfig struct {
	Driver     string
	URL        string
	SQLitePath string
	Name       string
}

func (a AlternateConfig) Enabled() bool {
	return a.Driver != ""
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type AttendanceConfig struct {
	Tolerance      time.Duration
	CleanupWorkers int
}

type CronConfig struct {
	Enabled      bool
	CleanupHour  int
	LookbackDays int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:     strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       dbPort,
		User:       getEnv("DB_USER", "postgres"),
		Password:   getEnv("DB_PASSWORD", ""),
		Name:       getEnv("DB_NAME", "attendance"),
		SSLMode:    getEnv("DB_SSL_MODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "attendance.db"),
		MaxConns:   int32(maxConns),
		MinConns:   int32(minConns),
	}

	config.Alternate = AlternateConfig{
		Driver:     strings.ToLower(getEnv("ALT_DB_DRIVER", "")),
		URL:        getEnv("ALT_DB_URL", ""),
		SQLitePath: getEnv("ALT_SQLITE_PATH", ""),
		Name:       getEnv("ALT_SOURCE_NAME", "Alternate tenant"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "8h"),
	}

	// Attendance rules
	toleranceMinutes, err := strconv.Atoi(getEnv("ATTENDANCE_TOLERANCE_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_TOLERANCE_MINUTES: %w", err)
	}
	workers, err := strconv.Atoi(getEnv("CLEANUP_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLEANUP_WORKERS: %w", err)
	}
	config.Attendance = AttendanceConfig{
		Tolerance:      time.Duration(toleranceMinutes) * time.Minute,
		CleanupWorkers: workers,
	}

	// Cron configuration
	cleanupHour, err := strconv.Atoi(getEnv("CRON_CLEANUP_HOUR", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_CLEANUP_HOUR: %w", err)
	}
	lookback, err := strconv.Atoi(getEnv("CRON_LOOKBACK_DAYS", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_LOOKBACK_DAYS: %w", err)
	}
	config.Cron = CronConfig{
		Enabled:      getEnvBool("CRON_ENABLED", true),
		CleanupHour:  cleanupHour,
		LookbackDays: lookback,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			return errors.New("DB_PASSWORD is required")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %s or %s", DriverPostgres, DriverSQLite)
	}

	switch c.Alternate.Driver {
	case "":
	case DriverPostgres:
		if c.Alternate.URL == "" {
			return errors.New("ALT_DB_URL is required")
		}
	case DriverSQLite:
		if c.Alternate.SQLitePath == "" {
			return errors.New("ALT_SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("ALT_DB_DRIVER must be empty, %s or %s", DriverPostgres, DriverSQLite)
	}

	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if c.Attendance.Tolerance <= 0 {
		return errors.New("ATTENDANCE_TOLERANCE_MINUTES must be positive")
	}
	if c.Attendance.CleanupWorkers < 1 || c.Attendance.CleanupWorkers > 64 {
		return errors.New("CLEANUP_WORKERS must be between 1 and 64")
	}
	if c.Cron.CleanupHour < 0 || c.Cron.CleanupHour > 23 {
		return errors.New("CRON_CLEANUP_HOUR must be between 0 and 23")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
