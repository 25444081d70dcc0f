package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"empires-server/internal/shared/utils"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Frontend   FrontendConfig
	Logging    LoggingConfig
	RateLimit  RateLimitConfig
	Catalog    CatalogConfig
	Empire     EmpireConfig
	Simulation SimulationConfig
}

type RedisConfig struct {
	Enabled    bool
	URL        string
	Host       string
	Port       string
	Password   string
	DB         int
	SummaryTTL time.Duration
}

type ServerConfig struct {
	Port         string
	URL          string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

type AuthConfig struct {
	JWTSecret       string
	TokenExpiration time.Duration
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	JSONFormat bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TrustProxy        bool
}

// CatalogConfig points at the technology catalog. An empty path selects the
// catalog compiled into the binary.
type CatalogConfig struct {
	Path string
}

type EmpireConfig struct {
	Names         []string
	InboxCapacity int
	// SubmitTimeout bounds how long a producer waits on a full inbox.
	// Zero means wait until space frees up.
	SubmitTimeout time.Duration
	// SubmitRate throttles producers per empire, in commands per second.
	// Zero disables throttling.
	SubmitRate  float64
	SubmitBurst int
	Seed        uint64
}

type SimulationConfig struct {
	TickInterval  time.Duration
	SnapshotEvery int
	// SnapshotKeep is how many snapshots per empire survive pruning.
	SnapshotKeep int
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

func load() (*Config, error) {
	empireConfig, err := loadEmpireConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server:     loadServerConfig(),
		Database:   loadDatabaseConfig(),
		Redis:      loadRedisConfig(),
		Auth:       loadAuthConfig(),
		Frontend:   loadFrontendConfig(),
		Logging:    loadLoggingConfig(),
		RateLimit:  loadRateLimitConfig(),
		Catalog:    CatalogConfig{Path: utils.GetEnv("CATALOG_PATH", "")},
		Empire:     empireConfig,
		Simulation: loadSimulationConfig(),
	}

	return config, nil
}

func loadRedisConfig() RedisConfig {
	enabled := utils.GetEnv("REDIS_ENABLED", "false") == "true"
	db, _ := strconv.Atoi(utils.GetEnv("REDIS_DB", "0"))
	ttl, _ := strconv.Atoi(utils.GetEnv("REDIS_SUMMARY_TTL_SECONDS", "30"))

	return RedisConfig{
		Enabled:    enabled,
		URL:        utils.GetEnv("REDIS_URL", ""),
		Host:       utils.GetEnv("REDIS_HOST", "localhost"),
		Port:       utils.GetEnv("REDIS_PORT", "6379"),
		Password:   utils.GetEnv("REDIS_PASSWORD", ""),
		DB:         db,
		SummaryTTL: time.Duration(ttl) * time.Second,
	}
}

func loadServerConfig() ServerConfig {
	readTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_READ_TIMEOUT_SECONDS", "15"))
	writeTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_WRITE_TIMEOUT_SECONDS", "15"))
	idleTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_IDLE_TIMEOUT_SECONDS", "60"))

	return ServerConfig{
		Port:         utils.GetEnv("SERVER_PORT", "8080"),
		URL:          utils.GetEnv("SERVER_URL", "http://localhost:8080"),
		Environment:  utils.GetEnv("ENVIRONMENT", "development"),
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
		IdleTimeout:  time.Duration(idleTimeout) * time.Second,
	}
}

func loadDatabaseConfig() DatabaseConfig {
	maxOpenConns, _ := strconv.Atoi(utils.GetEnv("DB_MAX_OPEN_CONNS", "25"))
	maxIdleConns, _ := strconv.Atoi(utils.GetEnv("DB_MAX_IDLE_CONNS", "5"))
	connMaxLifetime, _ := strconv.Atoi(utils.GetEnv("DB_CONN_MAX_LIFETIME_MINUTES", "5"))

	return DatabaseConfig{
		Enabled:         utils.GetEnv("DB_ENABLED", "false") == "true",
		Host:            utils.GetEnv("DB_HOST", "localhost"),
		Port:            utils.GetEnv("DB_PORT", "5432"),
		User:            utils.GetEnv("DB_USER", "postgres"),
		Password:        utils.GetEnv("DB_PASSWORD", "postgres"),
		Name:            utils.GetEnv("DB_NAME", "empires"),
		SSLMode:         utils.GetEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: time.Duration(connMaxLifetime) * time.Minute,
		MigrationsPath:  utils.GetEnv("DB_MIGRATIONS_PATH", "migrations"),
	}
}

func loadAuthConfig() AuthConfig {
	tokenExpiration, _ := strconv.Atoi(utils.GetEnv("JWT_EXPIRATION_HOURS", "24"))

	return AuthConfig{
		JWTSecret:       utils.GetEnv("JWT_SECRET", ""),
		TokenExpiration: time.Duration(tokenExpiration) * time.Hour,
	}
}

func loadFrontendConfig() FrontendConfig {
	return FrontendConfig{
		URL:       utils.GetEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSDebug: utils.GetEnv("CORS_DEBUG", "") == "true",
	}
}

func loadLoggingConfig() LoggingConfig {
	environment := utils.GetEnv("ENVIRONMENT", "development")
	jsonFormat := environment == "production"

	return LoggingConfig{
		Level:      utils.GetEnv("LOG_LEVEL", "debug"),
		Format:     utils.GetEnv("LOG_FORMAT", "text"),
		JSONFormat: jsonFormat,
	}
}

func loadRateLimitConfig() RateLimitConfig {
	enabled := utils.GetEnv("RATE_LIMIT_ENABLED", "true") == "true"
	requestsPerSecond, _ := strconv.ParseFloat(utils.GetEnv("RATE_LIMIT_REQUESTS_PER_SECOND", "10"), 64)
	burstSize, _ := strconv.Atoi(utils.GetEnv("RATE_LIMIT_BURST_SIZE", "20"))

	return RateLimitConfig{
		Enabled:           enabled,
		RequestsPerSecond: requestsPerSecond,
		BurstSize:         burstSize,
		TrustProxy:        utils.GetEnv("RATE_LIMIT_TRUST_PROXY", "false") == "true",
	}
}

func loadEmpireConfig() (EmpireConfig, error) {
	capacity, err := strconv.Atoi(utils.GetEnv("EMPIRE_INBOX_CAPACITY", "128"))
	if err != nil {
		return EmpireConfig{}, fmt.Errorf("EMPIRE_INBOX_CAPACITY: %w", err)
	}
	timeoutMS, err := strconv.Atoi(utils.GetEnv("EMPIRE_SUBMIT_TIMEOUT_MS", "0"))
	if err != nil {
		return EmpireConfig{}, fmt.Errorf("EMPIRE_SUBMIT_TIMEOUT_MS: %w", err)
	}
	submitRate, err := strconv.ParseFloat(utils.GetEnv("EMPIRE_SUBMIT_RATE", "0"), 64)
	if err != nil {
		return EmpireConfig{}, fmt.Errorf("EMPIRE_SUBMIT_RATE: %w", err)
	}
	submitBurst, _ := strconv.Atoi(utils.GetEnv("EMPIRE_SUBMIT_BURST", "32"))
	seed, err := strconv.ParseUint(utils.GetEnv("EMPIRE_SEED", "0"), 10, 64)
	if err != nil {
		return EmpireConfig{}, fmt.Errorf("EMPIRE_SEED: %w", err)
	}

	var names []string
	for _, name := range strings.Split(utils.GetEnv("EMPIRE_NAMES", "Terran Federation,Centauri Hegemony"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	return EmpireConfig{
		Names:         names,
		InboxCapacity: capacity,
		SubmitTimeout: time.Duration(timeoutMS) * time.Millisecond,
		SubmitRate:    submitRate,
		SubmitBurst:   submitBurst,
		Seed:          seed,
	}, nil
}

func loadSimulationConfig() SimulationConfig {
	tickMS, _ := strconv.Atoi(utils.GetEnv("SIM_TICK_MS", "1000"))
	snapshotEvery, _ := strconv.Atoi(utils.GetEnv("SIM_SNAPSHOT_EVERY", "60"))
	snapshotKeep, _ := strconv.Atoi(utils.GetEnv("SIM_SNAPSHOT_KEEP", "10"))

	return SimulationConfig{
		TickInterval:  time.Duration(tickMS) * time.Millisecond,
		SnapshotEvery: snapshotEvery,
		SnapshotKeep:  snapshotKeep,
	}
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Enabled && c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required when DB_ENABLED=true")
	}

	if c.Empire.InboxCapacity < 1 {
		return fmt.Errorf("EMPIRE_INBOX_CAPACITY must be at least 1")
	}

	if c.Empire.SubmitTimeout < 0 {
		return fmt.Errorf("EMPIRE_SUBMIT_TIMEOUT_MS must not be negative")
	}

	if c.Empire.SubmitRate < 0 {
		return fmt.Errorf("EMPIRE_SUBMIT_RATE must not be negative")
	}

	if len(c.Empire.Names) == 0 {
		return fmt.Errorf("EMPIRE_NAMES must name at least one empire")
	}

	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("SIM_TICK_MS must be positive")
	}

	if c.Database.Enabled && c.Simulation.SnapshotKeep < 1 {
		return fmt.Errorf("SIM_SNAPSHOT_KEEP must be at least 1 when DB_ENABLED=true")
	}

	return nil
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
