package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Auth      AuthConfig      `json:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Log       LogConfig       `json:"log"`
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	Environment     string        `json:"environment"`
	DetailPageDelay time.Duration `json:"detail_page_delay"`
	CORSOrigins     []string      `json:"cors_origins"`
}

type DatabaseConfig struct {
	Driver          string        `json:"driver"`
	Host            string        `json:"host"`
	Port            string        `json:"port"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	Name            string        `json:"name"`
	SSLMode         string        `json:"ssl_mode"`
	Path            string        `json:"path"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
}

type RedisConfig struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host"`
	Port         string        `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
	MaxRetries   int           `json:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IssueTTL     time.Duration `json:"issue_ttl"`
}

type AuthConfig struct {
	JWTSecret    string        `json:"jwt_secret"`
	SessionTTL   time.Duration `json:"session_ttl"`
	BCryptCost   int           `json:"bcrypt_cost"`
	CookieSecure bool          `json:"cookie_secure"`
}

type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	RequestsPerMin  int           `json:"requests_per_minute"`
	BurstSize       int           `json:"burst_size"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// LoadConfig reads settings from the environment, a .env file and an
// optional config file (CONFIG_FILE, or ./config.yaml). Environment wins.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		_ = v.ReadInConfig()
	}

	env := source{v: v}
	config := &Config{
		Server: ServerConfig{
			Host:            env.getString("HOST", "localhost"),
			Port:            env.getString("PORT", "8080"),
			ReadTimeout:     env.getDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    env.getDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     env.getDuration("IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: env.getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			Environment:     env.getString("ENVIRONMENT", "development"),
			DetailPageDelay: env.getDuration("DETAIL_PAGE_DELAY", 0),
			CORSOrigins:     env.getList("CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(env.getString("DB_DRIVER", "sqlite")),
			Host:            env.getString("DB_HOST", "localhost"),
			Port:            env.getString("DB_PORT", "5432"),
			User:            env.getString("DB_USER", "postgres"),
			Password:        env.getString("DB_PASSWORD", ""),
			Name:            env.getString("DB_NAME", "issue_tracker"),
			SSLMode:         env.getString("DB_SSL_MODE", "disable"),
			Path:            env.getString("DB_PATH", "issue-tracker.db"),
			MaxOpenConns:    env.getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.getInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: env.getDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: env.getDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:      env.getBool("REDIS_ENABLED", false),
			Host:         env.getString("REDIS_HOST", "localhost"),
			Port:         env.getString("REDIS_PORT", "6379"),
			Password:     env.getString("REDIS_PASSWORD", ""),
			DB:           env.getInt("REDIS_DB", 0),
			PoolSize:     env.getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: env.getInt("REDIS_MIN_IDLE_CONNS", 5),
			MaxRetries:   env.getInt("REDIS_MAX_RETRIES", 3),
			DialTimeout:  env.getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  env.getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: env.getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			IssueTTL:     env.getDuration("REDIS_ISSUE_TTL", 10*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:    env.getString("JWT_SECRET", defaultJWTSecret),
			SessionTTL:   env.getDuration("SESSION_TTL", 24*time.Hour),
			BCryptCost:   env.getInt("BCRYPT_COST", 10),
			CookieSecure: env.getBool("COOKIE_SECURE", false),
		},
		RateLimit: RateLimitConfig{
			Enabled:         env.getBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin:  env.getInt("RATE_LIMIT_RPM", 100),
			BurstSize:       env.getInt("RATE_LIMIT_BURST", 10),
			CleanupInterval: env.getDuration("RATE_LIMIT_CLEANUP", 10*time.Minute),
		},
		Log: LogConfig{
			Level:  strings.ToLower(env.getString("LOG_LEVEL", "info")),
			Format: strings.ToLower(env.getString("LOG_FORMAT", "text")),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Database.Driver == "postgres" && c.Database.Password == "" && c.IsProduction() {
		return fmt.Errorf("database password is required in production")
	}

	if c.Auth.JWTSecret == defaultJWTSecret && c.IsProduction() {
		return fmt.Errorf("JWT secret must be set in production")
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.Path
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

type source struct {
	v *viper.Viper
}

func (s source) getString(key, defaultValue string) string {
	if value := s.v.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func (s source) getInt(key string, defaultValue int) int {
	if value := s.v.GetString(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (s source) getBool(key string, defaultValue bool) bool {
	if value := s.v.GetString(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func (s source) getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := s.v.GetString(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getList splits a comma separated value, dropping blanks.
func (s source) getList(key string, defaultValue []string) []string {
	var values []string
	for _, part := range strings.Split(s.v.GetString(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
