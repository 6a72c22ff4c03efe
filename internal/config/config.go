package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AnalysisConfig holds the run parameters for the segmentation pipeline
type AnalysisConfig struct {
	// AsOf is the reference date (RFC 3339); empty means "now"
	AsOf string `mapstructure:"as_of"`
	// LookbackDays bounds the transaction window (default 730)
	LookbackDays int `mapstructure:"lookback_days"`
	// CohortGranularity is "month" or "quarter"
	CohortGranularity string `mapstructure:"cohort_granularity"`
	// HorizonYears is the LTV projection horizon
	HorizonYears float64 `mapstructure:"horizon_years"`
	// WorkerPoolSize bounds per-customer concurrency
	WorkerPoolSize int `mapstructure:"worker_pool_size"`
}

// RunParams converts the analysis section into engine run parameters
func (c *AnalysisConfig) RunParams() (domain.RunParams, error) {
	params := domain.RunParams{
		LookbackDays: c.LookbackDays,
		Granularity:  domain.CohortGranularity(c.CohortGranularity),
		HorizonYears: c.HorizonYears,
	}
	if c.AsOf != "" {
		asOf, err := time.Parse(time.RFC3339, c.AsOf)
		if err != nil {
			return domain.RunParams{}, fmt.Errorf("invalid as_of date %q: %w", c.AsOf, err)
		}
		params.AsOf = asOf.UTC()
	}
	return params, nil
}

// InputConfig holds the data source configuration for the runner
type InputConfig struct {
	// Source is "csv" or "postgres"
	Source string `mapstructure:"source"`
	// TransactionsCSV and CustomersCSV are the input paths for the csv source
	TransactionsCSV string `mapstructure:"transactions_csv"`
	CustomersCSV    string `mapstructure:"customers_csv"`
}

// ExportConfig holds CSV export configuration
type ExportConfig struct {
	// Dir is the output directory; empty disables export
	Dir string `mapstructure:"dir"`
}

// RunnerConfig holds configuration for the segmentation-run binary
type RunnerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Analysis   AnalysisConfig `mapstructure:"analysis"`
	Input      InputConfig    `mapstructure:"input"`
	Export     ExportConfig   `mapstructure:"export"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
}

// LoadRunnerConfig loads configuration for segmentation-run
func LoadRunnerConfig(configFile string, envPath string) (*RunnerConfig, error) {
	v := configureViper("segmentation-run", configFile, envPath)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "SEGMENTATION_RUNS")
	v.SetDefault("analysis.lookback_days", domain.DefaultLookbackDays)
	v.SetDefault("analysis.cohort_granularity", "month")
	v.SetDefault("analysis.horizon_years", 1.0)
	v.SetDefault("analysis.worker_pool_size", 8)
	v.SetDefault("input.source", "csv")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config RunnerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.idle_timeout", 60)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// configureViper sets up viper with config file search paths and env bindings
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("SEG_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// This is required for viper to map env vars to config struct fields when no
// config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Analysis
		"analysis.as_of",
		"analysis.lookback_days",
		"analysis.cohort_granularity",
		"analysis.horizon_years",
		"analysis.worker_pool_size",
		// Input / export
		"input.source",
		"input.transactions_csv",
		"input.customers_csv",
		"export.dir",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}
