// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	Pipeline   PipelineConfig          `mapstructure:"pipeline"`
	Classifier ClassifierConfig        `mapstructure:"classifier"`
	Assessment AssessmentConfig        `mapstructure:"assessment"`
	Server     ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// PipelineConfig drives the offline clean and train jobs.
type PipelineConfig struct {
	RawDataPath      string  `mapstructure:"raw_data_path"`
	CleanedDataPath  string  `mapstructure:"cleaned_data_path"`
	ModelPath        string  `mapstructure:"model_path"`
	ChunkSize        int     `mapstructure:"chunk_size"`
	IncomeUnitFactor float64 `mapstructure:"income_unit_factor"` // local currency per raw income unit per year
	ExpenseRatio     float64 `mapstructure:"expense_ratio"`
	Trees            int     `mapstructure:"trees"`
	MaxDepth         int     `mapstructure:"max_depth"` // 0 grows trees until leaves are pure
	Seed             uint64  `mapstructure:"seed"`
	TestFraction     float64 `mapstructure:"test_fraction"`
}

// ClassifierConfig selects the inference implementation.
type ClassifierConfig struct {
	Mode      string `mapstructure:"mode"` // model or stub
	ModelPath string `mapstructure:"model_path"`
}

// AssessmentConfig toggles the optional cache and history stores.
type AssessmentConfig struct {
	CacheEnabled   bool `mapstructure:"cache_enabled"`
	CacheTTL       int  `mapstructure:"cache_ttl"` // seconds
	HistoryEnabled bool `mapstructure:"history_enabled"`
	StoreTimeoutMS int  `mapstructure:"store_timeout"` // milliseconds
}

// ServerConfig holds the health/metrics listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}
