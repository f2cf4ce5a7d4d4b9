// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml (plus config.<env>.yaml) from the usual
// locations, merges environment overrides and applies defaults.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// PIPELINE_CHUNK_SIZE overrides pipeline.chunk_size, and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up towards the module root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// setDefaults registers every key so AutomaticEnv can override it even when
// the YAML file omits it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mortgage-readiness")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("camunda.plaintext", true)
	v.SetDefault("camunda.max_jobs_active", 10)
	v.SetDefault("camunda.timeout", 30000)
	v.SetDefault("camunda.request_timeout", 30000)

	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.max_connections", 25)
	v.SetDefault("database.postgres.max_idle", 5)
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("pipeline.raw_data_path", "data/2023_public_lar_csv.csv")
	v.SetDefault("pipeline.cleaned_data_path", "data/cleaned_hmda_data.csv")
	v.SetDefault("pipeline.model_path", "models/model.json")
	v.SetDefault("pipeline.chunk_size", 100000)
	v.SetDefault("pipeline.income_unit_factor", 4000.0)
	v.SetDefault("pipeline.expense_ratio", 0.3)
	v.SetDefault("pipeline.trees", 100)
	v.SetDefault("pipeline.max_depth", 0)
	v.SetDefault("pipeline.seed", 42)
	v.SetDefault("pipeline.test_fraction", 0.2)

	v.SetDefault("classifier.mode", ClassifierModeModel)
	v.SetDefault("classifier.model_path", "")

	v.SetDefault("assessment.cache_enabled", false)
	v.SetDefault("assessment.cache_ttl", 900)
	v.SetDefault("assessment.history_enabled", false)
	v.SetDefault("assessment.store_timeout", 2000)

	v.SetDefault("server.addr", ":8080")
}

const (
	ClassifierModeModel = "model"
	ClassifierModeStub  = "stub"
)

// applyDefaults fills values that depend on other fields.
func applyDefaults(cfg *Config) {
	if cfg.Classifier.ModelPath == "" {
		cfg.Classifier.ModelPath = cfg.Pipeline.ModelPath
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = cfg.Camunda.MaxJobsActive
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates settings every binary relies on.
func validateConfig(cfg *Config) error {
	p := cfg.Pipeline
	if p.ChunkSize <= 0 {
		return fmt.Errorf("pipeline.chunk_size must be positive, got %d", p.ChunkSize)
	}
	if p.IncomeUnitFactor <= 0 {
		return fmt.Errorf("pipeline.income_unit_factor must be positive, got %v", p.IncomeUnitFactor)
	}
	if p.ExpenseRatio < 0 {
		return fmt.Errorf("pipeline.expense_ratio must not be negative, got %v", p.ExpenseRatio)
	}
	if p.Trees <= 0 {
		return fmt.Errorf("pipeline.trees must be positive, got %d", p.Trees)
	}
	if p.TestFraction <= 0 || p.TestFraction >= 1 {
		return fmt.Errorf("pipeline.test_fraction must be in (0,1), got %v", p.TestFraction)
	}

	switch cfg.Classifier.Mode {
	case ClassifierModeModel, ClassifierModeStub:
	default:
		return fmt.Errorf("classifier.mode must be %q or %q, got %q", ClassifierModeModel, ClassifierModeStub, cfg.Classifier.Mode)
	}
	return nil
}

// ValidateWorkerManager checks the settings only the worker manager needs.
func ValidateWorkerManager(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Assessment.HistoryEnabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required when assessment.history_enabled")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required when assessment.history_enabled")
		}
	}
	if cfg.Assessment.CacheEnabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when assessment.cache_enabled")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
