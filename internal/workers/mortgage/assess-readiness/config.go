// internal/workers/mortgage/assess-readiness/config.go
package assessreadiness

import (
	"fmt"
	"time"

	"mortgage-readiness/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 10,
		Timeout:       10 * time.Second,
	}
}

// ConfigFrom reads the worker section registered under TaskType.
func ConfigFrom(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	c.Enabled = wcfg.Enabled
	if wcfg.MaxJobsActive > 0 {
		c.MaxJobsActive = wcfg.MaxJobsActive
	}
	if wcfg.Timeout > 0 {
		c.Timeout = config.GetDuration(wcfg.Timeout)
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}
