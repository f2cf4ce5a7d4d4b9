// cmd/pipeline/root.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mortgage-readiness/internal/common/config"
	"mortgage-readiness/internal/common/logger"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	zapLog *zap.Logger
	log    logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Mortgage readiness data pipeline",
	Long: `Cleans raw lending records, trains the readiness classifier and
scores applicants against a trained model artifact.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if zapLog != nil {
			_ = zapLog.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config YAML file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")
}

// setup loads configuration and builds the logger before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	zapLog, err = logger.NewWithOptions(logger.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log = logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"command": cmd.Name(),
	})
	return nil
}
