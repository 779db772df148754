package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/openmrp/replan/pkg/domain/entities"
	"github.com/openmrp/replan/pkg/domain/services"
)

// Config is the process-level configuration for the planning server and CLI.
// Values come from configs/config.yaml when present, overridden by REPLAN_*
// environment variables (REPLAN_SERVER_PORT, REPLAN_LOG_LEVEL, ...).
type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	Planning    PlanningConfig `mapstructure:"planning"`
}

type ServerConfig struct {
	Port                   int `mapstructure:"port"`
	ReadTimeoutSeconds     int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds    int `mapstructure:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// PlanningConfig overrides the engine's default policy for requests that do
// not set their own. Zero values keep the shipped defaults.
type PlanningConfig struct {
	SetupCost               float64 `mapstructure:"setup_cost"`
	HoldingCostRate         float64 `mapstructure:"holding_cost_rate"`
	ServiceLevel            float64 `mapstructure:"service_level"`
	SafetyDays              int     `mapstructure:"safety_days"`
	ConsolidationWindowDays int     `mapstructure:"consolidation_window_days"`
	MaxBatchMultiplier      float64 `mapstructure:"max_batch_multiplier"`
	MaxBatchesLongLeadtime  int     `mapstructure:"max_batches_long_leadtime"`
	ABCThresholdA           float64 `mapstructure:"abc_threshold_a"`
	ABCThresholdB           float64 `mapstructure:"abc_threshold_b"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvPrefix("REPLAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing file is fine: defaults plus environment take over.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout_seconds", 15)
	viper.SetDefault("server.write_timeout_seconds", 30)
	viper.SetDefault("server.shutdown_timeout_seconds", 10)

	defaults := entities.DefaultOptimizationParams()
	viper.SetDefault("planning.setup_cost", defaults.SetupCost.InexactFloat64())
	viper.SetDefault("planning.holding_cost_rate", defaults.HoldingCostRate.InexactFloat64())
	viper.SetDefault("planning.service_level", defaults.ServiceLevel)
	viper.SetDefault("planning.safety_days", defaults.SafetyDays)
	viper.SetDefault("planning.consolidation_window_days", defaults.ConsolidationWindowDays)
	viper.SetDefault("planning.max_batch_multiplier", defaults.MaxBatchMultiplier)
	viper.SetDefault("planning.max_batches_long_leadtime", defaults.MaxBatchesLongLeadtime)

	analyzer := services.DefaultAnalyzerConfig()
	viper.SetDefault("planning.abc_threshold_a", analyzer.ABCThresholdA)
	viper.SetDefault("planning.abc_threshold_b", analyzer.ABCThresholdB)
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Planning.ServiceLevel <= 0 || c.Planning.ServiceLevel >= 1 {
		return fmt.Errorf("service level %.3f must be in (0,1)", c.Planning.ServiceLevel)
	}
	if c.Planning.MaxBatchesLongLeadtime < 1 {
		return fmt.Errorf("max batches for long lead times must be at least 1, got %d",
			c.Planning.MaxBatchesLongLeadtime)
	}
	if c.Planning.ABCThresholdA <= c.Planning.ABCThresholdB {
		return fmt.Errorf("abc threshold A %.3f must exceed threshold B %.3f",
			c.Planning.ABCThresholdA, c.Planning.ABCThresholdB)
	}
	return nil
}

// Params converts the configured planning policy into engine parameters,
// starting from the shipped defaults.
func (c *Config) Params() entities.OptimizationParams {
	params := entities.DefaultOptimizationParams()
	params.SetupCost = decimal.NewFromFloat(c.Planning.SetupCost)
	params.HoldingCostRate = decimal.NewFromFloat(c.Planning.HoldingCostRate)
	params.ServiceLevel = c.Planning.ServiceLevel
	params.SafetyDays = c.Planning.SafetyDays
	params.ConsolidationWindowDays = c.Planning.ConsolidationWindowDays
	params.MaxBatchMultiplier = c.Planning.MaxBatchMultiplier
	params.MaxBatchesLongLeadtime = c.Planning.MaxBatchesLongLeadtime
	return params
}

// AnalyzerConfig converts the configured classification thresholds into the
// demand analyzer's configuration.
func (c *Config) AnalyzerConfig() services.AnalyzerConfig {
	cfg := services.DefaultAnalyzerConfig()
	cfg.ABCThresholdA = c.Planning.ABCThresholdA
	cfg.ABCThresholdB = c.Planning.ABCThresholdB
	return cfg
}
