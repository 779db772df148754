package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.95, cfg.Planning.ServiceLevel)
	assert.Equal(t, 2, cfg.Planning.SafetyDays)
	assert.Equal(t, 7, cfg.Planning.ConsolidationWindowDays)
	assert.Equal(t, 3, cfg.Planning.MaxBatchesLongLeadtime)
	assert.Equal(t, 10000.0, cfg.Planning.ABCThresholdA)
	assert.Equal(t, 2000.0, cfg.Planning.ABCThresholdB)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	viper.Reset()
	t.Setenv("REPLAN_SERVER_PORT", "9090")
	t.Setenv("REPLAN_LOG_LEVEL", "debug")
	t.Setenv("REPLAN_PLANNING_SAFETY_DAYS", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Planning.SafetyDays)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	viper.Reset()
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Server.Port = 8080
	cfg.Planning.ServiceLevel = 1.5
	assert.Error(t, cfg.Validate())

	cfg.Planning.ServiceLevel = 0.95
	cfg.Planning.ABCThresholdA = 100
	cfg.Planning.ABCThresholdB = 500
	assert.Error(t, cfg.Validate())
}

func TestParams_AppliesConfiguredPolicy(t *testing.T) {
	viper.Reset()
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Planning.SetupCost = 250
	cfg.Planning.MaxBatchesLongLeadtime = 5

	params := cfg.Params()
	assert.Equal(t, "250", params.SetupCost.String())
	assert.Equal(t, 5, params.MaxBatchesLongLeadtime)
	// Fields without a config knob keep the shipped defaults.
	assert.True(t, params.EnableConsolidation)
	assert.Equal(t, 1.2, params.Tuning.CorrectionMultiplier)
}

func TestAnalyzerConfig_AppliesThresholds(t *testing.T) {
	viper.Reset()
	t.Setenv("REPLAN_PLANNING_ABC_THRESHOLD_A", "50000")

	cfg, err := Load()
	require.NoError(t, err)

	analyzer := cfg.AnalyzerConfig()
	assert.Equal(t, 50000.0, analyzer.ABCThresholdA)
	assert.Equal(t, 2000.0, analyzer.ABCThresholdB)
	// Non-classification knobs keep the shipped defaults.
	assert.Equal(t, 0.3, analyzer.XYZThresholdX)
}
