package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// GapCompensationTier scales long-lead-time batch sizes when gap-consumption
// simulation predicts a stock drain. Tiers are matched by minimum lead time.
type GapCompensationTier struct {
	MinLeadTimeDays int
	Multiplier      float64
}

// HeuristicTuning exposes every numeric heuristic the planning passes rely on as
// an overridable policy parameter. Defaults reproduce the engine's shipped
// behavior; deployments are expected to validate them against their own demand.
type HeuristicTuning struct {
	// CorrectionMultiplier inflates the deficit added during early-stockout
	// correction so the fix carries a margin.
	CorrectionMultiplier float64
	// EmergencyFactor sizes the final top-up applied when a stockout survives
	// the first correction pass.
	EmergencyFactor float64
	// EOQAdjustmentBound limits each EOQ adjustment factor to 1.0 ± bound.
	EOQAdjustmentBound float64
	// SafetyStockCapFraction caps safety stock at this fraction of
	// mean daily demand × lead time.
	SafetyStockCapFraction float64
	// NextDemandBufferFraction is the share of the next demand proactively
	// covered by zero/short-lead-time batches.
	NextDemandBufferFraction float64
	// EnlargementBaseMultiplier bounds how far an in-transit batch may grow
	// relative to its original quantity; the bound rises with MaxGapDays.
	EnlargementBaseMultiplier float64
	// EnlargementGapDivisor converts MaxGapDays into extra enlargement headroom
	// (multiplier += max_gap_days / divisor).
	EnlargementGapDivisor float64
	// ShortGapGroupingDays is the gap under which consolidation always proceeds.
	ShortGapGroupingDays int
	// OverlapBonusFraction, ProximityBonusFraction and ScaleBonusFraction weight
	// the operational bonus terms of the consolidation net-benefit test, as
	// fractions of setup cost.
	OverlapBonusFraction   float64
	ProximityBonusFraction float64
	ScaleBonusFraction     float64
	// LowSetupCostThreshold marks setup costs cheap enough that aggressive
	// grouping is default-beneficial.
	LowSetupCostThreshold decimal.Decimal
	// GapCompensationTiers escalate long-lead-time inflation with lead time.
	GapCompensationTiers []GapCompensationTier
	// ExtremeLeadTimeDays is the lead time past which the long strategy allows
	// one extra batch.
	ExtremeLeadTimeDays int
}

// DefaultHeuristicTuning returns the shipped heuristic constants.
func DefaultHeuristicTuning() HeuristicTuning {
	return HeuristicTuning{
		CorrectionMultiplier:      1.2,
		EmergencyFactor:           1.5,
		EOQAdjustmentBound:        0.3,
		SafetyStockCapFraction:    0.5,
		NextDemandBufferFraction:  0.3,
		EnlargementBaseMultiplier: 1.5,
		EnlargementGapDivisor:     30,
		ShortGapGroupingDays:      7,
		OverlapBonusFraction:      0.5,
		ProximityBonusFraction:    0.25,
		ScaleBonusFraction:        0.25,
		LowSetupCostThreshold:     decimal.NewFromInt(1),
		GapCompensationTiers: []GapCompensationTier{
			{MinLeadTimeDays: 75, Multiplier: 1.5},
			{MinLeadTimeDays: 60, Multiplier: 1.3},
			{MinLeadTimeDays: 45, Multiplier: 1.15},
		},
		ExtremeLeadTimeDays: 75,
	}
}

// GapCompensationFor returns the inflation multiplier for a lead time, 1.0 when
// no tier matches.
func (t HeuristicTuning) GapCompensationFor(leadTimeDays int) float64 {
	for _, tier := range t.GapCompensationTiers {
		if leadTimeDays >= tier.MinLeadTimeDays {
			return tier.Multiplier
		}
	}
	return 1.0
}

// OptimizationParams is the externally supplied planning policy, immutable per run.
type OptimizationParams struct {
	SetupCost               decimal.Decimal
	HoldingCostRate         decimal.Decimal // annual fraction of unit cost
	ServiceLevel            float64         // target cycle service level in (0,1)
	MinBatchSize            float64
	MaxBatchSize            float64
	SafetyDays              int
	ConsolidationWindowDays int
	EnableConsolidation     bool
	EnableEOQOptimization   bool
	MaxBatchMultiplier      float64
	MaxBatchesLongLeadtime  int
	Tuning                  HeuristicTuning
}

// DefaultOptimizationParams returns the baseline planning policy.
func DefaultOptimizationParams() OptimizationParams {
	return OptimizationParams{
		SetupCost:               decimal.NewFromInt(100),
		HoldingCostRate:         decimal.NewFromFloat(0.2),
		ServiceLevel:            0.95,
		MinBatchSize:            0,
		MaxBatchSize:            1_000_000,
		SafetyDays:              2,
		ConsolidationWindowDays: 7,
		EnableConsolidation:     true,
		EnableEOQOptimization:   true,
		MaxBatchMultiplier:      3.0,
		MaxBatchesLongLeadtime:  3,
		Tuning:                  DefaultHeuristicTuning(),
	}
}

// Validate checks the policy's structural invariants.
func (p OptimizationParams) Validate() error {
	if p.MinBatchSize < 0 {
		return NewValidationError("min_batch_size", "must be non-negative")
	}
	if p.MaxBatchSize > 0 && p.MinBatchSize > p.MaxBatchSize {
		return NewValidationError("min_batch_size",
			fmt.Sprintf("min %.3f exceeds max %.3f", p.MinBatchSize, p.MaxBatchSize))
	}
	if p.ServiceLevel <= 0 || p.ServiceLevel >= 1 {
		return NewValidationError("service_level", "must be in (0,1)")
	}
	if p.SetupCost.IsNegative() {
		return NewValidationError("setup_cost", "must be non-negative")
	}
	if p.HoldingCostRate.IsNegative() {
		return NewValidationError("holding_cost_rate", "must be non-negative")
	}
	if p.ConsolidationWindowDays < 0 {
		return NewValidationError("consolidation_window_days", "must be non-negative")
	}
	if p.MaxBatchesLongLeadtime < 1 {
		return NewValidationError("max_batches_long_leadtime", "must be at least 1")
	}
	return nil
}
