package services

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/openmrp/replan/pkg/domain/entities"
)

const daysPerYear = 365.0

// MRPParameters bundles the classic MRP sizing quantities for one run.
type MRPParameters struct {
	EOQ            float64
	SafetyStock    float64
	ReorderPoint   float64
	LeadTimeDemand float64
	ZScore         float64
}

// MRPParameterCalculator derives EOQ, safety stock and reorder point from a
// demand analysis and the run's cost parameters.
type MRPParameterCalculator struct{}

// NewMRPParameterCalculator creates a parameter calculator.
func NewMRPParameterCalculator() *MRPParameterCalculator {
	return &MRPParameterCalculator{}
}

// Compute derives the MRP parameters for a run. Degenerate statistics (zero
// demand, zero horizon, non-positive costs) fall back to the minimum batch size
// and zero buffers rather than erroring.
func (c *MRPParameterCalculator) Compute(
	analysis entities.DemandAnalysis,
	ctx entities.PlanningContext,
) MRPParameters {
	params := MRPParameters{
		ZScore:         zScore(ctx.Params.ServiceLevel),
		LeadTimeDemand: analysis.DailyMean * float64(ctx.LeadTimeDays),
	}

	params.EOQ = c.computeEOQ(analysis, ctx)
	params.SafetyStock = c.computeSafetyStock(analysis, ctx, params.ZScore)
	params.ReorderPoint = params.LeadTimeDemand + params.SafetyStock

	return params
}

// computeEOQ applies the square-root formula with demand annualized over the
// observation window, then nudges the result by variability, regularity and
// lead-time factors, each centered at 1.0 and bounded.
func (c *MRPParameterCalculator) computeEOQ(
	analysis entities.DemandAnalysis,
	ctx entities.PlanningContext,
) float64 {
	min := ctx.Params.MinBatchSize

	if analysis.TotalDemand <= 0 || analysis.HorizonDays <= 0 {
		return min
	}
	holdingPerUnit := ctx.UnitCost.Mul(ctx.Params.HoldingCostRate)
	if !ctx.Params.SetupCost.IsPositive() || !holdingPerUnit.IsPositive() {
		return min
	}

	annualDemand := analysis.TotalDemand * daysPerYear / float64(analysis.HorizonDays)
	setup, _ := ctx.Params.SetupCost.Float64()
	holding, _ := holdingPerUnit.Float64()

	eoq := math.Sqrt(2 * annualDemand * setup / holding)

	if ctx.Params.EnableEOQOptimization {
		bound := ctx.Params.Tuning.EOQAdjustmentBound

		// High variability favors smaller, more frequent batches.
		variability := clamp(1.0-bound*math.Min(analysis.CV, 1.0), 1.0-bound, 1.0+bound)
		// Irregular spacing shrinks the batch; perfectly regular demand keeps it.
		regularity := clamp(1.0-bound*(1.0-analysis.RegularityScore), 1.0-bound, 1.0+bound)
		// Long lead times buy larger buffer batches.
		leadTime := clamp(1.0+bound*math.Min(float64(ctx.LeadTimeDays)/90.0, 1.0), 1.0-bound, 1.0+bound)

		eoq *= variability * regularity * leadTime
	}

	if ctx.Params.MaxBatchSize > 0 {
		eoq = math.Min(eoq, ctx.Params.MaxBatchSize)
	}
	return math.Max(eoq, min)
}

// computeSafetyStock evaluates both the standard formula (std over lead time)
// and the irregular-interval variant (lead time normalized by mean inter-event
// interval), picking the more conservative when variability is high. The result
// is capped to avoid pathological blow-up and forced to zero under the
// ignore-safety-stock policy.
func (c *MRPParameterCalculator) computeSafetyStock(
	analysis entities.DemandAnalysis,
	ctx entities.PlanningContext,
	z float64,
) float64 {
	if ctx.IgnoreSafetyStock {
		return 0
	}
	if ctx.LeadTimeDays <= 0 || analysis.StdDemand <= 0 {
		return 0
	}

	standard := z * analysis.StdDemand * math.Sqrt(float64(ctx.LeadTimeDays))

	irregular := standard
	if analysis.MeanIntervalDays > 0 {
		effectiveLeadTime := float64(ctx.LeadTimeDays) / analysis.MeanIntervalDays
		irregular = z * analysis.StdDemand * math.Sqrt(effectiveLeadTime)
	}

	ss := standard
	if analysis.HighVariability() {
		ss = math.Max(standard, irregular)
	}

	cap := ctx.Params.Tuning.SafetyStockCapFraction * analysis.DailyMean * float64(ctx.LeadTimeDays)
	if cap > 0 {
		ss = math.Min(ss, cap)
	}
	return math.Max(ss, 0)
}

// zScore is the inverse standard normal CDF at the service level, clamped away
// from the distribution tails.
func zScore(serviceLevel float64) float64 {
	p := clamp(serviceLevel, 0.5, 0.9999)
	return math.Sqrt2 * math.Erfinv(2*p-1)
}

// EstimatedHoldingCost prices carrying qty units for days at the run's rates.
func EstimatedHoldingCost(ctx entities.PlanningContext, qty float64, days int) decimal.Decimal {
	if qty <= 0 || days <= 0 {
		return decimal.Zero
	}
	dailyRate := ctx.UnitCost.Mul(ctx.Params.HoldingCostRate).Div(decimal.NewFromInt(int64(daysPerYear)))
	return dailyRate.Mul(decimal.NewFromFloat(qty)).Mul(decimal.NewFromInt(int64(days)))
}
