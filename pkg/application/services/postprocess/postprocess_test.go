package postprocess

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmrp/replan/pkg/domain/entities"
	"github.com/openmrp/replan/pkg/domain/services"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := entities.ParseDay(s)
	require.NoError(t, err)
	return d
}

func mustSchedule(t *testing.T, demands map[string]float64) entities.DemandSchedule {
	t.Helper()
	s, err := entities.NewDemandSchedule(demands)
	require.NoError(t, err)
	return s
}

func mustBatch(t *testing.T, order, arrival string, qty float64) entities.Batch {
	t.Helper()
	b, err := entities.NewBatch(mustDay(t, order), mustDay(t, arrival), qty, entities.StandardBatch)
	require.NoError(t, err)
	b.Analytics.Strategy = "short_leadtime"
	b.Analytics.TargetDemandDate = mustDay(t, arrival)
	return b
}

func testCtx(t *testing.T, initialStock float64, leadTimeDays int) entities.PlanningContext {
	t.Helper()
	window, err := entities.NewDateWindow(mustDay(t, "2024-01-01"), mustDay(t, "2024-06-30"))
	require.NoError(t, err)
	ctx, err := entities.NewPlanningContext(initialStock, leadTimeDays, window, window,
		entities.DefaultOptimizationParams())
	require.NoError(t, err)
	ctx.UnitCost = decimal.NewFromInt(10)
	return ctx
}

func TestMerge_AdjacentOrdersWithinWindow(t *testing.T) {
	ctx := testCtx(t, 0, 7)
	batches := []entities.Batch{
		mustBatch(t, "2024-01-08", "2024-01-15", 500),
		mustBatch(t, "2024-01-11", "2024-01-18", 300),
		mustBatch(t, "2024-02-20", "2024-02-27", 400),
	}

	merged := MergeConsolidationWindow(batches, ctx)

	require.Len(t, merged, 2)
	assert.InDelta(t, 800, merged[0].Quantity, 1e-9)
	assert.Equal(t, mustDay(t, "2024-01-08"), merged[0].OrderDate)
	assert.Contains(t, merged[0].Analytics.Extra, "consolidation_savings")
	assert.InDelta(t, 400, merged[1].Quantity, 1e-9)
}

func TestMerge_NeverIncreasesBatchCount(t *testing.T) {
	ctx := testCtx(t, 0, 7)
	batches := []entities.Batch{
		mustBatch(t, "2024-01-08", "2024-01-15", 500),
		mustBatch(t, "2024-02-20", "2024-02-27", 400),
	}

	assert.LessOrEqual(t, len(MergeConsolidationWindow(batches, ctx)), len(batches))

	disabled := testCtx(t, 0, 7)
	disabled.Params.EnableConsolidation = false
	assert.Len(t, MergeConsolidationWindow(batches, disabled), 2)
}

func TestMerge_SkipsEmergencyBatches(t *testing.T) {
	ctx := testCtx(t, 0, 7)
	emergency, err := entities.NewBatch(mustDay(t, "2024-01-10"), mustDay(t, "2024-01-17"),
		200, entities.EmergencyBatch)
	require.NoError(t, err)

	batches := []entities.Batch{
		mustBatch(t, "2024-01-08", "2024-01-15", 500),
		emergency,
	}

	merged := MergeConsolidationWindow(batches, ctx)
	assert.Len(t, merged, 2, "emergency batches keep their own timing")
}

func TestCorrectEarlyStockouts_InflatesFirstBatches(t *testing.T) {
	sim := services.NewStockSimulator()
	ctx := testCtx(t, 0, 7)
	schedule := mustSchedule(t, map[string]float64{"2024-01-15": 500})

	// Undersized batch: 100 short.
	batches := []entities.Batch{mustBatch(t, "2024-01-06", "2024-01-13", 400)}

	corrected := CorrectEarlyStockouts(sim, schedule, batches, ctx)

	require.Len(t, corrected, 1)
	assert.Greater(t, corrected[0].Quantity, 400.0)
	assert.Equal(t, "stockout_corrected", corrected[0].Analytics.Extra["adjustment_reason"])
	assert.Equal(t, 400.0, corrected[0].Analytics.Extra["original_quantity"])

	trajectory := sim.Simulate(ctx.InitialStock, schedule, corrected,
		ctx.PlanningWindow.Start, ctx.PlanningWindow.End)
	assert.False(t, trajectory.HasStockout(), "correction must clear the early stockout")
}

func TestCorrectEarlyStockouts_NoopWhenHealthy(t *testing.T) {
	sim := services.NewStockSimulator()
	ctx := testCtx(t, 100, 7)
	schedule := mustSchedule(t, map[string]float64{"2024-01-15": 500})
	batches := []entities.Batch{mustBatch(t, "2024-01-06", "2024-01-13", 600)}

	corrected := CorrectEarlyStockouts(sim, schedule, batches, ctx)
	require.Len(t, corrected, 1)
	assert.Equal(t, 600.0, corrected[0].Quantity)
}

func TestCorrectEarlyStockouts_SkippedInExactMode(t *testing.T) {
	sim := services.NewStockSimulator()
	ctx := testCtx(t, 0, 7)
	ctx.ExactQuantityMatch = true
	schedule := mustSchedule(t, map[string]float64{"2024-01-15": 500})
	batches := []entities.Batch{mustBatch(t, "2024-01-06", "2024-01-13", 400)}

	corrected := CorrectEarlyStockouts(sim, schedule, batches, ctx)
	assert.Equal(t, 400.0, corrected[0].Quantity)
}

func TestApplyExactDeficit_SumsExactly(t *testing.T) {
	ctx := testCtx(t, 200, 7)
	ctx.ExactQuantityMatch = true
	ctx.IgnoreSafetyStock = true

	schedule := mustSchedule(t, map[string]float64{
		"2024-01-15": 500,
		"2024-02-05": 800,
		"2024-03-10": 600,
	})
	batches := []entities.Batch{
		mustBatch(t, "2024-01-06", "2024-01-13", 700),
		mustBatch(t, "2024-01-27", "2024-02-03", 900),
		mustBatch(t, "2024-03-01", "2024-03-08", 700),
	}

	exact := ApplyExactDeficit(batches, schedule, ctx)

	var total float64
	for _, b := range exact {
		total += b.Quantity
	}
	assert.InDelta(t, schedule.Total()-200, total, 1e-3,
		"initial stock plus production must equal total demand exactly")

	// No intermediate stockout under the exact plan.
	sim := services.NewStockSimulator()
	trajectory := sim.Simulate(ctx.InitialStock, schedule, exact,
		ctx.PlanningWindow.Start, ctx.PlanningWindow.End)
	assert.False(t, trajectory.HasStockout())

	if final, ok := trajectory.Final(); ok {
		assert.InDelta(t, 0, final.Stock, 1e-3, "exact mode ends with zero stock")
	}
}

func TestApplyExactDeficit_NoDeficitMeansNoBatches(t *testing.T) {
	ctx := testCtx(t, 5000, 7)
	schedule := mustSchedule(t, map[string]float64{"2024-01-15": 500})
	batches := []entities.Batch{mustBatch(t, "2024-01-06", "2024-01-13", 400)}

	assert.Nil(t, ApplyExactDeficit(batches, schedule, ctx))
}

func TestAssembleAnalytics_BaselineFieldsAndSummary(t *testing.T) {
	sim := services.NewStockSimulator()
	analyzer := services.NewDemandAnalyzer(services.DefaultAnalyzerConfig())
	ctx := testCtx(t, 200, 7)

	schedule := mustSchedule(t, map[string]float64{
		"2024-01-15": 500,
		"2024-02-05": 800,
	})
	analysis := analyzer.Analyze(schedule, 7)

	batches := []entities.Batch{
		mustBatch(t, "2024-01-06", "2024-01-13", 400),
		mustBatch(t, "2024-01-27", "2024-02-03", 850),
	}

	finalized, analytics := AssembleAnalytics(sim, schedule, batches, analysis, ctx)

	require.Len(t, finalized, 2)
	first := finalized[0]
	assert.InDelta(t, 200, first.Analytics.StockBeforeArrival, 1e-9)
	assert.InDelta(t, 600, first.Analytics.StockAfterArrival, 1e-9)
	assert.Greater(t, first.Analytics.CoverageDays, 0.0)
	assert.Equal(t, 7, first.Analytics.ActualLeadTime)
	assert.NotEmpty(t, first.Analytics.UrgencyLevel)
	assert.Contains(t, first.Analytics.Extra, "covers_demands")

	summary := analytics.Summary
	assert.Equal(t, 200.0, summary.InitialStock)
	assert.Equal(t, 2, summary.TotalBatches)
	assert.InDelta(t, 1250, summary.TotalProduced, 1e-9)
	assert.False(t, summary.StockoutOccurred)
	assert.Equal(t, 2, summary.DemandsMetCount)
	assert.Zero(t, summary.DemandsUnmetCount)
	assert.InDelta(t, 100, summary.DemandFulfillmentRate, 1e-9)
	// 200 + 400 - 500 + 850 - 800 = 150 at the end of the window.
	assert.InDelta(t, 150, summary.FinalStock, 1e-9)
}

func TestAssembleAnalytics_IdenticalBatchesCreditEachOther(t *testing.T) {
	sim := services.NewStockSimulator()
	analyzer := services.NewDemandAnalyzer(services.DefaultAnalyzerConfig())
	ctx := testCtx(t, 0, 7)

	schedule := mustSchedule(t, map[string]float64{"2024-01-20": 600})
	analysis := analyzer.Analyze(schedule, 7)

	// Two batches with the same dates, quantity and kind: each must still see
	// the other's same-day arrival in its stock-before figure.
	batches := []entities.Batch{
		mustBatch(t, "2024-01-06", "2024-01-13", 300),
		mustBatch(t, "2024-01-06", "2024-01-13", 300),
	}

	finalized, analytics := AssembleAnalytics(sim, schedule, batches, analysis, ctx)

	require.Len(t, finalized, 2)
	for _, b := range finalized {
		assert.InDelta(t, 300, b.Analytics.StockBeforeArrival, 1e-9)
		assert.InDelta(t, 600, b.Analytics.StockAfterArrival, 1e-9)
	}
	assert.Equal(t, 1, analytics.Summary.DemandsMetCount)
	assert.False(t, analytics.Summary.StockoutOccurred)
}

func TestAssembleAnalytics_ReportsUnmetDemand(t *testing.T) {
	sim := services.NewStockSimulator()
	analyzer := services.NewDemandAnalyzer(services.DefaultAnalyzerConfig())
	ctx := testCtx(t, 0, 7)

	schedule := mustSchedule(t, map[string]float64{"2024-01-15": 500})
	analysis := analyzer.Analyze(schedule, 7)

	// Plan covers only 300 of 500.
	short := mustBatch(t, "2024-01-06", "2024-01-13", 300)
	short.Analytics.TargetDemandDate = mustDay(t, "2024-01-15")
	batches := []entities.Batch{short}

	finalized, analytics := AssembleAnalytics(sim, schedule, batches, analysis, ctx)

	summary := analytics.Summary
	assert.True(t, summary.StockoutOccurred)
	assert.Equal(t, 1, summary.DemandsUnmetCount)
	require.Len(t, summary.UnmetDemandDetails, 1)
	unmet := summary.UnmetDemandDetails[0]
	assert.Equal(t, mustDay(t, "2024-01-15"), unmet.Date)
	assert.InDelta(t, 500, unmet.Required, 1e-9)
	assert.InDelta(t, 300, unmet.Available, 1e-9)
	assert.InDelta(t, 200, unmet.Shortfall, 1e-9)

	assert.Equal(t, entities.UrgencyHigh, finalized[0].Analytics.UrgencyLevel,
		"stock below the period's demand marks the batch high urgency")

	require.NotEmpty(t, analytics.CriticalPoints)
	assert.Equal(t, SeverityCritical, analytics.CriticalPoints[len(analytics.CriticalPoints)-1].Severity)
}
