package postprocess

import (
	"sort"
	"time"

	"github.com/openmrp/replan/pkg/domain/entities"
	"github.com/openmrp/replan/pkg/domain/services"
)

// earlyCorrectionBatchSpan is how many leading batches the early-stockout
// correction pass inspects and is allowed to inflate.
const earlyCorrectionBatchSpan = 3

// CorrectEarlyStockouts replays the plan and, when projected stock goes
// negative within the window covered by the first few batches, inflates those
// batches by the detected deficit times the correction multiplier (the first
// batch takes the largest share, the second and third tapering shares). If a
// stockout survives the first pass, one final emergency top-up lands on the
// first batch. Every increase is annotated on the batch's analytics.
// Correction is skipped entirely in exact-deficit mode, where quantities are
// already pinned to the deficit.
func CorrectEarlyStockouts(
	sim *services.StockSimulator,
	schedule entities.DemandSchedule,
	batches []entities.Batch,
	ctx entities.PlanningContext,
) []entities.Batch {
	if len(batches) == 0 || ctx.ExactQuantityMatch {
		return batches
	}

	ordered := make([]entities.Batch, len(batches))
	copy(ordered, batches)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ArrivalDate.Before(ordered[j].ArrivalDate) })

	span := earlyCorrectionBatchSpan
	if span > len(ordered) {
		span = len(ordered)
	}
	windowEnd := ctx.PlanningWindow.End
	if span < len(ordered) {
		// Inspect only up to the day before the first uncorrectable arrival.
		windowEnd = entities.AddDays(ordered[span].ArrivalDate, -1)
	}

	deficit := detectDeficit(sim, schedule, ordered, ctx, windowEnd)
	if deficit <= 0 {
		return ordered
	}

	ordered = distributeCorrection(ordered, span, deficit*ctx.Params.Tuning.CorrectionMultiplier)

	// Re-simulate; a persistent stockout earns one emergency top-up on the
	// first batch.
	if residual := detectDeficit(sim, schedule, ordered, ctx, windowEnd); residual > 0 {
		topUp := residual * ctx.Params.Tuning.CorrectionMultiplier
		first := ordered[0].WithQuantity(ordered[0].Quantity+topUp, "stockout_corrected")
		first.Analytics.Extra["emergency_topup"] = true
		ordered[0] = first
	}

	return ordered
}

// detectDeficit returns the depth of the worst projected stockout up to end.
func detectDeficit(
	sim *services.StockSimulator,
	schedule entities.DemandSchedule,
	batches []entities.Batch,
	ctx entities.PlanningContext,
	end time.Time,
) float64 {
	trajectory := sim.Simulate(ctx.InitialStock, schedule, batches, ctx.PlanningWindow.Start, end)
	min, ok := trajectory.Minimum()
	if !ok || min.Stock >= 0 {
		return 0
	}
	return -min.Stock
}

// distributeCorrection adds amount across the corrected span with tapering
// weights, annotating each change.
func distributeCorrection(ordered []entities.Batch, span int, amount float64) []entities.Batch {
	weights := []float64{1.0, 0.5, 0.25}
	var totalWeight float64
	for i := 0; i < span && i < len(weights); i++ {
		totalWeight += weights[i]
	}
	if totalWeight <= 0 {
		return ordered
	}

	for i := 0; i < span && i < len(weights); i++ {
		share := amount * weights[i] / totalWeight
		if share <= 0 {
			continue
		}
		ordered[i] = ordered[i].WithQuantity(ordered[i].Quantity+share, "stockout_corrected")
	}
	return ordered
}
