package postprocess

import (
	"sort"

	"github.com/openmrp/replan/pkg/domain/entities"
)

// MergeConsolidationWindow scans chronologically adjacent batches and merges
// any pair whose order dates fall within the consolidation window, summing
// quantities and recording the estimated setup-cost saving. Only standard
// batches merge; emergency and informative batches keep their own timing.
// Merging never increases the batch count.
func MergeConsolidationWindow(batches []entities.Batch, ctx entities.PlanningContext) []entities.Batch {
	if !ctx.Params.EnableConsolidation || len(batches) < 2 {
		return batches
	}
	window := ctx.Params.ConsolidationWindowDays
	if window <= 0 {
		return batches
	}

	sorted := make([]entities.Batch, len(batches))
	copy(sorted, batches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OrderDate.Before(sorted[j].OrderDate) })

	merged := make([]entities.Batch, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		gap := entities.DaysBetween(current.OrderDate, next.OrderDate)
		if current.Kind == entities.StandardBatch && next.Kind == entities.StandardBatch && gap <= window {
			current = current.MergedWith(next, ctx.Params.SetupCost)
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)

	return merged
}
