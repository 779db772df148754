package postprocess

import (
	"sort"

	"github.com/openmrp/replan/pkg/domain/entities"
)

// ApplyExactDeficit redistributes batch quantities so that
// initial_stock + total_produced == total_demand exactly, with no safety margin
// of any kind. Batch timing is kept from the strategy; each batch is resized to
// the minimum that keeps cumulative supply covering cumulative demand through
// the day before the next arrival, and the final batch absorbs the remainder so
// the total is exact. Batch size limits do not apply in this mode; batches
// resized to zero are dropped.
func ApplyExactDeficit(
	batches []entities.Batch,
	schedule entities.DemandSchedule,
	ctx entities.PlanningContext,
) []entities.Batch {
	target := schedule.Total() - ctx.InitialStock
	if target <= 0 {
		return nil
	}
	if len(batches) == 0 {
		return batches
	}

	ordered := make([]entities.Batch, len(batches))
	copy(ordered, batches)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ArrivalDate.Before(ordered[j].ArrivalDate) })

	entries := schedule.Entries()
	var out []entities.Batch
	var supplied float64

	for i, b := range ordered {
		var required float64
		if i == len(ordered)-1 {
			required = target
		} else {
			// Demand consumed strictly before the next arrival must be covered
			// by supply available up to and including this batch.
			nextArrival := ordered[i+1].ArrivalDate
			var cumDemand float64
			for _, e := range entries {
				if e.Date.Before(nextArrival) {
					cumDemand += e.Quantity
				}
			}
			required = cumDemand - ctx.InitialStock
			if required > target {
				required = target
			}
		}

		quantity := required - supplied
		if quantity < 0 {
			quantity = 0
		}

		resized := b.WithQuantity(quantity, "exact_deficit")
		resized.Analytics.Extra["exact_quantity_match"] = true
		supplied += quantity

		if quantity == 0 {
			continue
		}
		out = append(out, resized)
	}

	return out
}
