package strategies

import (
	"time"

	"github.com/openmrp/replan/pkg/domain/entities"
	"github.com/openmrp/replan/pkg/domain/services"
)

// Strategy produces the initial candidate batch list for one planning run.
// A strategy never errors on ordinary input: demands whose batches cannot be
// scheduled inside the ordering window are simply left uncovered and surface
// later as unmet demand in the analytics.
type Strategy interface {
	Name() string
	Plan(
		schedule entities.DemandSchedule,
		analysis entities.DemandAnalysis,
		mrp services.MRPParameters,
		ctx entities.PlanningContext,
	) ([]entities.Batch, error)
}

// ForBracket resolves the strategy for a lead-time bracket. Selection happens
// exactly once per planning run; there are no runtime transitions.
func ForBracket(
	bracket entities.LeadTimeBracket,
	sim *services.StockSimulator,
	grouper *services.ConsolidationGrouper,
) Strategy {
	switch bracket {
	case entities.BracketZero:
		return NewZeroLeadTimeStrategy(sim, grouper)
	case entities.BracketShort:
		return NewShortLeadTimeStrategy(sim)
	case entities.BracketMedium:
		return NewMediumLeadTimeStrategy(sim)
	default:
		return NewLongLeadTimeStrategy(sim)
	}
}

// candidateDates derives the order/arrival pair for a target demand date.
// The desired arrival anticipates the demand by SafetyDays (timing buffer,
// independent of the stock-based safety margin). An order date falling before
// the ordering window start is pinned to it, delaying the arrival while
// preserving arrival == order + lead_time; the boundary flag reports the pin.
// ok is false when no order placed inside the window can arrive by the demand
// date, in which case the candidate batch is dropped.
func candidateDates(demandDate time.Time, ctx entities.PlanningContext) (order, arrival time.Time, boundary, ok bool) {
	arrival = entities.AddDays(demandDate, -ctx.SafetyDays)
	if arrival.Before(ctx.PlanningWindow.Start) {
		arrival = ctx.PlanningWindow.Start
	}
	if arrival.After(demandDate) {
		arrival = entities.Day(demandDate)
	}
	order = entities.AddDays(arrival, -ctx.LeadTimeDays)

	if order.Before(ctx.OrderingWindow.Start) {
		order = ctx.OrderingWindow.Start
		arrival = entities.AddDays(order, ctx.LeadTimeDays)
		boundary = true
		if arrival.After(demandDate) {
			return time.Time{}, time.Time{}, false, false
		}
	}
	if order.After(ctx.OrderingWindow.End) {
		return time.Time{}, time.Time{}, false, false
	}
	return order, arrival, boundary, true
}

// newPlannedBatch builds a batch carrying the baseline analytics every strategy
// must provide.
func newPlannedBatch(
	order, arrival time.Time,
	quantity float64,
	kind entities.BatchKind,
	strategyName string,
	target entities.DemandEntry,
	boundary bool,
) (entities.Batch, error) {
	batch, err := entities.NewBatch(order, arrival, quantity, kind)
	if err != nil {
		return entities.Batch{}, err
	}
	batch.BoundaryException = boundary
	batch.Analytics.Strategy = strategyName
	batch.Analytics.ActualLeadTime = batch.LeadTimeDays()
	batch.Analytics.TargetDemandDate = target.Date
	batch.Analytics.TargetDemandQuantity = target.Quantity
	batch.Analytics.Extra = map[string]any{"initial_quantity": quantity}
	return batch, nil
}

// tryEnlargeInTransit looks for an already-planned batch still in transit whose
// arrival falls within coverageDays before the demand date and enlarges it by
// need, provided the enlargement stays under maxMultiplier of the batch's
// initially planned quantity and under the hard max batch size. Returns the
// updated slice and whether an enlargement happened.
func tryEnlargeInTransit(
	batches []entities.Batch,
	demand entities.DemandEntry,
	need float64,
	coverageDays int,
	maxMultiplier float64,
	ctx entities.PlanningContext,
) ([]entities.Batch, bool) {
	if need <= 0 || len(batches) == 0 {
		return batches, false
	}

	for i := len(batches) - 1; i >= 0; i-- {
		b := batches[i]
		if b.Kind != entities.StandardBatch {
			continue
		}
		gap := entities.DaysBetween(b.ArrivalDate, demand.Date)
		if gap < 0 || gap > coverageDays {
			continue
		}

		initial, _ := b.Analytics.Extra["initial_quantity"].(float64)
		if initial <= 0 {
			initial = b.Quantity
		}
		enlarged := b.Quantity + need
		if enlarged > initial*maxMultiplier {
			continue
		}
		if ctx.Params.MaxBatchSize > 0 && enlarged > ctx.Params.MaxBatchSize {
			continue
		}

		next := b.WithQuantity(enlarged, "in_transit_consolidation")
		extra := next.Analytics.Extra
		covered, _ := extra["covers_additional_demands"].([]string)
		extra["covers_additional_demands"] = append(covered, entities.FormatDay(demand.Date))
		batches[i] = next
		return batches, true
	}
	return batches, false
}
