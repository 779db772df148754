package strategies

import (
	"github.com/openmrp/replan/pkg/domain/entities"
	"github.com/openmrp/replan/pkg/domain/services"
)

// LongLeadTimeStrategy handles lead times beyond a month and a half, where
// per-demand ordering is impossible. The whole horizon is grouped into a small
// policy-capped number of large batches sized to cover total demand plus the
// safety buffer. A gap-consumption simulation then checks whether any
// inter-batch gap would drain stock below zero; if so, batch sizes are inflated
// by a compensation factor that escalates with how extreme the lead time is,
// and a final validation pass may insert an emergency batch.
type LongLeadTimeStrategy struct {
	sim *services.StockSimulator
}

// NewLongLeadTimeStrategy creates the long-lead-time strategy.
func NewLongLeadTimeStrategy(sim *services.StockSimulator) *LongLeadTimeStrategy {
	return &LongLeadTimeStrategy{sim: sim}
}

// Name implements Strategy.
func (s *LongLeadTimeStrategy) Name() string { return entities.BracketLong.String() }

// Plan implements Strategy.
func (s *LongLeadTimeStrategy) Plan(
	schedule entities.DemandSchedule,
	analysis entities.DemandAnalysis,
	mrp services.MRPParameters,
	ctx entities.PlanningContext,
) ([]entities.Batch, error) {
	entries := schedule.Entries()
	if len(entries) == 0 {
		return nil, nil
	}

	deficit := schedule.Total() + mrp.SafetyStock - ctx.InitialStock
	if deficit <= 0 && !ctx.ForceProduction {
		return nil, nil
	}

	segments := s.segmentHorizon(entries, s.batchCount(len(entries), ctx))

	batches, err := s.planSegments(segments, mrp, ctx)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, nil
	}

	batches = s.compensateGapDrain(schedule, batches, ctx)
	return s.insertEmergencyIfNeeded(schedule, batches, ctx)
}

// batchCount bounds how many large batches cover the horizon; extreme lead
// times earn one extra batch.
func (s *LongLeadTimeStrategy) batchCount(events int, ctx entities.PlanningContext) int {
	n := ctx.Params.MaxBatchesLongLeadtime
	if ctx.LeadTimeDays >= ctx.Params.Tuning.ExtremeLeadTimeDays {
		n++
	}
	if n > events {
		n = events
	}
	if n < 1 {
		n = 1
	}
	return n
}

// segmentHorizon splits the demand entries into n contiguous segments of
// roughly equal quantity.
func (s *LongLeadTimeStrategy) segmentHorizon(entries []entities.DemandEntry, n int) [][]entities.DemandEntry {
	var total float64
	for _, e := range entries {
		total += e.Quantity
	}
	target := total / float64(n)

	segments := make([][]entities.DemandEntry, 0, n)
	var current []entities.DemandEntry
	var acc float64
	for _, e := range entries {
		current = append(current, e)
		acc += e.Quantity
		if acc >= target && len(segments) < n-1 {
			segments = append(segments, current)
			current = nil
			acc = 0
		}
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}

// planSegments sizes one batch per segment so that cumulative supply always
// covers cumulative demand plus the safety buffer, net of initial stock.
func (s *LongLeadTimeStrategy) planSegments(
	segments [][]entities.DemandEntry,
	mrp services.MRPParameters,
	ctx entities.PlanningContext,
) ([]entities.Batch, error) {
	var batches []entities.Batch
	var cumDemand, cumSupply float64

	for i, segment := range segments {
		var segmentQty float64
		for _, e := range segment {
			segmentQty += e.Quantity
		}
		cumDemand += segmentQty

		buffer := 0.0
		if i == 0 {
			buffer = mrp.SafetyStock
		}
		need := (cumDemand+buffer)*ctx.MarginFactor() - ctx.InitialStock - cumSupply
		if need <= 0 {
			continue
		}

		first := segment[0]
		order, arrival, boundary, ok := candidateDates(first.Date, ctx)
		if !ok {
			// Even the window edge cannot reach this segment's first demand;
			// pin the order to the earliest allowed date and flag the batch as
			// a period-boundary exception rather than abandoning the segment.
			order = ctx.OrderingWindow.Start
			arrival = entities.AddDays(order, ctx.LeadTimeDays)
			boundary = true
			if arrival.After(ctx.PlanningWindow.End) {
				continue // truly unreachable, demand stays unmet
			}
		}

		quantity := ctx.ClampBatchSize(need, entities.StandardBatch)
		entry := entities.DemandEntry{Date: first.Date, Quantity: segmentQty}
		batch, err := newPlannedBatch(order, arrival, quantity,
			entities.StandardBatch, s.Name(), entry, boundary)
		if err != nil {
			return nil, err
		}
		batch.Analytics.Extra["segment_demands"] = len(segment)
		batches = append(batches, batch)

		cumSupply += quantity
	}

	return batches, nil
}

// compensateGapDrain simulates the plan and, if any inter-batch gap drains
// stock below zero, inflates every batch by the lead-time-scaled compensation
// multiplier.
func (s *LongLeadTimeStrategy) compensateGapDrain(
	schedule entities.DemandSchedule,
	batches []entities.Batch,
	ctx entities.PlanningContext,
) []entities.Batch {
	trajectory := s.sim.Simulate(ctx.InitialStock, schedule, batches,
		ctx.PlanningWindow.Start, ctx.PlanningWindow.End)
	if !trajectory.HasStockout() {
		return batches
	}

	factor := ctx.Params.Tuning.GapCompensationFor(ctx.LeadTimeDays)
	if factor <= 1.0 {
		return batches
	}

	compensated := make([]entities.Batch, len(batches))
	for i, b := range batches {
		inflated := ctx.ClampBatchSize(b.Quantity*factor, b.Kind)
		if inflated > b.Quantity {
			compensated[i] = b.WithQuantity(inflated, "gap_compensation")
		} else {
			compensated[i] = b
		}
	}
	return compensated
}

// insertEmergencyIfNeeded runs the post-hoc validation pass and adds an
// emergency batch at the first remaining stockout, exempt from batch limits.
func (s *LongLeadTimeStrategy) insertEmergencyIfNeeded(
	schedule entities.DemandSchedule,
	batches []entities.Batch,
	ctx entities.PlanningContext,
) ([]entities.Batch, error) {
	trajectory := s.sim.Simulate(ctx.InitialStock, schedule, batches,
		ctx.PlanningWindow.Start, ctx.PlanningWindow.End)
	neg, found := trajectory.FirstNegative()
	if !found {
		return batches, nil
	}

	order := entities.AddDays(neg.Date, -ctx.LeadTimeDays)
	if order.Before(ctx.OrderingWindow.Start) {
		order = ctx.OrderingWindow.Start
	}
	if order.After(ctx.OrderingWindow.End) {
		return batches, nil // nothing more the strategy can do; reported as unmet
	}
	arrival := entities.AddDays(order, ctx.LeadTimeDays)
	if arrival.After(neg.Date) {
		// The emergency arrival lands late; it still reduces the depth of the
		// stockout, so keep it and let analytics report the residual.
		if arrival.After(ctx.PlanningWindow.End) {
			return batches, nil
		}
	}

	quantity := -neg.Stock * ctx.Params.Tuning.EmergencyFactor
	entry := entities.DemandEntry{Date: neg.Date, Quantity: -neg.Stock}
	emergency, err := newPlannedBatch(order, arrival, quantity,
		entities.EmergencyBatch, s.Name(), entry, order.Equal(ctx.OrderingWindow.Start))
	if err != nil {
		return nil, err
	}
	emergency.Analytics.Extra["emergency_reason"] = "gap_validation_stockout"

	return append(batches, emergency), nil
}
