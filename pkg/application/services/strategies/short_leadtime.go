package strategies

import (
	"github.com/openmrp/replan/pkg/domain/entities"
	"github.com/openmrp/replan/pkg/domain/services"
)

// ShortLeadTimeStrategy handles lead times up to two weeks: per-demand
// evaluation with a proactive buffer against the next demand, and an
// in-transit consolidation check that enlarges an already-planned batch
// instead of creating a new one when the coverage window allows. The
// enlargement ceiling grows when the caller explicitly allows wide gaps.
type ShortLeadTimeStrategy struct {
	sim *services.StockSimulator
}

// NewShortLeadTimeStrategy creates the short-lead-time strategy.
func NewShortLeadTimeStrategy(sim *services.StockSimulator) *ShortLeadTimeStrategy {
	return &ShortLeadTimeStrategy{sim: sim}
}

// Name implements Strategy.
func (s *ShortLeadTimeStrategy) Name() string { return entities.BracketShort.String() }

// Plan implements Strategy.
func (s *ShortLeadTimeStrategy) Plan(
	schedule entities.DemandSchedule,
	analysis entities.DemandAnalysis,
	mrp services.MRPParameters,
	ctx entities.PlanningContext,
) ([]entities.Batch, error) {
	entries := schedule.Entries()
	if len(entries) == 0 {
		return nil, nil
	}

	coverage := ctx.Params.ConsolidationWindowDays
	if ctx.MaxGapDays > coverage {
		coverage = ctx.MaxGapDays
	}
	multiplier := s.enlargementMultiplier(ctx)

	var batches []entities.Batch
	for i, entry := range entries {
		projected := s.sim.ProjectedStockBefore(ctx.InitialStock, schedule, batches,
			ctx.PlanningWindow.Start, entry.Date)

		need := entry.Quantity + mrp.SafetyStock - projected
		if need <= 0 {
			continue
		}
		need *= ctx.MarginFactor()

		var enlarged bool
		if ctx.Params.EnableConsolidation {
			batches, enlarged = tryEnlargeInTransit(batches, entry, need, coverage, multiplier, ctx)
		}
		if enlarged {
			continue
		}

		order, arrival, boundary, ok := candidateDates(entry.Date, ctx)
		if !ok {
			continue // demand stays unmet, reported via analytics
		}

		quantity := need
		if i+1 < len(entries) && !ctx.IgnoreSafetyStock && !ctx.ExactQuantityMatch {
			quantity += ctx.Params.Tuning.NextDemandBufferFraction * entries[i+1].Quantity
		}
		quantity = ctx.ClampBatchSize(quantity, entities.StandardBatch)

		batch, err := newPlannedBatch(order, arrival, quantity,
			entities.StandardBatch, s.Name(), entry, boundary)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}

	return batches, nil
}

// enlargementMultiplier rewards callers that explicitly allow wide gaps with
// more aggressive in-transit consolidation.
func (s *ShortLeadTimeStrategy) enlargementMultiplier(ctx entities.PlanningContext) float64 {
	tuning := ctx.Params.Tuning
	multiplier := tuning.EnlargementBaseMultiplier
	if ctx.MaxGapDays > 0 && tuning.EnlargementGapDivisor > 0 {
		multiplier += float64(ctx.MaxGapDays) / tuning.EnlargementGapDivisor
	}
	if ctx.Params.MaxBatchMultiplier > 0 && multiplier > ctx.Params.MaxBatchMultiplier {
		multiplier = ctx.Params.MaxBatchMultiplier
	}
	return multiplier
}
