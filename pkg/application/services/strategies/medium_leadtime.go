package strategies

import (
	"github.com/openmrp/replan/pkg/domain/entities"
	"github.com/openmrp/replan/pkg/domain/services"
)

// MediumLeadTimeStrategy handles lead times of roughly two weeks to a month and
// a half. It evaluates demands one by one like the short strategy but sizes
// conservatively: only the deficit plus the configured safety margin, no
// speculative buffer for upcoming demands. The in-transit consolidation check
// uses the base enlargement ceiling without the wide-gap bonus.
type MediumLeadTimeStrategy struct {
	sim *services.StockSimulator
}

// NewMediumLeadTimeStrategy creates the medium-lead-time strategy.
func NewMediumLeadTimeStrategy(sim *services.StockSimulator) *MediumLeadTimeStrategy {
	return &MediumLeadTimeStrategy{sim: sim}
}

// Name implements Strategy.
func (s *MediumLeadTimeStrategy) Name() string { return entities.BracketMedium.String() }

// Plan implements Strategy.
func (s *MediumLeadTimeStrategy) Plan(
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
	multiplier := ctx.Params.Tuning.EnlargementBaseMultiplier

	var batches []entities.Batch
	for _, entry := range entries {
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
			continue
		}

		quantity := ctx.ClampBatchSize(need, entities.StandardBatch)
		batch, err := newPlannedBatch(order, arrival, quantity,
			entities.StandardBatch, s.Name(), entry, boundary)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}

	return batches, nil
}
