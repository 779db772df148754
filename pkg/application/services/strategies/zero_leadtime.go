package strategies

import (
	"github.com/openmrp/replan/pkg/domain/entities"
	"github.com/openmrp/replan/pkg/domain/services"
)

// ZeroLeadTimeStrategy plans just-in-time batches: each demand (or small
// consolidated window of demands) gets a batch ordered and arriving on the
// demand date itself, sized to the shortfall against projected stock. A
// look-ahead heuristic proactively covers a fraction of the next demand to
// reduce order thrashing.
type ZeroLeadTimeStrategy struct {
	sim     *services.StockSimulator
	grouper *services.ConsolidationGrouper
}

// NewZeroLeadTimeStrategy creates the JIT strategy.
func NewZeroLeadTimeStrategy(sim *services.StockSimulator, grouper *services.ConsolidationGrouper) *ZeroLeadTimeStrategy {
	return &ZeroLeadTimeStrategy{sim: sim, grouper: grouper}
}

// Name implements Strategy.
func (s *ZeroLeadTimeStrategy) Name() string { return entities.BracketZero.String() }

// Plan implements Strategy.
func (s *ZeroLeadTimeStrategy) Plan(
	schedule entities.DemandSchedule,
	analysis entities.DemandAnalysis,
	mrp services.MRPParameters,
	ctx entities.PlanningContext,
) ([]entities.Batch, error) {
	groups := s.grouper.Group(schedule, ctx)
	if len(groups) == 0 {
		return nil, nil
	}

	var batches []entities.Batch
	stock := ctx.InitialStock

	for i, group := range groups {
		target := group.TotalQuantity + mrp.SafetyStock
		need := target - stock
		if need <= 0 {
			stock -= group.TotalQuantity
			continue
		}

		if !ctx.OrderingWindow.Contains(group.PrimaryDate) {
			// Unreachable with zero lead time; demand stays unmet.
			stock -= group.TotalQuantity
			continue
		}

		quantity := need * ctx.MarginFactor()
		if i+1 < len(groups) && !ctx.IgnoreSafetyStock && !ctx.ExactQuantityMatch {
			quantity += ctx.Params.Tuning.NextDemandBufferFraction * groups[i+1].TotalQuantity
		}
		quantity = ctx.ClampBatchSize(quantity, entities.StandardBatch)

		entry := entities.DemandEntry{Date: group.PrimaryDate, Quantity: group.TotalQuantity}
		batch, err := newPlannedBatch(group.PrimaryDate, group.PrimaryDate, quantity,
			entities.StandardBatch, s.Name(), entry, false)
		if err != nil {
			return nil, err
		}
		if len(group.Members) > 1 {
			batch.Analytics.Extra["consolidated_demands"] = len(group.Members)
		}
		batches = append(batches, batch)

		stock += quantity - group.TotalQuantity
	}

	return batches, nil
}
