package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/openmrp/replan/pkg/domain/entities"
)

// DemandGroup is a set of nearby demand events destined for one shared batch.
// The primary date, used for arrival timing, is always the earliest member.
type DemandGroup struct {
	PrimaryDate   time.Time
	Members       []entities.DemandEntry
	TotalQuantity float64
}

// ConsolidationGrouper merges nearby discrete demands into shared batches when
// the setup-cost saving beats the extra holding cost, or when an absolute
// fallback rule applies.
type ConsolidationGrouper struct{}

// NewConsolidationGrouper creates a grouper.
func NewConsolidationGrouper() *ConsolidationGrouper {
	return &ConsolidationGrouper{}
}

// Group sweeps the schedule in date order, starting a group at each ungrouped
// demand and absorbing subsequent demands while the gap to the group's first
// member stays inside the consolidation window and the net-benefit test passes.
// An ungroupable singleton becomes a group of one. Never errors.
func (g *ConsolidationGrouper) Group(
	schedule entities.DemandSchedule,
	ctx entities.PlanningContext,
) []DemandGroup {
	entries := schedule.Entries()
	if len(entries) == 0 {
		return nil
	}

	window := ctx.Params.ConsolidationWindowDays
	if !ctx.Params.EnableConsolidation {
		window = 0
	}

	var groups []DemandGroup
	i := 0
	for i < len(entries) {
		group := DemandGroup{
			PrimaryDate:   entries[i].Date,
			Members:       []entities.DemandEntry{entries[i]},
			TotalQuantity: entries[i].Quantity,
		}

		j := i + 1
		for j < len(entries) {
			gap := entities.DaysBetween(group.PrimaryDate, entries[j].Date)
			if gap > window {
				break
			}
			if !g.shouldAbsorb(group, entries[j], gap, ctx) {
				break
			}
			group.Members = append(group.Members, entries[j])
			group.TotalQuantity += entries[j].Quantity
			j++
		}

		groups = append(groups, group)
		i = j
	}

	return groups
}

// shouldAbsorb runs the economic net-benefit test:
//
//	savings = setup_cost + operational_bonus - extra_holding_cost
//
// where the bonus rewards avoiding overlapping in-flight orders, very short
// gaps, and reaching economic batch scale. Absolute fallbacks keep grouping
// aggressive for short gaps, sub-minimum batches and near-free setups.
func (g *ConsolidationGrouper) shouldAbsorb(
	group DemandGroup,
	candidate entities.DemandEntry,
	gapDays int,
	ctx entities.PlanningContext,
) bool {
	tuning := ctx.Params.Tuning

	// Absolute fallbacks first: they make the economics moot.
	if gapDays <= tuning.ShortGapGroupingDays {
		return true
	}
	if candidate.Quantity < ctx.Params.MinBatchSize {
		return true
	}
	if ctx.Params.SetupCost.LessThanOrEqual(tuning.LowSetupCostThreshold) {
		return true
	}

	setup := ctx.Params.SetupCost

	bonus := decimal.Zero
	if gapDays < ctx.LeadTimeDays {
		// Grouping avoids two overlapping in-flight orders.
		bonus = bonus.Add(setup.Mul(decimal.NewFromFloat(tuning.OverlapBonusFraction)))
	}
	if gapDays <= 3 {
		bonus = bonus.Add(setup.Mul(decimal.NewFromFloat(tuning.ProximityBonusFraction)))
	}
	if ctx.Params.MinBatchSize > 0 && group.TotalQuantity+candidate.Quantity >= ctx.Params.MinBatchSize {
		bonus = bonus.Add(setup.Mul(decimal.NewFromFloat(tuning.ScaleBonusFraction)))
	}

	extraHolding := EstimatedHoldingCost(ctx, candidate.Quantity, gapDays)

	savings := setup.Add(bonus).Sub(extraHolding)
	return savings.IsPositive()
}
