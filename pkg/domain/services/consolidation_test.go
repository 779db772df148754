package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmrp/replan/pkg/domain/entities"
)

func TestGroup_EmptySchedule(t *testing.T) {
	grouper := NewConsolidationGrouper()
	empty, err := entities.NewDemandSchedule(nil)
	require.NoError(t, err)

	assert.Nil(t, grouper.Group(empty, testContext(t, 7)))
}

func TestGroup_SingletonDemandBecomesGroupOfOne(t *testing.T) {
	grouper := NewConsolidationGrouper()
	schedule := mustSchedule(t, map[string]float64{"2024-01-15": 500})

	groups := grouper.Group(schedule, testContext(t, 7))

	require.Len(t, groups, 1)
	assert.Equal(t, mustDay(t, "2024-01-15"), groups[0].PrimaryDate)
	assert.Equal(t, 500.0, groups[0].TotalQuantity)
	assert.Len(t, groups[0].Members, 1)
}

func TestGroup_ShortGapsAlwaysGroup(t *testing.T) {
	grouper := NewConsolidationGrouper()
	schedule := mustSchedule(t, map[string]float64{
		"2024-01-15": 500,
		"2024-01-18": 300,
	})

	groups := grouper.Group(schedule, testContext(t, 7))

	require.Len(t, groups, 1)
	assert.Equal(t, 800.0, groups[0].TotalQuantity)
	assert.Equal(t, mustDay(t, "2024-01-15"), groups[0].PrimaryDate,
		"primary date is the earliest member")
}

func TestGroup_GapBeyondWindowSplits(t *testing.T) {
	grouper := NewConsolidationGrouper()
	schedule := mustSchedule(t, map[string]float64{
		"2024-01-15": 500,
		"2024-02-15": 300,
	})

	groups := grouper.Group(schedule, testContext(t, 7))
	assert.Len(t, groups, 2)
}

func TestGroup_DisabledConsolidationKeepsEveryDemandSeparate(t *testing.T) {
	grouper := NewConsolidationGrouper()
	schedule := mustSchedule(t, map[string]float64{
		"2024-01-15": 500,
		"2024-01-16": 300,
		"2024-01-17": 200,
	})
	ctx := testContext(t, 7)
	ctx.Params.EnableConsolidation = false

	groups := grouper.Group(schedule, ctx)
	assert.Len(t, groups, 3)
}

func TestGroup_NetBenefitRejectsCostlyAbsorption(t *testing.T) {
	grouper := NewConsolidationGrouper()
	schedule := mustSchedule(t, map[string]float64{
		"2024-01-01": 1000,
		"2024-01-11": 5000, // 10-day gap, large quantity: heavy extra holding
	})

	ctx := testContext(t, 2)
	ctx.Params.ConsolidationWindowDays = 15
	ctx.Params.Tuning.ShortGapGroupingDays = 5
	ctx.Params.MinBatchSize = 10
	ctx.Params.SetupCost = decimal.NewFromInt(20)
	ctx.UnitCost = decimal.NewFromInt(100)

	// extra holding = 100 * 0.2 / 365 * 5000 * 10 days ≈ 2740 > setup 20 + bonuses.
	groups := grouper.Group(schedule, ctx)
	assert.Len(t, groups, 2)
}

func TestGroup_LowSetupCostGroupsAggressively(t *testing.T) {
	grouper := NewConsolidationGrouper()
	schedule := mustSchedule(t, map[string]float64{
		"2024-01-01": 1000,
		"2024-01-11": 5000,
	})

	ctx := testContext(t, 2)
	ctx.Params.ConsolidationWindowDays = 15
	ctx.Params.Tuning.ShortGapGroupingDays = 5
	ctx.Params.MinBatchSize = 10
	ctx.Params.SetupCost = decimal.NewFromFloat(0.5)
	ctx.UnitCost = decimal.NewFromInt(100)

	groups := grouper.Group(schedule, ctx)
	assert.Len(t, groups, 1)
}

func TestGroup_NeverIncreasesEventCount(t *testing.T) {
	grouper := NewConsolidationGrouper()
	schedule := mustSchedule(t, map[string]float64{
		"2024-01-01": 100,
		"2024-01-05": 200,
		"2024-01-20": 300,
		"2024-02-10": 400,
	})

	ctx := testContext(t, 7)
	groups := grouper.Group(schedule, ctx)
	assert.LessOrEqual(t, len(groups), schedule.Len())

	var total float64
	for _, g := range groups {
		total += g.TotalQuantity
	}
	assert.InDelta(t, schedule.Total(), total, 1e-9, "grouping must conserve quantity")
}
