package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmrp/replan/pkg/domain/entities"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := entities.ParseDay(s)
	require.NoError(t, err)
	return d
}

func mustSchedule(t *testing.T, demands map[string]float64) entities.DemandSchedule {
	t.Helper()
	s, err := entities.NewDemandSchedule(demands)
	require.NoError(t, err)
	return s
}

func mustBatch(t *testing.T, order, arrival string, qty float64) entities.Batch {
	t.Helper()
	b, err := entities.NewBatch(mustDay(t, order), mustDay(t, arrival), qty, entities.StandardBatch)
	require.NoError(t, err)
	return b
}

func TestSimulate_ArrivalsBeforeSameDayDemand(t *testing.T) {
	sim := NewStockSimulator()
	schedule := mustSchedule(t, map[string]float64{"2024-01-15": 500})
	batches := []entities.Batch{mustBatch(t, "2024-01-08", "2024-01-15", 450)}

	trajectory := sim.Simulate(100, schedule, batches,
		mustDay(t, "2024-01-14"), mustDay(t, "2024-01-16"))

	// Opening 100, then on the 15th: +450 arrival applied before -500 demand.
	stock, ok := trajectory.StockOn(mustDay(t, "2024-01-15"))
	require.True(t, ok)
	assert.InDelta(t, 50, stock, 1e-9)
	assert.False(t, trajectory.HasStockout(),
		"arrival credited before demand must prevent the stockout")
}

func TestSimulate_CopyForwardOnQuietDays(t *testing.T) {
	sim := NewStockSimulator()
	schedule := mustSchedule(t, map[string]float64{"2024-01-15": 30})

	trajectory := sim.Simulate(100, schedule, nil,
		mustDay(t, "2024-01-13"), mustDay(t, "2024-01-18"))

	points := trajectory.Points()
	require.Len(t, points, 6)
	assert.Equal(t, 100.0, points[0].Stock)
	assert.Equal(t, 100.0, points[1].Stock)
	for _, p := range points[2:] {
		assert.Equal(t, 70.0, p.Stock, "balance copies forward after the only demand")
	}
}

func TestSimulate_NegativeStockIsValidOutput(t *testing.T) {
	sim := NewStockSimulator()
	schedule := mustSchedule(t, map[string]float64{"2024-01-15": 500})

	trajectory := sim.Simulate(100, schedule, nil,
		mustDay(t, "2024-01-14"), mustDay(t, "2024-01-16"))

	neg, found := trajectory.FirstNegative()
	require.True(t, found)
	assert.Equal(t, mustDay(t, "2024-01-15"), neg.Date)
	assert.InDelta(t, -400, neg.Stock, 1e-9)
}

func TestSimulate_EventsBeforeWindowFoldIntoOpeningBalance(t *testing.T) {
	sim := NewStockSimulator()
	schedule := mustSchedule(t, map[string]float64{"2024-01-10": 40})
	batches := []entities.Batch{mustBatch(t, "2024-01-02", "2024-01-09", 200)}

	trajectory := sim.Simulate(100, schedule, batches,
		mustDay(t, "2024-01-12"), mustDay(t, "2024-01-13"))

	points := trajectory.Points()
	require.Len(t, points, 2)
	assert.InDelta(t, 260, points[0].Stock, 1e-9,
		"pre-window arrival and demand belong in the opening balance")
}

func TestSimulate_BalanceIdentityEachDay(t *testing.T) {
	sim := NewStockSimulator()
	schedule := mustSchedule(t, map[string]float64{
		"2024-01-15": 500,
		"2024-02-05": 800,
		"2024-03-10": 600,
	})
	batches := []entities.Batch{
		mustBatch(t, "2024-01-06", "2024-01-13", 400),
		mustBatch(t, "2024-01-27", "2024-02-03", 900),
	}

	start, end := mustDay(t, "2024-01-01"), mustDay(t, "2024-03-31")
	trajectory := sim.Simulate(200, schedule, batches, start, end)

	arrivals := map[time.Time]float64{}
	for _, b := range batches {
		arrivals[b.ArrivalDate] += b.Quantity
	}

	prev := 200.0
	for _, p := range trajectory.Points() {
		expected := prev + arrivals[p.Date] - schedule.QuantityOn(p.Date)
		assert.InDelta(t, expected, p.Stock, 1e-9, "identity violated on %s", entities.FormatDay(p.Date))
		prev = p.Stock
	}
}

func TestProjectedStockBefore(t *testing.T) {
	sim := NewStockSimulator()
	schedule := mustSchedule(t, map[string]float64{"2024-01-15": 50})

	stock := sim.ProjectedStockBefore(100, schedule, nil,
		mustDay(t, "2024-01-01"), mustDay(t, "2024-01-15"))
	assert.InDelta(t, 100, stock, 1e-9, "same-day demand must not be consumed yet")

	stock = sim.ProjectedStockBefore(100, schedule, nil,
		mustDay(t, "2024-01-01"), mustDay(t, "2024-01-16"))
	assert.InDelta(t, 50, stock, 1e-9)
}
