package services

import (
	"time"

	"github.com/openmrp/replan/pkg/domain/entities"
)

// StockSimulator replays stock evolution day by day over a date window. It is a
// pure function of its inputs: no state, no side effects.
//
// Ordering invariant: on any given day, batch arrivals are credited BEFORE that
// day's demand is consumed. Reversing the order changes stockout detection.
type StockSimulator struct{}

// NewStockSimulator creates a stock simulator.
func NewStockSimulator() *StockSimulator {
	return &StockSimulator{}
}

// Simulate replays stock from start through end (inclusive). Arrivals or demand
// falling before the window are folded into the opening balance so a window that
// starts after early orders still opens with a consistent level. The window may
// extend past the last demand to show post-demand settling. Negative levels are
// valid output.
func (s *StockSimulator) Simulate(
	initialStock float64,
	schedule entities.DemandSchedule,
	batches []entities.Batch,
	start, end time.Time,
) entities.StockTrajectory {
	start, end = entities.Day(start), entities.Day(end)
	if end.Before(start) {
		return entities.NewStockTrajectory(nil)
	}

	arrivals := make(map[time.Time]float64, len(batches))
	for _, b := range batches {
		arrivals[entities.Day(b.ArrivalDate)] += b.Quantity
	}
	demands := make(map[time.Time]float64, schedule.Len())
	for _, e := range schedule.Entries() {
		demands[e.Date] += e.Quantity
	}

	balance := initialStock
	for d, q := range arrivals {
		if d.Before(start) {
			balance += q
			delete(arrivals, d)
		}
	}
	for d, q := range demands {
		if d.Before(start) {
			balance -= q
			delete(demands, d)
		}
	}

	days := entities.DaysBetween(start, end) + 1
	points := make([]entities.StockPoint, 0, days)
	for d := start; !d.After(end); d = entities.AddDays(d, 1) {
		balance += arrivals[d]
		balance -= demands[d]
		points = append(points, entities.StockPoint{Date: d, Stock: balance})
	}

	return entities.NewStockTrajectory(points)
}

// ProjectedStockBefore returns the stock level on the day before a date, i.e.
// the balance a demand on that date would draw from before any same-day arrival.
func (s *StockSimulator) ProjectedStockBefore(
	initialStock float64,
	schedule entities.DemandSchedule,
	batches []entities.Batch,
	start, date time.Time,
) float64 {
	date = entities.Day(date)
	prev := entities.AddDays(date, -1)
	if prev.Before(entities.Day(start)) {
		return initialStock
	}
	trajectory := s.Simulate(initialStock, schedule, batches, start, prev)
	if final, ok := trajectory.Final(); ok {
		return final.Stock
	}
	return initialStock
}
