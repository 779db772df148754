package entities

import "time"

// StockPoint is one day's projected closing stock.
type StockPoint struct {
	Date  time.Time
	Stock float64
}

// StockTrajectory is the day-by-day projected stock evolution over a simulation
// window. Negative levels are valid output: they signal stockout, not failure.
// A trajectory is always a fresh simulation result, never mutated in place.
type StockTrajectory struct {
	points []StockPoint
}

// NewStockTrajectory wraps an already date-ordered point series.
func NewStockTrajectory(points []StockPoint) StockTrajectory {
	return StockTrajectory{points: points}
}

// Points returns a copy of the trajectory in date order.
func (t StockTrajectory) Points() []StockPoint {
	out := make([]StockPoint, len(t.points))
	copy(out, t.points)
	return out
}

// Len returns the number of simulated days.
func (t StockTrajectory) Len() int { return len(t.points) }

// StockOn returns the closing stock on a date. For dates before the window it
// returns the opening balance of the window; after the window, the final level.
func (t StockTrajectory) StockOn(d time.Time) (float64, bool) {
	if len(t.points) == 0 {
		return 0, false
	}
	d = Day(d)
	if d.Before(t.points[0].Date) {
		return t.points[0].Stock, false
	}
	last := t.points[0].Stock
	for _, p := range t.points {
		if p.Date.After(d) {
			break
		}
		last = p.Stock
	}
	return last, true
}

// Minimum returns the lowest point of the trajectory.
func (t StockTrajectory) Minimum() (StockPoint, bool) {
	if len(t.points) == 0 {
		return StockPoint{}, false
	}
	min := t.points[0]
	for _, p := range t.points[1:] {
		if p.Stock < min.Stock {
			min = p
		}
	}
	return min, true
}

// Final returns the last point of the trajectory.
func (t StockTrajectory) Final() (StockPoint, bool) {
	if len(t.points) == 0 {
		return StockPoint{}, false
	}
	return t.points[len(t.points)-1], true
}

// FirstNegative returns the earliest day the projected stock dips below zero.
func (t StockTrajectory) FirstNegative() (StockPoint, bool) {
	for _, p := range t.points {
		if p.Stock < 0 {
			return p, true
		}
	}
	return StockPoint{}, false
}

// HasStockout reports whether any simulated day goes negative.
func (t StockTrajectory) HasStockout() bool {
	_, neg := t.FirstNegative()
	return neg
}
