package entities

import (
	"fmt"
	"sort"
	"time"
)

// DemandEntry is a single dated demand event.
type DemandEntry struct {
	Date     time.Time
	Quantity float64
}

// DemandSchedule is an ordered set of dated demand events. Dates are unique and
// quantities non-negative; entries are kept sorted by date. The schedule is
// immutable once constructed for a planning run.
type DemandSchedule struct {
	entries []DemandEntry
}

// NewDemandSchedule builds a schedule from an ISO-date-keyed quantity map.
func NewDemandSchedule(demands map[string]float64) (DemandSchedule, error) {
	entries := make([]DemandEntry, 0, len(demands))
	for ds, qty := range demands {
		d, err := ParseDay(ds)
		if err != nil {
			return DemandSchedule{}, NewValidationError("demand_schedule", err.Error())
		}
		if qty < 0 {
			return DemandSchedule{}, NewValidationError("demand_schedule",
				fmt.Sprintf("negative quantity %.3f on %s", qty, ds))
		}
		entries = append(entries, DemandEntry{Date: d, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return DemandSchedule{entries: entries}, nil
}

// NewDemandScheduleFromEntries builds a schedule from pre-parsed entries.
// Duplicate dates are summed.
func NewDemandScheduleFromEntries(entries []DemandEntry) (DemandSchedule, error) {
	byDate := make(map[time.Time]float64, len(entries))
	for _, e := range entries {
		if e.Quantity < 0 {
			return DemandSchedule{}, NewValidationError("demand_schedule",
				fmt.Sprintf("negative quantity %.3f on %s", e.Quantity, FormatDay(e.Date)))
		}
		byDate[Day(e.Date)] += e.Quantity
	}
	merged := make([]DemandEntry, 0, len(byDate))
	for d, q := range byDate {
		merged = append(merged, DemandEntry{Date: d, Quantity: q})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return DemandSchedule{entries: merged}, nil
}

// Entries returns a copy of the schedule sorted by date.
func (s DemandSchedule) Entries() []DemandEntry {
	out := make([]DemandEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of demand events.
func (s DemandSchedule) Len() int { return len(s.entries) }

// IsEmpty reports whether the schedule has no events.
func (s DemandSchedule) IsEmpty() bool { return len(s.entries) == 0 }

// Total returns the summed demand quantity.
func (s DemandSchedule) Total() float64 {
	var total float64
	for _, e := range s.entries {
		total += e.Quantity
	}
	return total
}

// First returns the earliest demand entry; ok is false for an empty schedule.
func (s DemandSchedule) First() (DemandEntry, bool) {
	if len(s.entries) == 0 {
		return DemandEntry{}, false
	}
	return s.entries[0], true
}

// Last returns the latest demand entry; ok is false for an empty schedule.
func (s DemandSchedule) Last() (DemandEntry, bool) {
	if len(s.entries) == 0 {
		return DemandEntry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// QuantityOn returns the demand scheduled on a given date (0 if none).
func (s DemandSchedule) QuantityOn(d time.Time) float64 {
	d = Day(d)
	for _, e := range s.entries {
		if e.Date.Equal(d) {
			return e.Quantity
		}
		if e.Date.After(d) {
			break
		}
	}
	return 0
}

// HorizonDays returns the inclusive day span between the first and last event,
// or 0 for an empty schedule.
func (s DemandSchedule) HorizonDays() int {
	if len(s.entries) == 0 {
		return 0
	}
	return DaysBetween(s.entries[0].Date, s.entries[len(s.entries)-1].Date) + 1
}
