package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BatchKind classifies how a batch came to exist.
type BatchKind int

const (
	StandardBatch BatchKind = iota
	EmergencyBatch
	InformativeBatch
)

// String method for BatchKind enum
func (k BatchKind) String() string {
	switch k {
	case StandardBatch:
		return "standard"
	case EmergencyBatch:
		return "emergency"
	case InformativeBatch:
		return "informative"
	default:
		return "unknown"
	}
}

// UrgencyLevel grades how tight a batch's arrival is relative to projected stock.
type UrgencyLevel string

const (
	UrgencyNormal   UrgencyLevel = "normal"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// BatchAnalytics carries provenance and derived metrics for one batch. The named
// fields are the baseline every strategy must fill; Extra holds strategy-specific
// keys without reintroducing untyped batch attributes.
type BatchAnalytics struct {
	Strategy             string
	StockBeforeArrival   float64
	StockAfterArrival    float64
	CoverageDays         float64
	ActualLeadTime       int
	UrgencyLevel         UrgencyLevel
	TargetDemandDate     time.Time
	TargetDemandQuantity float64
	IsCritical           bool
	EfficiencyRatio      float64
	Extra                map[string]any
}

// CloneExtra returns a copy of the extension map, never nil.
func (a BatchAnalytics) CloneExtra() map[string]any {
	out := make(map[string]any, len(a.Extra)+2)
	for k, v := range a.Extra {
		out[k] = v
	}
	return out
}

// Batch is a planned purchase or production order. Batches are value records:
// consolidation and correction passes derive new batches instead of mutating.
type Batch struct {
	OrderDate   time.Time
	ArrivalDate time.Time
	Quantity    float64
	Kind        BatchKind
	// BoundaryException marks batches whose order date was pinned to an ordering
	// window edge, waiving the arrival==order+lead_time invariant check.
	BoundaryException bool
	Analytics         BatchAnalytics
}

// NewBatch creates a validated batch.
func NewBatch(orderDate, arrivalDate time.Time, quantity float64, kind BatchKind) (Batch, error) {
	if quantity < 0 {
		return Batch{}, fmt.Errorf("batch quantity must be non-negative, got %.3f", quantity)
	}
	if arrivalDate.Before(orderDate) {
		return Batch{}, fmt.Errorf("arrival %s precedes order %s",
			FormatDay(arrivalDate), FormatDay(orderDate))
	}
	return Batch{
		OrderDate:   Day(orderDate),
		ArrivalDate: Day(arrivalDate),
		Quantity:    quantity,
		Kind:        kind,
		Analytics:   BatchAnalytics{UrgencyLevel: UrgencyNormal},
	}, nil
}

// LeadTimeDays returns the realized order-to-arrival span.
func (b Batch) LeadTimeDays() int {
	return DaysBetween(b.OrderDate, b.ArrivalDate)
}

// WithQuantity returns a copy of the batch with a new quantity. The previous
// quantity and the adjustment reason are recorded in the analytics extension map.
func (b Batch) WithQuantity(quantity float64, reason string) Batch {
	next := b
	extra := b.Analytics.CloneExtra()
	extra["original_quantity"] = b.Quantity
	extra["adjustment_reason"] = reason
	extra["correction_amount"] = quantity - b.Quantity
	next.Analytics.Extra = extra
	next.Quantity = quantity
	return next
}

// MergedWith returns a single batch absorbing other's quantity at b's dates.
// The consolidation record and the estimated setup-cost saving are appended to
// the analytics extension map.
func (b Batch) MergedWith(other Batch, setupSavings decimal.Decimal) Batch {
	next := b
	extra := b.Analytics.CloneExtra()
	history, _ := extra["consolidated_from"].([]string)
	history = append(history, FormatDay(other.OrderDate))
	extra["consolidated_from"] = history
	extra["consolidation_savings"] = setupSavings.Round(2).InexactFloat64()
	extra["absorbed_quantity"] = other.Quantity
	next.Analytics.Extra = extra
	next.Quantity = b.Quantity + other.Quantity
	return next
}
