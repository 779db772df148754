package entities

import (
	"github.com/shopspring/decimal"
)

// LeadTimeBracket selects which planning strategy handles a run. The bracket is
// resolved exactly once per run from the lead time.
type LeadTimeBracket int

const (
	BracketZero LeadTimeBracket = iota
	BracketShort
	BracketMedium
	BracketLong
)

// Bracket boundaries in days.
const (
	shortLeadTimeMaxDays  = 14
	mediumLeadTimeMaxDays = 45
)

// String method for LeadTimeBracket enum
func (b LeadTimeBracket) String() string {
	switch b {
	case BracketZero:
		return "zero_leadtime"
	case BracketShort:
		return "short_leadtime"
	case BracketMedium:
		return "medium_leadtime"
	case BracketLong:
		return "long_leadtime"
	default:
		return "unknown"
	}
}

// BracketFor resolves the lead-time bracket for a lead time in days.
func BracketFor(leadTimeDays int) LeadTimeBracket {
	switch {
	case leadTimeDays <= 0:
		return BracketZero
	case leadTimeDays <= shortLeadTimeMaxDays:
		return BracketShort
	case leadTimeDays <= mediumLeadTimeMaxDays:
		return BracketMedium
	default:
		return BracketLong
	}
}

// PlanningContext carries everything a planning pass needs, threaded by value
// into every component so no component keeps hidden mutable state. The
// IgnoreSafetyStock flag zeroes stock-based margins only; SafetyDays timing
// anticipation still applies when it is set. The two are intentionally
// independent knobs.
type PlanningContext struct {
	InitialStock   float64
	LeadTimeDays   int
	Bracket        LeadTimeBracket
	PlanningWindow DateWindow
	OrderingWindow DateWindow

	SafetyDays           int
	SafetyMarginPercent  float64
	AbsoluteMinimumStock float64
	MaxGapDays           int

	IgnoreSafetyStock  bool
	ExactQuantityMatch bool
	ForceProduction    bool

	UnitCost decimal.Decimal
	Params   OptimizationParams
}

// NewPlanningContext assembles and validates a planning context.
func NewPlanningContext(
	initialStock float64,
	leadTimeDays int,
	planningWindow, orderingWindow DateWindow,
	params OptimizationParams,
) (PlanningContext, error) {
	pc := PlanningContext{
		InitialStock:   initialStock,
		LeadTimeDays:   leadTimeDays,
		Bracket:        BracketFor(leadTimeDays),
		PlanningWindow: planningWindow,
		OrderingWindow: orderingWindow,
		SafetyDays:     params.SafetyDays,
		UnitCost:       decimal.NewFromInt(1),
		Params:         params,
	}
	if err := pc.Validate(); err != nil {
		return PlanningContext{}, err
	}
	return pc, nil
}

// Validate checks the context's structural invariants.
func (pc PlanningContext) Validate() error {
	if pc.InitialStock < 0 {
		return NewValidationError("initial_stock", "must be non-negative")
	}
	if pc.LeadTimeDays < 0 {
		return NewValidationError("lead_time_days", "must be non-negative")
	}
	if pc.PlanningWindow.End.Before(pc.PlanningWindow.Start) {
		return NewValidationError("planning_window", "end precedes start")
	}
	if pc.OrderingWindow.End.Before(pc.OrderingWindow.Start) {
		return NewValidationError("ordering_window", "end precedes start")
	}
	if pc.SafetyDays < 0 {
		return NewValidationError("safety_days", "must be non-negative")
	}
	if pc.SafetyMarginPercent < 0 {
		return NewValidationError("safety_margin_percent", "must be non-negative")
	}
	return pc.Params.Validate()
}

// MarginFactor returns the multiplicative safety margin applied to batch sizing.
// It collapses to 1.0 when stock-based margins are disabled.
func (pc PlanningContext) MarginFactor() float64 {
	if pc.IgnoreSafetyStock || pc.ExactQuantityMatch {
		return 1.0
	}
	return 1.0 + pc.SafetyMarginPercent/100.0
}

// ClampBatchSize enforces the configured min/max batch limits. Emergency and
// informative batches, and exact-deficit runs, bypass the limits entirely.
func (pc PlanningContext) ClampBatchSize(quantity float64, kind BatchKind) float64 {
	if pc.ExactQuantityMatch || kind != StandardBatch {
		return quantity
	}
	if pc.Params.MinBatchSize > 0 && quantity < pc.Params.MinBatchSize {
		return pc.Params.MinBatchSize
	}
	if pc.Params.MaxBatchSize > 0 && quantity > pc.Params.MaxBatchSize {
		return pc.Params.MaxBatchSize
	}
	return quantity
}
