package dto

import (
	"github.com/shopspring/decimal"

	"github.com/openmrp/replan/pkg/application/services/planner"
	"github.com/openmrp/replan/pkg/domain/entities"
)

// PlanRequest is the JSON body of one planning call. Every policy field is
// optional; absent fields fall back to the engine defaults.
type PlanRequest struct {
	DemandSchedule map[string]float64 `json:"demand_schedule"`
	InitialStock   float64            `json:"initial_stock"`
	LeadTimeDays   int                `json:"lead_time_days"`
	PlanningWindow DateRange          `json:"planning_window"`
	OrderingWindow CutoffRange        `json:"ordering_window"`
	Policy         Policy             `json:"policy"`
}

// DateRange is an inclusive ISO date range.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CutoffRange bounds when orders may be placed.
type CutoffRange struct {
	StartCutoff string `json:"start_cutoff"`
	EndCutoff   string `json:"end_cutoff"`
}

// Policy is the caller-tunable planning policy. Pointer fields distinguish
// "not provided" from an explicit zero.
type Policy struct {
	SafetyDays           *int     `json:"safety_days,omitempty"`
	SafetyMarginPercent  float64  `json:"safety_margin_percent"`
	AbsoluteMinimumStock float64  `json:"absolute_minimum_stock"`
	MaxGapDays           int      `json:"max_gap_days"`
	IgnoreSafetyStock    bool     `json:"ignore_safety_stock"`
	ExactQuantityMatch   bool     `json:"exact_quantity_match"`
	ForceProduction      bool     `json:"force_production"`
	UnitCost             *float64 `json:"unit_cost,omitempty"`

	SetupCost               *float64 `json:"setup_cost,omitempty"`
	HoldingCostRate         *float64 `json:"holding_cost_rate,omitempty"`
	ServiceLevel            *float64 `json:"service_level,omitempty"`
	MinBatchSize            *float64 `json:"min_batch_size,omitempty"`
	MaxBatchSize            *float64 `json:"max_batch_size,omitempty"`
	ConsolidationWindowDays *int     `json:"consolidation_window_days,omitempty"`
	EnableConsolidation     *bool    `json:"enable_consolidation,omitempty"`
	EnableEOQOptimization   *bool    `json:"enable_eoq_optimization,omitempty"`
	MaxBatchMultiplier      *float64 `json:"max_batch_multiplier,omitempty"`
	MaxBatchesLongLeadtime  *int     `json:"max_batches_long_leadtime,omitempty"`
}

// ToDomain validates the request and converts it into a planner request,
// overlaying the request policy on the shipped default parameters.
func (r PlanRequest) ToDomain() (planner.Request, error) {
	return r.ToDomainWith(entities.DefaultOptimizationParams())
}

// ToDomainWith converts the request using a caller-supplied base policy,
// typically the process configuration. Policy fields present in the request
// still win over the base. Malformed dates, negative stock and inverted
// ranges all surface as *entities.ValidationError before any planning starts.
func (r PlanRequest) ToDomainWith(base entities.OptimizationParams) (planner.Request, error) {
	schedule, err := entities.NewDemandSchedule(r.DemandSchedule)
	if err != nil {
		return planner.Request{}, err
	}

	planningWindow, err := parseWindow("planning_window", r.PlanningWindow.Start, r.PlanningWindow.End)
	if err != nil {
		return planner.Request{}, err
	}
	orderingWindow, err := parseWindow("ordering_window", r.OrderingWindow.StartCutoff, r.OrderingWindow.EndCutoff)
	if err != nil {
		return planner.Request{}, err
	}

	params := r.Policy.apply(base)

	pctx, err := entities.NewPlanningContext(r.InitialStock, r.LeadTimeDays,
		planningWindow, orderingWindow, params)
	if err != nil {
		return planner.Request{}, err
	}

	pctx.SafetyMarginPercent = r.Policy.SafetyMarginPercent
	pctx.AbsoluteMinimumStock = r.Policy.AbsoluteMinimumStock
	pctx.MaxGapDays = r.Policy.MaxGapDays
	pctx.IgnoreSafetyStock = r.Policy.IgnoreSafetyStock
	pctx.ExactQuantityMatch = r.Policy.ExactQuantityMatch
	pctx.ForceProduction = r.Policy.ForceProduction
	if r.Policy.UnitCost != nil {
		pctx.UnitCost = decimal.NewFromFloat(*r.Policy.UnitCost)
	}
	if err := pctx.Validate(); err != nil {
		return planner.Request{}, err
	}

	return planner.Request{Schedule: schedule, Context: pctx}, nil
}

// apply overlays the provided policy fields on the base parameters.
func (p Policy) apply(params entities.OptimizationParams) entities.OptimizationParams {
	if p.SafetyDays != nil {
		params.SafetyDays = *p.SafetyDays
	}
	if p.SetupCost != nil {
		params.SetupCost = decimal.NewFromFloat(*p.SetupCost)
	}
	if p.HoldingCostRate != nil {
		params.HoldingCostRate = decimal.NewFromFloat(*p.HoldingCostRate)
	}
	if p.ServiceLevel != nil {
		params.ServiceLevel = *p.ServiceLevel
	}
	if p.MinBatchSize != nil {
		params.MinBatchSize = *p.MinBatchSize
	}
	if p.MaxBatchSize != nil {
		params.MaxBatchSize = *p.MaxBatchSize
	}
	if p.ConsolidationWindowDays != nil {
		params.ConsolidationWindowDays = *p.ConsolidationWindowDays
	}
	if p.EnableConsolidation != nil {
		params.EnableConsolidation = *p.EnableConsolidation
	}
	if p.EnableEOQOptimization != nil {
		params.EnableEOQOptimization = *p.EnableEOQOptimization
	}
	if p.MaxBatchMultiplier != nil {
		params.MaxBatchMultiplier = *p.MaxBatchMultiplier
	}
	if p.MaxBatchesLongLeadtime != nil {
		params.MaxBatchesLongLeadtime = *p.MaxBatchesLongLeadtime
	}
	return params
}

func parseWindow(field, start, end string) (entities.DateWindow, error) {
	s, err := entities.ParseDay(start)
	if err != nil {
		return entities.DateWindow{}, entities.NewValidationError(field, err.Error())
	}
	e, err := entities.ParseDay(end)
	if err != nil {
		return entities.DateWindow{}, entities.NewValidationError(field, err.Error())
	}
	w, err := entities.NewDateWindow(s, e)
	if err != nil {
		return entities.DateWindow{}, entities.NewValidationError(field, err.Error())
	}
	return w, nil
}
