package planner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/openmrp/replan/pkg/application/services/postprocess"
	"github.com/openmrp/replan/pkg/application/services/strategies"
	"github.com/openmrp/replan/pkg/domain/entities"
	"github.com/openmrp/replan/pkg/domain/services"
)

// Request is one complete planning problem: the demand to cover and the
// context governing how to cover it.
type Request struct {
	Schedule entities.DemandSchedule
	Context  entities.PlanningContext
}

// Result is the finished plan: the batch list plus the analytics block
// assembled from a full-window simulation of it.
type Result struct {
	RunID     string
	Strategy  string
	Batches   []entities.Batch
	Analytics postprocess.PlanAnalytics
}

// Planner orchestrates one planning run end to end: demand analysis, MRP
// parameter computation, bracket-selected batch generation, then the
// post-processing chain (consolidation merge, exact-deficit redistribution,
// early-stockout correction, analytics assembly). It holds no per-run state
// and is safe for concurrent use.
type Planner struct {
	analyzer *services.DemandAnalyzer
	calc     *services.MRPParameterCalculator
	sim      *services.StockSimulator
	grouper  *services.ConsolidationGrouper
	logger   *logrus.Logger
}

// New builds a Planner with the default analyzer configuration. A nil logger
// disables run logging.
func New(logger *logrus.Logger) *Planner {
	return NewWithAnalyzer(services.DefaultAnalyzerConfig(), logger)
}

// NewWithAnalyzer builds a Planner whose demand analyzer uses the supplied
// classification thresholds, typically from process configuration.
func NewWithAnalyzer(cfg services.AnalyzerConfig, logger *logrus.Logger) *Planner {
	return &Planner{
		analyzer: services.NewDemandAnalyzer(cfg),
		calc:     services.NewMRPParameterCalculator(),
		sim:      services.NewStockSimulator(),
		grouper:  services.NewConsolidationGrouper(),
		logger:   logger,
	}
}

// PlanBatches runs the full pipeline for one item. Validation failures come
// back as *entities.ValidationError; the returned batch list is sorted by
// arrival date with all analytics fields populated.
func (p *Planner) PlanBatches(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := req.Context.Validate(); err != nil {
		return Result{}, err
	}

	pctx := req.Context
	schedule := req.Schedule

	// Demands past the planning window would never be simulated, so the
	// analytics could not judge them. Reject instead of reporting blind.
	if last, ok := schedule.Last(); ok && last.Date.After(pctx.PlanningWindow.End) {
		return Result{}, entities.NewValidationError("demand_schedule",
			fmt.Sprintf("demand on %s falls after the planning window end %s",
				entities.FormatDay(last.Date), entities.FormatDay(pctx.PlanningWindow.End)))
	}

	runID := uuid.NewString()

	p.logf(logrus.Fields{
		"run_id":         runID,
		"bracket":        pctx.Bracket.String(),
		"lead_time_days": pctx.LeadTimeDays,
		"demand_events":  schedule.Len(),
		"total_demand":   schedule.Total(),
		"initial_stock":  pctx.InitialStock,
	}, "planning run started")

	analysis := p.analyzer.Analyze(schedule, pctx.LeadTimeDays)

	// Stock already covers the whole horizon: no production needed unless the
	// caller forces it.
	if !pctx.ForceProduction && pctx.InitialStock >= schedule.Total() {
		batches, analytics := postprocess.AssembleAnalytics(p.sim, schedule, nil, analysis, pctx)
		p.logf(logrus.Fields{"run_id": runID, "final_stock": analytics.Summary.FinalStock},
			"initial stock covers all demand, no batches planned")
		return Result{
			RunID:     runID,
			Strategy:  pctx.Bracket.String(),
			Batches:   batches,
			Analytics: analytics,
		}, nil
	}

	mrp := p.calc.Compute(analysis, pctx)
	strategy := strategies.ForBracket(pctx.Bracket, p.sim, p.grouper)

	batches, err := strategy.Plan(schedule, analysis, mrp, pctx)
	if err != nil {
		return Result{}, fmt.Errorf("strategy %s: %w", strategy.Name(), err)
	}

	batches = postprocess.MergeConsolidationWindow(batches, pctx)
	if pctx.ExactQuantityMatch {
		batches = postprocess.ApplyExactDeficit(batches, schedule, pctx)
	}
	batches = postprocess.CorrectEarlyStockouts(p.sim, schedule, batches, pctx)

	final, analytics := postprocess.AssembleAnalytics(p.sim, schedule, batches, analysis, pctx)

	p.logf(logrus.Fields{
		"run_id":           runID,
		"strategy":         strategy.Name(),
		"batches":          len(final),
		"total_produced":   analytics.Summary.TotalProduced,
		"fulfillment_rate": analytics.Summary.DemandFulfillmentRate,
		"stockout":         analytics.Summary.StockoutOccurred,
	}, "planning run finished")

	return Result{
		RunID:     runID,
		Strategy:  strategy.Name(),
		Batches:   final,
		Analytics: analytics,
	}, nil
}

func (p *Planner) logf(fields logrus.Fields, msg string) {
	if p.logger == nil {
		return
	}
	p.logger.WithFields(fields).Info(msg)
}
