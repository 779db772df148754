package postprocess

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openmrp/replan/pkg/domain/entities"
	"github.com/openmrp/replan/pkg/domain/services"
)

// UnmetDemand itemizes one demand the plan cannot fully serve.
type UnmetDemand struct {
	Date      time.Time
	Required  float64
	Available float64
	Shortfall float64
}

// CriticalPoint marks a date where projected stock needs attention.
type CriticalPoint struct {
	Date           time.Time
	Stock          float64
	DaysOfCoverage float64
	Severity       string
}

// Severity grades for critical points.
const (
	SeverityWatch    = "watch"
	SeverityLow      = "low"
	SeverityCritical = "critical"
)

// PlanSummary aggregates the run outcome.
type PlanSummary struct {
	InitialStock           float64
	FinalStock             float64
	MinimumStock           float64
	MinimumStockDate       time.Time
	StockoutOccurred       bool
	TotalBatches           int
	TotalProduced          float64
	ProductionCoverageRate float64
	DemandFulfillmentRate  float64
	DemandsMetCount        int
	DemandsUnmetCount      int
	UnmetDemandDetails     []UnmetDemand
}

// ProductionEfficiency summarizes the economics of the batch plan.
type ProductionEfficiency struct {
	AverageBatchSize      float64
	BatchesPerMonth       float64
	TotalSetupCost        float64
	EstimatedHoldingCost  float64
	ConsolidationSavings  float64
	ConsolidationsApplied int
}

// PlanAnalytics is the full analytics block returned with every plan.
type PlanAnalytics struct {
	Summary              PlanSummary
	StockEvolution       entities.StockTrajectory
	CriticalPoints       []CriticalPoint
	DemandAnalysis       entities.DemandAnalysis
	ProductionEfficiency ProductionEfficiency
}

// AssembleAnalytics finalizes per-batch analytics and builds the aggregate
// block from a fresh full-window simulation of the finished plan.
func AssembleAnalytics(
	sim *services.StockSimulator,
	schedule entities.DemandSchedule,
	batches []entities.Batch,
	analysis entities.DemandAnalysis,
	ctx entities.PlanningContext,
) ([]entities.Batch, PlanAnalytics) {
	sort.Slice(batches, func(i, j int) bool { return batches[i].ArrivalDate.Before(batches[j].ArrivalDate) })

	trajectory := sim.Simulate(ctx.InitialStock, schedule, batches,
		ctx.PlanningWindow.Start, ctx.PlanningWindow.End)

	finalized := make([]entities.Batch, len(batches))
	for i := range batches {
		finalized[i] = finalizeBatch(sim, schedule, batches, i, analysis, ctx)
	}

	analytics := PlanAnalytics{
		StockEvolution: trajectory,
		DemandAnalysis: analysis,
	}
	analytics.Summary = buildSummary(trajectory, schedule, finalized, ctx)
	analytics.CriticalPoints = findCriticalPoints(trajectory, analysis, ctx)
	analytics.ProductionEfficiency = buildEfficiency(finalized, schedule, ctx)

	return finalized, analytics
}

// finalizeBatch fills the baseline analytics fields every strategy must carry.
// The batch is addressed by index so that coincidentally identical batches
// still count each other's arrivals.
func finalizeBatch(
	sim *services.StockSimulator,
	schedule entities.DemandSchedule,
	batches []entities.Batch,
	idx int,
	analysis entities.DemandAnalysis,
	ctx entities.PlanningContext,
) entities.Batch {
	b := batches[idx]

	others := make([]entities.Batch, 0, len(batches)-1)
	others = append(others, batches[:idx]...)
	others = append(others, batches[idx+1:]...)

	// Stock the batch lands on: previous day's close, with any other same-day
	// arrivals already credited (same-day demand is consumed after arrivals).
	before := sim.ProjectedStockBefore(ctx.InitialStock, schedule, others,
		ctx.PlanningWindow.Start, b.ArrivalDate)
	for j, other := range batches {
		if j != idx && other.ArrivalDate.Equal(b.ArrivalDate) {
			before += other.Quantity
		}
	}

	b.Analytics.StockBeforeArrival = before
	b.Analytics.StockAfterArrival = before + b.Quantity
	b.Analytics.ActualLeadTime = b.LeadTimeDays()
	if analysis.DailyMean > 0 {
		b.Analytics.CoverageDays = b.Quantity / analysis.DailyMean
	}

	demandOnTarget := schedule.QuantityOn(b.Analytics.TargetDemandDate)
	switch {
	case before < 0:
		b.Analytics.UrgencyLevel = entities.UrgencyCritical
		b.Analytics.IsCritical = true
	case demandOnTarget > 0 && before < demandOnTarget:
		b.Analytics.UrgencyLevel = entities.UrgencyHigh
	default:
		b.Analytics.UrgencyLevel = entities.UrgencyNormal
	}

	covered, coveredQty := coveredDemands(schedule, b)
	extra := b.Analytics.CloneExtra()
	extra["covers_demands"] = covered
	b.Analytics.Extra = extra
	if b.Quantity > 0 {
		ratio := coveredQty / b.Quantity
		if ratio > 1 {
			ratio = 1
		}
		b.Analytics.EfficiencyRatio = ratio
	}

	return b
}

// coveredDemands greedily allocates the batch's post-arrival stock forward,
// listing every demand date the batch fully covers.
func coveredDemands(schedule entities.DemandSchedule, b entities.Batch) ([]string, float64) {
	running := b.Analytics.StockAfterArrival
	var covered []string
	var coveredQty float64
	for _, e := range schedule.Entries() {
		if e.Date.Before(b.ArrivalDate) {
			continue
		}
		if e.Quantity <= 0 {
			continue
		}
		if running < e.Quantity {
			break
		}
		running -= e.Quantity
		covered = append(covered, entities.FormatDay(e.Date))
		coveredQty += e.Quantity
	}
	return covered, coveredQty
}

func buildSummary(
	trajectory entities.StockTrajectory,
	schedule entities.DemandSchedule,
	batches []entities.Batch,
	ctx entities.PlanningContext,
) PlanSummary {
	summary := PlanSummary{
		InitialStock: ctx.InitialStock,
		TotalBatches: len(batches),
	}
	for _, b := range batches {
		summary.TotalProduced += b.Quantity
	}

	if final, ok := trajectory.Final(); ok {
		summary.FinalStock = final.Stock
	} else {
		summary.FinalStock = ctx.InitialStock
	}
	if min, ok := trajectory.Minimum(); ok {
		summary.MinimumStock = min.Stock
		summary.MinimumStockDate = min.Date
	} else {
		summary.MinimumStock = ctx.InitialStock
	}

	total := schedule.Total()
	if total > 0 {
		summary.ProductionCoverageRate = round2((ctx.InitialStock + summary.TotalProduced) / total * 100)
	}

	// A demand is met when the day's closing stock stays non-negative: the
	// arrivals-before-demand ordering means a non-negative close proves the
	// full quantity was served.
	var met, unmet int
	var unmetDetails []UnmetDemand
	for _, e := range schedule.Entries() {
		if e.Quantity == 0 {
			met++
			continue
		}
		closing, _ := trajectory.StockOn(e.Date)
		if closing >= 0 {
			met++
			continue
		}
		unmet++
		available := e.Quantity + closing
		if available < 0 {
			available = 0
		}
		unmetDetails = append(unmetDetails, UnmetDemand{
			Date:      e.Date,
			Required:  e.Quantity,
			Available: available,
			Shortfall: e.Quantity - available,
		})
	}
	summary.DemandsMetCount = met
	summary.DemandsUnmetCount = unmet
	summary.UnmetDemandDetails = unmetDetails
	if met+unmet > 0 {
		summary.DemandFulfillmentRate = round2(float64(met) / float64(met+unmet) * 100)
	} else {
		summary.DemandFulfillmentRate = 100
	}
	summary.StockoutOccurred = summary.MinimumStock < 0

	return summary
}

func findCriticalPoints(
	trajectory entities.StockTrajectory,
	analysis entities.DemandAnalysis,
	ctx entities.PlanningContext,
) []CriticalPoint {
	var points []CriticalPoint
	for _, p := range trajectory.Points() {
		coverage := 0.0
		if analysis.DailyMean > 0 && p.Stock > 0 {
			coverage = p.Stock / analysis.DailyMean
		}

		var severity string
		switch {
		case p.Stock < 0:
			severity = SeverityCritical
		case p.Stock < ctx.AbsoluteMinimumStock:
			severity = SeverityLow
		case ctx.SafetyDays > 0 && coverage < float64(ctx.SafetyDays):
			severity = SeverityWatch
		default:
			continue
		}
		points = append(points, CriticalPoint{
			Date:           p.Date,
			Stock:          p.Stock,
			DaysOfCoverage: round2(coverage),
			Severity:       severity,
		})
	}
	return points
}

func buildEfficiency(
	batches []entities.Batch,
	schedule entities.DemandSchedule,
	ctx entities.PlanningContext,
) ProductionEfficiency {
	eff := ProductionEfficiency{}
	if len(batches) == 0 {
		return eff
	}

	var totalQty float64
	var consolidations int
	savings := decimal.Zero
	for _, b := range batches {
		totalQty += b.Quantity
		if s, ok := b.Analytics.Extra["consolidation_savings"].(float64); ok {
			savings = savings.Add(decimal.NewFromFloat(s))
			consolidations++
		}
	}

	eff.AverageBatchSize = round2(totalQty / float64(len(batches)))
	if days := ctx.PlanningWindow.Days(); days > 0 {
		eff.BatchesPerMonth = round2(float64(len(batches)) / float64(days) * 30)
	}
	eff.TotalSetupCost = ctx.Params.SetupCost.
		Mul(decimal.NewFromInt(int64(len(batches)))).Round(2).InexactFloat64()
	eff.ConsolidationSavings = savings.Round(2).InexactFloat64()
	eff.ConsolidationsApplied = consolidations

	// Rough holding estimate: average on-hand quantity carried over the window.
	if horizon := schedule.HorizonDays(); horizon > 0 {
		avgCarried := totalQty / 2
		eff.EstimatedHoldingCost = services.EstimatedHoldingCost(ctx, avgCarried, horizon).
			Round(2).InexactFloat64()
	}

	return eff
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
