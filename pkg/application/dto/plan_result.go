package dto

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openmrp/replan/pkg/application/services/planner"
	"github.com/openmrp/replan/pkg/application/services/postprocess"
	"github.com/openmrp/replan/pkg/domain/entities"
)

// resultPrecision bounds every float emitted on the wire.
const resultPrecision = 6

// PlanResponse is the JSON-serialization-safe rendering of a planning result:
// ISO date strings, no NaN or Infinity, bounded decimal precision, native
// types only.
type PlanResponse struct {
	RunID     string       `json:"run_id"`
	Strategy  string       `json:"strategy"`
	Batches   []BatchDTO   `json:"batches"`
	Analytics AnalyticsDTO `json:"analytics"`
}

// BatchDTO is one planned batch on the wire.
type BatchDTO struct {
	OrderDate         string            `json:"order_date"`
	ArrivalDate       string            `json:"arrival_date"`
	Quantity          float64           `json:"quantity"`
	Kind              string            `json:"kind"`
	BoundaryException bool              `json:"boundary_exception,omitempty"`
	Analytics         BatchAnalyticsDTO `json:"analytics"`
}

// BatchAnalyticsDTO carries the baseline per-batch metrics plus the
// strategy-specific extension map.
type BatchAnalyticsDTO struct {
	Strategy             string         `json:"strategy"`
	StockBeforeArrival   float64        `json:"stock_before_arrival"`
	StockAfterArrival    float64        `json:"stock_after_arrival"`
	CoverageDays         float64        `json:"coverage_days"`
	ActualLeadTime       int            `json:"actual_lead_time"`
	UrgencyLevel         string         `json:"urgency_level"`
	TargetDemandDate     string         `json:"target_demand_date"`
	TargetDemandQuantity float64        `json:"target_demand_quantity"`
	IsCritical           bool           `json:"is_critical"`
	EfficiencyRatio      float64        `json:"efficiency_ratio"`
	Extra                map[string]any `json:"extra,omitempty"`
}

// AnalyticsDTO is the aggregate analytics block.
type AnalyticsDTO struct {
	Summary              SummaryDTO              `json:"summary"`
	StockEvolution       map[string]float64      `json:"stock_evolution"`
	CriticalPoints       []CriticalPointDTO      `json:"critical_points"`
	DemandAnalysis       DemandAnalysisDTO       `json:"demand_analysis"`
	ProductionEfficiency ProductionEfficiencyDTO `json:"production_efficiency"`
}

// SummaryDTO mirrors postprocess.PlanSummary.
type SummaryDTO struct {
	InitialStock           float64          `json:"initial_stock"`
	FinalStock             float64          `json:"final_stock"`
	MinimumStock           float64          `json:"minimum_stock"`
	MinimumStockDate       string           `json:"minimum_stock_date,omitempty"`
	StockoutOccurred       bool             `json:"stockout_occurred"`
	TotalBatches           int              `json:"total_batches"`
	TotalProduced          float64          `json:"total_produced"`
	ProductionCoverageRate float64          `json:"production_coverage_rate"`
	DemandFulfillmentRate  float64          `json:"demand_fulfillment_rate"`
	DemandsMetCount        int              `json:"demands_met_count"`
	DemandsUnmetCount      int              `json:"demands_unmet_count"`
	UnmetDemandDetails     []UnmetDemandDTO `json:"unmet_demand_details,omitempty"`
}

// UnmetDemandDTO itemizes one unserved demand.
type UnmetDemandDTO struct {
	Date      string  `json:"date"`
	Required  float64 `json:"required"`
	Available float64 `json:"available"`
	Shortfall float64 `json:"shortfall"`
}

// CriticalPointDTO marks one date needing attention.
type CriticalPointDTO struct {
	Date           string  `json:"date"`
	Stock          float64 `json:"stock"`
	DaysOfCoverage float64 `json:"days_of_coverage"`
	Severity       string  `json:"severity"`
}

// DemandAnalysisDTO mirrors entities.DemandAnalysis.
type DemandAnalysisDTO struct {
	EventCount        int     `json:"event_count"`
	HorizonDays       int     `json:"horizon_days"`
	TotalDemand       float64 `json:"total_demand"`
	MeanDemand        float64 `json:"mean_demand"`
	StdDemand         float64 `json:"std_demand"`
	CV                float64 `json:"cv"`
	DailyMean         float64 `json:"daily_mean"`
	ABCClass          string  `json:"abc_class"`
	XYZClass          string  `json:"xyz_class"`
	MeanIntervalDays  float64 `json:"mean_interval_days"`
	StdIntervalDays   float64 `json:"std_interval_days"`
	IntervalCV        float64 `json:"interval_cv"`
	RegularityScore   float64 `json:"regularity_score"`
	Seasonal          bool    `json:"seasonal"`
	SeasonalStrength  float64 `json:"seasonal_strength"`
	TrendSlope        float64 `json:"trend_slope"`
	TrendSignificance string  `json:"trend_significance"`
	Trending          bool    `json:"trending"`
}

// ProductionEfficiencyDTO mirrors postprocess.ProductionEfficiency.
type ProductionEfficiencyDTO struct {
	AverageBatchSize      float64 `json:"average_batch_size"`
	BatchesPerMonth       float64 `json:"batches_per_month"`
	TotalSetupCost        float64 `json:"total_setup_cost"`
	EstimatedHoldingCost  float64 `json:"estimated_holding_cost"`
	ConsolidationSavings  float64 `json:"consolidation_savings"`
	ConsolidationsApplied int     `json:"consolidations_applied"`
}

// FromResult renders a planning result for JSON serialization.
func FromResult(result planner.Result) PlanResponse {
	batches := make([]BatchDTO, len(result.Batches))
	for i, b := range result.Batches {
		batches[i] = batchDTO(b)
	}

	return PlanResponse{
		RunID:    result.RunID,
		Strategy: result.Strategy,
		Batches:  batches,
		Analytics: AnalyticsDTO{
			Summary:              summaryDTO(result.Analytics.Summary),
			StockEvolution:       stockEvolutionDTO(result.Analytics.StockEvolution),
			CriticalPoints:       criticalPointsDTO(result.Analytics.CriticalPoints),
			DemandAnalysis:       demandAnalysisDTO(result.Analytics.DemandAnalysis),
			ProductionEfficiency: efficiencyDTO(result.Analytics.ProductionEfficiency),
		},
	}
}

func batchDTO(b entities.Batch) BatchDTO {
	return BatchDTO{
		OrderDate:         entities.FormatDay(b.OrderDate),
		ArrivalDate:       entities.FormatDay(b.ArrivalDate),
		Quantity:          jsonSafe(b.Quantity),
		Kind:              b.Kind.String(),
		BoundaryException: b.BoundaryException,
		Analytics: BatchAnalyticsDTO{
			Strategy:             b.Analytics.Strategy,
			StockBeforeArrival:   jsonSafe(b.Analytics.StockBeforeArrival),
			StockAfterArrival:    jsonSafe(b.Analytics.StockAfterArrival),
			CoverageDays:         jsonSafe(b.Analytics.CoverageDays),
			ActualLeadTime:       b.Analytics.ActualLeadTime,
			UrgencyLevel:         string(b.Analytics.UrgencyLevel),
			TargetDemandDate:     formatOptionalDay(b.Analytics.TargetDemandDate),
			TargetDemandQuantity: jsonSafe(b.Analytics.TargetDemandQuantity),
			IsCritical:           b.Analytics.IsCritical,
			EfficiencyRatio:      jsonSafe(b.Analytics.EfficiencyRatio),
			Extra:                sanitizeExtra(b.Analytics.Extra),
		},
	}
}

func summaryDTO(s postprocess.PlanSummary) SummaryDTO {
	unmet := make([]UnmetDemandDTO, len(s.UnmetDemandDetails))
	for i, u := range s.UnmetDemandDetails {
		unmet[i] = UnmetDemandDTO{
			Date:      entities.FormatDay(u.Date),
			Required:  jsonSafe(u.Required),
			Available: jsonSafe(u.Available),
			Shortfall: jsonSafe(u.Shortfall),
		}
	}
	return SummaryDTO{
		InitialStock:           jsonSafe(s.InitialStock),
		FinalStock:             jsonSafe(s.FinalStock),
		MinimumStock:           jsonSafe(s.MinimumStock),
		MinimumStockDate:       formatOptionalDay(s.MinimumStockDate),
		StockoutOccurred:       s.StockoutOccurred,
		TotalBatches:           s.TotalBatches,
		TotalProduced:          jsonSafe(s.TotalProduced),
		ProductionCoverageRate: jsonSafe(s.ProductionCoverageRate),
		DemandFulfillmentRate:  jsonSafe(s.DemandFulfillmentRate),
		DemandsMetCount:        s.DemandsMetCount,
		DemandsUnmetCount:      s.DemandsUnmetCount,
		UnmetDemandDetails:     unmet,
	}
}

func stockEvolutionDTO(trajectory entities.StockTrajectory) map[string]float64 {
	points := trajectory.Points()
	out := make(map[string]float64, len(points))
	for _, p := range points {
		out[entities.FormatDay(p.Date)] = jsonSafe(p.Stock)
	}
	return out
}

func criticalPointsDTO(points []postprocess.CriticalPoint) []CriticalPointDTO {
	out := make([]CriticalPointDTO, len(points))
	for i, p := range points {
		out[i] = CriticalPointDTO{
			Date:           entities.FormatDay(p.Date),
			Stock:          jsonSafe(p.Stock),
			DaysOfCoverage: jsonSafe(p.DaysOfCoverage),
			Severity:       p.Severity,
		}
	}
	return out
}

func demandAnalysisDTO(a entities.DemandAnalysis) DemandAnalysisDTO {
	return DemandAnalysisDTO{
		EventCount:        a.EventCount,
		HorizonDays:       a.HorizonDays,
		TotalDemand:       jsonSafe(a.TotalDemand),
		MeanDemand:        jsonSafe(a.MeanDemand),
		StdDemand:         jsonSafe(a.StdDemand),
		CV:                jsonSafe(a.CV),
		DailyMean:         jsonSafe(a.DailyMean),
		ABCClass:          string(a.ABC),
		XYZClass:          string(a.XYZ),
		MeanIntervalDays:  jsonSafe(a.MeanIntervalDays),
		StdIntervalDays:   jsonSafe(a.StdIntervalDays),
		IntervalCV:        jsonSafe(a.IntervalCV),
		RegularityScore:   jsonSafe(a.RegularityScore),
		Seasonal:          a.Seasonal,
		SeasonalStrength:  jsonSafe(a.SeasonalStrength),
		TrendSlope:        jsonSafe(a.TrendSlope),
		TrendSignificance: string(a.TrendSignificance),
		Trending:          a.Trending,
	}
}

func efficiencyDTO(e postprocess.ProductionEfficiency) ProductionEfficiencyDTO {
	return ProductionEfficiencyDTO{
		AverageBatchSize:      jsonSafe(e.AverageBatchSize),
		BatchesPerMonth:       jsonSafe(e.BatchesPerMonth),
		TotalSetupCost:        jsonSafe(e.TotalSetupCost),
		EstimatedHoldingCost:  jsonSafe(e.EstimatedHoldingCost),
		ConsolidationSavings:  jsonSafe(e.ConsolidationSavings),
		ConsolidationsApplied: e.ConsolidationsApplied,
	}
}

// jsonSafe makes a float JSON-serializable: NaN collapses to 0, infinities to
// the largest finite float, and precision is bounded.
func jsonSafe(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return decimal.NewFromFloat(v).Round(resultPrecision).InexactFloat64()
}

// sanitizeExtra applies jsonSafe to every float in the extension map. Nested
// values are already native slices and scalars by construction.
func sanitizeExtra(extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		if f, ok := v.(float64); ok {
			out[k] = jsonSafe(f)
			continue
		}
		out[k] = v
	}
	return out
}

func formatOptionalDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return entities.FormatDay(t)
}
