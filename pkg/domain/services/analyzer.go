package services

import (
	"math"

	"github.com/openmrp/replan/pkg/domain/entities"
)

// AnalyzerConfig exposes the classification thresholds as policy rather than
// hard business law.
type AnalyzerConfig struct {
	// ABC value thresholds: total demand above A is class A, above B class B.
	ABCThresholdA float64
	ABCThresholdB float64
	// XYZ variability thresholds on the coefficient of variation.
	XYZThresholdX float64
	XYZThresholdY float64
	// SeasonalVarianceRatio is the between-group/overall variance ratio above
	// which weekday grouping counts as a seasonal signal.
	SeasonalVarianceRatio float64
	// MinSeasonalHorizonDays is the shortest horizon worth testing for seasonality.
	MinSeasonalHorizonDays int
	// Normalized trend slope buckets.
	TrendSlopeMedium float64
	TrendSlopeHigh   float64
}

// DefaultAnalyzerConfig returns the shipped classification thresholds.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		ABCThresholdA:          10000,
		ABCThresholdB:          2000,
		XYZThresholdX:          0.3,
		XYZThresholdY:          0.7,
		SeasonalVarianceRatio:  0.5,
		MinSeasonalHorizonDays: 56,
		TrendSlopeMedium:       0.1,
		TrendSlopeHigh:         0.3,
	}
}

// DemandAnalyzer computes the descriptive statistics higher strategies use to
// pick their parameters.
type DemandAnalyzer struct {
	cfg AnalyzerConfig
}

// NewDemandAnalyzer creates an analyzer with the given thresholds.
func NewDemandAnalyzer(cfg AnalyzerConfig) *DemandAnalyzer {
	return &DemandAnalyzer{cfg: cfg}
}

// Analyze profiles a demand schedule. An empty schedule yields the neutral
// analysis instead of an error; single-event schedules fall back to a mid
// regularity score since no interval statistics exist.
func (a *DemandAnalyzer) Analyze(schedule entities.DemandSchedule, leadTimeDays int) entities.DemandAnalysis {
	if schedule.IsEmpty() {
		return entities.NeutralAnalysis()
	}

	entries := schedule.Entries()
	quantities := make([]float64, len(entries))
	for i, e := range entries {
		quantities[i] = e.Quantity
	}

	analysis := entities.DemandAnalysis{
		EventCount:  len(entries),
		HorizonDays: schedule.HorizonDays(),
		TotalDemand: schedule.Total(),
	}

	analysis.MeanDemand = mean(quantities)
	analysis.StdDemand = populationStd(quantities, analysis.MeanDemand)
	if analysis.MeanDemand > 0 {
		analysis.CV = analysis.StdDemand / analysis.MeanDemand
	}
	if analysis.HorizonDays > 0 {
		analysis.DailyMean = analysis.TotalDemand / float64(analysis.HorizonDays)
	}

	analysis.ABC = a.classifyABC(analysis.TotalDemand)
	analysis.XYZ = a.classifyXYZ(analysis.CV)

	a.analyzeIntervals(entries, &analysis)
	a.analyzeSeasonality(entries, &analysis)
	a.analyzeTrend(entries, &analysis)

	return analysis
}

func (a *DemandAnalyzer) classifyABC(total float64) entities.ABCClass {
	switch {
	case total > a.cfg.ABCThresholdA:
		return entities.ClassA
	case total > a.cfg.ABCThresholdB:
		return entities.ClassB
	default:
		return entities.ClassC
	}
}

func (a *DemandAnalyzer) classifyXYZ(cv float64) entities.XYZClass {
	switch {
	case cv < a.cfg.XYZThresholdX:
		return entities.ClassX
	case cv < a.cfg.XYZThresholdY:
		return entities.ClassY
	default:
		return entities.ClassZ
	}
}

func (a *DemandAnalyzer) analyzeIntervals(entries []entities.DemandEntry, analysis *entities.DemandAnalysis) {
	if len(entries) < 2 {
		// No intervals to measure; treat spacing as moderately irregular.
		analysis.IntervalCV = 1
		analysis.RegularityScore = 0.5
		return
	}

	intervals := make([]float64, 0, len(entries)-1)
	for i := 1; i < len(entries); i++ {
		intervals = append(intervals, float64(entities.DaysBetween(entries[i-1].Date, entries[i].Date)))
	}

	analysis.MeanIntervalDays = mean(intervals)
	analysis.StdIntervalDays = populationStd(intervals, analysis.MeanIntervalDays)
	if analysis.MeanIntervalDays > 0 {
		analysis.IntervalCV = analysis.StdIntervalDays / analysis.MeanIntervalDays
	}
	analysis.RegularityScore = clamp(1.0/(1.0+analysis.IntervalCV), 0, 1)
}

// analyzeSeasonality applies a coarse weekday-grouping variance test. It is a
// soft signal for batch sizing, never a hard gate.
func (a *DemandAnalyzer) analyzeSeasonality(entries []entities.DemandEntry, analysis *entities.DemandAnalysis) {
	if analysis.HorizonDays < a.cfg.MinSeasonalHorizonDays || len(entries) < 8 {
		return
	}

	var overall []float64
	groups := make(map[int][]float64)
	for _, e := range entries {
		wd := int(e.Date.Weekday())
		groups[wd] = append(groups[wd], e.Quantity)
		overall = append(overall, e.Quantity)
	}
	overallMean := mean(overall)
	overallVar := populationStd(overall, overallMean)
	overallVar *= overallVar
	if overallVar == 0 {
		return
	}

	var between float64
	for _, g := range groups {
		gm := mean(g)
		between += float64(len(g)) * (gm - overallMean) * (gm - overallMean)
	}
	between /= float64(len(overall))

	ratio := between / overallVar
	analysis.SeasonalStrength = clamp(ratio, 0, 1)
	analysis.Seasonal = ratio > a.cfg.SeasonalVarianceRatio
}

// analyzeTrend fits a least-squares line of quantity against day offset and
// buckets the slope, normalized by mean demand over the horizon.
func (a *DemandAnalyzer) analyzeTrend(entries []entities.DemandEntry, analysis *entities.DemandAnalysis) {
	analysis.TrendSignificance = entities.TrendLow
	if len(entries) < 3 || analysis.MeanDemand == 0 {
		return
	}

	xs := make([]float64, len(entries))
	ys := make([]float64, len(entries))
	for i, e := range entries {
		xs[i] = float64(entities.DaysBetween(entries[0].Date, e.Date))
		ys[i] = e.Quantity
	}

	mx, my := mean(xs), mean(ys)
	var num, den float64
	for i := range xs {
		num += (xs[i] - mx) * (ys[i] - my)
		den += (xs[i] - mx) * (xs[i] - mx)
	}
	if den == 0 {
		return
	}
	slope := num / den
	analysis.TrendSlope = slope

	normalized := math.Abs(slope) * float64(analysis.HorizonDays) / analysis.MeanDemand
	switch {
	case normalized >= a.cfg.TrendSlopeHigh:
		analysis.TrendSignificance = entities.TrendHigh
	case normalized >= a.cfg.TrendSlopeMedium:
		analysis.TrendSignificance = entities.TrendMedium
	}
	analysis.Trending = analysis.TrendSignificance != entities.TrendLow
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStd(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
