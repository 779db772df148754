package entities

// ABCClass segments demand by total value.
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// XYZClass segments demand by variability.
type XYZClass string

const (
	ClassX XYZClass = "X"
	ClassY XYZClass = "Y"
	ClassZ XYZClass = "Z"
)

// TrendSignificance buckets the strength of a detected demand trend.
type TrendSignificance string

const (
	TrendLow    TrendSignificance = "low"
	TrendMedium TrendSignificance = "medium"
	TrendHigh   TrendSignificance = "high"
)

// DemandAnalysis is the derived statistical profile of a demand schedule. It is
// a pure function of the schedule and lead time, recomputed each run.
type DemandAnalysis struct {
	EventCount  int
	HorizonDays int

	TotalDemand float64
	MeanDemand  float64 // mean per demand event
	StdDemand   float64 // population std per event
	CV          float64 // std/mean, 0 when mean is 0
	DailyMean   float64 // total demand / horizon days

	ABC ABCClass
	XYZ XYZClass

	MeanIntervalDays float64
	StdIntervalDays  float64
	IntervalCV       float64
	RegularityScore  float64 // 1/(1+interval CV), clamped to [0,1]

	Seasonal         bool
	SeasonalStrength float64

	TrendSlope        float64 // per-event slope of quantity over day index
	TrendSignificance TrendSignificance
	Trending          bool
}

// HighVariability reports whether demand quantities are erratic enough to favor
// conservative safety-stock formulas.
func (a DemandAnalysis) HighVariability() bool {
	return a.XYZ == ClassZ
}

// NeutralAnalysis is the fallback profile for empty schedules: zero volume,
// lowest value class, highest variability class.
func NeutralAnalysis() DemandAnalysis {
	return DemandAnalysis{
		ABC:               ClassC,
		XYZ:               ClassZ,
		IntervalCV:        1,
		RegularityScore:   0.5,
		TrendSignificance: TrendLow,
	}
}
