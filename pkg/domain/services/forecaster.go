package services

import (
	"context"

	"github.com/openmrp/replan/pkg/domain/entities"
)

// Forecaster is the seam for the external demand-forecasting model. The planning
// engine never forecasts: it consumes a date→quantity schedule that is either
// already known or produced by an implementation of this interface upstream.
type Forecaster interface {
	Forecast(ctx context.Context, history entities.DemandSchedule, horizon entities.DateWindow) (entities.DemandSchedule, error)
}

// FixedForecaster passes a known future schedule through unchanged, for callers
// whose demand dates and quantities are already decided.
type FixedForecaster struct {
	Schedule entities.DemandSchedule
}

// Forecast returns the fixed schedule restricted to the horizon.
func (f FixedForecaster) Forecast(_ context.Context, _ entities.DemandSchedule, horizon entities.DateWindow) (entities.DemandSchedule, error) {
	var entries []entities.DemandEntry
	for _, e := range f.Schedule.Entries() {
		if horizon.Contains(e.Date) {
			entries = append(entries, e)
		}
	}
	return entities.NewDemandScheduleFromEntries(entries)
}
