package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openmrp/replan/pkg/application/dto"
	"github.com/openmrp/replan/pkg/application/services/planner"
	"github.com/openmrp/replan/pkg/domain/entities"
	"github.com/openmrp/replan/pkg/domain/services"
	"github.com/openmrp/replan/pkg/interfaces/cli/output"
)

func main() {
	ctx := context.Background()

	// Three demands over Q1 2024, a week of lead time, stock covering part of
	// the first demand. A fourth demand past the planning window demonstrates
	// the forecaster seam trimming to the horizon.
	known, err := entities.NewDemandSchedule(map[string]float64{
		"2024-01-15": 500,
		"2024-02-05": 800,
		"2024-03-10": 600,
		"2024-05-20": 950,
	})
	if err != nil {
		fail(err)
	}

	planningWindow, err := entities.NewDateWindow(
		mustDay("2024-01-01"), mustDay("2024-03-31"))
	if err != nil {
		fail(err)
	}

	forecaster := services.FixedForecaster{Schedule: known}
	schedule, err := forecaster.Forecast(ctx, entities.DemandSchedule{}, planningWindow)
	if err != nil {
		fail(err)
	}
	orderingWindow, err := entities.NewDateWindow(
		mustDay("2024-01-01"), mustDay("2024-04-15"))
	if err != nil {
		fail(err)
	}

	pctx, err := entities.NewPlanningContext(200, 7,
		planningWindow, orderingWindow, entities.DefaultOptimizationParams())
	if err != nil {
		fail(err)
	}
	pctx.SafetyMarginPercent = 10
	pctx.SafetyDays = 2
	pctx.UnitCost = decimal.NewFromFloat(12.5)

	fmt.Println("🏭 Planning batches for a single item...")
	fmt.Printf("Demand: %.0f units across %d events, lead time %d days\n\n",
		schedule.Total(), schedule.Len(), pctx.LeadTimeDays)

	result, err := planner.New(nil).PlanBatches(ctx, planner.Request{
		Schedule: schedule,
		Context:  pctx,
	})
	if err != nil {
		fail(err)
	}

	if err := output.WriteText(os.Stdout, dto.FromResult(result)); err != nil {
		fail(err)
	}
}

func mustDay(s string) time.Time {
	d, err := entities.ParseDay(s)
	if err != nil {
		fail(err)
	}
	return d
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "❌ %v\n", err)
	os.Exit(1)
}
