package dto

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmrp/replan/pkg/application/services/planner"
	"github.com/openmrp/replan/pkg/domain/entities"
)

func exampleJSON() []byte {
	return []byte(`{
		"demand_schedule": {"2024-01-15": 500, "2024-02-05": 800, "2024-03-10": 600},
		"initial_stock": 200,
		"lead_time_days": 7,
		"planning_window": {"start": "2024-01-01", "end": "2024-03-31"},
		"ordering_window": {"start_cutoff": "2024-01-01", "end_cutoff": "2024-04-15"},
		"policy": {"safety_margin_percent": 10, "safety_days": 2, "unit_cost": 12.5}
	}`)
}

func TestPlanRequest_ToDomain(t *testing.T) {
	var req PlanRequest
	require.NoError(t, json.Unmarshal(exampleJSON(), &req))

	domain, err := req.ToDomain()
	require.NoError(t, err)

	assert.Equal(t, 3, domain.Schedule.Len())
	assert.InDelta(t, 1900, domain.Schedule.Total(), 1e-9)
	assert.Equal(t, 200.0, domain.Context.InitialStock)
	assert.Equal(t, 7, domain.Context.LeadTimeDays)
	assert.Equal(t, entities.BracketShort, domain.Context.Bracket)
	assert.Equal(t, 2, domain.Context.SafetyDays)
	assert.Equal(t, 10.0, domain.Context.SafetyMarginPercent)
	assert.Equal(t, "12.5", domain.Context.UnitCost.String())
}

func TestPlanRequest_PolicyOverrides(t *testing.T) {
	var req PlanRequest
	require.NoError(t, json.Unmarshal(exampleJSON(), &req))

	disabled := false
	maxBatches := 5
	req.Policy.EnableConsolidation = &disabled
	req.Policy.MaxBatchesLongLeadtime = &maxBatches

	domain, err := req.ToDomain()
	require.NoError(t, err)
	assert.False(t, domain.Context.Params.EnableConsolidation)
	assert.Equal(t, 5, domain.Context.Params.MaxBatchesLongLeadtime)
	// Untouched fields keep their defaults.
	assert.True(t, domain.Context.Params.EnableEOQOptimization)
	assert.Equal(t, 0.95, domain.Context.Params.ServiceLevel)
}

func TestPlanRequest_ToDomainWithConfiguredBase(t *testing.T) {
	var req PlanRequest
	require.NoError(t, json.Unmarshal(exampleJSON(), &req))
	req.Policy.SafetyDays = nil

	base := entities.DefaultOptimizationParams()
	base.SafetyDays = 6
	base.ConsolidationWindowDays = 10

	domain, err := req.ToDomainWith(base)
	require.NoError(t, err)
	assert.Equal(t, 6, domain.Context.SafetyDays)
	assert.Equal(t, 6, domain.Context.Params.SafetyDays)
	assert.Equal(t, 10, domain.Context.Params.ConsolidationWindowDays)

	// A value set in the request still wins over the base.
	one := 1
	req.Policy.SafetyDays = &one
	domain, err = req.ToDomainWith(base)
	require.NoError(t, err)
	assert.Equal(t, 1, domain.Context.SafetyDays)
}

func TestPlanRequest_MalformedDate(t *testing.T) {
	var req PlanRequest
	require.NoError(t, json.Unmarshal(exampleJSON(), &req))
	req.PlanningWindow.Start = "15/01/2024"

	_, err := req.ToDomain()
	require.Error(t, err)
	var verr *entities.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "planning_window", verr.Field)
}

func TestPlanRequest_EndBeforeStart(t *testing.T) {
	var req PlanRequest
	require.NoError(t, json.Unmarshal(exampleJSON(), &req))
	req.OrderingWindow.EndCutoff = "2023-01-01"

	_, err := req.ToDomain()
	var verr *entities.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "ordering_window", verr.Field)
}

func TestPlanResponse_RoundTrip(t *testing.T) {
	var req PlanRequest
	require.NoError(t, json.Unmarshal(exampleJSON(), &req))
	domain, err := req.ToDomain()
	require.NoError(t, err)

	result, err := planner.New(nil).PlanBatches(context.Background(), domain)
	require.NoError(t, err)
	response := FromResult(result)

	encoded, err := json.Marshal(response)
	require.NoError(t, err)

	var decoded PlanResponse
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	require.Len(t, decoded.Batches, len(result.Batches))
	for i, b := range decoded.Batches {
		assert.InDelta(t, result.Batches[i].Quantity, b.Quantity, 1e-3)
		assert.Equal(t, entities.FormatDay(result.Batches[i].OrderDate), b.OrderDate)
		assert.Equal(t, entities.FormatDay(result.Batches[i].ArrivalDate), b.ArrivalDate)
		assert.NotEmpty(t, b.Analytics.UrgencyLevel)
	}

	summary := decoded.Analytics.Summary
	assert.Equal(t, result.Analytics.Summary.TotalBatches, summary.TotalBatches)
	assert.InDelta(t, result.Analytics.Summary.FinalStock, summary.FinalStock, 1e-3)
	assert.Equal(t, result.Analytics.Summary.StockoutOccurred, summary.StockoutOccurred)
	assert.NotEmpty(t, decoded.Analytics.StockEvolution)
	assert.Equal(t, "short_leadtime", decoded.Strategy)
}

func TestJSONSafe_NeverEmitsNaNOrInfinity(t *testing.T) {
	assert.Equal(t, 0.0, jsonSafe(math.NaN()))
	assert.Equal(t, math.MaxFloat64, jsonSafe(math.Inf(1)))
	assert.Equal(t, -math.MaxFloat64, jsonSafe(math.Inf(-1)))
	assert.InDelta(t, 1.234568, jsonSafe(1.23456789), 1e-9)
}

func TestBatchDTO_SanitizesExtraFloats(t *testing.T) {
	b, err := entities.NewBatch(
		mustParse(t, "2024-01-06"), mustParse(t, "2024-01-13"), 500, entities.StandardBatch)
	require.NoError(t, err)
	b.Analytics.Extra = map[string]any{
		"correction_amount": math.NaN(),
		"covers_demands":    []string{"2024-01-15"},
	}

	dto := batchDTO(b)
	assert.Equal(t, 0.0, dto.Analytics.Extra["correction_amount"])
	assert.Equal(t, []string{"2024-01-15"}, dto.Analytics.Extra["covers_demands"])

	encoded, err := json.Marshal(dto)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "NaN")
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := entities.ParseDay(s)
	require.NoError(t, err)
	return parsed
}
