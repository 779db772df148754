package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/openmrp/replan/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format     string
	OutputFile string
}

// Generate renders the plan in the configured format, to stdout or to a file.
func Generate(response dto.PlanResponse, config Config) error {
	w := io.Writer(os.Stdout)
	if config.OutputFile != "" {
		f, err := os.Create(config.OutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	switch config.Format {
	case "text":
		return WriteText(w, response)
	case "json":
		return WriteJSON(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// WriteJSON renders the plan as indented JSON.
func WriteJSON(w io.Writer, response dto.PlanResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(response)
}

// WriteText renders a human-readable plan report.
func WriteText(w io.Writer, response dto.PlanResponse) error {
	summary := response.Analytics.Summary

	fmt.Fprintf(w, "📊 Batch Plan (%s)\n", response.Strategy)
	fmt.Fprintf(w, "Run: %s\n\n", response.RunID)

	if len(response.Batches) == 0 {
		fmt.Fprintln(w, "No batches needed: initial stock covers all demand.")
	} else {
		fmt.Fprintf(w, "%-12s %-12s %12s %-12s %-9s %s\n",
			"Order", "Arrival", "Quantity", "Kind", "Urgency", "Coverage")
		for _, b := range response.Batches {
			fmt.Fprintf(w, "%-12s %-12s %12.2f %-12s %-9s %.1f days\n",
				b.OrderDate, b.ArrivalDate, b.Quantity, b.Kind,
				b.Analytics.UrgencyLevel, b.Analytics.CoverageDays)
		}
	}

	fmt.Fprintf(w, "\nSummary\n")
	fmt.Fprintf(w, "  Initial stock:      %.2f\n", summary.InitialStock)
	fmt.Fprintf(w, "  Total produced:     %.2f (%d batches)\n", summary.TotalProduced, summary.TotalBatches)
	fmt.Fprintf(w, "  Final stock:        %.2f\n", summary.FinalStock)
	fmt.Fprintf(w, "  Minimum stock:      %.2f", summary.MinimumStock)
	if summary.MinimumStockDate != "" {
		fmt.Fprintf(w, " on %s", summary.MinimumStockDate)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Demand fulfillment: %.1f%% (%d met, %d unmet)\n",
		summary.DemandFulfillmentRate, summary.DemandsMetCount, summary.DemandsUnmetCount)

	if summary.StockoutOccurred {
		fmt.Fprintf(w, "\n⚠️  Stockout projected. Unmet demands:\n")
		for _, u := range summary.UnmetDemandDetails {
			fmt.Fprintf(w, "  %s  required %.2f, available %.2f (short %.2f)\n",
				u.Date, u.Required, u.Available, u.Shortfall)
		}
	}

	if n := len(response.Analytics.CriticalPoints); n > 0 {
		counts := map[string]int{}
		for _, p := range response.Analytics.CriticalPoints {
			counts[p.Severity]++
		}
		severities := make([]string, 0, len(counts))
		for s := range counts {
			severities = append(severities, s)
		}
		sort.Strings(severities)
		fmt.Fprintf(w, "\nCritical points: %d (", n)
		for i, s := range severities {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprintf(w, "%d %s", counts[s], s)
		}
		fmt.Fprintln(w, ")")
	}

	eff := response.Analytics.ProductionEfficiency
	if summary.TotalBatches > 0 {
		fmt.Fprintf(w, "\nEfficiency\n")
		fmt.Fprintf(w, "  Average batch size: %.2f\n", eff.AverageBatchSize)
		fmt.Fprintf(w, "  Batches per month:  %.2f\n", eff.BatchesPerMonth)
		fmt.Fprintf(w, "  Setup cost:         %.2f\n", eff.TotalSetupCost)
		fmt.Fprintf(w, "  Est. holding cost:  %.2f\n", eff.EstimatedHoldingCost)
		if eff.ConsolidationsApplied > 0 {
			fmt.Fprintf(w, "  Consolidations:     %d (saved %.2f)\n",
				eff.ConsolidationsApplied, eff.ConsolidationSavings)
		}
	}

	return nil
}
