package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/openmrp/replan/pkg/application/dto"
	"github.com/openmrp/replan/pkg/application/services/planner"
	"github.com/openmrp/replan/pkg/domain/entities"
	"github.com/openmrp/replan/pkg/interfaces/cli/output"
)

// Config holds configuration for the plan command
type Config struct {
	InputFile  string
	OutputFile string
	Format     string
	Verbose    bool
	Help       bool
}

// PlanCommand reads a planning request, runs the engine and writes the plan.
type PlanCommand struct {
	config  Config
	planner *planner.Planner
	policy  entities.OptimizationParams
}

// NewPlanCommand creates a new plan command with the given configuration. The
// policy is the configured base applied to requests that omit their own.
func NewPlanCommand(config Config, p *planner.Planner, policy entities.OptimizationParams) *PlanCommand {
	return &PlanCommand{config: config, planner: p, policy: policy}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	request, err := c.readRequest()
	if err != nil {
		return err
	}

	domain, err := request.ToDomainWith(c.policy)
	if err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(os.Stderr, "Planning %d demand events, lead time %d days, bracket %s\n",
			domain.Schedule.Len(), domain.Context.LeadTimeDays, domain.Context.Bracket)
	}

	result, err := c.planner.PlanBatches(ctx, domain)
	if err != nil {
		return err
	}

	return output.Generate(dto.FromResult(result), output.Config{
		Format:     c.config.Format,
		OutputFile: c.config.OutputFile,
	})
}

// readRequest loads the JSON request from the input file, or stdin when the
// file is "-" or unset.
func (c *PlanCommand) readRequest() (dto.PlanRequest, error) {
	var reader io.Reader = os.Stdin
	if c.config.InputFile != "" && c.config.InputFile != "-" {
		f, err := os.Open(c.config.InputFile)
		if err != nil {
			return dto.PlanRequest{}, fmt.Errorf("failed to open input file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	}

	var request dto.PlanRequest
	if err := json.NewDecoder(reader).Decode(&request); err != nil {
		return dto.PlanRequest{}, fmt.Errorf("failed to decode request JSON: %w", err)
	}
	return request, nil
}

func (c *PlanCommand) showHelp() {
	fmt.Println(`replan - per-item batch planning

Usage:
  replan [flags]

Reads a JSON planning request from -input (or stdin) and writes the plan.

Request format:
  {
    "demand_schedule": {"2024-01-15": 500, ...},
    "initial_stock": 200,
    "lead_time_days": 7,
    "planning_window": {"start": "2024-01-01", "end": "2024-03-31"},
    "ordering_window": {"start_cutoff": "2024-01-01", "end_cutoff": "2024-04-15"},
    "policy": {"safety_days": 2, "safety_margin_percent": 10, ...}
  }

Flags:
  -input    Path to request JSON ("-" for stdin)
  -output   Output file (default: stdout)
  -format   Output format: text, json (default: text)
  -verbose  Log planning details to stderr
  -help     Show this message`)
}
