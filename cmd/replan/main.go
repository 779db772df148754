package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/openmrp/replan/pkg/application/services/planner"
	"github.com/openmrp/replan/pkg/infrastructure/config"
	"github.com/openmrp/replan/pkg/infrastructure/logging"
	"github.com/openmrp/replan/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		inputFile  = flag.String("input", "", `Path to request JSON ("-" for stdin)`)
		outputFile = flag.String("output", "", "Output file (default: stdout)")
		format     = flag.String("format", "text", "Output format: text, json")
		verbose    = flag.Bool("verbose", false, "Log planning details to stderr")
		help       = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	// Best effort: local development keeps overrides in .env.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	cmdConfig := commands.Config{
		InputFile:  *inputFile,
		OutputFile: *outputFile,
		Format:     *format,
		Verbose:    *verbose,
		Help:       *help,
	}

	var p *planner.Planner
	if *verbose {
		p = planner.NewWithAnalyzer(cfg.AnalyzerConfig(), logging.New(cfg.LogLevel, cfg.Environment))
	} else {
		p = planner.NewWithAnalyzer(cfg.AnalyzerConfig(), nil)
	}

	cmd := commands.NewPlanCommand(cmdConfig, p, cfg.Params())
	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
