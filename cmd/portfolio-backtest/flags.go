package main

import "flag"

// Flags holds all command-line flag values
type Flags struct {
	PortfolioFile *string
	DataDir       *string
	ConfigFile    *string
	Workers       *int
	Optimize      *bool
	Partial       *bool
	Strict        *bool
	OutputDir     *string
	MetricsPort   *int
	LogLevel      *string
	Verbose       *bool
}

// ParseFlags defines and parses command-line flags
func ParseFlags() *Flags {
	flags := &Flags{
		PortfolioFile: flag.String("portfolio", "", "Path to portfolio JSON file (required)"),
		DataDir:       flag.String("data-dir", "data", "Directory holding <symbol>.csv price files"),
		ConfigFile:    flag.String("config", "", "Path to engine configuration file (optional)"),
		Workers:       flag.Int("workers", 0, "Parallel backtest workers (0 = one per CPU)"),
		Optimize:      flag.Bool("optimize", false, "Search for Sharpe-optimal weights before aggregating"),
		Partial:       flag.Bool("partial", false, "Tolerate failed holdings and renormalize weights"),
		Strict:        flag.Bool("strict", false, "Fail on equity-curve date misalignment instead of forward-filling"),
		OutputDir:     flag.String("output", "results", "Output directory for reports"),
		MetricsPort:   flag.Int("metrics-port", 0, "Port for the Prometheus metrics endpoint (0 = disabled)"),
		LogLevel:      flag.String("log-level", "info", "Log level (debug, info, warn, error)"),
		Verbose:       flag.Bool("verbose", false, "Human-readable colored log output"),
	}

	flag.Parse()
	return flags
}

// Validate checks if required flags are provided
func (f *Flags) Validate() error {
	if *f.PortfolioFile == "" {
		return &ValidationError{Field: "portfolio", Message: "portfolio file path is required"}
	}
	return nil
}

// ValidationError represents a flag validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
