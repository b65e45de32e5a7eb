package main

import "flag"

// Flags holds all command-line flag values
type Flags struct {
	DataFile   *string
	ConfigFile *string
	Symbol     *string
	Window     *int
	Factor     *float64
	Levels     *int
	Rebalance  *bool
	Neutral    *float64
	Sweep      *string
	Workers    *int
	OutputDir  *string
	JSONOut    *bool
	Report     *bool
	LogLevel   *string
	Verbose    *bool
}

// ParseFlags defines and parses command-line flags
func ParseFlags() *Flags {
	flags := &Flags{
		DataFile:   flag.String("data", "", "Path to daily close CSV file (required)"),
		ConfigFile: flag.String("config", "", "Path to engine configuration file (optional)"),
		Symbol:     flag.String("symbol", "", "ETF symbol label for reports"),
		Window:     flag.Int("window", 0, "Override volatility window (trading days)"),
		Factor:     flag.Float64("factor", 0, "Override volatility-to-spacing adjustment factor"),
		Levels:     flag.Int("levels", -1, "Override grid level count (0 = derive from price range)"),
		Rebalance:  flag.Bool("rebalance", false, "Recompute grid spacing from rolling volatility each bar"),
		Neutral:    flag.Float64("neutral", -1, "Override neutral invested fraction"),
		Sweep:      flag.String("sweep", "", "Comma-separated level counts to sweep; reports the best by final equity"),
		Workers:    flag.Int("workers", 0, "Parallel sweep workers (0 = one per CPU)"),
		OutputDir:  flag.String("output", "results", "Output directory for reports"),
		JSONOut:    flag.Bool("json", true, "Write full report as JSON"),
		Report:     flag.Bool("report", false, "Write Excel report workbook"),
		LogLevel:   flag.String("log-level", "info", "Log level (debug, info, warn, error)"),
		Verbose:    flag.Bool("verbose", false, "Human-readable colored log output"),
	}

	flag.Parse()
	return flags
}

// Validate checks if required flags are provided
func (f *Flags) Validate() error {
	if *f.DataFile == "" {
		return &ValidationError{Field: "data", Message: "data file path is required"}
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
