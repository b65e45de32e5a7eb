package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ducminhle1904/etf-grid-engine/pkg/types"
)

// CSVColumnMapping describes where the date and close columns live in a CSV
// file and how dates are formatted.
type CSVColumnMapping struct {
	DateCol    int
	CloseCol   int
	DateFormat string
	MinColumns int
}

// DefaultCSVFormat matches the common "date,close,..." daily export layout.
var DefaultCSVFormat = CSVColumnMapping{
	DateCol:    0,
	CloseCol:   1,
	DateFormat: "2006-01-02",
	MinColumns: 2,
}

// CSVProvider loads daily closing price series from CSV files.
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a provider with the default column layout.
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a provider with a custom column layout.
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadSeries reads and validates a daily price series from a CSV file. The
// first row is treated as a header.
func (p *CSVProvider) LoadSeries(filename string) ([]types.PriceBar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", filename, err)
	}

	var bars []types.PriceBar
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		if len(record) < p.format.MinColumns {
			return nil, fmt.Errorf("insufficient columns at line %d (expected %d, got %d)",
				lineNum, p.format.MinColumns, len(record))
		}

		date, err := time.Parse(p.format.DateFormat, record[p.format.DateCol])
		if err != nil {
			return nil, fmt.Errorf("invalid date %q at line %d: %w",
				record[p.format.DateCol], lineNum, err)
		}

		closePrice, err := strconv.ParseFloat(record[p.format.CloseCol], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid close price %q at line %d: %w",
				record[p.format.CloseCol], lineNum, err)
		}

		bars = append(bars, types.PriceBar{Date: date, Close: closePrice})
	}

	if err := ValidateSeries(bars); err != nil {
		return nil, fmt.Errorf("invalid series in %s: %w", filename, err)
	}
	return bars, nil
}

// ValidateSeries checks the loader-side invariants: positive closes,
// strictly increasing dates, no duplicates.
func ValidateSeries(bars []types.PriceBar) error {
	for i, bar := range bars {
		if bar.Close <= 0 {
			return fmt.Errorf("close price at index %d must be positive, got %.6f", i, bar.Close)
		}
		if i > 0 && !bars[i-1].Date.Before(bar.Date) {
			return fmt.Errorf("dates must be strictly increasing: index %d (%s) does not follow %s",
				i, bar.Date.Format("2006-01-02"), bars[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// FilterByDateRange returns the bars within [start, end] inclusive. Zero
// bounds are open-ended.
func FilterByDateRange(bars []types.PriceBar, start, end time.Time) []types.PriceBar {
	filtered := make([]types.PriceBar, 0, len(bars))
	for _, bar := range bars {
		if !start.IsZero() && bar.Date.Before(start) {
			continue
		}
		if !end.IsZero() && bar.Date.After(end) {
			continue
		}
		filtered = append(filtered, bar)
	}
	return filtered
}

// LimitBars keeps at most the trailing maxBars bars. Zero keeps everything.
func LimitBars(bars []types.PriceBar, maxBars int) []types.PriceBar {
	if maxBars <= 0 || len(bars) <= maxBars {
		return bars
	}
	return bars[len(bars)-maxBars:]
}
