package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/etf-grid-engine/pkg/types"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func csvDay(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// TestLoadSeries tests the happy path with a header and extra columns
func TestLoadSeries(t *testing.T) {
	path := writeCSV(t, "date,close,volume\n"+
		"2024-01-02,100.50,12345\n"+
		"2024-01-03,101.25,23456\n"+
		"2024-01-04,99.80,34567\n")

	bars, err := NewCSVProvider().LoadSeries(path)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, csvDay("2024-01-02"), bars[0].Date)
	assert.Equal(t, 100.50, bars[0].Close)
	assert.Equal(t, 99.80, bars[2].Close)
}

// TestLoadSeries_CustomFormat tests a provider with swapped columns and a
// different date layout
func TestLoadSeries_CustomFormat(t *testing.T) {
	path := writeCSV(t, "close,date\n150.25,02/01/2024\n151.00,03/01/2024\n")

	provider := NewCSVProviderWithFormat(CSVColumnMapping{
		DateCol:    1,
		CloseCol:   0,
		DateFormat: "02/01/2006",
		MinColumns: 2,
	})

	bars, err := provider.LoadSeries(path)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, csvDay("2024-01-02"), bars[0].Date)
	assert.Equal(t, 150.25, bars[0].Close)
}

// TestLoadSeries_Rejections tests malformed inputs
func TestLoadSeries_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad date", body: "date,close\nnot-a-date,100\n"},
		{name: "bad price", body: "date,close\n2024-01-02,abc\n"},
		{name: "negative price", body: "date,close\n2024-01-02,-5\n"},
		{name: "duplicate date", body: "date,close\n2024-01-02,100\n2024-01-02,101\n"},
		{name: "descending dates", body: "date,close\n2024-01-03,100\n2024-01-02,101\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVProvider().LoadSeries(writeCSV(t, tt.body))
			assert.Error(t, err)
		})
	}
}

// TestLoadSeries_MissingFile tests the missing-file error path
func TestLoadSeries_MissingFile(t *testing.T) {
	_, err := NewCSVProvider().LoadSeries(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

// TestValidateSeries tests the loader-side invariants directly
func TestValidateSeries(t *testing.T) {
	valid := []types.PriceBar{
		{Date: csvDay("2024-01-02"), Close: 100},
		{Date: csvDay("2024-01-03"), Close: 101},
	}
	assert.NoError(t, ValidateSeries(valid))
	assert.NoError(t, ValidateSeries(nil))

	assert.Error(t, ValidateSeries([]types.PriceBar{
		{Date: csvDay("2024-01-02"), Close: 0},
	}))
}

// TestFilterByDateRange tests inclusive bounds and open ends
func TestFilterByDateRange(t *testing.T) {
	bars := []types.PriceBar{
		{Date: csvDay("2024-01-02"), Close: 100},
		{Date: csvDay("2024-01-03"), Close: 101},
		{Date: csvDay("2024-01-04"), Close: 102},
		{Date: csvDay("2024-01-05"), Close: 103},
	}

	filtered := FilterByDateRange(bars, csvDay("2024-01-03"), csvDay("2024-01-04"))
	require.Len(t, filtered, 2)
	assert.Equal(t, 101.0, filtered[0].Close)
	assert.Equal(t, 102.0, filtered[1].Close)

	// Open-ended bounds.
	assert.Len(t, FilterByDateRange(bars, time.Time{}, csvDay("2024-01-03")), 2)
	assert.Len(t, FilterByDateRange(bars, csvDay("2024-01-04"), time.Time{}), 2)
	assert.Len(t, FilterByDateRange(bars, time.Time{}, time.Time{}), 4)
}

// TestLimitBars tests trailing truncation
func TestLimitBars(t *testing.T) {
	bars := []types.PriceBar{
		{Date: csvDay("2024-01-02"), Close: 100},
		{Date: csvDay("2024-01-03"), Close: 101},
		{Date: csvDay("2024-01-04"), Close: 102},
	}

	trimmed := LimitBars(bars, 2)
	require.Len(t, trimmed, 2)
	assert.Equal(t, 101.0, trimmed[0].Close)

	assert.Len(t, LimitBars(bars, 0), 3)
	assert.Len(t, LimitBars(bars, 10), 3)
}
