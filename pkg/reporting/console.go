package reporting

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/etf-grid-engine/internal/backtest"
	"github.com/ducminhle1904/etf-grid-engine/internal/portfolio"
)

// maxTradeRows bounds the trade table so long backtests stay readable.
const maxTradeRows = 20

// ConsoleReporter renders reports as tables on stdout.
type ConsoleReporter struct{}

// NewConsoleReporter creates a new console reporter
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// PrintBacktestReport renders a single-ETF backtest summary and the tail of
// its trade log.
func (r *ConsoleReporter) PrintBacktestReport(report *backtest.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("GRID BACKTEST RESULTS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Symbol", orDash(report.Symbol)},
		{"Period", fmt.Sprintf("%s → %s",
			report.StartDate.Format("2006-01-02"), report.EndDate.Format("2006-01-02"))},
		{"Initial Capital", fmt.Sprintf("%.2f", report.InitialCapital)},
		{"Final Equity", fmt.Sprintf("%.2f", report.FinalEquity)},
		{"Total Return", fmt.Sprintf("%.2f%%", report.TotalReturn*100)},
		{"Annualized Return", fmt.Sprintf("%.2f%%", report.AnnualizedRet*100)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", report.MaxDrawdown*100)},
		{"Sharpe Ratio", fmt.Sprintf("%.2f", report.SharpeRatio)},
		{"Turnover", fmt.Sprintf("%.2fx", report.Turnover)},
		{"Trades", fmt.Sprintf("%d (%d buys / %d sells)",
			report.TotalTrades, report.BuyTrades, report.SellTrades)},
		{"Exposure (max/avg)", fmt.Sprintf("%.1f%% / %.1f%%",
			report.MaxExposure*100, report.AvgExposure*100)},
	})
	if report.Grid != nil {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Grid Base Price", fmt.Sprintf("%.4f", report.Grid.BasePrice)},
			{"Grid Spacing", fmt.Sprintf("%.4f%%", report.Grid.Spacing*100)},
			{"Grid Levels", fmt.Sprintf("±%d", report.Grid.LevelCount)},
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 26, Align: text.AlignLeft},
	})
	t.Render()
	fmt.Println()

	r.printTrades(report.Trades)
}

func (r *ConsoleReporter) printTrades(trades []backtest.Trade) {
	if len(trades) == 0 {
		fmt.Println("No trades executed.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("TRADES (last %d of %d)", min(maxTradeRows, len(trades)), len(trades)))
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Date", "Side", "Price", "Size", "Level"})

	start := 0
	if len(trades) > maxTradeRows {
		start = len(trades) - maxTradeRows
	}
	for _, trade := range trades[start:] {
		t.AppendRow(table.Row{
			trade.Date.Format("2006-01-02"),
			string(trade.Direction),
			fmt.Sprintf("%.4f", trade.Price),
			fmt.Sprintf("%.2f", trade.Size),
			trade.Level,
		})
	}
	t.Render()
	fmt.Println()
}

// PrintPortfolioReport renders a portfolio-level summary with per-holding
// attribution.
func (r *ConsoleReporter) PrintPortfolioReport(report *portfolio.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PORTFOLIO BACKTEST RESULTS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Name", orDash(report.Name)},
		{"Period", fmt.Sprintf("%s → %s",
			report.StartDate.Format("2006-01-02"), report.EndDate.Format("2006-01-02"))},
		{"Total Return", fmt.Sprintf("%.2f%%", report.TotalReturn*100)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", report.MaxDrawdown*100)},
		{"Sharpe Ratio", fmt.Sprintf("%.2f", report.SharpeRatio)},
		{"Turnover", fmt.Sprintf("%.2fx", report.Turnover)},
		{"Holdings", len(report.Holdings)},
	})
	t.Render()
	fmt.Println()

	h := table.NewWriter()
	h.SetOutputMirror(os.Stdout)
	h.SetTitle("PER-HOLDING ATTRIBUTION")
	h.SetStyle(table.StyleRounded)
	h.AppendHeader(table.Row{"Symbol", "Weight", "Return", "Max DD", "Contribution", "Trades"})

	symbols := make([]string, 0, len(report.Holdings))
	for symbol := range report.Holdings {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		attr := report.Holdings[symbol]
		h.AppendRow(table.Row{
			symbol,
			fmt.Sprintf("%.1f%%", attr.Weight*100),
			fmt.Sprintf("%.2f%%", attr.TotalReturn*100),
			fmt.Sprintf("%.2f%%", attr.MaxDrawdown*100),
			fmt.Sprintf("%.2f%%", attr.Contribution*100),
			attr.Trades,
		})
	}
	h.Render()
	fmt.Println()

	if len(report.Skipped) > 0 {
		fmt.Println("Skipped holdings:")
		for symbol, reason := range report.Skipped {
			fmt.Printf("  %s: %s\n", symbol, reason)
		}
		fmt.Println()
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
