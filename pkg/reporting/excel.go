package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/etf-grid-engine/internal/backtest"
)

// ExcelReporter writes a multi-sheet workbook for one backtest run.
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// WriteReportXLSX writes summary, trade log, and equity curve sheets.
func (r *ExcelReporter) WriteReportXLSX(report *backtest.Report, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const tradesSheet = "Trades"
	const equitySheet = "Equity Curve"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(tradesSheet)
	fx.NewSheet(equitySheet)

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, report, headerStyle); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, tradesSheet, report, headerStyle); err != nil {
		return err
	}
	if err := r.writeEquitySheet(fx, equitySheet, report, headerStyle); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, report *backtest.Report, headerStyle int) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Symbol", report.Symbol},
		{"Start Date", report.StartDate.Format("2006-01-02")},
		{"End Date", report.EndDate.Format("2006-01-02")},
		{"Initial Capital", report.InitialCapital},
		{"Final Equity", report.FinalEquity},
		{"Total Return", report.TotalReturn},
		{"Annualized Return", report.AnnualizedRet},
		{"Max Drawdown", report.MaxDrawdown},
		{"Sharpe Ratio", report.SharpeRatio},
		{"Turnover", report.Turnover},
		{"Total Trades", report.TotalTrades},
		{"Buy Trades", report.BuyTrades},
		{"Sell Trades", report.SellTrades},
		{"Max Exposure", report.MaxExposure},
		{"Avg Exposure", report.AvgExposure},
	}
	if report.Grid != nil {
		rows = append(rows,
			[]interface{}{"Grid Base Price", report.Grid.BasePrice},
			[]interface{}{"Grid Spacing", report.Grid.Spacing},
			[]interface{}{"Grid Level Count", report.Grid.LevelCount},
			[]interface{}{"Adjustment Factor", report.Grid.AdjustmentFactor},
		)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return fx.SetCellStyle(sheet, "A1", "B1", headerStyle)
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, report *backtest.Report, headerStyle int) error {
	header := []interface{}{"Date", "Direction", "Price", "Size", "Shares", "Level"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, trade := range report.Trades {
		row := []interface{}{
			trade.Date.Format("2006-01-02"),
			string(trade.Direction),
			trade.Price,
			trade.Size,
			trade.Shares,
			trade.Level,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return fx.SetCellStyle(sheet, "A1", "F1", headerStyle)
}

func (r *ExcelReporter) writeEquitySheet(fx *excelize.File, sheet string, report *backtest.Report, headerStyle int) error {
	header := []interface{}{"Date", "Equity", "Invested Fraction"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, point := range report.EquityCurve {
		row := []interface{}{
			point.Date.Format("2006-01-02"),
			point.Equity,
			point.Fraction,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return fx.SetCellStyle(sheet, "A1", "C1", headerStyle)
}
