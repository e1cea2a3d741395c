// Package reporting writes end-of-session trade reports.
package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/omnitrade-ai/omnitrade/internal/journal"
)

// ExcelReporter writes the day's closed trades to an Excel workbook.
type ExcelReporter struct{}

func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

type excelStyles struct {
	header   int
	currency int
	percent  int
}

// WriteTradesXLSX writes the closed trades and a summary row to path.
func (r *ExcelReporter) WriteTradesXLSX(trades []journal.ClosedTrade, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const tradesSheet = "Trades"
	const summarySheet = "Summary"
	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	fx.NewSheet(summarySheet)

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeTradesSheet(fx, tradesSheet, trades, styles); err != nil {
		return err
	}
	if err := r.writeSummarySheet(fx, summarySheet, trades, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.currency, err = fx.NewStyle(&excelize.Style{
		NumFmt: 177, // $#,##0.00
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.percent, err = fx.NewStyle(&excelize.Style{
		NumFmt: 2, // 0.00
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	return styles, err
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, trades []journal.ClosedTrade, styles excelStyles) error {
	headers := []string{"Symbol", "Side", "Qty", "Entry Price", "Exit Price", "P&L", "P&L %", "Reason", "Opened At", "Closed At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, cell, cell, styles.header)
	}

	for row, trade := range trades {
		values := []interface{}{
			trade.Symbol,
			trade.Side,
			trade.Qty,
			trade.EntryPrice,
			trade.ExitPrice,
			trade.Pnl,
			trade.PnlPct,
			trade.Reason,
			trade.OpenedAt.Format("2006-01-02 15:04:05"),
			trade.ClosedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := fx.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
		for _, col := range []int{4, 5, 6} {
			cell, _ := excelize.CoordinatesToCellName(col, row+2)
			fx.SetCellStyle(sheet, cell, cell, styles.currency)
		}
		pctCell, _ := excelize.CoordinatesToCellName(7, row+2)
		fx.SetCellStyle(sheet, pctCell, pctCell, styles.percent)
	}

	fx.SetColWidth(sheet, "A", "J", 16)
	return nil
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, trades []journal.ClosedTrade, styles excelStyles) error {
	wins, losses := 0, 0
	totalPnl := 0.0
	for _, trade := range trades {
		totalPnl += trade.Pnl
		if trade.Pnl >= 0 {
			wins++
		} else {
			losses++
		}
	}
	winRate := 0.0
	if len(trades) > 0 {
		winRate = float64(wins) / float64(len(trades)) * 100
	}

	rows := []struct {
		label string
		value interface{}
	}{
		{"Total Trades", len(trades)},
		{"Wins", wins},
		{"Losses", losses},
		{"Win Rate %", winRate},
		{"Total P&L", totalPnl},
	}
	for i, row := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := fx.SetCellValue(sheet, labelCell, row.label); err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, valueCell, row.value); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, labelCell, labelCell, styles.header)
	}

	fx.SetColWidth(sheet, "A", "B", 18)
	return nil
}
