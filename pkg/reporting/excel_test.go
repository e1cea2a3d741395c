package reporting

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/omnitrade-ai/omnitrade/internal/journal"
)

func TestWriteTradesXLSX(t *testing.T) {
	now := time.Now()
	trades := []journal.ClosedTrade{
		{Symbol: "BTC/USDT", Side: "buy", Qty: 0.5, EntryPrice: 50000, ExitPrice: 51000, Pnl: 500, PnlPct: 2, Reason: "signal", OpenedAt: now.Add(-time.Hour), ClosedAt: now},
		{Symbol: "AAPL", Side: "buy", Qty: 3, EntryPrice: 150, ExitPrice: 147, Pnl: -9, PnlPct: -2, Reason: "stop_loss", OpenedAt: now.Add(-2 * time.Hour), ClosedAt: now},
	}

	path := filepath.Join(t.TempDir(), "reports", "trades.xlsx")
	require.NoError(t, NewExcelReporter().WriteTradesXLSX(trades, path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	symbol, err := fx.GetCellValue("Trades", "A2")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", symbol)

	reason, err := fx.GetCellValue("Trades", "H3")
	require.NoError(t, err)
	assert.Equal(t, "stop_loss", reason)

	total, err := fx.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}

func TestWriteTradesXLSX_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.xlsx")
	require.NoError(t, NewExcelReporter().WriteTradesXLSX(nil, path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	header, err := fx.GetCellValue("Trades", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Symbol", header)
}
