package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_WritesDailyFiles(t *testing.T) {
	dir := t.TempDir()

	j, err := New(dir)
	require.NoError(t, err)

	j.LogOpen("BTC/USDT", "buy", 0.5, 50000, 49000, "order-1")
	j.LogRiskEvent("trade_rejected", "medium", "exposure cap")
	require.NoError(t, j.Close())

	day := time.Now().Format("2006-01-02")

	trades, err := os.ReadFile(filepath.Join(dir, "trades_"+day+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(trades), "[OPEN] buy BTC/USDT")

	risks, err := os.ReadFile(filepath.Join(dir, "risk_"+day+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(risks), "[medium] [trade_rejected] exposure cap")
}

func TestJournal_ClosedTrades(t *testing.T) {
	j, err := New(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	j.LogClose(ClosedTrade{Symbol: "AAPL", Side: "buy", Qty: 3, EntryPrice: 150, ExitPrice: 155, Pnl: 15, PnlPct: 3.33, Reason: "signal"})
	j.LogClose(ClosedTrade{Symbol: "AAPL", Side: "buy", Qty: 2, EntryPrice: 155, ExitPrice: 150, Pnl: -10, PnlPct: -3.2, Reason: "stop_loss"})

	closed := j.ClosedTrades()
	require.Len(t, closed, 2)
	assert.Equal(t, "signal", closed[0].Reason)

	// The returned slice is a copy.
	closed[0].Symbol = "mutated"
	assert.Equal(t, "AAPL", j.ClosedTrades()[0].Symbol)
}
