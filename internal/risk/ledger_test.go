package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedger_RecordResult(t *testing.T) {
	l := NewLedger()

	l.RecordResult("AAPL", -50)
	assert.Equal(t, -50.0, l.DailyPnl())
	assert.Equal(t, 1, l.ConsecutiveLosses())

	l.RecordResult("AAPL", -25)
	assert.Equal(t, -75.0, l.DailyPnl())
	assert.Equal(t, 2, l.ConsecutiveLosses())

	// A non-negative result resets the streak, not the P&L.
	l.RecordResult("AAPL", 100)
	assert.Equal(t, 25.0, l.DailyPnl())
	assert.Equal(t, 0, l.ConsecutiveLosses())
}

func TestLedger_ResetDaily(t *testing.T) {
	l := NewLedger()
	l.RecordResult("AAPL", -500)
	l.Halt("daily loss limit breached: -10.00%")

	l.ResetDaily()

	assert.Equal(t, 0.0, l.DailyPnl())
	assert.Equal(t, 0, l.ConsecutiveLosses())
	halted, reason := l.Halted()
	assert.False(t, halted)
	assert.Empty(t, reason)
}

func TestLedger_CheckStopLoss_Long(t *testing.T) {
	l := NewLedger()
	l.AddPosition(Position{Symbol: "AAPL", Qty: 10, EntryPrice: 150, StopLoss: 147})

	assert.False(t, l.CheckStopLoss("AAPL", 148))
	assert.True(t, l.CheckStopLoss("AAPL", 147))
	assert.True(t, l.CheckStopLoss("AAPL", 146))
	assert.False(t, l.CheckStopLoss("MSFT", 1)) // unknown symbol never triggers
}

func TestLedger_CheckStopLoss_Short(t *testing.T) {
	l := NewLedger()
	l.AddPosition(Position{Symbol: "AAPL", Qty: -10, EntryPrice: 150, StopLoss: 153})

	assert.False(t, l.CheckStopLoss("AAPL", 152))
	assert.True(t, l.CheckStopLoss("AAPL", 153))
	assert.True(t, l.CheckStopLoss("AAPL", 155))
}

func TestLedger_UpdateTrailingStop_MonotonicLong(t *testing.T) {
	l := NewLedger()
	l.AddPosition(Position{Symbol: "AAPL", Qty: 10, EntryPrice: 150, StopLoss: 147})

	// At or below entry: never touched.
	l.UpdateTrailingStop("AAPL", 149, 2.0)
	p, _ := l.Position("AAPL")
	assert.Equal(t, 147.0, p.StopLoss)

	// Rising prices ratchet the stop up, never down.
	prev := p.StopLoss
	for _, price := range []float64{155, 160, 158, 170, 165} {
		l.UpdateTrailingStop("AAPL", price, 2.0)
		p, _ = l.Position("AAPL")
		assert.GreaterOrEqual(t, p.StopLoss, prev, "stop loosened at price %.0f", price)
		prev = p.StopLoss
	}

	// 170 * 0.98 is the high-water stop.
	assert.InDelta(t, 170*0.98, prev, 1e-9)
}

func TestLedger_UpdateTrailingStop_Short(t *testing.T) {
	l := NewLedger()
	l.AddPosition(Position{Symbol: "AAPL", Qty: -10, EntryPrice: 150, StopLoss: 153})

	// In profit below entry: stop trails down.
	l.UpdateTrailingStop("AAPL", 140, 2.0)
	p, _ := l.Position("AAPL")
	assert.InDelta(t, 140*1.02, p.StopLoss, 1e-9)

	// A bounce must not loosen it back up.
	l.UpdateTrailingStop("AAPL", 145, 2.0)
	p, _ = l.Position("AAPL")
	assert.InDelta(t, 140*1.02, p.StopLoss, 1e-9)
}

func TestLedger_PositionsSnapshot(t *testing.T) {
	l := NewLedger()
	l.AddPosition(Position{Symbol: "AAPL", Qty: 10, EntryPrice: 150, StopLoss: 147})
	l.AddPosition(Position{Symbol: "BTC/USDT", Qty: 0.5, EntryPrice: 40000, StopLoss: 39200})

	snapshot := l.Positions()
	assert.Len(t, snapshot, 2)

	// Mutating during iteration of the snapshot is safe.
	for _, p := range snapshot {
		l.RemovePosition(p.Symbol)
	}
	assert.Equal(t, 0, l.OpenPositionCount())
	assert.Equal(t, 0.0, l.TotalExposure())
}

func TestLedger_RemovePosition_Absent(t *testing.T) {
	l := NewLedger()
	l.RemovePosition("AAPL") // no error, no panic
	assert.Equal(t, 0, l.OpenPositionCount())
}

func TestPosition_Notional(t *testing.T) {
	long := Position{Symbol: "AAPL", Qty: 10, EntryPrice: 150}
	short := Position{Symbol: "AAPL", Qty: -10, EntryPrice: 150}
	assert.Equal(t, 1500.0, long.Notional())
	assert.Equal(t, 1500.0, short.Notional())
}
