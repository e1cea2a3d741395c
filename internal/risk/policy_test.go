package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnitrade-ai/omnitrade/internal/broker"
	"github.com/omnitrade-ai/omnitrade/internal/config"
)

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		RiskPerTradePct:        2.0,
		DefaultStopLossPct:     2.0,
		TrailingStopPct:        2.0,
		MaxPositionSizePct:     5.0,
		MaxPortfolioExposurePct: 80.0,
		DailyLossLimitPct:      10.0,
		MaxConsecutiveLosses:   5,
		MinOrderSizeUsd:        10.0,
		MaxOpenPositions:       20,
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(testRiskConfig(), true, NewLedger())
}

func TestCheckCircuitBreakers_DailyLossLimit(t *testing.T) {
	m := newTestManager(t)
	m.Ledger().RecordResult("AAPL", -1000) // -10% of 10k

	ok, reason := m.CheckCircuitBreakers(10000)
	assert.False(t, ok)
	assert.Contains(t, reason, "daily loss limit")

	halted, _ := m.Ledger().Halted()
	assert.True(t, halted)

	// Sticky: stays blocked on every subsequent call until reset, even
	// if the P&L recovers.
	m.Ledger().RecordResult("AAPL", 5000)
	ok, reason = m.CheckCircuitBreakers(10000)
	assert.False(t, ok)
	assert.Contains(t, reason, "daily loss limit")

	m.Ledger().ResetDaily()
	ok, _ = m.CheckCircuitBreakers(10000)
	assert.True(t, ok)
}

func TestCheckCircuitBreakers_ConsecutiveLosses(t *testing.T) {
	m := newTestManager(t)
	for i := 0; i < 5; i++ {
		m.Ledger().RecordResult("AAPL", -1)
	}

	ok, reason := m.CheckCircuitBreakers(10000)
	assert.False(t, ok)
	assert.Contains(t, reason, "consecutive losses")

	halted, _ := m.Ledger().Halted()
	assert.True(t, halted)
}

func TestCheckCircuitBreakers_TradingDisabled(t *testing.T) {
	m := NewManager(testRiskConfig(), false, NewLedger())

	ok, reason := m.CheckCircuitBreakers(10000)
	assert.False(t, ok)
	assert.Contains(t, reason, "disabled")

	// Not sticky: the disabled block does not set the halt flag.
	halted, _ := m.Ledger().Halted()
	assert.False(t, halted)
}

func TestCheckCircuitBreakers_Allowed(t *testing.T) {
	m := newTestManager(t)
	ok, reason := m.CheckCircuitBreakers(10000)
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestCalculatePositionSize_RiskBased(t *testing.T) {
	m := newTestManager(t)

	// $10k portfolio, 2% risk = $200; $3 price risk; unclamped 66.67
	// units would be a $10k notional, so the 5% cap clamps to $500 /
	// $150 = 3.33 units.
	qty := m.CalculatePositionSize(150, 147, 10000, 2.0)
	assert.InDelta(t, 500.0/150.0, qty, 1e-9)
	assert.InDelta(t, 500.0, qty*150, 1e-6)
}

func TestCalculatePositionSize_MaxClampAlwaysHolds(t *testing.T) {
	m := newTestManager(t)

	// Very tight stop: raw risk sizing would massively exceed the cap.
	qty := m.CalculatePositionSize(150, 149.5, 10000, 2.0)
	assert.LessOrEqual(t, qty*150, 10000*0.05+1e-9)
	assert.GreaterOrEqual(t, qty*150, 10.0)
}

func TestCalculatePositionSize_ZeroRiskDistance(t *testing.T) {
	m := newTestManager(t)

	qty := m.CalculatePositionSize(150, 150, 10000, 2.0)
	assert.InDelta(t, 10.0/150.0, qty, 1e-9)
}

func TestCalculatePositionSize_MinFloorAfterClamp(t *testing.T) {
	cfg := testRiskConfig()
	cfg.MinOrderSizeUsd = 100
	m := NewManager(cfg, true, NewLedger())

	// Tiny portfolio: cap yields $5 notional, floor raises it to $100.
	qty := m.CalculatePositionSize(50, 49, 100, 2.0)
	assert.InDelta(t, 100.0/50.0, qty, 1e-9)
}

func TestValidateTrade_Approved(t *testing.T) {
	m := newTestManager(t)

	ok, reason := m.ValidateTrade(TradeIntent{
		Symbol: "AAPL", Side: broker.SideBuy, Qty: 3, Price: 150, StopLoss: 147,
	}, 10000)
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestValidateTrade_BelowMinimum(t *testing.T) {
	m := newTestManager(t)

	ok, reason := m.ValidateTrade(TradeIntent{
		Symbol: "AAPL", Side: broker.SideBuy, Qty: 0.01, Price: 150,
	}, 10000)
	assert.False(t, ok)
	assert.Contains(t, reason, "below minimum")
}

func TestValidateTrade_ExceedsMaxPosition(t *testing.T) {
	m := newTestManager(t)

	// $15k position on a $10k portfolio.
	ok, reason := m.ValidateTrade(TradeIntent{
		Symbol: "AAPL", Side: broker.SideBuy, Qty: 100, Price: 150,
	}, 10000)
	assert.False(t, ok)
	assert.Contains(t, reason, "exceeds max")
}

func TestValidateTrade_ExposureCap(t *testing.T) {
	cfg := testRiskConfig()
	cfg.MaxPositionSizePct = 50
	cfg.MaxPortfolioExposurePct = 60
	m := NewManager(cfg, true, NewLedger())

	m.Ledger().AddPosition(Position{Symbol: "MSFT", Qty: 10, EntryPrice: 400, StopLoss: 392})

	// Existing $4k + new $3k = $7k > 60% of $10k.
	ok, reason := m.ValidateTrade(TradeIntent{
		Symbol: "AAPL", Side: broker.SideBuy, Qty: 20, Price: 150,
	}, 10000)
	assert.False(t, ok)
	assert.Contains(t, reason, "exposure")
}

func TestValidateTrade_MaxOpenPositions(t *testing.T) {
	cfg := testRiskConfig()
	cfg.MaxOpenPositions = 1
	m := NewManager(cfg, true, NewLedger())

	m.Ledger().AddPosition(Position{Symbol: "MSFT", Qty: 1, EntryPrice: 400, StopLoss: 392})

	ok, reason := m.ValidateTrade(TradeIntent{
		Symbol: "AAPL", Side: broker.SideBuy, Qty: 1, Price: 150,
	}, 10000)
	assert.False(t, ok)
	assert.Contains(t, reason, "max open positions")
}

func TestValidateTrade_BlockedByCircuitBreaker(t *testing.T) {
	m := newTestManager(t)
	m.Ledger().Halt("daily loss limit breached: -12.00%")

	ok, reason := m.ValidateTrade(TradeIntent{
		Symbol: "AAPL", Side: broker.SideBuy, Qty: 3, Price: 150,
	}, 10000)
	assert.False(t, ok)
	assert.Contains(t, reason, "daily loss limit")
}

func TestMetrics(t *testing.T) {
	m := newTestManager(t)
	m.Ledger().AddPosition(Position{Symbol: "AAPL", Qty: 10, EntryPrice: 150, StopLoss: 147})
	m.Ledger().RecordResult("MSFT", -200)

	metrics := m.Metrics(10000)
	require.Equal(t, 1, metrics.OpenPositions)
	assert.Equal(t, 1500.0, metrics.TotalExposure)
	assert.InDelta(t, 15.0, metrics.ExposurePct, 1e-9)
	assert.Equal(t, -200.0, metrics.DailyPnl)
	assert.InDelta(t, -2.0, metrics.DailyPnlPct, 1e-9)
	assert.Equal(t, 1, metrics.ConsecutiveLosses)
	assert.False(t, metrics.TradingHalted)
	assert.True(t, metrics.CanTrade)

	// Zero portfolio value must not divide.
	zero := m.Metrics(0)
	assert.Equal(t, 0.0, zero.ExposurePct)
	assert.Equal(t, 0.0, zero.DailyPnlPct)
}
