package risk

import (
	"fmt"
	"log"
	"math"

	"github.com/omnitrade-ai/omnitrade/internal/config"
)

// Manager applies the configured risk policy against the ledger:
// circuit breakers, position sizing and trade validation.
type Manager struct {
	cfg    config.RiskConfig
	enable bool // global trading-enabled flag
	ledger *Ledger
}

// NewManager creates a risk manager over the given ledger.
func NewManager(cfg config.RiskConfig, enableTrading bool, ledger *Ledger) *Manager {
	return &Manager{cfg: cfg, enable: enableTrading, ledger: ledger}
}

// Ledger returns the ledger the policy evaluates against.
func (m *Manager) Ledger() *Ledger {
	return m.ledger
}

// CheckCircuitBreakers decides whether new trades are currently allowed.
// The daily-loss and consecutive-loss rules set a sticky halt on the
// ledger that persists until ResetDaily; the disabled-trading block is
// re-evaluated per call. First matching rule wins.
func (m *Manager) CheckCircuitBreakers(portfolioValue float64) (bool, string) {
	if halted, reason := m.ledger.Halted(); halted {
		return false, reason
	}

	if portfolioValue > 0 {
		dailyLossPct := m.ledger.DailyPnl() / portfolioValue * 100
		if dailyLossPct <= -m.cfg.DailyLossLimitPct {
			reason := fmt.Sprintf("daily loss limit breached: %.2f%%", dailyLossPct)
			m.ledger.Halt(reason)
			log.Printf("risk: CIRCUIT BREAKER: %s", reason)
			return false, reason
		}
	}

	if losses := m.ledger.ConsecutiveLosses(); losses >= m.cfg.MaxConsecutiveLosses {
		reason := fmt.Sprintf("max consecutive losses reached: %d", losses)
		m.ledger.Halt(reason)
		log.Printf("risk: CIRCUIT BREAKER: %s", reason)
		return false, reason
	}

	if !m.enable {
		return false, "trading is disabled in configuration"
	}

	return true, ""
}

// CalculatePositionSize sizes a trade so that the loss at the stop equals
// riskPct of the portfolio, clamped to the maximum position value and
// then floored at the minimum order size. A zero risk distance cannot be
// sized by risk and degenerates to the minimum-notional floor.
func (m *Manager) CalculatePositionSize(entryPrice, stopLossPrice, portfolioValue, riskPct float64) float64 {
	riskAmount := portfolioValue * riskPct / 100

	priceRisk := math.Abs(entryPrice - stopLossPrice)
	if priceRisk == 0 {
		log.Printf("risk: zero price risk, using minimum position size")
		return m.cfg.MinOrderSizeUsd / entryPrice
	}

	qty := riskAmount / priceRisk

	// Max clamp first, min floor after: a tight stop must not buy more
	// than the position cap allows.
	maxQty := portfolioValue * m.cfg.MaxPositionSizePct / 100 / entryPrice
	if qty > maxQty {
		qty = maxQty
	}

	if qty*entryPrice < m.cfg.MinOrderSizeUsd {
		log.Printf("risk: position size below minimum notional, raising to floor")
		qty = m.cfg.MinOrderSizeUsd / entryPrice
	}

	return qty
}

// ValidateTrade checks a candidate trade against the risk rules, first
// failure wins: circuit breakers, minimum notional, maximum position
// value, portfolio exposure cap, open-position cap. A rejection does not
// alter the halt state.
func (m *Manager) ValidateTrade(intent TradeIntent, portfolioValue float64) (bool, string) {
	if ok, reason := m.CheckCircuitBreakers(portfolioValue); !ok {
		return false, reason
	}

	notional := intent.Notional()
	if notional < m.cfg.MinOrderSizeUsd {
		return false, fmt.Sprintf("position value $%.2f below minimum $%.2f", notional, m.cfg.MinOrderSizeUsd)
	}

	maxPositionValue := portfolioValue * m.cfg.MaxPositionSizePct / 100
	if notional > maxPositionValue {
		return false, fmt.Sprintf("position value $%.2f exceeds max $%.2f", notional, maxPositionValue)
	}

	totalExposure := m.ledger.TotalExposure() + notional
	maxExposure := portfolioValue * m.cfg.MaxPortfolioExposurePct / 100
	if totalExposure > maxExposure {
		return false, fmt.Sprintf("total exposure $%.2f exceeds max $%.2f", totalExposure, maxExposure)
	}

	if m.ledger.OpenPositionCount() >= m.cfg.MaxOpenPositions {
		return false, fmt.Sprintf("max open positions (%d) reached", m.cfg.MaxOpenPositions)
	}

	return true, ""
}

// Metrics is a point-in-time snapshot of the risk state.
type Metrics struct {
	DailyPnl          float64 `json:"daily_pnl"`
	DailyPnlPct       float64 `json:"daily_pnl_pct"`
	ConsecutiveLosses int     `json:"consecutive_losses"`
	OpenPositions     int     `json:"open_positions"`
	TotalExposure     float64 `json:"total_exposure"`
	ExposurePct       float64 `json:"exposure_pct"`
	TradingHalted     bool    `json:"trading_halted"`
	HaltReason        string  `json:"halt_reason,omitempty"`
	CanTrade          bool    `json:"can_trade"`
}

// Metrics reports the current risk metrics relative to the given
// portfolio value. A pure read; nothing is mutated.
func (m *Manager) Metrics(portfolioValue float64) Metrics {
	exposure := m.ledger.TotalExposure()
	pnl := m.ledger.DailyPnl()
	halted, reason := m.ledger.Halted()

	metrics := Metrics{
		DailyPnl:          pnl,
		ConsecutiveLosses: m.ledger.ConsecutiveLosses(),
		OpenPositions:     m.ledger.OpenPositionCount(),
		TotalExposure:     exposure,
		TradingHalted:     halted,
		HaltReason:        reason,
		CanTrade:          !halted && m.enable,
	}
	if portfolioValue > 0 {
		metrics.DailyPnlPct = pnl / portfolioValue * 100
		metrics.ExposurePct = exposure / portfolioValue * 100
	}
	return metrics
}
