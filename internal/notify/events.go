// Package notify delivers structured engine events to one or more
// fire-and-forget notification sinks.
package notify

import "fmt"

// Event is a structured notification emitted by the engine.
type Event interface {
	// Kind returns the event type tag.
	Kind() string
	// Message renders the human-readable notification text.
	Message() string
}

// TradeExecuted is sent when an entry order has been submitted.
type TradeExecuted struct {
	Symbol   string
	Side     string
	Qty      float64
	Price    float64
	StopLoss float64
	OrderID  string
}

func (e TradeExecuted) Kind() string { return "trade_executed" }

func (e TradeExecuted) Message() string {
	return fmt.Sprintf("🎯 *Trade Executed*\n\n%s %s\nQty: %.6f @ $%.2f\nStop: $%.2f\nOrder: %s",
		side(e.Side), e.Symbol, e.Qty, e.Price, e.StopLoss, e.OrderID)
}

// PositionClosed is sent after a position has been unwound.
type PositionClosed struct {
	Symbol     string
	Qty        float64
	EntryPrice float64
	ExitPrice  float64
	Pnl        float64
	PnlPct     float64
	Reason     string
}

func (e PositionClosed) Kind() string { return "position_closed" }

func (e PositionClosed) Message() string {
	emoji := "✅"
	if e.Pnl < 0 {
		emoji = "🔻"
	}
	return fmt.Sprintf("%s *Position Closed*\n\n%s x %.6f\nEntry: $%.2f → Exit: $%.2f\nP&L: $%.2f (%+.2f%%)\nReason: %s",
		emoji, e.Symbol, e.Qty, e.EntryPrice, e.ExitPrice, e.Pnl, e.PnlPct, e.Reason)
}

// StopLossTriggered is sent when the monitor pass detects a hit stop.
type StopLossTriggered struct {
	Symbol       string
	Qty          float64
	StopPrice    float64
	CurrentPrice float64
}

func (e StopLossTriggered) Kind() string { return "stop_loss_triggered" }

func (e StopLossTriggered) Message() string {
	return fmt.Sprintf("🛑 *Stop Loss Triggered*\n\n%s x %.6f\nStop: $%.2f | Price: $%.2f",
		e.Symbol, e.Qty, e.StopPrice, e.CurrentPrice)
}

// RiskAlert is sent when a risk rule blocks or halts trading.
type RiskAlert struct {
	Source   string // e.g. "circuit_breaker"
	Severity string // "medium", "critical"
	Reason   string
}

func (e RiskAlert) Kind() string { return "risk_alert" }

func (e RiskAlert) Message() string {
	return fmt.Sprintf("🚨 *Risk Alert* (%s/%s)\n\n%s", e.Source, e.Severity, e.Reason)
}

// SystemStatus reports engine lifecycle changes.
type SystemStatus struct {
	Status string // "started", "stopped", "warning"
	Detail string
}

func (e SystemStatus) Kind() string { return "system_status" }

func (e SystemStatus) Message() string {
	emoji := "ℹ️"
	switch e.Status {
	case "started":
		emoji = "✅"
	case "stopped":
		emoji = "🛑"
	case "warning":
		emoji = "⚠️"
	}
	return fmt.Sprintf("%s *System %s*\n\n%s", emoji, e.Status, e.Detail)
}

func side(s string) string {
	if s == "sell" {
		return "📉 SELL"
	}
	return "📈 BUY"
}
