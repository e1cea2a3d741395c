package risk

import (
	"log"
	"sync"
	"time"
)

// Ledger is the mutable record of the trading day: realized P&L, the
// consecutive-loss streak, the halt flag, and the set of open positions
// keyed by symbol. It is the single source of truth the circuit breakers
// and the monitor pass read from.
//
// All methods are safe for concurrent use. The ledger alone does not
// make validate-then-register atomic across order submission; the engine
// serializes that sequence (see engine.Engine).
type Ledger struct {
	mu                sync.RWMutex
	dailyPnl          float64
	consecutiveLosses int
	halted            bool
	haltReason        string
	lastReset         time.Time
	positions         map[string]*Position
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		positions: make(map[string]*Position),
		lastReset: time.Now().UTC(),
	}
}

// ResetDaily zeroes the day's P&L, the loss streak and the halt flag,
// and stamps the reset time. Call it once per trading session start;
// nothing resets implicitly.
func (l *Ledger) ResetDaily() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dailyPnl = 0
	l.consecutiveLosses = 0
	l.halted = false
	l.haltReason = ""
	l.lastReset = time.Now().UTC()
	log.Println("risk: daily statistics reset")
}

// Halt marks trading as halted with the given reason. The halt is sticky
// until ResetDaily runs.
func (l *Ledger) Halt(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.halted = true
	l.haltReason = reason
}

// Halted returns the halt flag and its reason.
func (l *Ledger) Halted() (bool, string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.halted, l.haltReason
}

// AddPosition inserts (or overwrites) the tracked position for a symbol.
func (l *Ledger) AddPosition(p Position) {
	if p.OpenedAt.IsZero() {
		p.OpenedAt = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions[p.Symbol] = &p
	log.Printf("risk: position opened: %s %.6f @ $%.2f (stop $%.2f)", p.Symbol, p.Qty, p.EntryPrice, p.StopLoss)
}

// RemovePosition drops the tracked position if present.
func (l *Ledger) RemovePosition(symbol string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.positions[symbol]; ok {
		delete(l.positions, symbol)
		log.Printf("risk: position closed: %s", symbol)
	}
}

// Position returns a copy of the tracked position for a symbol.
func (l *Ledger) Position(symbol string) (Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns a snapshot of the open positions. Mutating the
// ledger while iterating the snapshot is safe.
func (l *Ledger) Positions() []Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	return out
}

// OpenPositionCount returns the number of tracked positions.
func (l *Ledger) OpenPositionCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// TotalExposure returns the summed notional of all open positions.
func (l *Ledger) TotalExposure() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := 0.0
	for _, p := range l.positions {
		total += p.Notional()
	}
	return total
}

// DailyPnl returns the day's realized P&L.
func (l *Ledger) DailyPnl() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dailyPnl
}

// ConsecutiveLosses returns the current loss streak.
func (l *Ledger) ConsecutiveLosses() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.consecutiveLosses
}

// LastReset returns when the daily statistics were last reset.
func (l *Ledger) LastReset() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastReset
}

// RecordResult adds a realized trade result to the day's P&L. A loss
// increments the consecutive-loss streak; anything else resets it.
func (l *Ledger) RecordResult(symbol string, pnl float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dailyPnl += pnl
	if pnl < 0 {
		l.consecutiveLosses++
		log.Printf("risk: loss recorded for %s: $%.2f (consecutive: %d)", symbol, pnl, l.consecutiveLosses)
	} else {
		l.consecutiveLosses = 0
		log.Printf("risk: profit recorded for %s: $%.2f", symbol, pnl)
	}
	log.Printf("risk: daily P&L: $%.2f", l.dailyPnl)
}

// CheckStopLoss reports whether the tracked position's stop is hit at
// the given price. Longs trigger at price <= stop, shorts at
// price >= stop. No position means no trigger.
func (l *Ledger) CheckStopLoss(symbol string, currentPrice float64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.positions[symbol]
	if !ok {
		return false
	}

	if p.Qty < 0 {
		if currentPrice >= p.StopLoss {
			log.Printf("risk: stop loss triggered for %s: $%.2f >= $%.2f", symbol, currentPrice, p.StopLoss)
			return true
		}
		return false
	}
	if currentPrice <= p.StopLoss {
		log.Printf("risk: stop loss triggered for %s: $%.2f <= $%.2f", symbol, currentPrice, p.StopLoss)
		return true
	}
	return false
}

// UpdateTrailingStop ratchets the stop toward the current price once the
// position is in profit. The stop only ever tightens: a candidate that
// would loosen the current stop is ignored. No-op without a position or
// while the position is at or under water.
func (l *Ledger) UpdateTrailingStop(symbol string, currentPrice, trailingPct float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.positions[symbol]
	if !ok {
		return
	}

	if p.Qty < 0 {
		// Short: in profit below entry, stop trails down from above.
		if currentPrice >= p.EntryPrice {
			return
		}
		candidate := currentPrice * (1 + trailingPct/100)
		if candidate < p.StopLoss {
			p.StopLoss = candidate
			log.Printf("risk: trailing stop updated for %s: $%.2f", symbol, candidate)
		}
		return
	}

	if currentPrice <= p.EntryPrice {
		return
	}
	candidate := currentPrice * (1 - trailingPct/100)
	if candidate > p.StopLoss {
		p.StopLoss = candidate
		log.Printf("risk: trailing stop updated for %s: $%.2f", symbol, candidate)
	}
}
