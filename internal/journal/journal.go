// Package journal keeps an append-only file record of trading activity
// and risk events, plus an in-memory list of closed trades for
// end-of-day reporting.
package journal

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ClosedTrade is a fully unwound position, as recorded at close time.
type ClosedTrade struct {
	Symbol     string
	Side       string
	Qty        float64
	EntryPrice float64
	ExitPrice  float64
	Pnl        float64
	PnlPct     float64
	Reason     string
	OpenedAt   time.Time
	ClosedAt   time.Time
}

// Journal writes trade entries to trades_YYYY-MM-DD.log and risk events
// to risk_YYYY-MM-DD.log under the configured directory.
type Journal struct {
	mu sync.Mutex

	tradeFile *os.File
	riskFile  *os.File
	trades    *log.Logger
	risks     *log.Logger

	closed []ClosedTrade
}

// New opens (creating if needed) the day's journal files under dir.
func New(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	day := time.Now().Format("2006-01-02")

	tradeFile, err := openAppend(filepath.Join(dir, fmt.Sprintf("trades_%s.log", day)))
	if err != nil {
		return nil, err
	}
	riskFile, err := openAppend(filepath.Join(dir, fmt.Sprintf("risk_%s.log", day)))
	if err != nil {
		tradeFile.Close()
		return nil, err
	}

	j := &Journal{
		tradeFile: tradeFile,
		riskFile:  riskFile,
		trades:    log.New(tradeFile, "", 0),
		risks:     log.New(riskFile, "", 0),
	}
	j.trades.Printf("[%s] [SESSION] journal opened", timestamp())
	return j, nil
}

func openAppend(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	return file, nil
}

// LogOpen records a newly opened position.
func (j *Journal) LogOpen(symbol, side string, qty, price, stopLoss float64, orderID string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.trades.Printf("[%s] [OPEN] %s %s qty=%.6f price=$%.2f stop=$%.2f order=%s",
		timestamp(), side, symbol, qty, price, stopLoss, orderID)
}

// LogClose records a closed position and retains it for reporting.
func (j *Journal) LogClose(trade ClosedTrade) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.trades.Printf("[%s] [CLOSE] %s %s qty=%.6f entry=$%.2f exit=$%.2f pnl=$%.2f (%+.2f%%) reason=%s",
		timestamp(), trade.Side, trade.Symbol, trade.Qty,
		trade.EntryPrice, trade.ExitPrice, trade.Pnl, trade.PnlPct, trade.Reason)
	j.closed = append(j.closed, trade)
}

// LogRiskEvent records a risk decision such as a rejected trade or a
// tripped circuit breaker.
func (j *Journal) LogRiskEvent(kind, severity, detail string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.risks.Printf("[%s] [%s] [%s] %s", timestamp(), severity, kind, detail)
}

// ClosedTrades returns a copy of the trades closed this session.
func (j *Journal) ClosedTrades() []ClosedTrade {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]ClosedTrade, len(j.closed))
	copy(out, j.closed)
	return out
}

// Close flushes and closes the journal files.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.trades.Printf("[%s] [SESSION] journal closed", timestamp())

	var firstErr error
	if err := j.tradeFile.Close(); err != nil {
		firstErr = err
	}
	if err := j.riskFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
