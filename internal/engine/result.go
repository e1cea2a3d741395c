package engine

import (
	"time"

	"github.com/omnitrade-ai/omnitrade/internal/broker"
	"github.com/omnitrade-ai/omnitrade/internal/strategy"
)

// Outcome classifies the result of a strategy execution pass.
type Outcome string

const (
	// OutcomeError: a precondition or venue call failed.
	OutcomeError Outcome = "error"
	// OutcomeBlocked: a circuit breaker disallowed trading.
	OutcomeBlocked Outcome = "blocked"
	// OutcomeHold: the strategy produced no actionable signal.
	OutcomeHold Outcome = "hold"
	// OutcomeRejected: the risk policy rejected the sized trade.
	OutcomeRejected Outcome = "rejected"
	// OutcomeExecuted: an order was submitted and registered.
	OutcomeExecuted Outcome = "executed"
)

// Result is the explicit outcome of one ExecuteStrategy pass. Exactly
// one of Reason or Err carries detail for non-executed outcomes.
type Result struct {
	Outcome    Outcome
	Symbol     string
	Venue      string
	Signal     strategy.Signal
	Confidence float64
	Analysis   *strategy.Analysis
	Reason     string
	Err        error

	// Execution details, set only for OutcomeExecuted.
	OrderID  string
	Side     broker.Side
	Qty      float64
	Price    float64
	StopLoss float64
}

// CloseResult reports the outcome of unwinding a position.
type CloseResult struct {
	Symbol     string
	Venue      string
	Qty        float64
	EntryPrice float64
	ExitPrice  float64
	Pnl        float64
	PnlPct     float64
	Reason     string
}

// State is the engine's lifecycle state.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// Status is a point-in-time snapshot of the engine for display and
// health reporting. A pure read; no venue calls are made.
type Status struct {
	State          State
	Since          time.Time
	TradingEnabled bool
	Venues         []string
	Strategies     []string
	PortfolioValue float64
	OpenPositions  int
	TotalExposure  float64
	DailyPnl       float64
	Halted         bool
	HaltReason     string
}
