// Package broker defines the execution-venue interface the engine
// depends on, along with the shared order and account types. Venue
// implementations live in subpackages.
package broker

import (
	"context"
	"time"

	"github.com/omnitrade-ai/omnitrade/pkg/types"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Account is a snapshot of the venue account's financial state.
type Account struct {
	PortfolioValue float64
	Cash           float64
	Currency       string
}

// Position is an exposure as reported by the venue itself. The engine's
// own position tracking lives in the risk ledger; this type only mirrors
// what the venue reports.
type Position struct {
	Symbol        string
	Qty           float64 // positive = long, negative = short
	AvgEntryPrice float64
	MarketValue   float64
}

// ExecutionReport describes the venue's view of a submitted order.
// AvgFillPrice stays zero until the venue reports a fill.
type ExecutionReport struct {
	OrderID      string
	Symbol       string
	Side         Side
	FilledQty    float64
	AvgFillPrice float64
	Status       string
	SubmittedAt  time.Time
}

// Broker is the capability interface for an execution venue. Every
// operation may fail with a *VenueError carrying the upstream cause; the
// engine treats such failures as non-fatal and local to the call.
type Broker interface {
	// Name returns the venue identifier (e.g. "bybit", "alpaca").
	Name() string

	// GetAccount returns the account's portfolio value and cash.
	GetAccount(ctx context.Context) (*Account, error)

	// GetPositions returns the venue's view of open positions.
	GetPositions(ctx context.Context) ([]Position, error)

	// GetCurrentPrice returns the latest traded price for the symbol.
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)

	// GetHistoricalBars returns up to limit bars for the symbol at the
	// given timeframe, oldest first.
	GetHistoricalBars(ctx context.Context, symbol, timeframe string, limit int) ([]types.OHLCV, error)

	// PlaceMarketOrder submits a market order. A non-zero stopLoss
	// attaches a protective stop.
	PlaceMarketOrder(ctx context.Context, symbol string, qty float64, side Side, stopLoss float64) (*ExecutionReport, error)

	// PlaceLimitOrder submits a limit order at limitPrice. A non-zero
	// stopLoss attaches a protective stop.
	PlaceLimitOrder(ctx context.Context, symbol string, qty float64, side Side, limitPrice, stopLoss float64) (*ExecutionReport, error)

	// CancelOrder cancels an open order. It reports whether an order was
	// actually cancelled.
	CancelOrder(ctx context.Context, orderID string) (bool, error)

	// GetOrderStatus returns the current state of an order.
	GetOrderStatus(ctx context.Context, orderID string) (*ExecutionReport, error)

	// ClosePosition unwinds a held position. qty is signed as held
	// (positive = long to sell, negative = short to buy back); zero
	// closes the full venue-reported position.
	ClosePosition(ctx context.Context, symbol string, qty float64) (*ExecutionReport, error)

	// CloseAllPositions unwinds every position held at the venue.
	CloseAllPositions(ctx context.Context) ([]ExecutionReport, error)

	// IsMarketOpen reports whether the venue currently accepts orders
	// for its market.
	IsMarketOpen(ctx context.Context) (bool, error)
}
