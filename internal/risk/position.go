package risk

import (
	"math"
	"time"

	"github.com/omnitrade-ai/omnitrade/internal/broker"
)

// Position is an open exposure tracked by the ledger. Qty is signed:
// positive for long, negative for short. The stop loss sits on the loss
// side of the entry and only ever tightens (see UpdateTrailingStop).
type Position struct {
	Symbol     string
	Venue      string
	Qty        float64
	EntryPrice float64
	StopLoss   float64
	OpenedAt   time.Time
}

// Side returns the direction implied by the signed quantity.
func (p Position) Side() broker.Side {
	if p.Qty < 0 {
		return broker.SideSell
	}
	return broker.SideBuy
}

// Notional returns the dollar size of the position at entry.
func (p Position) Notional() float64 {
	return math.Abs(p.Qty) * p.EntryPrice
}

// TradeIntent is an ephemeral candidate trade handed to the risk policy
// for validation. It is never persisted.
type TradeIntent struct {
	Symbol   string
	Side     broker.Side
	Qty      float64 // always positive; Side carries the direction
	Price    float64
	StopLoss float64
}

// Notional returns the dollar size of the candidate trade.
func (t TradeIntent) Notional() float64 {
	return math.Abs(t.Qty) * t.Price
}
