// Package strategy defines the signal-source interface the engine
// consumes and the technical-analysis implementation behind it.
package strategy

// Signal is a directional trading signal.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// IndicatorResult is the outcome of a single indicator's analysis.
// Details carries the indicator's numeric readings; Note explains a
// hold that was forced (e.g. insufficient data).
type IndicatorResult struct {
	Signal     Signal             `json:"signal"`
	Confidence float64            `json:"confidence"`
	Details    map[string]float64 `json:"details,omitempty"`
	Note       string             `json:"note,omitempty"`
}

// CombinedResult summarizes the vote across indicators.
type CombinedResult struct {
	Signal      Signal  `json:"signal"`
	Confidence  float64 `json:"confidence"`
	BuySignals  int     `json:"buy_signals"`
	SellSignals int     `json:"sell_signals"`
	TotalVotes  int     `json:"total_signals"`
}

// Analysis is the full diagnostic output of a combined analysis pass.
type Analysis struct {
	Indicators map[string]IndicatorResult `json:"indicators"`
	Combined   CombinedResult             `json:"combined"`
}

// SignalSource produces a trading signal with a [0,1] confidence from a
// close-price series. Implementations must degrade missing or short data
// to a hold with confidence 0 rather than failing.
type SignalSource interface {
	// Name returns the strategy identifier.
	Name() string

	// Analyze evaluates the price series with the given indicator
	// subset (nil or empty = all) and returns the aggregated signal,
	// its confidence and the per-indicator diagnostics.
	Analyze(prices []float64, indicators []string) (Signal, float64, *Analysis)
}
