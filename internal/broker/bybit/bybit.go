// Package bybit implements the execution-venue interface against the
// Bybit v5 unified trading API.
package bybit

import (
	"context"
	"strconv"
	"strings"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/omnitrade-ai/omnitrade/internal/broker"
	"github.com/omnitrade-ai/omnitrade/internal/config"
)

const venueName = "bybit"

// category selects the unified-account product line. Linear perpetuals
// support attached stop losses and position listing.
const category = "linear"

// Broker is the Bybit implementation of broker.Broker.
type Broker struct {
	httpClient *bybit_api.Client
	testnet    bool
	demo       bool
}

// New creates a Bybit broker for the environment selected by the
// configuration: demo beats testnet beats mainnet.
func New(cfg config.BybitConfig) *Broker {
	var baseURL string
	switch {
	case cfg.Demo:
		baseURL = "https://api-demo.bybit.com"
	case cfg.Testnet:
		baseURL = bybit_api.TESTNET
	default:
		baseURL = bybit_api.MAINNET
	}

	return &Broker{
		httpClient: bybit_api.NewBybitHttpClient(
			cfg.APIKey,
			cfg.APISecret,
			bybit_api.WithBaseURL(baseURL),
		),
		testnet: cfg.Testnet,
		demo:    cfg.Demo,
	}
}

// Name returns the venue identifier.
func (b *Broker) Name() string {
	return venueName
}

// Environment describes which Bybit environment the broker talks to.
func (b *Broker) Environment() string {
	switch {
	case b.demo:
		return "demo"
	case b.testnet:
		return "testnet"
	default:
		return "mainnet"
	}
}

// IsMarketOpen always reports true; crypto markets never close.
func (b *Broker) IsMarketOpen(ctx context.Context) (bool, error) {
	return true, nil
}

// normalizeSymbol maps "BTC/USDT" onto Bybit's "BTCUSDT" form.
func normalizeSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

// mapInterval maps the engine's timeframe notation onto Bybit kline
// intervals. Unknown timeframes pass through unchanged.
func mapInterval(timeframe string) string {
	switch timeframe {
	case "1m":
		return "1"
	case "3m":
		return "3"
	case "5m":
		return "5"
	case "15m":
		return "15"
	case "30m":
		return "30"
	case "1h":
		return "60"
	case "2h":
		return "120"
	case "4h":
		return "240"
	case "6h":
		return "360"
	case "12h":
		return "720"
	case "1d":
		return "D"
	case "1w":
		return "W"
	default:
		return timeframe
	}
}

func formatQty(qty float64) string {
	return strconv.FormatFloat(qty, 'f', -1, 64)
}

func parseFloat64(s string) float64 {
	if s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	i, _ := strconv.ParseInt(s, 10, 64)
	return i
}

var _ broker.Broker = (*Broker)(nil)
