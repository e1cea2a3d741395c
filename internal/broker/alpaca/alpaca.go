// Package alpaca implements the execution-venue interface against the
// Alpaca trading and market-data APIs.
package alpaca

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"github.com/omnitrade-ai/omnitrade/internal/broker"
	"github.com/omnitrade-ai/omnitrade/internal/config"
	"github.com/omnitrade-ai/omnitrade/pkg/types"
)

const venueName = "alpaca"

// Broker is the Alpaca implementation of broker.Broker. Trading goes
// through the live/paper API, bars and quotes through the data API.
type Broker struct {
	trading *alpaca.Client
	data    *marketdata.Client
}

// New creates an Alpaca broker. An empty BaseURL defaults to the paper
// trading endpoint inside the SDK configuration.
func New(cfg config.AlpacaConfig) *Broker {
	dataOpts := marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	}
	if cfg.DataURL != "" {
		dataOpts.BaseURL = cfg.DataURL
	}

	return &Broker{
		trading: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			BaseURL:   cfg.BaseURL,
		}),
		data: marketdata.NewClient(dataOpts),
	}
}

// Name returns the venue identifier.
func (b *Broker) Name() string {
	return venueName
}

// GetAccount returns the account's equity and cash.
func (b *Broker) GetAccount(ctx context.Context) (*broker.Account, error) {
	account, err := b.trading.GetAccount()
	if err != nil {
		return nil, broker.WrapErr(venueName, "get_account", err)
	}
	return &broker.Account{
		PortfolioValue: account.Equity.InexactFloat64(),
		Cash:           account.Cash.InexactFloat64(),
		Currency:       account.Currency,
	}, nil
}

// GetPositions returns the account's open positions. Alpaca reports
// short quantities as negative already.
func (b *Broker) GetPositions(ctx context.Context) ([]broker.Position, error) {
	positions, err := b.trading.GetPositions()
	if err != nil {
		return nil, broker.WrapErr(venueName, "get_positions", err)
	}

	out := make([]broker.Position, 0, len(positions))
	for _, p := range positions {
		pos := broker.Position{
			Symbol: p.Symbol,
			Qty:    p.Qty.InexactFloat64(),
		}
		if p.AvgEntryPrice.IsPositive() {
			pos.AvgEntryPrice = p.AvgEntryPrice.InexactFloat64()
		}
		if p.MarketValue != nil {
			pos.MarketValue = p.MarketValue.InexactFloat64()
		}
		out = append(out, pos)
	}
	return out, nil
}

// GetCurrentPrice returns the latest trade price for the symbol.
func (b *Broker) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	trade, err := b.data.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return 0, broker.WrapErr(venueName, "get_latest_trade", err)
	}
	return trade.Price, nil
}

// GetHistoricalBars fetches up to limit bars for the symbol, oldest
// first, which is the order Alpaca already returns.
func (b *Broker) GetHistoricalBars(ctx context.Context, symbol, timeframe string, limit int) ([]types.OHLCV, error) {
	if limit <= 0 {
		limit = 200
	}

	tf, barSpan, err := mapTimeFrame(timeframe)
	if err != nil {
		return nil, broker.WrapErr(venueName, "get_bars", err)
	}

	// Window sized generously; TotalLimit trims to the requested count.
	end := time.Now()
	start := end.Add(-time.Duration(limit*3) * barSpan)

	bars, err := b.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  tf,
		Start:      start,
		End:        end,
		TotalLimit: limit,
		Feed:       marketdata.IEX,
	})
	if err != nil {
		return nil, broker.WrapErr(venueName, "get_bars", err)
	}

	out := make([]types.OHLCV, 0, len(bars))
	for _, bar := range bars {
		out = append(out, types.OHLCV{
			Timestamp: bar.Timestamp,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    float64(bar.Volume),
		})
	}
	return out, nil
}

// PlaceMarketOrder submits a market order. A non-zero stopLoss attaches
// a one-triggers-other stop order.
func (b *Broker) PlaceMarketOrder(ctx context.Context, symbol string, qty float64, side broker.Side, stopLoss float64) (*broker.ExecutionReport, error) {
	req := alpaca.PlaceOrderRequest{
		Symbol:      symbol,
		Qty:         decimalPtr(qty),
		Side:        mapSide(side),
		Type:        alpaca.Market,
		TimeInForce: alpaca.Day,
	}
	if stopLoss > 0 {
		req.OrderClass = alpaca.OTO
		req.StopLoss = &alpaca.StopLoss{StopPrice: decimalPtr(stopLoss)}
	}

	order, err := b.trading.PlaceOrder(req)
	if err != nil {
		return nil, broker.WrapErr(venueName, "place_order", err)
	}
	return toReport(order), nil
}

// PlaceLimitOrder submits a GTC limit order at limitPrice.
func (b *Broker) PlaceLimitOrder(ctx context.Context, symbol string, qty float64, side broker.Side, limitPrice, stopLoss float64) (*broker.ExecutionReport, error) {
	req := alpaca.PlaceOrderRequest{
		Symbol:      symbol,
		Qty:         decimalPtr(qty),
		Side:        mapSide(side),
		Type:        alpaca.Limit,
		TimeInForce: alpaca.GTC,
		LimitPrice:  decimalPtr(limitPrice),
	}
	if stopLoss > 0 {
		req.OrderClass = alpaca.OTO
		req.StopLoss = &alpaca.StopLoss{StopPrice: decimalPtr(stopLoss)}
	}

	order, err := b.trading.PlaceOrder(req)
	if err != nil {
		return nil, broker.WrapErr(venueName, "place_order", err)
	}
	return toReport(order), nil
}

// CancelOrder cancels an open order. An order already in a terminal
// state is reported as not cancelled without an error.
func (b *Broker) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	order, err := b.trading.GetOrder(orderID)
	if err != nil {
		return false, broker.WrapErr(venueName, "cancel_order", err)
	}
	switch order.Status {
	case "filled", "canceled", "expired", "rejected":
		return false, nil
	}

	if err := b.trading.CancelOrder(orderID); err != nil {
		return false, broker.WrapErr(venueName, "cancel_order", err)
	}
	return true, nil
}

// GetOrderStatus returns the venue's current view of an order.
func (b *Broker) GetOrderStatus(ctx context.Context, orderID string) (*broker.ExecutionReport, error) {
	order, err := b.trading.GetOrder(orderID)
	if err != nil {
		return nil, broker.WrapErr(venueName, "get_order", err)
	}
	return toReport(order), nil
}

// ClosePosition unwinds a held position. A zero qty closes the full
// venue-reported position.
func (b *Broker) ClosePosition(ctx context.Context, symbol string, qty float64) (*broker.ExecutionReport, error) {
	req := alpaca.ClosePositionRequest{}
	if qty != 0 {
		req.Qty = decimal.NewFromFloat(math.Abs(qty))
	}

	order, err := b.trading.ClosePosition(symbol, req)
	if err != nil {
		return nil, broker.WrapErr(venueName, "close_position", err)
	}
	return toReport(order), nil
}

// CloseAllPositions unwinds every open position one by one so a single
// failure does not mask the orders that did go through.
func (b *Broker) CloseAllPositions(ctx context.Context) ([]broker.ExecutionReport, error) {
	positions, err := b.GetPositions(ctx)
	if err != nil {
		return nil, err
	}

	var reports []broker.ExecutionReport
	for _, p := range positions {
		report, err := b.ClosePosition(ctx, p.Symbol, p.Qty)
		if err != nil {
			return reports, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// IsMarketOpen reports whether the US equity market session is open.
func (b *Broker) IsMarketOpen(ctx context.Context) (bool, error) {
	clock, err := b.trading.GetClock()
	if err != nil {
		return false, broker.WrapErr(venueName, "get_clock", err)
	}
	return clock.IsOpen, nil
}

func mapSide(side broker.Side) alpaca.Side {
	if side == broker.SideSell {
		return alpaca.Sell
	}
	return alpaca.Buy
}

// mapTimeFrame maps the engine's timeframe notation onto Alpaca bar
// timeframes, returning the span of one bar for window sizing.
func mapTimeFrame(timeframe string) (marketdata.TimeFrame, time.Duration, error) {
	switch timeframe {
	case "1m":
		return marketdata.OneMin, time.Minute, nil
	case "5m":
		return marketdata.NewTimeFrame(5, marketdata.Min), 5 * time.Minute, nil
	case "15m":
		return marketdata.NewTimeFrame(15, marketdata.Min), 15 * time.Minute, nil
	case "30m":
		return marketdata.NewTimeFrame(30, marketdata.Min), 30 * time.Minute, nil
	case "1h":
		return marketdata.OneHour, time.Hour, nil
	case "2h":
		return marketdata.NewTimeFrame(2, marketdata.Hour), 2 * time.Hour, nil
	case "4h":
		return marketdata.NewTimeFrame(4, marketdata.Hour), 4 * time.Hour, nil
	case "1d":
		return marketdata.OneDay, 24 * time.Hour, nil
	default:
		return marketdata.TimeFrame{}, 0, fmt.Errorf("unsupported timeframe: %s", timeframe)
	}
}

func toReport(order *alpaca.Order) *broker.ExecutionReport {
	report := &broker.ExecutionReport{
		OrderID:     order.ID,
		Symbol:      order.Symbol,
		Side:        broker.Side(order.Side),
		FilledQty:   order.FilledQty.InexactFloat64(),
		Status:      string(order.Status),
		SubmittedAt: order.SubmittedAt,
	}
	if order.FilledAvgPrice != nil {
		report.AvgFillPrice = order.FilledAvgPrice.InexactFloat64()
	}
	return report
}

func decimalPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

var _ broker.Broker = (*Broker)(nil)
