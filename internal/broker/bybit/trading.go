package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/omnitrade-ai/omnitrade/internal/broker"
)

func mapSide(side broker.Side) string {
	if side == broker.SideSell {
		return "Sell"
	}
	return "Buy"
}

// PlaceMarketOrder submits a market order. A non-zero stopLoss attaches
// a position stop at order time.
func (b *Broker) PlaceMarketOrder(ctx context.Context, symbol string, qty float64, side broker.Side, stopLoss float64) (*broker.ExecutionReport, error) {
	params := map[string]interface{}{
		"category":  category,
		"symbol":    normalizeSymbol(symbol),
		"side":      mapSide(side),
		"orderType": "Market",
		"qty":       formatQty(qty),
	}
	if stopLoss > 0 {
		params["stopLoss"] = formatQty(stopLoss)
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
	if err != nil {
		return nil, broker.WrapErr(venueName, "place_order", err)
	}

	report, err := parsePlaceOrderResponse(result, symbol, side)
	if err != nil {
		return nil, broker.WrapErr(venueName, "place_order", err)
	}
	return report, nil
}

// PlaceLimitOrder submits a GTC limit order at limitPrice.
func (b *Broker) PlaceLimitOrder(ctx context.Context, symbol string, qty float64, side broker.Side, limitPrice, stopLoss float64) (*broker.ExecutionReport, error) {
	params := map[string]interface{}{
		"category":    category,
		"symbol":      normalizeSymbol(symbol),
		"side":        mapSide(side),
		"orderType":   "Limit",
		"qty":         formatQty(qty),
		"price":       formatQty(limitPrice),
		"timeInForce": "GTC",
	}
	if stopLoss > 0 {
		params["stopLoss"] = formatQty(stopLoss)
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
	if err != nil {
		return nil, broker.WrapErr(venueName, "place_order", err)
	}

	report, err := parsePlaceOrderResponse(result, symbol, side)
	if err != nil {
		return nil, broker.WrapErr(venueName, "place_order", err)
	}
	return report, nil
}

// CancelOrder cancels an open order. Bybit's cancel endpoint needs the
// symbol, so the order is looked up first; an order no longer open is
// reported as not cancelled without an error.
func (b *Broker) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	order, err := b.findOrder(ctx, orderID)
	if err != nil {
		return false, broker.WrapErr(venueName, "cancel_order", err)
	}
	if order == nil {
		return false, nil
	}

	params := map[string]interface{}{
		"category": category,
		"symbol":   order.Symbol,
		"orderId":  orderID,
	}
	if _, err := b.httpClient.NewUtaBybitServiceWithParams(params).CancelOrder(ctx); err != nil {
		return false, broker.WrapErr(venueName, "cancel_order", err)
	}
	return true, nil
}

// GetOrderStatus returns the venue's current view of an order.
func (b *Broker) GetOrderStatus(ctx context.Context, orderID string) (*broker.ExecutionReport, error) {
	order, err := b.findOrder(ctx, orderID)
	if err != nil {
		return nil, broker.WrapErr(venueName, "get_order", err)
	}
	if order == nil {
		return nil, broker.WrapErr(venueName, "get_order", fmt.Errorf("order %s not found", orderID))
	}

	side := broker.SideBuy
	if order.Side == "Sell" {
		side = broker.SideSell
	}
	return &broker.ExecutionReport{
		OrderID:      order.OrderID,
		Symbol:       order.Symbol,
		Side:         side,
		FilledQty:    parseFloat64(order.CumExecQty),
		AvgFillPrice: parseFloat64(order.AvgPrice),
		Status:       order.OrderStatus,
		SubmittedAt:  time.UnixMilli(parseInt64(order.CreatedTime)),
	}, nil
}

// ClosePosition unwinds a position with a reduce-only market order. A
// zero qty closes the full venue-reported position.
func (b *Broker) ClosePosition(ctx context.Context, symbol string, qty float64) (*broker.ExecutionReport, error) {
	if qty == 0 {
		positions, err := b.GetPositions(ctx)
		if err != nil {
			return nil, err
		}
		normalized := normalizeSymbol(symbol)
		for _, p := range positions {
			if p.Symbol == normalized {
				qty = p.Qty
				break
			}
		}
		if qty == 0 {
			return nil, broker.WrapErr(venueName, "close_position", fmt.Errorf("no open position for %s", symbol))
		}
	}

	side := broker.SideSell
	if qty < 0 {
		side = broker.SideBuy
	}

	params := map[string]interface{}{
		"category":   category,
		"symbol":     normalizeSymbol(symbol),
		"side":       mapSide(side),
		"orderType":  "Market",
		"qty":        formatQty(math.Abs(qty)),
		"reduceOnly": true,
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
	if err != nil {
		return nil, broker.WrapErr(venueName, "close_position", err)
	}

	report, err := parsePlaceOrderResponse(result, symbol, side)
	if err != nil {
		return nil, broker.WrapErr(venueName, "close_position", err)
	}
	return report, nil
}

// CloseAllPositions unwinds every open linear position.
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

// bybitOrder mirrors the fields consumed from Bybit's order list rows.
type bybitOrder struct {
	OrderID     string `json:"orderId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Qty         string `json:"qty"`
	OrderStatus string `json:"orderStatus"`
	CumExecQty  string `json:"cumExecQty"`
	AvgPrice    string `json:"avgPrice"`
	CreatedTime string `json:"createdTime"`
}

// findOrder looks an order up in the realtime order list. A nil order
// with a nil error means the order is not open.
func (b *Broker) findOrder(ctx context.Context, orderID string) (*bybitOrder, error) {
	params := map[string]interface{}{
		"category": category,
		"orderId":  orderID,
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).GetOpenOrders(ctx)
	if err != nil {
		return nil, err
	}

	resultBytes, err := unwrapResult(result)
	if err != nil {
		return nil, err
	}

	var orderList struct {
		List []bybitOrder `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &orderList); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order list: %w", err)
	}

	for i := range orderList.List {
		if orderList.List[i].OrderID == orderID {
			return &orderList.List[i], nil
		}
	}
	return nil, nil
}

func parsePlaceOrderResponse(response interface{}, symbol string, side broker.Side) (*broker.ExecutionReport, error) {
	resultBytes, err := unwrapResult(response)
	if err != nil {
		return nil, err
	}

	var orderResult struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	if err := json.Unmarshal(resultBytes, &orderResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order result: %w", err)
	}

	return &broker.ExecutionReport{
		OrderID:     orderResult.OrderID,
		Symbol:      symbol,
		Side:        side,
		Status:      "submitted",
		SubmittedAt: time.Now().UTC(),
	}, nil
}
