package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/omnitrade-ai/omnitrade/internal/broker"
	"github.com/omnitrade-ai/omnitrade/pkg/types"
)

// GetHistoricalBars fetches klines for the symbol, oldest first. Bybit
// returns them newest first; the slice is reversed before returning.
func (b *Broker) GetHistoricalBars(ctx context.Context, symbol, timeframe string, limit int) ([]types.OHLCV, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	params := map[string]interface{}{
		"category": category,
		"symbol":   normalizeSymbol(symbol),
		"interval": mapInterval(timeframe),
		"limit":    limit,
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, broker.WrapErr(venueName, "get_klines", err)
	}

	bars, err := parseKlineResponse(result)
	if err != nil {
		return nil, broker.WrapErr(venueName, "get_klines", err)
	}
	return bars, nil
}

// GetCurrentPrice returns the last traded price for the symbol.
func (b *Broker) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	params := map[string]interface{}{
		"category": category,
		"symbol":   normalizeSymbol(symbol),
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return 0, broker.WrapErr(venueName, "get_tickers", err)
	}

	price, err := parseTickerPrice(result)
	if err != nil {
		return 0, broker.WrapErr(venueName, "get_tickers", err)
	}
	return price, nil
}

// unwrapResult checks the Bybit response envelope and returns the raw
// result payload for unmarshalling.
func unwrapResult(response interface{}) ([]byte, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return nil, fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}
	return json.Marshal(serverResp.Result)
}

func parseKlineResponse(response interface{}) ([]types.OHLCV, error) {
	resultBytes, err := unwrapResult(response)
	if err != nil {
		return nil, err
	}

	var klineResult struct {
		Symbol   string     `json:"symbol"`
		Category string     `json:"category"`
		List     [][]string `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kline result: %w", err)
	}

	// Kline row format: [startTime, open, high, low, close, volume, turnover]
	bars := make([]types.OHLCV, 0, len(klineResult.List))
	for _, item := range klineResult.List {
		if len(item) < 7 {
			continue
		}
		bars = append(bars, types.OHLCV{
			Timestamp: time.UnixMilli(parseInt64(item[0])),
			Open:      parseFloat64(item[1]),
			High:      parseFloat64(item[2]),
			Low:       parseFloat64(item[3]),
			Close:     parseFloat64(item[4]),
			Volume:    parseFloat64(item[5]),
		})
	}

	// Newest first from the API; flip to oldest first.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

func parseTickerPrice(response interface{}) (float64, error) {
	resultBytes, err := unwrapResult(response)
	if err != nil {
		return 0, err
	}

	var tickerResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &tickerResult); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ticker result: %w", err)
	}
	if len(tickerResult.List) == 0 {
		return 0, fmt.Errorf("no ticker data found")
	}
	return parseFloat64(tickerResult.List[0].LastPrice), nil
}
