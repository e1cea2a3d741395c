package bybit

import (
	"testing"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", normalizeSymbol("BTC/USDT"))
	assert.Equal(t, "BTCUSDT", normalizeSymbol("BTCUSDT"))
}

func TestMapInterval(t *testing.T) {
	assert.Equal(t, "60", mapInterval("1h"))
	assert.Equal(t, "D", mapInterval("1d"))
	assert.Equal(t, "5", mapInterval("5m"))
	// Unknown values pass through for native Bybit notation.
	assert.Equal(t, "720", mapInterval("720"))
}

func TestParseKlineResponse(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"symbol":   "BTCUSDT",
			"category": "linear",
			"list": [][]string{
				{"1700003600000", "101", "103", "100", "102", "12", "1224"},
				{"1700000000000", "100", "102", "99", "101", "10", "1010"},
			},
		},
	}

	bars, err := parseKlineResponse(resp)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	// Oldest first after the reversal.
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, 102.0, bars[1].Close)
	assert.True(t, bars[0].Timestamp.Before(bars[1].Timestamp))
}

func TestParseKlineResponse_APIError(t *testing.T) {
	resp := &bybit_api.ServerResponse{RetCode: 10001, RetMsg: "params error"}

	_, err := parseKlineResponse(resp)
	assert.ErrorContains(t, err, "params error")
}

func TestParseTickerPrice(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"category": "linear",
			"list": []map[string]interface{}{
				{"symbol": "BTCUSDT", "lastPrice": "50123.5"},
			},
		},
	}

	price, err := parseTickerPrice(resp)
	require.NoError(t, err)
	assert.Equal(t, 50123.5, price)
}

func TestParseWalletResponse(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"list": []map[string]interface{}{
				{
					"accountType":           "UNIFIED",
					"totalEquity":           "10000.50",
					"totalAvailableBalance": "9500.25",
				},
			},
		},
	}

	account, err := parseWalletResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, 10000.50, account.PortfolioValue)
	assert.Equal(t, 9500.25, account.Cash)
	assert.Equal(t, "USDT", account.Currency)
}

func TestParsePositionsResponse(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"list": []map[string]interface{}{
				{"symbol": "BTCUSDT", "side": "Buy", "size": "0.5", "avgPrice": "50000", "positionValue": "25000"},
				{"symbol": "ETHUSDT", "side": "Sell", "size": "2", "avgPrice": "3000", "positionValue": "6000"},
				{"symbol": "SOLUSDT", "side": "None", "size": "0", "avgPrice": "0", "positionValue": "0"},
			},
		},
	}

	positions, err := parsePositionsResponse(resp)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, 0.5, positions[0].Qty)
	// Shorts come back with a negative quantity.
	assert.Equal(t, -2.0, positions[1].Qty)
}
