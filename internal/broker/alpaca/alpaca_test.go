package alpaca

import (
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnitrade-ai/omnitrade/internal/broker"
)

func TestMapTimeFrame(t *testing.T) {
	tf, span, err := mapTimeFrame("1h")
	require.NoError(t, err)
	assert.Equal(t, marketdata.OneHour, tf)
	assert.Equal(t, time.Hour, span)

	tf, span, err = mapTimeFrame("15m")
	require.NoError(t, err)
	assert.Equal(t, marketdata.NewTimeFrame(15, marketdata.Min), tf)
	assert.Equal(t, 15*time.Minute, span)

	_, _, err = mapTimeFrame("7h")
	assert.ErrorContains(t, err, "unsupported timeframe")
}

func TestMapSide(t *testing.T) {
	assert.Equal(t, alpaca.Buy, mapSide(broker.SideBuy))
	assert.Equal(t, alpaca.Sell, mapSide(broker.SideSell))
}

func TestToReport(t *testing.T) {
	fillPrice := decimal.NewFromFloat(150.25)
	order := &alpaca.Order{
		ID:             "abc-123",
		Symbol:         "AAPL",
		Side:           alpaca.Buy,
		FilledQty:      decimal.NewFromFloat(3.33),
		FilledAvgPrice: &fillPrice,
		Status:         "filled",
		SubmittedAt:    time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC),
	}

	report := toReport(order)
	assert.Equal(t, "abc-123", report.OrderID)
	assert.Equal(t, broker.SideBuy, report.Side)
	assert.InDelta(t, 3.33, report.FilledQty, 1e-9)
	assert.InDelta(t, 150.25, report.AvgFillPrice, 1e-9)
	assert.Equal(t, "filled", report.Status)
}

func TestToReport_NoFillPrice(t *testing.T) {
	report := toReport(&alpaca.Order{ID: "abc-123", Status: "new"})
	assert.Zero(t, report.AvgFillPrice)
}
