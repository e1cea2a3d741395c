package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSI_Calculate(t *testing.T) {
	rsi := NewRSI(14)

	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = 100.0 + float64(i)
	}

	value, err := rsi.Calculate(rising)
	require.NoError(t, err)
	// Pure gains: RSI pegs at 100.
	assert.Equal(t, 100.0, value)

	falling := make([]float64, 20)
	for i := range falling {
		falling[i] = 100.0 - float64(i)
	}
	value, err = rsi.Calculate(falling)
	require.NoError(t, err)
	assert.Less(t, value, 30.0)
}

func TestRSI_InsufficientData(t *testing.T) {
	rsi := NewRSI(14)
	_, err := rsi.Calculate([]float64{100, 101, 102})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestSMA_Calculate(t *testing.T) {
	sma := NewSMA(3)

	value, err := sma.Calculate([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 4.0, value)

	_, err = sma.Calculate([]float64{1, 2})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMACD_Calculate(t *testing.T) {
	macd := NewMACD(12, 26, 9)

	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100.0 + float64(i)*0.5
	}

	result, err := macd.Calculate(prices)
	require.NoError(t, err)
	// A steady uptrend keeps the fast EMA above the slow EMA.
	assert.Greater(t, result.MACD, 0.0)

	_, err = macd.Calculate(prices[:30])
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBollingerBands_Calculate(t *testing.T) {
	bb := NewBollingerBands(20, 2.0)

	flat := make([]float64, 25)
	for i := range flat {
		flat[i] = 100.0
	}
	result, err := bb.Calculate(flat)
	require.NoError(t, err)
	// Zero variance collapses the bands onto the mean.
	assert.Equal(t, 100.0, result.Upper)
	assert.Equal(t, 100.0, result.Middle)
	assert.Equal(t, 100.0, result.Lower)

	varied := append(make([]float64, 0, 20), flat[:18]...)
	varied = append(varied, 110, 90)
	result, err = bb.Calculate(varied)
	require.NoError(t, err)
	assert.Greater(t, result.Upper, result.Middle)
	assert.Less(t, result.Lower, result.Middle)

	_, err = bb.Calculate(flat[:10])
	assert.ErrorIs(t, err, ErrInsufficientData)
}
