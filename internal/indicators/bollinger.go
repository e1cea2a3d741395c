package indicators

import "math"

// BollingerBands calculates Bollinger Bands over close prices.
type BollingerBands struct {
	period int
	stdDev float64
}

// BollingerResult holds the three band values for the latest bar.
type BollingerResult struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// NewBollingerBands creates a new BollingerBands instance.
func NewBollingerBands(period int, stdDev float64) *BollingerBands {
	return &BollingerBands{period: period, stdDev: stdDev}
}

// Calculate computes the bands for the given price series.
func (b *BollingerBands) Calculate(prices []float64) (*BollingerResult, error) {
	if len(prices) < b.period {
		return nil, ErrInsufficientData
	}

	window := prices[len(prices)-b.period:]
	middle := mean(window)

	variance := 0.0
	for _, p := range window {
		diff := p - middle
		variance += diff * diff
	}
	sigma := math.Sqrt(variance / float64(b.period))

	return &BollingerResult{
		Upper:  middle + b.stdDev*sigma,
		Middle: middle,
		Lower:  middle - b.stdDev*sigma,
	}, nil
}

// Period returns the configured lookback.
func (b *BollingerBands) Period() int {
	return b.period
}
