package indicators

import "errors"

// ErrInsufficientData is returned when a price series is shorter than an
// indicator's required lookback.
var ErrInsufficientData = errors.New("insufficient data")

// SMA calculates a Simple Moving Average over close prices.
type SMA struct {
	period int
}

// NewSMA creates a new SMA instance with the given period.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

// Calculate returns the SMA of the last period prices.
func (s *SMA) Calculate(prices []float64) (float64, error) {
	if len(prices) < s.period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for _, p := range prices[len(prices)-s.period:] {
		sum += p
	}
	return sum / float64(s.period), nil
}

// Period returns the configured lookback.
func (s *SMA) Period() int {
	return s.period
}
