package marketdata

import (
	"context"
	"math/rand"
	"time"
)

// StaticSource serves pre-baked candles from memory. Tests seed it with
// fixture bars; no network involved.
type StaticSource struct {
	candles map[string][]Candle
}

func NewStaticSource() *StaticSource {
	return &StaticSource{candles: make(map[string][]Candle)}
}

// Add registers the candle history of a ticker, oldest first.
func (s *StaticSource) Add(ticker string, candles []Candle) {
	s.candles[ticker] = candles
}

func (s *StaticSource) DailyCandles(_ context.Context, ticker string, from, to time.Time) ([]Candle, error) {
	fromMs := from.UnixMilli()
	toMs := to.UnixMilli()
	var out []Candle
	for _, c := range s.candles[ticker] {
		if c.T >= fromMs && c.T <= toMs {
			out = append(out, c)
		}
	}
	return out, nil
}

// RandomWalkSource synthesizes a deterministic daily random walk per
// ticker. Backs the demo run when no exchange credentials are configured.
type RandomWalkSource struct {
	rng       *rand.Rand
	basePrice float64
}

func NewRandomWalkSource(rng *rand.Rand, basePrice float64) *RandomWalkSource {
	return &RandomWalkSource{rng: rng, basePrice: basePrice}
}

func (s *RandomWalkSource) DailyCandles(_ context.Context, ticker string, from, to time.Time) ([]Candle, error) {
	day := from.Truncate(24 * time.Hour)
	price := s.basePrice
	var out []Candle
	for !day.After(to) {
		drift := (s.rng.Float64() - 0.5) * 0.04
		open := price
		close := open * (1 + drift)
		high := open
		if close > high {
			high = close
		}
		high *= 1 + s.rng.Float64()*0.01
		low := open
		if close < low {
			low = close
		}
		low *= 1 - s.rng.Float64()*0.01
		out = append(out, Candle{
			T:      day.UnixMilli(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: 1000 + s.rng.Float64()*9000,
		})
		price = close
		day = day.AddDate(0, 0, 1)
	}
	return out, nil
}
