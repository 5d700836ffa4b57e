// Package marketdata supplies historical daily candles for session seeding.
// The engine itself never reads a live feed; candles are materialized once
// at session creation and the engine replays them from storage.
package marketdata

import (
	"context"
	"time"
)

// Candle is one daily OHLCV bar keyed by its epoch-millis open time.
type Candle struct {
	T      int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Source fetches daily candles for a ticker over a date range, oldest
// first.
type Source interface {
	DailyCandles(ctx context.Context, ticker string, from, to time.Time) ([]Candle, error)
}
