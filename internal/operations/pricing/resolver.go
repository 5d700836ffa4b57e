// Package pricing derives a chart's current price from server-held candle
// data. Client-supplied prices are never trusted anywhere in the engine.
package pricing

import (
	"TradeTrainer/internal/models"
	"TradeTrainer/internal/repositories"
	"TradeTrainer/internal/trainerr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Resolver struct {
	candleRepo *repositories.CandleRepository
}

// NewResolver creates a resolver bound to the given database handle, which
// may be a transaction.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{candleRepo: repositories.NewCandleRepository(db)}
}

// Resolve returns the close of the candle at the chart's progress index as
// an exact decimal. The index is clamped into [0, bars-1] first; a transient
// out-of-range index degrades to a boundary read instead of failing the
// request. A missing candle inside the valid range means the seed data is
// corrupt and is fatal.
func (r *Resolver) Resolve(chart *models.Chart) (decimal.Decimal, error) {
	idx := ClampIndex(chart)

	candle, err := r.candleRepo.FindByChartAndIdx(chart.ID, idx)
	if err != nil {
		return decimal.Zero, err
	}
	if candle == nil {
		return decimal.Zero, trainerr.E(trainerr.DataIntegrity,
			"candle (%d, %d) missing", chart.ID, idx)
	}
	return decimal.NewFromFloat(candle.Close), nil
}

// ClampIndex maps the chart's possibly-unset progress index onto the valid
// candle range.
func ClampIndex(chart *models.Chart) int {
	idx := chart.CurrentIndex()
	maxIdx := chart.MaxIndex()
	if idx < 0 {
		return 0
	}
	if idx > maxIdx {
		return maxIdx
	}
	return idx
}
