package models

// Candle is one OHLCV bar of a chart, identified by (chart, idx) with idx
// contiguous from 0. Written once at session setup, immutable afterwards.
// The close of the candle at the chart's progress index is the current price.
type Candle struct {
	ID      uint `gorm:"primaryKey"`
	ChartID uint `gorm:"uniqueIndex:uk_candle_chart_idx;index;not null"`
	Idx     int  `gorm:"uniqueIndex:uk_candle_chart_idx;not null"`

	T      int64   `gorm:"index;not null"`
	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume float64 `gorm:"not null"`
}

// TableName sets the table name for Candle model
func (Candle) TableName() string {
	return "candles"
}
