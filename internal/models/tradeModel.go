package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an immutable record of one executed order. Never updated or
// deleted; the audit trail from which realized P&L is derived.
type Trade struct {
	ID           uint `gorm:"primaryKey"`
	ChartID      uint `gorm:"index;not null"`
	AccountID    uint `gorm:"index;not null"`
	InstrumentID uint `gorm:"index;not null"`

	Side  string          `gorm:"size:10;not null"`
	Price decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Qty   decimal.Decimal `gorm:"type:numeric(18,6);not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

const (
	TradeSideBuy  = "BUY"
	TradeSideSell = "SELL"
)
