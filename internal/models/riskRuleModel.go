package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskRule holds the optional stop-loss/take-profit thresholds of one chart.
// A nil threshold means unset. Disabling keeps the configured prices.
type RiskRule struct {
	ID        uint `gorm:"primaryKey"`
	ChartID   uint `gorm:"uniqueIndex:uk_risk_rule_chart;not null"`
	AccountID uint `gorm:"index;not null"`

	StopLossPrice   decimal.NullDecimal `gorm:"type:numeric(18,4)"`
	TakeProfitPrice decimal.NullDecimal `gorm:"type:numeric(18,4)"`
	Enabled         bool                `gorm:"not null"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
