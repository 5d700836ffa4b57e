package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the current holding of one instrument in one account. At most
// one row exists per (account, instrument); the row is deleted outright when
// the quantity reaches zero.
type Position struct {
	ID           uint `gorm:"primaryKey"`
	AccountID    uint `gorm:"uniqueIndex:uk_position_account_instrument;index;not null"`
	InstrumentID uint `gorm:"uniqueIndex:uk_position_account_instrument;not null"`

	Quantity decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	AvgPrice decimal.Decimal `gorm:"type:numeric(18,4);not null"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
