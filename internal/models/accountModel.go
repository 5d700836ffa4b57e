package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a virtual cash wallet shared by every chart of its sessions.
// Cash is mutated by trade execution only and must never go negative.
type Account struct {
	ID     uint   `gorm:"primaryKey"`
	UserID uint   `gorm:"index;not null"`
	Number string `gorm:"size:36;uniqueIndex;not null"`
	Name   string `gorm:"size:50;not null"`

	InitialBalance decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	CashBalance    decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	BaseCurrency   string          `gorm:"size:10;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

const (
	BaseCurrencyKRW = "KRW"
	BaseCurrencyUSD = "USD"
)

// ResetCash restores the cash balance to the account's seed money.
func (a *Account) ResetCash() {
	a.CashBalance = a.InitialBalance
}
