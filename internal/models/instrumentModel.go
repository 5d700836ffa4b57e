package models

import "time"

// Instrument is one tradeable symbol. Active instruments form the candidate
// pool for random session creation.
type Instrument struct {
	ID     uint   `gorm:"primaryKey"`
	Ticker string `gorm:"size:20;uniqueIndex;not null"`
	Name   string `gorm:"size:100;not null"`
	Active bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
