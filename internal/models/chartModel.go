package models

import "time"

// Chart is one training chart: a single instrument replayed over a fixed
// historical window. ProgressIndex counts the bars revealed so far and only
// ever moves forward; Version is bumped on every progress write so a stale
// read-then-write surfaces as a conflict instead of a lost update.
type Chart struct {
	ID           uint `gorm:"primaryKey"`
	SessionID    uint `gorm:"index;not null"`
	InstrumentID uint `gorm:"index;not null"`

	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`

	Bars          int   `gorm:"not null"`
	ProgressIndex *int  `gorm:""`
	Version       int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Session Session `gorm:"foreignKey:SessionID"`
}

// CurrentIndex returns the effective progress index, treating an unset
// index as the first bar.
func (c *Chart) CurrentIndex() int {
	if c.ProgressIndex == nil {
		return 0
	}
	return *c.ProgressIndex
}

// MaxIndex is the last valid candle index for this chart.
func (c *Chart) MaxIndex() int {
	if c.Bars <= 1 {
		return 0
	}
	return c.Bars - 1
}
