package models

import "time"

// Session is one practice run: a user training against one account.
// Charts belong to a session and share its account's cash and positions.
type Session struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	AccountID uint   `gorm:"index;not null"`
	Status    string `gorm:"size:20;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`

	Account Account `gorm:"foreignKey:AccountID"`
}

const (
	SessionStatusInProgress = "IN_PROGRESS"
	SessionStatusCompleted  = "COMPLETED"
)
