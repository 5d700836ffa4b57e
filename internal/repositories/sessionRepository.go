package repositories

import (
	"errors"

	"TradeTrainer/internal/models"

	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new instance of SessionRepository
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create adds a new Session record to the database
func (r *SessionRepository) Create(session *models.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	return mapStorageErr(r.db.Create(session).Error)
}

// FindOwned retrieves a session only when it belongs to the given user
func (r *SessionRepository) FindOwned(sessionID, userID uint) (*models.Session, error) {
	if sessionID == 0 || userID == 0 {
		return nil, errors.New("invalid session or user id")
	}
	var session models.Session
	err := r.db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &session, mapStorageErr(err)
}

// FindByUser retrieves all sessions of a user, newest first
func (r *SessionRepository) FindByUser(userID uint) ([]models.Session, error) {
	if userID == 0 {
		return nil, errors.New("invalid user id")
	}
	var sessions []models.Session
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&sessions).Error
	return sessions, mapStorageErr(err)
}

// UpdateStatus moves a session to a new lifecycle state
func (r *SessionRepository) UpdateStatus(sessionID uint, status string) error {
	if sessionID == 0 {
		return errors.New("invalid session id")
	}
	return mapStorageErr(r.db.Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("status", status).Error)
}
