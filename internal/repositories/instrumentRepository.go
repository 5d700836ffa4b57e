package repositories

import (
	"errors"

	"TradeTrainer/internal/models"

	"gorm.io/gorm"
)

type InstrumentRepository struct {
	db *gorm.DB
}

// NewInstrumentRepository creates a new instance of InstrumentRepository
func NewInstrumentRepository(db *gorm.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

// Create adds a new Instrument record to the database
func (r *InstrumentRepository) Create(instrument *models.Instrument) error {
	if instrument == nil {
		return errors.New("instrument cannot be nil")
	}
	return mapStorageErr(r.db.Create(instrument).Error)
}

// FindActive retrieves the candidate pool for random session creation
func (r *InstrumentRepository) FindActive() ([]models.Instrument, error) {
	var instruments []models.Instrument
	err := r.db.Where("active = ?", true).Order("id ASC").Find(&instruments).Error
	return instruments, mapStorageErr(err)
}
