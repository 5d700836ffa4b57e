package repositories

import (
	"errors"

	"TradeTrainer/internal/models"

	"gorm.io/gorm"
)

type PositionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a new instance of PositionRepository
func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create adds a new Position record to the database
func (r *PositionRepository) Create(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return mapStorageErr(r.db.Create(position).Error)
}

// FindByAccountAndInstrument retrieves the single position of an
// (account, instrument) pair; nil when the pair holds nothing.
func (r *PositionRepository) FindByAccountAndInstrument(accountID, instrumentID uint) (*models.Position, error) {
	return r.find(accountID, instrumentID, false)
}

// FindByAccountAndInstrumentForUpdate is the locked variant. Both the manual
// trade path and the auto-exit path funnel their lookup-then-upsert through
// this lock, so two concurrent buys cannot blend stale quantities.
func (r *PositionRepository) FindByAccountAndInstrumentForUpdate(accountID, instrumentID uint) (*models.Position, error) {
	return r.find(accountID, instrumentID, true)
}

func (r *PositionRepository) find(accountID, instrumentID uint, lock bool) (*models.Position, error) {
	if accountID == 0 || instrumentID == 0 {
		return nil, errors.New("invalid account or instrument id")
	}
	q := r.db.Where("account_id = ? AND instrument_id = ?", accountID, instrumentID)
	if lock {
		q = forUpdate(q, "positions")
	}
	var position models.Position
	err := q.First(&position).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &position, mapStorageErr(err)
}

// FindByAccount retrieves all positions of an account
func (r *PositionRepository) FindByAccount(accountID uint) ([]models.Position, error) {
	if accountID == 0 {
		return nil, errors.New("invalid account id")
	}
	var positions []models.Position
	err := r.db.Where("account_id = ?", accountID).Find(&positions).Error
	return positions, mapStorageErr(err)
}

// Update modifies an existing Position record
func (r *PositionRepository) Update(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return mapStorageErr(r.db.Save(position).Error)
}

// Delete removes a Position record; used when a position is fully closed
func (r *PositionRepository) Delete(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return mapStorageErr(r.db.Delete(position).Error)
}

// DeleteByAccount removes every position of an account (account reset)
func (r *PositionRepository) DeleteByAccount(accountID uint) error {
	if accountID == 0 {
		return errors.New("invalid account id")
	}
	return mapStorageErr(r.db.Where("account_id = ?", accountID).Delete(&models.Position{}).Error)
}
