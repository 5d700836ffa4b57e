package repositories

import (
	"errors"

	"TradeTrainer/internal/models"

	"gorm.io/gorm"
)

type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new instance of TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create appends a new Trade record. Trades are never updated or deleted.
func (r *TradeRepository) Create(trade *models.Trade) error {
	if trade == nil {
		return errors.New("trade cannot be nil")
	}
	return mapStorageErr(r.db.Create(trade).Error)
}

// ListByChart retrieves the trades of a chart in execution order
func (r *TradeRepository) ListByChart(chartID uint) ([]models.Trade, error) {
	if chartID == 0 {
		return nil, errors.New("invalid chart id")
	}
	var trades []models.Trade
	err := r.db.Where("chart_id = ?", chartID).Order("id ASC").Find(&trades).Error
	return trades, mapStorageErr(err)
}
