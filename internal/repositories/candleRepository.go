package repositories

import (
	"errors"

	"TradeTrainer/internal/models"

	"gorm.io/gorm"
)

type CandleRepository struct {
	db *gorm.DB
}

// NewCandleRepository creates a new instance of CandleRepository
func NewCandleRepository(db *gorm.DB) *CandleRepository {
	return &CandleRepository{db: db}
}

// CreateBatch inserts a chart's full candle set in one go (session seeding).
func (r *CandleRepository) CreateBatch(candles []models.Candle) error {
	if len(candles) == 0 {
		return errors.New("candles cannot be empty")
	}
	return mapStorageErr(r.db.CreateInBatches(candles, 500).Error)
}

// FindByChartAndIdx retrieves one candle by its (chart, idx) identity
func (r *CandleRepository) FindByChartAndIdx(chartID uint, idx int) (*models.Candle, error) {
	if chartID == 0 || idx < 0 {
		return nil, errors.New("invalid chart id or idx")
	}
	var candle models.Candle
	err := r.db.Where("chart_id = ? AND idx = ?", chartID, idx).First(&candle).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &candle, mapStorageErr(err)
}

// ListByChart retrieves all candles of a chart ordered by idx
func (r *CandleRepository) ListByChart(chartID uint) ([]models.Candle, error) {
	if chartID == 0 {
		return nil, errors.New("invalid chart id")
	}
	var candles []models.Candle
	err := r.db.Where("chart_id = ?", chartID).Order("idx ASC").Find(&candles).Error
	return candles, mapStorageErr(err)
}

// ListRevealed retrieves the candles up to and including maxIdx, which is
// how the progress index keeps future bars hidden from the client.
func (r *CandleRepository) ListRevealed(chartID uint, maxIdx int) ([]models.Candle, error) {
	if chartID == 0 {
		return nil, errors.New("invalid chart id")
	}
	var candles []models.Candle
	err := r.db.Where("chart_id = ? AND idx <= ?", chartID, maxIdx).
		Order("idx ASC").
		Find(&candles).Error
	return candles, mapStorageErr(err)
}
