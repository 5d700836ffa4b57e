package repositories

import (
	"errors"

	"TradeTrainer/internal/models"
	"TradeTrainer/internal/trainerr"

	"gorm.io/gorm"
)

type ChartRepository struct {
	db *gorm.DB
}

// NewChartRepository creates a new instance of ChartRepository
func NewChartRepository(db *gorm.DB) *ChartRepository {
	return &ChartRepository{db: db}
}

// Create adds a new Chart record to the database
func (r *ChartRepository) Create(chart *models.Chart) error {
	if chart == nil {
		return errors.New("chart cannot be nil")
	}
	return mapStorageErr(r.db.Create(chart).Error)
}

// FindOwned retrieves a chart only when it belongs to the given user.
// Ownership is part of the query predicate so "not yours" and "does not
// exist" are indistinguishable.
func (r *ChartRepository) FindOwned(chartID, userID uint) (*models.Chart, error) {
	return r.findOwned(chartID, userID, false)
}

// FindOwnedForUpdate is the exclusive-lock variant used by the progress
// controller; the lock is held until the surrounding transaction commits.
func (r *ChartRepository) FindOwnedForUpdate(chartID, userID uint) (*models.Chart, error) {
	return r.findOwned(chartID, userID, true)
}

func (r *ChartRepository) findOwned(chartID, userID uint, lock bool) (*models.Chart, error) {
	if chartID == 0 || userID == 0 {
		return nil, errors.New("invalid chart or user id")
	}
	q := r.db.
		Joins("JOIN sessions ON sessions.id = charts.session_id").
		Where("charts.id = ? AND sessions.user_id = ?", chartID, userID)
	if lock {
		q = forUpdate(q, "charts")
	}
	var chart models.Chart
	err := q.First(&chart).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, mapStorageErr(err)
	}
	// Session is loaded separately: Preload combined with a locking clause
	// would spread FOR UPDATE onto the sessions table.
	if err := r.db.Preload("Account").First(&chart.Session, chart.SessionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, trainerr.E(trainerr.DataIntegrity, "chart %d has no session", chartID)
		}
		return nil, mapStorageErr(err)
	}
	return &chart, nil
}

// AdvanceProgress persists a new progress index guarded by the chart's
// version counter. A stale version means another writer got there first.
func (r *ChartRepository) AdvanceProgress(chart *models.Chart, nextIdx int) error {
	if chart == nil {
		return errors.New("chart cannot be nil")
	}
	res := r.db.Model(&models.Chart{}).
		Where("id = ? AND version = ?", chart.ID, chart.Version).
		Updates(map[string]any{
			"progress_index": nextIdx,
			"version":        chart.Version + 1,
		})
	if res.Error != nil {
		return mapStorageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return trainerr.E(trainerr.Conflict, "chart %d version %d is stale", chart.ID, chart.Version)
	}
	chart.ProgressIndex = &nextIdx
	chart.Version++
	return nil
}
