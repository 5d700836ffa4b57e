package repositories

import (
	"errors"

	"TradeTrainer/internal/models"

	"gorm.io/gorm"
)

type RiskRuleRepository struct {
	db *gorm.DB
}

// NewRiskRuleRepository creates a new instance of RiskRuleRepository
func NewRiskRuleRepository(db *gorm.DB) *RiskRuleRepository {
	return &RiskRuleRepository{db: db}
}

// FindByChart retrieves the single risk rule of a chart; nil when unset
func (r *RiskRuleRepository) FindByChart(chartID uint) (*models.RiskRule, error) {
	if chartID == 0 {
		return nil, errors.New("invalid chart id")
	}
	var rule models.RiskRule
	err := r.db.Where("chart_id = ?", chartID).First(&rule).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &rule, mapStorageErr(err)
}

// Save inserts or updates a risk rule (at most one per chart)
func (r *RiskRuleRepository) Save(rule *models.RiskRule) error {
	if rule == nil {
		return errors.New("rule cannot be nil")
	}
	return mapStorageErr(r.db.Save(rule).Error)
}
