// Package riskrule manages the per-chart stop-loss/take-profit thresholds.
// Invalid thresholds are rejected at upsert time, never silently coerced.
package riskrule

import (
	"time"

	"TradeTrainer/internal/models"
	"TradeTrainer/internal/operations/pricing"
	"TradeTrainer/internal/repositories"
	"TradeTrainer/internal/trainerr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// View is the caller-facing shape of a chart's rule. RuleID is nil when no
// rule has been configured yet.
type View struct {
	RuleID          *uint
	ChartID         uint
	AccountID       uint
	StopLossPrice   *decimal.Decimal
	TakeProfitPrice *decimal.Decimal
	Enabled         bool
	UpdatedAt       *time.Time
}

// UpsertInput carries the fields of one upsert. Nil fields leave the
// stored values as they are; disabling never erases configured thresholds.
type UpsertInput struct {
	StopLossPrice   *decimal.Decimal
	TakeProfitPrice *decimal.Decimal
	Enabled         *bool
}

type Service struct {
	db *gorm.DB
}

// NewService creates a new instance of Service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Get returns the chart's rule, or an unset default view when none exists.
func (s *Service) Get(userID, chartID uint) (*View, error) {
	chart, err := s.loadOwnedChart(s.db, chartID, userID)
	if err != nil {
		return nil, err
	}

	rule, err := repositories.NewRiskRuleRepository(s.db).FindByChart(chartID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return &View{
			ChartID:   chartID,
			AccountID: chart.Session.AccountID,
			Enabled:   false,
		}, nil
	}
	return toView(rule), nil
}

// Upsert creates or updates the chart's rule. Enabling with neither
// threshold set is meaningless and rejected; a stop-loss must sit strictly
// below and a take-profit strictly above the current price, otherwise the
// rule would fire on the very next advance regardless of price movement.
func (s *Service) Upsert(userID, chartID uint, in UpsertInput) (*View, error) {
	var view *View
	err := s.db.Transaction(func(tx *gorm.DB) error {
		chart, err := s.loadOwnedChart(tx, chartID, userID)
		if err != nil {
			return err
		}
		if chart.Session.Status != models.SessionStatusInProgress {
			return trainerr.E(trainerr.SessionNotActive,
				"session %d is %s", chart.SessionID, chart.Session.Status)
		}

		price, err := pricing.NewResolver(tx).Resolve(chart)
		if err != nil {
			return err
		}
		if in.StopLossPrice != nil && in.StopLossPrice.GreaterThanOrEqual(price) {
			return trainerr.E(trainerr.InvalidRiskRule,
				"stop-loss %s must be below current price %s", in.StopLossPrice, price)
		}
		if in.TakeProfitPrice != nil && in.TakeProfitPrice.LessThanOrEqual(price) {
			return trainerr.E(trainerr.InvalidRiskRule,
				"take-profit %s must be above current price %s", in.TakeProfitPrice, price)
		}

		ruleRepo := repositories.NewRiskRuleRepository(tx)
		rule, err := ruleRepo.FindByChart(chartID)
		if err != nil {
			return err
		}
		if rule == nil {
			rule = &models.RiskRule{
				ChartID:   chartID,
				AccountID: chart.Session.AccountID,
			}
		}

		if in.StopLossPrice != nil {
			rule.StopLossPrice = toNullDecimal(in.StopLossPrice)
		}
		if in.TakeProfitPrice != nil {
			rule.TakeProfitPrice = toNullDecimal(in.TakeProfitPrice)
		}
		if in.Enabled != nil {
			rule.Enabled = *in.Enabled
		}
		if rule.Enabled && !rule.StopLossPrice.Valid && !rule.TakeProfitPrice.Valid {
			return trainerr.E(trainerr.InvalidRiskRule, "enabled rule needs at least one threshold")
		}

		if err := ruleRepo.Save(rule); err != nil {
			return err
		}
		view = toView(rule)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *Service) loadOwnedChart(db *gorm.DB, chartID, userID uint) (*models.Chart, error) {
	chart, err := repositories.NewChartRepository(db).FindOwned(chartID, userID)
	if err != nil {
		return nil, err
	}
	if chart == nil {
		return nil, trainerr.E(trainerr.NotFound, "chart %d", chartID)
	}
	return chart, nil
}

func toView(rule *models.RiskRule) *View {
	v := &View{
		RuleID:    &rule.ID,
		ChartID:   rule.ChartID,
		AccountID: rule.AccountID,
		Enabled:   rule.Enabled,
	}
	if rule.StopLossPrice.Valid {
		sl := rule.StopLossPrice.Decimal
		v.StopLossPrice = &sl
	}
	if rule.TakeProfitPrice.Valid {
		tp := rule.TakeProfitPrice.Decimal
		v.TakeProfitPrice = &tp
	}
	if !rule.UpdatedAt.IsZero() {
		t := rule.UpdatedAt
		v.UpdatedAt = &t
	}
	return v
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
