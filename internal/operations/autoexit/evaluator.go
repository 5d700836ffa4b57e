// Package autoexit decides whether a chart's risk rule fires at the current
// price. The evaluator never writes; liquidation is the progress
// controller's job.
package autoexit

import (
	"TradeTrainer/internal/models"
	"TradeTrainer/internal/operations/pricing"
	"TradeTrainer/internal/repositories"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ReasonStopLoss   = "STOP_LOSS"
	ReasonTakeProfit = "TAKE_PROFIT"
)

// Result is one evaluation outcome. CurrentPrice is always populated, even
// when nothing triggered, so callers can reuse it for snapshot assembly.
type Result struct {
	Triggered    bool
	Reason       string
	CurrentPrice decimal.Decimal
}

type Evaluator struct {
	ruleRepo *repositories.RiskRuleRepository
	resolver *pricing.Resolver
}

// NewEvaluator creates an evaluator bound to the given database handle,
// which may be a transaction.
func NewEvaluator(db *gorm.DB) *Evaluator {
	return &Evaluator{
		ruleRepo: repositories.NewRiskRuleRepository(db),
		resolver: pricing.NewResolver(db),
	}
}

// Evaluate resolves the chart's current price and checks it against the
// chart's risk rule. Stop-loss is checked before take-profit: if a gapping
// bar satisfies both thresholds at once, capital preservation wins.
func (e *Evaluator) Evaluate(chart *models.Chart) (*Result, error) {
	price, err := e.resolver.Resolve(chart)
	if err != nil {
		return nil, err
	}

	rule, err := e.ruleRepo.FindByChart(chart.ID)
	if err != nil {
		return nil, err
	}
	if rule == nil || !rule.Enabled {
		return &Result{Triggered: false, CurrentPrice: price}, nil
	}

	if rule.StopLossPrice.Valid && price.LessThanOrEqual(rule.StopLossPrice.Decimal) {
		return &Result{Triggered: true, Reason: ReasonStopLoss, CurrentPrice: price}, nil
	}
	if rule.TakeProfitPrice.Valid && price.GreaterThanOrEqual(rule.TakeProfitPrice.Decimal) {
		return &Result{Triggered: true, Reason: ReasonTakeProfit, CurrentPrice: price}, nil
	}

	return &Result{Triggered: false, CurrentPrice: price}, nil
}
