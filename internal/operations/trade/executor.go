// Package trade executes buy/sell orders against the shared per-account
// ledger. Every operation runs inside one storage transaction: cash, the
// position row and the trade log either all move or none of them do.
package trade

import (
	"TradeTrainer/internal/metrics"
	"TradeTrainer/internal/models"
	"TradeTrainer/internal/operations/pricing"
	"TradeTrainer/internal/repositories"
	"TradeTrainer/internal/trainerr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Snapshot reflects the ledger state immediately after one executed (or
// skipped) order. TradeID is nil when no trade record was created.
type Snapshot struct {
	ChartID          uint
	TradeID          *uint
	CashBalance      decimal.Decimal
	PositionQty      decimal.Decimal
	PositionAvgPrice decimal.Decimal
	ExecutedPrice    decimal.Decimal
}

type Executor struct {
	db *gorm.DB
}

// NewExecutor creates a new instance of Executor
func NewExecutor(db *gorm.DB) *Executor {
	return &Executor{db: db}
}

// Buy purchases qty whole units at the chart's current price. The quantity
// is truncated to 6 decimal places, then must be a positive whole number.
func (e *Executor) Buy(userID, chartID uint, qty decimal.Decimal) (*Snapshot, error) {
	var snap *Snapshot
	err := e.db.Transaction(func(tx *gorm.DB) error {
		chart, err := loadTradableChart(tx, chartID, userID)
		if err != nil {
			return err
		}
		price, err := pricing.NewResolver(tx).Resolve(chart)
		if err != nil {
			return err
		}
		snap, err = buyLocked(tx, chart, qty, price)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.Trades.WithLabelValues(models.TradeSideBuy).Inc()
	return snap, nil
}

// Sell disposes qty units at the chart's current price. Selling the whole
// holding deletes the position row; a partial sell leaves the average price
// untouched.
func (e *Executor) Sell(userID, chartID uint, qty decimal.Decimal) (*Snapshot, error) {
	var snap *Snapshot
	err := e.db.Transaction(func(tx *gorm.DB) error {
		chart, err := loadTradableChart(tx, chartID, userID)
		if err != nil {
			return err
		}
		norm, err := normalizeQuantity(qty)
		if err != nil {
			return err
		}
		price, err := pricing.NewResolver(tx).Resolve(chart)
		if err != nil {
			return err
		}
		pos, err := repositories.NewPositionRepository(tx).
			FindByAccountAndInstrumentForUpdate(chart.Session.AccountID, chart.InstrumentID)
		if err != nil {
			return err
		}
		if pos == nil {
			return trainerr.E(trainerr.InsufficientHoldings, "no open position")
		}
		snap, err = sellLocked(tx, chart, pos, norm, price)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.Trades.WithLabelValues(models.TradeSideSell).Inc()
	return snap, nil
}

// SellAll liquidates the whole position of the chart's instrument. When
// nothing is held this is a no-op: the snapshot carries a nil trade id and
// no record enters the trade log, so auto-exit evaluation on every advance
// does not pollute the audit trail.
func (e *Executor) SellAll(userID, chartID uint) (*Snapshot, error) {
	var snap *Snapshot
	sold := false
	err := e.db.Transaction(func(tx *gorm.DB) error {
		chart, err := loadTradableChart(tx, chartID, userID)
		if err != nil {
			return err
		}
		price, err := pricing.NewResolver(tx).Resolve(chart)
		if err != nil {
			return err
		}
		snap, sold, err = e.sellAllLocked(tx, chart, price)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sold {
		metrics.Trades.WithLabelValues(models.TradeSideSell).Inc()
	}
	return snap, nil
}

// SellAllInTx is the auto-exit entry point. It joins the caller's
// transaction and executes at the caller's price, so the liquidation uses
// the exact price the evaluator decided on. The sold flag tells the caller
// whether a trade was written; counting it is the caller's job once the
// transaction actually commits.
func (e *Executor) SellAllInTx(tx *gorm.DB, chart *models.Chart, price decimal.Decimal) (*Snapshot, bool, error) {
	return e.sellAllLocked(tx, chart, price)
}

func (e *Executor) sellAllLocked(tx *gorm.DB, chart *models.Chart, price decimal.Decimal) (*Snapshot, bool, error) {
	pos, err := repositories.NewPositionRepository(tx).
		FindByAccountAndInstrumentForUpdate(chart.Session.AccountID, chart.InstrumentID)
	if err != nil {
		return nil, false, err
	}
	if pos == nil || pos.Quantity.LessThanOrEqual(decimal.Zero) {
		account, err := repositories.NewAccountRepository(tx).FindByID(chart.Session.AccountID)
		if err != nil {
			return nil, false, err
		}
		if account == nil {
			return nil, false, trainerr.E(trainerr.DataIntegrity, "account %d missing", chart.Session.AccountID)
		}
		return &Snapshot{
			ChartID:          chart.ID,
			TradeID:          nil,
			CashBalance:      account.CashBalance,
			PositionQty:      decimal.Zero,
			PositionAvgPrice: decimal.Zero,
			ExecutedPrice:    price,
		}, false, nil
	}
	snap, err := sellLocked(tx, chart, pos, pos.Quantity, price)
	if err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

func buyLocked(tx *gorm.DB, chart *models.Chart, qty decimal.Decimal, price decimal.Decimal) (*Snapshot, error) {
	norm, err := normalizeQuantity(qty)
	if err != nil {
		return nil, err
	}

	accountRepo := repositories.NewAccountRepository(tx)
	account, err := accountRepo.FindByIDForUpdate(chart.Session.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, trainerr.E(trainerr.DataIntegrity, "account %d missing", chart.Session.AccountID)
	}

	cost := price.Mul(norm)
	if account.CashBalance.LessThan(cost) {
		return nil, trainerr.E(trainerr.InsufficientCash,
			"cost %s exceeds cash %s", cost, account.CashBalance)
	}

	positionRepo := repositories.NewPositionRepository(tx)
	pos, err := positionRepo.FindByAccountAndInstrumentForUpdate(account.ID, chart.InstrumentID)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = &models.Position{
			AccountID:    account.ID,
			InstrumentID: chart.InstrumentID,
			Quantity:     norm,
			AvgPrice:     price,
		}
		if err := positionRepo.Create(pos); err != nil {
			return nil, err
		}
	} else {
		newQty := pos.Quantity.Add(norm)
		// newAvg = (oldAvg*oldQty + price*qty) / newQty, half-up at 4 places
		newAvg := pos.AvgPrice.Mul(pos.Quantity).
			Add(price.Mul(norm)).
			DivRound(newQty, 4)
		pos.Quantity = newQty
		pos.AvgPrice = newAvg
		if err := positionRepo.Update(pos); err != nil {
			return nil, err
		}
	}

	account.CashBalance = account.CashBalance.Sub(cost)
	if err := accountRepo.Update(account); err != nil {
		return nil, err
	}

	trade := &models.Trade{
		ChartID:      chart.ID,
		AccountID:    account.ID,
		InstrumentID: chart.InstrumentID,
		Side:         models.TradeSideBuy,
		Price:        price,
		Qty:          norm,
	}
	if err := repositories.NewTradeRepository(tx).Create(trade); err != nil {
		return nil, err
	}

	return &Snapshot{
		ChartID:          chart.ID,
		TradeID:          &trade.ID,
		CashBalance:      account.CashBalance,
		PositionQty:      pos.Quantity,
		PositionAvgPrice: pos.AvgPrice,
		ExecutedPrice:    price,
	}, nil
}

func sellLocked(tx *gorm.DB, chart *models.Chart, pos *models.Position, qty decimal.Decimal, price decimal.Decimal) (*Snapshot, error) {
	if pos.Quantity.LessThan(qty) {
		return nil, trainerr.E(trainerr.InsufficientHoldings,
			"holding %s is less than %s", pos.Quantity, qty)
	}

	accountRepo := repositories.NewAccountRepository(tx)
	account, err := accountRepo.FindByIDForUpdate(chart.Session.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, trainerr.E(trainerr.DataIntegrity, "account %d missing", chart.Session.AccountID)
	}

	proceeds := price.Mul(qty)
	account.CashBalance = account.CashBalance.Add(proceeds)
	if err := accountRepo.Update(account); err != nil {
		return nil, err
	}

	positionRepo := repositories.NewPositionRepository(tx)
	remaining := pos.Quantity.Sub(qty)
	closed := remaining.IsZero()
	if closed {
		if err := positionRepo.Delete(pos); err != nil {
			return nil, err
		}
	} else {
		// Average price is intentionally untouched on a partial sell;
		// realized P&L comes from the trade log, not from position state.
		pos.Quantity = remaining
		if err := positionRepo.Update(pos); err != nil {
			return nil, err
		}
	}

	trade := &models.Trade{
		ChartID:      chart.ID,
		AccountID:    account.ID,
		InstrumentID: chart.InstrumentID,
		Side:         models.TradeSideSell,
		Price:        price,
		Qty:          qty,
	}
	if err := repositories.NewTradeRepository(tx).Create(trade); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ChartID:       chart.ID,
		TradeID:       &trade.ID,
		CashBalance:   account.CashBalance,
		ExecutedPrice: price,
	}
	if closed {
		snap.PositionQty = decimal.Zero
		snap.PositionAvgPrice = decimal.Zero
	} else {
		snap.PositionQty = remaining
		snap.PositionAvgPrice = pos.AvgPrice
	}
	return snap, nil
}

// loadTradableChart resolves the chart with ownership in the predicate and
// requires the owning session to still be in progress.
func loadTradableChart(tx *gorm.DB, chartID, userID uint) (*models.Chart, error) {
	chart, err := repositories.NewChartRepository(tx).FindOwned(chartID, userID)
	if err != nil {
		return nil, err
	}
	if chart == nil {
		return nil, trainerr.E(trainerr.NotFound, "chart %d", chartID)
	}
	if chart.Session.Status != models.SessionStatusInProgress {
		return nil, trainerr.E(trainerr.SessionNotActive,
			"session %d is %s", chart.SessionID, chart.Session.Status)
	}
	return chart, nil
}

// normalizeQuantity truncates to 6 decimal places, then rejects anything
// that is not a positive whole number of units.
func normalizeQuantity(qty decimal.Decimal) (decimal.Decimal, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, trainerr.E(trainerr.InvalidQuantity, "quantity must be positive")
	}
	norm := qty.Truncate(6)
	if norm.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, trainerr.E(trainerr.InvalidQuantity, "quantity truncates to zero")
	}
	if !norm.Equal(norm.Truncate(0)) {
		return decimal.Zero, trainerr.E(trainerr.InvalidQuantity, "fractional units are not allowed")
	}
	return norm, nil
}
