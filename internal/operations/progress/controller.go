// Package progress advances a training chart through its candle history.
// One advance is one transaction: lock the chart, move the index, evaluate
// the risk rule, liquidate if it fired, snapshot. If any step fails the
// whole advance rolls back, so a chart is never left advanced with a
// breached rule unhandled.
package progress

import (
	"TradeTrainer/internal/metrics"
	"TradeTrainer/internal/models"
	"TradeTrainer/internal/operations/autoexit"
	"TradeTrainer/internal/operations/trade"
	"TradeTrainer/internal/repositories"
	"TradeTrainer/internal/trainerr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MinSteps = 1
	MaxSteps = 500
)

// Chart states derived from the progress index; transitions only move
// forward, there is no rewind.
const (
	StateNotStarted = "NOT_STARTED"
	StateAdvancing  = "ADVANCING"
	StateAtEnd      = "AT_END"
)

// Snapshot is the consistent view returned by one advance.
type Snapshot struct {
	ChartID          uint
	ProgressIndex    int
	State            string
	CurrentPrice     decimal.Decimal
	SessionStatus    string
	CashBalance      decimal.Decimal
	PositionQty      decimal.Decimal
	PositionAvgPrice decimal.Decimal
	AutoExited       bool
	AutoExitReason   string
}

type Controller struct {
	db       *gorm.DB
	executor *trade.Executor
}

// NewController creates a new instance of Controller
func NewController(db *gorm.DB, executor *trade.Executor) *Controller {
	return &Controller{db: db, executor: executor}
}

// Next advances the chart by exactly one bar.
func (c *Controller) Next(userID, chartID uint) (*Snapshot, error) {
	return c.Advance(userID, chartID, 1)
}

// Advance reveals up to steps more bars of the chart. Advancing past the
// end of history clamps to the last bar instead of failing. Concurrent
// advances on the same chart serialize on the chart row lock; the second
// caller observes the index the first one committed.
func (c *Controller) Advance(userID, chartID uint, steps int) (*Snapshot, error) {
	var snap *Snapshot
	err := c.db.Transaction(func(tx *gorm.DB) error {
		chartRepo := repositories.NewChartRepository(tx)

		chart, err := chartRepo.FindOwnedForUpdate(chartID, userID)
		if err != nil {
			return err
		}
		if chart == nil {
			return trainerr.E(trainerr.NotFound, "chart %d", chartID)
		}
		if chart.Session.Status != models.SessionStatusInProgress {
			return trainerr.E(trainerr.SessionNotActive,
				"session %d is %s", chart.SessionID, chart.Session.Status)
		}
		if steps < MinSteps || steps > MaxSteps {
			return trainerr.E(trainerr.InvalidSteps,
				"steps %d outside [%d, %d]", steps, MinSteps, MaxSteps)
		}

		maxIdx := chart.MaxIndex()
		nextIdx := chart.CurrentIndex() + steps
		if nextIdx > maxIdx {
			nextIdx = maxIdx
		}

		// Direct UPDATE guarded by the version counter; later reads in
		// this transaction observe the new index.
		if err := chartRepo.AdvanceProgress(chart, nextIdx); err != nil {
			return err
		}

		result, err := autoexit.NewEvaluator(tx).Evaluate(chart)
		if err != nil {
			return err
		}

		positionRepo := repositories.NewPositionRepository(tx)
		pos, err := positionRepo.FindByAccountAndInstrument(chart.Session.AccountID, chart.InstrumentID)
		if err != nil {
			return err
		}

		snap = &Snapshot{
			ChartID:        chart.ID,
			ProgressIndex:  nextIdx,
			State:          StateOf(chart),
			CurrentPrice:   result.CurrentPrice,
			SessionStatus:  chart.Session.Status,
			AutoExitReason: result.Reason,
		}

		if result.Triggered && pos != nil && pos.Quantity.GreaterThan(decimal.Zero) {
			// The only trade the engine writes without explicit user
			// action. Executed at the exact price the evaluator saw.
			sellSnap, sold, err := c.executor.SellAllInTx(tx, chart, result.CurrentPrice)
			if err != nil {
				return err
			}
			snap.AutoExited = sold
			snap.CurrentPrice = sellSnap.ExecutedPrice
			snap.CashBalance = sellSnap.CashBalance
			snap.PositionQty = sellSnap.PositionQty
			snap.PositionAvgPrice = sellSnap.PositionAvgPrice
			return nil
		}

		account, err := repositories.NewAccountRepository(tx).FindByID(chart.Session.AccountID)
		if err != nil {
			return err
		}
		if account == nil {
			return trainerr.E(trainerr.DataIntegrity, "account %d missing", chart.Session.AccountID)
		}
		snap.CashBalance = account.CashBalance
		if pos != nil {
			snap.PositionQty = pos.Quantity
			snap.PositionAvgPrice = pos.AvgPrice
		} else {
			snap.PositionQty = decimal.Zero
			snap.PositionAvgPrice = decimal.Zero
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Advances.Inc()
	if snap.AutoExited {
		metrics.Trades.WithLabelValues(models.TradeSideSell).Inc()
		metrics.AutoExits.WithLabelValues(snap.AutoExitReason).Inc()
	}
	return snap, nil
}

// StateOf derives the chart's position in its lifecycle from the progress
// index alone.
func StateOf(chart *models.Chart) string {
	idx := chart.CurrentIndex()
	switch {
	case idx <= 0:
		return StateNotStarted
	case idx >= chart.MaxIndex():
		return StateAtEnd
	default:
		return StateAdvancing
	}
}
