package progress

import (
	"sync"
	"testing"
	"time"

	"TradeTrainer/internal/models"
	"TradeTrainer/internal/operations/trade"
	"TradeTrainer/internal/testdb"
	"TradeTrainer/internal/trainerr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newController(db *gorm.DB) *Controller {
	return NewController(db, trade.NewExecutor(db))
}

func seedRule(t *testing.T, db *gorm.DB, f *testdb.Fixture, stopLoss, takeProfit string) {
	t.Helper()
	rule := &models.RiskRule{ChartID: f.Chart.ID, AccountID: f.Account.ID, Enabled: true}
	if stopLoss != "" {
		rule.StopLossPrice = decimal.NullDecimal{Decimal: dec(stopLoss), Valid: true}
	}
	if takeProfit != "" {
		rule.TakeProfitPrice = decimal.NullDecimal{Decimal: dec(takeProfit), Valid: true}
	}
	require.NoError(t, db.Create(rule).Error)
}

func TestNextAdvancesOneBar(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{100, 101, 102})
	controller := newController(db)

	snap, err := controller.Next(testdb.UserID, f.Chart.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.ProgressIndex)
	assert.True(t, snap.CurrentPrice.Equal(dec("101")))
	assert.Equal(t, models.SessionStatusInProgress, snap.SessionStatus)
	assert.Equal(t, StateAdvancing, snap.State)
	assert.False(t, snap.AutoExited)
	assert.True(t, snap.CashBalance.Equal(dec("10000")))
	assert.True(t, snap.PositionQty.IsZero())
}

func TestAdvanceIsMonotonic(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{1, 2, 3, 4, 5, 6, 7, 8})
	controller := newController(db)

	last := 0
	for _, steps := range []int{2, 1, 3, 5} {
		snap, err := controller.Advance(testdb.UserID, f.Chart.ID, steps)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, snap.ProgressIndex, last)
		assert.LessOrEqual(t, snap.ProgressIndex, 7)
		last = snap.ProgressIndex
	}
	assert.Equal(t, 7, last)
}

func TestAdvanceClampsToLastBar(t *testing.T) {
	db := testdb.Open(t)
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	f := testdb.SeedChart(t, db, "10000", closes)
	testdb.SetProgress(t, db, f, 10)

	snap, err := newController(db).Advance(testdb.UserID, f.Chart.ID, 500)
	require.NoError(t, err)

	assert.Equal(t, 29, snap.ProgressIndex)
	assert.Equal(t, StateAtEnd, snap.State)
	assert.True(t, snap.CurrentPrice.Equal(dec("129")))
}

func TestAdvanceValidatesSteps(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{1, 2})
	controller := newController(db)

	for _, steps := range []int{0, -1, 501} {
		_, err := controller.Advance(testdb.UserID, f.Chart.ID, steps)
		require.Error(t, err)
		assert.True(t, trainerr.IsKind(err, trainerr.InvalidSteps), "steps=%d", steps)
	}

	var chart models.Chart
	require.NoError(t, db.First(&chart, f.Chart.ID).Error)
	assert.Equal(t, 0, chart.CurrentIndex(), "failed validation must not advance")
}

func TestAdvanceRequiresOwnership(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{1, 2})

	_, err := newController(db).Next(testdb.OtherUserID, f.Chart.ID)
	require.Error(t, err)
	assert.True(t, trainerr.IsKind(err, trainerr.NotFound))

	_, err = newController(db).Next(testdb.UserID, f.Chart.ID+99)
	require.Error(t, err)
	assert.True(t, trainerr.IsKind(err, trainerr.NotFound))
}

func TestAdvanceRequiresActiveSession(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{1, 2})
	testdb.CompleteSession(t, db, f)

	_, err := newController(db).Next(testdb.UserID, f.Chart.ID)
	require.Error(t, err)
	assert.True(t, trainerr.IsKind(err, trainerr.SessionNotActive))
}

func TestAdvanceLiquidatesOnStopLoss(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{100, 85, 80})
	seedRule(t, db, f, "90", "")
	executor := trade.NewExecutor(db)

	_, err := executor.Buy(testdb.UserID, f.Chart.ID, dec("10"))
	require.NoError(t, err)

	snap, err := newController(db).Next(testdb.UserID, f.Chart.ID)
	require.NoError(t, err)

	assert.True(t, snap.AutoExited)
	assert.Equal(t, "STOP_LOSS", snap.AutoExitReason)
	assert.Equal(t, 1, snap.ProgressIndex)
	// liquidation executed at the evaluator's price, bar 1's close
	assert.True(t, snap.CurrentPrice.Equal(dec("85")))
	// 10000 - 10*100 + 10*85
	assert.True(t, snap.CashBalance.Equal(dec("9850")), "got %s", snap.CashBalance)
	assert.True(t, snap.PositionQty.IsZero())

	var pos models.Position
	err = db.Where("account_id = ?", f.Account.ID).First(&pos).Error
	assert.Equal(t, gorm.ErrRecordNotFound, err, "position must be fully liquidated")

	var sells int64
	require.NoError(t, db.Model(&models.Trade{}).
		Where("chart_id = ? AND side = ?", f.Chart.ID, models.TradeSideSell).
		Count(&sells).Error)
	assert.Equal(t, int64(1), sells)
}

func TestAdvanceLiquidatesOnTakeProfit(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{100, 112})
	seedRule(t, db, f, "", "110")
	executor := trade.NewExecutor(db)

	_, err := executor.Buy(testdb.UserID, f.Chart.ID, dec("5"))
	require.NoError(t, err)

	snap, err := newController(db).Next(testdb.UserID, f.Chart.ID)
	require.NoError(t, err)

	assert.True(t, snap.AutoExited)
	assert.Equal(t, "TAKE_PROFIT", snap.AutoExitReason)
	assert.True(t, snap.CurrentPrice.Equal(dec("112")))
	// 10000 - 5*100 + 5*112
	assert.True(t, snap.CashBalance.Equal(dec("10060")), "got %s", snap.CashBalance)
}

func TestAdvanceBreachWithoutPositionSkipsLiquidation(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{100, 80})
	seedRule(t, db, f, "90", "")

	snap, err := newController(db).Next(testdb.UserID, f.Chart.ID)
	require.NoError(t, err)

	assert.False(t, snap.AutoExited, "nothing held, nothing to liquidate")
	assert.Equal(t, "STOP_LOSS", snap.AutoExitReason, "the breach itself is still reported")
	assert.True(t, snap.PositionQty.IsZero())

	var n int64
	require.NoError(t, db.Model(&models.Trade{}).Where("chart_id = ?", f.Chart.ID).Count(&n).Error)
	assert.Equal(t, int64(0), n, "no trade record for a skipped liquidation")
}

func TestAdvanceBumpsVersion(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{1, 2, 3})

	_, err := newController(db).Next(testdb.UserID, f.Chart.ID)
	require.NoError(t, err)

	var chart models.Chart
	require.NoError(t, db.First(&chart, f.Chart.ID).Error)
	assert.Equal(t, int64(1), chart.Version)
}

func TestConcurrentAdvancesSerialize(t *testing.T) {
	db := testdb.Open(t)
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	f := testdb.SeedChart(t, db, "10000", closes)
	testdb.SetProgress(t, db, f, 5)
	controller := newController(db)

	var mu sync.Mutex
	var observed []int
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < 50; attempt++ {
				snap, err := controller.Next(testdb.UserID, f.Chart.ID)
				if err != nil {
					if trainerr.Retryable(err) {
						time.Sleep(5 * time.Millisecond)
						continue
					}
					t.Errorf("advance: %v", err)
					return
				}
				mu.Lock()
				observed = append(observed, snap.ProgressIndex)
				mu.Unlock()
				return
			}
			t.Error("advance never succeeded")
		}()
	}
	wg.Wait()

	require.Len(t, observed, 2)
	assert.ElementsMatch(t, []int{6, 7}, observed,
		"both advances must serialize, not both read index 5")
}

func TestStateOf(t *testing.T) {
	chart := &models.Chart{Bars: 10}
	assert.Equal(t, StateNotStarted, StateOf(chart))

	idx := 4
	chart.ProgressIndex = &idx
	assert.Equal(t, StateAdvancing, StateOf(chart))

	idx = 9
	assert.Equal(t, StateAtEnd, StateOf(chart))
}
