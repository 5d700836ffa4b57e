package session

import (
	"context"
	"math/rand"
	"testing"

	"TradeTrainer/internal/models"
	"TradeTrainer/internal/operations/marketdata"
	"TradeTrainer/internal/operations/progress"
	"TradeTrainer/internal/operations/trade"
	"TradeTrainer/internal/testdb"
	"TradeTrainer/internal/trainerr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedAccount(t *testing.T, db *gorm.DB) *models.Account {
	t.Helper()
	account := &models.Account{
		UserID:         testdb.UserID,
		Number:         "acct-1",
		Name:           "training",
		InitialBalance: decimal.NewFromInt(10000),
		CashBalance:    decimal.NewFromInt(10000),
		BaseCurrency:   models.BaseCurrencyUSD,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func seedInstrument(t *testing.T, db *gorm.DB, ticker string, active bool) *models.Instrument {
	t.Helper()
	instrument := &models.Instrument{Ticker: ticker, Name: ticker, Active: active}
	require.NoError(t, db.Create(instrument).Error)
	return instrument
}

func walkService(db *gorm.DB) *Service {
	rng := rand.New(rand.NewSource(42))
	return NewService(db, marketdata.NewRandomWalkSource(rng, 100.0), rng)
}

func TestCreatePersistsSessionChartAndCandles(t *testing.T) {
	db := testdb.Open(t)
	account := seedAccount(t, db)
	seedInstrument(t, db, "BTCUSDT", true)

	chart, err := walkService(db).Create(context.Background(), testdb.UserID, account.ID, 60)
	require.NoError(t, err)

	assert.Equal(t, 60, chart.Bars)
	assert.Equal(t, 0, chart.CurrentIndex())
	assert.Equal(t, models.SessionStatusInProgress, chart.Session.Status)
	assert.Equal(t, account.ID, chart.Session.AccountID)
	assert.True(t, chart.EndDate.After(chart.StartDate))

	var candles []models.Candle
	require.NoError(t, db.Where("chart_id = ?", chart.ID).Order("idx asc").Find(&candles).Error)
	require.Len(t, candles, 60)
	for i, c := range candles {
		assert.Equal(t, i, c.Idx, "candle indexes must be contiguous from zero")
		if i > 0 {
			assert.Greater(t, c.T, candles[i-1].T, "candles must be oldest first")
		}
	}
}

func TestCreateSkipsInactiveInstruments(t *testing.T) {
	db := testdb.Open(t)
	account := seedAccount(t, db)
	active := seedInstrument(t, db, "ETHUSDT", true)
	seedInstrument(t, db, "DELISTED", false)

	for i := 0; i < 5; i++ {
		chart, err := walkService(db).Create(context.Background(), testdb.UserID, account.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, active.ID, chart.InstrumentID)
	}
}

func TestCreateValidatesBars(t *testing.T) {
	db := testdb.Open(t)
	account := seedAccount(t, db)
	seedInstrument(t, db, "BTCUSDT", true)
	service := walkService(db)

	for _, bars := range []int{0, 1, 1001} {
		_, err := service.Create(context.Background(), testdb.UserID, account.ID, bars)
		require.Error(t, err)
		assert.True(t, trainerr.IsKind(err, trainerr.InvalidBars), "bars=%d", bars)
	}
}

func TestCreateRequiresOwnedAccount(t *testing.T) {
	db := testdb.Open(t)
	account := seedAccount(t, db)
	seedInstrument(t, db, "BTCUSDT", true)

	_, err := walkService(db).Create(context.Background(), testdb.OtherUserID, account.ID, 10)
	require.Error(t, err)
	assert.True(t, trainerr.IsKind(err, trainerr.NotFound))
}

func TestCreateFailsWithoutActiveInstruments(t *testing.T) {
	db := testdb.Open(t)
	account := seedAccount(t, db)
	seedInstrument(t, db, "DELISTED", false)

	_, err := walkService(db).Create(context.Background(), testdb.UserID, account.ID, 10)
	require.Error(t, err)
	assert.True(t, trainerr.IsKind(err, trainerr.DataIntegrity))
}

func TestCreateGivesUpWhenSourceRunsDry(t *testing.T) {
	db := testdb.Open(t)
	account := seedAccount(t, db)
	seedInstrument(t, db, "BTCUSDT", true)

	rng := rand.New(rand.NewSource(1))
	service := NewService(db, marketdata.NewStaticSource(), rng)

	_, err := service.Create(context.Background(), testdb.UserID, account.ID, 10)
	require.Error(t, err)
	assert.False(t, trainerr.Retryable(err))

	var sessions int64
	require.NoError(t, db.Model(&models.Session{}).Count(&sessions).Error)
	assert.Equal(t, int64(0), sessions, "a failed creation must leave nothing behind")
}

func TestRevealedCandlesStopAtProgressIndex(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{100, 101, 102, 103, 104})
	testdb.SetProgress(t, db, f, 2)
	service := walkService(db)

	candles, err := service.RevealedCandles(testdb.UserID, f.Chart.ID)
	require.NoError(t, err)
	require.Len(t, candles, 3, "bars 0 through 2 are revealed")
	assert.Equal(t, 2, candles[len(candles)-1].Idx)
}

func TestTradesListsChartTradeLog(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{100})
	executor := trade.NewExecutor(db)

	_, err := executor.Buy(testdb.UserID, f.Chart.ID, decimal.NewFromInt(3))
	require.NoError(t, err)
	_, err = executor.Sell(testdb.UserID, f.Chart.ID, decimal.NewFromInt(1))
	require.NoError(t, err)

	trades, err := walkService(db).Trades(testdb.UserID, f.Chart.ID)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, models.TradeSideBuy, trades[0].Side)
	assert.Equal(t, models.TradeSideSell, trades[1].Side)
}

func TestListReturnsOwnSessionsNewestFirst(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{100})
	second := &models.Session{
		UserID:    testdb.UserID,
		AccountID: f.Account.ID,
		Status:    models.SessionStatusInProgress,
	}
	require.NoError(t, db.Create(second).Error)
	foreign := &models.Session{
		UserID:    testdb.OtherUserID,
		AccountID: f.Account.ID,
		Status:    models.SessionStatusInProgress,
	}
	require.NoError(t, db.Create(foreign).Error)

	sessions, err := walkService(db).List(testdb.UserID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, f.Session.ID, sessions[1].ID)
}

func TestCompleteStopsTradingAndAdvancing(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{100, 101})
	service := walkService(db)

	require.NoError(t, service.Complete(testdb.UserID, f.Session.ID))

	executor := trade.NewExecutor(db)
	_, err := executor.Buy(testdb.UserID, f.Chart.ID, decimal.NewFromInt(1))
	require.Error(t, err)
	assert.True(t, trainerr.IsKind(err, trainerr.SessionNotActive))

	_, err = progress.NewController(db, executor).Next(testdb.UserID, f.Chart.ID)
	require.Error(t, err)
	assert.True(t, trainerr.IsKind(err, trainerr.SessionNotActive))
}

func TestCompleteRequiresOwnership(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.SeedChart(t, db, "10000", []float64{100})

	err := walkService(db).Complete(testdb.OtherUserID, f.Session.ID)
	require.Error(t, err)
	assert.True(t, trainerr.IsKind(err, trainerr.NotFound))
}
