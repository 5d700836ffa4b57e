// Package testdb provides SQLite-backed databases and ledger fixtures for
// the engine's tests.
package testdb

import (
	"path/filepath"
	"testing"

	"TradeTrainer/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// UserID is the fixture owner; OtherUserID owns nothing.
const (
	UserID      uint = 1
	OtherUserID uint = 2
)

// Open creates a fresh migrated database in the test's temp dir.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "trainer.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Account{},
		&models.Instrument{},
		&models.Session{},
		&models.Chart{},
		&models.Candle{},
		&models.Position{},
		&models.RiskRule{},
		&models.Trade{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// Fixture is one ready-to-trade training setup owned by UserID.
type Fixture struct {
	Account    *models.Account
	Instrument *models.Instrument
	Session    *models.Session
	Chart      *models.Chart
}

// SeedChart builds an account with the given cash, an in-progress session
// and a chart whose candles close at the given prices (one bar per value,
// progress index starting at 0).
func SeedChart(t *testing.T, db *gorm.DB, cash string, closes []float64) *Fixture {
	t.Helper()

	balance, err := decimal.NewFromString(cash)
	if err != nil {
		t.Fatalf("parse cash %q: %v", cash, err)
	}
	account := &models.Account{
		UserID:         UserID,
		Number:         "test-account",
		Name:           "test",
		InitialBalance: balance,
		CashBalance:    balance,
		BaseCurrency:   models.BaseCurrencyUSD,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}

	instrument := &models.Instrument{Ticker: "TEST", Name: "Test Instrument", Active: true}
	if err := db.Create(instrument).Error; err != nil {
		t.Fatalf("seed instrument: %v", err)
	}

	session := &models.Session{
		UserID:    UserID,
		AccountID: account.ID,
		Status:    models.SessionStatusInProgress,
	}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}

	initialIdx := 0
	chart := &models.Chart{
		SessionID:     session.ID,
		InstrumentID:  instrument.ID,
		Bars:          len(closes),
		ProgressIndex: &initialIdx,
	}
	if err := db.Create(chart).Error; err != nil {
		t.Fatalf("seed chart: %v", err)
	}

	candles := make([]models.Candle, 0, len(closes))
	for i, px := range closes {
		candles = append(candles, models.Candle{
			ChartID: chart.ID,
			Idx:     i,
			T:       int64(i) * 86400000,
			Open:    px,
			High:    px,
			Low:     px,
			Close:   px,
			Volume:  1000,
		})
	}
	if err := db.CreateInBatches(candles, 500).Error; err != nil {
		t.Fatalf("seed candles: %v", err)
	}

	chart.Session = *session
	chart.Session.Account = *account
	return &Fixture{Account: account, Instrument: instrument, Session: session, Chart: chart}
}

// SetProgress forces the chart's progress index, bypassing the controller.
func SetProgress(t *testing.T, db *gorm.DB, f *Fixture, idx int) {
	t.Helper()
	err := db.Model(&models.Chart{}).Where("id = ?", f.Chart.ID).
		Update("progress_index", idx).Error
	if err != nil {
		t.Fatalf("set progress: %v", err)
	}
	f.Chart.ProgressIndex = &idx
}

// CompleteSession moves the fixture session out of the tradable state.
func CompleteSession(t *testing.T, db *gorm.DB, f *Fixture) {
	t.Helper()
	err := db.Model(&models.Session{}).Where("id = ?", f.Session.ID).
		Update("status", models.SessionStatusCompleted).Error
	if err != nil {
		t.Fatalf("complete session: %v", err)
	}
	f.Session.Status = models.SessionStatusCompleted
	f.Chart.Session.Status = models.SessionStatusCompleted
}
