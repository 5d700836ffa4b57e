// Package session creates training sessions: a random active instrument, a
// random historical window with enough bars, and a one-time candle snapshot
// the engine replays from storage. The random source is injected so session
// creation stays testable.
package session

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"TradeTrainer/internal/models"
	"TradeTrainer/internal/operations/marketdata"
	"TradeTrainer/internal/operations/pricing"
	"TradeTrainer/internal/repositories"
	"TradeTrainer/internal/trainerr"

	"gorm.io/gorm"
)

const (
	minBars = 2
	maxBars = 1000

	// A calendar range twice the bar count usually survives weekends and
	// market holidays; windows that still come up short are retried.
	windowSlack = 2
	maxAttempts = 15
)

var earliestWindow = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

type Service struct {
	db     *gorm.DB
	source marketdata.Source
	rng    *rand.Rand
}

// NewService creates a new instance of Service
func NewService(db *gorm.DB, source marketdata.Source, rng *rand.Rand) *Service {
	return &Service{db: db, source: source, rng: rng}
}

// Create picks a random active instrument and a random window holding at
// least bars candles, then persists the session, its chart and the full
// candle snapshot in one transaction. The chart starts at progress index 0
// with the session already in progress.
func (s *Service) Create(ctx context.Context, userID, accountID uint, bars int) (*models.Chart, error) {
	if bars < minBars || bars > maxBars {
		return nil, trainerr.E(trainerr.InvalidBars, "bars %d outside [%d, %d]", bars, minBars, maxBars)
	}

	account, err := repositories.NewAccountRepository(s.db).FindOwned(accountID, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, trainerr.E(trainerr.NotFound, "account %d", accountID)
	}

	instruments, err := repositories.NewInstrumentRepository(s.db).FindActive()
	if err != nil {
		return nil, err
	}
	if len(instruments) == 0 {
		return nil, trainerr.E(trainerr.DataIntegrity, "no active instruments")
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		picked := instruments[s.rng.Intn(len(instruments))]

		// The most recent month is skipped; fresh data tends to carry
		// gaps that break the bar-count requirement.
		endDate := s.randomDate(earliestWindow, time.Now().AddDate(0, 0, -30))
		startDate := endDate.AddDate(0, 0, -bars*windowSlack)

		candles, err := s.source.DailyCandles(ctx, picked.Ticker, startDate, endDate)
		if err != nil {
			log.Printf("candle fetch for %s failed (attempt %d): %v", picked.Ticker, attempt, err)
			continue
		}
		if len(candles) < bars {
			continue
		}

		// Snap the window to the candles actually returned; calendar
		// dates drift from bar dates whenever the market was closed.
		window := candles[len(candles)-bars:]
		chart, err := s.persist(userID, account, picked.ID, window)
		if err != nil {
			return nil, err
		}
		return chart, nil
	}

	return nil, fmt.Errorf("no window with %d bars found after %d attempts", bars, maxAttempts)
}

func (s *Service) persist(userID uint, account *models.Account, instrumentID uint, window []marketdata.Candle) (*models.Chart, error) {
	var chart *models.Chart
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sess := &models.Session{
			UserID:    userID,
			AccountID: account.ID,
			Status:    models.SessionStatusInProgress,
		}
		if err := repositories.NewSessionRepository(tx).Create(sess); err != nil {
			return err
		}

		initialIdx := 0
		chart = &models.Chart{
			SessionID:     sess.ID,
			InstrumentID:  instrumentID,
			StartDate:     time.UnixMilli(window[0].T).UTC(),
			EndDate:       time.UnixMilli(window[len(window)-1].T).UTC(),
			Bars:          len(window),
			ProgressIndex: &initialIdx,
		}
		if err := repositories.NewChartRepository(tx).Create(chart); err != nil {
			return err
		}

		rows := make([]models.Candle, 0, len(window))
		for i, c := range window {
			rows = append(rows, models.Candle{
				ChartID: chart.ID,
				Idx:     i,
				T:       c.T,
				Open:    c.Open,
				High:    c.High,
				Low:     c.Low,
				Close:   c.Close,
				Volume:  c.Volume,
			})
		}
		if err := repositories.NewCandleRepository(tx).CreateBatch(rows); err != nil {
			return err
		}

		chart.Session = *sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chart, nil
}

// RevealedCandles lists the chart's candles up to the current progress
// index. Future bars stay server-side until an advance reveals them.
func (s *Service) RevealedCandles(userID, chartID uint) ([]models.Candle, error) {
	chart, err := s.loadOwnedChart(chartID, userID)
	if err != nil {
		return nil, err
	}
	return repositories.NewCandleRepository(s.db).ListRevealed(chart.ID, pricing.ClampIndex(chart))
}

// Trades lists the chart's trade log in execution order.
func (s *Service) Trades(userID, chartID uint) ([]models.Trade, error) {
	chart, err := s.loadOwnedChart(chartID, userID)
	if err != nil {
		return nil, err
	}
	return repositories.NewTradeRepository(s.db).ListByChart(chart.ID)
}

// List returns the user's sessions, newest first.
func (s *Service) List(userID uint) ([]models.Session, error) {
	return repositories.NewSessionRepository(s.db).FindByUser(userID)
}

// Complete moves a session to COMPLETED; its charts stop accepting
// advances and trades.
func (s *Service) Complete(userID, sessionID uint) error {
	sessionRepo := repositories.NewSessionRepository(s.db)
	sess, err := sessionRepo.FindOwned(sessionID, userID)
	if err != nil {
		return err
	}
	if sess == nil {
		return trainerr.E(trainerr.NotFound, "session %d", sessionID)
	}
	return sessionRepo.UpdateStatus(sess.ID, models.SessionStatusCompleted)
}

func (s *Service) loadOwnedChart(chartID, userID uint) (*models.Chart, error) {
	chart, err := repositories.NewChartRepository(s.db).FindOwned(chartID, userID)
	if err != nil {
		return nil, err
	}
	if chart == nil {
		return nil, trainerr.E(trainerr.NotFound, "chart %d", chartID)
	}
	return chart, nil
}

func (s *Service) randomDate(from, to time.Time) time.Time {
	fromDay := from.Unix() / 86400
	toDay := to.Unix() / 86400
	if toDay <= fromDay {
		return from
	}
	day := fromDay + s.rng.Int63n(toDay-fromDay+1)
	return time.Unix(day*86400, 0).UTC()
}
