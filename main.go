package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"TradeTrainer/config"
	"TradeTrainer/internal/models"
	"TradeTrainer/internal/operations/account"
	"TradeTrainer/internal/operations/marketdata"
	"TradeTrainer/internal/operations/progress"
	"TradeTrainer/internal/operations/riskrule"
	"TradeTrainer/internal/operations/session"
	"TradeTrainer/internal/operations/trade"
	"TradeTrainer/internal/repositories"
	"TradeTrainer/internal/trainerr"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const demoUserID = 1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Setup database
	db := setupDatabase(cfg.Database)

	// Serve Prometheus metrics when an address is configured
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Printf("Metrics listening on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	// Candle source: Binance when credentials exist, otherwise a
	// deterministic synthetic walk so the demo runs standalone.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var source marketdata.Source
	if cfg.Exchange.APIKey != "" {
		source = marketdata.NewBinanceSource(cfg.Exchange.APIKey, cfg.Exchange.SecretKey)
	} else {
		log.Println("No exchange credentials, using synthetic candles")
		source = marketdata.NewRandomWalkSource(rng, 100.0)
	}

	// Initialize services
	accountService := account.NewService(db)
	sessionService := session.NewService(db, source, rng)
	executor := trade.NewExecutor(db)
	controller := progress.NewController(db, executor)
	ruleService := riskrule.NewService(db)

	seedInstruments(db)

	// Demo account and session
	initial, err := decimal.NewFromString(cfg.Demo.InitialBalance)
	if err != nil {
		log.Fatal("Invalid DEMO_INITIAL_BALANCE:", err)
	}
	acc, err := accountService.Create(demoUserID, "demo account", initial, models.BaseCurrencyUSD)
	if err != nil {
		log.Fatal("Failed to create account:", err)
	}

	ctx := context.Background()
	chart, err := sessionService.Create(ctx, demoUserID, acc.ID, cfg.Demo.Bars)
	if err != nil {
		log.Fatal("Failed to create session:", err)
	}
	log.Printf("Training session %d started: chart %d, %d bars", chart.SessionID, chart.ID, chart.Bars)

	// Configure a 5% stop-loss / 10% take-profit around the first close
	snap, err := controller.Next(demoUserID, chart.ID)
	if err != nil {
		log.Fatal("Failed to advance:", err)
	}
	stopLoss := snap.CurrentPrice.Mul(decimal.NewFromFloat(0.95)).Round(4)
	takeProfit := snap.CurrentPrice.Mul(decimal.NewFromFloat(1.10)).Round(4)
	enabled := true
	if _, err := ruleService.Upsert(demoUserID, chart.ID, riskrule.UpsertInput{
		StopLossPrice:   &stopLoss,
		TakeProfitPrice: &takeProfit,
		Enabled:         &enabled,
	}); err != nil {
		log.Fatal("Failed to set risk rule:", err)
	}

	// Buy as many whole units as a tenth of the cash affords
	qty := acc.CashBalance.Div(decimal.NewFromInt(10)).Div(snap.CurrentPrice).Truncate(0)
	if qty.IsPositive() {
		buySnap, err := executor.Buy(demoUserID, chart.ID, qty)
		if err != nil {
			log.Fatal("Failed to buy:", err)
		}
		log.Printf("Bought %s @ %s, cash %s", qty, buySnap.ExecutedPrice, buySnap.CashBalance)
	}

	// Replay until the window ends or the risk rule fires
	for snap.State != progress.StateAtEnd {
		snap, err = controller.Next(demoUserID, chart.ID)
		if err != nil {
			if trainerr.Retryable(err) {
				continue
			}
			log.Fatal("Failed to advance:", err)
		}
		if snap.AutoExited {
			log.Printf("Auto-exit (%s) at %s on bar %d", snap.AutoExitReason, snap.CurrentPrice, snap.ProgressIndex)
			break
		}
	}

	// Flatten whatever is left
	final, err := executor.SellAll(demoUserID, chart.ID)
	if err != nil {
		log.Fatal("Failed to sell all:", err)
	}

	trades, err := sessionService.Trades(demoUserID, chart.ID)
	if err != nil {
		log.Fatal("Failed to list trades:", err)
	}

	fmt.Println("\n=== Training Results ===")
	fmt.Printf("Bars Replayed: %d/%d\n", snap.ProgressIndex+1, chart.Bars)
	fmt.Printf("Trades Executed: %d\n", len(trades))
	fmt.Printf("Auto-Exit: %v %s\n", snap.AutoExited, snap.AutoExitReason)
	fmt.Printf("Final Price: %s\n", final.ExecutedPrice)
	fmt.Printf("Initial Balance: %s\n", acc.InitialBalance)
	fmt.Printf("Final Balance: %s\n", final.CashBalance)
	fmt.Printf("P&L: %s\n", final.CashBalance.Sub(acc.InitialBalance))
}

func setupDatabase(dbConfig config.DatabaseConfig) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto migrate database schemas
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
		log.Fatal("Failed to migrate database:", err)
	}

	return db
}

func seedInstruments(db *gorm.DB) {
	instrumentRepo := repositories.NewInstrumentRepository(db)
	existing, err := instrumentRepo.FindActive()
	if err != nil {
		log.Fatal("Failed to list instruments:", err)
	}
	if len(existing) > 0 {
		return
	}
	for _, inst := range []models.Instrument{
		{Ticker: "BTCUSDT", Name: "Bitcoin / Tether", Active: true},
		{Ticker: "ETHUSDT", Name: "Ethereum / Tether", Active: true},
	} {
		inst := inst
		if err := instrumentRepo.Create(&inst); err != nil {
			log.Fatal("Failed to seed instrument:", err)
		}
	}
}
