// Package account manages the virtual cash wallets backing training
// sessions.
package account

import (
	"strings"

	"TradeTrainer/internal/models"
	"TradeTrainer/internal/repositories"
	"TradeTrainer/internal/trainerr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

// NewService creates a new instance of Service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create opens a new account seeded with the given cash balance.
func (s *Service) Create(userID uint, name string, initialBalance decimal.Decimal, baseCurrency string) (*models.Account, error) {
	if initialBalance.IsNegative() {
		return nil, trainerr.E(trainerr.InvalidQuantity, "initial balance cannot be negative")
	}
	if strings.TrimSpace(name) == "" {
		name = "default account"
	}
	if baseCurrency == "" {
		baseCurrency = models.BaseCurrencyUSD
	}

	acc := &models.Account{
		UserID:         userID,
		Number:         uuid.NewString(),
		Name:           strings.TrimSpace(name),
		InitialBalance: initialBalance,
		CashBalance:    initialBalance,
		BaseCurrency:   baseCurrency,
	}
	if err := repositories.NewAccountRepository(s.db).Create(acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Positions lists the open positions of an owned account.
func (s *Service) Positions(userID, accountID uint) ([]models.Position, error) {
	found, err := repositories.NewAccountRepository(s.db).FindOwned(accountID, userID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, trainerr.E(trainerr.NotFound, "account %d", accountID)
	}
	return repositories.NewPositionRepository(s.db).FindByAccount(found.ID)
}

// Reset restores the seed cash balance and clears every open position of
// the account.
func (s *Service) Reset(userID, accountID uint) (*models.Account, error) {
	var acc *models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		accountRepo := repositories.NewAccountRepository(tx)
		found, err := accountRepo.FindOwned(accountID, userID)
		if err != nil {
			return err
		}
		if found == nil {
			return trainerr.E(trainerr.NotFound, "account %d", accountID)
		}

		found.ResetCash()
		if err := accountRepo.Update(found); err != nil {
			return err
		}
		if err := repositories.NewPositionRepository(tx).DeleteByAccount(found.ID); err != nil {
			return err
		}
		acc = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}
