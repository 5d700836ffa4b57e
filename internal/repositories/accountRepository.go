package repositories

import (
	"errors"

	"TradeTrainer/internal/models"

	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new instance of AccountRepository
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create adds a new Account record to the database
func (r *AccountRepository) Create(account *models.Account) error {
	if account == nil {
		return errors.New("account cannot be nil")
	}
	return mapStorageErr(r.db.Create(account).Error)
}

// FindByID retrieves an Account record by its ID
func (r *AccountRepository) FindByID(id uint) (*models.Account, error) {
	if id == 0 {
		return nil, errors.New("invalid id")
	}
	var account models.Account
	err := r.db.First(&account, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &account, mapStorageErr(err)
}

// FindByIDForUpdate locks the account row for the duration of the
// surrounding transaction; cash arithmetic happens under this lock.
func (r *AccountRepository) FindByIDForUpdate(id uint) (*models.Account, error) {
	if id == 0 {
		return nil, errors.New("invalid id")
	}
	var account models.Account
	err := forUpdate(r.db, "accounts").First(&account, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &account, mapStorageErr(err)
}

// FindOwned retrieves an account only when it belongs to the given user
func (r *AccountRepository) FindOwned(accountID, userID uint) (*models.Account, error) {
	if accountID == 0 || userID == 0 {
		return nil, errors.New("invalid account or user id")
	}
	var account models.Account
	err := r.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &account, mapStorageErr(err)
}

// Update modifies an existing Account record
func (r *AccountRepository) Update(account *models.Account) error {
	if account == nil {
		return errors.New("account cannot be nil")
	}
	return mapStorageErr(r.db.Save(account).Error)
}
