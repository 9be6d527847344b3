package repository

import (
	"context"

	"flipduel/internal/models"

	"gorm.io/gorm"
)

// GetOrCreateAccount returns the ledger account for a wallet, creating a
// zero-balance row on first access
func (r *Repository) GetOrCreateAccount(ctx context.Context, wallet string) (*models.LedgerAccount, error) {
	var account models.LedgerAccount
	err := r.db.WithContext(ctx).Where("wallet = ?", wallet).First(&account).Error
	if err == gorm.ErrRecordNotFound {
		account = models.LedgerAccount{Wallet: wallet}
		if createErr := r.db.WithContext(ctx).Create(&account).Error; createErr != nil {
			return nil, createErr
		}
		return &account, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// SaveAccount persists a ledger account balance
func (r *Repository) SaveAccount(ctx context.Context, account *models.LedgerAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}
