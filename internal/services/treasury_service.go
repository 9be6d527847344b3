package services

import (
	"context"

	"flipduel/internal/models"
	"flipduel/internal/repository"
)

// TreasuryService is the value-transfer primitive backing escrow
// accounting. It moves native-unit balances between ledger accounts and
// always runs inside the caller's transaction, so a failed duel
// operation rolls its transfers back too.
type TreasuryService struct {
	repo *repository.Repository
}

func NewTreasuryService(repo *repository.Repository) *TreasuryService {
	return &TreasuryService{repo: repo}
}

// Transfer moves amount from one wallet to another. The debit side is
// checked before any write; balances never go negative.
func (ts *TreasuryService) Transfer(ctx context.Context, repo *repository.Repository, from, to string, amount int64) error {
	if amount <= 0 {
		return models.ErrInvalidAmount
	}

	source, err := repo.GetOrCreateAccount(ctx, from)
	if err != nil {
		return err
	}

	if source.Balance < amount {
		return models.ErrInsufficientFunds
	}

	dest, err := repo.GetOrCreateAccount(ctx, to)
	if err != nil {
		return err
	}

	source.Balance -= amount
	dest.Balance += amount

	if err := repo.SaveAccount(ctx, source); err != nil {
		return err
	}
	return repo.SaveAccount(ctx, dest)
}

// Deposit credits a wallet's ledger account. This is the stand-in for
// the hosting environment's on-ramp; contest operations themselves only
// ever move value between existing accounts.
func (ts *TreasuryService) Deposit(ctx context.Context, wallet string, amount int64) (*models.LedgerAccount, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	var account *models.LedgerAccount
	err := ts.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		var txErr error
		account, txErr = txRepo.GetOrCreateAccount(ctx, wallet)
		if txErr != nil {
			return txErr
		}
		account.Balance += amount
		return txRepo.SaveAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetBalance returns a wallet's current ledger balance
func (ts *TreasuryService) GetBalance(ctx context.Context, wallet string) (int64, error) {
	account, err := ts.repo.GetOrCreateAccount(ctx, wallet)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}
