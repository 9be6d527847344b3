package services

import (
	"context"
	"log"

	"flipduel/internal/models"
	"flipduel/internal/repository"
)

// ClaimResult reports the settled payout split
type ClaimResult struct {
	DuelID      uint64 `json:"duel_id"`
	Winner      string `json:"winner"`
	Payout      int64  `json:"payout"`
	PlatformFee int64  `json:"platform_fee"`
}

// ClaimRewards pays the prize pool minus the platform fee to the
// winner. Settles once: a second claim fails with "already claimed" and
// moves no value.
func (ds *DuelService) ClaimRewards(ctx context.Context, caller string, duelID uint64) (*ClaimResult, error) {
	var result *ClaimResult

	err := ds.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		duel, err := txRepo.GetDuelByDuelID(ctx, duelID)
		if err != nil {
			return err
		}

		if duel.Status != models.DuelStatusClosed {
			return models.ErrDuelNotClosed
		}
		if duel.Winner == nil || *duel.Winner != caller {
			return models.ErrNotWinner
		}
		if duel.Claimed {
			return models.ErrAlreadyClaimed
		}

		state, err := txRepo.GetPlatformState(ctx)
		if err != nil {
			return err
		}

		platformFee := duel.PrizePool * int64(state.FeePercent) / 100
		if platformFee > duel.PrizePool {
			// Fee percent is capped at 10, so this cannot happen; fail
			// loudly rather than underflow.
			return models.ErrInvalidFeePercentage
		}
		payout := duel.PrizePool - platformFee

		duel.Claimed = true
		if err := txRepo.UpdateDuel(ctx, duel); err != nil {
			return err
		}

		state.TotalPrizeDistributed += payout
		// The fee stays in escrow until an admin withdraws it.
		state.AccruedFees += platformFee
		if err := txRepo.SavePlatformState(ctx, state); err != nil {
			return err
		}

		if err := ds.treasury.Transfer(ctx, txRepo, models.EscrowWallet, caller, payout); err != nil {
			return err
		}

		result = &ClaimResult{
			DuelID:      duelID,
			Winner:      caller,
			Payout:      payout,
			PlatformFee: platformFee,
		}

		return txRepo.AppendEvent(ctx, duelID, models.EventRewardsClaimed, map[string]interface{}{
			"winner":       caller,
			"amount":       payout,
			"platform_fee": platformFee,
		})
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[DuelRegistry] Duel %d claimed by %s (payout=%d fee=%d)", duelID, caller, result.Payout, result.PlatformFee)
	return result, nil
}

// SetPlatformFee updates the fee percentage applied to future claims
func (ds *DuelService) SetPlatformFee(ctx context.Context, pct int) error {
	if pct < 0 || pct > models.MaxFeePercent {
		return models.ErrInvalidFeePercentage
	}

	return ds.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		state, err := txRepo.GetPlatformState(ctx)
		if err != nil {
			return err
		}
		state.FeePercent = pct
		return txRepo.SavePlatformState(ctx, state)
	})
}

// WithdrawFees sweeps all accrued platform fees from escrow to the
// configured treasury wallet
func (ds *DuelService) WithdrawFees(ctx context.Context) (int64, error) {
	var amount int64

	err := ds.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		state, err := txRepo.GetPlatformState(ctx)
		if err != nil {
			return err
		}
		if state.AccruedFees <= 0 {
			return models.ErrNoAccruedFees
		}

		amount = state.AccruedFees
		state.AccruedFees = 0
		if err := txRepo.SavePlatformState(ctx, state); err != nil {
			return err
		}

		if err := ds.treasury.Transfer(ctx, txRepo, models.EscrowWallet, ds.treasuryWallet, amount); err != nil {
			return err
		}

		return txRepo.AppendEvent(ctx, 0, models.EventFeesWithdrawn, map[string]interface{}{
			"amount":   amount,
			"treasury": ds.treasuryWallet,
		})
	})

	if err != nil {
		return 0, err
	}

	log.Printf("[DuelRegistry] Withdrew %d accrued fees to %s", amount, ds.treasuryWallet)
	return amount, nil
}
