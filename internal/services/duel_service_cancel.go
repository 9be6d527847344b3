package services

import (
	"context"
	"log"

	"flipduel/internal/models"
	"flipduel/internal/repository"
)

// CancelDuel cancels an Open duel that never found a second participant
// and refunds every staked entry fee from escrow
func (ds *DuelService) CancelDuel(ctx context.Context, caller string, duelID uint64) (*models.Duel, error) {
	err := ds.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		duel, err := txRepo.GetDuelByDuelID(ctx, duelID)
		if err != nil {
			return err
		}

		if caller != duel.Creator {
			return models.ErrOnlyCreator
		}
		if duel.Status != models.DuelStatusOpen {
			return models.ErrDuelNotOpen
		}
		if len(duel.Participants) >= models.MinParticipants {
			return models.ErrCannotCancel
		}

		duel.Status = models.DuelStatusCancelled
		if err := txRepo.UpdateDuel(ctx, duel); err != nil {
			return err
		}

		for _, participant := range duel.Participants {
			if err := ds.treasury.Transfer(ctx, txRepo, models.EscrowWallet, participant.Wallet, duel.EntryFee); err != nil {
				return err
			}
		}

		return txRepo.AppendEvent(ctx, duelID, models.EventDuelCancelled, map[string]interface{}{
			"refunded_players": len(duel.Participants),
		})
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[DuelRegistry] Duel %d cancelled by creator", duelID)
	return ds.GetDuel(ctx, duelID)
}
