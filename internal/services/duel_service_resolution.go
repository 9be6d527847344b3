package services

import (
	"context"
	"log"
	"time"

	"flipduel/internal/models"
	"flipduel/internal/repository"
)

// CloseDuel determines the winner of an expired duel. Anyone may close;
// the precondition is purely temporal. The winner is the participant
// with the maximum gain percentage; on ties the earliest participant in
// join order wins (strict > over a join-order scan).
func (ds *DuelService) CloseDuel(ctx context.Context, duelID uint64) (*models.Duel, error) {
	err := ds.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		duel, err := txRepo.GetDuelByDuelID(ctx, duelID)
		if err != nil {
			return err
		}

		if duel.Status != models.DuelStatusActive {
			return models.ErrDuelNotActive
		}
		if time.Now().UnixMilli() < duel.EndTime {
			return models.ErrDuelNotEnded
		}
		if len(duel.Participants) == 0 {
			// Unreachable: create always seats the creator. Treat as a
			// broken record, not a closable duel.
			return models.ErrEmptyRoster
		}

		var winner string
		var maxGain int32
		for i, participant := range duel.Participants {
			gain, err := ds.trading.gainPercent(ctx, txRepo, duelID, participant.Wallet)
			if err != nil {
				return err
			}
			if i == 0 || gain > maxGain {
				winner = participant.Wallet
				maxGain = gain
			}
		}

		duel.Winner = &winner
		duel.Status = models.DuelStatusClosed
		if err := txRepo.UpdateDuel(ctx, duel); err != nil {
			return err
		}

		return txRepo.AppendEvent(ctx, duelID, models.EventDuelClosed, map[string]interface{}{
			"winner":          winner,
			"gain_percentage": maxGain,
			"prize_pool":      duel.PrizePool,
		})
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[DuelRegistry] Duel %d closed", duelID)
	return ds.GetDuel(ctx, duelID)
}

// CloseExpiredDuels closes every Active duel whose window has passed;
// used by the background closer. Returns the number closed.
func (ds *DuelService) CloseExpiredDuels(ctx context.Context, limit int) (int, error) {
	expired, err := ds.repo.GetExpiredActiveDuels(ctx, time.Now().UnixMilli(), limit)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, duel := range expired {
		if _, err := ds.CloseDuel(ctx, duel.DuelID); err != nil {
			log.Printf("[DuelRegistry] Error closing duel %d: %v", duel.DuelID, err)
			continue
		}
		closed++
	}
	return closed, nil
}
