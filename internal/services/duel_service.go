package services

import (
	"context"
	"log"
	"time"

	"flipduel/internal/models"
	"flipduel/internal/repository"

	"github.com/google/uuid"
)

// DuelService is the duel registry: it owns contest records, rosters,
// escrow accounting and the lifecycle state machine. Every mutating
// operation runs inside one transaction; a failed precondition rolls
// back all writes, including treasury transfers and settlement-engine
// calls made on its behalf.
type DuelService struct {
	repo     *repository.Repository
	treasury *TreasuryService
	trading  *TradingService
	// identity is presented to the settlement engine when initializing
	// portfolios during activation.
	identity       string
	treasuryWallet string
}

func NewDuelService(
	repo *repository.Repository,
	treasury *TreasuryService,
	trading *TradingService,
	identity string,
	treasuryWallet string,
) *DuelService {
	return &DuelService{
		repo:           repo,
		treasury:       treasury,
		trading:        trading,
		identity:       identity,
		treasuryWallet: treasuryWallet,
	}
}

// CreateDuelRequest is the create operation payload
type CreateDuelRequest struct {
	DurationSeconds int64  `json:"duration_seconds" binding:"required"`
	CollectionID    string `json:"collection_id"`
	MaxParticipants int    `json:"max_participants" binding:"required"`
	EntryFee        int64  `json:"entry_fee" binding:"required"`
}

// CreateDuel opens a new duel with the caller as first participant,
// staking the entry fee into escrow
func (ds *DuelService) CreateDuel(ctx context.Context, caller string, req *CreateDuelRequest) (*models.Duel, error) {
	if req.EntryFee <= 0 {
		return nil, models.ErrInvalidEntryFee
	}
	if req.DurationSeconds < models.MinDurationSeconds || req.DurationSeconds > models.MaxDurationSeconds {
		return nil, models.ErrInvalidDuration
	}
	if req.MaxParticipants < models.MinParticipants || req.MaxParticipants > models.MaxParticipants {
		return nil, models.ErrInvalidParticipantCount
	}

	var duel *models.Duel

	err := ds.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		state, err := txRepo.GetPlatformState(ctx)
		if err != nil {
			return err
		}

		// Stake the entry fee (the "attached value")
		if err := ds.treasury.Transfer(ctx, txRepo, caller, models.EscrowWallet, req.EntryFee); err != nil {
			return err
		}

		duelID := state.NextDuelID

		duel = &models.Duel{
			ID:              uuid.New(),
			DuelID:          duelID,
			Creator:         caller,
			EntryFee:        req.EntryFee,
			PrizePool:       req.EntryFee,
			DurationSeconds: req.DurationSeconds,
			Status:          models.DuelStatusOpen,
			CollectionID:    req.CollectionID,
			MaxPlayers:      req.MaxParticipants,
		}

		if err := txRepo.CreateDuel(ctx, duel); err != nil {
			return err
		}
		if err := txRepo.AddParticipant(ctx, duelID, caller, 0); err != nil {
			return err
		}

		state.NextDuelID = duelID + 1
		state.TotalDuelsCreated++
		if err := txRepo.SavePlatformState(ctx, state); err != nil {
			return err
		}

		return txRepo.AppendEvent(ctx, duelID, models.EventDuelCreated, map[string]interface{}{
			"creator":          caller,
			"entry_fee":        req.EntryFee,
			"duration_seconds": req.DurationSeconds,
			"max_participants": req.MaxParticipants,
		})
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[DuelRegistry] Duel %d created by %s (fee=%d)", duel.DuelID, caller, duel.EntryFee)
	return ds.GetDuel(ctx, duel.DuelID)
}

// JoinDuel stakes the entry fee and appends the caller to the roster;
// filling the last slot activates the duel in the same transaction
func (ds *DuelService) JoinDuel(ctx context.Context, caller string, duelID uint64, attachedFee int64) (*models.Duel, error) {
	err := ds.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		duel, err := txRepo.GetDuelByDuelID(ctx, duelID)
		if err != nil {
			return err
		}

		if duel.Status != models.DuelStatusOpen {
			return models.ErrDuelNotOpen
		}
		if attachedFee != duel.EntryFee {
			return models.ErrIncorrectFee
		}
		if duel.HasParticipant(caller) {
			return models.ErrAlreadyParticipant
		}
		if len(duel.Participants) >= duel.MaxPlayers {
			return models.ErrDuelFull
		}

		if err := ds.treasury.Transfer(ctx, txRepo, caller, models.EscrowWallet, attachedFee); err != nil {
			return err
		}

		position := len(duel.Participants)
		if err := txRepo.AddParticipant(ctx, duelID, caller, position); err != nil {
			return err
		}
		duel.Participants = append(duel.Participants, models.DuelParticipant{
			DuelID:   duelID,
			Wallet:   caller,
			Position: position,
		})
		duel.PrizePool += attachedFee

		// Auto-start once the roster is full
		if len(duel.Participants) == duel.MaxPlayers {
			if err := ds.activate(ctx, txRepo, duel); err != nil {
				return err
			}
		}

		if err := txRepo.UpdateDuel(ctx, duel); err != nil {
			return err
		}

		return txRepo.AppendEvent(ctx, duelID, models.EventPlayerJoined, map[string]interface{}{
			"player":             caller,
			"participants_count": len(duel.Participants),
		})
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[DuelRegistry] %s joined duel %d", caller, duelID)
	return ds.GetDuel(ctx, duelID)
}

// StartDuel is the creator's manual trigger once at least two
// participants have staked
func (ds *DuelService) StartDuel(ctx context.Context, caller string, duelID uint64) (*models.Duel, error) {
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
		if len(duel.Participants) < models.MinParticipants {
			return models.ErrNotEnoughParticipants
		}

		if err := ds.activate(ctx, txRepo, duel); err != nil {
			return err
		}
		return txRepo.UpdateDuel(ctx, duel)
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[DuelRegistry] Duel %d started by creator", duelID)
	return ds.GetDuel(ctx, duelID)
}

// activate sets the contest window and asks the settlement engine for
// one portfolio per participant, all under the caller's transaction.
// An engine failure rolls the whole activation back.
func (ds *DuelService) activate(ctx context.Context, txRepo *repository.Repository, duel *models.Duel) error {
	now := time.Now().UnixMilli()
	duel.StartTime = now
	duel.EndTime = now + duel.DurationSeconds*models.MillisPerSecond
	duel.Status = models.DuelStatusActive

	for _, participant := range duel.Participants {
		err := ds.trading.InitializePortfolio(ctx, txRepo, ds.identity, duel.DuelID, participant.Wallet, duel.EntryFee)
		if err != nil {
			return err
		}
	}

	return txRepo.AppendEvent(ctx, duel.DuelID, models.EventDuelStarted, map[string]interface{}{
		"start_time":         duel.StartTime,
		"end_time":           duel.EndTime,
		"participants_count": len(duel.Participants),
	})
}

// GetDuel retrieves a duel with its roster
func (ds *DuelService) GetDuel(ctx context.Context, duelID uint64) (*models.Duel, error) {
	return ds.repo.GetDuelByDuelID(ctx, duelID)
}

// GetActiveDuelIDs lists ids of joinable or running duels
func (ds *DuelService) GetActiveDuelIDs(ctx context.Context) ([]uint64, error) {
	return ds.repo.GetActiveDuelIDs(ctx)
}

// GetUserDuelIDs lists every duel a wallet has participated in
func (ds *DuelService) GetUserDuelIDs(ctx context.Context, wallet string) ([]uint64, error) {
	return ds.repo.GetUserDuelIDs(ctx, wallet)
}

// GetDuelEvents returns a duel's audit trail
func (ds *DuelService) GetDuelEvents(ctx context.Context, duelID uint64) ([]*models.DuelEvent, error) {
	return ds.repo.GetDuelEvents(ctx, duelID)
}

// GetPlatformStats returns aggregate registry statistics
func (ds *DuelService) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	state, err := ds.repo.GetPlatformState(ctx)
	if err != nil {
		return nil, err
	}
	return &models.PlatformStats{
		TotalDuels:            state.TotalDuelsCreated,
		TotalPrizeDistributed: state.TotalPrizeDistributed,
		FeePercent:            state.FeePercent,
		AccruedFees:           state.AccruedFees,
	}, nil
}

// GetLeaderboard returns the duel leaderboard in roster order for ties
func (ds *DuelService) GetLeaderboard(ctx context.Context, duelID uint64) ([]models.LeaderboardEntry, error) {
	duel, err := ds.repo.GetDuelByDuelID(ctx, duelID)
	if err != nil {
		return nil, err
	}
	return ds.trading.Leaderboard(ctx, duelID, duel.ParticipantWallets())
}
