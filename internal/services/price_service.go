package services

import (
	"context"
	"log"
	"time"

	"flipduel/internal/models"
	"flipduel/internal/repository"

	"github.com/google/uuid"
)

// PriceService is the oracle ingestion path. Prices are pushed, never
// pulled: only wallets in the authorized-updater set may write, and the
// settlement engine reads the cached rows.
type PriceService struct {
	repo               *repository.Repository
	ownerWallet        string
	defaultMinInterval time.Duration
}

func NewPriceService(repo *repository.Repository, ownerWallet string, defaultMinInterval time.Duration) *PriceService {
	return &PriceService{
		repo:               repo,
		ownerWallet:        ownerWallet,
		defaultMinInterval: defaultMinInterval,
	}
}

// EnsureInitialized seeds the oracle state row and authorizes the owner
// as the first updater. Safe to call on every startup.
func (ps *PriceService) EnsureInitialized(ctx context.Context) error {
	return ps.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		state, err := txRepo.GetOracleState(ctx)
		if err != nil {
			return err
		}
		if state != nil {
			return nil
		}

		state = &models.OracleState{
			ID:                  1,
			Owner:               ps.ownerWallet,
			MinUpdateIntervalMs: ps.defaultMinInterval.Milliseconds(),
		}
		if err := txRepo.SaveOracleState(ctx, state); err != nil {
			return err
		}

		if ps.ownerWallet == "" {
			return nil
		}
		return txRepo.AddOracleUpdater(ctx, &models.OracleUpdater{
			ID:      uuid.New(),
			Wallet:  ps.ownerWallet,
			AddedBy: ps.ownerWallet,
		})
	})
}

// UpdatePrice ingests one pushed price. Re-pricing an asset is rejected
// until the minimum update interval has elapsed since its last update;
// the first price for an asset is always accepted.
func (ps *PriceService) UpdatePrice(ctx context.Context, caller, assetID string, price int64, source string) error {
	if price <= 0 {
		return models.ErrInvalidPrice
	}

	err := ps.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := ps.requireAuthorized(ctx, txRepo, caller); err != nil {
			return err
		}

		state, err := txRepo.GetOracleState(ctx)
		if err != nil {
			return err
		}

		now := time.Now().UnixMilli()

		existing, err := txRepo.GetAssetPrice(ctx, assetID)
		if err != nil {
			return err
		}
		if existing != nil && state != nil && now < existing.LastUpdated+state.MinUpdateIntervalMs {
			return models.ErrUpdateTooSoon
		}

		if err := ps.writePrice(ctx, txRepo, existing, assetID, price, source, now); err != nil {
			return err
		}

		if state != nil {
			state.TotalPriceUpdates++
			if err := txRepo.SaveOracleState(ctx, state); err != nil {
				return err
			}
		}

		return txRepo.AppendEvent(ctx, 0, models.EventPriceUpdated, map[string]interface{}{
			"asset_id":  assetID,
			"price":     price,
			"source":    source,
			"updater":   caller,
			"timestamp": now,
		})
	})

	if err != nil {
		return err
	}

	log.Printf("[Oracle] Price updated: %s=%d (source=%s)", assetID, price, source)
	return nil
}

// BatchUpdatePrices ingests up to MaxBatchUpdateSize prices in one call.
// Batch entries skip the interval check; each is still zero-price
// checked, and any bad entry aborts the whole batch.
func (ps *PriceService) BatchUpdatePrices(ctx context.Context, caller string, updates []models.PriceUpdate) error {
	if len(updates) == 0 {
		return models.ErrEmptyBatch
	}
	if len(updates) > models.MaxBatchUpdateSize {
		return models.ErrBatchTooLarge
	}

	err := ps.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := ps.requireAuthorized(ctx, txRepo, caller); err != nil {
			return err
		}

		now := time.Now().UnixMilli()

		for _, update := range updates {
			if update.Price <= 0 {
				return models.ErrInvalidPrice
			}

			existing, err := txRepo.GetAssetPrice(ctx, update.AssetID)
			if err != nil {
				return err
			}
			if err := ps.writePrice(ctx, txRepo, existing, update.AssetID, update.Price, update.Source, now); err != nil {
				return err
			}
		}

		state, err := txRepo.GetOracleState(ctx)
		if err != nil {
			return err
		}
		if state != nil {
			state.TotalPriceUpdates += uint64(len(updates))
			if err := txRepo.SaveOracleState(ctx, state); err != nil {
				return err
			}
		}

		return txRepo.AppendEvent(ctx, 0, models.EventBatchPricesUpdated, map[string]interface{}{
			"count":     len(updates),
			"updater":   caller,
			"timestamp": now,
		})
	})

	if err != nil {
		return err
	}

	log.Printf("[Oracle] Batch price update: %d assets by %s", len(updates), caller)
	return nil
}

func (ps *PriceService) writePrice(
	ctx context.Context,
	repo *repository.Repository,
	existing *models.AssetPrice,
	assetID string,
	price int64,
	source string,
	nowMs int64,
) error {
	if existing == nil {
		existing = &models.AssetPrice{AssetID: assetID}
	}
	existing.Price = price
	existing.Source = source
	existing.LastUpdated = nowMs
	existing.UpdateCount++
	return repo.SaveAssetPrice(ctx, existing)
}

func (ps *PriceService) requireAuthorized(ctx context.Context, repo *repository.Repository, caller string) error {
	authorized, err := repo.IsAuthorizedUpdater(ctx, caller)
	if err != nil {
		return err
	}
	if !authorized {
		return models.ErrOnlyOracle
	}
	return nil
}

func (ps *PriceService) requireOwner(ctx context.Context, repo *repository.Repository, caller string) error {
	state, err := repo.GetOracleState(ctx)
	if err != nil {
		return err
	}
	if state == nil || caller == "" || caller != state.Owner {
		return models.ErrOnlyOracleOwner
	}
	return nil
}

// GetPrice returns the oracle view of an asset price: 0 when unknown.
// (The settlement engine's read applies the fallback sentinel instead.)
func (ps *PriceService) GetPrice(ctx context.Context, assetID string) (int64, error) {
	price, err := ps.repo.GetAssetPrice(ctx, assetID)
	if err != nil {
		return 0, err
	}
	if price == nil {
		return 0, nil
	}
	return price.Price, nil
}

// GetPriceData returns the full stored price record, or nil if unknown
func (ps *PriceService) GetPriceData(ctx context.Context, assetID string) (*models.AssetPrice, error) {
	return ps.repo.GetAssetPrice(ctx, assetID)
}

// GetMultiplePrices resolves several asset ids at once (0 for unknown)
func (ps *PriceService) GetMultiplePrices(ctx context.Context, assetIDs []string) (map[string]int64, error) {
	prices := make(map[string]int64, len(assetIDs))
	for _, id := range assetIDs {
		price, err := ps.GetPrice(ctx, id)
		if err != nil {
			return nil, err
		}
		prices[id] = price
	}
	return prices, nil
}

// AddUpdater authorizes a wallet to push prices (owner only)
func (ps *PriceService) AddUpdater(ctx context.Context, caller, wallet string) error {
	return ps.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := ps.requireOwner(ctx, txRepo, caller); err != nil {
			return err
		}

		authorized, err := txRepo.IsAuthorizedUpdater(ctx, wallet)
		if err != nil {
			return err
		}
		if authorized {
			return models.ErrAlreadyAuthorized
		}

		return txRepo.AddOracleUpdater(ctx, &models.OracleUpdater{
			ID:      uuid.New(),
			Wallet:  wallet,
			AddedBy: caller,
		})
	})
}

// RemoveUpdater revokes a wallet's updater authorization (owner only;
// the owner cannot revoke itself)
func (ps *PriceService) RemoveUpdater(ctx context.Context, caller, wallet string) error {
	return ps.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := ps.requireOwner(ctx, txRepo, caller); err != nil {
			return err
		}
		if wallet == caller {
			return models.ErrOnlyOracleOwner
		}

		authorized, err := txRepo.IsAuthorizedUpdater(ctx, wallet)
		if err != nil {
			return err
		}
		if !authorized {
			return models.ErrUpdaterNotFound
		}

		return txRepo.RemoveOracleUpdater(ctx, wallet)
	})
}

// ListUpdaters returns all authorized updater wallets
func (ps *PriceService) ListUpdaters(ctx context.Context) ([]string, error) {
	return ps.repo.ListOracleUpdaters(ctx)
}

// SetMinUpdateInterval changes the per-asset re-pricing cadence (owner only)
func (ps *PriceService) SetMinUpdateInterval(ctx context.Context, caller string, interval time.Duration) error {
	return ps.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := ps.requireOwner(ctx, txRepo, caller); err != nil {
			return err
		}
		state, err := txRepo.GetOracleState(ctx)
		if err != nil {
			return err
		}
		state.MinUpdateIntervalMs = interval.Milliseconds()
		return txRepo.SaveOracleState(ctx, state)
	})
}
