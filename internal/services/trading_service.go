package services

import (
	"context"
	"log"
	"sort"
	"time"

	"flipduel/internal/models"
	"flipduel/internal/repository"

	"github.com/google/uuid"
)

// gainScale is the fixed-point scale used for gain percentages: the
// raw ratio is scaled by 10000, then truncated to whole percents by
// dividing by 100. Integer math throughout keeps settlement outcomes
// bit-reproducible.
const (
	gainScale        int64 = 10000
	gainScaleDivisor int64 = 100
)

// TradingService is the settlement engine: it owns per-participant
// simulated portfolios, trade execution, mark-to-market valuation and
// ranking. It never mutates duel records; the registry side of the
// coupling flows through InitializePortfolio only.
type TradingService struct {
	repo *repository.Repository
	// registryIdentity is the only caller allowed to initialize
	// portfolios (registry <-> engine capability link).
	registryIdentity string
}

func NewTradingService(repo *repository.Repository, registryIdentity string) *TradingService {
	return &TradingService{
		repo:             repo,
		registryIdentity: registryIdentity,
	}
}

// InitializePortfolio creates a fresh portfolio for one (duel, wallet)
// pair. The caller identity must match the configured registry; a
// duplicate call overwrites the existing portfolio. It runs on the
// repository handed in so the registry's activation transaction covers
// it.
func (ts *TradingService) InitializePortfolio(
	ctx context.Context,
	repo *repository.Repository,
	caller string,
	duelID uint64,
	wallet string,
	startingBalance int64,
) error {
	if caller != ts.registryIdentity {
		return models.ErrOnlyRegistry
	}

	if err := repo.DeletePortfolio(ctx, duelID, wallet); err != nil {
		return err
	}

	portfolio := &models.Portfolio{
		ID:           uuid.New(),
		DuelID:       duelID,
		Wallet:       wallet,
		CashBalance:  startingBalance,
		InitialValue: startingBalance,
		TradeCount:   0,
	}

	if err := repo.CreatePortfolio(ctx, portfolio); err != nil {
		return err
	}

	return repo.AppendEvent(ctx, duelID, models.EventPortfolioInitialized, map[string]interface{}{
		"wallet":           wallet,
		"starting_balance": startingBalance,
	})
}

// Buy executes a buy at the current oracle price
func (ts *TradingService) Buy(ctx context.Context, caller string, duelID uint64, assetID string) (*models.Portfolio, error) {
	var result *models.Portfolio

	err := ts.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		duel, err := txRepo.GetDuelByDuelID(ctx, duelID)
		if err != nil {
			return err
		}
		if duel.Status != models.DuelStatusActive {
			return models.ErrDuelNotActive
		}

		portfolio, err := txRepo.GetPortfolio(ctx, duelID, caller)
		if err != nil {
			return err
		}

		price, err := ts.currentPrice(ctx, txRepo, assetID)
		if err != nil {
			return err
		}

		if portfolio.HasHolding(assetID) {
			return models.ErrAlreadyOwnsAsset
		}
		if portfolio.CashBalance < price {
			return models.ErrInsufficientBalance
		}

		now := time.Now().UnixMilli()

		portfolio.CashBalance -= price
		portfolio.TradeCount++

		holding := &models.Holding{
			ID:            uuid.New(),
			PortfolioID:   portfolio.ID,
			AssetID:       assetID,
			PurchasePrice: price,
			PurchaseTime:  now,
		}
		if err := txRepo.AddHolding(ctx, holding); err != nil {
			return err
		}
		if err := txRepo.UpdatePortfolio(ctx, portfolio); err != nil {
			return err
		}
		portfolio.Holdings = append(portfolio.Holdings, *holding)

		return ts.recordTrade(ctx, txRepo, portfolio, assetID, models.TradeSideBuy, price, now, &result)
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[Trading] Buy executed: duel=%d wallet=%s asset=%s", duelID, caller, assetID)
	return result, nil
}

// Sell executes a sell at the current oracle price. Proceeds use the
// current price, not the purchase price; gains are always computed from
// total marked-to-market value.
func (ts *TradingService) Sell(ctx context.Context, caller string, duelID uint64, assetID string) (*models.Portfolio, error) {
	var result *models.Portfolio

	err := ts.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		duel, err := txRepo.GetDuelByDuelID(ctx, duelID)
		if err != nil {
			return err
		}
		if duel.Status != models.DuelStatusActive {
			return models.ErrDuelNotActive
		}

		portfolio, err := txRepo.GetPortfolio(ctx, duelID, caller)
		if err != nil {
			return err
		}

		var held *models.Holding
		remaining := make([]models.Holding, 0, len(portfolio.Holdings))
		for i := range portfolio.Holdings {
			if portfolio.Holdings[i].AssetID == assetID && held == nil {
				held = &portfolio.Holdings[i]
				continue
			}
			remaining = append(remaining, portfolio.Holdings[i])
		}
		if held == nil {
			return models.ErrAssetNotOwned
		}

		price, err := ts.currentPrice(ctx, txRepo, assetID)
		if err != nil {
			return err
		}

		now := time.Now().UnixMilli()

		if err := txRepo.RemoveHolding(ctx, held); err != nil {
			return err
		}

		portfolio.CashBalance += price
		portfolio.TradeCount++
		portfolio.Holdings = remaining

		if err := txRepo.UpdatePortfolio(ctx, portfolio); err != nil {
			return err
		}

		return ts.recordTrade(ctx, txRepo, portfolio, assetID, models.TradeSideSell, price, now, &result)
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[Trading] Sell executed: duel=%d wallet=%s asset=%s", duelID, caller, assetID)
	return result, nil
}

// recordTrade persists the trade history row and emits the trade event
// with the resulting portfolio value
func (ts *TradingService) recordTrade(
	ctx context.Context,
	repo *repository.Repository,
	portfolio *models.Portfolio,
	assetID string,
	side models.TradeSide,
	price int64,
	nowMs int64,
	out **models.Portfolio,
) error {
	value, err := ts.valueOf(ctx, repo, portfolio)
	if err != nil {
		return err
	}

	trade := &models.TradeRecord{
		ID:             uuid.New(),
		DuelID:         portfolio.DuelID,
		Wallet:         portfolio.Wallet,
		Seq:            portfolio.TradeCount,
		AssetID:        assetID,
		Side:           side,
		Price:          price,
		PortfolioValue: value,
		ExecutedAt:     nowMs,
	}
	if err := repo.CreateTradeRecord(ctx, trade); err != nil {
		return err
	}

	*out = portfolio
	return repo.AppendEvent(ctx, portfolio.DuelID, models.EventTradeExecuted, map[string]interface{}{
		"wallet":          portfolio.Wallet,
		"asset_id":        assetID,
		"side":            side,
		"price":           price,
		"portfolio_value": value,
	})
}

// currentPrice returns the cached oracle price for an asset, or the
// fallback sentinel if the oracle has never pushed one
func (ts *TradingService) currentPrice(ctx context.Context, repo *repository.Repository, assetID string) (int64, error) {
	price, err := repo.GetAssetPrice(ctx, assetID)
	if err != nil {
		return 0, err
	}
	if price == nil {
		return models.FallbackAssetPrice, nil
	}
	return price.Price, nil
}

// CurrentPrice is the read-only price view used by handlers
func (ts *TradingService) CurrentPrice(ctx context.Context, assetID string) (int64, error) {
	return ts.currentPrice(ctx, ts.repo, assetID)
}

func (ts *TradingService) valueOf(ctx context.Context, repo *repository.Repository, portfolio *models.Portfolio) (int64, error) {
	total := portfolio.CashBalance
	for _, holding := range portfolio.Holdings {
		price, err := ts.currentPrice(ctx, repo, holding.AssetID)
		if err != nil {
			return 0, err
		}
		total += price
	}
	return total, nil
}

// PortfolioValue returns cash plus the marked-to-market value of all holdings
func (ts *TradingService) PortfolioValue(ctx context.Context, duelID uint64, wallet string) (int64, error) {
	return ts.portfolioValue(ctx, ts.repo, duelID, wallet)
}

func (ts *TradingService) portfolioValue(ctx context.Context, repo *repository.Repository, duelID uint64, wallet string) (int64, error) {
	portfolio, err := repo.GetPortfolio(ctx, duelID, wallet)
	if err != nil {
		return 0, err
	}
	return ts.valueOf(ctx, repo, portfolio)
}

// GainPercent returns the signed, truncated whole-percent gain of a
// portfolio versus its initial value. The ratio is scaled by 10000,
// integer-divided, then truncated to whole percents, so fractional
// percentage points are lost; initial=100, current=133 yields +33.
func (ts *TradingService) GainPercent(ctx context.Context, duelID uint64, wallet string) (int32, error) {
	return ts.gainPercent(ctx, ts.repo, duelID, wallet)
}

func (ts *TradingService) gainPercent(ctx context.Context, repo *repository.Repository, duelID uint64, wallet string) (int32, error) {
	portfolio, err := repo.GetPortfolio(ctx, duelID, wallet)
	if err != nil {
		return 0, err
	}

	if portfolio.InitialValue == 0 {
		return 0, nil
	}

	current, err := ts.valueOf(ctx, repo, portfolio)
	if err != nil {
		return 0, err
	}

	// Unsigned-style arithmetic: take the magnitude first, apply the
	// sign last, so nothing can wrap.
	positive := current >= portfolio.InitialValue
	var diff int64
	if positive {
		diff = current - portfolio.InitialValue
	} else {
		diff = portfolio.InitialValue - current
	}

	scaled := diff * gainScale / portfolio.InitialValue
	percent := int32(scaled / gainScaleDivisor)
	if !positive {
		percent = -percent
	}
	return percent, nil
}

// GetPortfolio retrieves a portfolio with holdings
func (ts *TradingService) GetPortfolio(ctx context.Context, duelID uint64, wallet string) (*models.Portfolio, error) {
	return ts.repo.GetPortfolio(ctx, duelID, wallet)
}

// GetPortfolioStats returns the per-participant valuation summary
func (ts *TradingService) GetPortfolioStats(ctx context.Context, duelID uint64, wallet string) (*models.PortfolioStats, error) {
	portfolio, err := ts.repo.GetPortfolio(ctx, duelID, wallet)
	if err != nil {
		return nil, err
	}

	value, err := ts.valueOf(ctx, ts.repo, portfolio)
	if err != nil {
		return nil, err
	}
	gain, err := ts.gainPercent(ctx, ts.repo, duelID, wallet)
	if err != nil {
		return nil, err
	}

	return &models.PortfolioStats{
		CurrentValue: value,
		InitialValue: portfolio.InitialValue,
		GainPercent:  gain,
		TradeCount:   portfolio.TradeCount,
		AssetCount:   len(portfolio.Holdings),
	}, nil
}

// Leaderboard ranks the given participants by gain, descending.
// Participants without a portfolio are silently omitted; the sort is
// stable, so equal gains keep the input (join) order.
func (ts *TradingService) Leaderboard(ctx context.Context, duelID uint64, participants []string) ([]models.LeaderboardEntry, error) {
	return ts.leaderboard(ctx, ts.repo, duelID, participants)
}

func (ts *TradingService) leaderboard(ctx context.Context, repo *repository.Repository, duelID uint64, participants []string) ([]models.LeaderboardEntry, error) {
	entries := make([]models.LeaderboardEntry, 0, len(participants))

	for _, wallet := range participants {
		portfolio, err := repo.GetPortfolio(ctx, duelID, wallet)
		if err == models.ErrPortfolioNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}

		value, err := ts.valueOf(ctx, repo, portfolio)
		if err != nil {
			return nil, err
		}
		gain, err := ts.gainPercent(ctx, repo, duelID, wallet)
		if err != nil {
			return nil, err
		}

		entries = append(entries, models.LeaderboardEntry{
			Wallet:       wallet,
			CurrentValue: value,
			GainPercent:  gain,
			TradeCount:   portfolio.TradeCount,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].GainPercent > entries[j].GainPercent
	})

	return entries, nil
}

// GetTradeHistory returns a participant's trades for a duel
func (ts *TradingService) GetTradeHistory(ctx context.Context, duelID uint64, wallet string) ([]*models.TradeRecord, error) {
	return ts.repo.GetTradeRecords(ctx, duelID, wallet)
}
