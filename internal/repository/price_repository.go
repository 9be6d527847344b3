package repository

import (
	"context"

	"flipduel/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetAssetPrice retrieves the stored price data for an asset, or nil if
// the oracle has never pushed one
func (r *Repository) GetAssetPrice(ctx context.Context, assetID string) (*models.AssetPrice, error) {
	var price models.AssetPrice
	err := r.db.WithContext(ctx).Where("asset_id = ?", assetID).First(&price).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &price, nil
}

// SaveAssetPrice creates or updates the price row for an asset
func (r *Repository) SaveAssetPrice(ctx context.Context, price *models.AssetPrice) error {
	if price.ID == uuid.Nil {
		price.ID = uuid.New()
		return r.db.WithContext(ctx).Create(price).Error
	}
	return r.db.WithContext(ctx).Save(price).Error
}

// GetOracleState retrieves the single oracle configuration row
func (r *Repository) GetOracleState(ctx context.Context) (*models.OracleState, error) {
	var state models.OracleState
	err := r.db.WithContext(ctx).First(&state).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveOracleState persists the oracle configuration row
func (r *Repository) SaveOracleState(ctx context.Context, state *models.OracleState) error {
	return r.db.WithContext(ctx).Save(state).Error
}

// IsAuthorizedUpdater reports whether wallet may push prices
func (r *Repository) IsAuthorizedUpdater(ctx context.Context, wallet string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OracleUpdater{}).
		Where("wallet = ?", wallet).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddOracleUpdater authorizes a wallet to push prices
func (r *Repository) AddOracleUpdater(ctx context.Context, updater *models.OracleUpdater) error {
	return r.db.WithContext(ctx).Create(updater).Error
}

// RemoveOracleUpdater revokes a wallet's updater authorization
func (r *Repository) RemoveOracleUpdater(ctx context.Context, wallet string) error {
	return r.db.WithContext(ctx).
		Where("wallet = ?", wallet).
		Delete(&models.OracleUpdater{}).Error
}

// ListOracleUpdaters returns all authorized updater wallets
func (r *Repository) ListOracleUpdaters(ctx context.Context) ([]string, error) {
	var wallets []string
	err := r.db.WithContext(ctx).
		Model(&models.OracleUpdater{}).
		Order("created_at ASC").
		Pluck("wallet", &wallets).Error
	if err != nil {
		return nil, err
	}
	return wallets, nil
}
