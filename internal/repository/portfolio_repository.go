package repository

import (
	"context"

	"flipduel/internal/models"

	"gorm.io/gorm"
)

// CreatePortfolio creates a fresh portfolio record
func (r *Repository) CreatePortfolio(ctx context.Context, portfolio *models.Portfolio) error {
	return r.db.WithContext(ctx).Create(portfolio).Error
}

// GetPortfolio retrieves a portfolio with its holdings
func (r *Repository) GetPortfolio(ctx context.Context, duelID uint64, wallet string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	err := r.db.WithContext(ctx).
		Preload("Holdings").
		Where("duel_id = ? AND wallet = ?", duelID, wallet).
		First(&portfolio).Error
	if err == gorm.ErrRecordNotFound {
		return nil, models.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, err
	}
	return &portfolio, nil
}

// DeletePortfolio removes a portfolio and its holdings; used when a
// duplicate initialization overwrites an existing portfolio
func (r *Repository) DeletePortfolio(ctx context.Context, duelID uint64, wallet string) error {
	var portfolio models.Portfolio
	err := r.db.WithContext(ctx).
		Where("duel_id = ? AND wallet = ?", duelID, wallet).
		First(&portfolio).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolio.ID).
		Delete(&models.Holding{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&portfolio).Error
}

// UpdatePortfolio persists portfolio scalar fields (cash, trade count)
func (r *Repository) UpdatePortfolio(ctx context.Context, portfolio *models.Portfolio) error {
	return r.db.WithContext(ctx).Omit("Holdings").Save(portfolio).Error
}

// AddHolding appends one holding to a portfolio
func (r *Repository) AddHolding(ctx context.Context, holding *models.Holding) error {
	return r.db.WithContext(ctx).Create(holding).Error
}

// RemoveHolding deletes one holding row
func (r *Repository) RemoveHolding(ctx context.Context, holding *models.Holding) error {
	return r.db.WithContext(ctx).Delete(holding).Error
}

// CreateTradeRecord appends one trade to the queryable history
func (r *Repository) CreateTradeRecord(ctx context.Context, trade *models.TradeRecord) error {
	return r.db.WithContext(ctx).Create(trade).Error
}

// GetTradeRecords returns a participant's trades for a duel in execution order
func (r *Repository) GetTradeRecords(ctx context.Context, duelID uint64, wallet string) ([]*models.TradeRecord, error) {
	var trades []*models.TradeRecord
	err := r.db.WithContext(ctx).
		Where("duel_id = ? AND wallet = ?", duelID, wallet).
		Order("seq ASC").
		Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}
