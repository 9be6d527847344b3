package models

import (
	"time"

	"github.com/google/uuid"
)

// FallbackAssetPrice is the sentinel used when the oracle has never
// pushed a price for an asset (1 unit at 9 decimals).
const FallbackAssetPrice int64 = 1_000_000_000

// Portfolio is one participant's simulated cash + holdings within a duel
type Portfolio struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DuelID       uint64    `gorm:"not null;index;uniqueIndex:idx_portfolio_duel_wallet" json:"duel_id"`
	Wallet       string    `gorm:"size:255;not null;index;uniqueIndex:idx_portfolio_duel_wallet" json:"wallet"`
	CashBalance  int64     `gorm:"not null" json:"cash_balance"`
	InitialValue int64     `gorm:"not null" json:"initial_value"`
	TradeCount   int       `gorm:"not null;default:0" json:"trade_count"`
	Holdings     []Holding `gorm:"foreignKey:PortfolioID" json:"holdings"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

// HasHolding reports whether the portfolio already holds assetID.
func (p *Portfolio) HasHolding(assetID string) bool {
	for _, h := range p.Holdings {
		if h.AssetID == assetID {
			return true
		}
	}
	return false
}

// Holding is one owned asset; at most one holding per asset per portfolio
type Holding struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PortfolioID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_holding_asset" json:"portfolio_id"`
	AssetID       string    `gorm:"size:255;not null;uniqueIndex:idx_holding_asset" json:"asset_id"`
	PurchasePrice int64     `gorm:"not null" json:"purchase_price"`
	PurchaseTime  int64     `gorm:"not null" json:"purchase_time"` // unix ms
}

func (Holding) TableName() string {
	return "holdings"
}

type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// TradeRecord is the queryable per-participant trade history, kept
// separate from the Portfolio record so portfolios stay bounded.
type TradeRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DuelID         uint64    `gorm:"not null;index:idx_trade_duel_wallet" json:"duel_id"`
	Wallet         string    `gorm:"size:255;not null;index:idx_trade_duel_wallet" json:"wallet"`
	Seq            int       `gorm:"not null" json:"seq"`
	AssetID        string    `gorm:"size:255;not null" json:"asset_id"`
	Side           TradeSide `gorm:"size:10;not null" json:"side"`
	Price          int64     `gorm:"not null" json:"price"`
	PortfolioValue int64     `gorm:"not null" json:"portfolio_value"`
	ExecutedAt     int64     `gorm:"not null" json:"executed_at"` // unix ms
}

func (TradeRecord) TableName() string {
	return "trade_records"
}

// LeaderboardEntry is one row of a duel leaderboard
type LeaderboardEntry struct {
	Wallet       string `json:"wallet"`
	CurrentValue int64  `json:"current_value"`
	GainPercent  int32  `json:"gain_percent"`
	TradeCount   int    `json:"trade_count"`
}

// PortfolioStats is the per-participant valuation summary
type PortfolioStats struct {
	CurrentValue int64 `json:"current_value"`
	InitialValue int64 `json:"initial_value"`
	GainPercent  int32 `json:"gain_percent"`
	TradeCount   int   `json:"trade_count"`
	AssetCount   int   `json:"asset_count"`
}
