package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxBatchUpdateSize caps one batch price push.
const MaxBatchUpdateSize = 50

// AssetPrice is the latest oracle-pushed price for one asset
type AssetPrice struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID     string    `gorm:"uniqueIndex;size:255;not null" json:"asset_id"`
	Price       int64     `gorm:"not null" json:"price"`
	Source      string    `gorm:"size:255" json:"source"`
	LastUpdated int64     `gorm:"not null" json:"last_updated"` // unix ms
	UpdateCount int       `gorm:"not null;default:0" json:"update_count"`
}

func (AssetPrice) TableName() string {
	return "asset_prices"
}

// OracleState is the single-row oracle configuration
type OracleState struct {
	ID                  uint   `gorm:"primaryKey" json:"id"`
	Owner               string `gorm:"size:255;not null" json:"owner"`
	MinUpdateIntervalMs int64  `gorm:"not null" json:"min_update_interval_ms"`
	TotalPriceUpdates   uint64 `gorm:"not null;default:0" json:"total_price_updates"`
}

func (OracleState) TableName() string {
	return "oracle_state"
}

// OracleUpdater is one wallet authorized to push prices
type OracleUpdater struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Wallet    string    `gorm:"uniqueIndex;size:255;not null" json:"wallet"`
	AddedBy   string    `gorm:"size:255" json:"added_by"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (OracleUpdater) TableName() string {
	return "oracle_updaters"
}

// PriceUpdate is one entry of a batch price push
type PriceUpdate struct {
	AssetID string `json:"asset_id" binding:"required"`
	Price   int64  `json:"price" binding:"required"`
	Source  string `json:"source"`
}
