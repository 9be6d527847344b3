package models

import (
	"time"

	"github.com/google/uuid"
)

type DuelStatus string

const (
	DuelStatusOpen      DuelStatus = "OPEN"      // accepting players
	DuelStatusActive    DuelStatus = "ACTIVE"    // trading in progress
	DuelStatusClosed    DuelStatus = "CLOSED"    // completed, winner determined
	DuelStatusCancelled DuelStatus = "CANCELLED" // cancelled before starting
)

// Duration bounds for a duel, in seconds.
const (
	MinDurationSeconds = 60
	MaxDurationSeconds = 600
)

// Participant roster bounds.
const (
	MinParticipants = 2
	MaxParticipants = 10
)

// MillisPerSecond pins the clock unit: contest timestamps are unix
// milliseconds, durations are configured in seconds.
const MillisPerSecond int64 = 1000

// MaxFeePercent caps the platform fee set via the admin surface.
const MaxFeePercent = 10

// Duel represents a single time-boxed trading contest
type Duel struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	DuelID          uint64            `gorm:"uniqueIndex;not null" json:"duel_id"`
	Creator         string            `gorm:"size:255;not null;index" json:"creator"`
	EntryFee        int64             `gorm:"not null" json:"entry_fee"`
	PrizePool       int64             `gorm:"not null" json:"prize_pool"`
	StartTime       int64             `gorm:"default:0" json:"start_time"` // unix ms, 0 until activation
	EndTime         int64             `gorm:"default:0" json:"end_time"`   // unix ms, 0 until activation
	DurationSeconds int64             `gorm:"not null" json:"duration_seconds"`
	Status          DuelStatus        `gorm:"size:50;not null;default:OPEN;index" json:"status"`
	CollectionID    string            `gorm:"size:255" json:"collection_id"`
	MaxPlayers      int               `gorm:"not null" json:"max_players"`
	Winner          *string           `gorm:"size:255" json:"winner"`
	Claimed         bool              `gorm:"default:false" json:"claimed"`
	Participants    []DuelParticipant `gorm:"foreignKey:DuelID;references:DuelID" json:"participants"`
	CreatedAt       time.Time         `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Duel) TableName() string {
	return "duels"
}

// ParticipantWallets returns the roster in join order.
func (d *Duel) ParticipantWallets() []string {
	wallets := make([]string, 0, len(d.Participants))
	for _, p := range d.Participants {
		wallets = append(wallets, p.Wallet)
	}
	return wallets
}

// HasParticipant reports whether wallet is already in the roster.
func (d *Duel) HasParticipant(wallet string) bool {
	for _, p := range d.Participants {
		if p.Wallet == wallet {
			return true
		}
	}
	return false
}

// DuelParticipant is one roster slot; Position preserves join order,
// which drives the winner tie-break.
type DuelParticipant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DuelID    uint64    `gorm:"not null;index;uniqueIndex:idx_duel_wallet" json:"duel_id"`
	Wallet    string    `gorm:"size:255;not null;index;uniqueIndex:idx_duel_wallet" json:"wallet"`
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (DuelParticipant) TableName() string {
	return "duel_participants"
}

// PlatformState is the single-row registry state: id assignment,
// aggregate counters and the current fee percentage.
type PlatformState struct {
	ID                    uint  `gorm:"primaryKey" json:"id"`
	NextDuelID            uint64 `gorm:"not null;default:1" json:"next_duel_id"`
	TotalDuelsCreated     uint64 `gorm:"not null;default:0" json:"total_duels_created"`
	TotalPrizeDistributed int64 `gorm:"not null;default:0" json:"total_prize_distributed"`
	FeePercent            int   `gorm:"not null;default:5" json:"fee_percent"`
	AccruedFees           int64 `gorm:"not null;default:0" json:"accrued_fees"`
}

func (PlatformState) TableName() string {
	return "platform_state"
}

// PlatformStats is the read-only aggregate view
type PlatformStats struct {
	TotalDuels            uint64 `json:"total_duels"`
	TotalPrizeDistributed int64  `json:"total_prize_distributed"`
	FeePercent            int    `json:"fee_percent"`
	AccruedFees           int64  `json:"accrued_fees"`
}

// Event types emitted by mutating operations.
const (
	EventDuelCreated          = "duel_created"
	EventPlayerJoined         = "player_joined"
	EventDuelStarted          = "duel_started"
	EventDuelClosed           = "duel_closed"
	EventRewardsClaimed       = "rewards_claimed"
	EventDuelCancelled        = "duel_cancelled"
	EventFeesWithdrawn        = "fees_withdrawn"
	EventPortfolioInitialized = "portfolio_initialized"
	EventTradeExecuted        = "trade_executed"
	EventPriceUpdated         = "price_updated"
	EventBatchPricesUpdated   = "batch_prices_updated"
)

// DuelEvent is one append-only audit record; Payload is a JSON document
// with the operation-specific fields.
type DuelEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DuelID    uint64    `gorm:"index" json:"duel_id"` // 0 for platform-level events
	Type      string    `gorm:"size:50;not null;index" json:"type"`
	Payload   string    `gorm:"type:text" json:"payload"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (DuelEvent) TableName() string {
	return "duel_events"
}
