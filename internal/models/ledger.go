package models

import "time"

// EscrowWallet is the ledger account holding all staked entry fees and
// accrued platform fees until settlement.
const EscrowWallet = "__escrow__"

// LedgerAccount is one balance row of the internal value-transfer ledger.
// The ledger stands in for the hosting environment's native-currency
// transfer primitive; balances never go negative.
type LedgerAccount struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Wallet    string    `gorm:"uniqueIndex;size:255;not null" json:"wallet"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (LedgerAccount) TableName() string {
	return "ledger_accounts"
}
