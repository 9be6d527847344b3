package models

import "errors"

// Closed enumeration of failure kinds. Every mutating operation fails
// with exactly one of these; handlers map them to HTTP statuses with
// errors.Is.
var (
	// Duel registry
	ErrDuelNotFound            = errors.New("duel not found")
	ErrInvalidEntryFee         = errors.New("entry fee must be positive")
	ErrInvalidDuration         = errors.New("duration out of range")
	ErrInvalidParticipantCount = errors.New("max participants out of range")
	ErrDuelNotOpen             = errors.New("duel is not open")
	ErrIncorrectFee            = errors.New("attached fee does not match entry fee")
	ErrAlreadyParticipant      = errors.New("already a participant")
	ErrDuelFull                = errors.New("duel full")
	ErrOnlyCreator             = errors.New("only the creator may perform this")
	ErrNotEnoughParticipants   = errors.New("not enough participants")
	ErrDuelNotActive           = errors.New("duel is not active")
	ErrDuelNotEnded            = errors.New("duel not ended")
	ErrDuelNotClosed           = errors.New("duel is not closed")
	ErrNotWinner               = errors.New("caller is not the winner")
	ErrAlreadyClaimed          = errors.New("already claimed")
	ErrCannotCancel            = errors.New("cannot cancel with two or more participants")
	ErrInvalidFeePercentage    = errors.New("fee percentage out of range")
	ErrEmptyRoster             = errors.New("duel has no participants")
	ErrNoAccruedFees           = errors.New("no accrued fees to withdraw")

	// Settlement engine
	ErrPortfolioNotFound    = errors.New("portfolio not found")
	ErrInsufficientBalance  = errors.New("insufficient cash balance")
	ErrAlreadyOwnsAsset     = errors.New("asset already held")
	ErrAssetNotOwned        = errors.New("asset not held")
	ErrOnlyRegistry         = errors.New("only the duel registry may initialize portfolios")

	// Price oracle
	ErrOnlyOracle       = errors.New("caller is not an authorized price updater")
	ErrOnlyOracleOwner  = errors.New("only the oracle owner may perform this")
	ErrInvalidPrice     = errors.New("price must be positive")
	ErrUpdateTooSoon    = errors.New("price update interval not elapsed")
	ErrEmptyBatch       = errors.New("empty batch update")
	ErrBatchTooLarge    = errors.New("batch update too large")
	ErrAlreadyAuthorized = errors.New("updater already authorized")
	ErrUpdaterNotFound   = errors.New("updater not found")

	// Treasury / ledger
	ErrInsufficientFunds = errors.New("insufficient ledger balance")
	ErrInvalidAmount     = errors.New("amount must be positive")

	// Access control
	ErrUnauthorized = errors.New("unauthorized")
	ErrOnlyAdmin    = errors.New("admin access required")
)
