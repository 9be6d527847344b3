package repository

import (
	"context"
	"encoding/json"
	"time"

	"flipduel/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateDuel creates a new duel
func (r *Repository) CreateDuel(ctx context.Context, duel *models.Duel) error {
	return r.db.WithContext(ctx).Create(duel).Error
}

// GetDuelByDuelID retrieves a duel with its roster in join order
func (r *Repository) GetDuelByDuelID(ctx context.Context, duelID uint64) (*models.Duel, error) {
	var duel models.Duel
	err := r.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("duel_id = ?", duelID).
		First(&duel).Error
	if err == gorm.ErrRecordNotFound {
		return nil, models.ErrDuelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &duel, nil
}

// UpdateDuel updates a duel
func (r *Repository) UpdateDuel(ctx context.Context, duel *models.Duel) error {
	return r.db.WithContext(ctx).Omit("Participants").Save(duel).Error
}

// AddParticipant appends a wallet to a duel roster at the given position
func (r *Repository) AddParticipant(ctx context.Context, duelID uint64, wallet string, position int) error {
	participant := &models.DuelParticipant{
		ID:       uuid.New(),
		DuelID:   duelID,
		Wallet:   wallet,
		Position: position,
	}
	return r.db.WithContext(ctx).Create(participant).Error
}

// GetActiveDuelIDs returns ids of duels with status Open or Active
func (r *Repository) GetActiveDuelIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&models.Duel{}).
		Where("status IN ?", []models.DuelStatus{models.DuelStatusOpen, models.DuelStatusActive}).
		Order("duel_id ASC").
		Pluck("duel_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetExpiredActiveDuels returns Active duels whose end time has passed
func (r *Repository) GetExpiredActiveDuels(ctx context.Context, nowMs int64, limit int) ([]*models.Duel, error) {
	var duels []*models.Duel
	err := r.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("status = ? AND end_time > 0 AND end_time <= ?", models.DuelStatusActive, nowMs).
		Order("end_time ASC").
		Limit(limit).
		Find(&duels).Error
	if err != nil {
		return nil, err
	}
	return duels, nil
}

// GetUserDuelIDs returns the ids of all duels a wallet has participated in
func (r *Repository) GetUserDuelIDs(ctx context.Context, wallet string) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&models.DuelParticipant{}).
		Where("wallet = ?", wallet).
		Order("duel_id ASC").
		Pluck("duel_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AppendEvent writes one append-only audit record; payload is marshalled
// to JSON
func (r *Repository) AppendEvent(ctx context.Context, duelID uint64, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &models.DuelEvent{
		ID:        uuid.New(),
		DuelID:    duelID,
		Type:      eventType,
		Payload:   string(body),
		CreatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// GetDuelEvents returns the audit trail for a duel in emission order
func (r *Repository) GetDuelEvents(ctx context.Context, duelID uint64) ([]*models.DuelEvent, error) {
	var events []*models.DuelEvent
	err := r.db.WithContext(ctx).
		Where("duel_id = ?", duelID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
