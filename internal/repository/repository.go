package repository

import (
	"context"

	"flipduel/internal/models"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn inside one database transaction; every write made
// through the repository passed to fn is rolled back if fn errors. This
// backs the all-or-nothing semantics of the registry operations.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// GetPlatformState retrieves the single registry state row, creating it
// with defaults on first access.
func (r *Repository) GetPlatformState(ctx context.Context) (*models.PlatformState, error) {
	var state models.PlatformState
	err := r.db.WithContext(ctx).First(&state).Error
	if err == gorm.ErrRecordNotFound {
		state = models.PlatformState{
			ID:         1,
			NextDuelID: 1,
			FeePercent: 5,
		}
		if createErr := r.db.WithContext(ctx).Create(&state).Error; createErr != nil {
			return nil, createErr
		}
		return &state, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SavePlatformState persists the registry state row
func (r *Repository) SavePlatformState(ctx context.Context, state *models.PlatformState) error {
	return r.db.WithContext(ctx).Save(state).Error
}
