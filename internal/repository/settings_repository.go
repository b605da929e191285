package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/preventivo-app/preventivo/internal/domain"
	"gorm.io/gorm"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.CompanySettings, error) {
	var settings domain.CompanySettings
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert saves the owner's settings, creating the record on first write
func (r *SettingsRepository) Upsert(ctx context.Context, settings *domain.CompanySettings) error {
	var existing domain.CompanySettings
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", settings.OwnerID).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(settings).Error
	}
	if err != nil {
		return err
	}
	settings.ID = existing.ID
	settings.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(settings).Error
}
