package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/preventivo-app/preventivo/internal/domain"
	"gorm.io/gorm"
)

type OfferRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

// GetByID retrieves an offer scoped to its owner
func (r *OfferRepository) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.Offer, error) {
	var offer domain.Offer
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *OfferRepository) Update(ctx context.Context, offer *domain.Offer) error {
	return r.db.WithContext(ctx).Save(offer).Error
}

// Delete removes an offer scoped to its owner; callers treat a missing row
// as already deleted
func (r *OfferRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&domain.Offer{})
	return result.RowsAffected, result.Error
}

// ListByOwner returns the owner's offers most-recent-first
func (r *OfferRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Offer, error) {
	var offers []domain.Offer
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&offers).Error
	return offers, err
}

// ListPublic returns all public-flagged offers across owners, most-recent-first
func (r *OfferRepository) ListPublic(ctx context.Context) ([]domain.Offer, error) {
	var offers []domain.Offer
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("public = ?", true).
		Order("created_at DESC").
		Find(&offers).Error
	return offers, err
}
