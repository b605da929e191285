package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/preventivo-app/preventivo/internal/domain"
	"github.com/preventivo-app/preventivo/internal/mapper"
	"github.com/preventivo-app/preventivo/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OfferService struct {
	offerRepo *repository.OfferRepository
	logger    *zap.Logger
}

func NewOfferService(offerRepo *repository.OfferRepository, logger *zap.Logger) *OfferService {
	return &OfferService{
		offerRepo: offerRepo,
		logger:    logger,
	}
}

// Create stores a new offer document for the owner and assigns the remote
// identifier
func (s *OfferService) Create(ctx context.Context, ownerID uuid.UUID, doc *domain.OfferDocument) (*domain.OfferDocument, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	offer := &domain.Offer{OwnerID: ownerID}
	mapper.ApplyDocument(offer, doc)

	if err := s.offerRepo.Create(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	s.logger.Info("offer created",
		zap.String("offer_id", offer.ID.String()),
		zap.String("owner_id", ownerID.String()),
	)

	created, err := s.offerRepo.GetByID(ctx, offer.ID, ownerID)
	if err != nil {
		s.logger.Warn("failed to reload offer after create", zap.Error(err))
		created = offer
	}

	result := mapper.ToOfferDocument(created)
	return &result, nil
}

// GetByID retrieves an offer owned by the caller
func (s *OfferService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.OfferDocument, error) {
	offer, err := s.offerRepo.GetByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	result := mapper.ToOfferDocument(offer)
	return &result, nil
}

// Update replaces an offer document. A previously stored logo or structured
// client-details block survives an update body that omits it, so a client
// that never knew those fields cannot erase them.
func (s *OfferService) Update(ctx context.Context, ownerID, id uuid.UUID, doc *domain.OfferDocument) (*domain.OfferDocument, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	offer, err := s.offerRepo.GetByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	priorLogo := offer.Logo
	priorDetails := offer.ClientDetails

	mapper.ApplyDocument(offer, doc)

	if offer.Logo == "" && priorLogo != "" {
		offer.Logo = priorLogo
	}
	if offer.ClientDetails.IsEmpty() && !priorDetails.IsEmpty() {
		offer.ClientDetails = priorDetails
	}

	if err := s.offerRepo.Update(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	result := mapper.ToOfferDocument(offer)
	return &result, nil
}

// Delete removes an offer by remote identifier. A missing offer is treated
// as already deleted and reported via ErrNotFound so the handler can answer
// 404; callers treat that as success.
func (s *OfferService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	affected, err := s.offerRepo.Delete(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.logger.Info("offer deleted",
		zap.String("offer_id", id.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return nil
}

// List returns the owner's offers most-recent-first
func (s *OfferService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.OfferDocument, error) {
	offers, err := s.offerRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return mapper.ToOfferDocuments(offers), nil
}

// ListPublic returns all public-flagged offers across owners
func (s *OfferService) ListPublic(ctx context.Context) ([]domain.OfferDocument, error) {
	offers, err := s.offerRepo.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list public offers: %w", err)
	}
	return mapper.ToOfferDocuments(offers), nil
}
