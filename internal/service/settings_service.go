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

type SettingsService struct {
	settingsRepo *repository.SettingsRepository
	logger       *zap.Logger
}

func NewSettingsService(settingsRepo *repository.SettingsRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo, logger: logger}
}

// Get returns the owner's profile, falling back to defaults when no record
// has been saved yet
func (s *SettingsService) Get(ctx context.Context, ownerID uuid.UUID) (*domain.CompanySettingsDTO, error) {
	settings, err := s.settingsRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			dto := mapper.ToSettingsDTO(&domain.CompanySettings{
				DefaultVATRate: 22,
				CurrencyCode:   "EUR",
			})
			return &dto, nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	dto := mapper.ToSettingsDTO(settings)
	return &dto, nil
}

// Update saves the owner's profile, creating the record on first write
func (s *SettingsService) Update(ctx context.Context, ownerID uuid.UUID, req *domain.UpdateSettingsRequest) (*domain.CompanySettingsDTO, error) {
	settings, err := s.settingsRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to get settings: %w", err)
		}
		settings = &domain.CompanySettings{OwnerID: ownerID}
	}

	settings.Name = req.Name
	settings.VATNumber = req.VATNumber
	settings.TaxCode = req.TaxCode
	settings.Address = req.Address
	settings.Email = req.Email
	settings.Phone = req.Phone
	settings.DefaultVATRate = req.DefaultVATRate
	settings.DefaultFootnote = req.DefaultFootnote
	settings.DefaultLogo = req.DefaultLogo
	if req.CurrencyCode != "" {
		settings.CurrencyCode = req.CurrencyCode
	} else if settings.CurrencyCode == "" {
		settings.CurrencyCode = "EUR"
	}

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Info("settings updated", zap.String("owner_id", ownerID.String()))

	dto := mapper.ToSettingsDTO(settings)
	return &dto, nil
}
