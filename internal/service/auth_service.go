package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/preventivo-app/preventivo/internal/auth"
	"github.com/preventivo-app/preventivo/internal/domain"
	"github.com/preventivo-app/preventivo/internal/mapper"
	"github.com/preventivo-app/preventivo/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthService struct {
	userRepo   *repository.UserRepository
	issuer     *auth.TokenIssuer
	bcryptCost int
	logger     *zap.Logger
}

func NewAuthService(userRepo *repository.UserRepository, issuer *auth.TokenIssuer, bcryptCost int, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		issuer:     issuer,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates an account and issues a bearer credential
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         req.Name,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))

	return s.issueFor(user)
}

// Login verifies credentials and issues a bearer credential
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWrongCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, ErrWrongCredentials
	}

	return s.issueFor(user)
}

// Me resolves the current identity from an authenticated context
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	info := mapper.ToUserInfo(user)
	return &info, nil
}

func (s *AuthService) issueFor(user *domain.User) (*domain.AuthResponse, error) {
	token, err := s.issuer.Issue(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &domain.AuthResponse{
		Token: token,
		User:  mapper.ToUserInfo(user),
	}, nil
}
