package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/preventivo-app/preventivo/internal/config"
	"github.com/preventivo-app/preventivo/internal/database"
	"github.com/preventivo-app/preventivo/internal/domain"
	"github.com/preventivo-app/preventivo/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
	db, err := database.NewDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()

	user := &domain.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "not-a-real-hash",
	}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), user))
	return user
}

func testOfferDocument(title string) *domain.OfferDocument {
	doc := domain.NewOfferDocument(title, nil)
	doc.Rows = domain.RowList{
		domain.NewSectionRow("Lavori"),
		domain.NewItemRow("Manodopera", 8, 35),
	}
	return &doc
}
