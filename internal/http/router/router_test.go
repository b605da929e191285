package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/preventivo-app/preventivo/internal/auth"
	"github.com/preventivo-app/preventivo/internal/config"
	"github.com/preventivo-app/preventivo/internal/database"
	"github.com/preventivo-app/preventivo/internal/domain"
	"github.com/preventivo-app/preventivo/internal/http/handler"
	"github.com/preventivo-app/preventivo/internal/http/middleware"
	"github.com/preventivo-app/preventivo/internal/http/router"
	"github.com/preventivo-app/preventivo/internal/repository"
	"github.com/preventivo-app/preventivo/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func setupAPI(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{Name: "test", Environment: "development"},
		Auth: config.AuthConfig{
			JWTSecret:  "api-test-secret",
			TokenTTL:   3600,
			BcryptCost: bcrypt.MinCost,
		},
		CORS:      config.CORSConfig{},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	db, err := database.NewDatabase(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "api.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	log := zap.NewNop()

	userRepo := repository.NewUserRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	issuer := auth.NewTokenIssuer(&cfg.Auth)
	authService := service.NewAuthService(userRepo, issuer, cfg.Auth.BcryptCost, log)
	offerService := service.NewOfferService(offerRepo, log)
	settingsService := service.NewSettingsService(settingsRepo, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		auth.NewMiddleware(issuer, userRepo, log),
		middleware.NewRateLimiter(&cfg.RateLimit, log),
		handler.NewAuthHandler(authService, log),
		handler.NewOfferHandler(offerService, log),
		handler.NewSettingsHandler(settingsService, log),
	)

	srv := httptest.NewServer(rt.Setup())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body, target interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
	return resp
}

func registerUser(t *testing.T, srv *httptest.Server, email string) domain.AuthResponse {
	t.Helper()

	var resp domain.AuthResponse
	r := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/register", "", domain.RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: "password123",
	}, &resp)
	require.Equal(t, http.StatusCreated, r.StatusCode)
	return resp
}

func apiOffer(title string) domain.OfferDocument {
	doc := domain.NewOfferDocument(title, nil)
	doc.Rows = domain.RowList{domain.NewItemRow("Posa piastrelle", 20, 18)}
	return doc
}

func TestHealthEndpoints(t *testing.T) {
	srv := setupAPI(t)

	for _, path := range []string{"/health", "/health/db", "/health/ready"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestAuthFlow(t *testing.T) {
	srv := setupAPI(t)

	auth := registerUser(t, srv, "flow@example.com")
	require.NotEmpty(t, auth.Token)

	var me domain.UserInfo
	r := doJSON(t, http.MethodGet, srv.URL+"/api/v1/auth/me", auth.Token, nil, &me)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "flow@example.com", me.Email)

	// Wrong password
	r = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", domain.LoginRequest{
		Email: "flow@example.com", Password: "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, r.StatusCode)

	// Duplicate registration
	r = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/register", "", domain.RegisterRequest{
		Name: "Test User", Email: "flow@example.com", Password: "password123",
	}, nil)
	assert.Equal(t, http.StatusConflict, r.StatusCode)
}

func TestOfferCRUDFlow(t *testing.T) {
	srv := setupAPI(t)
	auth := registerUser(t, srv, "crud@example.com")

	var created domain.OfferDocument
	r := doJSON(t, http.MethodPost, srv.URL+"/api/v1/offers", auth.Token, apiOffer("Bagno"), &created)
	require.Equal(t, http.StatusCreated, r.StatusCode)
	require.NotEmpty(t, created.ServerID)

	var got domain.OfferDocument
	r = doJSON(t, http.MethodGet, srv.URL+"/api/v1/offers/"+created.ID, auth.Token, nil, &got)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "Bagno", got.Title)

	got.Note = "aggiornata"
	var updated domain.OfferDocument
	r = doJSON(t, http.MethodPut, srv.URL+"/api/v1/offers/"+created.ID, auth.Token, got, &updated)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "aggiornata", updated.Note)

	var list []domain.OfferDocument
	r = doJSON(t, http.MethodGet, srv.URL+"/api/v1/offers", auth.Token, nil, &list)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	require.Len(t, list, 1)

	r = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/offers/"+created.ID, auth.Token, nil, nil)
	assert.Equal(t, http.StatusNoContent, r.StatusCode)

	// Idempotent from the caller's perspective: already gone means 404
	r = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/offers/"+created.ID, auth.Token, nil, nil)
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestOfferOwnershipIsolation(t *testing.T) {
	srv := setupAPI(t)
	owner := registerUser(t, srv, "owner@example.com")
	intruder := registerUser(t, srv, "intruder@example.com")

	var created domain.OfferDocument
	r := doJSON(t, http.MethodPost, srv.URL+"/api/v1/offers", owner.Token, apiOffer("Privato"), &created)
	require.Equal(t, http.StatusCreated, r.StatusCode)

	r = doJSON(t, http.MethodGet, srv.URL+"/api/v1/offers/"+created.ID, intruder.Token, nil, nil)
	assert.Equal(t, http.StatusNotFound, r.StatusCode)

	r = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/offers/"+created.ID, intruder.Token, nil, nil)
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestPublicOffersVisibleWithoutAuth(t *testing.T) {
	srv := setupAPI(t)
	owner := registerUser(t, srv, "public@example.com")

	doc := apiOffer("Condiviso")
	doc.Public = true
	r := doJSON(t, http.MethodPost, srv.URL+"/api/v1/offers", owner.Token, doc, nil)
	require.Equal(t, http.StatusCreated, r.StatusCode)

	var list []domain.OfferDocument
	r = doJSON(t, http.MethodGet, srv.URL+"/api/v1/offers/public/all", "", nil, &list)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	require.Len(t, list, 1)
	assert.Equal(t, "Condiviso", list[0].Title)
}

func TestProtectedRoutesRejectBadCredentials(t *testing.T) {
	srv := setupAPI(t)

	cases := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/offers", nil)
			require.NoError(t, err)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestOfferValidationRejectedBeforeStorage(t *testing.T) {
	srv := setupAPI(t)
	auth := registerUser(t, srv, "valid@example.com")

	// No rows
	doc := domain.NewOfferDocument("Vuoto", nil)
	r := doJSON(t, http.MethodPost, srv.URL+"/api/v1/offers", auth.Token, doc, nil)
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)

	// Negative quantity
	bad := apiOffer("Negativo")
	bad.Rows = domain.RowList{domain.ItemRow{ID: "r1", Title: "x", Quantity: -1, Price: 5}}
	r = doJSON(t, http.MethodPost, srv.URL+"/api/v1/offers", auth.Token, bad, nil)
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestSettingsFlow(t *testing.T) {
	srv := setupAPI(t)
	auth := registerUser(t, srv, "impresa@example.com")

	var defaults domain.CompanySettingsDTO
	r := doJSON(t, http.MethodGet, srv.URL+"/api/v1/settings", auth.Token, nil, &defaults)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, 22.0, defaults.DefaultVATRate)

	var saved domain.CompanySettingsDTO
	r = doJSON(t, http.MethodPut, srv.URL+"/api/v1/settings", auth.Token, domain.UpdateSettingsRequest{
		Name:           "Impresa Edile Rossi",
		VATNumber:      "IT01234567890",
		DefaultVATRate: 10,
		CurrencyCode:   "EUR",
	}, &saved)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "Impresa Edile Rossi", saved.Name)
	assert.Equal(t, 10.0, saved.DefaultVATRate)
}
