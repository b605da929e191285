package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/preventivo-app/preventivo/internal/domain"
)

var (
	// ErrUnauthorized signals a missing, expired, or rejected credential
	ErrUnauthorized = errors.New("remote: unauthorized")
	// ErrNotFound signals the document does not exist server-side
	ErrNotFound = errors.New("remote: not found")
	// ErrUnavailable wraps transport failures; the backend was not reached
	// or did not answer sensibly
	ErrUnavailable = errors.New("remote: backend unavailable")
)

// TokenSource supplies the current bearer credential; an empty string means
// no session is active
type TokenSource func() string

// Client issues CRUD calls against the offers backend. Calls are not
// retried; a failure is terminal for that call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokenFn    TokenSource
}

// NewClient creates a client for the given API base URL
func NewClient(baseURL string, timeout time.Duration, tokenFn TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokenFn:    tokenFn,
	}
}

// SetBaseURL switches the client to a different API endpoint
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// List returns the offers owned by the current identity, most-recent-first
func (c *Client) List(ctx context.Context) ([]domain.OfferDocument, error) {
	var docs []domain.OfferDocument
	if err := c.do(ctx, http.MethodGet, "/api/v1/offers", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListPublic returns offers flagged public across all owners
func (c *Client) ListPublic(ctx context.Context) ([]domain.OfferDocument, error) {
	var docs []domain.OfferDocument
	if err := c.do(ctx, http.MethodGet, "/api/v1/offers/public/all", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Get fetches a single offer by its remote identifier
func (c *Client) Get(ctx context.Context, id string) (*domain.OfferDocument, error) {
	var doc domain.OfferDocument
	if err := c.do(ctx, http.MethodGet, "/api/v1/offers/"+id, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Create stores a new offer; the returned document carries the
// server-assigned identifier
func (c *Client) Create(ctx context.Context, doc *domain.OfferDocument) (*domain.OfferDocument, error) {
	var created domain.OfferDocument
	if err := c.do(ctx, http.MethodPost, "/api/v1/offers", doc, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces the offer stored under the given remote identifier
func (c *Client) Update(ctx context.Context, id string, doc *domain.OfferDocument) (*domain.OfferDocument, error) {
	var updated domain.OfferDocument
	if err := c.do(ctx, http.MethodPut, "/api/v1/offers/"+id, doc, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the offer stored under the given remote identifier
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/offers/"+id, nil, nil)
}

// Register creates an account and returns the issued credential and identity
func (c *Client) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a bearer credential and identity
func (c *Client) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me resolves the identity behind the current credential
func (c *Client) Me(ctx context.Context) (*domain.UserInfo, error) {
	var info domain.UserInfo
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetSettings fetches the issuing party's profile
func (c *Client) GetSettings(ctx context.Context) (*domain.CompanySettingsDTO, error) {
	var dto domain.CompanySettingsDTO
	if err := c.do(ctx, http.MethodGet, "/api/v1/settings", nil, &dto); err != nil {
		return nil, err
	}
	return &dto, nil
}

// UpdateSettings saves the issuing party's profile
func (c *Client) UpdateSettings(ctx context.Context, req *domain.UpdateSettingsRequest) (*domain.CompanySettingsDTO, error) {
	var dto domain.CompanySettingsDTO
	if err := c.do(ctx, http.MethodPut, "/api/v1/settings", req, &dto); err != nil {
		return nil, err
	}
	return &dto, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, target interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokenFn(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		var apiErr domain.APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Status != 0 {
			return &apiErr
		}
		return fmt.Errorf("remote: unexpected status %d", resp.StatusCode)
	}

	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
