package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ClientDetails holds the structured recipient block used for
// invoice-style document headers
type ClientDetails struct {
	LegalName string `json:"legalName,omitempty"`
	Company   string `json:"company,omitempty"`
	VATNumber string `json:"vatNumber,omitempty"`
	TaxCode   string `json:"taxCode,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Value serializes the details for the document column
func (c *ClientDetails) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan deserializes the details from the document column
func (c *ClientDetails) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("cannot scan %T into ClientDetails", value)
	}
}

// IsEmpty reports whether every field is blank
func (c *ClientDetails) IsEmpty() bool {
	if c == nil {
		return true
	}
	return c.LegalName == "" && c.Company == "" && c.VATNumber == "" &&
		c.TaxCode == "" && c.Address == ""
}

// OfferDocument is the wire and cache representation of an offer, shared by
// the API responses, the remote client, the local cache, and the
// reconciliation engine.
//
// An offer carries up to three identifiers: the client-generated localId
// (never changed after creation), the display id used for list keys and
// routing (initialized from the localId), and the server-assigned _id,
// absent until the first successful create.
type OfferDocument struct {
	ServerID          string         `json:"_id,omitempty"`
	ID                string         `json:"id,omitempty"`
	LocalID           string         `json:"localId,omitempty"`
	OwnerID           string         `json:"ownerId,omitempty"`
	OwnerName         string         `json:"ownerName,omitempty"`
	Title             string         `json:"title"`
	IssueDate         string         `json:"issueDate,omitempty"`
	ClientLabel       string         `json:"client,omitempty"`
	ClientDetails     *ClientDetails `json:"clientDetails,omitempty"`
	Note              string         `json:"note,omitempty"`
	Rows              RowList        `json:"rows"`
	VATEnabled        bool           `json:"vatEnabled"`
	VATRate           float64        `json:"vatRate"`
	Discount          float64        `json:"discount"`
	ShowClientDetails bool           `json:"showClientDetails"`
	Public            bool           `json:"public"`
	Logo              string         `json:"logo,omitempty"`
	CreatedAt         string         `json:"createdAt,omitempty"`
	UpdatedAt         string         `json:"updatedAt,omitempty"`
}

// NewOfferDocument creates an unsaved offer with a fresh local identifier.
// The display id starts out equal to the local identifier; the server
// identifier stays empty until the first successful create. Settings, when
// present, seed the VAT rate and the logo override.
func NewOfferDocument(title string, settings *CompanySettingsDTO) OfferDocument {
	localID := uuid.New().String()
	doc := OfferDocument{
		ID:      localID,
		LocalID: localID,
		Title:   title,
		Rows:    RowList{},
	}
	if settings != nil {
		doc.VATRate = settings.DefaultVATRate
		doc.Logo = settings.DefaultLogo
	}
	return doc
}

// MatchesKey reports whether any of the document's identifiers equals key
func (d *OfferDocument) MatchesKey(key string) bool {
	if key == "" {
		return false
	}
	return d.ID == key || d.ServerID == key || d.LocalID == key
}

// CompanySettingsDTO is the wire form of the issuing party's profile
type CompanySettingsDTO struct {
	Name            string  `json:"name,omitempty"`
	VATNumber       string  `json:"vatNumber,omitempty"`
	TaxCode         string  `json:"taxCode,omitempty"`
	Address         string  `json:"address,omitempty"`
	Email           string  `json:"email,omitempty"`
	Phone           string  `json:"phone,omitempty"`
	DefaultVATRate  float64 `json:"defaultVatRate"`
	CurrencyCode    string  `json:"currencyCode,omitempty"`
	DefaultFootnote string  `json:"defaultFootnote,omitempty"`
	DefaultLogo     string  `json:"defaultLogo,omitempty"`
}

// UpdateSettingsRequest is the body for PUT /settings
type UpdateSettingsRequest struct {
	Name            string  `json:"name" validate:"max=200"`
	VATNumber       string  `json:"vatNumber" validate:"max=50"`
	TaxCode         string  `json:"taxCode" validate:"max=50"`
	Address         string  `json:"address" validate:"max=500"`
	Email           string  `json:"email" validate:"omitempty,email"`
	Phone           string  `json:"phone" validate:"max=50"`
	DefaultVATRate  float64 `json:"defaultVatRate" validate:"gte=0,lte=100"`
	CurrencyCode    string  `json:"currencyCode" validate:"omitempty,len=3"`
	DefaultFootnote string  `json:"defaultFootnote"`
	DefaultLogo     string  `json:"defaultLogo"`
}

// RegisterRequest is the body for POST /auth/register
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest is the body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserInfo is the public identity returned by the auth endpoints
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse carries the bearer credential and the resolved identity
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}
