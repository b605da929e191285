package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account that owns offers
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name         string    `gorm:"type:varchar(200);not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null;column:password_hash"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns the identifier when the database does not
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Offer is the stored quotation document. The row sequence and structured
// client details are kept as JSON columns so the document round-trips
// without a relational row table.
type Offer struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey"` // remote identifier
	OwnerID           uuid.UUID      `gorm:"type:uuid;not null;index;column:owner_id"`
	Owner             *User          `gorm:"foreignKey:OwnerID"`
	LocalID           string         `gorm:"type:varchar(100);index;column:local_id"` // client-generated, may be empty on legacy rows
	Title             string         `gorm:"type:varchar(200);not null"`
	IssueDate         string         `gorm:"type:varchar(50);column:issue_date"`
	ClientLabel       string         `gorm:"type:varchar(200);column:client_label"`
	ClientDetails     *ClientDetails `gorm:"type:jsonb;column:client_details"`
	Note              string         `gorm:"type:text"`
	Rows              RowList        `gorm:"type:jsonb;not null"`
	VATEnabled        bool           `gorm:"not null;default:false;column:vat_enabled"`
	VATRate           float64        `gorm:"type:decimal(5,2);not null;default:0;column:vat_rate"`
	Discount          float64        `gorm:"type:decimal(5,2);not null;default:0"`
	ShowClientDetails bool           `gorm:"not null;default:false;column:show_client_details"`
	Public            bool           `gorm:"not null;default:false;index"`
	Logo              string         `gorm:"type:text"`
	CreatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns the remote identifier when the database does not
func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// CompanySettings is the issuing party's profile, one record per owner
type CompanySettings struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:owner_id"`
	Owner           *User     `gorm:"foreignKey:OwnerID"`
	Name            string    `gorm:"type:varchar(200)"`
	VATNumber       string    `gorm:"type:varchar(50);column:vat_number"`
	TaxCode         string    `gorm:"type:varchar(50);column:tax_code"`
	Address         string    `gorm:"type:varchar(500)"`
	Email           string    `gorm:"type:varchar(255)"`
	Phone           string    `gorm:"type:varchar(50)"`
	DefaultVATRate  float64   `gorm:"type:decimal(5,2);not null;default:22;column:default_vat_rate"`
	CurrencyCode    string    `gorm:"type:varchar(3);not null;default:'EUR';column:currency_code"`
	DefaultFootnote string    `gorm:"type:text;column:default_footnote"`
	DefaultLogo     string    `gorm:"type:text;column:default_logo"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns the identifier when the database does not
func (s *CompanySettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
