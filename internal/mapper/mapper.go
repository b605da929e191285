package mapper

import (
	"time"

	"github.com/preventivo-app/preventivo/internal/domain"
)

// ToOfferDocument converts a stored offer to its wire representation.
// The display id mirrors the server identifier once one exists.
func ToOfferDocument(offer *domain.Offer) domain.OfferDocument {
	doc := domain.OfferDocument{
		ServerID:          offer.ID.String(),
		ID:                offer.ID.String(),
		LocalID:           offer.LocalID,
		OwnerID:           offer.OwnerID.String(),
		Title:             offer.Title,
		IssueDate:         offer.IssueDate,
		ClientLabel:       offer.ClientLabel,
		ClientDetails:     offer.ClientDetails,
		Note:              offer.Note,
		Rows:              offer.Rows,
		VATEnabled:        offer.VATEnabled,
		VATRate:           offer.VATRate,
		Discount:          offer.Discount,
		ShowClientDetails: offer.ShowClientDetails,
		Public:            offer.Public,
		Logo:              offer.Logo,
		CreatedAt:         offer.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         offer.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if offer.Rows == nil {
		doc.Rows = domain.RowList{}
	}
	if offer.Owner != nil {
		doc.OwnerName = offer.Owner.Name
	}
	return doc
}

// ToOfferDocuments converts a stored offer collection preserving order
func ToOfferDocuments(offers []domain.Offer) []domain.OfferDocument {
	docs := make([]domain.OfferDocument, len(offers))
	for i := range offers {
		docs[i] = ToOfferDocument(&offers[i])
	}
	return docs
}

// ApplyDocument copies the client-controlled fields of a document onto a
// stored offer. Identity and ownership columns are never touched here.
func ApplyDocument(offer *domain.Offer, doc *domain.OfferDocument) {
	offer.Title = doc.Title
	offer.IssueDate = doc.IssueDate
	offer.ClientLabel = doc.ClientLabel
	offer.ClientDetails = doc.ClientDetails
	offer.Note = doc.Note
	offer.Rows = doc.Rows
	offer.VATEnabled = doc.VATEnabled
	offer.VATRate = doc.VATRate
	offer.Discount = doc.Discount
	offer.ShowClientDetails = doc.ShowClientDetails
	offer.Public = doc.Public
	offer.Logo = doc.Logo
	if doc.LocalID != "" {
		offer.LocalID = doc.LocalID
	}
	if offer.Rows == nil {
		offer.Rows = domain.RowList{}
	}
}

// ToSettingsDTO converts stored company settings to their wire representation
func ToSettingsDTO(settings *domain.CompanySettings) domain.CompanySettingsDTO {
	return domain.CompanySettingsDTO{
		Name:            settings.Name,
		VATNumber:       settings.VATNumber,
		TaxCode:         settings.TaxCode,
		Address:         settings.Address,
		Email:           settings.Email,
		Phone:           settings.Phone,
		DefaultVATRate:  settings.DefaultVATRate,
		CurrencyCode:    settings.CurrencyCode,
		DefaultFootnote: settings.DefaultFootnote,
		DefaultLogo:     settings.DefaultLogo,
	}
}

// ToUserInfo converts a user account to its public identity
func ToUserInfo(user *domain.User) domain.UserInfo {
	return domain.UserInfo{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
	}
}
