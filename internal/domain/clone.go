package domain

import "github.com/google/uuid"

// Title suffixes distinguishing a copy of the user's own offer from a copy
// of another owner's shared offer
const (
	copySuffix       = " (copy)"
	sharedCopySuffix = " (shared copy)"
)

// CloneOffer produces a new unsaved offer from source: fresh local and
// display identifiers, no server identifier (so the next save issues a
// create, never an update), public flag cleared, and all row data, client
// details, and pricing configuration deep-copied.
//
// currentUserID marks ownership: cloning an offer that originated from
// another owner gets the shared-copy suffix instead of the plain one.
func CloneOffer(source OfferDocument, currentUserID string) OfferDocument {
	localID := uuid.New().String()

	suffix := copySuffix
	if source.OwnerID != "" && currentUserID != "" && source.OwnerID != currentUserID {
		suffix = sharedCopySuffix
	}

	clone := OfferDocument{
		ID:                localID,
		LocalID:           localID,
		Title:             source.Title + suffix,
		IssueDate:         source.IssueDate,
		ClientLabel:       source.ClientLabel,
		Note:              source.Note,
		Rows:              source.Rows.Clone(),
		VATEnabled:        source.VATEnabled,
		VATRate:           source.VATRate,
		Discount:          source.Discount,
		ShowClientDetails: source.ShowClientDetails,
		Logo:              source.Logo,
	}

	if source.ClientDetails != nil {
		details := *source.ClientDetails
		clone.ClientDetails = &details
	}

	return clone
}
