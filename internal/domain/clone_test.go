package domain_test

import (
	"testing"

	"github.com/preventivo-app/preventivo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOffer() domain.OfferDocument {
	doc := domain.NewOfferDocument("Ristrutturazione bagno", nil)
	doc.ServerID = "64a0c2f1e4b0aa0012345678"
	doc.OwnerID = "owner-1"
	doc.Public = true
	doc.VATEnabled = true
	doc.VATRate = 22
	doc.Discount = 5
	doc.Rows = domain.RowList{
		domain.NewSectionRow("Demolizione"),
		domain.NewItemRow("Rimozione piastrelle", 12, 15),
	}
	doc.ClientDetails = &domain.ClientDetails{
		LegalName: "Mario Rossi",
		VATNumber: "IT01234567890",
	}
	return doc
}

func TestCloneOfferIdentityRules(t *testing.T) {
	source := sampleOffer()

	clone := domain.CloneOffer(source, "owner-1")

	assert.NotEqual(t, source.LocalID, clone.LocalID)
	assert.Equal(t, clone.LocalID, clone.ID)
	assert.Empty(t, clone.ServerID)
	assert.False(t, clone.Public)
	assert.Equal(t, "Ristrutturazione bagno (copy)", clone.Title)
}

func TestCloneOfferSharedSuffix(t *testing.T) {
	source := sampleOffer()

	clone := domain.CloneOffer(source, "someone-else")
	assert.Equal(t, "Ristrutturazione bagno (shared copy)", clone.Title)
}

func TestCloneOfferDeepCopiesRowsAndDetails(t *testing.T) {
	source := sampleOffer()

	clone := domain.CloneOffer(source, "owner-1")

	assert.Equal(t, source.Rows, clone.Rows)
	assert.Equal(t, source.VATEnabled, clone.VATEnabled)
	assert.Equal(t, source.VATRate, clone.VATRate)
	assert.Equal(t, source.Discount, clone.Discount)

	require.NotNil(t, clone.ClientDetails)
	assert.Equal(t, *source.ClientDetails, *clone.ClientDetails)
	assert.NotSame(t, source.ClientDetails, clone.ClientDetails)

	// Mutating the clone's details leaves the source untouched
	clone.ClientDetails.LegalName = "changed"
	assert.Equal(t, "Mario Rossi", source.ClientDetails.LegalName)
}

func TestValidateForSave(t *testing.T) {
	doc := domain.NewOfferDocument("", nil)
	err := doc.ValidateForSave()
	require.Error(t, err)
	var fe *domain.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "title", fe.Field)

	doc.Title = "Preventivo"
	err = doc.ValidateForSave()
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "rows", fe.Field)

	doc.Rows = domain.RowList{domain.ItemRow{ID: "r1", Title: "x", Quantity: -1, Price: 5}}
	err = doc.ValidateForSave()
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "rows[0].quantity", fe.Field)

	doc.Rows = domain.RowList{domain.NewItemRow("x", 1, 5)}
	assert.NoError(t, doc.ValidateForSave())
}
