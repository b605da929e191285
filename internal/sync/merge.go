package sync

import "github.com/preventivo-app/preventivo/internal/domain"

// lookupKeys returns the offer's identifiers in matching priority order:
// the client-generated local identifier first, then the server-assigned
// identifier, then the display identifier. The order is a documented
// contract; merge correctness depends on it.
func lookupKeys(doc *domain.OfferDocument) []string {
	keys := make([]string, 0, 3)
	if doc.LocalID != "" {
		keys = append(keys, doc.LocalID)
	}
	if doc.ServerID != "" {
		keys = append(keys, doc.ServerID)
	}
	if doc.ID != "" {
		keys = append(keys, doc.ID)
	}
	return keys
}

// Reconcile merges a remote offer collection with the locally cached one
// into a single authoritative collection.
//
// Every local offer is indexed under each of its identifiers; a later local
// offer with a colliding key overwrites an earlier one, so the
// most-recently-cached copy wins ties. Each remote offer then probes the
// index with its own identifiers in priority order; the first hit is its
// local counterpart. Remote order is preserved, and local offers with no
// remote counterpart (not yet created server-side) are appended at the end
// so they are not lost.
//
// Field reconciliation is a one-way backfill: the remote value wins except
// where it is empty and the local counterpart holds a value. Local data
// never overwrites a present remote value.
func Reconcile(remoteOffers, localOffers []domain.OfferDocument) []domain.OfferDocument {
	localOffers = dedupeLocal(localOffers)

	lookup := make(map[string]int, len(localOffers))
	for i := range localOffers {
		for _, key := range lookupKeys(&localOffers[i]) {
			lookup[key] = i
		}
	}

	matched := make(map[int]bool, len(localOffers))
	merged := make([]domain.OfferDocument, 0, len(remoteOffers))

	for i := range remoteOffers {
		r := remoteOffers[i]
		idx, ok := findCounterpart(lookup, &r)
		if !ok {
			merged = append(merged, r)
			continue
		}
		matched[idx] = true
		merged = append(merged, backfill(r, &localOffers[idx]))
	}

	for i := range localOffers {
		if !matched[i] {
			merged = append(merged, localOffers[i])
		}
	}

	return merged
}

// dedupeLocal collapses local offers sharing any identifier onto the
// most-recently-cached copy, so a stale duplicate can neither win a match
// nor reappear as a separate entry
func dedupeLocal(offers []domain.OfferDocument) []domain.OfferDocument {
	seen := make(map[string]int, len(offers))
	out := make([]domain.OfferDocument, 0, len(offers))
	for i := range offers {
		replaced := -1
		for _, key := range lookupKeys(&offers[i]) {
			if idx, ok := seen[key]; ok {
				replaced = idx
				break
			}
		}
		if replaced >= 0 {
			out[replaced] = offers[i]
		} else {
			replaced = len(out)
			out = append(out, offers[i])
		}
		for _, key := range lookupKeys(&offers[i]) {
			seen[key] = replaced
		}
	}
	return out
}

// findCounterpart probes the local index with the remote offer's
// identifiers in priority order and returns the first hit
func findCounterpart(lookup map[string]int, r *domain.OfferDocument) (int, bool) {
	for _, key := range lookupKeys(r) {
		if idx, ok := lookup[key]; ok {
			return idx, true
		}
	}
	return 0, false
}

// backfill copies locally-known values into the remote record for fields
// the server did not persist. Earlier backend versions dropped the
// structured client details and the logo; the local identifier may also be
// absent on legacy remote rows.
func backfill(r domain.OfferDocument, local *domain.OfferDocument) domain.OfferDocument {
	if r.LocalID == "" {
		r.LocalID = local.LocalID
	}
	if r.ClientDetails.IsEmpty() && !local.ClientDetails.IsEmpty() {
		r.ClientDetails = local.ClientDetails
	}
	if r.Logo == "" {
		r.Logo = local.Logo
	}
	if r.IssueDate == "" {
		r.IssueDate = local.IssueDate
	}
	if r.ClientLabel == "" {
		r.ClientLabel = local.ClientLabel
	}
	if r.Note == "" {
		r.Note = local.Note
	}
	return r
}
