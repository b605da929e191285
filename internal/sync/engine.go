package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/preventivo-app/preventivo/internal/domain"
	"github.com/preventivo-app/preventivo/internal/localstore"
	"github.com/preventivo-app/preventivo/internal/remote"
	"github.com/preventivo-app/preventivo/internal/session"
	"go.uber.org/zap"
)

var (
	// ErrRemoteUnavailable signals the backend could not be reached; the
	// caller received local data and may continue offline
	ErrRemoteUnavailable = errors.New("sync: remote unavailable, using local data")
	// ErrSaveInFlight rejects a save while another one is pending
	ErrSaveInFlight = errors.New("sync: a save is already in flight")
)

// Engine owns the authoritative in-memory offer collection. It merges the
// remote and local collections on load, writes through to the local cache
// on every mutation, and talks to the backend only while a session is
// active. Collection mutations are serialized by a single mutex.
type Engine struct {
	mu         sync.Mutex
	collection []domain.OfferDocument

	saving atomic.Bool

	store   *localstore.Store
	client  *remote.Client
	session *session.Session
	logger  *zap.Logger
}

// NewEngine creates an engine over the given cache, remote client, and session
func NewEngine(store *localstore.Store, client *remote.Client, sess *session.Session, logger *zap.Logger) *Engine {
	return &Engine{
		store:   store,
		client:  client,
		session: sess,
		logger:  logger,
	}
}

// Collection returns a copy of the current in-memory collection
func (e *Engine) Collection() []domain.OfferDocument {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.OfferDocument, len(e.collection))
	copy(out, e.collection)
	return out
}

// Load produces the authoritative collection: it lists the remote offers,
// merges them with the local cache, and persists the merged result back to
// the cache so backfilled fields survive the next load.
//
// When the remote list fails the engine falls back to the local collection
// unmodified and reports ErrRemoteUnavailable; local data is never thrown
// away. An unauthorized answer additionally clears the session.
func (e *Engine) Load(ctx context.Context) ([]domain.OfferDocument, error) {
	local := e.loadLocal()

	if !e.session.Active() {
		e.setCollection(local)
		return e.Collection(), nil
	}

	remoteOffers, err := e.client.List(ctx)
	if err != nil {
		if errors.Is(err, remote.ErrUnauthorized) {
			e.logger.Warn("remote list rejected credential, clearing session")
			e.session.Clear()
		} else {
			e.logger.Warn("remote list failed, falling back to local data", zap.Error(err))
		}
		e.setCollection(local)
		return e.Collection(), fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	merged := Reconcile(remoteOffers, local)
	e.setCollection(merged)
	e.persistLocal(merged)
	return e.Collection(), nil
}

// Save validates the offer, persists it locally, and pushes it to the
// backend when a session is active. The editID identifies the editing
// session: when the offer carries no server identifier but an edit is in
// progress, the engine first looks for a remote counterpart among the
// already-loaded collection before falling back to a create.
//
// Only one save may be in flight at a time; a concurrent save is rejected
// with ErrSaveInFlight rather than queued, so a slow create cannot race a
// duplicate.
func (e *Engine) Save(ctx context.Context, doc domain.OfferDocument, editID string) (*domain.OfferDocument, error) {
	if err := doc.ValidateForSave(); err != nil {
		return nil, err
	}

	if !e.saving.CompareAndSwap(false, true) {
		return nil, ErrSaveInFlight
	}
	defer e.saving.Store(false)

	// Resolve the remote counterpart before the local write replaces it
	serverID := doc.ServerID
	if serverID == "" && editID != "" {
		serverID = e.findServerID(editID)
	}

	// Local first: the cache is the source of truth for visibility
	e.upsert(doc)

	if !e.session.Active() {
		return &doc, nil
	}

	var (
		saved *domain.OfferDocument
		err   error
	)
	if serverID != "" {
		saved, err = e.client.Update(ctx, serverID, &doc)
		if errors.Is(err, remote.ErrNotFound) {
			// Vanished server-side: keep it local-only, the next save
			// takes the create path
			e.logger.Warn("offer vanished server-side, keeping local copy",
				zap.String("server_id", serverID))
			doc.ServerID = ""
			e.upsert(doc)
			return &doc, nil
		}
	} else {
		saved, err = e.client.Create(ctx, &doc)
	}

	if err != nil {
		if errors.Is(err, remote.ErrUnauthorized) {
			e.session.Clear()
		}
		// Create/update failure leaves the offer local-only; retry happens
		// on the next explicit save
		e.logger.Warn("remote save failed, offer kept local-only", zap.Error(err))
		return &doc, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	merged := backfill(*saved, &doc)
	e.upsert(merged)
	return &merged, nil
}

// Delete removes the offer from the in-memory collection and the local
// cache unconditionally, then issues a remote delete only when a server
// identifier is known and a session is active. A remote failure is
// reported but never blocks the local removal; a remote 404 means the
// offer is already gone and counts as success.
func (e *Engine) Delete(ctx context.Context, id string) error {
	serverID := e.findServerID(id)
	e.remove(id)

	if serverID == "" || !e.session.Active() {
		return nil
	}

	if err := e.client.Delete(ctx, serverID); err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return nil
		}
		if errors.Is(err, remote.ErrUnauthorized) {
			e.session.Clear()
		}
		e.logger.Warn("remote delete failed, offer removed locally",
			zap.String("server_id", serverID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

// Find returns the collection entry matching any of the offer's identifiers
func (e *Engine) Find(key string) (*domain.OfferDocument, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.collection {
		if e.collection[i].MatchesKey(key) {
			doc := e.collection[i]
			return &doc, true
		}
	}
	return nil, false
}

// findServerID resolves the server identifier for the collection entry
// matching key, or "" when unknown
func (e *Engine) findServerID(key string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.collection {
		if e.collection[i].MatchesKey(key) {
			return e.collection[i].ServerID
		}
	}
	return ""
}

// upsert replaces the collection entry matching any of the offer's
// identifiers, or prepends the offer when no entry matches, then writes
// the collection through to the local cache
func (e *Engine) upsert(doc domain.OfferDocument) {
	e.mu.Lock()
	replaced := false
	for i := range e.collection {
		if matchesAnyKey(&e.collection[i], &doc) {
			e.collection[i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		e.collection = append([]domain.OfferDocument{doc}, e.collection...)
	}
	snapshot := make([]domain.OfferDocument, len(e.collection))
	copy(snapshot, e.collection)
	e.mu.Unlock()

	e.persistLocal(snapshot)
}

// remove drops the collection entry matching key and writes through
func (e *Engine) remove(key string) {
	e.mu.Lock()
	kept := e.collection[:0]
	for i := range e.collection {
		if !e.collection[i].MatchesKey(key) {
			kept = append(kept, e.collection[i])
		}
	}
	e.collection = kept
	snapshot := make([]domain.OfferDocument, len(e.collection))
	copy(snapshot, e.collection)
	e.mu.Unlock()

	e.persistLocal(snapshot)
}

func (e *Engine) setCollection(docs []domain.OfferDocument) {
	e.mu.Lock()
	e.collection = docs
	e.mu.Unlock()
}

func (e *Engine) loadLocal() []domain.OfferDocument {
	var docs []domain.OfferDocument
	if err := e.store.Get(localstore.KeyOffers, &docs); err != nil {
		if !errors.Is(err, localstore.ErrKeyNotFound) {
			e.logger.Warn("failed to read local offer cache", zap.Error(err))
		}
		return nil
	}
	return docs
}

func (e *Engine) persistLocal(docs []domain.OfferDocument) {
	if err := e.store.Put(localstore.KeyOffers, docs); err != nil {
		e.logger.Error("failed to write local offer cache", zap.Error(err))
	}
}

// matchesAnyKey reports whether a and b share any identifier
func matchesAnyKey(a, b *domain.OfferDocument) bool {
	for _, key := range lookupKeys(b) {
		if a.MatchesKey(key) {
			return true
		}
	}
	return false
}
