package sync_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/preventivo-app/preventivo/internal/domain"
	"github.com/preventivo-app/preventivo/internal/localstore"
	"github.com/preventivo-app/preventivo/internal/remote"
	"github.com/preventivo-app/preventivo/internal/session"
	syncengine "github.com/preventivo-app/preventivo/internal/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBackend is a minimal offers API counting mutating calls
type fakeBackend struct {
	mux     *http.ServeMux
	creates atomic.Int64
	updates atomic.Int64
	deletes atomic.Int64
	lists   atomic.Int64

	listDocs   []domain.OfferDocument
	listStatus int

	createDelay chan struct{} // when set, create blocks until closed
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{mux: http.NewServeMux(), listStatus: http.StatusOK}

	b.mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.AuthResponse{
			Token: "test-token",
			User:  domain.UserInfo{ID: "user-1", Name: "Test", Email: "test@example.com"},
		})
	})
	b.mux.HandleFunc("GET /api/v1/offers", func(w http.ResponseWriter, r *http.Request) {
		b.lists.Add(1)
		if b.listStatus != http.StatusOK {
			w.WriteHeader(b.listStatus)
			return
		}
		writeJSON(w, http.StatusOK, b.listDocs)
	})
	b.mux.HandleFunc("POST /api/v1/offers", func(w http.ResponseWriter, r *http.Request) {
		b.creates.Add(1)
		if b.createDelay != nil {
			<-b.createDelay
		}
		var doc domain.OfferDocument
		_ = json.NewDecoder(r.Body).Decode(&doc)
		doc.ServerID = "srv-created"
		doc.ID = "srv-created"
		writeJSON(w, http.StatusCreated, doc)
	})
	b.mux.HandleFunc("PUT /api/v1/offers/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.updates.Add(1)
		var doc domain.OfferDocument
		_ = json.NewDecoder(r.Body).Decode(&doc)
		doc.ServerID = r.PathValue("id")
		doc.ID = r.PathValue("id")
		writeJSON(w, http.StatusOK, doc)
	})
	b.mux.HandleFunc("DELETE /api/v1/offers/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.deletes.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})

	return b
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func setupEngine(t *testing.T, backend *fakeBackend) (*syncengine.Engine, *session.Session, *localstore.Store) {
	t.Helper()

	srv := httptest.NewServer(backend.mux)
	t.Cleanup(srv.Close)

	store, err := localstore.NewStore(t.TempDir())
	require.NoError(t, err)

	var sess *session.Session
	client := remote.NewClient(srv.URL, 5*time.Second, func() string {
		return sess.Token()
	})
	sess = session.NewSession(store, client, zap.NewNop())

	engine := syncengine.NewEngine(store, client, sess, zap.NewNop())
	return engine, sess, store
}

func login(t *testing.T, sess *session.Session) {
	t.Helper()
	_, err := sess.Login(context.Background(), "test@example.com", "password123")
	require.NoError(t, err)
}

func validOffer(title string) domain.OfferDocument {
	doc := domain.NewOfferDocument(title, nil)
	doc.Rows = domain.RowList{domain.NewItemRow("voce", 1, 100)}
	return doc
}

func TestSaveWithoutIdentifiersIssuesExactlyOneCreate(t *testing.T) {
	backend := newFakeBackend()
	engine, sess, _ := setupEngine(t, backend)
	login(t, sess)

	saved, err := engine.Save(context.Background(), validOffer("Nuovo"), "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), backend.creates.Load())
	assert.Equal(t, int64(0), backend.updates.Load())
	assert.Equal(t, "srv-created", saved.ServerID)
	assert.NotEmpty(t, saved.LocalID, "local identifier survives the round-trip")
}

func TestSaveWithServerIDIssuesUpdate(t *testing.T) {
	backend := newFakeBackend()
	engine, sess, _ := setupEngine(t, backend)
	login(t, sess)

	doc := validOffer("Esistente")
	doc.ServerID = "srv-7"

	_, err := engine.Save(context.Background(), doc, "")
	require.NoError(t, err)

	assert.Equal(t, int64(0), backend.creates.Load())
	assert.Equal(t, int64(1), backend.updates.Load())
}

func TestSaveFindsRemoteCounterpartForEditSession(t *testing.T) {
	backend := newFakeBackend()
	engine, sess, _ := setupEngine(t, backend)
	login(t, sess)

	existing := validOffer("Gia sul server")
	existing.ServerID = "srv-42"
	backend.listDocs = []domain.OfferDocument{existing}

	_, err := engine.Load(context.Background())
	require.NoError(t, err)

	// The editing session references the offer by local identifier; the
	// server identifier is resolved from the loaded collection
	edited := existing
	edited.ServerID = ""
	edited.Note = "aggiornata"

	_, err = engine.Save(context.Background(), edited, existing.LocalID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), backend.updates.Load())
	assert.Equal(t, int64(0), backend.creates.Load())
}

func TestSaveValidationFailsBeforeAnyNetworkCall(t *testing.T) {
	backend := newFakeBackend()
	engine, sess, _ := setupEngine(t, backend)
	login(t, sess)

	_, err := engine.Save(context.Background(), domain.NewOfferDocument("", nil), "")
	var fe *domain.FieldError
	require.ErrorAs(t, err, &fe)

	assert.Equal(t, int64(0), backend.creates.Load())
	assert.Equal(t, int64(0), backend.updates.Load())
}

func TestSaveRejectsConcurrentSave(t *testing.T) {
	backend := newFakeBackend()
	backend.createDelay = make(chan struct{})
	engine, sess, _ := setupEngine(t, backend)
	login(t, sess)

	firstDone := make(chan error, 1)
	go func() {
		_, err := engine.Save(context.Background(), validOffer("lenta"), "")
		firstDone <- err
	}()

	// Wait until the first save reaches the backend
	require.Eventually(t, func() bool {
		return backend.creates.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err := engine.Save(context.Background(), validOffer("seconda"), "")
	assert.ErrorIs(t, err, syncengine.ErrSaveInFlight)

	close(backend.createDelay)
	require.NoError(t, <-firstDone)
}

func TestSaveWithoutSessionStaysLocal(t *testing.T) {
	backend := newFakeBackend()
	engine, _, store := setupEngine(t, backend)

	saved, err := engine.Save(context.Background(), validOffer("offline"), "")
	require.NoError(t, err)

	assert.Empty(t, saved.ServerID)
	assert.Equal(t, int64(0), backend.creates.Load())

	var cached []domain.OfferDocument
	require.NoError(t, store.Get(localstore.KeyOffers, &cached))
	require.Len(t, cached, 1)
	assert.Equal(t, "offline", cached[0].Title)
}

func TestDeleteLocalOnlyIssuesNoNetworkCall(t *testing.T) {
	backend := newFakeBackend()
	engine, sess, _ := setupEngine(t, backend)

	// Created while offline: no server identifier
	doc := validOffer("mai creata")
	_, err := engine.Save(context.Background(), doc, "")
	require.NoError(t, err)

	login(t, sess)

	require.NoError(t, engine.Delete(context.Background(), doc.LocalID))
	assert.Equal(t, int64(0), backend.deletes.Load())
	assert.Empty(t, engine.Collection())
}

func TestDeleteSyncedOfferIssuesRemoteDelete(t *testing.T) {
	backend := newFakeBackend()
	engine, sess, _ := setupEngine(t, backend)
	login(t, sess)

	saved, err := engine.Save(context.Background(), validOffer("da cancellare"), "")
	require.NoError(t, err)
	require.NotEmpty(t, saved.ServerID)

	require.NoError(t, engine.Delete(context.Background(), saved.ID))
	assert.Equal(t, int64(1), backend.deletes.Load())
	assert.Empty(t, engine.Collection())
}

func TestLoadFallsBackToLocalOnRemoteFailure(t *testing.T) {
	backend := newFakeBackend()
	engine, sess, store := setupEngine(t, backend)
	login(t, sess)

	cached := []domain.OfferDocument{validOffer("dal disco")}
	require.NoError(t, store.Put(localstore.KeyOffers, cached))

	backend.listStatus = http.StatusInternalServerError

	docs, err := engine.Load(context.Background())
	assert.ErrorIs(t, err, syncengine.ErrRemoteUnavailable)
	require.Len(t, docs, 1)
	assert.Equal(t, "dal disco", docs[0].Title)
}

func TestLoadMergesAndPersistsBackfilledFields(t *testing.T) {
	backend := newFakeBackend()
	engine, sess, store := setupEngine(t, backend)
	login(t, sess)

	local := validOffer("Cantina")
	local.ServerID = "srv-9"
	local.Logo = "data:image/png;base64,xyz"
	require.NoError(t, store.Put(localstore.KeyOffers, []domain.OfferDocument{local}))

	remoteCopy := local
	remoteCopy.Logo = ""
	remoteCopy.LocalID = ""
	remoteCopy.ID = "srv-9"
	backend.listDocs = []domain.OfferDocument{remoteCopy}

	docs, err := engine.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "data:image/png;base64,xyz", docs[0].Logo)
	assert.Equal(t, local.LocalID, docs[0].LocalID)

	// Backfilled fields are written back to the cache
	var cached []domain.OfferDocument
	require.NoError(t, store.Get(localstore.KeyOffers, &cached))
	require.Len(t, cached, 1)
	assert.Equal(t, "data:image/png;base64,xyz", cached[0].Logo)
}

func TestLoadClearsSessionOnUnauthorized(t *testing.T) {
	backend := newFakeBackend()
	engine, sess, _ := setupEngine(t, backend)
	login(t, sess)

	backend.listStatus = http.StatusUnauthorized

	_, err := engine.Load(context.Background())
	assert.ErrorIs(t, err, syncengine.ErrRemoteUnavailable)
	assert.False(t, sess.Active())
}
