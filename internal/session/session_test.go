package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/preventivo-app/preventivo/internal/domain"
	"github.com/preventivo-app/preventivo/internal/localstore"
	"github.com/preventivo-app/preventivo/internal/remote"
	"github.com/preventivo-app/preventivo/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthBackend(t *testing.T, meStatus *int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	identity := domain.UserInfo{ID: "user-1", Name: "Test", Email: "test@example.com"}

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.AuthResponse{Token: "issued-token", User: identity})
	})
	mux.HandleFunc("POST /api/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.AuthResponse{Token: "issued-token", User: identity})
	})
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if *meStatus != http.StatusOK {
			w.WriteHeader(*meStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(identity)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newSession(t *testing.T, baseURL string) (*session.Session, *localstore.Store) {
	t.Helper()

	store, err := localstore.NewStore(t.TempDir())
	require.NoError(t, err)

	var sess *session.Session
	client := remote.NewClient(baseURL, 5*time.Second, func() string { return sess.Token() })
	sess = session.NewSession(store, client, zap.NewNop())
	return sess, store
}

func TestLoginEstablishesAndCachesSession(t *testing.T) {
	meStatus := http.StatusOK
	srv := newAuthBackend(t, &meStatus)
	sess, store := newSession(t, srv.URL)

	require.False(t, sess.Active())

	user, err := sess.Login(context.Background(), "test@example.com", "password123")
	require.NoError(t, err)

	assert.True(t, sess.Active())
	assert.Equal(t, "user-1", user.ID)
	assert.True(t, store.Has(localstore.KeyToken))
	assert.True(t, store.Has(localstore.KeyIdentity))
}

func TestRestoreRebuildsSessionFromCache(t *testing.T) {
	meStatus := http.StatusOK
	srv := newAuthBackend(t, &meStatus)
	sess, store := newSession(t, srv.URL)

	_, err := sess.Login(context.Background(), "test@example.com", "password123")
	require.NoError(t, err)

	// A fresh session over the same cache picks the credential back up
	restored, _ := newSessionOverStore(t, srv.URL, store)
	require.NoError(t, restored.Restore(context.Background()))
	assert.True(t, restored.Active())
	require.NotNil(t, restored.Identity())
	assert.Equal(t, "user-1", restored.Identity().ID)
}

func TestRestoreWithoutCacheReportsNoSession(t *testing.T) {
	meStatus := http.StatusOK
	srv := newAuthBackend(t, &meStatus)
	sess, _ := newSession(t, srv.URL)

	assert.ErrorIs(t, sess.Restore(context.Background()), session.ErrNoSession)
}

func TestRestoreClearsRejectedCredential(t *testing.T) {
	meStatus := http.StatusOK
	srv := newAuthBackend(t, &meStatus)
	sess, store := newSession(t, srv.URL)

	_, err := sess.Login(context.Background(), "test@example.com", "password123")
	require.NoError(t, err)

	meStatus = http.StatusUnauthorized
	restored, _ := newSessionOverStore(t, srv.URL, store)
	assert.ErrorIs(t, restored.Restore(context.Background()), session.ErrNoSession)
	assert.False(t, restored.Active())
	assert.False(t, store.Has(localstore.KeyToken))
}

func TestRestoreKeepsCachedSessionWhenBackendUnreachable(t *testing.T) {
	meStatus := http.StatusOK
	srv := newAuthBackend(t, &meStatus)
	sess, store := newSession(t, srv.URL)

	_, err := sess.Login(context.Background(), "test@example.com", "password123")
	require.NoError(t, err)

	srv.Close()
	restored, _ := newSessionOverStore(t, "http://127.0.0.1:1", store)
	require.NoError(t, restored.Restore(context.Background()))
	assert.True(t, restored.Active(), "offline restore keeps the cached credential")
}

func TestLogoutClearsEverything(t *testing.T) {
	meStatus := http.StatusOK
	srv := newAuthBackend(t, &meStatus)
	sess, store := newSession(t, srv.URL)

	_, err := sess.Login(context.Background(), "test@example.com", "password123")
	require.NoError(t, err)

	sess.Logout()

	assert.False(t, sess.Active())
	assert.Nil(t, sess.Identity())
	assert.False(t, store.Has(localstore.KeyToken))
	assert.False(t, store.Has(localstore.KeyIdentity))
}

func TestEndpointPreferenceSurvivesLogoutAndRestore(t *testing.T) {
	meStatus := http.StatusOK
	srv := newAuthBackend(t, &meStatus)

	// Initial client points at a dead address; the session redirects it.
	sess, store := newSession(t, "http://127.0.0.1:1")
	require.NoError(t, sess.SetEndpoint(srv.URL))

	_, err := sess.Login(context.Background(), "test@example.com", "password123")
	require.NoError(t, err)

	sess.Logout()
	assert.True(t, store.Has(localstore.KeyEndpoint), "endpoint is a device setting, not a credential")

	// A fresh session over the same store picks the cached endpoint back up.
	restored, _ := newSessionOverStore(t, "http://127.0.0.1:1", store)
	err = restored.Restore(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)

	_, err = restored.Login(context.Background(), "test@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, restored.Active())
}

func newSessionOverStore(t *testing.T, baseURL string, store *localstore.Store) (*session.Session, *localstore.Store) {
	t.Helper()

	var sess *session.Session
	client := remote.NewClient(baseURL, 2*time.Second, func() string { return sess.Token() })
	sess = session.NewSession(store, client, zap.NewNop())
	return sess, store
}
