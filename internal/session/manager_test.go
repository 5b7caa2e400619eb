package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repfit/internal/authclient"
	"repfit/internal/tokenstore"
)

// fakeBackend is an httptest-backed auth server with switchable failure
// modes and per-endpoint counters.
type fakeBackend struct {
	server *httptest.Server

	mu           sync.Mutex
	refreshCalls int
	logoutCalls  int
	meCalls      int
	tokenSeq     int

	failRefresh bool
	failLogout  bool

	// When set, the refresh handler signals refreshStarted and then
	// blocks until blockRefresh is closed.
	blockRefresh   chan struct{}
	refreshStarted chan struct{}
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"message": "invalid credentials",
				"code":    "invalid_credentials",
			})
			return
		}
		json.NewEncoder(w).Encode(authclient.AuthResponse{
			User:         &authclient.User{ID: "user-1", Email: body["email"], DisplayName: "Jo"},
			AccessToken:  b.nextToken("access"),
			RefreshToken: b.nextToken("refresh"),
			TokenType:    "Bearer",
		})
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(authclient.RegisterResponse{
			User: &authclient.User{ID: "user-1", Email: body["email"], Username: body["username"]},
		})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.refreshCalls++
		started := b.refreshStarted
		block := b.blockRefresh
		fail := b.failRefresh
		b.mu.Unlock()

		if started != nil {
			select {
			case started <- struct{}{}:
			default:
			}
		}
		if block != nil {
			<-block
		}
		if fail {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"message": "refresh token revoked",
				"code":    "invalid_grant",
			})
			return
		}
		json.NewEncoder(w).Encode(authclient.RefreshResponse{
			AccessToken:  b.nextToken("access"),
			TokenType:    "Bearer",
			RefreshToken: b.nextToken("refresh"),
		})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.logoutCalls++
		fail := b.failLogout
		b.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.meCalls++
		b.mu.Unlock()
		json.NewEncoder(w).Encode(authclient.User{ID: "user-1", Email: "jo@example.com"})
	})

	b.server = httptest.NewServer(mux)
	return b
}

func (b *fakeBackend) nextToken(kind string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokenSeq++
	return fmt.Sprintf("%s-%d", kind, b.tokenSeq)
}

func (b *fakeBackend) counts() (refresh, logout, me int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls, b.logoutCalls, b.meCalls
}

func newTestManager(t *testing.T, backend *fakeBackend) (*Manager, *tokenstore.MemoryStore) {
	t.Helper()

	store := tokenstore.NewMemoryStore()
	client := authclient.NewClient(backend.server.URL, authclient.WithAccessTokenTTL(time.Hour))
	m := NewManager(Config{Client: client, Store: store, RefreshMargin: time.Second})
	t.Cleanup(m.Close)
	return m, store
}

// seedExpiredSession installs a session whose access token is already
// past its margin, so the next token request must refresh.
func seedExpiredSession(t *testing.T, m *Manager, store *tokenstore.MemoryStore) {
	t.Helper()

	require.NoError(t, store.Set(&tokenstore.Session{
		AccessToken:  "stale-access",
		RefreshToken: "seed-refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Minute),
	}))
	require.Equal(t, Authenticated, m.Resume())
}

func TestLoginPopulatesStore(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, store := newTestManager(t, backend)

	user, err := m.Login(context.Background(), "jo@example.com", "good")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, Authenticated, m.State())

	sess, ok := store.Get()
	require.True(t, ok, "login must populate the token store")
	assert.Equal(t, "access-1", sess.AccessToken)
	assert.Equal(t, "refresh-2", sess.RefreshToken)
	assert.Equal(t, "Bearer", sess.TokenType)
	assert.False(t, sess.Expiry.IsZero())
}

func TestLoginFailureNoPartialState(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, store := newTestManager(t, backend)

	_, err := m.Login(context.Background(), "jo@example.com", "wrong")
	require.Error(t, err)

	authErr, ok := authclient.AsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_credentials", authErr.Code)

	assert.Equal(t, Anonymous, m.State())
	_, present := store.Get()
	assert.False(t, present, "failed login must not write partial state")
}

func TestRegisterEstablishesSession(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, store := newTestManager(t, backend)

	user, err := m.Register(context.Background(), "jo@example.com", "jo", "good")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, Authenticated, m.State())

	_, present := store.Get()
	assert.True(t, present)
}

func TestAccessTokenWhileAnonymous(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, _ := newTestManager(t, backend)

	_, err := m.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSingleFlightRefresh(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, store := newTestManager(t, backend)
	seedExpiredSession(t, m, store)

	const callers = 8

	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = m.AccessToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, tokens[0], tokens[i], "all concurrent callers must observe the same token")
	}

	refresh, _, _ := backend.counts()
	assert.Equal(t, 1, refresh, "exactly one refresh request must reach the backend")

	sess, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, tokens[0], sess.AccessToken)
	assert.NotEqual(t, "seed-refresh", sess.RefreshToken, "rotated refresh token must be persisted")
}

func TestRefreshFailureTransitionsToAnonymous(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, store := newTestManager(t, backend)
	seedExpiredSession(t, m, store)

	backend.mu.Lock()
	backend.failRefresh = true
	backend.mu.Unlock()

	const callers = 4

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.AccessToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.Error(t, errs[i])
		assert.True(t, IsExpired(errs[i]), "refresh failure surfaces as session expiry, got %v", errs[i])
	}

	refresh, _, _ := backend.counts()
	assert.Equal(t, 1, refresh)

	assert.Equal(t, Anonymous, m.State(), "refresh failure is an unrecoverable session loss")
	_, present := store.Get()
	assert.False(t, present, "store must be cleared after refresh failure")
}

func TestLogoutClearsStoreDespiteServerFailure(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, store := newTestManager(t, backend)

	_, err := m.Login(context.Background(), "jo@example.com", "good")
	require.NoError(t, err)

	backend.mu.Lock()
	backend.failLogout = true
	backend.mu.Unlock()

	m.Logout(context.Background())

	_, logout, _ := backend.counts()
	assert.Equal(t, 1, logout, "server-side logout must be attempted")
	assert.Equal(t, Anonymous, m.State())

	_, present := store.Get()
	assert.False(t, present, "store must be empty even when server logout fails")
}

func TestLogoutDiscardsInFlightRefresh(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, store := newTestManager(t, backend)
	seedExpiredSession(t, m, store)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	backend.mu.Lock()
	backend.blockRefresh = block
	backend.refreshStarted = started
	backend.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := m.AccessToken(context.Background())
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh request never reached the backend")
	}

	m.Logout(context.Background())
	close(block)

	select {
	case err := <-done:
		require.Error(t, err, "refresh overtaken by logout must not succeed")
	case <-time.After(2 * time.Second):
		t.Fatal("refresh caller never returned")
	}

	assert.Equal(t, Anonymous, m.State())
	_, present := store.Get()
	assert.False(t, present, "a stale refresh result must not resurrect the session")
}

func TestProactiveRefresh(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()

	store := tokenstore.NewMemoryStore()
	// Short-lived tokens: expiry 250ms out, refresh margin 150ms, so the
	// proactive timer fires ~100ms after login without any request.
	client := authclient.NewClient(backend.server.URL, authclient.WithAccessTokenTTL(250*time.Millisecond))
	m := NewManager(Config{Client: client, Store: store, RefreshMargin: 150 * time.Millisecond})
	defer m.Close()

	_, err := m.Login(context.Background(), "jo@example.com", "good")
	require.NoError(t, err)

	deadline := time.Now().Add(3 * time.Second)
	for {
		refresh, _, _ := backend.counts()
		if refresh >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("proactive refresh never fired")
		}
		time.Sleep(20 * time.Millisecond)
	}

	sess, ok := store.Get()
	require.True(t, ok)
	assert.NotEqual(t, "access-1", sess.AccessToken, "store must hold the refreshed token")
}

func TestCurrentUserUsesLoginCache(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, _ := newTestManager(t, backend)

	_, err := m.Login(context.Background(), "jo@example.com", "good")
	require.NoError(t, err)

	user, err := m.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	_, _, me := backend.counts()
	assert.Equal(t, 0, me, "login response already carries the user")
}

func TestCurrentUserFetchesAfterResume(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, store := newTestManager(t, backend)

	require.NoError(t, store.Set(&tokenstore.Session{
		AccessToken:  "resumed-access",
		RefreshToken: "resumed-refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}))
	require.Equal(t, Authenticated, m.Resume())

	user, err := m.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	_, _, me := backend.counts()
	assert.Equal(t, 1, me)

	// Second call is served from the cache.
	_, err = m.CurrentUser(context.Background())
	require.NoError(t, err)
	_, _, me = backend.counts()
	assert.Equal(t, 1, me)
}

func TestResumeClearsExpiredSessionWithoutRefreshToken(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, store := newTestManager(t, backend)

	require.NoError(t, store.Set(&tokenstore.Session{
		AccessToken: "stale-access",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(-time.Hour),
	}))

	assert.Equal(t, Anonymous, m.Resume())
	_, present := store.Get()
	assert.False(t, present)
}

func TestSubscribeObservesTransitions(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, _ := newTestManager(t, backend)

	ch := m.Subscribe()

	_, err := m.Login(context.Background(), "jo@example.com", "good")
	require.NoError(t, err)

	var states []State
	timeout := time.After(time.Second)
	for len(states) < 2 {
		select {
		case snap := <-ch:
			states = append(states, snap.State)
		case <-timeout:
			t.Fatalf("expected 2 transitions, got %v", states)
		}
	}

	assert.Equal(t, []State{Authenticating, Authenticated}, states)

	m.Unsubscribe(ch)
}

func TestReloadFromStoreExternalLogout(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, store := newTestManager(t, backend)

	_, err := m.Login(context.Background(), "jo@example.com", "good")
	require.NoError(t, err)

	// Another process cleared the store.
	require.NoError(t, store.Clear())
	m.ReloadFromStore()

	assert.Equal(t, Anonymous, m.State())
	_, err = m.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestReloadFromStoreExternalLogin(t *testing.T) {
	backend := newFakeBackend()
	defer backend.server.Close()
	m, store := newTestManager(t, backend)

	// Another process logged in and wrote a session.
	require.NoError(t, store.Set(&tokenstore.Session{
		AccessToken:  "external-access",
		RefreshToken: "external-refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}))
	m.ReloadFromStore()

	assert.Equal(t, Authenticated, m.State())
	token, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "external-access", token)
}

func TestExpiredErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := &ExpiredError{cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsExpired(fmt.Errorf("wrapped: %w", err)))
}
