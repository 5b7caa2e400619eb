package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"repfit/internal/authclient"
	"repfit/internal/tokenstore"
	"repfit/pkg/logging"
)

// DefaultRefreshMargin is the safety margin before the access token's
// expiry at which the token is considered due for refresh. It accounts
// for clock skew and network latency so user-initiated calls rarely
// observe an expired token.
const DefaultRefreshMargin = 60 * time.Second

// AuthAPI is the slice of the auth client the manager depends on.
// *authclient.Client satisfies it; tests may substitute a fake.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*authclient.AuthResponse, error)
	Register(ctx context.Context, email, username, password string) (*authclient.RegisterResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*authclient.RefreshResponse, error)
	CurrentUser(ctx context.Context, accessToken string) (*authclient.User, error)
	Logout(ctx context.Context, accessToken string) error
	TokenExpiry(accessToken string) time.Time
}

// Config configures the session manager.
type Config struct {
	// Client is the auth transport.
	Client AuthAPI

	// Store is the token persistence. The manager is its sole writer.
	Store tokenstore.Store

	// RefreshMargin is the safety margin before expiry at which a
	// refresh is triggered. Defaults to DefaultRefreshMargin.
	RefreshMargin time.Duration
}

// Manager owns the session state machine. It orchestrates the auth client
// and the token store, single-flights concurrent refreshes, and schedules
// a proactive refresh before the access token expires.
//
// The manager is the exclusive owner of the in-memory session and the
// sole writer of the token store; everything handed out is a clone.
type Manager struct {
	mu sync.Mutex

	client AuthAPI
	store  tokenstore.Store
	margin time.Duration

	state   State
	session *tokenstore.Session
	user    *authclient.User

	// generation tags the current session lineage. It is incremented on
	// logout and on session adoption so results from refresh attempts
	// belonging to an older lineage are discarded instead of resurrecting
	// a cleared session.
	generation uint64

	refreshGroup singleflight.Group
	refreshTimer *time.Timer

	subscribers []chan Snapshot
}

// NewManager creates a session manager in the Anonymous state.
func NewManager(cfg Config) *Manager {
	margin := cfg.RefreshMargin
	if margin == 0 {
		margin = DefaultRefreshMargin
	}
	return &Manager{
		client: cfg.Client,
		store:  cfg.Store,
		margin: margin,
		state:  Anonymous,
	}
}

// Resume loads a persisted session from the store, re-entering
// Authenticated when one exists. An expired session without a refresh
// token is cleared. Call once at startup.
func (m *Manager) Resume() State {
	sess, ok := m.store.Get()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !ok {
		return m.state
	}

	if !sess.Valid(m.margin) && sess.RefreshToken == "" {
		logging.Info("Session", "Persisted session expired with no refresh token, clearing")
		m.clearStoreLocked()
		return m.state
	}

	m.session = sess
	m.setStateLocked(Authenticated)
	m.scheduleRefreshLocked()
	logging.Info("Session", "Session resumed, access token expires %s", sess.Expiry.Format(time.RFC3339))
	return m.state
}

// Login authenticates with email and password. On success the new session
// is persisted and the manager enters Authenticated; on failure it
// returns to Anonymous with no partial state written.
func (m *Manager) Login(ctx context.Context, email, password string) (*authclient.User, error) {
	m.mu.Lock()
	m.setStateLocked(Authenticating)
	m.mu.Unlock()

	resp, err := m.client.Login(ctx, email, password)
	if err != nil {
		m.mu.Lock()
		m.setStateLocked(Anonymous)
		m.mu.Unlock()
		return nil, err
	}

	m.AdoptSession(resp)
	return m.userSnapshot(), nil
}

// Register creates an account and then establishes a session with the
// same credentials, so a successful registration leaves the manager
// Authenticated just like a login.
func (m *Manager) Register(ctx context.Context, email, username, password string) (*authclient.User, error) {
	m.mu.Lock()
	m.setStateLocked(Authenticating)
	m.mu.Unlock()

	if _, err := m.client.Register(ctx, email, username, password); err != nil {
		m.mu.Lock()
		m.setStateLocked(Anonymous)
		m.mu.Unlock()
		return nil, err
	}

	return m.Login(ctx, email, password)
}

// AdoptSession installs a freshly issued session (password login or OAuth
// code exchange) as the current one. The generation advances so any
// refresh still in flight for a previous session is discarded.
func (m *Manager) AdoptSession(resp *authclient.AuthResponse) {
	expiry := m.client.TokenExpiry(resp.AccessToken)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.session = &tokenstore.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		Expiry:       expiry,
		CreatedAt:    time.Now(),
	}
	m.user = resp.User

	m.persistLocked()
	m.setStateLocked(Authenticated)
	m.scheduleRefreshLocked()

	logging.Debug("Session", "Session adopted (access %s)", tokenstore.Fingerprint(resp.AccessToken))
}

// AccessToken returns a currently valid access token, refreshing first
// when the stored one is at or past its safety margin. Returns
// ErrNotAuthenticated when no session exists and *ExpiredError when the
// refresh fails and the session is lost.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	switch m.state {
	case Anonymous, Authenticating, LoggedOut:
		m.mu.Unlock()
		return "", ErrNotAuthenticated
	}
	if m.session.Valid(m.margin) {
		token := m.session.AccessToken
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	sess, err := m.refresh(ctx)
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}

// CurrentUser returns the authenticated user, fetching it from the
// backend when it is not cached yet. The returned value is a copy.
func (m *Manager) CurrentUser(ctx context.Context) (*authclient.User, error) {
	m.mu.Lock()
	if m.state == Authenticated && m.user != nil && m.session.Valid(m.margin) {
		user := *m.user
		m.mu.Unlock()
		return &user, nil
	}
	m.mu.Unlock()

	token, err := m.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	user, err := m.client.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.state == Authenticated {
		m.user = user
	}
	m.mu.Unlock()

	copied := *user
	return &copied, nil
}

// Logout ends the session. Local state and storage are cleared regardless
// of whether the best-effort server-side invalidation succeeds, and any
// in-flight refresh is invalidated immediately.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	if m.state == Anonymous || m.state == LoggedOut {
		m.mu.Unlock()
		return
	}

	var accessToken string
	if m.session != nil {
		accessToken = m.session.AccessToken
	}

	m.generation++
	m.stopRefreshTimerLocked()
	m.session = nil
	m.user = nil
	m.setStateLocked(LoggedOut)
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		logging.Warn("Session", "Failed to clear token store on logout: %v", err)
	}

	if accessToken != "" {
		if err := m.client.Logout(ctx, accessToken); err != nil {
			logging.Warn("Session", "Server-side logout failed (session cleared locally): %v", err)
		}
	}

	m.mu.Lock()
	m.setStateLocked(Anonymous)
	m.mu.Unlock()

	logging.Info("Session", "Logged out")
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns an immutable view of the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers for state change notifications. The channel is
// buffered; a slow consumer misses intermediate snapshots rather than
// blocking the manager.
func (m *Manager) Subscribe() <-chan Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Snapshot, 8)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Unsubscribe removes a previously registered subscription channel.
func (m *Manager) Unsubscribe(ch <-chan Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// ReloadFromStore re-reads the persisted session after an external change
// (another process logged in or out). Wired as the token store watcher's
// OnChange callback.
func (m *Manager) ReloadFromStore() {
	sess, ok := m.store.Get()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !ok {
		if m.state == Authenticated || m.state == Refreshing {
			logging.Info("Session", "Session cleared externally, entering anonymous state")
			m.generation++
			m.stopRefreshTimerLocked()
			m.session = nil
			m.user = nil
			m.setStateLocked(Anonymous)
		}
		return
	}

	if m.session != nil && m.session.AccessToken == sess.AccessToken {
		return
	}

	logging.Info("Session", "Session replaced externally, adopting")
	m.generation++
	m.session = sess
	m.user = nil
	m.setStateLocked(Authenticated)
	m.scheduleRefreshLocked()
}

// Close stops background work. The manager is not usable afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopRefreshTimerLocked()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
}

// refresh exchanges the refresh token for a new access token. Concurrent
// callers observing an expired token share a single refresh call keyed by
// the session generation; every waiter receives the same outcome. A
// failed refresh is an unrecoverable session loss (the common cause is
// refresh token revocation), so the manager logs out rather than retrying.
func (m *Manager) refresh(ctx context.Context) (*tokenstore.Session, error) {
	m.mu.Lock()
	if m.session == nil || m.session.RefreshToken == "" {
		m.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	// A sibling caller may have completed the refresh already.
	if m.state == Authenticated && m.session.Valid(m.margin) {
		sess := m.session.Clone()
		m.mu.Unlock()
		return sess, nil
	}
	gen := m.generation
	refreshToken := m.session.RefreshToken
	m.setStateLocked(Refreshing)
	m.mu.Unlock()

	result, err, _ := m.refreshGroup.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		resp, callErr := m.client.Refresh(ctx, refreshToken)

		m.mu.Lock()
		defer m.mu.Unlock()

		if m.generation != gen {
			// A logout or new login overtook this refresh; its result
			// must not resurrect the old session.
			logging.Debug("Session", "Discarding refresh result from stale generation %d", gen)
			return nil, errSuperseded
		}

		if callErr != nil {
			logging.Warn("Session", "Refresh failed, treating session as lost: %v", callErr)
			m.generation++
			m.stopRefreshTimerLocked()
			m.session = nil
			m.user = nil
			m.setStateLocked(LoggedOut)
			m.clearStoreLocked()
			return nil, &ExpiredError{cause: callErr}
		}

		// Rotation: persist whichever refresh token the server returned;
		// keep the old one only when the response omits a replacement.
		newRefreshToken := resp.RefreshToken
		if newRefreshToken == "" {
			newRefreshToken = refreshToken
		}
		tokenType := resp.TokenType
		if tokenType == "" {
			tokenType = tokenstore.DefaultTokenType
		}

		m.session = &tokenstore.Session{
			AccessToken:  resp.AccessToken,
			RefreshToken: newRefreshToken,
			TokenType:    tokenType,
			Expiry:       m.client.TokenExpiry(resp.AccessToken),
			CreatedAt:    time.Now(),
		}
		m.persistLocked()
		m.setStateLocked(Authenticated)
		m.scheduleRefreshLocked()

		logging.Debug("Session", "Refresh succeeded (access %s, refresh %s)",
			tokenstore.Fingerprint(m.session.AccessToken), tokenstore.Fingerprint(m.session.RefreshToken))
		return m.session.Clone(), nil
	})

	if err != nil {
		return nil, err
	}
	return result.(*tokenstore.Session), nil
}

// scheduleRefreshLocked arms the proactive refresh timer at a wake-up
// point strictly before the access token's expiry, so a background
// refresh runs even absent an active request. Requires m.mu held.
func (m *Manager) scheduleRefreshLocked() {
	m.stopRefreshTimerLocked()

	if m.session == nil || m.session.Expiry.IsZero() {
		return
	}

	wait := time.Until(m.session.Expiry.Add(-m.margin))
	if wait < 0 {
		wait = 0
	}

	gen := m.generation
	m.refreshTimer = time.AfterFunc(wait, func() {
		m.backgroundRefresh(gen)
	})
	logging.Debug("Session", "Proactive refresh scheduled in %s", wait.Round(time.Second))
}

func (m *Manager) backgroundRefresh(gen uint64) {
	m.mu.Lock()
	stale := m.generation != gen || (m.state != Authenticated && m.state != Refreshing)
	m.mu.Unlock()
	if stale {
		return
	}

	if _, err := m.refresh(context.Background()); err != nil && !IsExpired(err) {
		logging.Debug("Session", "Proactive refresh did not complete: %v", err)
	}
}

func (m *Manager) stopRefreshTimerLocked() {
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
}

// persistLocked writes the current session to the store. Persistence
// failures degrade to an in-memory session. Requires m.mu held.
func (m *Manager) persistLocked() {
	if err := m.store.Set(m.session); err != nil {
		logging.Warn("Session", "Failed to persist session, continuing in memory: %v", err)
	}
}

// clearStoreLocked empties the store and re-enters Anonymous. Requires
// m.mu held.
func (m *Manager) clearStoreLocked() {
	if err := m.store.Clear(); err != nil {
		logging.Warn("Session", "Failed to clear token store: %v", err)
	}
	m.session = nil
	m.user = nil
	m.setStateLocked(Anonymous)
}

// setStateLocked transitions the state machine and notifies subscribers.
// Requires m.mu held.
func (m *Manager) setStateLocked(next State) {
	if m.state == next {
		return
	}
	logging.Debug("Session", "State %s -> %s", m.state, next)
	m.state = next

	snap := m.snapshotLocked()
	for _, sub := range m.subscribers {
		select {
		case sub <- snap:
		default:
		}
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{State: m.state}
	if m.user != nil {
		user := *m.user
		snap.User = &user
	}
	if m.session != nil {
		snap.Expiry = m.session.Expiry
	}
	return snap
}

func (m *Manager) userSnapshot() *authclient.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	user := *m.user
	return &user
}
