package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pokemcp/internal/identity"
	"pokemcp/pkg/logging"
)

const (
	// DefaultRefreshBuffer is how long before expiry a token is refreshed.
	DefaultRefreshBuffer = 5 * time.Minute

	// DefaultTimeout bounds each identity provider call.
	DefaultTimeout = 10 * time.Second

	// maxRefreshAttempts bounds how often CurrentToken refreshes before
	// giving up on a session that stays stale.
	maxRefreshAttempts = 1

	subsystemManager = "SessionManager"
)

// Store is the persistence the Manager needs. CredentialStore implements it.
type Store interface {
	Save(*Session) error
	Load() *Session
	Clear() error
}

// Config configures a Manager.
type Config struct {
	Backend identity.Backend
	Store   Store

	// RefreshBuffer defaults to DefaultRefreshBuffer.
	RefreshBuffer time.Duration

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager orchestrates login, signup, logout and refresh-on-read. It is the
// only component that writes to the Store.
type Manager struct {
	backend       identity.Backend
	store         Store
	refreshBuffer time.Duration
	timeout       time.Duration
	now           func() time.Time

	refreshGroup singleflight.Group

	mu    sync.RWMutex
	state State
}

// UserInfo is a read-only projection of the stored session for display.
type UserInfo struct {
	UserID    string
	Email     string
	HasToken  bool
	ExpiresAt time.Time
	Expired   bool
}

// NewManager creates a session manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Backend == nil {
		return nil, errors.New("identity backend is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("credential store is required")
	}

	m := &Manager{
		backend:       cfg.Backend,
		store:         cfg.Store,
		refreshBuffer: cfg.RefreshBuffer,
		timeout:       cfg.Timeout,
		now:           cfg.Now,
		state:         StateUnauthenticated,
	}
	if m.refreshBuffer <= 0 {
		m.refreshBuffer = DefaultRefreshBuffer
	}
	if m.timeout <= 0 {
		m.timeout = DefaultTimeout
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// State returns the last observed session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != s {
		logging.Debug(subsystemManager, "Session state %s -> %s", m.state, s)
	}
	m.state = s
}

// Login signs in with email and password and stores the resulting session.
// On failure the stored session is left untouched and a *LoginError is
// returned.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.logBackendFailure("login", err)
		return newLoginError("login", err)
	}

	sess, err := sessionFromResponse(resp, nil)
	if err != nil {
		m.logBackendFailure("login", err)
		return newLoginError("login", err)
	}

	if err := m.store.Save(sess); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	m.setState(StateAuthenticated)
	logging.Info(subsystemManager, "Logged in as %s", sess.Email)
	return nil
}

// SignUp registers an account. It never stores a session: the provider
// requires the email to be verified before Login succeeds.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*identity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	user, err := m.backend.SignUp(ctx, email, password)
	if err != nil {
		m.logBackendFailure("signup", err)
		return nil, newLoginError("signup", err)
	}

	logging.Info(subsystemManager, "Registered %s, verification pending", email)
	return user, nil
}

// CurrentToken returns a usable access token, refreshing it first when it
// expires within the refresh buffer. It returns ErrNotAuthenticated when no
// session is stored and ErrRefreshFailed when a due refresh did not produce a
// fresh session.
func (m *Manager) CurrentToken(ctx context.Context) (string, error) {
	sess, err := m.currentSession(ctx)
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}

func (m *Manager) currentSession(ctx context.Context) (*Session, error) {
	attempts := 0
	for {
		sess := m.store.Load()
		if sess == nil {
			m.setState(StateUnauthenticated)
			return nil, ErrNotAuthenticated
		}

		if !m.needsRefresh(sess) {
			m.setState(StateAuthenticated)
			return sess, nil
		}

		if attempts >= maxRefreshAttempts {
			logging.Warn(subsystemManager, "Session still expires within %s after refresh", m.refreshBuffer)
			m.setState(StateUnauthenticated)
			return nil, ErrRefreshFailed
		}
		attempts++

		if err := m.refresh(ctx, sess); err != nil {
			m.setState(StateUnauthenticated)
			return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		}
	}
}

func (m *Manager) needsRefresh(sess *Session) bool {
	return sess.ExpiresAt <= m.now().Add(m.refreshBuffer).Unix()
}

// refresh renews stale. Concurrent refreshes of the same token share one
// provider call. On failure the stored session is not modified.
func (m *Manager) refresh(ctx context.Context, stale *Session) error {
	if stale.RefreshToken == "" {
		return errors.New("no refresh token stored")
	}

	m.setState(StateRefreshing)

	_, err, _ := m.refreshGroup.Do(stale.RefreshToken, func() (interface{}, error) {
		// Another caller may have rotated the session already.
		if current := m.store.Load(); current != nil &&
			current.RefreshToken != stale.RefreshToken && !m.needsRefresh(current) {
			return nil, nil
		}

		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()

		resp, err := m.backend.Refresh(ctx, stale.RefreshToken)
		if err != nil {
			m.logBackendFailure("refresh", err)
			logging.Audit("token_refresh_failed", "Session refresh failed", "user_id", stale.UserID)
			return nil, err
		}

		fresh, err := sessionFromResponse(resp, stale)
		if err != nil {
			m.logBackendFailure("refresh", err)
			return nil, err
		}

		if err := m.store.Save(fresh); err != nil {
			return nil, fmt.Errorf("failed to store refreshed session: %w", err)
		}

		logging.Audit("token_refreshed", "Session refreshed",
			"user_id", fresh.UserID,
			"expires_at", fresh.ExpiresAt,
		)
		return nil, nil
	})
	return err
}

// Refresh renews the stored session even when it is not yet due. It backs
// 'pokemcp auth refresh'.
func (m *Manager) Refresh(ctx context.Context) error {
	sess := m.store.Load()
	if sess == nil {
		m.setState(StateUnauthenticated)
		return ErrNotAuthenticated
	}

	if err := m.refresh(ctx, sess); err != nil {
		m.setState(m.stateFor(sess))
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	m.setState(StateAuthenticated)
	return nil
}

// stateFor reports the state implied by a stored session without contacting
// the provider.
func (m *Manager) stateFor(sess *Session) State {
	if sess == nil || m.needsRefresh(sess) {
		return StateUnauthenticated
	}
	return StateAuthenticated
}

// Logout revokes the session remotely on a best-effort basis and always
// clears it locally.
func (m *Manager) Logout(ctx context.Context) error {
	if sess := m.store.Load(); sess != nil {
		signOutCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := m.backend.SignOut(signOutCtx, sess.AccessToken)
		cancel()
		if err != nil {
			m.logBackendFailure("logout", err)
			logging.Warn(subsystemManager, "Remote sign-out failed, clearing local session anyway")
		}
	}

	m.setState(StateUnauthenticated)
	if err := m.store.Clear(); err != nil {
		return err
	}
	logging.Info(subsystemManager, "Logged out")
	return nil
}

// UserInfo returns the stored identity without refreshing, or nil when no
// session is stored.
func (m *Manager) UserInfo() *UserInfo {
	sess := m.store.Load()
	if sess == nil {
		return nil
	}
	return &UserInfo{
		UserID:    sess.UserID,
		Email:     sess.Email,
		HasToken:  sess.AccessToken != "",
		ExpiresAt: sess.Expiry(),
		Expired:   sess.ExpiresAt <= m.now().Unix(),
	}
}

// IsAuthenticated reports whether CurrentToken yields a token.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	_, err := m.CurrentToken(ctx)
	return err == nil
}

func (m *Manager) logBackendFailure(op string, err error) {
	if identity.IsTransportError(err) {
		logging.Warn(subsystemManager, "Identity provider unavailable during %s: %v", op, err)
		return
	}
	logging.Info(subsystemManager, "Identity provider rejected %s: %v", op, err)
}
