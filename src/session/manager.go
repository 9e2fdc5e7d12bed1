package session

import (
	"context"
	"sync"

	"coin-control/src/interfaces"
	"coin-control/src/logger"
	"coin-control/src/models"
)

// -----------------------------------------------------------------------------
// Manager
//
// Single source of truth for "is a user authenticated". Owns the one
// process-wide session; everything else reads immutable snapshots. State
// machine: Unknown -> Validating -> Authenticated | Anonymous, with
// login/logout moving between the two terminal states.
// -----------------------------------------------------------------------------

type Manager struct {
	Auth   interfaces.IAuthGateway
	Creds  interfaces.ICredentialStore
	Logger *logger.Logger

	mu          sync.RWMutex
	state       models.SessionState
	session     *models.MSession
	initialized bool
	listeners   []func(models.MSessionSnapshot)
}

// -----------------------------------------------------------------------------

func NewManager(auth interfaces.IAuthGateway, creds interfaces.ICredentialStore, log *logger.Logger) *Manager {
	return &Manager{
		Auth:   auth,
		Creds:  creds,
		Logger: log,
		state:  models.SessionUnknown,
	}
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// Snapshot returns an immutable view of the current state. The session copy
// never aliases the manager's own record.
func (m *Manager) Snapshot() models.MSessionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() models.MSessionSnapshot {
	snap := models.MSessionSnapshot{
		State:   m.state,
		Loading: m.state == models.SessionUnknown || m.state == models.SessionValidating,
	}
	if m.session != nil {
		copy := *m.session
		snap.Session = &copy
	}
	return snap
}

// -----------------------------------------------------------------------------

// OnChange registers a listener invoked synchronously after every state
// transition, with the snapshot the transition produced.
func (m *Manager) OnChange(fn func(models.MSessionSnapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// -----------------------------------------------------------------------------

// transition installs the new state and session, then notifies listeners
// outside the lock but still within the mutating call. Consumers never
// observe a partial update.
func (m *Manager) transition(state models.SessionState, session *models.MSession) {
	m.mu.Lock()
	m.state = state
	m.session = session
	snap := m.snapshotLocked()
	listeners := make([]func(models.MSessionSnapshot), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// -----------------------------------------------------------------------------
// Startup
// -----------------------------------------------------------------------------

// Initialize validates a persisted credential, if any. Runs its work exactly
// once; later calls are no-ops. Every failure path is absorbed: a bad or
// unverifiable token clears storage and lands in Anonymous, it never
// propagates. Consumers gate on the snapshot's Loading flag.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return
	}
	m.initialized = true
	m.mu.Unlock()

	m.transition(models.SessionValidating, nil)

	token, err := m.Creds.Read()
	if err != nil {
		m.Logger.Warning("Credential read failed: %v", err)
		m.transition(models.SessionAnonymous, nil)
		return
	}
	if token == "" {
		m.transition(models.SessionAnonymous, nil)
		return
	}

	claims, err := m.Auth.ValidateToken(token)
	if err != nil {
		m.Logger.Info("Stored credential rejected: %v", err)
		m.dropCredential()
		m.transition(models.SessionAnonymous, nil)
		return
	}

	identity, err := m.Auth.GetIdentityByID(ctx, claims.UserID)
	if err != nil {
		m.Logger.Info("Identity lookup for stored credential failed: %v", err)
		m.dropCredential()
		m.transition(models.SessionAnonymous, nil)
		return
	}

	m.transition(models.SessionAuthenticated, &models.MSession{
		UserID:   identity.UserID,
		Nickname: identity.Nickname,
		Token:    token,
	})
}

// -----------------------------------------------------------------------------
// Login / Register / Logout
// -----------------------------------------------------------------------------

// Login authenticates and, on success, persists the credential before the
// session becomes visible. Failures leave the state Anonymous and propagate
// to the caller for display. Re-entrant submissions are the UI's problem.
func (m *Manager) Login(ctx context.Context, nickname, password string) error {
	identity, token, err := m.Auth.Login(ctx, nickname, password)
	if err != nil {
		return err
	}

	if err := m.Creds.Write(token); err != nil {
		// The session still works for this run; it just won't survive a
		// restart.
		m.Logger.Warning("Credential write failed: %v", err)
	}

	m.transition(models.SessionAuthenticated, &models.MSession{
		UserID:   identity.UserID,
		Nickname: identity.Nickname,
		Token:    token,
	})
	return nil
}

// -----------------------------------------------------------------------------

// Register creates identity and credential atomically on the backend, then
// logs in with the same credentials. If the follow-up login fails the error
// surfaces while the account already exists; creation is conflict-safe on the
// backend so retrying registration cannot duplicate it.
func (m *Manager) Register(ctx context.Context, nickname, password, firstName, lastName string) error {
	if _, err := m.Auth.CreateIdentityWithCredential(ctx, nickname, password, firstName, lastName); err != nil {
		return err
	}
	return m.Login(ctx, nickname, password)
}

// -----------------------------------------------------------------------------

// Logout is local-only and never fails: it clears the session and the stored
// credential. Logging out while anonymous changes nothing.
func (m *Manager) Logout() {
	m.mu.RLock()
	alreadyAnonymous := m.state == models.SessionAnonymous && m.session == nil
	m.mu.RUnlock()
	if alreadyAnonymous {
		return
	}

	m.dropCredential()
	m.transition(models.SessionAnonymous, nil)
}

// -----------------------------------------------------------------------------

func (m *Manager) dropCredential() {
	if err := m.Creds.Clear(); err != nil {
		m.Logger.Warning("Credential clear failed: %v", err)
	}
}
