package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/matchpoint-app/matchpoint-go/models"
)

// Manager is the process-wide auth state. Constructed once at startup and
// passed down explicitly; everything downstream reads it, only sign-in and
// sign-out mutate it.
type Manager struct {
	store *Store

	mu    sync.RWMutex
	creds Credentials

	// onSignOut fires whenever credentials are dropped, forced or not
	onSignOut func()
}

// NewManager loads persisted credentials and returns the manager
func NewManager(store *Store) (*Manager, error) {
	creds, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Manager{store: store, creds: *creds}, nil
}

// SetSignOutHook registers the callback fired when credentials are dropped
func (m *Manager) SetSignOutHook(fn func()) {
	m.mu.Lock()
	m.onSignOut = fn
	m.mu.Unlock()
}

// Token implements api.TokenSource
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.Token
}

// User returns the signed-in user, nil when signed out
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.User
}

// Authenticated reports whether a usable token is present
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.Token != "" && m.creds.User != nil
}

// OnboardingComplete reports whether the user finished onboarding
func (m *Manager) OnboardingComplete() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.OnboardingComplete
}

// CompleteOnboarding persists the onboarding flag
func (m *Manager) CompleteOnboarding() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds.OnboardingComplete = true
	return m.store.Save(&m.creds)
}

// SignIn persists the credentials from a successful token exchange
func (m *Manager) SignIn(token, refreshToken string, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds.Token = token
	m.creds.RefreshToken = refreshToken
	m.creds.User = &user
	return m.store.Save(&m.creds)
}

// SignOut drops credentials and clears the store
func (m *Manager) SignOut() error {
	m.mu.Lock()
	m.creds = Credentials{OnboardingComplete: m.creds.OnboardingComplete}
	hook := m.onSignOut
	err := m.store.Save(&m.creds)
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

// ForceSignOut is the 401/403 path: like SignOut but logged as forced.
// Wire it to the api client's auth failure hook.
func (m *Manager) ForceSignOut() {
	zap.S().Infow("forced sign-out")
	if err := m.SignOut(); err != nil {
		zap.S().Errorw("failed to clear credentials on forced sign-out", "error", err)
	}
}

// TokenStale reports whether the stored access token is past its expiry.
// The claim is read without verification: validating the signature is the
// server's job, the client only wants to skip calls that will bounce.
// Tokens that are not JWTs are treated as non-expiring.
func (m *Manager) TokenStale() bool {
	m.mu.RLock()
	token := m.creds.Token
	m.mu.RUnlock()
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
