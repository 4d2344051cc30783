// Package session owns the bearer credential: anonymous or authenticated,
// persisted to client storage, refreshed on expiry and degraded back to
// anonymous when a refresh fails.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/lureclo-storefront/internal/storage"
)

// credentialKey is the fixed storage key, matching what the web client kept
// in localStorage.
const credentialKey = "authToken"

// expiryLeeway refreshes tokens slightly before their actual expiry.
const expiryLeeway = 30 * time.Second

// State is the credential lifecycle state.
type State string

const (
	StateNoCredential  State = "NO_CREDENTIAL"
	StateAnonymous     State = "ANONYMOUS"
	StateAuthenticated State = "AUTHENTICATED"
)

const (
	kindAnonymous     = "anonymous"
	kindAuthenticated = "authenticated"
)

// TokenAPI is the slice of the backend this manager needs.
type TokenAPI interface {
	AnonymousToken(ctx context.Context) (string, error)
	ExchangeLogin(ctx context.Context, providerToken string) (string, error)
	RefreshToken(ctx context.Context, token string) (string, error)
}

type credential struct {
	Token string `json:"token"`
	Kind  string `json:"kind"`
}

// Manager holds at most one active credential and persists it across runs.
type Manager struct {
	mu    sync.Mutex
	api   TokenAPI
	store *storage.Store
	cred  credential
}

// NewManager rehydrates any persisted credential and returns the manager.
func NewManager(api TokenAPI, store *storage.Store) *Manager {
	m := &Manager{api: api, store: store}

	var cred credential
	found, err := store.Get(credentialKey, &cred)
	if err != nil {
		log.Printf("session: discarding unreadable credential: %v", err)
		return m
	}
	if found {
		m.cred = cred
	}
	return m
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.cred.Token == "":
		return StateNoCredential
	case m.cred.Kind == kindAuthenticated:
		return StateAuthenticated
	default:
		return StateAnonymous
	}
}

// Token returns a usable bearer token, lazily issuing an anonymous one when
// none is held and refreshing ahead of expiry.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred.Token == "" {
		if err := m.ensureLocked(ctx); err != nil {
			return "", err
		}
		return m.cred.Token, nil
	}

	if expired(m.cred.Token) {
		return m.refreshLocked(ctx)
	}
	return m.cred.Token, nil
}

// EnsureCredential issues and persists an anonymous credential if none is
// held. Safe to call on every app start.
func (m *Manager) EnsureCredential(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred.Token != "" {
		return nil
	}
	return m.ensureLocked(ctx)
}

// Login exchanges an externally obtained identity token for a backend
// session credential and marks the session authenticated.
func (m *Manager) Login(ctx context.Context, providerToken string) error {
	token, err := m.api.ExchangeLogin(ctx, providerToken)
	if err != nil {
		return fmt.Errorf("login exchange: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(credential{Token: token, Kind: kindAuthenticated})
}

// Logout clears the persisted credential and in-memory state. A new
// anonymous credential is only issued lazily on the next protected call.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cred = credential{}
	return m.store.Delete(credentialKey)
}

// Refresh obtains a new credential of the same class. An authenticated
// refresh that fails degrades to anonymous rather than leaving the app
// credential-less.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

func (m *Manager) ensureLocked(ctx context.Context) error {
	token, err := m.api.AnonymousToken(ctx)
	if err != nil {
		return fmt.Errorf("issue anonymous token: %w", err)
	}
	return m.setLocked(credential{Token: token, Kind: kindAnonymous})
}

func (m *Manager) refreshLocked(ctx context.Context) (string, error) {
	if m.cred.Kind == kindAuthenticated && m.cred.Token != "" {
		token, err := m.api.RefreshToken(ctx, m.cred.Token)
		if err == nil {
			if err := m.setLocked(credential{Token: token, Kind: kindAuthenticated}); err != nil {
				return "", err
			}
			return token, nil
		}
		log.Printf("session: refresh failed, degrading to anonymous: %v", err)
		m.cred = credential{}
	}

	if err := m.ensureLocked(ctx); err != nil {
		return "", err
	}
	return m.cred.Token, nil
}

func (m *Manager) setLocked(cred credential) error {
	m.cred = cred
	if err := m.store.Put(credentialKey, cred); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}

// expired inspects the token's exp claim without verifying the signature;
// the client holds no signing secret. Opaque tokens never expire locally and
// are replaced reactively after an auth failure.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().Add(expiryLeeway).After(exp.Time)
}
