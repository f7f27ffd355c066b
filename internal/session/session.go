// Package session holds the signed-in staff identity for one device.
//
// A Manager is an explicit context object: the caller creates it, restores
// any persisted identity at startup, and ends it on logout. Nothing here is
// process-global.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ammar-alrfee/fit-manager/internal/auth"
	"github.com/Ammar-alrfee/fit-manager/internal/metrics"
	"github.com/Ammar-alrfee/fit-manager/internal/models"
	"github.com/Ammar-alrfee/fit-manager/internal/storage"
)

var (
	ErrInvalidCredentials    = auth.ErrInvalidCredentials
	ErrTooManyAttempts       = auth.ErrTooManyAttempts
	ErrCorruptPersistedState = errors.New("persisted session is corrupt")
	ErrNotAuthenticated      = errors.New("not signed in")
	ErrForbidden             = errors.New("your role does not have access to this area")
)

// Slot is the durable single-value store the identity is persisted in.
// Load returns storage.ErrNotFound when the slot is empty.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
	Clear(ctx context.Context) error
}

// Authenticator checks credentials and returns a grant.
// auth.Issuer does this in-process; the API client does it over the network.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*auth.Grant, error)
}

// record is the persisted form: the identity fields at top level plus the
// bearer token, if the authenticator issued one.
type record struct {
	models.Identity
	Token string `json:"token,omitempty"`
}

// Manager owns the current identity and its persisted copy.
type Manager struct {
	mu            sync.RWMutex
	authenticator Authenticator
	slot          Slot
	throttle      *auth.Throttle
	current       *record
	tracer        trace.Tracer
}

// NewManager creates a signed-out session. throttle may be nil.
func NewManager(authenticator Authenticator, slot Slot, throttle *auth.Throttle) *Manager {
	return &Manager{
		authenticator: authenticator,
		slot:          slot,
		throttle:      throttle,
		tracer:        otel.Tracer("fitmanager/session"),
	}
}

// Authenticate signs in with username/password, replacing any current
// identity, and persists it. On failure nothing is persisted and the
// current identity is left as it was.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (*models.Identity, error) {
	ctx, span := m.tracer.Start(ctx, "session.authenticate",
		trace.WithAttributes(attribute.String("username", username)))
	defer span.End()

	if !m.throttle.Allow(username) {
		metrics.Logins.WithLabelValues(metrics.ResultThrottled).Inc()
		slog.Warn("Login throttled", "username", username)
		return nil, ErrTooManyAttempts
	}

	grant, err := m.authenticator.Login(ctx, username, password)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.Logins.WithLabelValues(metrics.ResultInvalid).Inc()
			slog.Warn("Login failed", "username", username)
			return nil, ErrInvalidCredentials
		}
		metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	rec := &record{Identity: grant.Identity, Token: grant.Token}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := m.slot.Save(ctx, payload); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	m.mu.Lock()
	m.current = rec
	m.mu.Unlock()

	metrics.Logins.WithLabelValues(metrics.ResultOK).Inc()
	slog.Info("User logged in", "user_id", rec.ID, "role", rec.Role)
	identity := rec.Identity
	return &identity, nil
}

// Restore loads the persisted identity, if any, and makes it current.
// A corrupt payload is cleared and treated as no session.
func (m *Manager) Restore(ctx context.Context) (*models.Identity, error) {
	ctx, span := m.tracer.Start(ctx, "session.restore")
	defer span.End()

	payload, err := m.slot.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	rec, err := decode(payload)
	if err != nil {
		slog.Warn("Discarding persisted session", "error", err)
		if clearErr := m.slot.Clear(ctx); clearErr != nil {
			return nil, fmt.Errorf("failed to clear corrupt session: %w", clearErr)
		}
		return nil, nil
	}

	m.mu.Lock()
	m.current = rec
	m.mu.Unlock()

	slog.Debug("Session restored", "user_id", rec.ID, "role", rec.Role)
	identity := rec.Identity
	return &identity, nil
}

// End signs out: the in-memory and persisted identity are both cleared.
func (m *Manager) End(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.slot.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}
	slog.Info("User logged out")
	return nil
}

// Current returns the signed-in identity.
func (m *Manager) Current() (models.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return models.Identity{}, false
	}
	return m.current.Identity, true
}

// Authenticated reports whether an identity is signed in.
func (m *Manager) Authenticated() bool {
	_, ok := m.Current()
	return ok
}

// Token returns the bearer token of the current session, or "".
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return ""
	}
	return m.current.Token
}

// Authorize checks that the current identity may reach area.
func (m *Manager) Authorize(area Area) error {
	identity, ok := m.Current()
	if !ok {
		return ErrNotAuthenticated
	}
	if !CanAccess(identity.Role, area) {
		return fmt.Errorf("%w: %s cannot open %s", ErrForbidden, identity.Role, area)
	}
	return nil
}

// Areas lists what the current identity may reach; empty when signed out.
func (m *Manager) Areas() []Area {
	identity, ok := m.Current()
	if !ok {
		return nil
	}
	return Areas(identity.Role)
}

// decode parses a persisted payload, rejecting anything that is not a
// complete identity.
func decode(payload []byte) (*record, error) {
	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPersistedState, err)
	}
	if rec.ID == "" || rec.Username == "" {
		return nil, fmt.Errorf("%w: missing identity fields", ErrCorruptPersistedState)
	}
	if !rec.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrCorruptPersistedState, rec.Role)
	}
	return &rec, nil
}
