// Package session implements the client's authentication engine: it
// sequences initialize, license authentication and session validation
// against the license service, persists session state through the secure
// store, and publishes authentication snapshots for observers.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/loadgate/internal/authapi"
	"github.com/dmitrijs2005/loadgate/internal/common"
	"github.com/dmitrijs2005/loadgate/internal/config"
	"github.com/dmitrijs2005/loadgate/internal/identity"
	"github.com/dmitrijs2005/loadgate/internal/logging"
)

// Store is the subset of the secure store the engine needs.
type Store interface {
	StoreSessionToken(ctx context.Context, token string, expiry time.Time) error
	StoredSessionToken(ctx context.Context) string
	TokenExpiry(ctx context.Context) time.Time
	ClearSessionToken(ctx context.Context) error
	RefreshToken(ctx context.Context) string
	SetDeviceRegistered(ctx context.Context, hwid, licenseKey string) error
	DeviceRegistered(ctx context.Context) bool
	LastAuthHWID(ctx context.Context) string
	BoundLicenseKey(ctx context.Context) string
	TrustLevel(ctx context.Context) int
	SetTrustLevel(ctx context.Context, level int) error
	ClearAuthenticationData(ctx context.Context) error
}

// Engine owns the in-memory session state. All mutations of sessionID and
// initialized, and every published snapshot replacement, happen inside mu;
// network calls run outside it.
type Engine struct {
	transport authapi.Client
	store     Store
	identity  identity.Provider
	log       logging.Logger
	now       func() time.Time

	mu          sync.Mutex
	sessionID   string
	initialized bool
	authState   AuthState
	flowState   FlowState
}

func NewEngine(transport authapi.Client, store Store, provider identity.Provider, log logging.Logger) *Engine {
	return &Engine{
		transport: transport,
		store:     store,
		identity:  provider,
		log:       log,
		now:       time.Now,
	}
}

// SessionID returns the current in-memory session id, or "" if none.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// IsInitialized reports whether the last initialize succeeded and has not
// been reset since.
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// AuthState returns the last published authentication snapshot.
func (e *Engine) AuthState() AuthState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.authState
}

// FlowState returns the last published flow state.
func (e *Engine) FlowState() FlowState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flowState
}

func (e *Engine) publish(state AuthState, flow FlowState) {
	e.mu.Lock()
	e.authState = state
	e.flowState = flow
	e.mu.Unlock()
}

func (e *Engine) setFlow(flow FlowState) {
	e.mu.Lock()
	e.flowState = flow
	e.mu.Unlock()
}

// tokenTTL maps a trust level to the lifetime of a freshly issued session
// token: repeated successful authentications earn longer sessions.
func tokenTTL(trust int) time.Duration {
	switch {
	case trust <= 0:
		return 2 * time.Hour
	case trust == 1:
		return 8 * time.Hour
	case trust == 2:
		return 24 * time.Hour
	default:
		return 48 * time.Hour
	}
}

// hwidAuthTTL is the flat token lifetime granted on a successful
// hardware-identity fallback authentication.
const hwidAuthTTL = 24 * time.Hour

// Initialize opens a server session with the fixed application identity.
// The request never carries a previously stored session token: the service
// rejects initialize calls with stale tokens, so the stored token is only
// reintroduced later by RestoreSession after a clean initialize. When
// preserveSession is false the in-memory session id is dropped first.
//
// Safe to call repeatedly; every call fully resets its preconditions.
func (e *Engine) Initialize(ctx context.Context, preserveSession bool) error {
	e.mu.Lock()
	if !preserveSession {
		e.sessionID = ""
	}
	e.initialized = false
	e.mu.Unlock()
	e.setFlow(FlowInitializing)

	resp, err := e.transport.Init(ctx, authapi.InitRequest{
		Version:       config.AppVersion,
		AppName:       config.AppName,
		OwnerID:       config.OwnerID,
		IntegrityHash: config.IntegrityHash,
	})
	if err != nil {
		e.ClearSession()
		e.setFlow(FlowFailed)
		return fmt.Errorf("initialize: %w", err)
	}
	if !resp.Success {
		if isCorruptionMessage(resp.Message) {
			e.log.Warn(ctx, "initialize hit corrupted session state, clearing", "message", resp.Message)
			e.ClearCorruptedSession(ctx)
			return fmt.Errorf("initialize: %s: %w", resp.Message, common.ErrSessionInvalid)
		}
		e.setFlow(FlowFailed)
		return fmt.Errorf("initialize rejected: %s", resp.Message)
	}

	e.mu.Lock()
	e.sessionID = resp.SessionID
	e.initialized = true
	e.flowState = FlowIdle
	e.mu.Unlock()
	e.log.Debug(ctx, "session initialized")
	return nil
}

// AuthenticateWithLicense validates the license key for this device. On
// success it persists a session token whose lifetime grows with the device
// trust level, binds the registration to the current hardware identity and
// publishes an Authenticated snapshot.
//
// When the server replied, the response is returned alongside any error so
// the caller can inspect the message.
func (e *Engine) AuthenticateWithLicense(ctx context.Context, licenseKey string) (*authapi.Response, error) {
	e.mu.Lock()
	initialized, sessionID := e.initialized, e.sessionID
	e.mu.Unlock()
	if !initialized {
		return nil, common.ErrNotInitialized
	}
	if sessionID == "" {
		return nil, fmt.Errorf("no session id available: %w", common.ErrNoSession)
	}

	hwid, err := e.identity.HWID(ctx)
	if err != nil {
		return nil, fmt.Errorf("hardware identity: %w", err)
	}

	e.setFlow(FlowAuthenticatingWithLicense)
	resp, err := e.transport.License(ctx, authapi.LicenseRequest{
		LicenseKey: licenseKey,
		HWID:       hwid,
		SessionID:  sessionID,
		AppName:    config.AppName,
		OwnerID:    config.OwnerID,
	})
	if err != nil {
		e.setFlow(FlowFailed)
		return nil, fmt.Errorf("license auth: %w", err)
	}
	if !resp.Success {
		if isCorruptionMessage(resp.Message) {
			e.log.Warn(ctx, "license auth hit corrupted session state, clearing", "message", resp.Message)
			e.ClearCorruptedSession(ctx)
			return resp, fmt.Errorf("license auth: %s: %w", resp.Message, common.ErrSessionInvalid)
		}
		e.setFlow(FlowFailed)
		return resp, fmt.Errorf("license rejected: %s", resp.Message)
	}

	if resp.SessionID != "" {
		sessionID = resp.SessionID
	}

	trust := e.store.TrustLevel(ctx)
	expiry := e.now().Add(tokenTTL(trust))
	if err := e.store.StoreSessionToken(ctx, sessionID, expiry); err != nil {
		e.log.Warn(ctx, "failed to persist session token", "error", err)
	}
	e.setFlow(FlowRegisteringDevice)
	if err := e.store.SetDeviceRegistered(ctx, hwid, licenseKey); err != nil {
		e.log.Warn(ctx, "failed to persist device registration", "error", err)
	}
	newTrust := trust + 1
	if newTrust > 3 {
		newTrust = 3
	}
	if err := e.store.SetTrustLevel(ctx, newTrust); err != nil {
		e.log.Warn(ctx, "failed to persist trust level", "error", err)
	}

	state := AuthState{
		Authenticated:    true,
		SessionToken:     sessionID,
		RefreshToken:     e.store.RefreshToken(ctx),
		Expiry:           expiry,
		HWID:             hwid,
		LicenseKey:       licenseKey,
		User:             resp.Info,
		TrustLevel:       newTrust,
		DeviceRegistered: true,
	}
	e.mu.Lock()
	e.sessionID = sessionID
	e.authState = state
	e.flowState = FlowAuthenticated
	e.mu.Unlock()

	e.log.Info(ctx, "license authenticated", "trust", newTrust)
	return resp, nil
}

// CheckSession asks the server whether the current session is still live.
// It never mutates trust; callers decide whether a successful check earns a
// trust bump. A corruption signature in the reply clears the persisted
// token and the in-memory session id, leaving device registration intact.
func (e *Engine) CheckSession(ctx context.Context) (*authapi.Response, error) {
	e.mu.Lock()
	sessionID := e.sessionID
	e.mu.Unlock()
	if sessionID == "" {
		return nil, common.ErrNoSession
	}

	resp, err := e.transport.CheckSession(ctx, authapi.CheckRequest{
		SessionID: sessionID,
		AppName:   config.AppName,
		OwnerID:   config.OwnerID,
	})
	if err != nil {
		return nil, fmt.Errorf("session check: %w", err)
	}
	if !resp.Success {
		if isCorruptionMessage(resp.Message) {
			if err := e.store.ClearSessionToken(ctx); err != nil {
				e.log.Warn(ctx, "failed to clear session token", "error", err)
			}
			e.mu.Lock()
			e.sessionID = ""
			e.mu.Unlock()
			return resp, fmt.Errorf("session check: %s: %w", resp.Message, common.ErrSessionInvalid)
		}
		return resp, fmt.Errorf("session check rejected: %s", resp.Message)
	}
	return resp, nil
}

// AttemptHWIDAuth re-authenticates using the bound license key and the
// current hardware identity, without user interaction. On success the
// persisted token gets a flat extended expiry: the device already proved
// itself, so it takes the fast path.
func (e *Engine) AttemptHWIDAuth(ctx context.Context) (*authapi.Response, error) {
	bound := e.store.BoundLicenseKey(ctx)
	if bound == "" {
		return nil, common.ErrNoBoundLicense
	}

	e.setFlow(FlowRefreshingToken)
	if !e.IsInitialized() || e.SessionID() == "" {
		if err := e.Initialize(ctx, false); err != nil {
			return nil, err
		}
	}

	resp, err := e.AuthenticateWithLicense(ctx, bound)
	if err != nil {
		return resp, err
	}

	expiry := e.now().Add(hwidAuthTTL)
	if err := e.store.StoreSessionToken(ctx, e.SessionID(), expiry); err != nil {
		e.log.Warn(ctx, "failed to extend session token", "error", err)
	}
	e.mu.Lock()
	state := e.authState
	state.Expiry = expiry
	e.authState = state
	e.mu.Unlock()
	return resp, nil
}

// AuthenticateWithLicenseRetry wraps AuthenticateWithLicense with exactly
// one retry, taken only when the failure carries a corruption signature:
// the poisoned state is cleared, a clean initialize runs, and the
// authentication is attempted once more. Any other failure class returns
// without retry. The bound of one retry is a hard invariant; it prevents
// reinitialize loops against a misbehaving or rate-limiting server.
func (e *Engine) AuthenticateWithLicenseRetry(ctx context.Context, licenseKey string) (*authapi.Response, error) {
	if !e.IsInitialized() {
		if err := e.Initialize(ctx, false); err != nil {
			return nil, err
		}
	}

	resp, err := e.AuthenticateWithLicense(ctx, licenseKey)
	if err == nil {
		return resp, nil
	}
	if !isCorruptionError(err) {
		return resp, err
	}

	e.log.Info(ctx, "retrying license auth after session corruption")
	e.ClearCorruptedSession(ctx)
	if initErr := e.Initialize(ctx, false); initErr != nil {
		return nil, initErr
	}
	return e.AuthenticateWithLicense(ctx, licenseKey)
}

// ClearSession drops the in-memory session id and initialized flag only.
func (e *Engine) ClearSession() {
	e.mu.Lock()
	e.sessionID = ""
	e.initialized = false
	e.mu.Unlock()
}

// ClearCorruptedSession resets the in-memory state, removes the persisted
// session token and publishes an Idle snapshot. Device registration and
// the bound license are preserved so the device can still attempt
// hardware-identity re-authentication.
func (e *Engine) ClearCorruptedSession(ctx context.Context) {
	if err := e.store.ClearSessionToken(ctx); err != nil {
		e.log.Warn(ctx, "failed to clear session token", "error", err)
	}
	e.mu.Lock()
	e.sessionID = ""
	e.initialized = false
	e.authState = AuthState{}
	e.flowState = FlowIdle
	e.mu.Unlock()
}

// Logout performs a complete identity reset: session token, refresh token,
// device registration, bound license and trust level are all removed. Used
// on explicit user logout and on a detected hardware identity mismatch.
func (e *Engine) Logout(ctx context.Context) error {
	err := e.store.ClearAuthenticationData(ctx)
	e.mu.Lock()
	e.sessionID = ""
	e.initialized = false
	e.authState = AuthState{}
	e.flowState = FlowIdle
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	e.log.Info(ctx, "logged out")
	return nil
}

// CanAutoLogin reports whether the device has everything it needs to
// authenticate without user interaction.
func (e *Engine) CanAutoLogin(ctx context.Context) bool {
	return e.store.DeviceRegistered(ctx) &&
		e.store.BoundLicenseKey(ctx) != "" &&
		e.store.TrustLevel(ctx) > 0
}

// ForceCleanInitialize discards any possibly corrupted local session state
// and performs a fresh initialize. Recovery entry point for callers that
// received a session-invalid error.
func (e *Engine) ForceCleanInitialize(ctx context.Context) error {
	e.ClearCorruptedSession(ctx)
	return e.Initialize(ctx, false)
}

// ValidateHWID classifies the current hardware identity against the one
// recorded at the last successful authentication, without touching the
// network. An empty recorded value counts as valid: nothing to compare.
func (e *Engine) ValidateHWID(ctx context.Context) HWIDValidation {
	current, err := e.identity.HWID(ctx)
	if err != nil {
		e.log.Error(ctx, "failed to compute hardware identity", "error", err)
		return HWIDError
	}
	recorded := e.store.LastAuthHWID(ctx)
	if recorded == "" || recorded == current {
		return HWIDValid
	}
	return HWIDChanged
}

// DiagnosticInfo returns a redacted view of the engine and store state for
// troubleshooting. Secrets are truncated, never included whole.
func (e *Engine) DiagnosticInfo(ctx context.Context) map[string]string {
	e.mu.Lock()
	sessionActive := e.sessionID != ""
	initialized := e.initialized
	flow := e.flowState
	authenticated := e.authState.Authenticated
	e.mu.Unlock()

	info := map[string]string{
		"initialized":    fmt.Sprintf("%t", initialized),
		"session_active": fmt.Sprintf("%t", sessionActive),
		"authenticated":  fmt.Sprintf("%t", authenticated),
		"flow_state":     flow.String(),
		"registered":     fmt.Sprintf("%t", e.store.DeviceRegistered(ctx)),
		"trust_level":    fmt.Sprintf("%d", e.store.TrustLevel(ctx)),
		"bound_license":  redact(e.store.BoundLicenseKey(ctx)),
		"last_auth_hwid": redact(e.store.LastAuthHWID(ctx)),
		"has_token":      fmt.Sprintf("%t", e.store.StoredSessionToken(ctx) != ""),
	}
	if expiry := e.store.TokenExpiry(ctx); !expiry.IsZero() {
		info["token_expiry"] = expiry.UTC().Format(time.RFC3339)
	}
	return info
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:8] + "***"
}

func isCorruptionError(err error) bool {
	return errors.Is(err, common.ErrSessionInvalid)
}
