package session

import (
	"context"
	"fmt"
)

// RestoreSession tries to bring a previously persisted session back to life
// without user interaction. The checks run in a fixed order and each one
// short-circuits:
//
//  1. no stored token, or device never registered: NoStoredSession
//  2. hardware identity changed since the last authentication: HWIDMismatch,
//     with a full identity reset; this is a security boundary, never retried
//  3. stored token expired: hardware-identity re-authentication, or
//     SessionExpired when that fails
//  4. clean initialize (the stored token is never sent with it), then the
//     stored token is reintroduced as the session id and validated with a
//     session check; a failed check falls back to hardware-identity
//     re-authentication before giving up
//
// Restoration must never crash the caller: any panic along this path is
// converted to a Failed result.
func (e *Engine) RestoreSession(ctx context.Context) (result RestoreResult) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error(ctx, "session restore panicked", "panic", r)
			e.publish(AuthState{}, FlowFailed)
			result = RestoreResult{Outcome: RestoreFailed, Reason: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	e.setFlow(FlowCheckingStoredSession)

	stored := e.store.StoredSessionToken(ctx)
	if stored == "" {
		e.log.Debug(ctx, "no stored session token")
		e.setFlow(FlowIdle)
		return RestoreResult{Outcome: RestoreNoStoredSession}
	}
	if !e.store.DeviceRegistered(ctx) {
		e.log.Debug(ctx, "device not registered, ignoring stored token")
		e.setFlow(FlowIdle)
		return RestoreResult{Outcome: RestoreNoStoredSession}
	}

	e.setFlow(FlowValidatingHWID)
	current, err := e.identity.HWID(ctx)
	if err != nil {
		e.publish(AuthState{}, FlowFailed)
		return RestoreResult{Outcome: RestoreFailed, Reason: fmt.Sprintf("hardware identity: %v", err)}
	}
	if recorded := e.store.LastAuthHWID(ctx); recorded != "" && recorded != current {
		e.log.Warn(ctx, "hardware identity changed since last authentication")
		if err := e.Logout(ctx); err != nil {
			e.log.Error(ctx, "failed to reset authentication data", "error", err)
		}
		e.setFlow(FlowHWIDMismatch)
		return RestoreResult{Outcome: RestoreHWIDMismatch}
	}

	if expiry := e.store.TokenExpiry(ctx); !expiry.IsZero() && e.now().After(expiry) {
		e.log.Info(ctx, "stored session token expired, attempting re-authentication")
		if _, err := e.AttemptHWIDAuth(ctx); err == nil {
			return RestoreResult{Outcome: RestoreSuccess, State: e.AuthState()}
		}
		e.setFlow(FlowSessionExpired)
		return RestoreResult{Outcome: RestoreSessionExpired}
	}

	if !e.IsInitialized() {
		if err := e.Initialize(ctx, false); err != nil {
			e.publish(AuthState{}, FlowFailed)
			return RestoreResult{Outcome: RestoreFailed, Reason: "initialization failed"}
		}
		// The only place a stored token becomes the live session id, and
		// only after a clean initialize already succeeded.
		e.mu.Lock()
		e.sessionID = stored
		e.mu.Unlock()
	}

	e.setFlow(FlowCheckingStoredSession)
	if _, err := e.CheckSession(ctx); err != nil {
		e.log.Info(ctx, "stored session rejected, attempting re-authentication", "error", err)
		if clearErr := e.store.ClearSessionToken(ctx); clearErr != nil {
			e.log.Warn(ctx, "failed to clear session token", "error", clearErr)
		}
		e.ClearSession()
		if _, authErr := e.AttemptHWIDAuth(ctx); authErr == nil {
			return RestoreResult{Outcome: RestoreSuccess, State: e.AuthState()}
		}
		e.publish(AuthState{}, FlowFailed)
		return RestoreResult{Outcome: RestoreFailed, Reason: err.Error()}
	}

	trust := e.store.TrustLevel(ctx) + 1
	if trust > 3 {
		trust = 3
	}
	if err := e.store.SetTrustLevel(ctx, trust); err != nil {
		e.log.Warn(ctx, "failed to persist trust level", "error", err)
	}

	state := AuthState{
		Authenticated:    true,
		SessionToken:     e.SessionID(),
		RefreshToken:     e.store.RefreshToken(ctx),
		Expiry:           e.store.TokenExpiry(ctx),
		HWID:             current,
		LicenseKey:       e.store.BoundLicenseKey(ctx),
		TrustLevel:       trust,
		DeviceRegistered: true,
	}
	e.publish(state, FlowAuthenticated)
	e.log.Info(ctx, "session restored", "trust", trust)
	return RestoreResult{Outcome: RestoreSuccess, State: state}
}
