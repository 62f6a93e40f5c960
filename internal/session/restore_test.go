package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/loadgate/internal/authapi"
)

func TestRestore_NoStoredToken(t *testing.T) {
	e, transport, _, _ := newTestEngine(t)

	res := e.RestoreSession(context.Background())
	assert.Equal(t, RestoreNoStoredSession, res.Outcome)
	assert.Equal(t, FlowIdle, e.FlowState())
	assert.Zero(t, transport.InitCalls)
}

func TestRestore_TokenWithoutRegistration(t *testing.T) {
	e, transport, store, _ := newTestEngine(t)
	store.Token = "tok-1"

	res := e.RestoreSession(context.Background())
	assert.Equal(t, RestoreNoStoredSession, res.Outcome)
	assert.Zero(t, transport.InitCalls)
}

func TestRestore_HWIDMismatchShortCircuits(t *testing.T) {
	e, transport, store, _ := newTestEngine(t)
	store.Token = "tok-1"
	store.Registered = true
	store.LastHWID = "hwid-previous-device"
	store.Bound = "KEY1"

	res := e.RestoreSession(context.Background())
	assert.Equal(t, RestoreHWIDMismatch, res.Outcome)
	assert.Equal(t, FlowHWIDMismatch, e.FlowState())

	// security boundary: no network traffic at all
	assert.Zero(t, transport.InitCalls)
	assert.Zero(t, transport.CheckCalls)
	assert.Zero(t, transport.LicenseCalls)

	// a changed device identity forces a full identity reset
	assert.Equal(t, 1, store.ClearAuthCalls)
	assert.False(t, store.Registered)
	assert.Empty(t, store.Bound)
}

func TestRestore_ExpiredTokenNoBoundLicense(t *testing.T) {
	e, transport, store, _ := newTestEngine(t)
	store.Token = "tok-1"
	store.Expiry = time.Now().Add(-time.Hour)
	store.Registered = true
	store.LastHWID = "hwid-current"
	// registration flag survives but the bound key is gone

	res := e.RestoreSession(context.Background())
	assert.Equal(t, RestoreSessionExpired, res.Outcome)
	assert.Equal(t, FlowSessionExpired, e.FlowState())
	assert.Zero(t, transport.LicenseCalls)
}

func TestRestore_ExpiredTokenFailedReauthEndsSessionExpired(t *testing.T) {
	e, transport, store, _ := newTestEngine(t)
	store.Token = "tok-1"
	store.Expiry = time.Now().Add(-time.Hour)
	store.Registered = true
	store.LastHWID = "hwid-current"
	store.Bound = "KEY1"
	transport.InitResp = okResp("sess-new")
	transport.LicenseResps = []*authapi.Response{rejectResp("license revoked")}

	res := e.RestoreSession(context.Background())
	assert.Equal(t, RestoreSessionExpired, res.Outcome)
	assert.Equal(t, FlowSessionExpired, e.FlowState())
}

func TestRestore_ExpiredTokenReauthenticates(t *testing.T) {
	e, transport, store, _ := newTestEngine(t)
	store.Token = "tok-1"
	store.Expiry = time.Now().Add(-time.Hour)
	store.Registered = true
	store.LastHWID = "hwid-current"
	store.Bound = "KEY1"
	store.Trust = 2
	transport.InitResp = okResp("sess-new")
	transport.LicenseResps = []*authapi.Response{okResp("S9")}

	res := e.RestoreSession(context.Background())
	require.Equal(t, RestoreSuccess, res.Outcome)
	assert.True(t, res.State.Authenticated)
	assert.Equal(t, "S9", res.State.SessionToken)
	assert.Equal(t, "KEY1", transport.LastLicense.LicenseKey)
	assert.Zero(t, transport.CheckCalls, "expired token is never validated")
}

func TestRestore_SuccessValidatesStoredToken(t *testing.T) {
	e, transport, store, _ := newTestEngine(t)
	store.Token = "tok-1"
	store.Registered = true
	store.LastHWID = "hwid-current"
	store.Bound = "KEY1"
	store.Trust = 1
	transport.InitResp = okResp("sess-from-init")

	res := e.RestoreSession(context.Background())
	require.Equal(t, RestoreSuccess, res.Outcome)

	// clean initialize first, then the stored token becomes the session id
	assert.Equal(t, 1, transport.InitCalls)
	assert.Equal(t, "tok-1", transport.LastCheck.SessionID)

	assert.True(t, res.State.Authenticated)
	assert.Equal(t, "tok-1", res.State.SessionToken)
	assert.Equal(t, "KEY1", res.State.LicenseKey)
	assert.Equal(t, 2, res.State.TrustLevel, "successful restore earns a trust bump")
	assert.Equal(t, 2, store.Trust)
	assert.Equal(t, FlowAuthenticated, e.FlowState())
	assert.True(t, e.AuthState().Authenticated)
}

func TestRestore_TrustBumpCapsAtThree(t *testing.T) {
	e, _, store, _ := newTestEngine(t)
	store.Token = "tok-1"
	store.Registered = true
	store.LastHWID = "hwid-current"
	store.Trust = 3

	res := e.RestoreSession(context.Background())
	require.Equal(t, RestoreSuccess, res.Outcome)
	assert.Equal(t, 3, store.Trust)
}

func TestRestore_CheckFailureFallsBackToHWIDAuth(t *testing.T) {
	e, transport, store, _ := newTestEngine(t)
	store.Token = "tok-1"
	store.Registered = true
	store.LastHWID = "hwid-current"
	store.Bound = "KEY1"
	transport.InitResp = okResp("sess-new")
	transport.CheckResp = rejectResp("session not found")
	transport.LicenseResps = []*authapi.Response{okResp("S7")}

	res := e.RestoreSession(context.Background())
	require.Equal(t, RestoreSuccess, res.Outcome)
	assert.Equal(t, "S7", res.State.SessionToken)
	assert.Equal(t, "KEY1", transport.LastLicense.LicenseKey)
	assert.Equal(t, 1, transport.CheckCalls)
}

func TestRestore_CheckFailureWithoutFallbackFails(t *testing.T) {
	e, transport, store, _ := newTestEngine(t)
	store.Token = "tok-1"
	store.Registered = true
	store.LastHWID = "hwid-current"
	// no bound license, so the fallback has nothing to work with
	transport.InitResp = okResp("sess-new")
	transport.CheckResp = rejectResp("session not found")

	res := e.RestoreSession(context.Background())
	require.Equal(t, RestoreFailed, res.Outcome)
	assert.Contains(t, res.Reason, "session not found")
	assert.Equal(t, FlowFailed, e.FlowState())
	assert.Empty(t, store.Token)
}

func TestRestore_InitFailureFails(t *testing.T) {
	e, transport, store, _ := newTestEngine(t)
	store.Token = "tok-1"
	store.Registered = true
	store.LastHWID = "hwid-current"
	transport.InitResp = rejectResp("server busy")

	res := e.RestoreSession(context.Background())
	require.Equal(t, RestoreFailed, res.Outcome)
	assert.Equal(t, "initialization failed", res.Reason)
	assert.Zero(t, transport.CheckCalls)
}

func TestRestore_PanicBecomesFailed(t *testing.T) {
	e, _, store, id := newTestEngine(t)
	store.Token = "tok-1"
	store.Registered = true
	id.PanicMsg = "boom"

	res := e.RestoreSession(context.Background())
	require.Equal(t, RestoreFailed, res.Outcome)
	assert.Contains(t, res.Reason, "boom")
	assert.Equal(t, FlowFailed, e.FlowState())
}
