package session

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/loadgate/internal/authapi"
	"github.com/dmitrijs2005/loadgate/internal/logging"
)

// fakeTransport scripts server responses and captures the last request of
// each operation for assertions.
type fakeTransport struct {
	InitCalls int
	InitErr   error
	InitResp  *authapi.Response
	LastInit  authapi.InitRequest

	LicenseCalls int
	LicenseErr   error
	LicenseResps []*authapi.Response // consumed in order; the last one repeats
	LastLicense  authapi.LicenseRequest

	CheckCalls int
	CheckErr   error
	CheckResp  *authapi.Response
	LastCheck  authapi.CheckRequest
}

func okResp(sessionID string) *authapi.Response {
	return &authapi.Response{Success: true, Message: "ok", SessionID: sessionID}
}

func rejectResp(message string) *authapi.Response {
	return &authapi.Response{Success: false, Message: message}
}

func (f *fakeTransport) Init(_ context.Context, req authapi.InitRequest) (*authapi.Response, error) {
	f.InitCalls++
	f.LastInit = req
	if f.InitErr != nil {
		return nil, f.InitErr
	}
	if f.InitResp == nil {
		return okResp("init-session"), nil
	}
	return f.InitResp, nil
}

func (f *fakeTransport) License(_ context.Context, req authapi.LicenseRequest) (*authapi.Response, error) {
	f.LicenseCalls++
	f.LastLicense = req
	if f.LicenseErr != nil {
		return nil, f.LicenseErr
	}
	if len(f.LicenseResps) == 0 {
		return okResp(""), nil
	}
	resp := f.LicenseResps[0]
	if len(f.LicenseResps) > 1 {
		f.LicenseResps = f.LicenseResps[1:]
	}
	return resp, nil
}

func (f *fakeTransport) CheckSession(_ context.Context, req authapi.CheckRequest) (*authapi.Response, error) {
	f.CheckCalls++
	f.LastCheck = req
	if f.CheckErr != nil {
		return nil, f.CheckErr
	}
	if f.CheckResp == nil {
		return okResp(""), nil
	}
	return f.CheckResp, nil
}

// fakeStore keeps session state in memory and counts destructive calls.
type fakeStore struct {
	Token      string
	Expiry     time.Time
	Refresh    string
	Registered bool
	LastHWID   string
	Bound      string
	Trust      int

	ClearTokenCalls int
	ClearAuthCalls  int
}

func (f *fakeStore) StoreSessionToken(_ context.Context, token string, expiry time.Time) error {
	f.Token = token
	f.Expiry = expiry
	return nil
}

func (f *fakeStore) StoredSessionToken(_ context.Context) string { return f.Token }

func (f *fakeStore) TokenExpiry(_ context.Context) time.Time { return f.Expiry }

func (f *fakeStore) ClearSessionToken(_ context.Context) error {
	f.ClearTokenCalls++
	f.Token = ""
	f.Expiry = time.Time{}
	return nil
}

func (f *fakeStore) RefreshToken(_ context.Context) string { return f.Refresh }

func (f *fakeStore) SetDeviceRegistered(_ context.Context, hwid, licenseKey string) error {
	f.Registered = true
	f.LastHWID = hwid
	f.Bound = licenseKey
	return nil
}

func (f *fakeStore) DeviceRegistered(_ context.Context) bool { return f.Registered }

func (f *fakeStore) LastAuthHWID(_ context.Context) string { return f.LastHWID }

func (f *fakeStore) BoundLicenseKey(_ context.Context) string { return f.Bound }

func (f *fakeStore) TrustLevel(_ context.Context) int { return f.Trust }

func (f *fakeStore) SetTrustLevel(_ context.Context, level int) error {
	if level < 0 {
		level = 0
	}
	if level > 3 {
		level = 3
	}
	f.Trust = level
	return nil
}

func (f *fakeStore) ClearAuthenticationData(_ context.Context) error {
	f.ClearAuthCalls++
	f.Token = ""
	f.Expiry = time.Time{}
	f.Refresh = ""
	f.Registered = false
	f.LastHWID = ""
	f.Bound = ""
	f.Trust = 0
	return nil
}

// fakeIdentity returns a fixed hardware identifier.
type fakeIdentity struct {
	ID       string
	Err      error
	PanicMsg string
}

func (f *fakeIdentity) HWID(_ context.Context) (string, error) {
	if f.PanicMsg != "" {
		panic(f.PanicMsg)
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.ID, nil
}

func (f *fakeIdentity) Reset(_ context.Context) error { return nil }

func newTestEngine(t *testing.T) (*Engine, *fakeTransport, *fakeStore, *fakeIdentity) {
	t.Helper()
	transport := &fakeTransport{}
	store := &fakeStore{}
	id := &fakeIdentity{ID: "hwid-current"}
	e := NewEngine(transport, store, id, logging.NewSlogDiscard())
	return e, transport, store, id
}
