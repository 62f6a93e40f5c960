package authapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *HTTPClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewHTTPClient(srv.URL, 5*time.Second)
}

func readForm(t *testing.T, r *http.Request) url.Values {
	t.Helper()
	require.NoError(t, r.ParseForm())
	return r.PostForm
}

func TestInit_SendsIdentityAndNeverASessionID(t *testing.T) {
	var got url.Values
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = readForm(t, r)
		w.Write([]byte(`{"success":true,"message":"initialized","sessionid":"s-1"}`))
	})

	resp, err := c.Init(context.Background(), InitRequest{
		Version: "1.3", AppName: "app", OwnerID: "owner", IntegrityHash: "hash",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "s-1", resp.SessionID)

	assert.Equal(t, "init", got.Get("type"))
	assert.Equal(t, "1.3", got.Get("ver"))
	assert.Equal(t, "app", got.Get("name"))
	assert.Equal(t, "owner", got.Get("ownerid"))
	assert.Equal(t, "hash", got.Get("hash"))
	_, hasSession := got["sessionid"]
	assert.False(t, hasSession, "init request must not carry a session id")
}

func TestLicense_SendsAllFields(t *testing.T) {
	var got url.Values
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = readForm(t, r)
		w.Write([]byte(`{"success":true,"message":"ok","sessionid":"s-2","info":{"username":"alice"}}`))
	})

	resp, err := c.License(context.Background(), LicenseRequest{
		LicenseKey: "KEY-1", HWID: "hw", SessionID: "s-1", AppName: "app", OwnerID: "owner",
	})
	require.NoError(t, err)
	assert.Equal(t, "s-2", resp.SessionID)
	require.NotNil(t, resp.Info)
	assert.Equal(t, "alice", resp.Info.Username)

	assert.Equal(t, "license", got.Get("type"))
	assert.Equal(t, "KEY-1", got.Get("key"))
	assert.Equal(t, "hw", got.Get("hwid"))
	assert.Equal(t, "s-1", got.Get("sessionid"))
}

func TestCheckSession_ServerRejectionIsNotAnError(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"session not found"}`))
	})

	resp, err := c.CheckSession(context.Background(), CheckRequest{SessionID: "s-9", AppName: "app", OwnerID: "owner"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "session not found", resp.Message)
}

func TestPost_Non2xxIsUnavailable(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.Init(context.Background(), InitRequest{Version: "1.3"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestPost_ConnectionErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	_, err := c.Init(context.Background(), InitRequest{Version: "1.3"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestPost_MalformedBodyIsDecodeError(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not-json`))
	})

	_, err := c.Init(context.Background(), InitRequest{Version: "1.3"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}
