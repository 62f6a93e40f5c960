// Package authapi is a stateless wrapper around the remote
// license-validation service. It performs single calls and reports results;
// session sequencing and state ownership live in the session package.
package authapi

import "context"

// Client exposes the three remote operations the session engine depends on.
type Client interface {
	// Init registers the application with the service and yields a session
	// id. The request carries only the fixed application identity: it never
	// includes a session id.
	Init(ctx context.Context, req InitRequest) (*Response, error)

	// License authenticates a license key bound to a hardware identity
	// within an initialized session.
	License(ctx context.Context, req LicenseRequest) (*Response, error)

	// CheckSession asks the service whether a session id is still valid.
	CheckSession(ctx context.Context, req CheckRequest) (*Response, error)
}

// InitRequest carries the fixed application identity. The type intentionally
// has no session field.
type InitRequest struct {
	Version       string
	AppName       string
	OwnerID       string
	IntegrityHash string
}

type LicenseRequest struct {
	LicenseKey string
	HWID       string
	SessionID  string
	AppName    string
	OwnerID    string
}

type CheckRequest struct {
	SessionID string
	AppName   string
	OwnerID   string
}

// Response is the decoded service reply. Success=false with a message is a
// server-side rejection, not a transport error.
type Response struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	SessionID string    `json:"sessionid"`
	Info      *UserInfo `json:"info,omitempty"`
}

// UserInfo describes the authenticated user as reported by the service.
type UserInfo struct {
	Username      string         `json:"username"`
	IP            string         `json:"ip"`
	HWID          string         `json:"hwid"`
	CreateDate    string         `json:"createdate"`
	LastLogin     string         `json:"lastlogin"`
	Subscriptions []Subscription `json:"subscriptions,omitempty"`
}

type Subscription struct {
	Name     string `json:"subscription"`
	Expiry   string `json:"expiry"`
	TimeLeft int64  `json:"timeleft"`
}
