package session

import (
	"time"

	"github.com/dmitrijs2005/loadgate/internal/authapi"
)

// FlowState describes where the engine currently is in its authentication
// flow. Observers read it together with AuthState to drive UI.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowInitializing
	FlowCheckingStoredSession
	FlowValidatingHWID
	FlowAuthenticatingWithLicense
	FlowRefreshingToken
	FlowRegisteringDevice
	FlowAuthenticated
	FlowSessionExpired
	FlowHWIDMismatch
	FlowFailed
)

func (f FlowState) String() string {
	switch f {
	case FlowIdle:
		return "idle"
	case FlowInitializing:
		return "initializing"
	case FlowCheckingStoredSession:
		return "checking stored session"
	case FlowValidatingHWID:
		return "validating hardware identity"
	case FlowAuthenticatingWithLicense:
		return "authenticating with license"
	case FlowRefreshingToken:
		return "refreshing token"
	case FlowRegisteringDevice:
		return "registering device"
	case FlowAuthenticated:
		return "authenticated"
	case FlowSessionExpired:
		return "session expired"
	case FlowHWIDMismatch:
		return "hardware identity mismatch"
	case FlowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// AuthState is the published authentication snapshot. The engine replaces
// it as a whole on every successful operation; it is never mutated field
// by field, so observers cannot see a torn read.
type AuthState struct {
	Authenticated    bool
	SessionToken     string
	RefreshToken     string
	Expiry           time.Time
	HWID             string
	LicenseKey       string
	User             *authapi.UserInfo
	TrustLevel       int
	DeviceRegistered bool
}

// RestoreOutcome enumerates the ways a session restoration can end.
// Callers branch on it as data, not on error values.
type RestoreOutcome int

const (
	RestoreNoStoredSession RestoreOutcome = iota
	RestoreSessionExpired
	RestoreHWIDMismatch
	RestoreSuccess
	RestoreFailed
)

func (o RestoreOutcome) String() string {
	switch o {
	case RestoreNoStoredSession:
		return "no stored session"
	case RestoreSessionExpired:
		return "session expired"
	case RestoreHWIDMismatch:
		return "hardware identity mismatch"
	case RestoreSuccess:
		return "success"
	case RestoreFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RestoreResult is the result of RestoreSession. State is populated only
// when Outcome is RestoreSuccess; Reason only when it is RestoreFailed.
type RestoreResult struct {
	Outcome RestoreOutcome
	State   AuthState
	Reason  string
}

// HWIDValidation classifies the current hardware identity against the one
// recorded at the last successful authentication.
type HWIDValidation int

const (
	HWIDValid HWIDValidation = iota
	HWIDChanged
	HWIDError
)

func (v HWIDValidation) String() string {
	switch v {
	case HWIDValid:
		return "valid"
	case HWIDChanged:
		return "changed"
	case HWIDError:
		return "error"
	default:
		return "unknown"
	}
}
