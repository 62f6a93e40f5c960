package securestore

import (
	"context"
	"time"
)

// ---- license key and login preferences ----

func (s *Store) SaveLicenseKey(ctx context.Context, key string) error {
	return s.putString(ctx, keyLicenseKey, key)
}

func (s *Store) LicenseKey(ctx context.Context) string {
	return s.getString(ctx, keyLicenseKey)
}

func (s *Store) ClearLicenseKey(ctx context.Context) error {
	return s.remove(ctx, keyLicenseKey)
}

func (s *Store) SetRememberLicense(ctx context.Context, remember bool) error {
	return s.putBool(ctx, keyRememberFlag, remember)
}

func (s *Store) RememberLicense(ctx context.Context) bool {
	return s.getBool(ctx, keyRememberFlag)
}

func (s *Store) SetAutoLogin(ctx context.Context, enabled bool) error {
	return s.putBool(ctx, keyAutoLogin, enabled)
}

func (s *Store) AutoLogin(ctx context.Context) bool {
	return s.getBool(ctx, keyAutoLogin)
}

// ---- hardware identity ----

func (s *Store) StoreHWID(ctx context.Context, hwid string) error {
	return s.putString(ctx, keyHWID, hwid)
}

func (s *Store) StoredHWID(ctx context.Context) string {
	return s.getString(ctx, keyHWID)
}

func (s *Store) ClearHWID(ctx context.Context) error {
	return s.remove(ctx, keyHWID)
}

// ---- session token ----

// StoreSessionToken persists the token together with its absolute expiry.
// A zero expiry means "no expiry tracked".
func (s *Store) StoreSessionToken(ctx context.Context, token string, expiry time.Time) error {
	if err := s.putString(ctx, keySessionToken, token); err != nil {
		return err
	}
	var ms int64
	if !expiry.IsZero() {
		ms = expiry.UnixMilli()
	}
	return s.putInt64(ctx, keyTokenExpiry, ms)
}

// SessionToken returns the stored token, or "" if none is stored or the
// stored one has expired. An expired token is cleared as a side effect, so
// a second read also returns "".
func (s *Store) SessionToken(ctx context.Context) string {
	ms := s.getInt64(ctx, keyTokenExpiry)
	if ms > 0 && s.now().UnixMilli() > ms {
		s.log.Debug(ctx, "stored session token expired, clearing")
		_ = s.ClearSessionToken(ctx)
		return ""
	}
	return s.getString(ctx, keySessionToken)
}

// StoredSessionToken returns the stored token without applying the expiry
// check. Callers that need to tell "expired" apart from "absent" read this
// together with TokenExpiry.
func (s *Store) StoredSessionToken(ctx context.Context) string {
	return s.getString(ctx, keySessionToken)
}

// SessionTokenValid reports whether a non-expired session token is stored.
func (s *Store) SessionTokenValid(ctx context.Context) bool {
	return s.SessionToken(ctx) != ""
}

// TokenExpiry returns the stored absolute expiry, or the zero time if none
// is tracked.
func (s *Store) TokenExpiry(ctx context.Context) time.Time {
	ms := s.getInt64(ctx, keyTokenExpiry)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (s *Store) ClearSessionToken(ctx context.Context) error {
	return s.remove(ctx, keySessionToken, keyTokenExpiry)
}

// ---- refresh token ----

func (s *Store) StoreRefreshToken(ctx context.Context, token string) error {
	return s.putString(ctx, keyRefreshToken, token)
}

func (s *Store) RefreshToken(ctx context.Context) string {
	return s.getString(ctx, keyRefreshToken)
}

func (s *Store) ClearRefreshToken(ctx context.Context) error {
	return s.remove(ctx, keyRefreshToken)
}

// ---- device registration and trust ----

// SetDeviceRegistered marks the device as registered with the license
// service and binds the license key to the hardware identity that the
// server accepted.
func (s *Store) SetDeviceRegistered(ctx context.Context, hwid, licenseKey string) error {
	if err := s.putBool(ctx, keyRegistered, true); err != nil {
		return err
	}
	if err := s.putString(ctx, keyLastAuthHWID, hwid); err != nil {
		return err
	}
	if err := s.putString(ctx, keyBoundLicense, licenseKey); err != nil {
		return err
	}
	return s.putInt64(ctx, keyRegisteredAt, s.now().UnixMilli())
}

func (s *Store) DeviceRegistered(ctx context.Context) bool {
	return s.getBool(ctx, keyRegistered)
}

func (s *Store) LastAuthHWID(ctx context.Context) string {
	return s.getString(ctx, keyLastAuthHWID)
}

func (s *Store) BoundLicenseKey(ctx context.Context) string {
	return s.getString(ctx, keyBoundLicense)
}

// SetTrustLevel stores the device trust level, clamped to [0,3].
func (s *Store) SetTrustLevel(ctx context.Context, level int) error {
	if level < 0 {
		level = 0
	}
	if level > 3 {
		level = 3
	}
	if err := s.putInt64(ctx, keyTrustLevel, int64(level)); err != nil {
		return err
	}
	return s.putInt64(ctx, keyTrustUpdated, s.now().UnixMilli())
}

func (s *Store) TrustLevel(ctx context.Context) int {
	return int(s.getInt64(ctx, keyTrustLevel))
}

// ClearDeviceRegistration removes registration, license binding and trust
// metadata, keeping tokens and user preferences.
func (s *Store) ClearDeviceRegistration(ctx context.Context) error {
	return s.remove(ctx,
		keyRegistered, keyLastAuthHWID, keyBoundLicense,
		keyTrustLevel, keyRegisteredAt, keyTrustUpdated,
	)
}

// ClearAuthenticationData removes every authentication-related field while
// preserving user preferences (remember/auto-login flags, stored hwid).
func (s *Store) ClearAuthenticationData(ctx context.Context) error {
	return s.remove(ctx,
		keySessionToken, keyRefreshToken, keyTokenExpiry,
		keyRegistered, keyLastAuthHWID, keyBoundLicense,
		keyTrustLevel, keyRegisteredAt, keyTrustUpdated,
	)
}
