package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/loadgate/internal/common"
	"github.com/dmitrijs2005/loadgate/internal/session"
)

// getSimpleText and getLicenseKey are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in
// tests.
var getSimpleText = GetSimpleText
var getLicenseKey = GetLicenseKey

// Login prompts for a license key (without echo) and authenticates the
// device. A remembered key is offered as the default. On success the user
// may opt into remembering the key for the next start.
//
// The key bytes are wiped before returning.
func (a *App) Login(ctx context.Context) error {
	key := a.prefs.LicenseKey(ctx)
	if key != "" && a.prefs.RememberLicense(ctx) {
		answer, err := getSimpleText(a.reader, "Use the remembered license key? (Y/n)", a.out)
		if err != nil {
			return err
		}
		if strings.EqualFold(answer, "n") {
			key = ""
		}
	}

	if key == "" {
		raw, err := getLicenseKey(a.out)
		if err != nil {
			return err
		}
		key = string(raw)
		common.WipeByteArray(raw)
	}
	if key == "" {
		fmt.Fprintln(a.out, "No license key entered.")
		return nil
	}

	resp, err := a.engine.AuthenticateWithLicenseRetry(ctx, key)
	if err != nil {
		fmt.Fprintf(a.out, "Login failed: %s\n", err)
		return err
	}

	fmt.Fprintln(a.out, "Authenticated.")
	if resp != nil && resp.Info != nil && resp.Info.Username != "" {
		fmt.Fprintf(a.out, "Welcome, %s!\n", resp.Info.Username)
	}

	if !a.prefs.RememberLicense(ctx) {
		answer, err := getSimpleText(a.reader, "Remember this license key? (y/N)", a.out)
		if err == nil && strings.EqualFold(answer, "y") {
			_ = a.prefs.SetRememberLicense(ctx, true)
		}
	}
	if a.prefs.RememberLicense(ctx) {
		if err := a.prefs.SaveLicenseKey(ctx, key); err != nil {
			fmt.Fprintf(a.out, "Could not remember the key: %s\n", err)
		}
	}
	if !a.prefs.AutoLogin(ctx) {
		answer, err := getSimpleText(a.reader, "Restore the session automatically at startup? (y/N)", a.out)
		if err == nil && strings.EqualFold(answer, "y") {
			_ = a.prefs.SetAutoLogin(ctx, true)
		}
	}
	return nil
}

// Restore attempts to bring a persisted session back without asking for
// credentials, and reports the outcome to the user.
func (a *App) Restore(ctx context.Context) error {
	res := a.engine.RestoreSession(ctx)
	switch res.Outcome {
	case session.RestoreSuccess:
		fmt.Fprintf(a.out, "Session restored (trust level %d).\n", res.State.TrustLevel)
	case session.RestoreNoStoredSession:
		fmt.Fprintln(a.out, "No stored session. Use 'login'.")
	case session.RestoreSessionExpired:
		fmt.Fprintln(a.out, "Stored session expired. Use 'login'.")
	case session.RestoreHWIDMismatch:
		fmt.Fprintln(a.out, "This device does not match the last authenticated one. Please log in again.")
	case session.RestoreFailed:
		fmt.Fprintf(a.out, "Restore failed: %s\n", res.Reason)
	}
	return nil
}

// Logout resets the device identity on the server side of the store and
// forgets the in-memory session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.engine.Logout(ctx); err != nil {
		fmt.Fprintf(a.out, "Logout failed: %s\n", err)
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// Status prints the current authentication snapshot.
func (a *App) Status(ctx context.Context) error {
	state := a.engine.AuthState()
	if !state.Authenticated {
		fmt.Fprintln(a.out, "Not authenticated.")
		if a.engine.CanAutoLogin(ctx) {
			fmt.Fprintln(a.out, "A stored session may be restorable; try 'restore'.")
		}
		return nil
	}

	fmt.Fprintln(a.out, "Authenticated.")
	if state.User != nil && state.User.Username != "" {
		fmt.Fprintf(a.out, "  user:   %s\n", state.User.Username)
	}
	fmt.Fprintf(a.out, "  trust:  %d\n", state.TrustLevel)
	if !state.Expiry.IsZero() {
		fmt.Fprintf(a.out, "  expiry: %s\n", state.Expiry.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// Diag prints the redacted diagnostic map.
func (a *App) Diag(ctx context.Context) error {
	info := a.engine.DiagnosticInfo(ctx)
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.out, "%-16s %s\n", k, info[k])
	}
	return nil
}
