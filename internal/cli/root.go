package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/loadgate/internal/session"
)

func (a *App) getStatus() string {
	state := a.engine.AuthState()
	if !state.Authenticated {
		return ""
	}
	if state.User != nil && state.User.Username != "" {
		return fmt.Sprintf("(%s)", state.User.Username)
	}
	return "(authenticated)"
}

// Root runs the interactive loop. On startup it tries to restore a stored
// session, but only when the device qualifies for auto-login and the user
// has enabled it.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to loadgate (type 'help' for commands)")

	if a.prefs.AutoLogin(ctx) && a.engine.CanAutoLogin(ctx) {
		fmt.Fprintln(a.out, "Restoring stored session...")
		res := a.engine.RestoreSession(ctx)
		if res.Outcome == session.RestoreSuccess {
			fmt.Fprintln(a.out, "Session restored.")
		} else {
			fmt.Fprintf(a.out, "Could not restore: %s\n", res.Outcome)
		}
	}

	scanner := bufio.NewScanner(a.reader)
	for {
		fmt.Fprintf(a.out, "loadgate %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isAuthenticated() {
				fmt.Fprintln(a.out, "Available commands: status, variants, download [variant], diag, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: login, restore, status, diag, exit")
			}
		case "login":
			_ = a.Login(ctx)
		case "restore":
			_ = a.Restore(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "status":
			_ = a.Status(ctx)
		case "variants":
			_ = a.Variants(ctx)
		case "download":
			variant := ""
			if len(args) > 0 {
				variant = args[0]
			}
			_ = a.Download(ctx, variant)
		case "diag":
			_ = a.Diag(ctx)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}
