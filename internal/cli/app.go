package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/loadgate/internal/authapi"
	"github.com/dmitrijs2005/loadgate/internal/config"
	"github.com/dmitrijs2005/loadgate/internal/netx"
	"github.com/dmitrijs2005/loadgate/internal/session"
)

// AuthEngine is the slice of the session engine the CLI drives.
type AuthEngine interface {
	Initialize(ctx context.Context, preserveSession bool) error
	AuthenticateWithLicenseRetry(ctx context.Context, licenseKey string) (*authapi.Response, error)
	RestoreSession(ctx context.Context) session.RestoreResult
	Logout(ctx context.Context) error
	CanAutoLogin(ctx context.Context) bool
	AuthState() session.AuthState
	DiagnosticInfo(ctx context.Context) map[string]string
}

// VariantService lists and downloads application variants.
type VariantService interface {
	List(ctx context.Context) ([]string, error)
	Download(ctx context.Context, variant string, progress netx.ProgressFunc) ([]string, error)
}

// Prefs is the slice of the secure store holding login preferences.
type Prefs interface {
	SaveLicenseKey(ctx context.Context, key string) error
	LicenseKey(ctx context.Context) string
	SetRememberLicense(ctx context.Context, remember bool) error
	RememberLicense(ctx context.Context) bool
	SetAutoLogin(ctx context.Context, enabled bool) error
	AutoLogin(ctx context.Context) bool
}

type App struct {
	config   *config.Config
	engine   AuthEngine
	variants VariantService
	prefs    Prefs
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config, engine AuthEngine, variants VariantService, prefs Prefs) *App {
	return &App{
		config:   c,
		engine:   engine,
		variants: variants,
		prefs:    prefs,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

func (a *App) isAuthenticated() bool {
	return a.engine.AuthState().Authenticated
}
