package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/denisbrodbeck/machineid"

	"github.com/dmitrijs2005/loadgate/internal/authapi"
	"github.com/dmitrijs2005/loadgate/internal/cli"
	"github.com/dmitrijs2005/loadgate/internal/config"
	"github.com/dmitrijs2005/loadgate/internal/identity"
	"github.com/dmitrijs2005/loadgate/internal/logging"
	"github.com/dmitrijs2005/loadgate/internal/securestore"
	"github.com/dmitrijs2005/loadgate/internal/session"
	"github.com/dmitrijs2005/loadgate/internal/variants"
)

func main() {
	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	cfg := config.LoadConfig()
	if result := cfg.Validate(); !result.Valid {
		for _, issue := range result.Issues {
			logger.Warn(ctx, "configuration issue", "issue", issue)
		}
	}

	// The store key is bound to this machine. When no machine id is
	// available the store falls back to plaintext rather than failing.
	var secret []byte
	if id, err := machineid.ProtectedID(config.AppName); err == nil {
		secret = []byte(id)
	} else {
		logger.Warn(ctx, "no machine id available, store will not be encrypted", "error", err)
	}

	store, err := securestore.Open(ctx, cfg.StorePath, secret, logger)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	provider := identity.NewHostProvider(store, logger)
	transport := authapi.NewHTTPClient(cfg.BaseURL, cfg.RequestTimeout)
	engine := session.NewEngine(transport, store, provider, logger)
	downloads := variants.NewService(cfg.ManifestURL, cfg.DownloadDir, cfg.RequestTimeout, engine, logger)

	app := cli.NewApp(cfg, engine, downloads, store)
	app.Root(ctx)
}
