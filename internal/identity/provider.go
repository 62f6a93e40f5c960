// Package identity produces a stable hardware identifier for the current
// machine. The identifier is generated once from device characteristics,
// persisted in the secure store, and reused unchanged until the store is
// explicitly reset.
package identity

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/loadgate/internal/logging"
)

// Provider supplies the device hardware identifier.
type Provider interface {
	// HWID returns an existing identifier or generates and persists a new
	// one if none exists.
	HWID(ctx context.Context) (string, error)

	// Reset clears the persisted identifier so a new one is generated on
	// the next call to HWID.
	Reset(ctx context.Context) error
}

// PersistentStore is the subset of the secure store the provider needs.
type PersistentStore interface {
	StoredHWID(ctx context.Context) string
	StoreHWID(ctx context.Context, hwid string) error
	ClearHWID(ctx context.Context) error
}

// HostProvider derives the identifier from host characteristics.
type HostProvider struct {
	store PersistentStore
	log   logging.Logger

	// test seams
	attrs     func() ([]string, error)
	installID func() (string, error)
}

func NewHostProvider(store PersistentStore, log logging.Logger) *HostProvider {
	return &HostProvider{
		store:     store,
		log:       log,
		attrs:     collectHostAttrs,
		installID: machineInstallID,
	}
}

// HWID returns the persisted identifier if present; otherwise it computes a
// fingerprint from a fixed ordered list of host attributes, hashes it with
// SHA-256, persists the hex string and returns it.
//
// If attribute collection fails, a coarser MD5 fingerprint is used; if even
// that fails, a random UUID. A fallback value is still persisted so
// subsequent calls stay stable within the same install.
func (p *HostProvider) HWID(ctx context.Context) (string, error) {
	if existing := p.store.StoredHWID(ctx); strings.TrimSpace(existing) != "" {
		return existing, nil
	}

	hwid := p.generate(ctx)

	if err := p.store.StoreHWID(ctx, hwid); err != nil {
		// identifier is still usable this run, but will be regenerated
		p.log.Warn(ctx, "failed to persist hardware identifier", "error", err)
	}
	return hwid, nil
}

func (p *HostProvider) generate(ctx context.Context) string {
	attrs, err := p.attrs()
	if err == nil {
		installID, err := p.installID()
		if err != nil {
			installID = "unknown"
		}
		fingerprint := strings.Join(append(attrs, installID), "-")
		sum := sha256.Sum256([]byte(fingerprint))
		return hex.EncodeToString(sum[:])
	}

	p.log.Warn(ctx, "host attribute collection failed, using coarse fingerprint", "error", err)

	coarse, err := coarseFingerprint()
	if err == nil {
		sum := md5.Sum([]byte(coarse))
		return hex.EncodeToString(sum[:])
	}

	p.log.Warn(ctx, "coarse fingerprint failed, using random identifier", "error", err)
	return uuid.NewString()
}

// Reset clears the persisted identifier.
func (p *HostProvider) Reset(ctx context.Context) error {
	if err := p.store.ClearHWID(ctx); err != nil {
		return fmt.Errorf("clear hwid: %w", err)
	}
	return nil
}
