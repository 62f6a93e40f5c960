package variants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/loadgate/internal/common"
	"github.com/dmitrijs2005/loadgate/internal/filex"
	"github.com/dmitrijs2005/loadgate/internal/logging"
	"github.com/dmitrijs2005/loadgate/internal/netx"
	"github.com/dmitrijs2005/loadgate/internal/session"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnknownVariant   = errors.New("unknown variant")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Authorizer is the slice of the session engine the service needs to gate
// downloads.
type Authorizer interface {
	AuthState() session.AuthState
}

// Service fetches the manifest and downloads variant files.
type Service struct {
	manifestURL string
	downloadDir string
	client      *http.Client
	auth        Authorizer
	log         logging.Logger
}

func NewService(manifestURL, downloadDir string, timeout time.Duration, auth Authorizer, log logging.Logger) *Service {
	return &Service{
		manifestURL: manifestURL,
		downloadDir: downloadDir,
		client:      &http.Client{Timeout: timeout},
		auth:        auth,
		log:         log,
	}
}

// Manifest fetches and validates the download manifest.
func (s *Service) Manifest(ctx context.Context) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.manifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build manifest request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch manifest: unexpected status %s", resp.Status)
	}

	var m Manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// List returns the variant names the manifest currently offers.
func (s *Service) List(ctx context.Context) ([]string, error) {
	m, err := s.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	return m.Names(), nil
}

// Download fetches every file of the named variant into the download
// directory. It refuses to run without an authenticated session. Each file
// is streamed to a temporary name, its SHA-256 verified against the
// manifest, and only then renamed into place; a failed verification leaves
// no partial file behind. Returns the final paths.
func (s *Service) Download(ctx context.Context, variant string, progress netx.ProgressFunc) ([]string, error) {
	if !s.auth.AuthState().Authenticated {
		return nil, ErrNotAuthenticated
	}

	m, err := s.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	entries, ok := m.Variants[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}

	dir, err := filex.EnsureDir(filepath.Join(s.downloadDir, variant))
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		path, err := s.downloadEntry(ctx, dir, entry, progress)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", entry.Name, err)
		}
		paths = append(paths, path)
	}
	s.log.Info(ctx, "variant downloaded", "variant", variant, "files", len(paths))
	return paths, nil
}

func (s *Service) downloadEntry(ctx context.Context, dir string, entry FileEntry, progress netx.ProgressFunc) (string, error) {
	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		return "", fmt.Errorf("temp name: %w", err)
	}
	tmpPath := filepath.Join(dir, entry.Name+"."+suffix+".part")
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", tmpPath, err)
	}

	sum, written, err := netx.DownloadToWriter(ctx, s.client, entry.URL, tmp, progress)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	if !strings.EqualFold(sum, entry.SHA256) {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: got %s, manifest says %s", ErrChecksumMismatch, sum, entry.SHA256)
	}
	if entry.Size > 0 && written != entry.Size {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("size mismatch: got %d bytes, manifest says %d", written, entry.Size)
	}

	finalPath := filepath.Join(dir, entry.Name)
	if err := filex.ReplaceFile(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return finalPath, nil
}
