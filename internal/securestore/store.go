// Package securestore is an encrypted key-value store for credentials,
// tokens, flags and device-trust metadata. Values are sealed with AES-GCM
// using a key derived from machine-bound secret material; if no secret is
// available the store degrades to plaintext rather than failing, so
// persistence keeps working on hosts where the machine id cannot be read.
package securestore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/loadgate/internal/common"
	"github.com/dmitrijs2005/loadgate/internal/cryptox"
	"github.com/dmitrijs2005/loadgate/internal/dbx"
	"github.com/dmitrijs2005/loadgate/internal/logging"
	"github.com/dmitrijs2005/loadgate/internal/securestore/migrations"
)

// Physical keys of the secrets table. Kept private: callers use the typed
// accessors in fields.go.
const (
	keyLicenseKey    = "license_key"
	keyRememberFlag  = "remember_license"
	keyAutoLogin     = "auto_login"
	keyHWID          = "device_hwid"
	keySessionToken  = "session_token"
	keyRefreshToken  = "refresh_token"
	keyTokenExpiry   = "token_expiry"
	keyRegistered    = "device_registered"
	keyLastAuthHWID  = "last_auth_hwid"
	keyBoundLicense  = "bound_license_key"
	keyTrustLevel    = "device_trust_level"
	keyRegisteredAt  = "registration_timestamp"
	keyTrustUpdated  = "last_trust_update"
	keyStoreSalt     = "store_salt"
)

// Store persists sensitive client state in a local sqlite database.
// All domain accessors deliberately swallow read errors and return zero
// values: persistence problems degrade the client to "no stored state",
// they never break an authentication flow.
type Store struct {
	db     *sql.DB
	cipher *cryptox.Sealer
	log    logging.Logger

	// test seam
	now func() time.Time
}

// Open opens (creating if needed) the store database at dsn, runs schema
// migrations, and derives the value-encryption key from secret. A nil or
// empty secret leaves the store in degraded plaintext mode.
func Open(ctx context.Context, dsn string, secret []byte, log logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	s := &Store{db: db, log: log, now: time.Now}

	if len(secret) > 0 {
		salt, err := s.ensureSalt(ctx)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		c, err := cryptox.NewSealer(cryptox.DeriveKey(secret, salt))
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		s.cipher = c
	} else {
		log.Warn(ctx, "no machine secret available, store falls back to plaintext values")
	}

	return s, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Degraded reports whether values are being stored without encryption.
func (s *Store) Degraded() bool {
	return s.cipher == nil
}

// ensureSalt returns the persisted key-derivation salt, generating and
// storing one on first use. The salt itself is not sensitive and is kept
// in plaintext.
func (s *Store) ensureSalt(ctx context.Context) ([]byte, error) {
	salt, err := s.getRaw(ctx, keyStoreSalt)
	if err != nil {
		return nil, err
	}
	if len(salt) > 0 {
		return salt, nil
	}
	salt = common.GenerateRandByteArray(32)
	if err := s.putRaw(ctx, keyStoreSalt, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// ---- raw kv layer (unencrypted) ----

func (s *Store) getRaw(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM secrets WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get secrets[%s]: %w", key, err)
	}
	return value, nil
}

func (s *Store) putRaw(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO secrets (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set secrets[%s]: %w", key, err)
	}
	return nil
}

// ---- typed layer (encrypted when a cipher is present) ----

func (s *Store) putString(ctx context.Context, key, value string) error {
	data := []byte(value)
	if s.cipher != nil {
		data = s.cipher.Seal(data)
	}
	return s.putRaw(ctx, key, data)
}

func (s *Store) getString(ctx context.Context, key string) string {
	data, err := s.getRaw(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "store read failed", "key", key, "error", err)
		return ""
	}
	if data == nil {
		return ""
	}
	if s.cipher != nil {
		plain, err := s.cipher.Open(data)
		if err != nil {
			s.log.Warn(ctx, "store value unreadable", "key", key, "error", err)
			return ""
		}
		return string(plain)
	}
	return string(data)
}

func (s *Store) putInt64(ctx context.Context, key string, value int64) error {
	return s.putString(ctx, key, strconv.FormatInt(value, 10))
}

func (s *Store) getInt64(ctx context.Context, key string) int64 {
	v := s.getString(ctx, key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		s.log.Warn(ctx, "store value not an integer", "key", key, "error", err)
		return 0
	}
	return n
}

func (s *Store) putBool(ctx context.Context, key string, value bool) error {
	return s.putString(ctx, key, strconv.FormatBool(value))
}

func (s *Store) getBool(ctx context.Context, key string) bool {
	return s.getString(ctx, key) == "true"
}

// remove deletes the given keys in a single transaction.
func (s *Store) remove(ctx context.Context, keys ...string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM secrets WHERE key = ?`, key); err != nil {
				return fmt.Errorf("failed to delete secrets[%s]: %w", key, err)
			}
		}
		return nil
	})
}

// Clear wipes the entire store, including the derivation salt.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM secrets`)
	if err != nil {
		return fmt.Errorf("failed to clear secrets: %w", err)
	}
	return nil
}
