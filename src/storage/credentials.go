package storage

import (
	"database/sql"
	"fmt"

	"coin-control/src/logger"

	_ "modernc.org/sqlite"
)

// The one key the client ever persists. Nothing else is stored on this side.
const credentialKey = "session_token"

// -----------------------------------------------------------------------------
// CredentialStore
//
// Durable storage for a single opaque session token, backed by a local SQLite
// file so it survives process restarts.
// -----------------------------------------------------------------------------

type CredentialStore struct {
	Path   string
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCredentialStore(path string, log *logger.Logger) *CredentialStore {
	return &CredentialStore{
		Path:   path,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (s *CredentialStore) Initialize() error {
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	s.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		s.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		s.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS credentials (
			key TEXT PRIMARY KEY,
			token TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create credentials table: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Read returns the stored token, or "" when no credential exists.
func (s *CredentialStore) Read() (string, error) {
	var token string
	err := s.DB.QueryRow(
		"SELECT token FROM credentials WHERE key = $1", credentialKey,
	).Scan(&token)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}

	return token, nil
}

// -----------------------------------------------------------------------------

// Write stores the token under the fixed key, replacing any previous value.
func (s *CredentialStore) Write(token string) error {
	query := `
		INSERT INTO credentials (key, token, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			token = excluded.token,
			updated_at = excluded.updated_at
	`
	if _, err := s.DB.Exec(query, credentialKey, token); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Clear removes the stored token. Clearing an empty store is a no-op.
func (s *CredentialStore) Clear() error {
	if _, err := s.DB.Exec("DELETE FROM credentials WHERE key = $1", credentialKey); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *CredentialStore) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
