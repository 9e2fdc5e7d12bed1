package storage

import (
	"database/sql"
	"fmt"

	"coin-control/src/logger"
	"coin-control/src/models"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------
// AccountDB
//
// Backing database for the local account service: identity rows plus their
// credential rows. SQLite by default, postgres when configured. Placeholders
// use the $N form, which both drivers accept.
// -----------------------------------------------------------------------------

type AccountDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAccountDB(cfg *models.MConfig, log *logger.Logger) *AccountDB {
	return &AccountDB{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *AccountDB) Initialize() error {
	var db *sql.DB
	var err error

	switch d.Config.Storage.DBType {
	case "postgres":
		db, err = sql.Open("postgres", d.Config.Storage.DBConnectionString)
	default:
		db, err = sql.Open("sqlite", d.Config.Storage.DBPath)
	}
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if d.Config.Storage.DBType != "postgres" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
			d.Logger.Warning("Failed to set WAL mode: %v", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			d.Logger.Warning("Failed to enable foreign keys: %v", err)
		}
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *AccountDB) createTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS auth (
			id TEXT PRIMARY KEY,
			nickname TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			user_id TEXT NOT NULL REFERENCES users(id),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
	}

	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return fmt.Errorf("failed to create account tables: %w", err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *AccountDB) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
