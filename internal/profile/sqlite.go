package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pokemcp/pkg/logging"
)

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path. The schema is
// created if it does not exist.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logging.Info(subsystem, "SQLite profile store initialized at %s", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			favorite_pokemon TEXT NOT NULL DEFAULT '[]',
			battle_teams TEXT NOT NULL DEFAULT '{}',
			usage_stats TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL
		);
	`)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, userID string) *Profile {
	var (
		p                       Profile
		favorites, teams, stats string
		createdAt               string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, favorite_pokemon, battle_teams, usage_stats, created_at FROM profiles WHERE id = ?`,
		userID,
	).Scan(&p.ID, &p.Email, &favorites, &teams, &stats, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		logging.Error(subsystem, err, "Failed to fetch profile for %s", userID)
		return nil
	}

	if err := json.Unmarshal([]byte(favorites), &p.FavoritePokemon); err != nil {
		logging.Error(subsystem, err, "Corrupt favorite_pokemon for %s", userID)
		return nil
	}
	if err := json.Unmarshal([]byte(teams), &p.BattleTeams); err != nil {
		logging.Error(subsystem, err, "Corrupt battle_teams for %s", userID)
		return nil
	}
	if err := json.Unmarshal([]byte(stats), &p.UsageStats); err != nil {
		logging.Error(subsystem, err, "Corrupt usage_stats for %s", userID)
		return nil
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		logging.Warn(subsystem, "Unparseable created_at for %s", userID)
	}

	return normalize(&p)
}

// Create implements Store.
func (s *SQLiteStore) Create(ctx context.Context, userID, email string) bool {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, favorite_pokemon, battle_teams, usage_stats, created_at) VALUES (?, ?, '[]', '{}', '{}', ?)`,
		userID, email, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		logging.Error(subsystem, err, "Failed to create profile for %s", userID)
		return false
	}

	logging.Info(subsystem, "Created profile for %s", userID)
	return true
}
