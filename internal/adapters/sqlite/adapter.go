// Package sqlite provides a SQLite-backed catalog snapshot store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/ports"
)

// ErrNoSnapshot is returned when no catalog has been saved yet.
var ErrNoSnapshot = errors.New("sqlite: no catalog snapshot")

// Snapshot describes one saved catalog version.
type Snapshot struct {
	ID        int64     `json:"id" yaml:"id"`
	Label     string    `json:"label" yaml:"label"`
	Acts      int       `json:"acts" yaml:"acts"`
	Enriched  int       `json:"enriched" yaml:"enriched"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Adapter stores every Save as a new snapshot; Load returns the latest one.
type Adapter struct {
	db    *sql.DB
	label string
}

var _ ports.CatalogStore = (*Adapter)(nil)

// NewAdapter creates a connection and runs the schema migration. label tags
// the snapshots written through this adapter (usually the festival name).
func NewAdapter(storagePath, label string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db, label: label}
	if err := adapter.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Save writes acts as a new snapshot in one transaction.
func (a *Adapter) Save(ctx context.Context, acts []domain.CandidateAct) error {
	if err := domain.ValidateCatalog(acts); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	res, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots (label, created_at) VALUES (?, ?)",
		a.label, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	snapshotID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO acts (
			snapshot_id, position, name, location, genre, spotify_link, image,
			danceability, energy, valence, acousticness
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare act insert: %w", err)
	}
	defer stmt.Close()

	for i, act := range acts {
		var dance, energy, valence, acoustic sql.NullFloat64
		if p := act.AudioProfile; p != nil {
			dance = sql.NullFloat64{Float64: p.Danceability, Valid: true}
			energy = sql.NullFloat64{Float64: p.Energy, Valid: true}
			valence = sql.NullFloat64{Float64: p.Valence, Valid: true}
			acoustic = sql.NullFloat64{Float64: p.Acousticness, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			snapshotID, i, act.Name, act.Location, act.Genre, act.SpotifyLink, act.Image,
			dance, energy, valence, acoustic,
		); err != nil {
			return fmt.Errorf("failed to save act %q: %w", act.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// Load returns the acts of the most recent snapshot in lineup order.
func (a *Adapter) Load(ctx context.Context) ([]domain.CandidateAct, error) {
	var id int64
	err := a.db.QueryRowContext(ctx, "SELECT id FROM snapshots ORDER BY id DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest snapshot: %w", err)
	}
	return a.LoadSnapshot(ctx, id)
}

// LoadSnapshot returns the acts of one snapshot in lineup order.
func (a *Adapter) LoadSnapshot(ctx context.Context, id int64) ([]domain.CandidateAct, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT name, location, genre, spotify_link, image,
			danceability, energy, valence, acousticness
		FROM acts
		WHERE snapshot_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load acts: %w", err)
	}
	defer rows.Close()

	acts := []domain.CandidateAct{}
	for rows.Next() {
		var act domain.CandidateAct
		var dance, energy, valence, acoustic sql.NullFloat64
		if err := rows.Scan(
			&act.Name, &act.Location, &act.Genre, &act.SpotifyLink, &act.Image,
			&dance, &energy, &valence, &acoustic,
		); err != nil {
			return nil, fmt.Errorf("failed to scan act: %w", err)
		}
		// a profile is stored all-or-nothing
		if dance.Valid && energy.Valid && valence.Valid && acoustic.Valid {
			act.AudioProfile = &domain.AudioProfile{
				Danceability: dance.Float64,
				Energy:       energy.Float64,
				Valence:      valence.Float64,
				Acousticness: acoustic.Float64,
			}
		}
		acts = append(acts, act)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate acts: %w", err)
	}
	if len(acts) == 0 {
		var exists int
		if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots WHERE id = ?", id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check snapshot: %w", err)
		}
		if exists == 0 {
			return nil, fmt.Errorf("%w: id %d", ErrNoSnapshot, id)
		}
	}
	return acts, nil
}

// Snapshots lists saved snapshots, newest first.
func (a *Adapter) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT s.id, s.label, s.created_at,
			COUNT(a.position),
			COUNT(a.energy)
		FROM snapshots s
		LEFT JOIN acts a ON a.snapshot_id = s.id
		GROUP BY s.id
		ORDER BY s.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var created string
		if err := rows.Scan(&s.ID, &s.Label, &created, &s.Acts, &s.Enriched); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			s.CreatedAt = t
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return out, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS acts (
		snapshot_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		genre TEXT NOT NULL DEFAULT '',
		spotify_link TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		danceability REAL,
		energy REAL,
		valence REAL,
		acousticness REAL,
		PRIMARY KEY (snapshot_id, position),
		FOREIGN KEY(snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}
	return nil
}
