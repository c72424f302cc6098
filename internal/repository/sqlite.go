package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/resonance-continuum/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteArchive stores every published snapshot. It implements pipeline.Sink
// and the history endpoint's Archive.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive opens (creating if needed) the archive at path and applies
// the schema. ":memory:" gives a throwaway archive.
func NewSQLiteArchive(path string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// One writer keeps SQLite out of "database is locked" territory and makes
	// ":memory:" behave as a single database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}

	s := &SQLiteArchive{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return s, nil
}

func (s *SQLiteArchive) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			generated_at INTEGER NOT NULL,
			psi REAL NOT NULL,
			eii REAL NOT NULL,
			cci REAL NOT NULL,
			phase TEXT NOT NULL,
			kp_index REAL NOT NULL,
			seismic_events INTEGER NOT NULL,
			synthetic INTEGER NOT NULL,
			document BLOB NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_generated_at ON snapshots(generated_at);
		CREATE INDEX IF NOT EXISTS idx_snapshots_phase ON snapshots(phase);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Name identifies the sink in logs and metrics.
func (s *SQLiteArchive) Name() string { return "sqlite" }

// Publish archives the snapshot.
func (s *SQLiteArchive) Publish(ctx context.Context, snap domain.Snapshot) error {
	_, err := s.Save(ctx, snap)
	return err
}

// Save inserts the snapshot and reports whether it was new. Saving the same
// ID twice keeps the first copy.
func (s *SQLiteArchive) Save(ctx context.Context, snap domain.Snapshot) (bool, error) {
	doc, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("serialize snapshot: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, generated_at, psi, eii, cci, phase, kp_index, seismic_events, synthetic, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		snap.ID,
		snap.GeneratedAt.UTC().UnixNano(),
		snap.Psi,
		snap.EII,
		snap.CCI,
		string(snap.Phase),
		snap.Geomag.KpIndex,
		snap.Seismic.Len(),
		snap.Seismic.Synthetic,
		doc,
	)
	if err != nil {
		return false, fmt.Errorf("insert snapshot %s: %w", snap.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert snapshot %s: %w", snap.ID, err)
	}
	return n == 1, nil
}

// Recent returns up to limit snapshots, newest first.
func (s *SQLiteArchive) Recent(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	return s.query(ctx, `SELECT document FROM snapshots ORDER BY generated_at DESC, id DESC LIMIT ?`, limit)
}

// Count returns the number of archived snapshots.
func (s *SQLiteArchive) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

func (s *SQLiteArchive) query(ctx context.Context, q string, args ...any) ([]domain.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var snap domain.Snapshot
		if err := json.Unmarshal(doc, &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *SQLiteArchive) Close() error {
	return s.db.Close()
}
