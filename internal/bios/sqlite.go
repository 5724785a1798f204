package bios

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"proposal-generator/internal/model"
)

// SQLiteRepository is a local bio store for development and tests.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates or opens a SQLite database at path.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	r := &SQLiteRepository{db: db}
	if err := r.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return r, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) initSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS bios (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		industry_experience TEXT,
		accreditations TEXT
	);`)
	return err
}

// Save upserts bios. Writes belong to administration tooling, not to
// proposal generation.
func (r *SQLiteRepository) Save(ctx context.Context, bios ...model.Bio) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, b := range bios {
		var accred any
		if b.Accreditations != nil {
			accred = *b.Accreditations
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bios (id, name, industry_experience, accreditations) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				industry_experience = excluded.industry_experience,
				accreditations = excluded.accreditations`,
			b.ID, b.Name, b.IndustryExperience, accred)
		if err != nil {
			return fmt.Errorf("failed to save bio %s: %w", b.ID, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListBios(ctx context.Context) ([]model.Bio, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, industry_experience, accreditations FROM bios ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bios: %w", err)
	}
	return scanBios(rows)
}

func (r *SQLiteRepository) FindBiosByIDs(ctx context.Context, ids []string) ([]model.Bio, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, industry_experience, accreditations FROM bios WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find bios: %w", err)
	}
	return scanBios(rows)
}
