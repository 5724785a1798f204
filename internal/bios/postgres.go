package bios

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"proposal-generator/internal/model"
)

const (
	pgListBios = `SELECT id::text, name, industry_experience, accreditations FROM proposal_generator.bios ORDER BY name ASC`
	pgFindBios = `SELECT id::text, name, industry_experience, accreditations FROM proposal_generator.bios WHERE id::text = ANY($1)`
)

// PostgresRepository reads bios from the proposal_generator.bios table.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListBios(ctx context.Context) ([]model.Bio, error) {
	rows, err := r.db.QueryContext(ctx, pgListBios)
	if err != nil {
		return nil, fmt.Errorf("failed to list bios: %w", err)
	}
	return scanBios(rows)
}

// FindBiosByIDs returns matching bios in store order; callers restore
// selection order with Resolve.
func (r *PostgresRepository) FindBiosByIDs(ctx context.Context, ids []string) ([]model.Bio, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, pgFindBios, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to find bios: %w", err)
	}
	return scanBios(rows)
}
