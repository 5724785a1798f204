package bios

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"proposal-generator/internal/model"
)

// Repository reads bios. Implementations are safe for concurrent use.
type Repository interface {
	ListBios(ctx context.Context) ([]model.Bio, error)
	FindBiosByIDs(ctx context.Context, ids []string) ([]model.Bio, error)
}

// Open picks the store from the URL scheme: postgres:// and postgresql://
// use PostgreSQL, anything else is treated as a SQLite path with an optional
// "sqlite:" prefix.
func Open(ctx context.Context, url string) (Repository, func() error, error) {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		db, err := sql.Open("postgres", url)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to reach postgres: %w", err)
		}
		return NewPostgresRepository(db), db.Close, nil
	}

	s, err := NewSQLiteRepository(ctx, strings.TrimPrefix(url, "sqlite:"))
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

func scanBios(rows *sql.Rows) ([]model.Bio, error) {
	defer rows.Close()

	var out []model.Bio
	for rows.Next() {
		var (
			b          model.Bio
			experience sql.NullString
			accred     sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Name, &experience, &accred); err != nil {
			return nil, fmt.Errorf("failed to scan bio: %w", err)
		}
		b.IndustryExperience = experience.String
		if accred.Valid && accred.String != "" {
			a := accred.String
			b.Accreditations = &a
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bios: %w", err)
	}
	return out, nil
}
