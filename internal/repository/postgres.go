package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JGD2011, the geodetic CRS used by Japanese municipal open data.
const srid = 6668

// Repository implements the persistence layer on PostgreSQL/PostGIS.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// queryRower is the subset of pgx satisfied by both the pool and a
// transaction, so insert helpers can run in either.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ewktPoint renders coordinates as an EWKT point literal for PostGIS.
func ewktPoint(lon, lat float64) string {
	return fmt.Sprintf("SRID=%d;POINT(%f %f)", srid, lon, lat)
}

// Migrate creates the schema if it does not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	query := `
	CREATE EXTENSION IF NOT EXISTS postgis;

	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(150) NOT NULL UNIQUE,
		email VARCHAR(254) NOT NULL UNIQUE,
		password_hash VARCHAR(128) NOT NULL,
		name VARCHAR(100) NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		is_email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		email_verification_token UUID,
		email_verification_token_created_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS tags (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS cultural_properties (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(254) NOT NULL,
		name_kana VARCHAR(254) NOT NULL DEFAULT '',
		name_en VARCHAR(254) NOT NULL DEFAULT '',
		category VARCHAR(254) NOT NULL DEFAULT '',
		type VARCHAR(254) NOT NULL,
		place_name VARCHAR(254) NOT NULL DEFAULT '',
		address VARCHAR(254) NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		url VARCHAR(254) NOT NULL DEFAULT '',
		note VARCHAR(4094) NOT NULL DEFAULT '',
		geom GEOMETRY(POINT, 6668),
		created_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS cultural_properties_geom_idx ON cultural_properties USING GIST (geom);
	CREATE INDEX IF NOT EXISTS cultural_properties_name_idx ON cultural_properties (name);

	CREATE TABLE IF NOT EXISTS cultural_property_tags (
		cultural_property_id BIGINT NOT NULL REFERENCES cultural_properties(id) ON DELETE CASCADE,
		tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (cultural_property_id, tag_id)
	);

	CREATE TABLE IF NOT EXISTS movies (
		id BIGSERIAL PRIMARY KEY,
		url VARCHAR(254) NOT NULL,
		title VARCHAR(254) NOT NULL DEFAULT '',
		note VARCHAR(254) NOT NULL DEFAULT '',
		thumbnail VARCHAR(254) NOT NULL DEFAULT '',
		cultural_property_id BIGINT REFERENCES cultural_properties(id) ON DELETE SET NULL,
		created_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("repository: failed to create schema: %w", err)
	}
	return nil
}
