package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cultural-property-api/internal/models"

	"github.com/jackc/pgx/v5"
)

const propertyColumns = `
	id, name, name_kana, name_en, category, type, place_name, address,
	latitude, longitude, url, note, created_by, created_at, updated_at`

func scanProperty(row pgx.Row) (*models.CulturalProperty, error) {
	var p models.CulturalProperty
	err := row.Scan(
		&p.ID, &p.Name, &p.NameKana, &p.NameEn, &p.Category, &p.Type,
		&p.PlaceName, &p.Address, &p.Latitude, &p.Longitude, &p.URL,
		&p.Note, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// insertProperty runs in either the pool or a transaction.
func insertProperty(ctx context.Context, q queryRower, p *models.CulturalProperty) (int64, error) {
	sql := `
		INSERT INTO cultural_properties
			(name, name_kana, name_en, category, type, place_name, address,
			 latitude, longitude, url, note, geom, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, ST_GeomFromEWKT($12), $13)
		RETURNING id`

	var id int64
	err := q.QueryRow(ctx, sql,
		p.Name, p.NameKana, p.NameEn, p.Category, p.Type, p.PlaceName,
		p.Address, p.Latitude, p.Longitude, p.URL, p.Note,
		ewktPoint(p.Longitude, p.Latitude), p.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to insert cultural property: %w", err)
	}
	return id, nil
}

// CreateProperty persists one cultural property and returns its new id.
func (r *Repository) CreateProperty(ctx context.Context, p *models.CulturalProperty) (int64, error) {
	return insertProperty(ctx, r.db, p)
}

// BulkCreateProperties creates every property inside one transaction. Each
// insert runs under a savepoint so a failing row is recorded and rolled back
// on its own while the surrounding transaction stays usable; the returned
// slices are aligned with props. A non-nil error means the transaction itself
// failed and nothing was written.
func (r *Repository) BulkCreateProperties(ctx context.Context, props []*models.CulturalProperty) ([]int64, []error, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("repository: failed to begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := make([]int64, len(props))
	rowErrs := make([]error, len(props))

	for i, p := range props {
		// tx.Begin on an open transaction creates a savepoint.
		sp, err := tx.Begin(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("repository: failed to create savepoint: %w", err)
		}
		id, err := insertProperty(ctx, sp, p)
		if err != nil {
			rowErrs[i] = err
			if rbErr := sp.Rollback(ctx); rbErr != nil {
				return nil, nil, fmt.Errorf("repository: failed to roll back savepoint: %w", rbErr)
			}
			continue
		}
		if err := sp.Commit(ctx); err != nil {
			return nil, nil, fmt.Errorf("repository: failed to release savepoint: %w", err)
		}
		ids[i] = id
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("repository: failed to commit import transaction: %w", err)
	}
	return ids, rowErrs, nil
}

// FindDuplicate returns an existing property whose name matches exactly and
// whose coordinates each fall within tolerance (inclusive), or nil.
func (r *Repository) FindDuplicate(ctx context.Context, name string, lat, lon, tolerance float64) (*models.CulturalProperty, error) {
	sql := `
		SELECT` + propertyColumns + `
		FROM cultural_properties
		WHERE name = $1
		  AND latitude  BETWEEN $2 AND $3
		  AND longitude BETWEEN $4 AND $5
		ORDER BY id
		LIMIT 1`

	p, err := scanProperty(r.db.QueryRow(ctx, sql,
		name, lat-tolerance, lat+tolerance, lon-tolerance, lon+tolerance))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute duplicate query: %w", err)
	}
	return p, nil
}

// GetProperty fetches one property with its tags and movies, or pgx.ErrNoRows.
func (r *Repository) GetProperty(ctx context.Context, id int64) (*models.CulturalProperty, error) {
	sql := `SELECT` + propertyColumns + ` FROM cultural_properties WHERE id = $1`
	p, err := scanProperty(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("repository: failed to fetch cultural property: %w", err)
	}

	if p.Tags, err = r.tagsForProperty(ctx, id); err != nil {
		return nil, err
	}
	if p.Movies, err = r.moviesForProperty(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProperties returns properties matching the filter, newest first.
func (r *Repository) ListProperties(ctx context.Context, filter models.PropertyFilter, limit, offset int) ([]models.CulturalProperty, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Name != "" {
		conds = append(conds, "cp.name ILIKE "+arg("%"+filter.Name+"%"))
	}
	if filter.NameEn != "" {
		conds = append(conds, "cp.name_en ILIKE "+arg("%"+filter.NameEn+"%"))
	}
	if filter.HasMovies {
		conds = append(conds, "EXISTS (SELECT 1 FROM movies m WHERE m.cultural_property_id = cp.id)")
	}
	if filter.TagID != 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM cultural_property_tags cpt WHERE cpt.cultural_property_id = cp.id AND cpt.tag_id = "+arg(filter.TagID)+")")
	}
	if filter.TagName != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM cultural_property_tags cpt JOIN tags t ON t.id = cpt.tag_id WHERE cpt.cultural_property_id = cp.id AND t.name ILIKE "+arg("%"+filter.TagName+"%")+")")
	}
	if filter.CreatedBy != 0 {
		conds = append(conds, "cp.created_by = "+arg(filter.CreatedBy))
	}
	if filter.CreatedByUsername != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM users u WHERE u.id = cp.created_by AND u.username = "+arg(filter.CreatedByUsername)+")")
	}
	if filter.Distance > 0 {
		// Radius filter in meters against the stored point.
		point := fmt.Sprintf("ST_SetSRID(ST_MakePoint(%s, %s), %d)", arg(filter.Lon), arg(filter.Lat), srid)
		conds = append(conds, fmt.Sprintf("ST_DWithin(cp.geom::geography, %s::geography, %s)", point, arg(filter.Distance)))
	}

	sql := `
		SELECT cp.id, cp.name, cp.name_kana, cp.name_en, cp.category, cp.type,
		       cp.place_name, cp.address, cp.latitude, cp.longitude, cp.url,
		       cp.note, cp.created_by, cp.created_at, cp.updated_at
		FROM cultural_properties cp`
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY cp.created_at DESC, cp.id DESC"
	sql += " LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list cultural properties: %w", err)
	}
	defer rows.Close()

	var props []models.CulturalProperty
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cultural property: %w", err)
		}
		props = append(props, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cultural properties: %w", err)
	}
	return props, nil
}

// UpdateProperty rewrites the mutable columns of an existing property,
// including the derived geometry.
func (r *Repository) UpdateProperty(ctx context.Context, p *models.CulturalProperty) error {
	sql := `
		UPDATE cultural_properties SET
			name = $1, name_kana = $2, name_en = $3, category = $4,
			type = $5, place_name = $6, address = $7, latitude = $8,
			longitude = $9, url = $10, note = $11,
			geom = ST_GeomFromEWKT($12), updated_at = now()
		WHERE id = $13`

	tag, err := r.db.Exec(ctx, sql,
		p.Name, p.NameKana, p.NameEn, p.Category, p.Type, p.PlaceName,
		p.Address, p.Latitude, p.Longitude, p.URL, p.Note,
		ewktPoint(p.Longitude, p.Latitude), p.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update cultural property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteProperty removes one property. Joined tags cascade; movies keep their
// rows with the reference cleared.
func (r *Repository) DeleteProperty(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cultural_properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cultural property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetPropertyTags replaces the tag set of a property.
func (r *Repository) SetPropertyTags(ctx context.Context, propertyID int64, tagIDs []int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin tag update: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cultural_property_tags WHERE cultural_property_id = $1`, propertyID); err != nil {
		return fmt.Errorf("repository: failed to clear property tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO cultural_property_tags (cultural_property_id, tag_id) VALUES ($1, $2)`,
			propertyID, tagID); err != nil {
			return fmt.Errorf("repository: failed to attach tag %d: %w", tagID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit tag update: %w", err)
	}
	return nil
}
