package repository

import (
	"context"
	"errors"
	"fmt"

	"cultural-property-api/internal/models"

	"github.com/jackc/pgx/v5"
)

// CreateTag persists one tag and returns its new id.
func (r *Repository) CreateTag(ctx context.Context, t *models.Tag) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO tags (name, description) VALUES ($1, $2) RETURNING id`,
		t.Name, t.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to insert tag: %w", err)
	}
	return id, nil
}

// GetTag fetches one tag, or pgx.ErrNoRows.
func (r *Repository) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	var t models.Tag
	err := r.db.QueryRow(ctx,
		`SELECT id, name, description FROM tags WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("repository: failed to fetch tag: %w", err)
	}
	return &t, nil
}

// ListTags returns all tags, optionally filtered by name substring.
func (r *Repository) ListTags(ctx context.Context, name string) ([]models.Tag, error) {
	sql := `SELECT id, name, description FROM tags`
	var args []any
	if name != "" {
		sql += ` WHERE name ILIKE $1`
		args = append(args, "%"+name+"%")
	}
	sql += ` ORDER BY name`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, fmt.Errorf("repository: failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating tags: %w", err)
	}
	return tags, nil
}

// UpdateTag rewrites one tag.
func (r *Repository) UpdateTag(ctx context.Context, t *models.Tag) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tags SET name = $1, description = $2 WHERE id = $3`,
		t.Name, t.Description, t.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteTag removes one tag; join rows cascade.
func (r *Repository) DeleteTag(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) tagsForProperty(ctx context.Context, propertyID int64) ([]models.Tag, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.name, t.description
		FROM tags t
		JOIN cultural_property_tags cpt ON cpt.tag_id = t.id
		WHERE cpt.cultural_property_id = $1
		ORDER BY t.name`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to fetch property tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, fmt.Errorf("repository: failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating tags: %w", err)
	}
	return tags, nil
}
