package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cultural-property-api/internal/models"

	"github.com/jackc/pgx/v5"
)

const movieColumns = `
	id, url, title, note, thumbnail, cultural_property_id, created_by,
	created_at, updated_at`

func scanMovie(row pgx.Row) (*models.Movie, error) {
	var m models.Movie
	err := row.Scan(
		&m.ID, &m.URL, &m.Title, &m.Note, &m.Thumbnail,
		&m.CulturalPropertyID, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMovie persists one movie and returns its new id.
func (r *Repository) CreateMovie(ctx context.Context, m *models.Movie) (int64, error) {
	sql := `
		INSERT INTO movies (url, title, note, thumbnail, cultural_property_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, sql,
		m.URL, m.Title, m.Note, m.Thumbnail, m.CulturalPropertyID, m.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to insert movie: %w", err)
	}
	return id, nil
}

// GetMovie fetches one movie, or pgx.ErrNoRows.
func (r *Repository) GetMovie(ctx context.Context, id int64) (*models.Movie, error) {
	m, err := scanMovie(r.db.QueryRow(ctx, `SELECT`+movieColumns+` FROM movies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("repository: failed to fetch movie: %w", err)
	}
	return m, nil
}

// ListMovies returns movies matching the filter, newest first.
func (r *Repository) ListMovies(ctx context.Context, filter models.MovieFilter, limit, offset int) ([]models.Movie, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Title != "" {
		conds = append(conds, "title ILIKE "+arg("%"+filter.Title+"%"))
	}
	if filter.CulturalPropertyID != 0 {
		conds = append(conds, "cultural_property_id = "+arg(filter.CulturalPropertyID))
	}
	if filter.CreatedBy != 0 {
		conds = append(conds, "created_by = "+arg(filter.CreatedBy))
	}

	sql := `SELECT` + movieColumns + ` FROM movies`
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY created_at DESC, id DESC LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list movies: %w", err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan movie: %w", err)
		}
		movies = append(movies, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating movies: %w", err)
	}
	return movies, nil
}

// UpdateMovie rewrites the mutable columns of an existing movie.
func (r *Repository) UpdateMovie(ctx context.Context, m *models.Movie) error {
	sql := `
		UPDATE movies SET
			url = $1, title = $2, note = $3, thumbnail = $4,
			cultural_property_id = $5, updated_at = now()
		WHERE id = $6`

	tag, err := r.db.Exec(ctx, sql, m.URL, m.Title, m.Note, m.Thumbnail, m.CulturalPropertyID, m.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteMovie removes one movie.
func (r *Repository) DeleteMovie(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) moviesForProperty(ctx context.Context, propertyID int64) ([]models.Movie, error) {
	rows, err := r.db.Query(ctx,
		`SELECT`+movieColumns+` FROM movies WHERE cultural_property_id = $1 ORDER BY id`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to fetch property movies: %w", err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan movie: %w", err)
		}
		movies = append(movies, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating movies: %w", err)
	}
	return movies, nil
}
