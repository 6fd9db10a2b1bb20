package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cultural-property-api/internal/models"

	"github.com/jackc/pgx/v5"
)

// MovieRepository is the persistence surface for movie CRUD.
type MovieRepository interface {
	CreateMovie(ctx context.Context, m *models.Movie) (int64, error)
	GetMovie(ctx context.Context, id int64) (*models.Movie, error)
	ListMovies(ctx context.Context, filter models.MovieFilter, limit, offset int) ([]models.Movie, error)
	UpdateMovie(ctx context.Context, m *models.Movie) error
	DeleteMovie(ctx context.Context, id int64) error
}

// MovieService contains the business logic for movie CRUD.
type MovieService struct {
	repo MovieRepository
}

// NewMovieService creates a new movie service.
func NewMovieService(repo MovieRepository) *MovieService {
	return &MovieService{repo: repo}
}

// MovieInput carries the caller-editable fields of a movie.
type MovieInput struct {
	URL                string `json:"url"`
	Title              string `json:"title"`
	Note               string `json:"note"`
	Thumbnail          string `json:"thumbnail"`
	CulturalPropertyID *int64 `json:"cultural_property"`
}

func (in *MovieInput) validate() error {
	if in.URL == "" {
		return fmt.Errorf("%w: urlは必須項目です", ErrInvalid)
	}
	if !strings.HasPrefix(in.URL, "http://") && !strings.HasPrefix(in.URL, "https://") {
		return fmt.Errorf("%w: URLの形式が不正です: %s", ErrInvalid, in.URL)
	}
	return nil
}

// Create validates and persists a new movie owned by userID.
func (s *MovieService) Create(ctx context.Context, in MovieInput, userID int64) (*models.Movie, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	m := &models.Movie{
		URL:                in.URL,
		Title:              in.Title,
		Note:               in.Note,
		Thumbnail:          in.Thumbnail,
		CulturalPropertyID: in.CulturalPropertyID,
		CreatedBy:          &userID,
	}
	id, err := s.repo.CreateMovie(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("service: failed to create movie: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches one movie.
func (s *MovieService) Get(ctx context.Context, id int64) (*models.Movie, error) {
	m, err := s.repo.GetMovie(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch movie: %w", err)
	}
	return m, nil
}

// List returns movies matching the filter.
func (s *MovieService) List(ctx context.Context, filter models.MovieFilter, limit, offset int) ([]models.Movie, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	movies, err := s.repo.ListMovies(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list movies: %w", err)
	}
	return movies, nil
}

// Update rewrites a movie, owner only.
func (s *MovieService) Update(ctx context.Context, id int64, in MovieInput, userID int64) (*models.Movie, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.CreatedBy != nil && *m.CreatedBy != userID {
		return nil, ErrForbidden
	}

	m.URL = in.URL
	m.Title = in.Title
	m.Note = in.Note
	m.Thumbnail = in.Thumbnail
	m.CulturalPropertyID = in.CulturalPropertyID

	if err := s.repo.UpdateMovie(ctx, m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to update movie: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a movie, owner only.
func (s *MovieService) Delete(ctx context.Context, id, userID int64) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if m.CreatedBy != nil && *m.CreatedBy != userID {
		return ErrForbidden
	}
	if err := s.repo.DeleteMovie(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("service: failed to delete movie: %w", err)
	}
	return nil
}
