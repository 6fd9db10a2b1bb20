package service

import (
	"context"
	"errors"
	"fmt"

	"cultural-property-api/internal/models"

	"github.com/jackc/pgx/v5"
)

// TagRepository is the persistence surface for tag CRUD.
type TagRepository interface {
	CreateTag(ctx context.Context, t *models.Tag) (int64, error)
	GetTag(ctx context.Context, id int64) (*models.Tag, error)
	ListTags(ctx context.Context, name string) ([]models.Tag, error)
	UpdateTag(ctx context.Context, t *models.Tag) error
	DeleteTag(ctx context.Context, id int64) error
}

// TagService contains the business logic for tag CRUD.
type TagService struct {
	repo TagRepository
}

// NewTagService creates a new tag service.
func NewTagService(repo TagRepository) *TagService {
	return &TagService{repo: repo}
}

// Create persists a new tag.
func (s *TagService) Create(ctx context.Context, name, description string) (*models.Tag, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: nameは必須項目です", ErrInvalid)
	}
	t := &models.Tag{Name: name, Description: description}
	id, err := s.repo.CreateTag(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("service: failed to create tag: %w", err)
	}
	t.ID = id
	return t, nil
}

// Get fetches one tag.
func (s *TagService) Get(ctx context.Context, id int64) (*models.Tag, error) {
	t, err := s.repo.GetTag(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch tag: %w", err)
	}
	return t, nil
}

// List returns tags, optionally filtered by name substring.
func (s *TagService) List(ctx context.Context, name string) ([]models.Tag, error) {
	tags, err := s.repo.ListTags(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list tags: %w", err)
	}
	return tags, nil
}

// Update rewrites one tag.
func (s *TagService) Update(ctx context.Context, id int64, name, description string) (*models.Tag, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: nameは必須項目です", ErrInvalid)
	}
	t := &models.Tag{ID: id, Name: name, Description: description}
	if err := s.repo.UpdateTag(ctx, t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to update tag: %w", err)
	}
	return t, nil
}

// Delete removes one tag.
func (s *TagService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTag(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("service: failed to delete tag: %w", err)
	}
	return nil
}
