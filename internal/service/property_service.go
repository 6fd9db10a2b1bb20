package service

import (
	"context"
	"errors"
	"fmt"

	"cultural-property-api/internal/models"

	"github.com/jackc/pgx/v5"
)

// PropertyRepository is the persistence surface for cultural property CRUD.
type PropertyRepository interface {
	CreateProperty(ctx context.Context, p *models.CulturalProperty) (int64, error)
	GetProperty(ctx context.Context, id int64) (*models.CulturalProperty, error)
	ListProperties(ctx context.Context, filter models.PropertyFilter, limit, offset int) ([]models.CulturalProperty, error)
	UpdateProperty(ctx context.Context, p *models.CulturalProperty) error
	DeleteProperty(ctx context.Context, id int64) error
	SetPropertyTags(ctx context.Context, propertyID int64, tagIDs []int64) error
}

// PropertyService contains the business logic for cultural property CRUD.
type PropertyService struct {
	repo PropertyRepository
}

// NewPropertyService creates a new property service.
func NewPropertyService(repo PropertyRepository) *PropertyService {
	return &PropertyService{repo: repo}
}

// PropertyInput carries the caller-editable fields of a cultural property.
type PropertyInput struct {
	Name      string   `json:"name"`
	NameKana  string   `json:"name_kana"`
	NameEn    string   `json:"name_en"`
	Category  string   `json:"category"`
	Type      string   `json:"type"`
	PlaceName string   `json:"place_name"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	URL       string   `json:"url"`
	Note      string   `json:"note"`
	TagIDs    []int64  `json:"tag_ids"`
}

func (in *PropertyInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: nameは必須項目です", ErrInvalid)
	}
	if in.Address == "" {
		return fmt.Errorf("%w: addressは必須項目です", ErrInvalid)
	}
	if in.Latitude == nil || in.Longitude == nil {
		return fmt.Errorf("%w: latitude/longitudeは必須項目です", ErrInvalid)
	}
	if *in.Latitude < latitudeMin || *in.Latitude > latitudeMax {
		return fmt.Errorf("%w: 緯度が日本国内の範囲外です: %v", ErrInvalid, *in.Latitude)
	}
	if *in.Longitude < longitudeMin || *in.Longitude > longitudeMax {
		return fmt.Errorf("%w: 経度が日本国内の範囲外です: %v", ErrInvalid, *in.Longitude)
	}
	return nil
}

func (in *PropertyInput) apply(p *models.CulturalProperty) {
	p.Name = in.Name
	p.NameKana = in.NameKana
	p.NameEn = in.NameEn
	p.Category = in.Category
	p.Type = in.Type
	if p.Type == "" {
		p.Type = DefaultType
	}
	p.PlaceName = in.PlaceName
	p.Address = in.Address
	p.Latitude = *in.Latitude
	p.Longitude = *in.Longitude
	p.URL = in.URL
	p.Note = in.Note
}

// Create validates and persists a new cultural property owned by userID.
func (s *PropertyService) Create(ctx context.Context, in PropertyInput, userID int64) (*models.CulturalProperty, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &models.CulturalProperty{CreatedBy: &userID}
	in.apply(p)

	id, err := s.repo.CreateProperty(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("service: failed to create cultural property: %w", err)
	}
	if len(in.TagIDs) > 0 {
		if err := s.repo.SetPropertyTags(ctx, id, in.TagIDs); err != nil {
			return nil, fmt.Errorf("service: failed to set tags: %w", err)
		}
	}
	return s.Get(ctx, id)
}

// Get fetches one property with its tags and movies.
func (s *PropertyService) Get(ctx context.Context, id int64) (*models.CulturalProperty, error) {
	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch cultural property: %w", err)
	}
	return p, nil
}

// List returns properties matching the filter.
func (s *PropertyService) List(ctx context.Context, filter models.PropertyFilter, limit, offset int) ([]models.CulturalProperty, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	props, err := s.repo.ListProperties(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list cultural properties: %w", err)
	}
	return props, nil
}

// Update rewrites a property. Only the owner may update; records without an
// owner stay editable for compatibility with pre-attribution data.
func (s *PropertyService) Update(ctx context.Context, id int64, in PropertyInput, userID int64) (*models.CulturalProperty, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.CreatedBy != nil && *p.CreatedBy != userID {
		return nil, ErrForbidden
	}

	in.apply(p)
	if err := s.repo.UpdateProperty(ctx, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to update cultural property: %w", err)
	}
	if in.TagIDs != nil {
		if err := s.repo.SetPropertyTags(ctx, id, in.TagIDs); err != nil {
			return nil, fmt.Errorf("service: failed to set tags: %w", err)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a property, owner only.
func (s *PropertyService) Delete(ctx context.Context, id, userID int64) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.CreatedBy != nil && *p.CreatedBy != userID {
		return ErrForbidden
	}
	if err := s.repo.DeleteProperty(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("service: failed to delete cultural property: %w", err)
	}
	return nil
}
