package service

import (
	"context"
	"testing"

	"cultural-property-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPropertyRepository is a mock implementation of the PropertyRepository interface
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) CreateProperty(ctx context.Context, p *models.CulturalProperty) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPropertyRepository) GetProperty(ctx context.Context, id int64) (*models.CulturalProperty, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.CulturalProperty), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPropertyRepository) ListProperties(ctx context.Context, filter models.PropertyFilter, limit, offset int) ([]models.CulturalProperty, error) {
	args := m.Called(ctx, filter, limit, offset)
	if props := args.Get(0); props != nil {
		return props.([]models.CulturalProperty), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPropertyRepository) UpdateProperty(ctx context.Context, p *models.CulturalProperty) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPropertyRepository) DeleteProperty(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPropertyRepository) SetPropertyTags(ctx context.Context, propertyID int64, tagIDs []int64) error {
	args := m.Called(ctx, propertyID, tagIDs)
	return args.Error(0)
}

func validPropertyInput() PropertyInput {
	return PropertyInput{
		Name:      "首里城跡",
		Address:   "那覇市首里金城町",
		Type:      "史跡",
		Latitude:  floatPtr(26.217),
		Longitude: floatPtr(127.719),
	}
}

func TestPropertyService_Create(t *testing.T) {
	t.Run("persists and returns the stored record", func(t *testing.T) {
		// Setup
		mockRepo := new(MockPropertyRepository)
		service := NewPropertyService(mockRepo)

		stored := &models.CulturalProperty{ID: 1, Name: "首里城跡"}
		mockRepo.On("CreateProperty", mock.Anything, mock.MatchedBy(func(p *models.CulturalProperty) bool {
			return p.Name == "首里城跡" && p.CreatedBy != nil && *p.CreatedBy == int64(7)
		})).Return(int64(1), nil)
		mockRepo.On("GetProperty", mock.Anything, int64(1)).Return(stored, nil)

		// Execute
		p, err := service.Create(context.Background(), validPropertyInput(), 7)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, stored, p)
		mockRepo.AssertExpectations(t)
	})

	t.Run("assigns tags when given", func(t *testing.T) {
		// Setup
		mockRepo := new(MockPropertyRepository)
		service := NewPropertyService(mockRepo)

		in := validPropertyInput()
		in.TagIDs = []int64{2, 3}
		mockRepo.On("CreateProperty", mock.Anything, mock.Anything).Return(int64(1), nil)
		mockRepo.On("SetPropertyTags", mock.Anything, int64(1), []int64{2, 3}).Return(nil)
		mockRepo.On("GetProperty", mock.Anything, int64(1)).Return(&models.CulturalProperty{ID: 1}, nil)

		// Execute
		_, err := service.Create(context.Background(), in, 7)

		// Assert
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*PropertyInput)
		}{
			{name: "missing name", mutate: func(in *PropertyInput) { in.Name = "" }},
			{name: "missing address", mutate: func(in *PropertyInput) { in.Address = "" }},
			{name: "missing coordinates", mutate: func(in *PropertyInput) { in.Latitude = nil }},
			{name: "latitude out of range", mutate: func(in *PropertyInput) { in.Latitude = floatPtr(51.5) }},
			{name: "longitude out of range", mutate: func(in *PropertyInput) { in.Longitude = floatPtr(-0.12) }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mockRepo := new(MockPropertyRepository)
				service := NewPropertyService(mockRepo)

				in := validPropertyInput()
				tt.mutate(&in)

				_, err := service.Create(context.Background(), in, 7)

				assert.ErrorIs(t, err, ErrInvalid)
				mockRepo.AssertNotCalled(t, "CreateProperty")
			})
		}
	})
}

func TestPropertyService_Get(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		// Setup
		mockRepo := new(MockPropertyRepository)
		service := NewPropertyService(mockRepo)

		mockRepo.On("GetProperty", mock.Anything, int64(99)).Return(nil, pgx.ErrNoRows)

		// Execute
		_, err := service.Get(context.Background(), 99)

		// Assert
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPropertyService_List(t *testing.T) {
	tests := []struct {
		name           string
		limit          int
		offset         int
		expectedLimit  int
		expectedOffset int
	}{
		{name: "defaults applied", limit: 0, offset: -1, expectedLimit: 50, expectedOffset: 0},
		{name: "limit capped", limit: 1000, offset: 10, expectedLimit: 200, expectedOffset: 10},
		{name: "passed through", limit: 20, offset: 40, expectedLimit: 20, expectedOffset: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			mockRepo := new(MockPropertyRepository)
			service := NewPropertyService(mockRepo)

			mockRepo.On("ListProperties", mock.Anything, models.PropertyFilter{}, tt.expectedLimit, tt.expectedOffset).
				Return([]models.CulturalProperty{}, nil)

			// Execute
			_, err := service.List(context.Background(), models.PropertyFilter{}, tt.limit, tt.offset)

			// Assert
			assert.NoError(t, err)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestPropertyService_Update(t *testing.T) {
	t.Run("owner may update", func(t *testing.T) {
		// Setup
		mockRepo := new(MockPropertyRepository)
		service := NewPropertyService(mockRepo)

		owner := int64(7)
		existing := &models.CulturalProperty{ID: 1, Name: "旧名", CreatedBy: &owner}
		mockRepo.On("GetProperty", mock.Anything, int64(1)).Return(existing, nil)
		mockRepo.On("UpdateProperty", mock.Anything, mock.MatchedBy(func(p *models.CulturalProperty) bool {
			return p.Name == "首里城跡"
		})).Return(nil)

		// Execute
		_, err := service.Update(context.Background(), 1, validPropertyInput(), owner)

		// Assert
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		// Setup
		mockRepo := new(MockPropertyRepository)
		service := NewPropertyService(mockRepo)

		owner := int64(7)
		mockRepo.On("GetProperty", mock.Anything, int64(1)).
			Return(&models.CulturalProperty{ID: 1, CreatedBy: &owner}, nil)

		// Execute
		_, err := service.Update(context.Background(), 1, validPropertyInput(), 8)

		// Assert
		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertNotCalled(t, "UpdateProperty")
	})

	t.Run("ownerless records stay editable", func(t *testing.T) {
		// Setup
		mockRepo := new(MockPropertyRepository)
		service := NewPropertyService(mockRepo)

		mockRepo.On("GetProperty", mock.Anything, int64(1)).
			Return(&models.CulturalProperty{ID: 1}, nil)
		mockRepo.On("UpdateProperty", mock.Anything, mock.Anything).Return(nil)

		// Execute
		_, err := service.Update(context.Background(), 1, validPropertyInput(), 8)

		// Assert
		assert.NoError(t, err)
	})
}

func TestPropertyService_Delete(t *testing.T) {
	t.Run("owner may delete", func(t *testing.T) {
		// Setup
		mockRepo := new(MockPropertyRepository)
		service := NewPropertyService(mockRepo)

		owner := int64(7)
		mockRepo.On("GetProperty", mock.Anything, int64(1)).
			Return(&models.CulturalProperty{ID: 1, CreatedBy: &owner}, nil)
		mockRepo.On("DeleteProperty", mock.Anything, int64(1)).Return(nil)

		// Execute
		err := service.Delete(context.Background(), 1, owner)

		// Assert
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		// Setup
		mockRepo := new(MockPropertyRepository)
		service := NewPropertyService(mockRepo)

		owner := int64(7)
		mockRepo.On("GetProperty", mock.Anything, int64(1)).
			Return(&models.CulturalProperty{ID: 1, CreatedBy: &owner}, nil)

		// Execute
		err := service.Delete(context.Background(), 1, 8)

		// Assert
		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertNotCalled(t, "DeleteProperty")
	})
}
