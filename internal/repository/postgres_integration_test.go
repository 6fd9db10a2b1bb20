//go:build integration

package repository

import (
	"context"
	"strings"
	"testing"

	"cultural-property-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jackc/pgx/v5/pgxpool"
)

func setupTestDatabase(t *testing.T) *Repository {
	ctx := context.Background()

	// Start PostgreSQL container with PostGIS
	req := testcontainers.ContainerRequest{
		Image:        "postgis/postgis:16-3.4",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections"),
	}

	postgresC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		postgresC.Terminate(ctx)
	})

	host, err := postgresC.Host(ctx)
	require.NoError(t, err)

	port, err := postgresC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := "postgres://testuser:testpass@" + host + ":" + port.Port() + "/testdb?sslmode=disable"

	// Connect to database
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
	})

	repo := NewRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	return repo
}

func sampleProperty(name string, lat, lon float64) *models.CulturalProperty {
	return &models.CulturalProperty{
		Name:      name,
		Type:      "史跡",
		Address:   "那覇市首里金城町",
		Latitude:  lat,
		Longitude: lon,
	}
}

func TestRepository_PropertyRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	repo := setupTestDatabase(t)
	ctx := context.Background()

	id, err := repo.CreateProperty(ctx, sampleProperty("首里城跡", 26.217, 127.719))
	require.NoError(t, err)

	got, err := repo.GetProperty(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "首里城跡", got.Name)
	assert.Equal(t, "史跡", got.Type)
	assert.InDelta(t, 26.217, got.Latitude, 1e-9)
	assert.InDelta(t, 127.719, got.Longitude, 1e-9)
	assert.Nil(t, got.CreatedBy)
	assert.Empty(t, got.Tags)
	assert.Empty(t, got.Movies)
}

func TestRepository_FindDuplicate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	repo := setupTestDatabase(t)
	ctx := context.Background()

	_, err := repo.CreateProperty(ctx, sampleProperty("首里城跡", 26.217, 127.719))
	require.NoError(t, err)

	tests := []struct {
		name      string
		propName  string
		lat, lon  float64
		wantFound bool
	}{
		{name: "exact match", propName: "首里城跡", lat: 26.217, lon: 127.719, wantFound: true},
		{name: "within tolerance", propName: "首里城跡", lat: 26.21705, lon: 127.71905, wantFound: true},
		{name: "same name too far", propName: "首里城跡", lat: 26.3, lon: 127.719, wantFound: false},
		{name: "different name same spot", propName: "別の史跡", lat: 26.217, lon: 127.719, wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dup, err := repo.FindDuplicate(ctx, tt.propName, tt.lat, tt.lon, 0.0001)
			require.NoError(t, err)
			if tt.wantFound {
				require.NotNil(t, dup)
				assert.Equal(t, "首里城跡", dup.Name)
			} else {
				assert.Nil(t, dup)
			}
		})
	}
}

func TestRepository_BulkCreateProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	repo := setupTestDatabase(t)
	ctx := context.Background()

	t.Run("all rows commit", func(t *testing.T) {
		props := []*models.CulturalProperty{
			sampleProperty("物件一", 26.1, 127.7),
			sampleProperty("物件二", 26.2, 127.8),
		}

		ids, rowErrs, err := repo.BulkCreateProperties(ctx, props)
		require.NoError(t, err)
		require.Len(t, ids, 2)
		require.Len(t, rowErrs, 2)
		assert.NoError(t, rowErrs[0])
		assert.NoError(t, rowErrs[1])

		got, err := repo.GetProperty(ctx, ids[1])
		require.NoError(t, err)
		assert.Equal(t, "物件二", got.Name)
	})

	t.Run("one bad row does not abort the rest", func(t *testing.T) {
		// The second row's name exceeds the column width.
		props := []*models.CulturalProperty{
			sampleProperty("正常な行", 26.1, 127.7),
			sampleProperty(strings.Repeat("あ", 300), 26.2, 127.8),
			sampleProperty("後続の行", 26.3, 127.9),
		}

		ids, rowErrs, err := repo.BulkCreateProperties(ctx, props)
		require.NoError(t, err)
		require.Len(t, rowErrs, 3)
		assert.NoError(t, rowErrs[0])
		assert.Error(t, rowErrs[1])
		assert.NoError(t, rowErrs[2])

		_, err = repo.GetProperty(ctx, ids[0])
		assert.NoError(t, err)
		_, err = repo.GetProperty(ctx, ids[2])
		assert.NoError(t, err)
	})

	t.Run("empty input", func(t *testing.T) {
		ids, rowErrs, err := repo.BulkCreateProperties(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.Empty(t, rowErrs)
	})
}

func TestRepository_ListProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	repo := setupTestDatabase(t)
	ctx := context.Background()

	_, err := repo.CreateProperty(ctx, sampleProperty("首里城跡", 26.217, 127.719))
	require.NoError(t, err)
	_, err = repo.CreateProperty(ctx, sampleProperty("識名園", 26.204, 127.715))
	require.NoError(t, err)

	t.Run("name filter", func(t *testing.T) {
		props, err := repo.ListProperties(ctx, models.PropertyFilter{Name: "首里"}, 50, 0)
		require.NoError(t, err)
		require.Len(t, props, 1)
		assert.Equal(t, "首里城跡", props[0].Name)
	})

	t.Run("radius filter", func(t *testing.T) {
		props, err := repo.ListProperties(ctx, models.PropertyFilter{
			Lat:      26.217,
			Lon:      127.719,
			Distance: 100,
		}, 50, 0)
		require.NoError(t, err)
		require.Len(t, props, 1)
		assert.Equal(t, "首里城跡", props[0].Name)
	})

	t.Run("no match", func(t *testing.T) {
		props, err := repo.ListProperties(ctx, models.PropertyFilter{Name: "存在しない"}, 50, 0)
		require.NoError(t, err)
		assert.Empty(t, props)
	})
}

func TestRepository_Users(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	repo := setupTestDatabase(t)
	ctx := context.Background()

	u := &models.User{
		Username:               "tarou",
		Email:                  "tarou@example.com",
		PasswordHash:           "x",
		Name:                   "田中太郎",
		EmailVerificationToken: "7b1e815e-07ad-4f44-a4a6-0a49a7a94d4a",
	}

	id, err := repo.CreateUser(ctx, u)
	require.NoError(t, err)

	got, err := repo.GetUserByUsername(ctx, "tarou")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.False(t, got.IsEmailVerified)

	byToken, err := repo.GetUserByVerificationToken(ctx, u.EmailVerificationToken)
	require.NoError(t, err)
	assert.Equal(t, id, byToken.ID)

	require.NoError(t, repo.MarkEmailVerified(ctx, id))
	got, err = repo.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.IsEmailVerified)
}
