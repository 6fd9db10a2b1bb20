package handler

import (
	"context"
	"net/http"
	"strconv"

	"cultural-property-api/internal/models"
	"cultural-property-api/internal/service"

	"github.com/gin-gonic/gin"
)

// MovieService is the service surface the movie handler depends on.
type MovieService interface {
	Create(ctx context.Context, in service.MovieInput, userID int64) (*models.Movie, error)
	Get(ctx context.Context, id int64) (*models.Movie, error)
	List(ctx context.Context, filter models.MovieFilter, limit, offset int) ([]models.Movie, error)
	Update(ctx context.Context, id int64, in service.MovieInput, userID int64) (*models.Movie, error)
	Delete(ctx context.Context, id, userID int64) error
}

// MovieHandler handles movie requests.
type MovieHandler struct {
	service MovieService
}

// NewMovieHandler creates a new movie handler.
func NewMovieHandler(svc MovieService) *MovieHandler {
	return &MovieHandler{service: svc}
}

func movieFilterFromQuery(c *gin.Context) models.MovieFilter {
	var f models.MovieFilter
	f.Title = c.Query("title")
	f.CulturalPropertyID, _ = strconv.ParseInt(c.Query("cultural_property"), 10, 64)
	f.CreatedBy, _ = strconv.ParseInt(c.Query("created_by"), 10, 64)
	return f
}

// List handles GET /api/movie requests.
func (h *MovieHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	movies, err := h.service.List(c.Request.Context(), movieFilterFromQuery(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	c.JSON(http.StatusOK, movies)
}

// My handles GET /api/movie/my requests.
func (h *MovieHandler) My(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	filter := movieFilterFromQuery(c)
	filter.CreatedBy = userID
	limit, offset := pagination(c)

	movies, err := h.service.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	c.JSON(http.StatusOK, movies)
}

// Get handles GET /api/movie/:id requests.
func (h *MovieHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Create handles POST /api/movie requests.
func (h *MovieHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in service.MovieInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	m, err := h.service.Create(c.Request.Context(), in, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// Update handles PUT /api/movie/:id requests.
func (h *MovieHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in service.MovieInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	m, err := h.service.Update(c.Request.Context(), id, in, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /api/movie/:id requests.
func (h *MovieHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
