package handler

import (
	"context"
	"net/http"
	"strconv"

	"cultural-property-api/internal/models"
	"cultural-property-api/internal/service"

	"github.com/gin-gonic/gin"
)

// PropertyService is the service surface the property handler depends on.
type PropertyService interface {
	Create(ctx context.Context, in service.PropertyInput, userID int64) (*models.CulturalProperty, error)
	Get(ctx context.Context, id int64) (*models.CulturalProperty, error)
	List(ctx context.Context, filter models.PropertyFilter, limit, offset int) ([]models.CulturalProperty, error)
	Update(ctx context.Context, id int64, in service.PropertyInput, userID int64) (*models.CulturalProperty, error)
	Delete(ctx context.Context, id, userID int64) error
}

// PropertyHandler handles cultural property requests.
type PropertyHandler struct {
	service PropertyService
}

// NewPropertyHandler creates a new property handler.
func NewPropertyHandler(svc PropertyService) *PropertyHandler {
	return &PropertyHandler{service: svc}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func propertyFilterFromQuery(c *gin.Context) models.PropertyFilter {
	var f models.PropertyFilter
	f.Name = c.Query("name")
	f.NameEn = c.Query("name_en")
	f.HasMovies = c.Query("has_movies") == "true"
	f.TagID, _ = strconv.ParseInt(c.Query("tag_id"), 10, 64)
	f.TagName = c.Query("tag_name")
	f.CreatedBy, _ = strconv.ParseInt(c.Query("created_by"), 10, 64)
	f.CreatedByUsername = c.Query("created_by_username")
	f.Lat, _ = strconv.ParseFloat(c.Query("lat"), 64)
	f.Lon, _ = strconv.ParseFloat(c.Query("lon"), 64)
	f.Distance, _ = strconv.ParseFloat(c.Query("distance"), 64)
	return f
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}

// List handles GET /api/cultural_property requests.
//
//	@Summary  List cultural properties
//	@Produce  json
//	@Success  200 {array} models.CulturalProperty
//	@Router   /cultural_property [get]
func (h *PropertyHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	props, err := h.service.List(c.Request.Context(), propertyFilterFromQuery(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if props == nil {
		props = []models.CulturalProperty{}
	}
	c.JSON(http.StatusOK, props)
}

// My handles GET /api/cultural_property/my requests.
func (h *PropertyHandler) My(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	filter := propertyFilterFromQuery(c)
	filter.CreatedBy = userID
	limit, offset := pagination(c)

	props, err := h.service.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if props == nil {
		props = []models.CulturalProperty{}
	}
	c.JSON(http.StatusOK, props)
}

// Get handles GET /api/cultural_property/:id requests.
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Create handles POST /api/cultural_property requests.
func (h *PropertyHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in service.PropertyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p, err := h.service.Create(c.Request.Context(), in, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update handles PUT /api/cultural_property/:id requests.
func (h *PropertyHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in service.PropertyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p, err := h.service.Update(c.Request.Context(), id, in, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /api/cultural_property/:id requests.
func (h *PropertyHandler) Delete(c *gin.Context) {
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
