package handler

import (
	"context"
	"net/http"

	"cultural-property-api/internal/models"

	"github.com/gin-gonic/gin"
)

// TagService is the service surface the tag handler depends on.
type TagService interface {
	Create(ctx context.Context, name, description string) (*models.Tag, error)
	Get(ctx context.Context, id int64) (*models.Tag, error)
	List(ctx context.Context, name string) ([]models.Tag, error)
	Update(ctx context.Context, id int64, name, description string) (*models.Tag, error)
	Delete(ctx context.Context, id int64) error
}

// TagHandler handles tag requests.
type TagHandler struct {
	service TagService
}

// NewTagHandler creates a new tag handler.
func NewTagHandler(svc TagService) *TagHandler {
	return &TagHandler{service: svc}
}

type tagInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List handles GET /api/tag requests.
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.service.List(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	c.JSON(http.StatusOK, tags)
}

// Get handles GET /api/tag/:id requests.
func (h *TagHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Create handles POST /api/tag requests.
func (h *TagHandler) Create(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	var in tagInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	t, err := h.service.Create(c.Request.Context(), in.Name, in.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// Update handles PUT /api/tag/:id requests.
func (h *TagHandler) Update(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in tagInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	t, err := h.service.Update(c.Request.Context(), id, in.Name, in.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /api/tag/:id requests.
func (h *TagHandler) Delete(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
