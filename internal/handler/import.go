package handler

import (
	"context"
	"io"
	"net/http"

	"cultural-property-api/internal/models"
	"cultural-property-api/internal/service"

	"github.com/gin-gonic/gin"
)

// maxImportFileSize caps uploaded CSV files at 10 MiB.
const maxImportFileSize = 10 << 20

// ImportService is the service surface the import handler depends on.
type ImportService interface {
	Preview(ctx context.Context, content []byte, filename, encoding string, checkDuplicates bool) (*models.ImportPreviewResult, string, error)
	Execute(ctx context.Context, opts service.ExecuteOptions) *models.ImportExecuteResult
}

// ImportHandler handles the two-phase CSV import endpoints.
type ImportHandler struct {
	service ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(svc ImportService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// Preview handles POST /api/import/preview requests. The CSV file arrives as
// multipart form data; "encoding" defaults to auto-detection and
// "check_duplicates" defaults to on.
func (h *ImportHandler) Preview(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileは必須項目です"})
		return
	}
	if fileHeader.Size > maxImportFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ファイルサイズが大きすぎます (最大10MB)"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ファイルを読み込めません"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ファイルを読み込めません"})
		return
	}

	encoding := c.DefaultPostForm("encoding", "auto")
	checkDuplicates := c.DefaultPostForm("check_duplicates", "true") != "false"

	result, sessionID, err := h.service.Preview(c.Request.Context(), content, fileHeader.Filename, encoding, checkDuplicates)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"preview":    result,
	})
}

type executeRequest struct {
	SessionID          string `json:"session_id" binding:"required"`
	SkipErrors         *bool  `json:"skip_errors"`
	SkipDuplicates     *bool  `json:"skip_duplicates"`
	SelectedRowNumbers []int  `json:"selected_row_numbers"`
}

// Execute handles POST /api/import/execute requests, committing a previewed
// session. Both skip flags default to true.
func (h *ImportHandler) Execute(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_idは必須項目です"})
		return
	}

	boolOrDefault := func(v *bool, def bool) bool {
		if v == nil {
			return def
		}
		return *v
	}

	result := h.service.Execute(c.Request.Context(), service.ExecuteOptions{
		SessionID:          req.SessionID,
		CreatedBy:          &userID,
		SkipErrors:         boolOrDefault(req.SkipErrors, true),
		SkipDuplicates:     boolOrDefault(req.SkipDuplicates, true),
		SelectedRowNumbers: req.SelectedRowNumbers,
	})

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}
