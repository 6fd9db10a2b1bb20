package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cultural-property-api/internal/models"
	"cultural-property-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockImportService is a mock implementation of the ImportService interface
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Preview(ctx context.Context, content []byte, filename, encoding string, checkDuplicates bool) (*models.ImportPreviewResult, string, error) {
	args := m.Called(ctx, content, filename, encoding, checkDuplicates)
	if r := args.Get(0); r != nil {
		return r.(*models.ImportPreviewResult), args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}

func (m *MockImportService) Execute(ctx context.Context, opts service.ExecuteOptions) *models.ImportExecuteResult {
	args := m.Called(ctx, opts)
	return args.Get(0).(*models.ImportExecuteResult)
}

func multipartBody(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func testContext(w *httptest.ResponseRecorder, req *http.Request, userID int64) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if userID > 0 {
		c.Set(userIDKey, userID)
	}
	return c
}

func TestImportHandler_Preview(t *testing.T) {
	gin.SetMode(gin.TestMode)

	csvContent := "名称,住所,種類,緯度,経度\n首里城跡,那覇市,史跡,26.217,127.719\n"

	t.Run("uploads the file and returns the session", func(t *testing.T) {
		// Setup
		mockSvc := new(MockImportService)
		handler := NewImportHandler(mockSvc)

		preview := &models.ImportPreviewResult{Filename: "data.csv", TotalRows: 1, ValidRows: 1}
		mockSvc.On("Preview", mock.Anything, []byte(csvContent), "data.csv", "auto", true).
			Return(preview, "session-1", nil)

		body, contentType := multipartBody(t, nil, "data.csv", csvContent)
		req := httptest.NewRequest(http.MethodPost, "/api/import/preview", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		// Execute
		handler.Preview(testContext(w, req, 7))

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			SessionID string                      `json:"session_id"`
			Preview   *models.ImportPreviewResult `json:"preview"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "session-1", resp.SessionID)
		assert.Equal(t, 1, resp.Preview.TotalRows)
		mockSvc.AssertExpectations(t)
	})

	t.Run("explicit encoding and disabled duplicate check", func(t *testing.T) {
		// Setup
		mockSvc := new(MockImportService)
		handler := NewImportHandler(mockSvc)

		mockSvc.On("Preview", mock.Anything, mock.Anything, "data.csv", "shift-jis", false).
			Return(&models.ImportPreviewResult{}, "session-2", nil)

		body, contentType := multipartBody(t, map[string]string{
			"encoding":         "shift-jis",
			"check_duplicates": "false",
		}, "data.csv", csvContent)
		req := httptest.NewRequest(http.MethodPost, "/api/import/preview", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		// Execute
		handler.Preview(testContext(w, req, 7))

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		// Setup
		mockSvc := new(MockImportService)
		handler := NewImportHandler(mockSvc)

		body, contentType := multipartBody(t, map[string]string{"encoding": "auto"}, "", "")
		req := httptest.NewRequest(http.MethodPost, "/api/import/preview", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		// Execute
		handler.Preview(testContext(w, req, 7))

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockSvc.AssertNotCalled(t, "Preview")
	})

	t.Run("anonymous request", func(t *testing.T) {
		// Setup
		mockSvc := new(MockImportService)
		handler := NewImportHandler(mockSvc)

		body, contentType := multipartBody(t, nil, "data.csv", csvContent)
		req := httptest.NewRequest(http.MethodPost, "/api/import/preview", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		// Execute
		handler.Preview(testContext(w, req, 0))

		// Assert
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockSvc.AssertNotCalled(t, "Preview")
	})

	t.Run("parse error from the service", func(t *testing.T) {
		// Setup
		mockSvc := new(MockImportService)
		handler := NewImportHandler(mockSvc)

		mockSvc.On("Preview", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, "", assert.AnError)

		body, contentType := multipartBody(t, nil, "data.csv", "broken")
		req := httptest.NewRequest(http.MethodPost, "/api/import/preview", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		// Execute
		handler.Preview(testContext(w, req, 7))

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestImportHandler_Execute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("commits with defaulted skip flags", func(t *testing.T) {
		// Setup
		mockSvc := new(MockImportService)
		handler := NewImportHandler(mockSvc)

		userID := int64(7)
		mockSvc.On("Execute", mock.Anything, mock.MatchedBy(func(opts service.ExecuteOptions) bool {
			return opts.SessionID == "session-1" &&
				opts.SkipErrors && opts.SkipDuplicates &&
				opts.CreatedBy != nil && *opts.CreatedBy == userID
		})).Return(&models.ImportExecuteResult{Success: true, ImportedCount: 2})

		req := httptest.NewRequest(http.MethodPost, "/api/import/execute",
			strings.NewReader(`{"session_id":"session-1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		// Execute
		handler.Execute(testContext(w, req, userID))

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var result models.ImportExecuteResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Success)
		assert.Equal(t, 2, result.ImportedCount)
		mockSvc.AssertExpectations(t)
	})

	t.Run("explicit flags and row selection pass through", func(t *testing.T) {
		// Setup
		mockSvc := new(MockImportService)
		handler := NewImportHandler(mockSvc)

		mockSvc.On("Execute", mock.Anything, mock.MatchedBy(func(opts service.ExecuteOptions) bool {
			return !opts.SkipErrors && !opts.SkipDuplicates &&
				assert.ObjectsAreEqual([]int{1, 3}, opts.SelectedRowNumbers)
		})).Return(&models.ImportExecuteResult{Success: true})

		req := httptest.NewRequest(http.MethodPost, "/api/import/execute",
			strings.NewReader(`{"session_id":"session-1","skip_errors":false,"skip_duplicates":false,"selected_row_numbers":[1,3]}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		// Execute
		handler.Execute(testContext(w, req, 7))

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("failed commit returns 400", func(t *testing.T) {
		// Setup
		mockSvc := new(MockImportService)
		handler := NewImportHandler(mockSvc)

		mockSvc.On("Execute", mock.Anything, mock.Anything).Return(&models.ImportExecuteResult{
			Success: false,
			Errors:  []models.ImportRowError{{Message: "セッションが期限切れか見つかりません"}},
		})

		req := httptest.NewRequest(http.MethodPost, "/api/import/execute",
			strings.NewReader(`{"session_id":"gone"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		// Execute
		handler.Execute(testContext(w, req, 7))

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing session id", func(t *testing.T) {
		// Setup
		mockSvc := new(MockImportService)
		handler := NewImportHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/import/execute", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		// Execute
		handler.Execute(testContext(w, req, 7))

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockSvc.AssertNotCalled(t, "Execute")
	})

	t.Run("anonymous request", func(t *testing.T) {
		// Setup
		mockSvc := new(MockImportService)
		handler := NewImportHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/import/execute",
			strings.NewReader(`{"session_id":"session-1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		// Execute
		handler.Execute(testContext(w, req, 0))

		// Assert
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockSvc.AssertNotCalled(t, "Execute")
	})
}
