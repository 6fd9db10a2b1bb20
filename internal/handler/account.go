package handler

import (
	"context"
	"net/http"

	"cultural-property-api/internal/models"
	"cultural-property-api/internal/service"

	"github.com/gin-gonic/gin"
)

// AccountService is the service surface the account handler depends on.
type AccountService interface {
	SignUp(ctx context.Context, in service.SignUpInput) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	Profile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, name, bio string) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

// AccountHandler handles registration and profile endpoints.
type AccountHandler struct {
	service AccountService
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(svc AccountService) *AccountHandler {
	return &AccountHandler{service: svc}
}

// SignUp handles POST /api/accounts/signup requests.
func (h *AccountHandler) SignUp(c *gin.Context) {
	var in service.SignUpInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	u, err := h.service.SignUp(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// VerifyEmail handles GET /api/accounts/verify-email?token= requests.
func (h *AccountHandler) VerifyEmail(c *gin.Context) {
	if err := h.service.VerifyEmail(c.Request.Context(), c.Query("token")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "メールアドレスを確認しました"})
}

type resendRequest struct {
	Email string `json:"email"`
}

// ResendVerification handles POST /api/accounts/resend-verification requests.
func (h *AccountHandler) ResendVerification(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.service.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "確認メールを再送しました"})
}

// Profile handles GET /api/accounts/me requests.
func (h *AccountHandler) Profile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	u, err := h.service.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type profileUpdateRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// UpdateProfile handles PUT /api/accounts/me requests.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	u, err := h.service.UpdateProfile(c.Request.Context(), userID, req.Name, req.Bio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword handles POST /api/accounts/change-password requests.
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "パスワードを変更しました"})
}
