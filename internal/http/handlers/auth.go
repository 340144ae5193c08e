package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orcha-ai/orcha-backend/internal/http/response"
	"github.com/orcha-ai/orcha-backend/internal/services"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func userView(u *types.User) gin.H {
	return gin.H{
		"id":        u.ID.String(),
		"username":  u.Username,
		"email":     u.Email,
		"full_name": u.FullName,
		"is_active": u.IsActive,
		"plan_type": u.PlanType,
	}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, token, err := ah.authService.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateUser) {
			response.RespondError(c, http.StatusConflict, "duplicate_user", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "registration_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{
		"user":         userView(user),
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, token, err := ah.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInactiveUser):
			response.RespondError(c, http.StatusForbidden, "inactive_user", err)
		case errors.Is(err, services.ErrInvalidCredentials):
			response.RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
		default:
			response.RespondError(c, http.StatusInternalServerError, "login_failed", err)
		}
		return
	}
	response.RespondOK(c, gin.H{
		"user":         userView(user),
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (ah *AuthHandler) Me(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	user, err := ah.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "user_not_found", err)
		return
	}
	response.RespondOK(c, userView(user))
}

// Check is a lightweight token validity probe.
func (ah *AuthHandler) Check(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	response.RespondOK(c, gin.H{"valid": true, "user_id": userID.String()})
}
