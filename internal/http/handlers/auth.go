package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/storybook-backend/internal/http/response"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
	"github.com/yungbote/storybook-backend/internal/services"
)

const MsgSuccess = "Operation completed successfully."

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, ah.log, invalidInput("AuthHandler.Register", services.MsgMissingInput))
		return
	}
	token, err := ah.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(c, ah.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": MsgSuccess, "token": token})
}

// POST /auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, ah.log, invalidInput("AuthHandler.Login", services.MsgMissingInput))
		return
	}
	token, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{
		"message":    MsgSuccess,
		"token":      token,
		"expires_in": int(ah.authService.GetAccessTTL().Seconds()),
	})
}
