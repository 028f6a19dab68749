package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/middleware"
	"github.com/SagarBarate/CleanNFT-sub001/internal/service"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	svc service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register 注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, dto.ErrInvalidParams.WithMessage(err.Error()))
		return
	}

	user, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, user)
}

// Login 登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, dto.ErrInvalidParams.WithMessage(err.Error()))
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, resp)
}

// Logout 注销当前会话
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader(middleware.AuthHeader), middleware.BearerPrefix)
	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, nil)
}
