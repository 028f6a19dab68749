// Package middleware 提供 HTTP 中间件
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/service"
)

const (
	// AuthHeader 认证头
	AuthHeader = "Authorization"
	// BearerPrefix Bearer 前缀
	BearerPrefix = "Bearer "
	// ContextKeyClaims 上下文中的 Claims 键
	ContextKeyClaims = "claims"
	// ContextKeyUserID 上下文中的用户 ID 键
	ContextKeyUserID = "user_id"
)

// AuthMiddleware 认证中间件
type AuthMiddleware struct {
	authService service.AuthService
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(authService service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Required 返回需要认证的中间件
func (m *AuthMiddleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeader)
		if authHeader == "" {
			abortWithError(c, dto.ErrMissingAuthHeader)
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortWithError(c, dto.ErrInvalidAuthFormat)
			return
		}

		token := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := m.authService.Validate(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, dto.ErrUnauthorized)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeyUserID, claims.UserID)
		c.Next()
	}
}

// Optional 返回可选认证的中间件
// 无认证头直接放行，携带认证头则必须有效，避免坏 token 静默降级为匿名
func (m *AuthMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeader)
		if authHeader == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortWithError(c, dto.ErrInvalidAuthFormat)
			return
		}

		token := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := m.authService.Validate(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, dto.ErrUnauthorized)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeyUserID, claims.UserID)
		c.Next()
	}
}

// RequireRole 返回角色校验中间件，须在 Required 之后挂载
func (m *AuthMiddleware) RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			abortWithError(c, dto.ErrUnauthorized)
			return
		}
		for _, r := range claims.Roles {
			if r == string(role) {
				c.Next()
				return
			}
		}
		abortWithError(c, dto.ErrForbidden)
	}
}

func abortWithError(c *gin.Context, err *dto.BizError) {
	c.AbortWithStatusJSON(err.HTTPStatus, dto.NewErrorResponse(err))
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(ContextKeyUserID); exists {
		return id.(string)
	}
	return ""
}

// GetClaims 从上下文获取 Claims
func GetClaims(c *gin.Context) *service.Claims {
	if claims, exists := c.Get(ContextKeyClaims); exists {
		return claims.(*service.Claims)
	}
	return nil
}
