package middleware

import (
	"net/http"
	"strings"

	"passguard/internal/auth"
	"passguard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthMiddleware struct {
	authService *auth.Service
	userRepo    repository.UserRepository
	roleRepo    repository.RoleRepository
}

func NewAuthMiddleware(authService *auth.Service, userRepo repository.UserRepository, roleRepo repository.RoleRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
		roleRepo:    roleRepo,
	}
}

func (m *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}

		claims, err := m.authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		userIDStr, ok := (*claims)["user_id"].(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id in token"})
			c.Abort()
			return
		}

		user, err := m.userRepo.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			c.Abort()
			return
		}

		role, err := m.roleRepo.GetByID(c.Request.Context(), user.RoleID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user role"})
			c.Abort()
			return
		}
		user.Role = role

		c.Set("user", user)
		c.Set("is_admin", user.Role.IsAdminGroup)

		c.Next()
	}
}

// AuthOptional resolves the user when a valid Bearer token is present but
// lets the request through either way. Used by endpoints that behave better
// with an identity without requiring one.
func (m *AuthMiddleware) AuthOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		claims, err := m.authService.ValidateToken(parts[1])
		if err != nil {
			c.Next()
			return
		}
		userIDStr, ok := (*claims)["user_id"].(string)
		if !ok {
			c.Next()
			return
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			c.Next()
			return
		}
		user, err := m.userRepo.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.Next()
			return
		}
		if role, err := m.roleRepo.GetByID(c.Request.Context(), user.RoleID); err == nil {
			user.Role = role
			c.Set("is_admin", role.IsAdminGroup)
		}
		c.Set("user", user)
		c.Next()
	}
}

func (m *AuthMiddleware) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, exists := c.Get("is_admin")
		if !exists || !isAdmin.(bool) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
