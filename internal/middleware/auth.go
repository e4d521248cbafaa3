package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Roles allowed on the admin delivery API
const (
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
	RoleSuperAdmin = "super_admin"
)

// Claims represents the JWT claims issued by the auth service
type Claims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

func abortJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// AuthMiddleware validates HS256 bearer tokens. An empty secret disables
// authentication, which is only meant for local development.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSecret == "" {
			c.Set("user_roles", []string{RoleSuperAdmin})
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortJSON(c, http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header is required")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			abortJSON(c, http.StatusUnauthorized, "INVALID_TOKEN_FORMAT", "Authorization header must be in format: Bearer <token>")
			return
		}

		token, err := jwt.ParseWithClaims(tokenParts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || !token.Valid {
			abortJSON(c, http.StatusUnauthorized, "INVALID_CLAIMS", "Invalid token claims")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_roles", claims.Roles)
		c.Next()
	}
}

// RequireAnyRole checks that the caller has one of the roles. super_admin passes every check.
func RequireAnyRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, exists := c.Get("user_roles")
		if !exists {
			abortJSON(c, http.StatusForbidden, "NO_ROLES", "User roles not found")
			return
		}
		userRoles, ok := roles.([]string)
		if !ok {
			abortJSON(c, http.StatusForbidden, "INVALID_ROLES", "Invalid user roles format")
			return
		}

		for _, userRole := range userRoles {
			if userRole == RoleSuperAdmin {
				c.Next()
				return
			}
			for _, requiredRole := range requiredRoles {
				if userRole == requiredRole {
					c.Next()
					return
				}
			}
		}

		abortJSON(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", fmt.Sprintf("Required one of roles: %v", requiredRoles))
	}
}
