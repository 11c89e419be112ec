package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"academix-system/internal/utils"
)

const (
	ContextUserID = "user_id"
	ContextOrgID  = "org_id"
	ContextRole   = "role"
)

func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authorization header is required",
			})
			return
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextOrgID, claims.OrgID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// OrgID returns the caller's organization from the JWT claims; an empty value
// means the request must be rejected before any write happens.
func OrgID(c *gin.Context) string {
	return c.GetString(ContextOrgID)
}

func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
