package security

import (
	"net/http"
	"strings"

	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/security/jwt"
	"go-canteenadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// Auth Bearer 令牌校验；令牌由外部登录服务签发，这里只验签与过期
func Auth(j *jwt.Manager, lg *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
			response.Abort(c, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := j.Parse(strings.TrimSpace(auth[7:]))
		if err != nil {
			if lg != nil {
				lg.WithContext(c.Request.Context()).Debug("auth_token_rejected", zap.Error(err))
			}
			response.Abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Request = c.Request.WithContext(logging.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}
