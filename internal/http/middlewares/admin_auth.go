package middlewares

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/lst-route-engine/internal/common"
	"github.com/hxuan190/lst-route-engine/internal/http/httputil"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminAuth guards pool management routes. An empty key disables them.
func AdminAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			httputil.HandleError(c, common.HTTPErrorForbidden("admin api disabled"))
			return
		}
		got := c.GetHeader(AdminKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			httputil.HandleError(c, common.HTTPErrorUnauthorized("invalid admin key"))
			return
		}
		c.Next()
	}
}
