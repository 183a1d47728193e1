package middlewares

import (
	"github.com/gin-gonic/gin"
)

// CORS 为 /api 提供最小化的跨域支持；仅放行配置中列出的来源。
// allowedOrigins 为空时放行任意来源（开发用）。
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		originOK := origin != ""
		if originOK {
			if _, ok := allowed[origin]; ok || len(allowed) == 0 {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
			} else {
				originOK = false
			}
		}
		if c.Request.Method == "OPTIONS" {
			// 预检只对放行的来源（或无 Origin 的探测）回 204
			if origin != "" && !originOK {
				c.AbortWithStatus(403)
				return
			}
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
