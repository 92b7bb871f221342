package middleware

import (
	"Crew_Community/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 用路由模板作为 path 标签，避免 id 造成标签爆炸
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := metrics.RequestStarted()
		c.Next()
		done(c.Request.Method, c.FullPath(), c.Writer.Status())
	}
}
