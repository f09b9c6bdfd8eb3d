package telemetry

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestMetrics 在整个处理链写完响应之后记录请求耗时和计数。
// Recorder 只做入队，所以不会拖慢响应。
func RequestMetrics(rec Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rec.RecordRequest(c.Request.URL.Path, time.Since(start))
	}
}
