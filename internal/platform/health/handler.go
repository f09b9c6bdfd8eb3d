package health

import (
	"net/http"

	"github.com/SlpAus/contact-form-backend/internal/platform/database"
	"github.com/gin-gonic/gin"
)

// Handler 返回 GET /health 的处理函数。它只报告最近一次探测的结果，不会主动连接数据库。
func Handler(status *database.Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := status.Snapshot()
		if snap.Healthy {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
			return
		}

		body := gin.H{"status": "degraded", "database": "down"}
		if !snap.Checked {
			body["database"] = "unknown"
		}
		if snap.LastError != "" {
			body["error"] = snap.LastError
		}
		c.JSON(http.StatusServiceUnavailable, body)
	}
}
