package httpx

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/contact-form-backend/pkg/logger"
	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
)

var (
	cGet     = color.New(color.FgHiCyan, color.Bold).SprintFunc()
	cPost    = color.New(color.FgHiGreen, color.Bold).SprintFunc()
	cDefault = color.New(color.FgWhite, color.Bold).SprintFunc()

	c200 = color.New(color.FgGreen, color.Bold).SprintFunc()
	c400 = color.New(color.FgYellow, color.Bold).SprintFunc()
	c500 = color.New(color.FgRed, color.Bold).SprintFunc()

	cDim = color.New(color.FgHiBlack).SprintFunc()
)

// RequestLogger 每个请求结束后打印一行访问日志。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		code := c.Writer.Status()
		var status string
		switch {
		case code >= 500:
			status = c500(code)
		case code >= 400:
			status = c400(code)
		default:
			status = c200(code)
		}

		method := fmt.Sprintf("%-7s", "["+c.Request.Method+"]")
		switch c.Request.Method {
		case http.MethodGet:
			method = cGet(method)
		case http.MethodPost:
			method = cPost(method)
		default:
			method = cDefault(method)
		}

		logger.Info("%s %s %s %s %s",
			method,
			c.Request.URL.Path,
			status,
			cDim(time.Since(start).String()),
			cDim(c.GetString(RequestIDKey)),
		)
	}
}
