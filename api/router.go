package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/SlpAus/contact-form-backend/internal/platform/config"
	"github.com/SlpAus/contact-form-backend/internal/platform/database"
	"github.com/SlpAus/contact-form-backend/internal/platform/health"
	"github.com/SlpAus/contact-form-backend/internal/platform/httpx"
	"github.com/SlpAus/contact-form-backend/internal/submission"
	"github.com/SlpAus/contact-form-backend/internal/telemetry"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// WelcomeMessage 是根路径返回的纯文本。
const WelcomeMessage = "Welcome to the Contact Form API"

// Dependencies 汇总路由需要的所有组件。
type Dependencies struct {
	Server      config.ServerConfig
	Submissions *submission.Handler
	Metrics     telemetry.Recorder
	DBStatus    *database.Status
	// Limiter 为 nil 时不对联系表单限流
	Limiter *httpx.IPRateLimiter
}

// NewRouter 创建 gin 引擎，挂载中间件并注册所有路由。
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	router.Use(
		httpx.RequestID(),
		httpx.RequestLogger(),
		telemetry.RequestMetrics(deps.Metrics),
		httpx.Recovery(deps.Metrics),
		cors.New(corsConfig(deps.Server.Cors)),
	)

	SetupRoutes(router, deps)
	return router
}

// SetupRoutes 注册项目的所有路由
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, WelcomeMessage)
	})
	router.GET("/health", health.Handler(deps.DBStatus))

	api := router.Group("/api")
	{
		contact := []gin.HandlerFunc{}
		if deps.Limiter != nil {
			contact = append(contact, deps.Limiter.Middleware())
		}
		contact = append(contact, deps.Submissions.CreateSubmission)

		api.POST("/contact", contact...)
		api.GET("/submissions", deps.Submissions.ListSubmissions)
	}
}

func corsConfig(cfg config.CorsConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", httpx.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", httpx.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowCredentials = true
	return c
}
