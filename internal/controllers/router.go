package controllers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/controllers/middlewares"
)

// RouterParams зависимости роутера.
type RouterParams struct {
	LinkService LinkStore
	UserService Authenticator
	PingService ConnectionChecker
	CORSOrigins []string
	Environment string
	StartedAt   time.Time
	Logger      *zap.Logger
}

func SetupRouter(params RouterParams) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware(params.Logger))
	r.Use(cors.New(corsConfig(params.CORSOrigins)))
	r.Use(middlewares.GzipMiddleware())

	linksController := NewLinksController(params.LinkService)
	authController := NewAuthController(params.UserService)
	healthController := NewHealthController(params.PingService, params.StartedAt, params.Environment)

	r.GET("/health", healthController.Health)
	r.GET("/livez", healthController.Live)
	r.GET("/readyz", healthController.Ready)

	api := r.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/signup", authController.Signup)
	auth.POST("/login", authController.Login)

	urls := api.Group("/url", middlewares.BearerAuth(params.UserService))
	urls.POST("", linksController.Create)
	urls.GET("/me", linksController.List)
	urls.GET("/stats", linksController.Stats)
	urls.GET("/analytics/:id", linksController.Analytics)
	urls.GET("/:id/qr", linksController.QRCode)
	urls.DELETE("/:id", linksController.Delete)

	r.GET("/:shortID", linksController.Redirect)

	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Route not found", "path": ctx.Request.URL.Path})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	conf := cors.DefaultConfig()
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
	}
	conf.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	conf.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Content-Encoding", "Accept-Encoding"}
	conf.AllowCredentials = len(origins) > 0
	conf.MaxAge = 12 * time.Hour //nolint:mnd
	return conf
}
