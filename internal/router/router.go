// Package router assembles the gin engine: global middleware, route groups
// and their guards.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/yar-app/yar-api/internal/handler"
	"github.com/yar-app/yar-api/internal/middleware"
	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/internal/service"
	"github.com/yar-app/yar-api/pkg/config"
	"github.com/yar-app/yar-api/pkg/logger"
	corsmiddleware "github.com/yar-app/yar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/yar-app/yar-api/pkg/middleware/requestid"
	"github.com/yar-app/yar-api/pkg/ratelimit"
)

// multipartMemory bounds the part of a multipart form kept in memory.
const multipartMemory = 8 << 20

// Handlers groups every HTTP handler served by the API.
type Handlers struct {
	Auth     *handler.AuthHandler
	Sessions *handler.SessionHandler
	Users    *handler.UserHandler
	Settings *handler.SettingHandler
	Media    *handler.MediaHandler
	Videos   *handler.VideoHandler
	Uploads  *handler.UploadHandler
	Stats    *handler.StatsHandler
	Metrics  *handler.MetricsHandler
}

// Dependencies are the shared collaborators of the router.
type Dependencies struct {
	Config        *config.Config
	Logger        *zap.Logger
	Metrics       *service.MetricsService
	Authenticator middleware.Authenticator
	MediaTokens   middleware.TokenVerifier
	LimiterStore  ratelimit.Store
	Validator     *validator.Validate
}

// New builds the engine with every route registered under cfg.APIPrefix.
func New(deps Dependencies, h Handlers) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.MaxMultipartMemory = multipartMemory
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error("invalid trusted proxies, trusting none", zap.Strings("proxies", cfg.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log, "/metrics", cfg.APIPrefix+"/health"))
	r.Use(middleware.Recovery(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.Tracing())
	r.NoRoute(middleware.NotFound())

	r.GET("/metrics", h.Metrics.Prometheus)
	if !cfg.IsProduction() {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limit := func(scope string) gin.HandlerFunc {
		limiter := ratelimit.New(deps.LimiterStore, scope, cfg.RateLimit.Window, cfg.RateLimit.Max)
		return middleware.RateLimit(limiter, deps.Metrics, log)
	}
	authenticated := middleware.Authenticate(deps.Authenticator)
	admin := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	api.GET("/health", h.Metrics.Health)

	auth := api.Group("/auth")
	// malformed payloads are rejected before they count against the limit
	auth.POST("/login", middleware.ValidateJSON[models.LoginRequest](deps.Validator, "invalid login payload"), limit("login"), h.Auth.Login)
	auth.POST("/register", middleware.ValidateJSON[models.RegisterRequest](deps.Validator, "invalid registration payload"), limit("register"), h.Auth.Register)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/totp/generate", authenticated, h.Auth.GenerateTotp)
	auth.POST("/totp", authenticated, h.Auth.EnrollTotp)
	auth.DELETE("/totp", authenticated, h.Auth.DisenrollTotp)

	sessions := api.Group("/sessions", authenticated)
	sessions.GET("", h.Sessions.List)
	sessions.DELETE("", h.Sessions.RevokeAll)
	sessions.DELETE("/:id", h.Sessions.Revoke)

	users := api.Group("/users", authenticated)
	users.GET("/me", h.Users.Me)
	users.PUT("/me", h.Users.UpdateMe)
	users.GET("", admin, h.Users.List)
	users.DELETE("/:id", admin, h.Users.Delete)

	settings := api.Group("/settings")
	settings.GET("", authenticated, h.Settings.List)
	settings.GET("/:key", middleware.OptionalAuthenticate(deps.Authenticator), h.Settings.Get)
	settings.PUT("/:key", authenticated, admin, h.Settings.Update)

	media := api.Group("/media")
	media.GET("/:id", middleware.MediaToken(deps.MediaTokens), h.Media.Stream)
	media.HEAD("/:id", middleware.MediaToken(deps.MediaTokens), h.Media.Stream)

	videos := api.Group("/videos", authenticated)
	videos.GET("", h.Videos.List)
	videos.GET("/search", h.Videos.Search)
	videos.GET("/tags", h.Videos.Tags)
	videos.GET("/:id", h.Videos.Get)
	videos.PUT("/:id", h.Videos.Update)
	videos.DELETE("/:id", h.Videos.Delete)
	videos.PUT("/:id/thumbnail", h.Videos.ReplaceThumbnail)
	videos.POST("/:id/thumbnail/regenerate", h.Videos.RegenerateThumbnail)

	upload := api.Group("/upload", authenticated)
	upload.POST("/info", limit("upload-info"), h.Uploads.Info)
	upload.POST("/url", limit("upload-url"), h.Uploads.ImportURL)
	upload.POST("/file", limit("upload-file"), h.Uploads.CreateFile)
	upload.POST("/file/:id/part", h.Uploads.AppendPart)
	upload.POST("/file/:id/complete", h.Uploads.Complete)
	upload.POST("/file/:id/cancel", h.Uploads.Cancel)

	stats := api.Group("/stats", authenticated, admin)
	stats.GET("", h.Stats.Get)
	stats.GET("/export", h.Stats.Export)

	return r
}
