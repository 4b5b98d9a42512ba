package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yar-app/yar-api/internal/handler"
	"github.com/yar-app/yar-api/internal/repository"
	"github.com/yar-app/yar-api/internal/router"
	"github.com/yar-app/yar-api/internal/service"
	"github.com/yar-app/yar-api/pkg/cache"
	"github.com/yar-app/yar-api/pkg/config"
	"github.com/yar-app/yar-api/pkg/database"
	"github.com/yar-app/yar-api/pkg/ffmpeg"
	"github.com/yar-app/yar-api/pkg/jobs"
	"github.com/yar-app/yar-api/pkg/keys"
	"github.com/yar-app/yar-api/pkg/logger"
	"github.com/yar-app/yar-api/pkg/ratelimit"
	"github.com/yar-app/yar-api/pkg/storage"
	"github.com/yar-app/yar-api/pkg/ytdlp"
)

const (
	shutdownTimeout    = 15 * time.Second
	sessionSweepPeriod = time.Hour
	cachePrefix        = "yar:"
)

func serveCmd() *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, autoMigrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	if autoMigrate {
		if _, err := database.Migrate(ctx, db, logr); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	pair, err := keys.LoadOrGenerate(cfg.Auth.KeysDir)
	if err != nil {
		return fmt.Errorf("load signing keys: %w", err)
	}
	store, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, cachePrefix, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Settings.CacheTTL, logr, redisClient != nil)

	limiterStore, err := rateLimitStore(cfg, redisClient)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	settingSvc := service.NewSettingService(settingRepo, cacheSvc, logr, cfg.Settings.CacheTTL, cfg.Auth.RefreshTokenTTL)
	tokenSvc := service.NewTokenService(pair, refreshRepo, settingSvc, service.TokenConfig{
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
		MediaTokenTTL:  cfg.Auth.MediaTokenTTL,
	})
	authSvc := service.NewAuthService(userRepo, refreshRepo, tokenSvc, settingSvc, metrics, validate, logr, service.AuthConfig{
		TOTPSkew:   cfg.Auth.TOTPSkew,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	sessionSvc := service.NewSessionService(refreshRepo, authSvc)
	mediaSvc := service.NewMediaService(mediaRepo, store, tokenSvc, cfg.Domain+cfg.APIPrefix, logr)
	userSvc := service.NewUserService(userRepo, refreshRepo, mediaSvc, settingSvc, validate, logr, cfg.Auth.BcryptCost)

	transcoder := ffmpeg.New(cfg.Tools.FFmpegPath, cfg.Tools.FFprobePath)
	downloader := ytdlp.New(cfg.Tools.YtDlpPath)

	videoSvc := service.NewVideoService(videoRepo, mediaSvc, store, transcoder, metrics, validate, logr)
	thumbnails := jobs.NewQueue("thumbnails", videoSvc.HandleThumbnailJob, jobs.QueueConfig{
		Workers:    cfg.Upload.ThumbnailWorkers,
		MaxRetries: 1,
		RetryDelay: 5 * time.Second,
		Timeout:    2 * time.Minute,
		Logger:     logr,
	})
	videoSvc.SetQueue(thumbnails)
	thumbnails.Start(ctx)
	defer thumbnails.Stop()

	uploadSvc := service.NewUploadService(videoRepo, mediaRepo, videoSvc, store, downloader, transcoder, transcoder, cacheSvc, metrics, validate, logr, service.UploadConfig{
		InfoCacheTTL: cfg.Upload.InfoCacheTTL,
	})
	statsSvc := service.NewStatsService(statsRepo, logr)

	checks := []handler.HealthCheck{{Name: "postgres", Check: db.PingContext}}
	if redisClient != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	engine := router.New(router.Dependencies{
		Config:        cfg,
		Logger:        logr,
		Metrics:       metrics,
		Authenticator: authSvc,
		MediaTokens:   tokenSvc,
		LimiterStore:  limiterStore,
		Validator:     validate,
	}, router.Handlers{
		Auth:     handler.NewAuthHandler(authSvc, handler.CookieConfig{Name: cfg.Auth.RefreshCookieName, Secure: cfg.IsProduction()}),
		Sessions: handler.NewSessionHandler(sessionSvc, cfg.Auth.RefreshCookieName),
		Users:    handler.NewUserHandler(userSvc),
		Settings: handler.NewSettingHandler(settingSvc),
		Media:    handler.NewMediaHandler(mediaSvc, logr),
		Videos:   handler.NewVideoHandler(videoSvc),
		Uploads:  handler.NewUploadHandler(uploadSvc, cfg.Upload.MaxPartSize, logr),
		Stats:    handler.NewStatsHandler(statsSvc),
		Metrics:  handler.NewMetricsHandler(metrics, checks...),
	})

	go sweepSessions(ctx, refreshRepo, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func rateLimitStore(cfg *config.Config, client *redis.Client) (ratelimit.Store, error) {
	switch cfg.RateLimit.Backend {
	case "", "memory":
		return ratelimit.NewMemoryStore(), nil
	case "redis":
		if client == nil {
			return nil, errors.New("RATE_LIMIT_BACKEND=redis requires REDIS_ENABLED=true")
		}
		return ratelimit.NewRedisStore(client, cachePrefix+"ratelimit:"), nil
	default:
		return nil, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", cfg.RateLimit.Backend)
	}
}

type expiredSessionSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// sweepSessions drops expired refresh token records until ctx is done.
func sweepSessions(ctx context.Context, repo expiredSessionSweeper, logr *zap.Logger) {
	ticker := time.NewTicker(sessionSweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := repo.DeleteExpired(ctx, now.UTC())
			if err != nil {
				logr.Warn("expired session sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logr.Info("expired sessions removed", zap.Int64("count", removed))
			}
		}
	}
}
