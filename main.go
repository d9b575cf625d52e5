package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peopledb/peopledb/handlers"
	"github.com/peopledb/peopledb/internal/config"
	"github.com/peopledb/peopledb/internal/database"
	"github.com/peopledb/peopledb/internal/oidc"
	"github.com/peopledb/peopledb/internal/person/handler"
	"github.com/peopledb/peopledb/internal/person/repository"
	"github.com/peopledb/peopledb/internal/person/service"
	"github.com/peopledb/peopledb/internal/tokens"
	"github.com/peopledb/peopledb/pkg/logger"
	"github.com/peopledb/peopledb/pkg/metrics"
	"github.com/peopledb/peopledb/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL is applied again from config below; this covers config errors.
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)
	logger.Infof("config loaded: db=%s redis=%v rate_limit=%v jwt=%v oidc=%v",
		cfg.MongoDB.Database, cfg.Redis.Host != "", cfg.RateLimit.Enabled, cfg.Auth.JWTSecret != "", cfg.Auth.OIDCIssuer != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), gin.Logger(), gin.Recovery())
	r.Use(cors())

	deps := map[string]handlers.Pinger{}

	// Redis is optional; it backs the shared rate limiter and token revocation.
	var rdb *redis.Client
	if addr := cfg.RedisAddr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			_ = rdb.Close()
			rdb = nil
		} else {
			defer func() { _ = rdb.Close() }()
			logger.Infof("connected to Redis at %s", addr)
			deps["redis"] = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		}
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, cfg.MongoDB.MaxAttempts, time.Second)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			logger.Warnf("mongo disconnect: %v", err)
		}
	}()
	logger.Infof("connected to MongoDB (database=%s collection=%s)", cfg.MongoDB.Database, cfg.MongoDB.Collection)

	repo := repository.NewMongoRepo(client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection), cfg.MongoDB.OpTimeout)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Fatalf("failed to ensure indexes: %v", err)
	}
	svc := service.NewService(repo)
	deps["mongo"] = svc

	verifier := buildVerifier(ctx, cfg)
	if verifier == nil {
		logger.Warnf("no AUTH_JWT_SECRET or OIDC issuer configured; write routes are unauthenticated")
	}

	// Revocation needs Redis; without it tokens stay valid until exp.
	rev := tokens.NewRevocations(rdb)
	guard := middleware.AuthMiddleware(tokens.Revoking(verifier, rev))

	handlers.RegisterHealth(r, startTime, deps)
	handlers.RegisterSwagger(r)
	handler.RegisterPersonRoutes(r, svc, guard)
	if verifier != nil && rdb != nil {
		handlers.RegisterRevoke(r, rev, guard)
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting people service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Errorf("server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Infof("shutting down")
	}
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warnf("graceful shutdown: %v", err)
	}
}

// buildVerifier prefers the shared-secret verifier and falls back to OIDC discovery.
func buildVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if cfg.Auth.JWTSecret != "" {
		return tokens.NewHMACVerifier(cfg.Auth.JWTSecret)
	}
	if cfg.Auth.OIDCIssuer != "" && cfg.Auth.OIDCClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
			return nil
		}
		return ver
	}
	return nil
}

// cors is a permissive CORS middleware for browser clients in development.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
