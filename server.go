package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/mmdatafocus/itefm_backend/middlewares"
	"github.com/mmdatafocus/itefm_backend/utils"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// RateLimiter counts requests per client IP in fixed redis windows.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func correlationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}

// readinessMiddleware answers /healthz and holds other requests until the
// session store is usable.
func readinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if !config.StoreReady() {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if config.IsProduction() {
		corsConfig.AllowOrigins = utils.SplitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS"))
		if len(corsConfig.AllowOrigins) == 0 {
			// cors.New panics on an empty config; same-origin only.
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return cors.New(corsConfig)
}

// setupRouter wires middleware and routes. The session store must be set up
// by the caller.
func setupRouter(logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.SetHTMLTemplate(loadTemplates())
	r.MaxMultipartMemory = config.MaxUploadSizeBytes()

	r.Use(correlationMiddleware())
	r.Use(readinessMiddleware())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.Use(corsMiddleware())

	if enabled, limit, window := config.RateLimit(); enabled {
		if client := config.GetRedisDB(); client != nil {
			r.Use(NewRateLimiter(client, limit, window).RateLimitMiddleware)
		} else {
			logger.WithFields(logrus.Fields{"field": "rateLimit"}).Warn("RATE_LIMIT_ENABLED without redis; rate limiting disabled")
		}
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	api := r.Group("/api/v1")
	api.POST("/login", loginHandler())
	api.GET("/camp-groups", campGroupsHandler())

	authed := api.Group("", middlewares.RequireSession())
	authed.POST("/logout", logoutHandler())
	authed.GET("/session", sessionHandler())
	authed.PUT("/session/camp-group", selectCampGroupHandler())
	authed.POST("/uploads/:kind", uploadHandler())
	authed.POST("/reports/generate", generateHandler())
	authed.GET("/reports/:camp/download", downloadHandler())

	r.GET("/login", loginPageHandler())
	r.POST("/login", loginFormHandler())
	pages := r.Group("", middlewares.RequirePageSession())
	pages.GET("/", indexPageHandler())
	pages.POST("/logout", logoutFormHandler())
	pages.POST("/generate", generateFormHandler())
	pages.GET("/reports/:camp/download", downloadHandler())

	r.NoRoute(customNotFoundHandler)
	return r
}

func setupStore(logger *logrus.Logger) {
	if config.RedisConfigured() {
		config.ConnectRedisWithRetry()
		return
	}
	config.UseMemoryStore(config.MemoryStoreSize(), config.SessionTTL())
	logger.WithFields(logrus.Fields{"field": "store"}).Warn("REDIS_ADDRESS not set; sessions are kept in process memory")
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if _, err := config.GetCampConfig(); err != nil {
		logger.WithFields(logrus.Fields{"field": "campConfig"}).Fatal("invalid camp configuration: " + err.Error())
	}
	if _, ok := config.GetCredentials(); !ok {
		logger.WithFields(logrus.Fields{"field": "credentials"}).Warn("ITEFM_USERNAME/ITEFM_PASSWORD_HASH not set; every login will be refused")
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Redis must be connected before the router so the rate limiter sees it.
	setupStore(logger)
	r := setupRouter(logger)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("connect to http://localhost:", port, "/ for the report page")
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		logger.WithFields(logrus.Fields{"field": "shutdown"}).Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	config.ClosePubSub()
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// RateLimitMiddleware rejects a client IP after limit requests in one window.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	ctx := c.Request.Context()
	key := "RateLimit:" + c.ClientIP()

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, key, rl.window).Err(); err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}
