package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/anchorword/internal/logging"
	"github.com/sujalbistaa/anchorword/internal/metrics"
	"github.com/sujalbistaa/anchorword/internal/ws"
)

// SetupRoutes configures all application routes and middleware. The rate
// limiter janitor stops when ctx is done.
func SetupRoutes(ctx context.Context, router *gin.Engine, env *Env, m *metrics.Metrics, gatherer prometheus.Gatherer) {
	cfg := env.Config()

	router.Use(logging.RequestLogger(env.Log))
	router.Use(gin.Recovery())
	router.Use(m.Middleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", UserHeader, AdminHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.Server.CORSOrigin != "*",
	}))

	limiter := NewRateLimiter(func() (rate.Limit, int) {
		rl := env.Config().RateLimit
		return rate.Limit(rl.RPS), rl.Burst
	})
	go limiter.Janitor(ctx)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.GET("/health", env.Health)

	player := api.Group("", IdentityMiddleware(env.Users))
	{
		player.POST("/challenges", RateLimitMiddleware(limiter), env.CreateChallenge)
		player.GET("/challenges/:postId/init", env.Init)
		player.POST("/challenges/:postId/guess", RateLimitMiddleware(limiter), env.Guess)
		player.GET("/challenges/:postId/results", env.Results)
		player.GET("/challenges/:postId/next", env.Next)
		player.GET("/challenges/:postId/another", env.Another)
		player.GET("/leaderboard", env.Leaderboard)
		player.GET("/me/challenges", env.MyChallenges)
	}

	admin := api.Group("/admin", AdminAuthMiddleware(func() string { return env.Config().Server.AdminToken }))
	admin.GET("/challenges", env.AdminChallenges)

	router.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(env.Hub, c.Writer, c.Request)
	})

	router.NoRoute(func(c *gin.Context) {
		abortError(c, http.StatusNotFound, "NotFound", "Not found")
	})
}
