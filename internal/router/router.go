package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/api"
	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/service"
)

// SetupRouter configures the application routes. redisClient may be nil, in
// which case rate limiting is kept in process.
func SetupRouter(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	recipeService service.IRecipeService,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.NoRoute(middleware.NotFound())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
		Window: cfg.RateLimitWindow,
		Limit:  cfg.RateLimit,
	})
	router.Use(limiter.RateLimitMiddleware())

	api.SetupAPI(router, db, recipeService)

	return router
}
