// Package api serves the application service over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/app"
	"github.com/bradenpan/whisk-ai-prototype/internal/config"
	"github.com/bradenpan/whisk-ai-prototype/internal/metrics"
)

// Options carries everything the router needs.
type Options struct {
	Service    *app.Service
	Prometheus *metrics.Prometheus
	Logger     *zap.Logger
	RateLimit  config.RateLimitConfig
	// DataDir is reported as disk usage by /health.
	DataDir string
	// Webhook, when set, is mounted at POST /webhook.
	Webhook gin.HandlerFunc
	Debug   bool
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(Recovery(opts.Logger))
	router.Use(requestid.New())
	router.Use(Logger(opts.Logger.Named("http"), opts.Prometheus))
	router.Use(CORS())

	router.GET("/health", health(opts.DataDir))
	if opts.Prometheus != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Prometheus.Registry, promhttp.HandlerOpts{})))
	}
	if opts.Webhook != nil {
		router.POST("/webhook", BodySizeLimit(maxBodySize), opts.Webhook)
	}

	h := NewHandler(opts.Service, opts.Logger)
	api := router.Group("/api")
	api.Use(RateLimit(opts.RateLimit, opts.Logger), BodySizeLimit(maxBodySize))
	{
		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", h.UpdateProfile)

		recipes := api.Group("/recipes")
		{
			recipes.POST("/generate", h.GenerateRecipes)
			recipes.POST("/import", h.ImportRecipe)
			recipes.GET("/:id", h.GetRecipe)
			recipes.GET("/:id/scaled", h.ScaledRecipe)
			recipes.POST("/:id/customize", h.CustomizeRecipe)
		}

		api.GET("/favorites", h.ListFavorites)
		api.POST("/favorites/toggle", h.ToggleFavorite)

		plan := api.Group("/plan")
		{
			plan.GET("", h.GetPlan)
			plan.DELETE("", h.ClearPlan)
			plan.POST("/auto", h.AutoPlan)
			plan.POST("/move", h.MoveRecipe)
			plan.POST("/:day", h.AddToPlan)
			plan.DELETE("/:day/:id", h.RemoveFromPlan)
			plan.POST("/:day/:id/regenerate", h.RegenerateRecipe)
		}

		list := api.Group("/shopping-list")
		{
			list.GET("", h.GetShoppingList)
			list.POST("/generate", h.GenerateShoppingList)
			list.POST("/items", h.AddShoppingItem)
			list.PATCH("/items/:index", h.ToggleShoppingItem)
		}

		api.GET("/pantry", h.GetPantry)
		api.PUT("/pantry", h.SetPantry)
	}

	return router
}

func health(dataDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"system":    metrics.GetSysHealth(dataDir),
		})
	}
}
