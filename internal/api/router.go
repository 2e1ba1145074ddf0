// Package api wires the HTTP handlers of the analytics service.
package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"auction-analytics/internal/analysis"
	"auction-analytics/internal/api/handlers"
	"auction-analytics/internal/api/middleware"
	"auction-analytics/internal/metrics"
)

type Options struct {
	AllowedOrigins []string
	// Workers is the default scoring concurrency of aggregation requests.
	Workers   int
	StaticDir string

	Cache   *analysis.SolverCache
	Metrics *metrics.Registry
}

// NewRouter builds the gin engine. The solver cache is shared by every
// handler so repeated schedules are solved once per process.
func NewRouter(opts Options) *gin.Engine {
	if opts.Cache == nil {
		opts.Cache = analysis.NewSolverCache()
	}

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.Logger())
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
	}

	equilibriumHandler := handlers.NewEquilibriumHandler(opts.Cache)
	scoreHandler := handlers.NewScoreHandler(opts.Cache)
	analyzeHandler := handlers.NewAnalyzeHandler(opts.Cache, opts.Metrics, opts.Workers)
	normalizerHandler := handlers.NewNormalizerHandler()

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"cached_solves": opts.Cache.Len(),
		})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/equilibrium", equilibriumHandler.Solve)
		api.POST("/score", scoreHandler.Score)
		api.POST("/analyze", analyzeHandler.Analyze)
		api.POST("/analyze/compare", analyzeHandler.Compare)

		api.GET("/normalizers", normalizerHandler.ListNormalizers)
	}

	if opts.StaticDir != "" {
		serveStatic(router, opts.StaticDir)
	}
	return router
}

// serveStatic serves a single page dashboard for every non-API route.
func serveStatic(router *gin.Engine, dir string) {
	if _, err := os.Stat(dir); err != nil {
		log.Warn().Str("dir", dir).Err(err).Msg("Static directory not found, skipping static file serving")
		return
	}
	router.Static("/assets", dir+"/assets")
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.File(dir + "/index.html")
	})
	log.Info().Str("dir", dir).Msg("Serving static files")
}
