package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/keshavgujrathi/scholariq/docs" // register generated Swagger spec
)

// Router wraps a configured gin engine and exposes it as an http.Handler.
type Router struct {
	engine *gin.Engine
}

// NewRouter builds the engine with the full middleware chain and all routes
// registered. Middleware order: Recovery, then tracing, then request
// logging, so a panic in either of the latter two is still caught.
func NewRouter(h *Handler, logger *slog.Logger, serviceName string) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(Recovery(logger))
	engine.Use(Tracing(serviceName))
	engine.Use(RequestLogger(logger))

	engine.GET("/", h.Root)
	engine.GET("/health", h.Health)
	engine.GET("/health/deep", h.DeepHealth)
	engine.GET("/ready", h.Ready)

	v1 := engine.Group("/api/v1")

	analyze := v1.Group("/analyze")
	analyze.POST("/text", h.AnalyzeText)
	analyze.POST("/file", h.AnalyzeFile)
	analyze.GET("/status/:id", h.AnalysisStatus)
	analyze.GET("/analyzers", h.Analyzers)

	demo := v1.Group("/demo")
	demo.GET("/sample-text", h.DemoSampleText)
	demo.GET("/sample-analysis", h.DemoSampleAnalysis)
	demo.GET("/sample-questions", h.DemoSampleQuestions)
	demo.GET("/sample-feedback", h.DemoSampleFeedback)

	engine.Static("/static", "static")

	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return &Router{engine: engine}
}

// Handler returns the underlying http.Handler for use with net/http servers.
func (r *Router) Handler() http.Handler {
	return r.engine
}
