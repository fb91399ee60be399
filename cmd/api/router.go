package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptpilot/promptpilot/internal/metrics"
	"github.com/promptpilot/promptpilot/internal/middleware"
)

// routerMiddleware carries the optional cross-cutting middleware stack;
// nil entries are skipped, which keeps handler tests free of external
// dependencies.
type routerMiddleware struct {
	Logger        gin.HandlerFunc
	CORS          gin.HandlerFunc
	GlobalLimit   gin.HandlerFunc
	AuthLimit     gin.HandlerFunc
	OptimizeLimit gin.HandlerFunc
}

func setupRouter(api *API, mw routerMiddleware) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	for _, h := range []gin.HandlerFunc{mw.Logger, mw.CORS, metrics.Middleware(), mw.GlobalLimit} {
		if h != nil {
			router.Use(h)
		}
	}

	// Public endpoints
	router.GET("/health", api.healthCheck)
	router.GET("/metrics", metrics.Handler())

	auth := router.Group("/auth")
	if mw.AuthLimit != nil {
		auth.Use(mw.AuthLimit)
	}
	auth.POST("/exchange", api.exchangeCredential)

	// Session-scoped endpoints
	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.JWTAuth())
	{
		if mw.OptimizeLimit != nil {
			apiGroup.POST("/optimize", mw.OptimizeLimit, api.optimize)
		} else {
			apiGroup.POST("/optimize", api.optimize)
		}
		apiGroup.GET("/usage", api.usage)
		apiGroup.GET("/history", api.listHistory)
		apiGroup.GET("/history/:id", api.getHistory)
		apiGroup.DELETE("/history/:id", api.deleteHistory)
	}

	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "NOT_FOUND",
			"Route "+c.Request.Method+" "+c.Request.URL.Path+" not found.")
	})

	return router
}
