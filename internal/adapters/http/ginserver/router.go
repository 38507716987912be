package ginserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, _ *zap.Logger, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.RedirectTrailingSlash = false
	r.RemoveExtraSlash = true
	// user ids may contain escaped slashes
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/ping", h.Ping)
	r.GET("/", h.Index)
	r.GET("/api/v1/snapshot", h.SnapshotJSON)

	users := r.Group("/users")
	users.POST("/:userID/metrics", h.CreateMetric)
	users.GET("/:userID/metrics", h.ListMetrics)
	users.GET("/:userID/metrics/current", h.CurrentMetric)
	users.GET("/:userID/metrics/:metricID", h.GetMetric)
	users.DELETE("/:userID/metrics/:metricID", h.DeleteMetric)
	users.PUT("/metrics/:metricID", h.UpdateMetric)
	users.POST("/:userID/addExercise/:calories", h.AddExercise)
	users.POST("/:userID/setExercise/:calories", h.SetExercise)

	return r
}
