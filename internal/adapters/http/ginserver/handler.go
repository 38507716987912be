package ginserver

import (
	"errors"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/fitmetrics/internal/domain"
	"github.com/vshulcz/fitmetrics/internal/services/metrics"
)

// Handler exposes the metrics resource over HTTP.
type Handler struct {
	svc *metrics.Service
}

// NewHandler wires a metrics service into a gin-compatible HTTP handler.
func NewHandler(svc *metrics.Service) *Handler {
	return &Handler{svc: svc}
}

// metricBody is what clients send on create and update; an id in the body is ignored.
type metricBody struct {
	Date             string `json:"date"`
	ExerciseSpending int    `json:"exerciseSpending"`
}

// CreateMetric handles `POST /users/:userID/metrics`.
func (h *Handler) CreateMetric(c *gin.Context) {
	var body metricBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	res, err := h.svc.Create(c.Request.Context(), c.Param("userID"), domain.Metric{Date: body.Date, ExerciseSpending: body.ExerciseSpending})
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListMetrics handles `GET /users/:userID/metrics`.
func (h *Handler) ListMetrics(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context(), c.Param("userID"))
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetMetric handles `GET /users/:userID/metrics/:metricID`.
func (h *Handler) GetMetric(c *gin.Context) {
	id, ok := metricID(c)
	if !ok {
		return
	}
	res, err := h.svc.Get(c.Request.Context(), c.Param("userID"), id)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CurrentMetric handles `GET /users/:userID/metrics/current`.
func (h *Handler) CurrentMetric(c *gin.Context) {
	res, err := h.svc.Current(c.Request.Context(), c.Param("userID"))
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DeleteMetric handles `DELETE /users/:userID/metrics/:metricID` and echoes the deleted metric.
func (h *Handler) DeleteMetric(c *gin.Context) {
	id, ok := metricID(c)
	if !ok {
		return
	}
	res, err := h.svc.Delete(c.Request.Context(), c.Param("userID"), id)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UpdateMetric handles `PUT /users/metrics/:metricID`.
func (h *Handler) UpdateMetric(c *gin.Context) {
	id, ok := metricID(c)
	if !ok {
		return
	}
	var body metricBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	res, err := h.svc.Update(c.Request.Context(), id, domain.Metric{Date: body.Date, ExerciseSpending: body.ExerciseSpending})
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AddExercise handles `POST /users/:userID/addExercise/:calories`.
func (h *Handler) AddExercise(c *gin.Context) {
	cal, ok := calories(c)
	if !ok {
		return
	}
	res, err := h.svc.AddExercise(c.Request.Context(), c.Param("userID"), cal)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SetExercise handles `POST /users/:userID/setExercise/:calories`.
func (h *Handler) SetExercise(c *gin.Context) {
	cal, ok := calories(c)
	if !ok {
		return
	}
	res, err := h.svc.SetExercise(c.Request.Context(), c.Param("userID"), cal)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Index renders a basic HTML table of every stored metric.
func (h *Handler) Index(c *gin.Context) {
	snap, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		httpError(c, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("<!doctype html><html><head><meta charset='utf-8'><title>metrics</title>")
	sb.WriteString("<style>body{font-family:system-ui,Arial,sans-serif}table{border-collapse:collapse}td,th{border:1px solid #ddd;padding:6px 10px}</style>")
	sb.WriteString("</head><body>")
	sb.WriteString("<h1>Metrics</h1>")

	sb.WriteString("<table><tr><th>ID</th><th>User</th><th>Date</th><th>Exercise, kcal</th></tr>")
	for _, it := range snap {
		sb.WriteString("<tr><td>")
		sb.WriteString(strconv.FormatInt(it.ID, 10))
		sb.WriteString("</td><td>")
		sb.WriteString(html.EscapeString(it.UserID))
		sb.WriteString("</td><td>")
		sb.WriteString(html.EscapeString(it.Date))
		sb.WriteString("</td><td>")
		sb.WriteString(strconv.Itoa(it.ExerciseSpending))
		sb.WriteString("</td></tr>")
	}
	sb.WriteString("</table>")

	sb.WriteString("</body></html>")

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(sb.String()))
}

// Ping proxies `GET /ping` to the storage health check.
func (h *Handler) Ping(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		c.String(http.StatusInternalServerError, "db ping error: %v", err)
		return
	}
	c.String(http.StatusOK, "ok")
}

// SnapshotJSON handles `GET /api/v1/snapshot` and returns every stored metric with its owner.
func (h *Handler) SnapshotJSON(c *gin.Context) {
	snap, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func metricID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("metricID"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return 0, false
	}
	return id, true
}

func calories(c *gin.Context) (int, bool) {
	cal, err := strconv.Atoi(c.Param("calories"))
	if err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return 0, false
	}
	return cal, true
}

func httpError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrNotFound):
		c.String(http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidArgument):
		c.String(http.StatusBadRequest, "bad request")
	case errors.Is(err, domain.ErrConflict):
		c.String(http.StatusConflict, "conflict")
	default:
		c.String(http.StatusInternalServerError, "internal error")
	}
}
