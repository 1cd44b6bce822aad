package http

import (
	"net/http"
	"time"

	"golang-goodnews/internal/news/dto"
	"golang-goodnews/internal/news/service"
	"golang-goodnews/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ServiceInfo describes the service on the root endpoint.
type ServiceInfo struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// SystemHandler serves the health check and the service info.
type SystemHandler struct {
	newsService service.NewsService
	logger      *logger.Logger
	info        ServiceInfo
	startedAt   time.Time
	now         func() time.Time
}

// NewSystemHandler creates a new SystemHandler. Uptime is measured from this call.
func NewSystemHandler(newsService service.NewsService, logger *logger.Logger, name, version string) *SystemHandler {
	return &SystemHandler{
		newsService: newsService,
		logger:      logger,
		info: ServiceInfo{
			Name:    name,
			Version: version,
			Endpoints: map[string]string{
				"news":    "/api/v1/news",
				"topics":  "/api/v1/news/topics",
				"refresh": "/api/v1/news/refresh",
				"runs":    "/api/v1/refresh/runs",
				"health":  "/api/v1/health",
				"docs":    "/swagger/index.html",
			},
		},
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// RegisterRoutes registers the root info route and the health route under api.
func (h *SystemHandler) RegisterRoutes(e *echo.Echo, api *echo.Group) {
	e.GET("/", h.Info)
	api.GET("/health", h.Health)
}

// Info godoc
// @Summary Service info
// @Tags system
// @Produce  json
// @Success 200 {object} ServiceInfo
// @Router / [get]
func (h *SystemHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, h.info)
}

// Health godoc
// @Summary Health check
// @Description Report service uptime and database connectivity
// @Tags system
// @Produce  json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *SystemHandler) Health(c echo.Context) error {
	now := h.now()
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: now.UTC(),
		Uptime:    now.Sub(h.startedAt).Seconds(),
		Database:  "connected",
	}

	ctx := c.Request().Context()
	if err := h.newsService.CheckDatabase(ctx); err != nil {
		h.logger.WarnContext(ctx, "Health check failed", logger.ErrorField(err))
		resp.Status = "unavailable"
		resp.Database = "disconnected"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
