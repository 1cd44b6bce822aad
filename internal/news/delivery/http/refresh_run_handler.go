package http

import (
	"errors"
	"net/http"
	"strconv"

	"golang-goodnews/internal/news/dto"
	"golang-goodnews/internal/news/service"
	"golang-goodnews/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RefreshRunHandler handles HTTP requests for the refresh run history.
type RefreshRunHandler struct {
	refreshService service.RefreshService
	logger         *logger.Logger
}

// NewRefreshRunHandler creates a new RefreshRunHandler.
func NewRefreshRunHandler(refreshService service.RefreshService, logger *logger.Logger) *RefreshRunHandler {
	return &RefreshRunHandler{refreshService: refreshService, logger: logger}
}

// RegisterRoutes registers the refresh run routes to the Echo group.
func (h *RefreshRunHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRuns)
	g.GET("/:id", h.GetRunByID)
}

// GetRuns godoc
// @Summary List refresh runs
// @Description Get the latest scheduled refresh runs, newest first
// @Tags refresh
// @Produce  json
// @Param   limit  query  int  false  "Number of runs (1-100)"  default(20)
// @Success 200 {array} dto.RefreshRunResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /refresh/runs [get]
func (h *RefreshRunHandler) GetRuns(c echo.Context) error {
	limit := dto.DefaultLimit
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > dto.MaxLimit {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "limit must be an integer between 1 and 100"})
		}
		limit = v
	}

	runs, err := h.refreshService.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(statusFor(err), dto.ErrorResponse{Error: "Failed to get refresh runs"})
	}
	return c.JSON(http.StatusOK, runs)
}

// GetRunByID godoc
// @Summary Get a refresh run
// @Description Get a single refresh run by its ID
// @Tags refresh
// @Produce  json
// @Param   id  path  int  true  "Refresh run ID"
// @Success 200 {object} dto.RefreshRunResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /refresh/runs/{id} [get]
func (h *RefreshRunHandler) GetRunByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid refresh run ID"})
	}

	run, err := h.refreshService.GetRun(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, dto.ErrRefreshRunNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Refresh run not found"})
		}
		return c.JSON(statusFor(err), dto.ErrorResponse{Error: "Failed to get refresh run"})
	}
	return c.JSON(http.StatusOK, run)
}

func statusFor(err error) int {
	if errors.Is(err, dto.ErrRepositoryUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
