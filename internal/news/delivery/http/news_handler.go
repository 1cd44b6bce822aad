package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/internal/news/service"
	"golang-goodnews/pkg/logger"
	"golang-goodnews/pkg/utils"

	"github.com/labstack/echo/v4"
)

// NewsHandler handles HTTP requests for news.
type NewsHandler struct {
	newsService service.NewsService
	logger      *logger.Logger
}

// NewNewsHandler creates a new NewsHandler.
func NewNewsHandler(newsService service.NewsService, logger *logger.Logger) *NewsHandler {
	return &NewsHandler{newsService: newsService, logger: logger}
}

// RegisterRoutes registers the news routes to the Echo group.
func (h *NewsHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetNews)
	g.GET("/topics", h.GetTopics)
	g.POST("/refresh", h.Refresh)
	g.GET("/:id", h.GetArticle)
}

// GetNews godoc
// @Summary List positive news
// @Description Get a page of positive articles, served from cache or store and fetched fresh when needed
// @Tags news
// @Produce  json
// @Param   topic          query   string  false  "Topic"  Enums(technology, science, environment, health, community, education, arts, social_progress, all)
// @Param   minPositivity  query   int     false  "Minimum positivity score (0-100)"
// @Param   limit          query   int     false  "Page size (1-100)"  default(20)
// @Param   page           query   int     false  "Page number"        default(1)
// @Param   from           query   string  false  "Published after (RFC3339 or YYYY-MM-DD)"
// @Param   to             query   string  false  "Published before (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} dto.NewsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /news [get]
func (h *NewsHandler) GetNews(c echo.Context) error {
	query, err := parseNewsQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	ctx := c.Request().Context()
	resp, err := h.newsService.GetNews(ctx, query)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to get news", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch news"})
	}
	return c.JSON(http.StatusOK, resp)
}

func parseNewsQuery(c echo.Context) (dto.NewsQuery, error) {
	var q dto.NewsQuery

	topic, err := entity.ParseTopic(c.QueryParam("topic"))
	if err != nil {
		return q, fmt.Errorf("invalid topic: %s", c.QueryParam("topic"))
	}
	q.Topic = topic

	if raw := c.QueryParam("minPositivity"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > 100 {
			return q, errors.New("minPositivity must be an integer between 0 and 100")
		}
		q.MinPositivity = utils.ToPointer(v)
	}

	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > dto.MaxLimit {
			return q, fmt.Errorf("limit must be an integer between 1 and %d", dto.MaxLimit)
		}
		q.Limit = v
	}

	if raw := c.QueryParam("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return q, errors.New("page must be a positive integer")
		}
		q.Page = v
	}

	if raw := c.QueryParam("from"); raw != "" {
		t, err := utils.ParseDate(raw)
		if err != nil {
			return q, fmt.Errorf("from: %w", err)
		}
		q.From = &t
	}

	if raw := c.QueryParam("to"); raw != "" {
		t, err := utils.ParseDate(raw)
		if err != nil {
			return q, fmt.Errorf("to: %w", err)
		}
		q.To = &t
	}

	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return q, errors.New("from must not be after to")
	}
	return q, nil
}

// GetTopics godoc
// @Summary List topics
// @Description Get every topic with its stored article count
// @Tags news
// @Produce  json
// @Success 200 {object} dto.TopicsResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /news/topics [get]
func (h *NewsHandler) GetTopics(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := h.newsService.GetTopicStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to get topic stats", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch topics"})
	}
	return c.JSON(http.StatusOK, dto.TopicsResponse{Topics: stats})
}

// Refresh godoc
// @Summary Refresh news
// @Description Fetch, score and store fresh articles for a topic
// @Tags news
// @Accept  json
// @Produce  json
// @Param   request  body  dto.RefreshRequest  false  "Topic to refresh"
// @Success 200 {object} dto.RefreshResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /news/refresh [post]
func (h *NewsHandler) Refresh(c echo.Context) error {
	var req dto.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	topic, err := entity.ParseTopic(req.Topic)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: fmt.Sprintf("invalid topic: %s", req.Topic)})
	}

	ctx := c.Request().Context()
	stored, err := h.newsService.Refresh(ctx, topic)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to refresh news", logger.ErrorField(err), logger.StringField("topic", topic.String()))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to refresh news", Message: err.Error()})
	}

	return c.JSON(http.StatusOK, dto.RefreshResponse{
		Success: true,
		Message: fmt.Sprintf("Refreshed %d articles for topic %s", len(stored), topic),
		Stored:  len(stored),
	})
}

// GetArticle godoc
// @Summary Get an article
// @Description Get a stored article by its ID
// @Tags news
// @Produce  json
// @Param   id  path  string  true  "Article ID"
// @Success 200 {object} entity.Article
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /news/{id} [get]
func (h *NewsHandler) GetArticle(c echo.Context) error {
	ctx := c.Request().Context()
	article, err := h.newsService.GetArticleByID(ctx, c.Param("id"))
	switch {
	case errors.Is(err, dto.ErrArticleNotFound):
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Article not found"})
	case errors.Is(err, dto.ErrRepositoryUnavailable):
		return c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Article store unavailable"})
	case err != nil:
		h.logger.ErrorContext(ctx, "Failed to get article", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch article"})
	}
	return c.JSON(http.StatusOK, article)
}
