package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/analyzer"
	"golang-goodnews/internal/news/config"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/internal/news/repository"
	"golang-goodnews/internal/news/source"
	"golang-goodnews/pkg/common"
	"golang-goodnews/pkg/logger"
	"golang-goodnews/pkg/utils"

	"golang.org/x/sync/singleflight"
)

// MaxAnalysisTextLength caps the description and content passed to the analyzer.
const MaxAnalysisTextLength = 5000

const (
	defaultScoringWorkers = 4
	defaultLoadTimeout    = 2 * time.Minute
)

// NewsService fetches, scores, stores and serves positive news.
type NewsService interface {
	GetNews(ctx context.Context, query dto.NewsQuery) (*dto.NewsResponse, error)
	FetchAndStoreNews(ctx context.Context, query dto.NewsQuery) ([]entity.Article, error)
	GetTopicStats(ctx context.Context) ([]dto.TopicStat, error)
	GetArticleByID(ctx context.Context, id string) (*entity.Article, error)
	Refresh(ctx context.Context, topic entity.Topic) ([]entity.Article, error)
	CheckDatabase(ctx context.Context) error
}

type newsService struct {
	cfg         *config.Config
	source      source.Source
	analyzer    analyzer.PositivityAnalyzer
	articleRepo repository.ArticleRepository
	cacheRepo   repository.CacheRepository
	logger      *logger.Logger
	inflight    singleflight.Group
}

// NewNewsService creates a new NewsService.
func NewNewsService(
	cfg *config.Config,
	src source.Source,
	positivityAnalyzer analyzer.PositivityAnalyzer,
	articleRepo repository.ArticleRepository,
	cacheRepo repository.CacheRepository,
	log *logger.Logger,
) NewsService {
	return &newsService{
		cfg:         cfg,
		source:      src,
		analyzer:    positivityAnalyzer,
		articleRepo: articleRepo,
		cacheRepo:   cacheRepo,
		logger:      log,
	}
}

// CacheKey identifies a defaulted query in the response cache.
func CacheKey(q dto.NewsQuery) string {
	return fmt.Sprintf("%s:%s:%d:%d:%d", common.CacheKeyPrefixNews, q.Topic.OrAll(), q.MinScore(), q.Limit, q.Page)
}

// topicCachePrefix matches every cached page of topic.
func topicCachePrefix(topic entity.Topic) string {
	return fmt.Sprintf("%s:%s:", common.CacheKeyPrefixNews, topic.OrAll())
}

// GetNews serves a page from the cache, then the store, and fetches fresh articles
// only when the store cannot fill the page.
func (s *newsService) GetNews(ctx context.Context, query dto.NewsQuery) (*dto.NewsResponse, error) {
	q := query.WithDefaults(s.cfg.News.MinPositivityScore)
	key := CacheKey(q)

	if resp, ok := s.cachedResponse(ctx, key); ok {
		s.logger.DebugContext(ctx, "Returning cached news", logger.StringField("cache_key", key))
		return resp, nil
	}

	// The shared load outlives any single caller; each caller stops waiting on its own ctx.
	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout())
		defer cancel()
		return s.loadNews(loadCtx, q, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.DebugContext(ctx, "Shared in-flight news load", logger.StringField("cache_key", key))
		}
		return res.Val.(*dto.NewsResponse), nil
	}
}

func (s *newsService) loadTimeout() time.Duration {
	if s.cfg.Refresh.Timeout > 0 {
		return s.cfg.Refresh.Timeout
	}
	return defaultLoadTimeout
}

func (s *newsService) loadNews(ctx context.Context, q dto.NewsQuery, key string) (*dto.NewsResponse, error) {
	filter := repository.FilterFromQuery(q)

	stored, err := s.articleRepo.Find(ctx, filter, q.Offset(), q.Limit)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "Article store unavailable, fetching fresh articles", logger.ErrorField(err))
	case len(stored) >= q.Limit:
		s.logger.InfoContext(ctx, "Returning stored articles", logger.IntField("count", len(stored)))
		return s.respond(ctx, key, stored, q), nil
	}

	fresh, err := s.FetchAndStoreNews(ctx, q)
	if err != nil {
		return nil, err
	}

	articles, err := s.articleRepo.Find(ctx, filter, q.Offset(), q.Limit)
	if err != nil {
		s.logger.WarnContext(ctx, "Using fresh articles, article store unavailable", logger.ErrorField(err))
		articles = filterFresh(fresh, q)
	}
	return s.respond(ctx, key, articles, q), nil
}

// filterFresh applies the query's positivity floor and page size to freshly scored articles.
func filterFresh(articles []entity.Article, q dto.NewsQuery) []entity.Article {
	filtered := make([]entity.Article, 0, len(articles))
	for _, a := range articles {
		if a.PositivityScore < q.MinScore() {
			continue
		}
		filtered = append(filtered, a)
		if len(filtered) == q.Limit {
			break
		}
	}
	return filtered
}

func (s *newsService) respond(ctx context.Context, key string, articles []entity.Article, q dto.NewsQuery) *dto.NewsResponse {
	if articles == nil {
		articles = []entity.Article{}
	}
	resp := &dto.NewsResponse{
		Articles: articles,
		Total:    len(articles),
		Page:     q.Page,
		PageSize: q.Limit,
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode news response", logger.ErrorField(err))
		return resp
	}
	if err := s.cacheRepo.Set(ctx, key, encoded, s.cfg.Cache.TTL); err != nil {
		s.logger.WarnContext(ctx, "Failed to cache news response", logger.ErrorField(err), logger.StringField("cache_key", key))
	}
	return resp
}

func (s *newsService) cachedResponse(ctx context.Context, key string) (*dto.NewsResponse, bool) {
	encoded, found, err := s.cacheRepo.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read news cache", logger.ErrorField(err), logger.StringField("cache_key", key))
		return nil, false
	}
	if !found {
		return nil, false
	}

	var resp dto.NewsResponse
	if err := json.Unmarshal(encoded, &resp); err != nil {
		s.logger.WarnContext(ctx, "Dropping undecodable cache entry", logger.ErrorField(err), logger.StringField("cache_key", key))
		_ = s.cacheRepo.Delete(ctx, key)
		return nil, false
	}
	return &resp, true
}

// FetchAndStoreNews pulls raw articles from the configured source, scores them, keeps those
// at or above the configured minimum and stores them. Store failures are logged, not returned.
func (s *newsService) FetchAndStoreNews(ctx context.Context, query dto.NewsQuery) ([]entity.Article, error) {
	q := query.WithDefaults(s.cfg.News.MinPositivityScore)

	raw, err := s.source.Fetch(ctx, q)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.WarnContext(ctx, "News source failed", logger.StringField("source", s.source.Name()), logger.ErrorField(err))
		raw = nil
	}
	s.logger.InfoContext(ctx, "Fetched raw articles",
		logger.StringField("source", s.source.Name()),
		logger.IntField("count", len(raw)),
	)

	scored := s.scoreArticles(ctx, raw)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	positive := make([]entity.Article, 0, len(scored))
	for _, a := range scored {
		if a.PositivityScore >= s.cfg.News.MinPositivityScore {
			positive = append(positive, a)
		}
	}
	s.logger.InfoContext(ctx, "Articles passed positivity filter",
		logger.IntField("count", len(positive)),
		logger.IntField("min_positivity", s.cfg.News.MinPositivityScore),
	)

	if len(positive) > 0 {
		stored, err := s.articleRepo.UpsertMany(ctx, positive)
		if err != nil {
			s.logger.WarnContext(ctx, "Could not store articles", logger.ErrorField(err))
		} else {
			s.logger.InfoContext(ctx, "Stored articles", logger.Int64Field("rows", stored))
		}
	}
	return positive, nil
}

// scoreArticles analyzes articles on a bounded worker pool. Articles that fail
// analysis are dropped; the rest keep their input order.
func (s *newsService) scoreArticles(ctx context.Context, articles []entity.Article) []entity.Article {
	workers := s.cfg.News.ScoringWorkers
	if workers <= 0 {
		workers = defaultScoringWorkers
	}

	results := make([]*entity.Article, len(articles))
	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range articles {
		if !utils.ShouldContinue(ctx) {
			break
		}
		wg.Add(1)
		semaphore <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[i] = s.scoreArticle(ctx, articles[i])
		}()
	}
	wg.Wait()

	scored := make([]entity.Article, 0, len(articles))
	for _, a := range results {
		if a != nil {
			scored = append(scored, *a)
		}
	}
	return scored
}

func (s *newsService) scoreArticle(ctx context.Context, article entity.Article) (result *entity.Article) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Recovered from panic while analyzing article",
				logger.StringField("title", article.Title),
				logger.Field("panic", r),
			)
			result = nil
		}
	}()

	text := utils.TruncateRunes(article.Description+" "+article.Content, MaxAnalysisTextLength)
	analysis, err := s.analyzer.Analyze(ctx, text, article.Title)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to analyze article", logger.ErrorField(err), logger.StringField("title", article.Title))
		return nil
	}

	article.PositivityScore = analysis.Score
	article.AddKeywords(analysis.PositiveKeywords...)
	return &article
}

// GetTopicStats lists every concrete topic with its stored article count at the configured minimum.
// Counts are zero when the store is unavailable.
func (s *newsService) GetTopicStats(ctx context.Context) ([]dto.TopicStat, error) {
	counts, err := s.articleRepo.CountByTopic(ctx, s.cfg.News.MinPositivityScore)
	if err != nil {
		s.logger.WarnContext(ctx, "Article store unavailable for topic stats", logger.ErrorField(err))
		counts = map[entity.Topic]int64{}
	}

	stats := make([]dto.TopicStat, 0, len(entity.Topics)-1)
	for _, topic := range entity.Topics {
		if topic == entity.TopicAll {
			continue
		}
		stats = append(stats, dto.TopicStat{
			ID:    topic,
			Name:  utils.CapitalizeWords(topic.String()),
			Count: counts[topic],
		})
	}
	return stats, nil
}

func (s *newsService) GetArticleByID(ctx context.Context, id string) (*entity.Article, error) {
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, dto.ErrArticleNotFound) || errors.Is(err, dto.ErrRepositoryUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

// Refresh fetches and stores up to dto.RefreshLimit articles for topic and drops the
// cached pages that the new articles may change.
func (s *newsService) Refresh(ctx context.Context, topic entity.Topic) ([]entity.Article, error) {
	start := time.Now()
	topic = topic.OrAll()

	articles, err := s.FetchAndStoreNews(ctx, dto.NewsQuery{Topic: topic, Limit: dto.RefreshLimit, Page: dto.DefaultPage})
	if err != nil {
		return nil, err
	}

	prefixes := []string{topicCachePrefix(topic)}
	if topic != entity.TopicAll {
		prefixes = append(prefixes, topicCachePrefix(entity.TopicAll))
	}
	for _, prefix := range prefixes {
		if err := s.cacheRepo.DeleteByPrefix(ctx, prefix); err != nil {
			s.logger.WarnContext(ctx, "Failed to invalidate cached news", logger.ErrorField(err), logger.StringField("prefix", prefix))
		}
	}

	s.logger.InfoContext(ctx, "News refresh completed",
		logger.StringField("topic", topic.String()),
		logger.IntField("stored", len(articles)),
		logger.Field("duration", time.Since(start)),
	)
	return articles, nil
}

func (s *newsService) CheckDatabase(ctx context.Context) error {
	return s.articleRepo.Ping(ctx)
}
