package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/config"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/internal/news/repository"
	"golang-goodnews/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubSource struct {
	articles []entity.Article
	err      error
	// block makes Fetch wait for ctx to end.
	block bool
	// release, when set, holds Fetch until closed; started is signalled on entry.
	release chan struct{}
	started chan struct{}

	mu      sync.Mutex
	calls   int
	queries []dto.NewsQuery
}

func (s *stubSource) Name() string      { return "stub" }
func (s *stubSource) IsAvailable() bool { return true }

func (s *stubSource) Fetch(ctx context.Context, query dto.NewsQuery) ([]entity.Article, error) {
	s.mu.Lock()
	s.calls++
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.release != nil {
		if s.started != nil {
			select {
			case s.started <- struct{}{}:
			default:
			}
		}
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]entity.Article, len(s.articles))
	copy(out, s.articles)
	return out, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubAnalyzer scores articles by title; unknown titles are unscorable.
type stubAnalyzer struct {
	scores map[string]int
}

func (a *stubAnalyzer) Name() string    { return "stub" }
func (a *stubAnalyzer) IsPremium() bool { return false }

func (a *stubAnalyzer) Analyze(_ context.Context, _ string, title string) (*dto.PositivityAnalysis, error) {
	score, ok := a.scores[title]
	if !ok {
		return nil, dto.ErrUnscorable
	}
	return &dto.PositivityAnalysis{
		Score:            score,
		Sentiment:        dto.SentimentForScore(score),
		Confidence:       0.5,
		PositiveKeywords: []string{"hope"},
	}, nil
}

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestConfig() *config.Config {
	return &config.Config{
		News:  config.News{MinPositivityScore: 40, ScoringWorkers: 2},
		Cache: config.Cache{Driver: repository.CacheDriverMemory, TTL: time.Hour, CheckPeriod: time.Minute},
		Refresh: config.Refresh{
			Cron:      "*/30 * * * *",
			Topics:    []string{"all"},
			Timeout:   time.Minute,
			Retention: 30 * 24 * time.Hour,
		},
		Telegram: config.Telegram{DigestSize: 5},
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&entity.Article{}, &entity.RefreshRun{}))
	return db
}

func newTestArticleRepository(t *testing.T) repository.ArticleRepository {
	t.Helper()
	return repository.NewArticleRepository(newTestDB(t))
}

func rawArticle(title string, topic entity.Topic, publishedAt time.Time) entity.Article {
	a := entity.NewArticle(title, "description of "+title, "https://example.com/"+title, publishedAt, topic)
	a.Source = "Stub"
	return a
}

type serviceFixture struct {
	svc    NewsService
	source *stubSource
	repo   repository.ArticleRepository
	cache  repository.CacheRepository
	cfg    *config.Config
}

func newFixture(t *testing.T, repo repository.ArticleRepository, articles []entity.Article, scores map[string]int) *serviceFixture {
	t.Helper()
	cfg := newTestConfig()
	src := &stubSource{articles: articles}
	cache := repository.NewMemoryCacheRepository(cfg.Cache.TTL, cfg.Cache.CheckPeriod)
	svc := NewNewsService(cfg, src, &stubAnalyzer{scores: scores}, repo, cache, logger.NewNop())
	return &serviceFixture{svc: svc, source: src, repo: repo, cache: cache, cfg: cfg}
}

func TestCacheKey(t *testing.T) {
	q := dto.NewsQuery{Topic: entity.TopicHealth}.WithDefaults(40)
	assert.Equal(t, "news:health:40:20:1", CacheKey(q))

	q = dto.NewsQuery{MinPositivity: intPtr(75), Limit: 5, Page: 3}.WithDefaults(40)
	assert.Equal(t, "news:all:75:5:3", CacheKey(q))
}

func intPtr(v int) *int { return &v }

func TestGetNewsServesRepeatQueriesFromCache(t *testing.T) {
	articles := []entity.Article{
		rawArticle("solar", entity.TopicEnvironment, baseTime),
		rawArticle("garden", entity.TopicCommunity, baseTime.Add(-time.Hour)),
	}
	f := newFixture(t, newTestArticleRepository(t), articles, map[string]int{"solar": 80, "garden": 65})
	ctx := context.Background()

	first, err := f.svc.GetNews(ctx, dto.NewsQuery{})
	require.NoError(t, err)
	require.Len(t, first.Articles, 2)
	assert.Equal(t, 1, f.source.callCount())

	second, err := f.svc.GetNews(ctx, dto.NewsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.source.callCount())

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestGetNewsSharedLoadSurvivesFirstCallerCancel(t *testing.T) {
	articles := []entity.Article{rawArticle("solar", entity.TopicEnvironment, baseTime)}
	f := newFixture(t, newTestArticleRepository(t), articles, map[string]int{"solar": 80})
	f.source.release = make(chan struct{})
	f.source.started = make(chan struct{}, 1)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.svc.GetNews(firstCtx, dto.NewsQuery{})
		firstErr <- err
	}()

	select {
	case <-f.source.started:
	case <-time.After(2 * time.Second):
		t.Fatal("source fetch never started")
	}

	type result struct {
		resp *dto.NewsResponse
		err  error
	}
	second := make(chan result, 1)
	go func() {
		resp, err := f.svc.GetNews(context.Background(), dto.NewsQuery{})
		second <- result{resp, err}
	}()

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting on the shared load")
	}

	time.Sleep(20 * time.Millisecond)
	close(f.source.release)

	select {
	case res := <-second:
		require.NoError(t, res.err)
		require.Len(t, res.resp.Articles, 1)
		assert.Equal(t, "solar", res.resp.Articles[0].Title)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never got a response")
	}
	assert.Equal(t, 1, f.source.callCount())
}

func TestGetNewsUsesStoreWhenPageIsFull(t *testing.T) {
	repo := newTestArticleRepository(t)
	stored := make([]entity.Article, 0, 3)
	for i := 0; i < 3; i++ {
		a := rawArticle(fmt.Sprintf("stored-%d", i), entity.TopicScience, baseTime.Add(-time.Duration(i)*time.Minute))
		a.PositivityScore = 70
		stored = append(stored, a)
	}
	_, err := repo.UpsertMany(context.Background(), stored)
	require.NoError(t, err)

	f := newFixture(t, repo, nil, nil)
	resp, err := f.svc.GetNews(context.Background(), dto.NewsQuery{Topic: entity.TopicScience, Limit: 3})
	require.NoError(t, err)

	assert.Equal(t, 0, f.source.callCount())
	require.Len(t, resp.Articles, 3)
	assert.Equal(t, "stored-0", resp.Articles[0].Title)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 3, resp.PageSize)
}

func TestFetchAndStoreNewsKeepsArticlesAtMinimum(t *testing.T) {
	articles := []entity.Article{
		rawArticle("below", entity.TopicHealth, baseTime),
		rawArticle("at", entity.TopicHealth, baseTime),
		rawArticle("unscorable", entity.TopicHealth, baseTime),
	}
	f := newFixture(t, newTestArticleRepository(t), articles, map[string]int{"below": 39, "at": 40})

	kept, err := f.svc.FetchAndStoreNews(context.Background(), dto.NewsQuery{Topic: entity.TopicHealth})
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "at", kept[0].Title)
	assert.Equal(t, 40, kept[0].PositivityScore)
	assert.Contains(t, []string(kept[0].Keywords), "hope")

	stored, err := f.repo.Find(context.Background(), repository.ArticleFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "at", stored[0].Title)
}

func TestFetchAndStoreNewsTreatsSourceErrorAsEmpty(t *testing.T) {
	f := newFixture(t, newTestArticleRepository(t), nil, nil)
	f.source.err = errors.New("provider down")

	kept, err := f.svc.FetchAndStoreNews(context.Background(), dto.NewsQuery{})
	require.NoError(t, err)
	assert.Empty(t, kept)
}

func TestFetchAndStoreNewsReturnsCancellation(t *testing.T) {
	f := newFixture(t, newTestArticleRepository(t), nil, nil)
	f.source.err = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.FetchAndStoreNews(ctx, dto.NewsQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetNewsFallsBackToFreshArticlesWithoutStore(t *testing.T) {
	articles := []entity.Article{
		rawArticle("one", entity.TopicArts, baseTime),
		rawArticle("two", entity.TopicArts, baseTime),
		rawArticle("three", entity.TopicArts, baseTime),
		rawArticle("dull", entity.TopicArts, baseTime),
	}
	scores := map[string]int{"one": 90, "two": 60, "three": 55, "dull": 45}
	f := newFixture(t, repository.NewUnavailableArticleRepository(), articles, scores)

	resp, err := f.svc.GetNews(context.Background(), dto.NewsQuery{MinPositivity: intPtr(50), Limit: 2})
	require.NoError(t, err)
	require.Len(t, resp.Articles, 2)
	assert.Equal(t, "one", resp.Articles[0].Title)
	assert.Equal(t, "two", resp.Articles[1].Title)
}

func TestGetNewsEmptyResultIsNotNil(t *testing.T) {
	f := newFixture(t, newTestArticleRepository(t), nil, nil)

	resp, err := f.svc.GetNews(context.Background(), dto.NewsQuery{})
	require.NoError(t, err)
	assert.NotNil(t, resp.Articles)
	assert.Empty(t, resp.Articles)
	assert.Equal(t, 0, resp.Total)
}

func TestGetTopicStats(t *testing.T) {
	repo := newTestArticleRepository(t)
	a := rawArticle("clinic", entity.TopicHealth, baseTime)
	a.PositivityScore = 60
	b := rawArticle("dim", entity.TopicHealth, baseTime)
	b.PositivityScore = 10
	_, err := repo.UpsertMany(context.Background(), []entity.Article{a, b})
	require.NoError(t, err)

	f := newFixture(t, repo, nil, nil)
	stats, err := f.svc.GetTopicStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, len(entity.Topics)-1)

	byID := make(map[entity.Topic]dto.TopicStat, len(stats))
	for _, s := range stats {
		byID[s.ID] = s
	}
	assert.EqualValues(t, 1, byID[entity.TopicHealth].Count)
	assert.EqualValues(t, 0, byID[entity.TopicArts].Count)
	assert.Equal(t, "Social Progress", byID[entity.TopicSocialProgress].Name)
	assert.NotContains(t, byID, entity.TopicAll)
}

func TestGetTopicStatsWithoutStore(t *testing.T) {
	f := newFixture(t, repository.NewUnavailableArticleRepository(), nil, nil)
	stats, err := f.svc.GetTopicStats(context.Background())
	require.NoError(t, err)
	for _, s := range stats {
		assert.Zero(t, s.Count)
	}
}

func TestGetArticleByID(t *testing.T) {
	repo := newTestArticleRepository(t)
	a := rawArticle("kept", entity.TopicHealth, baseTime)
	a.PositivityScore = 60
	_, err := repo.UpsertMany(context.Background(), []entity.Article{a})
	require.NoError(t, err)

	f := newFixture(t, repo, nil, nil)
	got, err := f.svc.GetArticleByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Title)

	_, err = f.svc.GetArticleByID(context.Background(), "missing")
	assert.ErrorIs(t, err, dto.ErrArticleNotFound)
}

func TestRefreshInvalidatesCachedPages(t *testing.T) {
	articles := []entity.Article{rawArticle("clinic", entity.TopicHealth, baseTime)}
	f := newFixture(t, newTestArticleRepository(t), articles, map[string]int{"clinic": 75})
	ctx := context.Background()

	for _, key := range []string{"news:health:40:20:1", "news:all:40:20:1", "news:arts:40:20:1"} {
		require.NoError(t, f.cache.Set(ctx, key, []byte(`{}`), time.Hour))
	}

	stored, err := f.svc.Refresh(ctx, entity.TopicHealth)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	f.source.mu.Lock()
	assert.Equal(t, dto.RefreshLimit, f.source.queries[0].Limit)
	assert.Equal(t, entity.TopicHealth, f.source.queries[0].Topic)
	f.source.mu.Unlock()

	_, found, err := f.cache.Get(ctx, "news:health:40:20:1")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = f.cache.Get(ctx, "news:all:40:20:1")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = f.cache.Get(ctx, "news:arts:40:20:1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCheckDatabase(t *testing.T) {
	f := newFixture(t, newTestArticleRepository(t), nil, nil)
	assert.NoError(t, f.svc.CheckDatabase(context.Background()))

	f = newFixture(t, repository.NewUnavailableArticleRepository(), nil, nil)
	assert.ErrorIs(t, f.svc.CheckDatabase(context.Background()), dto.ErrRepositoryUnavailable)
}
