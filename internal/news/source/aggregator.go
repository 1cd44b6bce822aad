package source

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/pkg/logger"
)

const (
	SourceMulti = "multi"

	// DedupTitlePrefixLength is how many characters of a normalized title identify a story.
	DedupTitlePrefixLength = 50
)

var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	spacesRegex          = regexp.MustCompile(`\s+`)
)

// SourceResult is the settled outcome of one adapter call.
type SourceResult struct {
	Source   string
	Articles []entity.Article
	Err      error
	Duration time.Duration
}

// Aggregator fans a query out to every available source and merges the results.
// It is itself a Source named "multi".
type Aggregator struct {
	sources []Source
	log     *logger.Logger
}

// NewAggregator creates an Aggregator over sources, queried in the given order.
func NewAggregator(log *logger.Logger, sources ...Source) *Aggregator {
	return &Aggregator{sources: sources, log: log}
}

func (a *Aggregator) Name() string {
	return SourceMulti
}

// IsAvailable reports whether at least one source is available.
func (a *Aggregator) IsAvailable() bool {
	return len(a.available()) > 0
}

// Fetch returns deduplicated articles from every available source, newest first, capped at the query limit.
// Source failures are logged and skipped; only a cancelled context is returned as an error.
func (a *Aggregator) Fetch(ctx context.Context, query dto.NewsQuery) ([]entity.Article, error) {
	query = query.WithDefaults(0)
	results := a.FetchAll(ctx, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var articles []entity.Article
	for _, result := range results {
		if result.Err != nil {
			a.log.WarnContext(ctx, "News source failed",
				logger.StringField("source", result.Source),
				logger.ErrorField(result.Err),
				logger.Field("duration", result.Duration),
			)
			continue
		}
		a.log.InfoContext(ctx, "News source fetched",
			logger.StringField("source", result.Source),
			logger.IntField("articles", len(result.Articles)),
			logger.Field("duration", result.Duration),
		)
		articles = append(articles, result.Articles...)
	}

	articles = Deduplicate(articles)
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if len(articles) > query.Limit {
		articles = articles[:query.Limit]
	}
	return articles, nil
}

// FetchAll invokes every available source concurrently with a per-source share of the limit
// and waits for all of them to settle. Results keep the source order.
func (a *Aggregator) FetchAll(ctx context.Context, query dto.NewsQuery) []SourceResult {
	sources := a.available()
	if len(sources) == 0 {
		a.log.WarnContext(ctx, "No news source available")
		return nil
	}

	query = query.WithDefaults(0)
	perSource := query
	perSource.Limit = PerSourceLimit(query.Limit, len(sources))

	results := make([]SourceResult, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = fetchOne(ctx, src, perSource)
		}()
	}
	wg.Wait()
	return results
}

func (a *Aggregator) available() []Source {
	var sources []Source
	for _, src := range a.sources {
		if src.IsAvailable() {
			sources = append(sources, src)
		}
	}
	return sources
}

// fetchOne calls src and converts a panic into that source's failure.
func fetchOne(ctx context.Context, src Source, query dto.NewsQuery) (result SourceResult) {
	start := time.Now()
	result.Source = src.Name()
	defer func() {
		if r := recover(); r != nil {
			result.Articles = nil
			result.Err = fmt.Errorf("%s: %w: panic: %v", result.Source, dto.ErrSourceUnavailable, r)
		}
		result.Duration = time.Since(start)
	}()

	result.Articles, result.Err = src.Fetch(ctx, query)
	if result.Err != nil {
		result.Articles = nil
	}
	return result
}

// PerSourceLimit splits limit evenly across n sources, rounding up.
func PerSourceLimit(limit, n int) int {
	if n <= 0 {
		return limit
	}
	return (limit + n - 1) / n
}

// NormalizeTitle builds the dedup key of a title: lowercase ASCII letters and digits
// with single spaces, cut to DedupTitlePrefixLength characters.
func NormalizeTitle(title string) string {
	key := strings.ToLower(title)
	key = nonAlphanumericRegex.ReplaceAllString(key, "")
	key = strings.TrimSpace(spacesRegex.ReplaceAllString(key, " "))
	if len(key) > DedupTitlePrefixLength {
		key = key[:DedupTitlePrefixLength]
	}
	return key
}

// Deduplicate collapses articles with the same normalized title, keeping the one
// with the longer content. Ties keep the first seen. Order of first appearance is preserved.
func Deduplicate(articles []entity.Article) []entity.Article {
	unique := make([]entity.Article, 0, len(articles))
	index := make(map[string]int, len(articles))
	for _, article := range articles {
		key := NormalizeTitle(article.Title)
		if key == "" {
			key = "url:" + article.URL
		}
		i, ok := index[key]
		if !ok {
			index[key] = len(unique)
			unique = append(unique, article)
			continue
		}
		if utf8.RuneCountInString(article.Content) > utf8.RuneCountInString(unique[i].Content) {
			unique[i] = article
		}
	}
	return unique
}
