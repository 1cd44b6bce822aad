package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/config"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/pkg/common"
	"golang-goodnews/pkg/logger"
	"golang-goodnews/pkg/utils"

	"github.com/mmcdole/gofeed"
)

const (
	SourceRSS = "rss"

	defaultFeedTitle = "RSS Feed"
)

type rssSource struct {
	cfg        config.RSS
	log        *logger.Logger
	httpClient *http.Client
	extractor  ContentExtractor
}

// NewRSSSource creates a Source spanning every feed configured for a topic.
// extractor may be nil; it is only used when full content extraction is enabled.
func NewRSSSource(cfg config.RSS, log *logger.Logger, extractor ContentExtractor) Source {
	if cfg.UserAgent == "" {
		cfg.UserAgent = common.DefaultUserAgent
	}
	client := newHTTPClient(cfg.Timeout)
	if extractor == nil && cfg.ExtractFullContent {
		extractor = NewReadabilityExtractor(client, cfg.UserAgent)
	}
	return &rssSource{
		cfg:        cfg,
		log:        log,
		httpClient: client,
		extractor:  extractor,
	}
}

func (s *rssSource) Name() string {
	return SourceRSS
}

func (s *rssSource) IsAvailable() bool {
	for _, urls := range s.cfg.Feeds {
		if len(urls) > 0 {
			return true
		}
	}
	return false
}

func (s *rssSource) Fetch(ctx context.Context, query dto.NewsQuery) ([]entity.Article, error) {
	query = query.WithDefaults(0)
	feedURLs := s.feedsFor(query.Topic)
	if len(feedURLs) == 0 {
		return nil, fmt.Errorf("%s: no feeds configured: %w", SourceRSS, dto.ErrSourceUnavailable)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		articles []entity.Article
		errs     []error
	)
	for _, feedURL := range feedURLs {
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			items, err := s.fetchFeed(ctx, feedURL, query.Topic)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.WarnContext(ctx, "Failed to fetch RSS feed", logger.ErrorField(err), logger.StringField("url", feedURL))
				errs = append(errs, err)
				return
			}
			articles = append(articles, items...)
		})
	}
	wg.Wait()

	if len(errs) == len(feedURLs) {
		return nil, fmt.Errorf("%s: %w: %w", SourceRSS, dto.ErrSourceUnavailable, errors.Join(errs...))
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if len(articles) > query.Limit {
		articles = articles[:query.Limit]
	}

	if s.cfg.ExtractFullContent && s.extractor != nil {
		s.fillContent(ctx, articles)
	}
	return articles, nil
}

// feedsFor returns the feed list of topic, falling back to the "all" list.
func (s *rssSource) feedsFor(topic entity.Topic) []string {
	if urls := s.cfg.Feeds[topic.String()]; len(urls) > 0 {
		return urls
	}
	return s.cfg.Feeds[entity.TopicAll.String()]
}

func (s *rssSource) fetchFeed(ctx context.Context, feedURL string, topic entity.Topic) ([]entity.Article, error) {
	fp := gofeed.NewParser()
	fp.Client = s.httpClient
	fp.UserAgent = s.cfg.UserAgent

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
	}

	feedTitle := utils.SafeText(feed.Title)
	if feedTitle == "" {
		feedTitle = defaultFeedTitle
	}

	articles := make([]entity.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		article, ok := rssArticle(item, feedTitle, topic)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// fillContent extracts page text for articles whose feed item carried none.
func (s *rssSource) fillContent(ctx context.Context, articles []entity.Article) {
	for i := range articles {
		if !utils.ShouldContinue(ctx) {
			return
		}
		if articles[i].Content != "" || articles[i].URL == "" {
			continue
		}
		content, err := s.extractor.Extract(ctx, articles[i].URL)
		if err != nil {
			s.log.DebugContext(ctx, "Failed to extract article content", logger.ErrorField(err), logger.StringField("url", articles[i].URL))
			continue
		}
		articles[i].Content = content
	}
}

func rssArticle(item *gofeed.Item, feedTitle string, topic entity.Topic) (entity.Article, bool) {
	if item == nil {
		return entity.Article{}, false
	}
	title := utils.StripHTML(item.Title)
	content := utils.StripHTML(item.Content)
	description := utils.StripHTML(item.Description)
	if description == "" {
		description = content
	}
	if title == "" || description == "" || item.Link == "" {
		return entity.Article{}, false
	}

	publishedAt := time.Now()
	switch {
	case item.PublishedParsed != nil:
		publishedAt = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		publishedAt = *item.UpdatedParsed
	}

	article := entity.NewArticle(
		title,
		description,
		item.Link,
		publishedAt,
		resolveTopic(topic, func() entity.Topic {
			return keywordTopic(title + " " + strings.Join(item.Categories, " "))
		}),
	)
	article.Content = content
	article.ImageURL = rssImage(item)
	article.Author = rssAuthor(item)
	article.Source = feedTitle
	article.AddKeywords(item.Categories...)
	return article, true
}

func rssImage(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		if enclosure.Type == "" || strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	if src := utils.FirstImageSrc(item.Content); src != "" {
		return src
	}
	return utils.FirstImageSrc(item.Description)
}

func rssAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return utils.SafeText(item.Author.Name)
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			return utils.SafeText(author.Name)
		}
	}
	return ""
}
