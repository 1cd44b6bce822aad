package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/config"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/pkg/logger"
	"golang-goodnews/pkg/utils"

	"golang.org/x/time/rate"
)

const (
	SourceNewsAPI = "newsapi"

	newsAPIRemovedTitle = "[Removed]"
)

var newsAPIPositiveTerms = []string{
	"success", "breakthrough", "innovation", "achievement", "progress",
	"cure", "rescue", "help", "improve", "discover", "celebrate",
}

var newsAPITopicKeywords = map[entity.Topic][]string{
	entity.TopicTechnology:     {"technology", "innovation", "AI", "startup", "invention"},
	entity.TopicScience:        {"science", "research", "discovery", "breakthrough", "study"},
	entity.TopicEnvironment:    {"environment", "sustainability", "renewable", "conservation", "green"},
	entity.TopicHealth:         {"health", "medical", "cure", "wellness", "treatment"},
	entity.TopicCommunity:      {"community", "volunteer", "charity", "help", "support"},
	entity.TopicEducation:      {"education", "learning", "students", "school", "university"},
	entity.TopicArts:           {"art", "culture", "music", "film", "creative"},
	entity.TopicSocialProgress: {"rights", "equality", "justice", "progress", "reform"},
}

// keywordTopicRules infer a topic from free text. They are evaluated in order and the first match wins.
var keywordTopicRules = []struct {
	topic entity.Topic
	re    *regexp.Regexp
}{
	{entity.TopicTechnology, regexp.MustCompile(`(?i)(tech|ai|robot|software|digital|internet|cyber)`)},
	{entity.TopicScience, regexp.MustCompile(`(?i)(science|research|study|discover|scientist)`)},
	{entity.TopicEnvironment, regexp.MustCompile(`(?i)(environment|climate|sustain|green|renew|conservation)`)},
	{entity.TopicHealth, regexp.MustCompile(`(?i)(health|medical|hospital|doctor|patient|cure)`)},
	{entity.TopicCommunity, regexp.MustCompile(`(?i)(community|volunteer|charity|local|neighbor)`)},
	{entity.TopicEducation, regexp.MustCompile(`(?i)(education|school|student|university|learn)`)},
	{entity.TopicArts, regexp.MustCompile(`(?i)(art|music|culture|film|creative|artist)`)},
	{entity.TopicSocialProgress, regexp.MustCompile(`(?i)(rights|equality|justice|progress|social)`)},
}

type newsAPISource struct {
	cfg            config.NewsAPI
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewNewsAPISource creates a Source backed by newsapi.org.
func NewNewsAPISource(cfg config.NewsAPI, log *logger.Logger) Source {
	return &newsAPISource{
		cfg:            cfg,
		log:            log,
		httpClient:     newHTTPClient(cfg.Timeout),
		requestLimiter: newRequestLimiter(cfg.MaxRequestPerMinute),
	}
}

func (s *newsAPISource) Name() string {
	return SourceNewsAPI
}

func (s *newsAPISource) IsAvailable() bool {
	return strings.TrimSpace(s.cfg.APIKey) != ""
}

func (s *newsAPISource) Fetch(ctx context.Context, query dto.NewsQuery) ([]entity.Article, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("%s: api key not configured: %w", SourceNewsAPI, dto.ErrSourceUnavailable)
	}
	query = query.WithDefaults(0)

	var resp dto.NewsAPIResponse
	if err := getJSON(ctx, s.httpClient, s.requestLimiter, s.everythingURL(query), &resp); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", SourceNewsAPI, dto.ErrSourceUnavailable, err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("%s: %w: %s %s", SourceNewsAPI, dto.ErrSourceUnavailable, resp.Code, resp.Message)
	}

	articles := make([]entity.Article, 0, len(resp.Articles))
	for _, item := range resp.Articles {
		article, ok := s.toArticle(item, query.Topic)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}

	s.log.DebugContext(ctx, "Fetched NewsAPI articles",
		logger.IntField("total_results", resp.TotalResults),
		logger.IntField("kept", len(articles)),
	)
	return articles, nil
}

func (s *newsAPISource) everythingURL(query dto.NewsQuery) string {
	from := time.Now().Add(-time.Duration(s.lookbackHours()) * time.Hour)
	if query.From != nil {
		from = *query.From
	}

	params := url.Values{}
	params.Set("apiKey", s.cfg.APIKey)
	params.Set("q", newsAPISearchQuery(query.Topic))
	params.Set("language", s.language())
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(query.Limit))
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("from", from.UTC().Format(time.RFC3339))
	if query.To != nil {
		params.Set("to", query.To.UTC().Format(time.RFC3339))
	}

	return strings.TrimRight(s.cfg.BaseURL, "/") + "/everything?" + params.Encode()
}

func (s *newsAPISource) lookbackHours() int {
	if s.cfg.LookbackHours <= 0 {
		return 24
	}
	return s.cfg.LookbackHours
}

func (s *newsAPISource) language() string {
	if s.cfg.Language == "" {
		return "en"
	}
	return s.cfg.Language
}

// toArticle reports false for removed items and for items whose cleaned title or description is empty.
func (s *newsAPISource) toArticle(item dto.NewsAPIArticle, topic entity.Topic) (entity.Article, bool) {
	title := utils.SafeText(item.Title)
	description := utils.StripHTML(item.Description)
	if title == "" || description == "" || title == newsAPIRemovedTitle {
		return entity.Article{}, false
	}

	article := entity.NewArticle(
		title,
		description,
		item.URL,
		item.PublishedAt,
		resolveTopic(topic, func() entity.Topic { return keywordTopic(title + " " + description) }),
	)
	article.Content = utils.StripHTML(item.Content)
	article.ImageURL = item.URLToImage
	article.Author = utils.SafeText(item.Author)
	article.Source = item.Source.Name
	if article.Source == "" {
		article.Source = "Unknown"
	}
	return article, true
}

// newsAPISearchQuery ORs the topic keywords with the leading positive terms.
// Without a pinned topic the full positive term list is used.
func newsAPISearchQuery(topic entity.Topic) string {
	keywords, ok := newsAPITopicKeywords[topic]
	if !ok {
		return strings.Join(newsAPIPositiveTerms, " OR ")
	}
	terms := make([]string, 0, len(keywords)+3)
	terms = append(terms, keywords...)
	terms = append(terms, newsAPIPositiveTerms[:3]...)
	return strings.Join(terms, " OR ")
}

func keywordTopic(text string) entity.Topic {
	for _, rule := range keywordTopicRules {
		if rule.re.MatchString(text) {
			return rule.topic
		}
	}
	return entity.TopicAll
}
