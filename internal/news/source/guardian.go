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
	SourceGuardian     = "guardian"
	guardianSourceName = "The Guardian"
)

var guardianPositiveTerms = []string{
	"success", "breakthrough", "innovation", "achievement", "progress",
	"improvement", "solution", "win", "victory", "hope",
}

var guardianSections = map[entity.Topic]string{
	entity.TopicTechnology:     "technology",
	entity.TopicScience:        "science",
	entity.TopicEnvironment:    "environment",
	entity.TopicHealth:         "society",
	entity.TopicCommunity:      "society",
	entity.TopicEducation:      "education",
	entity.TopicArts:           "culture",
	entity.TopicSocialProgress: "society",
}

var (
	guardianHealthTitle    = regexp.MustCompile(`(?i)(health|medical|wellness)`)
	guardianCommunityTitle = regexp.MustCompile(`(?i)(community|local|volunteer)`)
	guardianSocialTitle    = regexp.MustCompile(`(?i)(rights|equality|justice)`)
)

type guardianSource struct {
	cfg            config.Guardian
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewGuardianSource creates a Source backed by the Guardian content API.
func NewGuardianSource(cfg config.Guardian, log *logger.Logger) Source {
	return &guardianSource{
		cfg:            cfg,
		log:            log,
		httpClient:     newHTTPClient(cfg.Timeout),
		requestLimiter: newRequestLimiter(cfg.MaxRequestPerMinute),
	}
}

func (s *guardianSource) Name() string {
	return SourceGuardian
}

func (s *guardianSource) IsAvailable() bool {
	return strings.TrimSpace(s.cfg.APIKey) != ""
}

func (s *guardianSource) Fetch(ctx context.Context, query dto.NewsQuery) ([]entity.Article, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("%s: api key not configured: %w", SourceGuardian, dto.ErrSourceUnavailable)
	}
	query = query.WithDefaults(0)

	var resp dto.GuardianSearchResponse
	if err := getJSON(ctx, s.httpClient, s.requestLimiter, s.searchURL(query), &resp); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", SourceGuardian, dto.ErrSourceUnavailable, err)
	}
	if resp.Response.Status != "" && resp.Response.Status != "ok" {
		return nil, fmt.Errorf("%s: %w: %s", SourceGuardian, dto.ErrSourceUnavailable, resp.Response.Message)
	}

	articles := make([]entity.Article, 0, len(resp.Response.Results))
	for _, result := range resp.Response.Results {
		article, ok := s.toArticle(result, query.Topic)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}

	s.log.DebugContext(ctx, "Fetched Guardian articles",
		logger.IntField("results", len(resp.Response.Results)),
		logger.IntField("kept", len(articles)),
	)
	return articles, nil
}

func (s *guardianSource) searchURL(query dto.NewsQuery) string {
	from := time.Now().AddDate(0, 0, -s.lookbackDays())
	if query.From != nil {
		from = *query.From
	}

	params := url.Values{}
	params.Set("api-key", s.cfg.APIKey)
	if section, ok := guardianSections[query.Topic]; ok {
		params.Set("section", section)
	}
	params.Set("from-date", from.UTC().Format("2006-01-02"))
	if query.To != nil {
		params.Set("to-date", query.To.UTC().Format("2006-01-02"))
	}
	params.Set("order-by", "newest")
	params.Set("page-size", strconv.Itoa(query.Limit))
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("show-fields", "headline,trailText,body,thumbnail,byline")
	params.Set("show-tags", "keyword")
	params.Set("q", strings.Join(guardianPositiveTerms, " OR "))

	return strings.TrimRight(s.cfg.BaseURL, "/") + "/search?" + params.Encode()
}

func (s *guardianSource) lookbackDays() int {
	if s.cfg.LookbackDays <= 0 {
		return 7
	}
	return s.cfg.LookbackDays
}

// toArticle reports false when the cleaned headline or trail text is empty.
func (s *guardianSource) toArticle(result dto.GuardianResult, topic entity.Topic) (entity.Article, bool) {
	title := utils.SafeText(result.Fields.Headline)
	if title == "" {
		title = utils.SafeText(result.WebTitle)
	}
	description := utils.StripHTML(result.Fields.TrailText)
	if title == "" || description == "" {
		return entity.Article{}, false
	}

	article := entity.NewArticle(
		title,
		description,
		result.WebURL,
		result.WebPublicationDate,
		resolveTopic(topic, func() entity.Topic { return guardianTopic(result.SectionName, title) }),
	)
	article.Content = utils.StripHTML(result.Fields.Body)
	article.ImageURL = result.Fields.Thumbnail
	article.Author = utils.SafeText(result.Fields.Byline)
	article.Source = guardianSourceName
	for _, tag := range result.Tags {
		article.AddKeywords(tag.WebTitle)
	}
	return article, true
}

// guardianTopic infers a topic from the Guardian section first and the headline second.
func guardianTopic(section, title string) entity.Topic {
	section = strings.ToLower(section)
	switch {
	case strings.Contains(section, "tech"):
		return entity.TopicTechnology
	case strings.Contains(section, "science"):
		return entity.TopicScience
	case strings.Contains(section, "environment"):
		return entity.TopicEnvironment
	case strings.Contains(section, "education"):
		return entity.TopicEducation
	case strings.Contains(section, "culture"), strings.Contains(section, "art"):
		return entity.TopicArts
	case guardianHealthTitle.MatchString(title):
		return entity.TopicHealth
	case guardianCommunityTitle.MatchString(title):
		return entity.TopicCommunity
	case guardianSocialTitle.MatchString(title):
		return entity.TopicSocialProgress
	}
	return entity.TopicAll
}
