package dto

import (
	"time"

	"golang-goodnews/internal/entity"
)

const (
	DefaultLimit = 20
	DefaultPage  = 1
	MaxLimit     = 100

	RefreshLimit = 50
)

// NewsQuery is the read-only filter built per request.
type NewsQuery struct {
	Topic         entity.Topic `json:"topic"`
	MinPositivity *int         `json:"minPositivity,omitempty"`
	Limit         int          `json:"limit"`
	Page          int          `json:"page"`
	From          *time.Time   `json:"from,omitempty"`
	To            *time.Time   `json:"to,omitempty"`
}

// WithDefaults fills unset fields. defaultMin is the configured global positivity minimum.
func (q NewsQuery) WithDefaults(defaultMin int) NewsQuery {
	q.Topic = q.Topic.OrAll()
	if q.MinPositivity == nil {
		min := defaultMin
		q.MinPositivity = &min
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Page <= 0 {
		q.Page = DefaultPage
	}
	return q
}

// MinScore returns the minimum positivity, or 0 when unset.
func (q NewsQuery) MinScore() int {
	if q.MinPositivity == nil {
		return 0
	}
	return *q.MinPositivity
}

// Offset is the number of rows to skip for the requested page.
func (q NewsQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// NewsResponse is the paginated feed returned to clients.
type NewsResponse struct {
	Articles []entity.Article `json:"articles"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// Sentiment is the qualitative band of a positivity score.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// SentimentForScore maps a 0-100 score to its band: >=60 positive, >=40 neutral, else negative.
func SentimentForScore(score int) Sentiment {
	switch {
	case score >= 60:
		return SentimentPositive
	case score >= 40:
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}

// PositivityAnalysis is the output of a positivity analyzer for one article.
type PositivityAnalysis struct {
	Score            int       `json:"score"`
	Sentiment        Sentiment `json:"sentiment"`
	Confidence       float64   `json:"confidence"`
	PositiveKeywords []string  `json:"positive_keywords"`
	Reasoning        string    `json:"reasoning,omitempty"`
}

// TopicStat is one entry of the topics listing.
type TopicStat struct {
	ID    entity.Topic `json:"id"`
	Name  string       `json:"name"`
	Count int64        `json:"count"`
}

// TopicsResponse is the body of the topics listing.
type TopicsResponse struct {
	Topics []TopicStat `json:"topics"`
}

// RefreshRequest is the optional body of a manual refresh.
type RefreshRequest struct {
	Topic string `json:"topic"`
}

// RefreshResponse reports how many articles a manual refresh stored.
type RefreshResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Stored  int    `json:"stored"`
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
	Database  string    `json:"database"`
}

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RefreshRunResponse is the API view of one scheduled refresh.
type RefreshRunResponse struct {
	ID           uint      `json:"id"`
	Status       string    `json:"status"`
	Topics       []string  `json:"topics"`
	FailedTopics []string  `json:"failedTopics"`
	Stored       int       `json:"stored"`
	Purged       int64     `json:"purged"`
	DigestParts  int       `json:"digestParts"`
	StartedAt    time.Time `json:"startedAt"`
	DurationMs   int64     `json:"durationMs"`
}
