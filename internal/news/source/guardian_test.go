package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/config"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guardianBody = `{
  "response": {
    "status": "ok",
    "total": 3,
    "currentPage": 1,
    "pages": 1,
    "results": [
      {
        "id": "society/1",
        "sectionName": "Society",
        "webPublicationDate": "2024-05-02T08:00:00Z",
        "webTitle": "Volunteers rebuild park",
        "webUrl": "https://www.theguardian.com/society/1",
        "fields": {
          "headline": "Volunteers rebuild park",
          "trailText": "<p>Neighbours <strong>restore</strong> a green space</p>",
          "body": "<p>Hundreds joined in.</p>",
          "thumbnail": "https://media.guim.co.uk/1.jpg",
          "byline": "Jane Doe"
        },
        "tags": [{"id": "society/volunteering", "type": "keyword", "webTitle": "Volunteering"}]
      },
      {
        "id": "technology/2",
        "sectionName": "Technology",
        "webPublicationDate": "2024-05-01T08:00:00Z",
        "webTitle": "Chip breakthrough",
        "webUrl": "https://www.theguardian.com/technology/2",
        "fields": {"headline": "Chip breakthrough", "trailText": "Faster and greener"}
      },
      {
        "id": "world/3",
        "sectionName": "World news",
        "webPublicationDate": "2024-05-01T07:00:00Z",
        "webTitle": "No trail text",
        "webUrl": "https://www.theguardian.com/world/3",
        "fields": {"headline": "No trail text"}
      }
    ]
  }
}`

func newGuardianServer(t *testing.T, assertQuery func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		if assertQuery != nil {
			assertQuery(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(guardianBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGuardianSourceFetch(t *testing.T) {
	srv := newGuardianServer(t, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("api-key"))
		assert.Equal(t, "society", q.Get("section"))
		assert.Equal(t, "newest", q.Get("order-by"))
		assert.Equal(t, "10", q.Get("page-size"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "keyword", q.Get("show-tags"))
		assert.Contains(t, q.Get("q"), "breakthrough OR innovation")
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, q.Get("from-date"))
	})

	src := NewGuardianSource(config.Guardian{APIKey: "test-key", BaseURL: srv.URL}, logger.NewNop())
	articles, err := src.Fetch(context.Background(), dto.NewsQuery{Topic: entity.TopicHealth, Limit: 10, Page: 2})
	require.NoError(t, err)
	require.Len(t, articles, 2)

	first := articles[0]
	assert.Equal(t, "Volunteers rebuild park", first.Title)
	assert.Equal(t, "Neighbours restore a green space", first.Description)
	assert.Equal(t, "Hundreds joined in.", first.Content)
	assert.Equal(t, "The Guardian", first.Source)
	assert.Equal(t, "Jane Doe", first.Author)
	assert.Equal(t, "https://media.guim.co.uk/1.jpg", first.ImageURL)
	assert.Equal(t, entity.TopicHealth, first.Topic)
	assert.Equal(t, []string{"Volunteering"}, []string(first.Keywords))
	assert.NotEmpty(t, first.ID)
	assert.Zero(t, first.PositivityScore)
}

func TestGuardianSourceInfersTopicWhenUnpinned(t *testing.T) {
	srv := newGuardianServer(t, func(r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("section"))
	})

	src := NewGuardianSource(config.Guardian{APIKey: "k", BaseURL: srv.URL}, logger.NewNop())
	articles, err := src.Fetch(context.Background(), dto.NewsQuery{Topic: entity.TopicAll})
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, entity.TopicCommunity, articles[0].Topic)
	assert.Equal(t, entity.TopicTechnology, articles[1].Topic)
}

func TestGuardianTopic(t *testing.T) {
	assert.Equal(t, entity.TopicScience, guardianTopic("Science", "Anything"))
	assert.Equal(t, entity.TopicArts, guardianTopic("Culture", "Anything"))
	assert.Equal(t, entity.TopicHealth, guardianTopic("World news", "New medical centre opens"))
	assert.Equal(t, entity.TopicSocialProgress, guardianTopic("Law", "Equality act passes"))
	assert.Equal(t, entity.TopicAll, guardianTopic("Sport", "Team wins final"))
}

func TestGuardianSourceUnavailableWithoutKey(t *testing.T) {
	src := NewGuardianSource(config.Guardian{}, logger.NewNop())
	assert.False(t, src.IsAvailable())

	_, err := src.Fetch(context.Background(), dto.NewsQuery{})
	assert.True(t, errors.Is(err, dto.ErrSourceUnavailable))
}

func TestGuardianSourceProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	src := NewGuardianSource(config.Guardian{APIKey: "bad", BaseURL: srv.URL}, logger.NewNop())
	articles, err := src.Fetch(context.Background(), dto.NewsQuery{})
	assert.Empty(t, articles)
	assert.True(t, errors.Is(err, dto.ErrSourceUnavailable))
}

func TestGuardianSourceDropsItemsBlankAfterCleaning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"status":"ok","results":[
			{"id":"a","webTitle":"Markup only","webUrl":"https://www.theguardian.com/a","webPublicationDate":"2024-05-02T08:00:00Z",
			 "fields":{"headline":"Markup only","trailText":"<p> </p>"}},
			{"id":"b","webTitle":"   ","webUrl":"https://www.theguardian.com/b","webPublicationDate":"2024-05-02T08:00:00Z",
			 "fields":{"headline":" \t ","trailText":"Real text"}},
			{"id":"c","webTitle":"Kept","webUrl":"https://www.theguardian.com/c","webPublicationDate":"2024-05-02T08:00:00Z",
			 "fields":{"headline":"Kept","trailText":"<p>Still here</p>"}}
		]}}`))
	}))
	defer srv.Close()

	src := NewGuardianSource(config.Guardian{APIKey: "k", BaseURL: srv.URL}, logger.NewNop())
	articles, err := src.Fetch(context.Background(), dto.NewsQuery{})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Kept", articles[0].Title)
	assert.Equal(t, "Still here", articles[0].Description)
}
