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

const newsAPIBody = `{
  "status": "ok",
  "totalResults": 4,
  "articles": [
    {
      "source": {"id": null, "name": "Good Daily"},
      "author": "Sam Lee",
      "title": "Volunteers clean the river",
      "description": "A weekend effort restored the banks.",
      "url": "https://gooddaily.example.com/river",
      "urlToImage": "https://gooddaily.example.com/river.jpg",
      "publishedAt": "2024-05-02T09:30:00Z",
      "content": "More than 200 people took part."
    },
    {
      "source": {"name": ""},
      "title": "New software helps farmers",
      "description": "Yields improved.",
      "url": "https://unknown.example.com/farm",
      "publishedAt": "2024-05-01T09:30:00Z"
    },
    {
      "source": {"name": "Gone"},
      "title": "[Removed]",
      "description": "[Removed]",
      "url": "https://removed.com",
      "publishedAt": "2024-05-01T09:30:00Z"
    },
    {
      "source": {"name": "Partial"},
      "title": "Missing description",
      "url": "https://partial.example.com",
      "publishedAt": "2024-05-01T09:30:00Z"
    }
  ]
}`

func TestNewsAPISourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/everything", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "key", q.Get("apiKey"))
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "publishedAt", q.Get("sortBy"))
		assert.Equal(t, "7", q.Get("pageSize"))
		assert.Equal(t, "1", q.Get("page"))
		assert.NotEmpty(t, q.Get("from"))
		assert.Equal(t, "success OR breakthrough OR innovation OR achievement OR progress OR cure OR rescue OR help OR improve OR discover OR celebrate", q.Get("q"))
		_, _ = w.Write([]byte(newsAPIBody))
	}))
	defer srv.Close()

	src := NewNewsAPISource(config.NewsAPI{APIKey: "key", BaseURL: srv.URL}, logger.NewNop())
	articles, err := src.Fetch(context.Background(), dto.NewsQuery{Limit: 7})
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "Good Daily", articles[0].Source)
	assert.Equal(t, "Sam Lee", articles[0].Author)
	assert.Equal(t, "More than 200 people took part.", articles[0].Content)
	assert.Equal(t, entity.TopicCommunity, articles[0].Topic)

	assert.Equal(t, "Unknown", articles[1].Source)
	assert.Equal(t, entity.TopicTechnology, articles[1].Topic)
}

func TestNewsAPISourceKeepsPinnedTopic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "health OR medical OR cure OR wellness OR treatment OR success OR breakthrough OR innovation", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(newsAPIBody))
	}))
	defer srv.Close()

	src := NewNewsAPISource(config.NewsAPI{APIKey: "key", BaseURL: srv.URL}, logger.NewNop())
	articles, err := src.Fetch(context.Background(), dto.NewsQuery{Topic: entity.TopicHealth})
	require.NoError(t, err)
	for _, a := range articles {
		assert.Equal(t, entity.TopicHealth, a.Topic)
	}
}

func TestNewsAPISourceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited","message":"Too many requests"}`))
	}))
	defer srv.Close()

	src := NewNewsAPISource(config.NewsAPI{APIKey: "key", BaseURL: srv.URL}, logger.NewNop())
	_, err := src.Fetch(context.Background(), dto.NewsQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, dto.ErrSourceUnavailable))
	assert.Contains(t, err.Error(), "rateLimited")
}

func TestKeywordTopic(t *testing.T) {
	assert.Equal(t, entity.TopicTechnology, keywordTopic("New robot helps nurses"))
	assert.Equal(t, entity.TopicEnvironment, keywordTopic("Coral reef conservation works"))
	assert.Equal(t, entity.TopicEducation, keywordTopic("Free school lunches expand"))
	assert.Equal(t, entity.TopicAll, keywordTopic("Team wins the final"))
}

func TestNewsAPISourceDropsItemsBlankAfterCleaning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":3,"articles":[
			{"source":{"name":"A"},"title":"   ","description":"Has text","url":"https://a.example.com","publishedAt":"2024-05-01T09:30:00Z"},
			{"source":{"name":"B"},"title":"Image only","description":"<img src=a.jpg>","url":"https://b.example.com","publishedAt":"2024-05-01T09:30:00Z"},
			{"source":{"name":"C"},"title":" [Removed] ","description":"gone","url":"https://c.example.com","publishedAt":"2024-05-01T09:30:00Z"}
		]}`))
	}))
	defer srv.Close()

	src := NewNewsAPISource(config.NewsAPI{APIKey: "key", BaseURL: srv.URL}, logger.NewNop())
	articles, err := src.Fetch(context.Background(), dto.NewsQuery{})
	require.NoError(t, err)
	assert.Empty(t, articles)
}
