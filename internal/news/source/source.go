package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-goodnews/internal/entity"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/pkg/common"

	"golang.org/x/time/rate"
)

// Source fetches raw, unscored articles from one provider.
type Source interface {
	Name() string
	IsAvailable() bool
	Fetch(ctx context.Context, query dto.NewsQuery) ([]entity.Article, error)
}

const defaultRequestTimeout = 10 * time.Second

// newRequestLimiter allows maxPerMinute requests per minute. Zero or less disables limiting.
func newRequestLimiter(maxPerMinute int) *rate.Limiter {
	if maxPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxPerMinute)), 1)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &http.Client{Timeout: timeout}
}

// getJSON waits on limiter, sends a GET and decodes a 200 body into out.
func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, rawURL string, out interface{}) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for request limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", common.DefaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("received non-OK response: %d - %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// resolveTopic keeps a pinned query topic and otherwise falls back to infer.
func resolveTopic(query entity.Topic, infer func() entity.Topic) entity.Topic {
	if query != "" && query != entity.TopicAll {
		return query
	}
	return infer().OrAll()
}
