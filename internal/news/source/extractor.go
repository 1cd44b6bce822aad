package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang-goodnews/pkg/utils"

	"github.com/mauidude/go-readability"
)

// ContentExtractor turns an article page into its plain main text.
type ContentExtractor interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

type readabilityExtractor struct {
	client    *http.Client
	userAgent string
}

// NewReadabilityExtractor returns a ContentExtractor using go-readability.
func NewReadabilityExtractor(client *http.Client, userAgent string) ContentExtractor {
	return &readabilityExtractor{client: client, userAgent: userAgent}
}

func (e *readabilityExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch page, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}
	return utils.StripHTML(doc.Content()), nil
}
