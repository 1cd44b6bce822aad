package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang-goodnews/internal/news/config"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/pkg/logger"

	"google.golang.org/genai"
)

// Registry maps analyzer names to implementations.
type Registry struct {
	analyzers map[string]PositivityAnalyzer
}

func NewRegistry(analyzers ...PositivityAnalyzer) *Registry {
	analyzerMap := make(map[string]PositivityAnalyzer, len(analyzers))
	for _, a := range analyzers {
		analyzerMap[a.Name()] = a
	}
	return &Registry{analyzers: analyzerMap}
}

// NewDefaultRegistry always registers the sentiment analyzer. The gemini analyzer
// is registered only when an API key is configured.
func NewDefaultRegistry(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Registry, error) {
	analyzers := []PositivityAnalyzer{NewSentimentAnalyzer()}

	if cfg.Gemini.APIKey != "" {
		genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		analyzers = append(analyzers, NewGeminiAnalyzer(cfg.Gemini, log, genAiClient))
	}

	return NewRegistry(analyzers...), nil
}

func (r *Registry) Get(name string) (PositivityAnalyzer, error) {
	a, ok := r.analyzers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", dto.ErrUnknownAnalyzer, name, strings.Join(r.Names(), ", "))
	}
	return a, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.analyzers))
	for name := range r.analyzers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
