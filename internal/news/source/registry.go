package source

import (
	"fmt"
	"sort"
	"strings"

	"golang-goodnews/internal/news/config"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/pkg/logger"
)

// Registry maps source names to their configured implementations.
type Registry struct {
	sources map[string]Source
}

// NewRegistry indexes sources by name. A later source replaces an earlier one with the same name.
func NewRegistry(sources ...Source) *Registry {
	sourceMap := make(map[string]Source, len(sources))
	for _, s := range sources {
		sourceMap[s.Name()] = s
	}
	return &Registry{sources: sourceMap}
}

// NewDefaultRegistry builds every provider adapter from cfg plus the "multi" aggregator over them.
func NewDefaultRegistry(cfg *config.Config, log *logger.Logger) *Registry {
	guardian := NewGuardianSource(cfg.Guardian, log)
	rss := NewRSSSource(cfg.RSS, log, nil)
	newsAPI := NewNewsAPISource(cfg.NewsAPI, log)

	return NewRegistry(
		guardian,
		rss,
		newsAPI,
		NewAggregator(log, guardian, rss, newsAPI),
	)
}

// Get returns the source registered under name.
func (r *Registry) Get(name string) (Source, error) {
	s, ok := r.sources[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", dto.ErrUnknownSource, name, strings.Join(r.Names(), ", "))
	}
	return s, nil
}

// Names lists the registered source names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
