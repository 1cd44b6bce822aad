package dto

import "errors"

var (
	// ErrSourceUnavailable marks an adapter without credentials or a failed provider call.
	ErrSourceUnavailable = errors.New("news source unavailable")
	// ErrRepositoryUnavailable marks an unreachable article store.
	ErrRepositoryUnavailable = errors.New("article repository unavailable")
	// ErrUnscorable marks article text an analyzer cannot score.
	ErrUnscorable = errors.New("article text cannot be scored")
	// ErrUnknownSource and ErrUnknownAnalyzer are configuration errors raised at startup.
	ErrUnknownSource   = errors.New("unknown news source")
	ErrUnknownAnalyzer = errors.New("unknown positivity analyzer")
	// ErrArticleNotFound and ErrRefreshRunNotFound are returned when an id matches nothing.
	ErrArticleNotFound    = errors.New("article not found")
	ErrRefreshRunNotFound = errors.New("refresh run not found")
)
