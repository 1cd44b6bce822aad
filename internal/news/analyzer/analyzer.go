package analyzer

import (
	"context"

	"golang-goodnews/internal/news/dto"
)

// PositivityAnalyzer scores how uplifting an article is on a 0-100 scale.
type PositivityAnalyzer interface {
	Name() string
	IsPremium() bool
	Analyze(ctx context.Context, text, title string) (*dto.PositivityAnalysis, error)
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
