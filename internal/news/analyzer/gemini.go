package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"golang-goodnews/internal/news/config"
	"golang-goodnews/internal/news/dto"
	"golang-goodnews/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const AnalyzerGemini = "gemini"

const defaultGeminiModel = "gemini-2.0-flash"

type geminiAnalyzer struct {
	cfg            config.Gemini
	log            *logger.Logger
	genAiClient    *genai.Client
	requestLimiter *rate.Limiter
}

// NewGeminiAnalyzer creates a premium analyzer that asks a Gemini model to score articles.
func NewGeminiAnalyzer(cfg config.Gemini, log *logger.Logger, genAiClient *genai.Client) PositivityAnalyzer {
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.MaxRequestPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.MaxRequestPerMinute)), 1)
	}
	return &geminiAnalyzer{
		cfg:            cfg,
		log:            log,
		genAiClient:    genAiClient,
		requestLimiter: limiter,
	}
}

func (a *geminiAnalyzer) Name() string {
	return AnalyzerGemini
}

func (a *geminiAnalyzer) IsPremium() bool {
	return true
}

func (a *geminiAnalyzer) Analyze(ctx context.Context, text, title string) (*dto.PositivityAnalysis, error) {
	if strings.TrimSpace(text) == "" && strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: empty title and text", dto.ErrUnscorable)
	}

	if err := a.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(BuildPositivityPrompt(title, text), "user"),
	}
	resp, err := a.genAiClient.Models.GenerateContent(ctx, a.cfg.Model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		a.log.ErrorContext(ctx, "Failed to generate content from Gemini", logger.ErrorField(err), logger.StringField("title", title))
		return nil, fmt.Errorf("%w: gemini request failed: %w", dto.ErrUnscorable, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no content found in Gemini response", dto.ErrUnscorable)
	}

	result, err := parseGeminiPositivity(resp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		a.log.ErrorContext(ctx, "Failed to parse Gemini positivity response", logger.ErrorField(err), logger.StringField("title", title))
		return nil, err
	}
	return result, nil
}

// BuildPositivityPrompt asks for a single JSON object describing how uplifting the article is.
func BuildPositivityPrompt(title, text string) string {
	return fmt.Sprintf(`You rate news articles for a positive news feed. Score how uplifting, constructive and hopeful the article below is.

Scoring criteria:
- score: integer from 0 (distressing) to 100 (very uplifting)
- sentiment: "positive" (score >= 60), "neutral" (40-59) or "negative" (below 40)
- confidence: number from 0.0 to 1.0
- positive_keywords: words from the article that signal good news
- reasoning: one short sentence

Respond with JSON only:
{
  "score": 0,
  "sentiment": "positive | neutral | negative",
  "confidence": 0.0,
  "positive_keywords": [],
  "reasoning": ""
}

Title: %s

Article:
%s`, title, text)
}

func parseGeminiPositivity(raw string) (*dto.PositivityAnalysis, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`json\n`")

	var result dto.GeminiPositivityResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal Gemini positivity result: %w", dto.ErrUnscorable, err)
	}

	score := clampScore(int(math.Round(result.Score)))
	keywords := result.PositiveKeywords
	if keywords == nil {
		keywords = []string{}
	}
	return &dto.PositivityAnalysis{
		Score:            score,
		Sentiment:        dto.SentimentForScore(score),
		Confidence:       math.Max(0, math.Min(1, result.Confidence)),
		PositiveKeywords: keywords,
		Reasoning:        result.Reasoning,
	}, nil
}
