package analyzer

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang-goodnews/internal/news/dto"
)

const AnalyzerSentiment = "sentiment"

const (
	lexicalWeight   = 0.4
	keywordWeight   = 0.3
	topicWeight     = 0.2
	structureWeight = 0.1

	neutralScore = 50.0
)

var positiveKeywords = []string{
	"breakthrough", "success", "achievement", "innovation", "cure", "save",
	"rescue", "help", "support", "growth", "improve", "discover", "celebrate",
	"win", "victory", "progress", "advance", "launch", "develop", "create",
	"inspire", "hope", "heal", "protect", "unite", "peace", "recovery",
	"milestone", "accomplish", "thrive", "flourish", "triumph", "benefit",
	"positive", "uplift", "empower", "volunteer", "donate", "charity",
	"community", "together", "collaborate", "sustainable", "renewable",
	"green", "clean", "solution", "award", "honor", "recognize",
}

var negativeKeywords = []string{
	"death", "kill", "murder", "war", "attack", "terror", "crash", "disaster",
	"tragedy", "crisis", "conflict", "violence", "threat", "danger", "fear",
	"collapse", "fail", "loss", "damage", "destroy", "victim", "crime",
	"scandal", "corrupt", "fraud", "abuse", "harm", "injure", "suffer",
}

var positiveTopicTerms = []string{
	"innovation", "technology", "science", "research", "education",
	"health", "environment", "sustainability", "community", "art",
	"culture", "progress", "development",
}

var (
	positiveKeywordRegexes = wholeWordRegexes(positiveKeywords)
	negativeKeywordRegexes = wholeWordRegexes(negativeKeywords)

	wordTokenRegex  = regexp.MustCompile(`[a-z0-9]+`)
	percentRegex    = regexp.MustCompile(`\d+%`)
	growthVerbRegex = regexp.MustCompile(`increase|grow|rise`)
)

func wholeWordRegexes(words []string) []*regexp.Regexp {
	regexes := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		regexes[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return regexes
}

type sentimentAnalyzer struct{}

// NewSentimentAnalyzer returns the deterministic lexicon based analyzer.
func NewSentimentAnalyzer() PositivityAnalyzer {
	return &sentimentAnalyzer{}
}

func (a *sentimentAnalyzer) Name() string {
	return AnalyzerSentiment
}

func (a *sentimentAnalyzer) IsPremium() bool {
	return false
}

// Analyze blends four signals: lexical sentiment (40%), positive/negative keyword
// ratio (30%), positive topic context (20%) and article structure (10%).
func (a *sentimentAnalyzer) Analyze(_ context.Context, text, title string) (*dto.PositivityAnalysis, error) {
	if strings.TrimSpace(text) == "" && strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: empty title and text", dto.ErrUnscorable)
	}

	// The title is counted twice to weigh it above the body.
	combined := strings.ToLower(title + " " + title + " " + text)

	rawLexical := lexicalSum(combined)
	weighted := normalizeLexical(rawLexical)*lexicalWeight +
		keywordScore(combined)*keywordWeight +
		topicScore(combined)*topicWeight +
		structureScore(text, title)*structureWeight

	score := clampScore(int(math.Round(weighted)))
	return &dto.PositivityAnalysis{
		Score:            score,
		Sentiment:        dto.SentimentForScore(score),
		Confidence:       confidence(text, rawLexical),
		PositiveKeywords: matchedPositiveKeywords(combined),
	}, nil
}

// normalizeLexical maps a raw lexicon sum, typically within [-50, 50], onto [0, 100].
func normalizeLexical(sum int) float64 {
	return math.Max(0, math.Min(100, (float64(sum)+50)/100*100))
}

func keywordScore(text string) float64 {
	positive, negative := 0, 0
	for _, re := range positiveKeywordRegexes {
		positive += len(re.FindAllStringIndex(text, -1))
	}
	for _, re := range negativeKeywordRegexes {
		negative += len(re.FindAllStringIndex(text, -1))
	}
	total := positive + negative
	if total == 0 {
		return neutralScore
	}
	return float64(positive) / float64(total) * 100
}

func topicScore(text string) float64 {
	score := neutralScore
	for _, term := range positiveTopicTerms {
		if strings.Contains(text, term) {
			score += 5
		}
	}
	return math.Min(100, score)
}

func structureScore(text, title string) float64 {
	score := neutralScore
	if strings.Contains(title, "?") {
		score += 10
	}

	exclamations := strings.Count(text, "!")
	if exclamations > 0 && exclamations <= 3 {
		score += 10
	}
	if exclamations > 5 {
		score -= 10
	}

	if strings.ContainsAny(text, "\"“”") {
		score += 10
	}
	if percentRegex.MatchString(text) || growthVerbRegex.MatchString(text) {
		score += 10
	}
	return math.Max(0, math.Min(100, score))
}

func confidence(text string, rawLexical int) float64 {
	c := 0.5
	length := utf8.RuneCountInString(text)
	if length > 500 {
		c += 0.2
	}
	if length > 1000 {
		c += 0.1
	}

	magnitude := rawLexical
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if magnitude > 5 {
		c += 0.1
	}
	if magnitude > 10 {
		c += 0.1
	}
	return math.Min(1, math.Round(c*100)/100)
}

// matchedPositiveKeywords lists the positive keywords present as whole tokens, in keyword list order.
func matchedPositiveKeywords(text string) []string {
	tokens := make(map[string]struct{})
	for _, token := range wordTokenRegex.FindAllString(text, -1) {
		tokens[token] = struct{}{}
	}

	matched := []string{}
	for _, keyword := range positiveKeywords {
		if _, ok := tokens[keyword]; ok {
			matched = append(matched, keyword)
		}
	}
	return matched
}
