package dto

// GeminiPositivityResult is the JSON document the gemini analyzer asks the model to produce.
type GeminiPositivityResult struct {
	Score            float64  `json:"score"`
	Sentiment        string   `json:"sentiment"`
	Confidence       float64  `json:"confidence"`
	PositiveKeywords []string `json:"positive_keywords"`
	Reasoning        string   `json:"reasoning"`
}
