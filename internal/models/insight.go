package models

// DataPoint is one category share inside a survey question result
type DataPoint struct {
	Category    string  `json:"category"`
	Percentage  float64 `json:"percentage"`
	Description string  `json:"description,omitempty"`
}

// QuestionResult is the aggregated answer to one survey question
type QuestionResult struct {
	Question    string      `json:"question"`
	InsightType string      `json:"insight_type,omitempty"`
	TopInsight  string      `json:"top_insight"`
	Confidence  float64     `json:"confidence"`
	DataPoints  []DataPoint `json:"data_points"`
}

// SurveyResult is the structured insight payload returned by the language model
type SurveyResult struct {
	TotalTwinsQueried int              `json:"total_twins_queried"`
	Confidence        float64          `json:"confidence"`
	KeyInsights       []string         `json:"key_insights"`
	SurveyResults     []QuestionResult `json:"survey_results"`
}
