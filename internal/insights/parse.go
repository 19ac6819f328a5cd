package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/twin-insights/internal/models"
)

var errNoJSONObject = errors.New("no JSON object in response")

var requiredSurveyFields = []string{"total_twins_queried", "confidence", "key_insights", "survey_results"}

// ParseResult interprets a completion response. A response that holds a
// complete survey object becomes Structured; anything else is PlainText of
// the whole response. It never fails.
func ParseResult(text string) Result {
	survey, err := parseSurvey(text)
	if err != nil {
		return PlainText{Text: strings.TrimSpace(text)}
	}
	return Structured{Survey: *survey}
}

func parseSurvey(text string) (*models.SurveyResult, error) {
	raw, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode response object: %w", err)
	}
	for _, name := range requiredSurveyFields {
		v, ok := fields[name]
		if !ok || string(v) == "null" {
			return nil, fmt.Errorf("missing field %s", name)
		}
	}

	var total float64
	if err := json.Unmarshal(fields["total_twins_queried"], &total); err != nil {
		return nil, fmt.Errorf("invalid total_twins_queried: %w", err)
	}
	survey := &models.SurveyResult{TotalTwinsQueried: int(total)}
	if err := json.Unmarshal(fields["confidence"], &survey.Confidence); err != nil {
		return nil, fmt.Errorf("invalid confidence: %w", err)
	}
	if err := json.Unmarshal(fields["key_insights"], &survey.KeyInsights); err != nil {
		return nil, fmt.Errorf("invalid key_insights: %w", err)
	}
	if err := json.Unmarshal(fields["survey_results"], &survey.SurveyResults); err != nil {
		return nil, fmt.Errorf("invalid survey_results: %w", err)
	}
	if survey.KeyInsights == nil {
		survey.KeyInsights = []string{}
	}
	if survey.SurveyResults == nil {
		survey.SurveyResults = []models.QuestionResult{}
	}
	for i := range survey.SurveyResults {
		if survey.SurveyResults[i].DataPoints == nil {
			survey.SurveyResults[i].DataPoints = []models.DataPoint{}
		}
	}
	return survey, nil
}

// extractJSONObject strips markdown fences and returns the text between the
// first '{' and the last '}'
func extractJSONObject(text string) (string, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", errNoJSONObject
	}
	return s[start : end+1], nil
}
