package insights

import (
	"testing"
)

const wellFormed = `{"total_twins_queried": 5, "confidence": 82, "key_insights": ["a", "b"], "survey_results": [{"question": "Q1", "top_insight": "I1", "confidence": 80, "data_points": [{"category": "Spicy", "percentage": 60}, {"category": "Mild", "percentage": 40}]}]}`

func TestParseResult_Structured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "bare object", input: wellFormed},
		{name: "json fence", input: "```json\n" + wellFormed + "\n```"},
		{name: "plain fence", input: "```\n" + wellFormed + "\n```"},
		{name: "surrounding prose", input: "Here is the analysis:\n" + wellFormed + "\nLet me know if you need more."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, ok := ParseResult(tt.input).(Structured)
			if !ok {
				t.Fatalf("expected Structured, got %T", ParseResult(tt.input))
			}
			s := res.Survey
			if s.TotalTwinsQueried != 5 || s.Confidence != 82 {
				t.Errorf("unexpected header: %+v", s)
			}
			if len(s.KeyInsights) != 2 || s.KeyInsights[0] != "a" {
				t.Errorf("unexpected key insights: %v", s.KeyInsights)
			}
			if len(s.SurveyResults) != 1 || len(s.SurveyResults[0].DataPoints) != 2 {
				t.Fatalf("unexpected survey results: %+v", s.SurveyResults)
			}
			if dp := s.SurveyResults[0].DataPoints[0]; dp.Category != "Spicy" || dp.Percentage != 60 {
				t.Errorf("unexpected data point: %+v", dp)
			}
		})
	}
}

func TestParseResult_FallsBackToPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "prose", input: "Most twins prefer dill pickles, with 3 out of 5 buying weekly."},
		{name: "missing total_twins_queried", input: `{"confidence": 82, "key_insights": [], "survey_results": []}`},
		{name: "missing confidence", input: `{"total_twins_queried": 5, "key_insights": [], "survey_results": []}`},
		{name: "missing key_insights", input: `{"total_twins_queried": 5, "confidence": 82, "survey_results": []}`},
		{name: "missing survey_results", input: `{"total_twins_queried": 5, "confidence": 82, "key_insights": []}`},
		{name: "null field", input: `{"total_twins_queried": 5, "confidence": 82, "key_insights": null, "survey_results": []}`},
		{name: "wrong type", input: `{"total_twins_queried": "five", "confidence": 82, "key_insights": [], "survey_results": []}`},
		{name: "key insights not strings", input: `{"total_twins_queried": 5, "confidence": 82, "key_insights": [1, 2], "survey_results": []}`},
		{name: "truncated json", input: `{"total_twins_queried": 5, "confidence": 82, "key_insights": ["a"], "survey_results": [{"question": "Q1"}`},
		{name: "array instead of object", input: `[1, 2, 3]`},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := ParseResult(tt.input)
			pt, ok := res.(PlainText)
			if !ok {
				t.Fatalf("expected PlainText, got %T", res)
			}
			if pt.Text != tt.input {
				t.Errorf("expected whole response as text, got %q", pt.Text)
			}
		})
	}
}

func TestParseResult_NormalisesEmptyCollections(t *testing.T) {
	t.Parallel()

	res, ok := ParseResult(`{"total_twins_queried": 3, "confidence": 70.5, "key_insights": [], "survey_results": [{"question": "Q", "top_insight": "T", "confidence": 50}]}`).(Structured)
	if !ok {
		t.Fatal("expected Structured")
	}
	if res.Survey.SurveyResults[0].DataPoints == nil {
		t.Error("expected non-nil data points")
	}
	if res.Survey.Confidence != 70.5 {
		t.Errorf("Confidence = %v", res.Survey.Confidence)
	}
}
