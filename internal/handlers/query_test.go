package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/benvon/twin-insights/internal/database"
	"github.com/benvon/twin-insights/internal/insights"
	"github.com/benvon/twin-insights/internal/models"
	"github.com/benvon/twin-insights/internal/services/ai"
)

// fakeGenerator is a test double for session.InsightGenerator
type fakeGenerator struct {
	mu       sync.Mutex
	result   insights.Result
	err      error
	calls    int
	products []models.Product
}

func (f *fakeGenerator) Generate(_ context.Context, product models.Product, _ string) (insights.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.products = append(f.products, product)
	return f.result, f.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func sampleSurvey() models.SurveyResult {
	return models.SurveyResult{
		TotalTwinsQueried: 5,
		Confidence:        80,
		KeyInsights:       []string{"Spicy wins"},
		SurveyResults: []models.QuestionResult{{
			Question:   "Flavor?",
			TopInsight: "Spicy",
			Confidence: 75,
			DataPoints: []models.DataPoint{{Category: "Spicy", Percentage: 60}, {Category: "Dill", Percentage: 40}},
		}},
	}
}

func TestQueryHandler_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		result   insights.Result
		check    func(t *testing.T, resp QueryResponse)
		wantKind string
	}{
		{
			name:     "structured",
			result:   insights.Structured{Survey: sampleSurvey()},
			wantKind: "structured",
			check: func(t *testing.T, resp QueryResponse) {
				if resp.SurveyResult == nil || resp.TotalTwinsQueried != 5 {
					t.Fatalf("expected survey fields at top level, got %+v", resp)
				}
				if resp.Summary != "Analyzed 5 AI twins with 80% confidence" {
					t.Errorf("Summary = %q", resp.Summary)
				}
				if len(resp.Charts) != 1 || len(resp.Charts[0].Bars) != 2 {
					t.Errorf("unexpected charts: %+v", resp.Charts)
				}
			},
		},
		{
			name:     "plain text",
			result:   insights.PlainText{Text: "Most twins prefer dill."},
			wantKind: "text",
			check: func(t *testing.T, resp QueryResponse) {
				if resp.Response != "Most twins prefer dill." {
					t.Errorf("Response = %q", resp.Response)
				}
				if resp.SurveyResult != nil {
					t.Error("plain text must not carry survey fields")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &fakeGenerator{result: tt.result}
			h := NewQueryHandler(gen, nil)
			w := httptest.NewRecorder()
			h.Query(w, newTestRequest("POST", "/api/v1/query", map[string]string{"product": "oats", "question": "What flavors?"}))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			var resp QueryResponse
			body := decodeEnvelope(t, w, &resp)
			if body["success"] != true {
				t.Errorf("expected success envelope, got %v", body)
			}
			if resp.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", resp.Kind, tt.wantKind)
			}
			if gen.products[0] != models.ProductOvernightOats {
				t.Errorf("alias not resolved: %q", gen.products[0])
			}
			tt.check(t, resp)
		})
	}
}

func TestQueryHandler_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        any
		genErr      error
		wantStatus  int
		wantCalls   int
		wantMessage string
	}{
		{
			name:       "unknown product",
			body:       map[string]string{"product": "kombucha", "question": "Why?"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing product",
			body:       map[string]string{"question": "Why?"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "blank question",
			body:       map[string]string{"product": "pickles", "question": "   "},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "question too long",
			body:       map[string]string{"product": "pickles", "question": strings.Repeat("a", 1001)},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "no profiles",
			body:        map[string]string{"product": "pickles", "question": "Why?"},
			genErr:      fmt.Errorf("failed to fetch profiles: %w", database.ErrNoProfilesAvailable),
			wantStatus:  http.StatusServiceUnavailable,
			wantCalls:   1,
			wantMessage: "No AI twin profiles are available for Pickles right now",
		},
		{
			name:        "completion failure",
			body:        map[string]string{"product": "pickles", "question": "Why?"},
			genErr:      fmt.Errorf("failed to generate insights: %w", &ai.CompletionError{Provider: "openai", Operation: "generate_insights", Err: errors.New("secret upstream detail")}),
			wantStatus:  http.StatusBadGateway,
			wantCalls:   1,
			wantMessage: "The insight service is temporarily unavailable. Please try again.",
		},
		{
			name:        "unexpected failure",
			body:        map[string]string{"product": "pickles", "question": "Why?"},
			genErr:      errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCalls:   1,
			wantMessage: "Failed to generate insights",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &fakeGenerator{err: tt.genErr}
			h := NewQueryHandler(gen, nil)
			w := httptest.NewRecorder()
			h.Query(w, newTestRequest("POST", "/api/v1/query", tt.body))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if gen.callCount() != tt.wantCalls {
				t.Errorf("generator calls = %d, want %d", gen.callCount(), tt.wantCalls)
			}
			body := decodeEnvelope(t, w, nil)
			if body["success"] != false {
				t.Errorf("expected error envelope, got %v", body)
			}
			if tt.wantMessage != "" && body["message"] != tt.wantMessage {
				t.Errorf("message = %v, want %q", body["message"], tt.wantMessage)
			}
			if strings.Contains(w.Body.String(), "secret upstream detail") {
				t.Error("upstream error details must not reach the client")
			}
		})
	}
}

func TestQueryHandler_InvalidJSON(t *testing.T) {
	t.Parallel()

	h := NewQueryHandler(&fakeGenerator{}, nil)
	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.Query(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestQueryHandler_BodyTooLarge(t *testing.T) {
	t.Parallel()

	h := NewQueryHandler(&fakeGenerator{}, nil)
	req := newTestRequest("POST", "/api/v1/query", map[string]string{"product": "pickles", "question": strings.Repeat("a", 200)})
	w := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(w, req.Body, 16)
	h.Query(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}
