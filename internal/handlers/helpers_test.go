package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSON(w, http.StatusCreated, map[string]any{"product": "pickles", "remaining": 10})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var data struct {
		Product   string `json:"product"`
		Remaining int    `json:"remaining"`
	}
	body := decodeEnvelope(t, w, &data)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if data.Product != "pickles" || data.Remaining != 10 {
		t.Errorf("data = %+v", data)
	}
	ts, _ := body["timestamp"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", ts, err)
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		errorType   string
		message     string
		wantMessage string
	}{
		{
			name:        "conflict",
			status:      http.StatusConflict,
			errorType:   "Conflict",
			message:     "A question is already being answered",
			wantMessage: "A question is already being answered",
		},
		{
			name:        "long upstream message is truncated",
			status:      http.StatusBadGateway,
			errorType:   "Bad Gateway",
			message:     strings.Repeat("overloaded ", 40),
			wantMessage: strings.Repeat("overloaded ", 40)[:maxErrorMessageLength] + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSONError(w, tt.status, tt.errorType, tt.message)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			body := decodeEnvelope(t, w, nil)
			if body["success"] != false || body["error"] != tt.errorType {
				t.Errorf("unexpected envelope %v", body)
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("message = %q, want %q", body["message"], tt.wantMessage)
			}
			if _, ok := body["data"]; ok {
				t.Error("error envelope must not carry data")
			}
		})
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	t.Parallel()

	if got := sanitizeErrorMessage("short"); got != "short" {
		t.Errorf("sanitizeErrorMessage() = %q", got)
	}

	// a multi-byte rune straddling the cut must not leave invalid UTF-8
	msg := strings.Repeat("a", maxErrorMessageLength-1) + "é and more"
	got := sanitizeErrorMessage(msg)
	if !utf8.ValidString(got) || !strings.HasSuffix(got, "...") {
		t.Errorf("sanitizeErrorMessage() = %q", got)
	}
	if len(got) > maxErrorMessageLength+3 {
		t.Errorf("expected at most %d bytes, got %d", maxErrorMessageLength+3, len(got))
	}
}

func TestDecodeAndValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		limit       int64
		wantOK      bool
		wantStatus  int
		wantMessage string
	}{
		{name: "valid", body: `{"product": "oats"}`, wantOK: true},
		{name: "malformed", body: `{"product": `, wantStatus: http.StatusBadRequest, wantMessage: "Invalid request body"},
		{name: "missing product", body: `{}`, wantStatus: http.StatusBadRequest, wantMessage: "product is required"},
		{name: "unknown product", body: `{"product": "kimchi"}`, wantStatus: http.StatusBadRequest, wantMessage: `invalid product "kimchi"`},
		{name: "too large", body: `{"product": "pickles"}`, limit: 8, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			r := httptest.NewRequest("POST", "/api/v1/sessions", strings.NewReader(tt.body))
			if tt.limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, tt.limit)
			}

			var req CreateSessionRequest
			ok := decodeAndValidate(w, r, &req)
			if ok != tt.wantOK {
				t.Fatalf("decodeAndValidate() = %v, want %v (body %s)", ok, tt.wantOK, w.Body.String())
			}
			if ok {
				if req.Product != "oats" {
					t.Errorf("Product = %q", req.Product)
				}
				return
			}
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := decodeEnvelope(t, w, nil)
			if tt.wantMessage != "" && body["message"] != tt.wantMessage {
				t.Errorf("message = %q, want %q", body["message"], tt.wantMessage)
			}
		})
	}
}

// newTestRequest builds a request with an optional JSON body
func newTestRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// decodeEnvelope decodes a response envelope, unmarshalling data into dst when non-nil
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, dst any) map[string]any {
	t.Helper()
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("Failed to decode response: %v (%s)", err, w.Body.String())
	}
	if dst != nil {
		if err := json.Unmarshal(raw["data"], dst); err != nil {
			t.Fatalf("Failed to decode data: %v", err)
		}
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}
