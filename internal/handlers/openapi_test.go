package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const testOpenAPIDoc = `openapi: 3.0.3
info:
  title: Twin Insights API
  version: 1.0.0
paths:
  /api/v1/query:
    post:
      summary: Ask a question
`

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.yaml")
	if err := os.WriteFile(path, []byte(testOpenAPIDoc), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	h := NewOpenAPIHandler(path)

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		h.ServeYAML(w, httptest.NewRequest("GET", "/api/v1/openapi.yaml", nil))
		if w.Code != http.StatusOK || w.Body.String() != testOpenAPIDoc {
			t.Errorf("status = %d body = %q", w.Code, w.Body.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		h.ServeJSON(w, httptest.NewRequest("GET", "/api/v1/openapi.json", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var doc map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		info, _ := doc["info"].(map[string]any)
		if info["title"] != "Twin Insights API" {
			t.Errorf("unexpected info: %v", doc["info"])
		}
	})
}

func TestOpenAPIHandler_Missing(t *testing.T) {
	t.Parallel()

	h := NewOpenAPIHandler(filepath.Join(t.TempDir(), "missing.yaml"))
	for name, serveFn := range map[string]http.HandlerFunc{"yaml": h.ServeYAML, "json": h.ServeJSON} {
		w := httptest.NewRecorder()
		serveFn(w, httptest.NewRequest("GET", "/", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", name, w.Code)
		}
	}
}

func TestOpenAPIHandler_RepositoryDocument(t *testing.T) {
	t.Parallel()

	h := NewOpenAPIHandler(filepath.Join("..", "..", "api", "openapi", "openapi.yaml"))
	w := httptest.NewRecorder()
	h.ServeJSON(w, httptest.NewRequest("GET", "/api/v1/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, path := range []string{"/api/v1/query", "/api/v1/sessions", "/api/v1/sessions/{id}/questions", "/api/v1/sessions/{id}/product"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("document missing %s", path)
		}
	}
}
