package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/twin-insights/internal/request"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated when missing", incoming: "", keep: false},
		{name: "client id kept", incoming: "abc-123.x_y", keep: true},
		{name: "unsafe id replaced", incoming: "bad id\nwith newline", keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = request.RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest("GET", "/", nil)
			if tt.incoming != "" {
				req.Header.Set(request.HeaderRequestID, tt.incoming)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			echoed := w.Header().Get(request.HeaderRequestID)
			if seen == "" || echoed != seen {
				t.Errorf("context id %q, header id %q", seen, echoed)
			}
			if tt.keep && seen != tt.incoming {
				t.Errorf("expected client id %q to be kept, got %q", tt.incoming, seen)
			}
			if !tt.keep && seen == tt.incoming {
				t.Errorf("expected id to be replaced")
			}
		})
	}
}
