package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/benvon/twin-insights/internal/models"
)

type fakeRatelimitRepo struct {
	mu     sync.Mutex
	cfg    *models.RatelimitConfig
	getErr error
	saved  []string
}

func (f *fakeRatelimitRepo) Get(context.Context) (*models.RatelimitConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg, f.getErr
}

func (f *fakeRatelimitRepo) Set(_ context.Context, c *models.RatelimitConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, c.Rate)
	f.cfg = &models.RatelimitConfig{Rate: c.Rate}
	return nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, ip string) int {
	req := httptest.NewRequest("POST", "/api/v1/query", nil)
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitReloader_EnforcesStoredRate(t *testing.T) {
	t.Parallel()

	repo := &fakeRatelimitRepo{cfg: &models.RatelimitConfig{Rate: "2-M"}}
	rl := NewRateLimitReloader(NewMemoryLimiterStore(), repo, "", zap.NewNop(), 0)
	h := rl.Middleware()(okHandler())

	if rl.Rate() != "2-M" {
		t.Errorf("Rate() = %q", rl.Rate())
	}
	for i := 0; i < 2; i++ {
		if code := hit(h, "1.1.1.1"); code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, code)
		}
	}
	if code := hit(h, "1.1.1.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", code)
	}
	if code := hit(h, "2.2.2.2"); code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", code)
	}
}

func TestRateLimitReloader_SavesDefaultWhenMissing(t *testing.T) {
	t.Parallel()

	repo := &fakeRatelimitRepo{}
	rl := NewRateLimitReloader(NewMemoryLimiterStore(), repo, "", zap.NewNop(), 0)
	rl.Middleware()(okHandler())

	if len(repo.saved) != 1 || repo.saved[0] != DefaultQueryRate {
		t.Errorf("expected default rate saved, got %v", repo.saved)
	}
	if rl.Rate() != DefaultQueryRate {
		t.Errorf("Rate() = %q", rl.Rate())
	}
}

func TestRateLimitReloader_FallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		repo *fakeRatelimitRepo
	}{
		{name: "db error", repo: &fakeRatelimitRepo{getErr: errors.New("db down")}},
		{name: "unparseable rate", repo: &fakeRatelimitRepo{cfg: &models.RatelimitConfig{Rate: "lots"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rl := NewRateLimitReloader(NewMemoryLimiterStore(), tt.repo, "5-S", zap.NewNop(), 0)
			h := rl.Middleware()(okHandler())
			if rl.Rate() != "5-S" {
				t.Errorf("Rate() = %q, want default", rl.Rate())
			}
			if code := hit(h, "3.3.3.3"); code != http.StatusOK {
				t.Errorf("status = %d", code)
			}
		})
	}
}

func TestRateLimitReloader_HotReload(t *testing.T) {
	t.Parallel()

	repo := &fakeRatelimitRepo{cfg: &models.RatelimitConfig{Rate: "1-M"}}
	rl := NewRateLimitReloader(NewMemoryLimiterStore(), repo, "", zap.NewNop(), 0)
	h := rl.Middleware()(okHandler())

	hit(h, "4.4.4.4")
	if code := hit(h, "4.4.4.4"); code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", code)
	}

	repo.mu.Lock()
	repo.cfg = &models.RatelimitConfig{Rate: "100-M"}
	repo.mu.Unlock()
	rl.load(context.Background())

	if rl.Rate() != "100-M" {
		t.Errorf("Rate() = %q after reload", rl.Rate())
	}
	if code := hit(h, "4.4.4.4"); code != http.StatusOK {
		t.Errorf("status after reload = %d, want 200", code)
	}
}
