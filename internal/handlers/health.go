package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const healthCheckTimeout = 5 * time.Second

// Pinger is satisfied by *database.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker handles health check requests
type HealthChecker struct {
	db    Pinger
	redis redis.UniversalClient
}

// NewHealthChecker creates a health checker for the database only
func NewHealthChecker(db Pinger) *HealthChecker {
	return &HealthChecker{db: db}
}

// NewHealthCheckerWithDeps creates a health checker that also checks Redis. redisClient may be nil.
func NewHealthCheckerWithDeps(db Pinger, redisClient redis.UniversalClient) *HealthChecker {
	return &HealthChecker{db: db, redis: redisClient}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. ?mode=extended checks dependencies.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		response.Checks = map[string]string{
			"database": h.check(ctx, h.checkDatabase),
			"redis":    h.check(ctx, h.checkRedis),
		}
		for _, v := range response.Checks {
			if v != "healthy" && v != "not configured" {
				response.Status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

var errNotConfigured = &notConfiguredError{}

type notConfiguredError struct{}

func (*notConfiguredError) Error() string { return "not configured" }

func (h *HealthChecker) check(ctx context.Context, fn func(context.Context) error) string {
	err := fn(ctx)
	switch {
	case err == nil:
		return "healthy"
	case err == errNotConfigured:
		return "not configured"
	default:
		// Dependency errors can leak hostnames; report state only
		return "unhealthy"
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return errNotConfigured
	}
	return h.db.PingContext(ctx)
}

func (h *HealthChecker) checkRedis(ctx context.Context) error {
	if h.redis == nil {
		return errNotConfigured
	}
	return h.redis.Ping(ctx).Err()
}
