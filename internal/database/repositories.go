package database

import (
	"context"

	"github.com/benvon/twin-insights/internal/models"
)

// ProfileStore defines the read-only profile operations used by the insight generator.
// This interface enables better testability by allowing fake implementations
type ProfileStore interface {
	FetchActiveProfiles(ctx context.Context, product models.Product, limit int) ([]*models.Profile, error)
}

// CorsConfigStore defines the CORS config operations used by the CORS reloader
type CorsConfigStore interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
}

// RatelimitConfigStore defines the rate limit config operations used by the rate limit reloader
type RatelimitConfigStore interface {
	Get(ctx context.Context) (*models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
}

// Ensure concrete types implement the interfaces
var (
	_ ProfileStore         = (*ProfileRepository)(nil)
	_ CorsConfigStore      = (*CorsConfigRepository)(nil)
	_ RatelimitConfigStore = (*RatelimitConfigRepository)(nil)
)
