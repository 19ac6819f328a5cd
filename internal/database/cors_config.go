package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/benvon/twin-insights/internal/models"
)

// corsConfigKey is the single row the demo keeps; the table allows more for later environments
const corsConfigKey = "default"

// ErrCorsConfigNotFound means no origins are stored and callers should use FRONTEND_URL
var ErrCorsConfigNotFound = errors.New("cors config not found")

// CorsConfigRepository stores the browser origins allowed to call the demo API
type CorsConfigRepository struct {
	db *DB
}

// NewCorsConfigRepository creates a new CORS config repository
func NewCorsConfigRepository(db *DB) *CorsConfigRepository {
	return &CorsConfigRepository{db: db}
}

// Get returns the stored origins or ErrCorsConfigNotFound
func (r *CorsConfigRepository) Get(ctx context.Context) (*models.CorsConfig, error) {
	var c models.CorsConfig
	row := r.db.QueryRowContext(ctx,
		`SELECT config_key, allowed_origins, allow_credentials, max_age, created_at, updated_at
		 FROM cors_config WHERE config_key = $1`, corsConfigKey)
	switch err := row.Scan(&c.ConfigKey, &c.AllowedOrigins, &c.AllowCredentials, &c.MaxAge, &c.CreatedAt, &c.UpdatedAt); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrCorsConfigNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to read cors config: %w", err)
	}
	return &c, nil
}

// Set validates and stores the origins, filling the row's timestamps back into c
func (r *CorsConfigRepository) Set(ctx context.Context, c *models.CorsConfig) error {
	origins, err := ParseOrigins(c.AllowedOrigins)
	if err != nil {
		return err
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("max_age must not be negative, got %d", c.MaxAge)
	}
	c.ConfigKey = corsConfigKey
	c.AllowedOrigins = strings.Join(origins, ",")

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO cors_config (config_key, allowed_origins, allow_credentials, max_age, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 ON CONFLICT (config_key) DO UPDATE SET
			allowed_origins = EXCLUDED.allowed_origins,
			allow_credentials = EXCLUDED.allow_credentials,
			max_age = EXCLUDED.max_age,
			updated_at = NOW()
		 RETURNING created_at, updated_at`,
		c.ConfigKey, c.AllowedOrigins, c.AllowCredentials, c.MaxAge,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to store cors config: %w", err)
	}
	return nil
}

// Clear removes the stored origins so servers fall back to FRONTEND_URL.
// It reports whether a row existed.
func (r *CorsConfigRepository) Clear(ctx context.Context) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cors_config WHERE config_key = $1`, corsConfigKey)
	if err != nil {
		return false, fmt.Errorf("failed to clear cors config: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to clear cors config: %w", err)
	}
	return n > 0, nil
}

// SplitOrigins breaks a comma-separated list into unique origins without
// trailing slashes. Blank entries are skipped; nothing is validated.
func SplitOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		origin := strings.TrimRight(strings.TrimSpace(part), "/")
		if origin == "" || slices.Contains(out, origin) {
			continue
		}
		out = append(out, origin)
	}
	return out
}

// ParseOrigins splits raw like SplitOrigins and requires every entry to be
// a bare http(s) origin such as https://demo.example.com
func ParseOrigins(raw string) ([]string, error) {
	origins := SplitOrigins(raw)
	if len(origins) == 0 {
		return nil, errors.New("at least one origin is required")
	}
	for _, origin := range origins {
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" ||
			u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
			return nil, fmt.Errorf("invalid origin %q (expected e.g. https://example.com)", origin)
		}
	}
	return origins, nil
}
